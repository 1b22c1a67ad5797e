package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"projector/cmd"

	log "github.com/sirupsen/logrus"

	_ "time/tzdata"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		log.WithError(err).Fatal("projector failed")
	}
}
