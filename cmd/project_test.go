package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"project",
		"--principal", "1000", "--rate", "1", "--weeks", "4",
		"--tax", "10", "--deposit", "50", "--deposit-every", "2",
	})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, Execute(context.Background()))

	output := out.String()
	assert.Contains(t, output, "1068.08")
	assert.Contains(t, output, "final balance 1137.39 after 4 weeks")
	assert.Contains(t, output, "deposits 100.00")
}

func TestProjectCommand_RejectsInvalidFrequency(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"project", "--principal", "1000", "--weeks", "4", "--deposit", "50", "--deposit-every", "-1"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	assert.Error(t, Execute(context.Background()))
}
