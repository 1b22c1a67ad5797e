package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"projector/projection"

	"github.com/spf13/cobra"
)

var projectFlags struct {
	principal       float64
	rate            float64
	weeks           int
	tax             float64
	deposit         float64
	depositEvery    int
	withdrawal      float64
	withdrawalEvery int
}

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Run a projection locally and print the weekly rows",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		params := projection.Params{
			Principal:     projectFlags.principal,
			WeeklyRatePct: projectFlags.rate,
			Weeks:         projectFlags.weeks,
			TaxRatePct:    projectFlags.tax,
		}
		if projectFlags.depositEvery != 0 {
			params.Deposit = &projection.Recurring{Amount: projectFlags.deposit, EveryWeeks: projectFlags.depositEvery}
		}
		if projectFlags.withdrawalEvery != 0 {
			params.Withdrawal = &projection.Recurring{Amount: projectFlags.withdrawal, EveryWeeks: projectFlags.withdrawalEvery}
		}

		weeks, err := projection.Project(params)
		if err != nil {
			return err
		}
		return printProjection(cmd.OutOrStdout(), weeks)
	},
}

func init() {
	f := projectCmd.Flags()
	f.Float64Var(&projectFlags.principal, "principal", 0, "starting balance")
	f.Float64Var(&projectFlags.rate, "rate", 0, "weekly interest rate in percent")
	f.IntVar(&projectFlags.weeks, "weeks", 52, "number of weeks to project")
	f.Float64Var(&projectFlags.tax, "tax", 0, "tax rate on profit in percent")
	f.Float64Var(&projectFlags.deposit, "deposit", 0, "recurring deposit amount")
	f.IntVar(&projectFlags.depositEvery, "deposit-every", 0, "deposit frequency in weeks, 0 disables deposits")
	f.Float64Var(&projectFlags.withdrawal, "withdrawal", 0, "recurring withdrawal amount")
	f.IntVar(&projectFlags.withdrawalEvery, "withdrawal-every", 0, "withdrawal frequency in weeks, 0 disables withdrawals")
}

func printProjection(out io.Writer, weeks []projection.Week) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "week\tbeginning\tinterest\ttax\tdeposit\twithdrawal\tending\t")
	for _, w := range weeks {
		fmt.Fprintf(tw, "%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t\n",
			w.Week, w.BeginningBalance, w.Interest, w.TaxDeduction, w.Deposit, w.Withdrawal, w.EndingBalance)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s := projection.Summarize(weeks)
	_, err := fmt.Fprintf(out, "\nfinal balance %.2f after %d weeks (interest %.2f, tax %.2f, deposits %.2f, withdrawals %.2f, net growth %.2f)\n",
		s.FinalBalance, s.Weeks, s.TotalInterest, s.TotalTax, s.TotalDeposits, s.TotalWithdrawals, s.NetGrowth())
	return err
}
