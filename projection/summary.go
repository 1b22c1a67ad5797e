package projection

// Summary aggregates a projected sequence
type Summary struct {
	Weeks            int
	StartingBalance  float64
	FinalBalance     float64
	TotalInterest    float64
	TotalTax         float64
	TotalDeposits    float64
	TotalWithdrawals float64
}

// NetGrowth is the change in balance not explained by cash flows
func (s Summary) NetGrowth() float64 {
	return s.FinalBalance - s.StartingBalance - s.TotalDeposits + s.TotalWithdrawals
}

// Summarize totals the given weeks. An empty input yields a zero Summary.
func Summarize(weeks []Week) Summary {
	if len(weeks) == 0 {
		return Summary{}
	}

	summary := Summary{
		Weeks:           len(weeks),
		StartingBalance: weeks[0].BeginningBalance,
		FinalBalance:    weeks[len(weeks)-1].EndingBalance,
	}
	for _, w := range weeks {
		summary.TotalInterest += w.Interest
		summary.TotalTax += w.TaxDeduction
		summary.TotalDeposits += w.Deposit
		summary.TotalWithdrawals += w.Withdrawal
	}

	return summary
}
