package models

import (
	"time"
)

// ResultFilter narrows a query over permanent results. Nil fields are ignored.
type ResultFilter struct {
	Username            string
	DescriptionContains string
	PrincipalGT         *float64
	PrincipalLT         *float64
	EndingBalanceGT     *float64
	EndingBalanceLT     *float64
	GeneratedFrom       *time.Time
	GeneratedTo         *time.Time
	FinalWeekOnly       bool
}

// ResultRecord is a permanent result joined with its analysis and owner
type ResultRecord struct {
	ResultID      int64     `json:"id"`
	AnalysisID    int64     `json:"analysis_id"`
	Username      string    `json:"username"`
	Description   string    `json:"description"`
	Principal     float64   `json:"principal"`
	Week          int       `json:"week"`
	EndingBalance float64   `json:"ending_balance"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// ReportFilter narrows grouped analysis reports
type ReportFilter struct {
	Username    string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// AnalysisReport is an analysis with its permanent weekly breakdown
type AnalysisReport struct {
	AnalysisID      int64           `json:"id"`
	Username        string          `json:"username"`
	Description     string          `json:"description"`
	Principal       float64         `json:"principal"`
	EndingBalance   *float64        `json:"ending_balance"`
	CreatedAt       time.Time       `json:"created_at"`
	WeeklyBreakdown []*WeeklyResult `json:"weekly_breakdown"`
}

// EndingBalance is the last promoted balance of an analysis
type EndingBalance struct {
	AnalysisID    int64   `json:"analysis_id"`
	Week          int     `json:"week"`
	EndingBalance float64 `json:"ending_balance"`
}
