package models

import (
	"errors"
	"time"
)

// ErrForeignResultRow is returned when a row handed to a tier belongs to a different analysis
var ErrForeignResultRow = errors.New("result row belongs to another analysis")

// ResultTier identifies the retention tier of a projected week
type ResultTier string

const (
	// ResultTierStaging rows are replaced on every recomputation
	ResultTierStaging ResultTier = "staging"
	// ResultTierPermanent rows are written only by promotion
	ResultTierPermanent ResultTier = "permanent"
)

// WeeklyResult is one projected week of an analysis
type WeeklyResult struct {
	ID               int64      `db:"id" json:"id"`
	AnalysisID       int64      `db:"analysis_id" json:"analysis_id"`
	Tier             ResultTier `db:"-" json:"tier"`
	Week             int        `db:"week" json:"week"`
	BeginningBalance float64    `db:"beginning_balance" json:"beginning_balance"`
	Interest         float64    `db:"interest" json:"interest"`
	Profit           float64    `db:"profit" json:"profit"`
	TaxDeduction     float64    `db:"tax_deduction" json:"tax_deduction"`
	Deposit          float64    `db:"deposit" json:"deposit"`
	Withdrawal       float64    `db:"withdrawal" json:"withdrawal"`
	EndingBalance    float64    `db:"ending_balance" json:"ending_balance"`
	GeneratedAt      time.Time  `db:"generated_at" json:"generated_at"`
	PromotedAt       *time.Time `db:"promoted_at" json:"promoted_at,omitempty"`
}

// PromotionResult describes a completed promotion
type PromotionResult struct {
	AnalysisID       int64     `json:"analysis_id"`
	WeeksPromoted    int       `json:"weeks_promoted"`
	ReplacedPrevious int       `json:"replaced_previous"`
	FinalBalance     float64   `json:"final_balance"`
	PromotedAt       time.Time `json:"promoted_at"`
}
