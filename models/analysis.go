package models

import (
	"time"
)

// Analysis holds the parameters of a savings projection
type Analysis struct {
	ID                  int64     `db:"id" json:"id"`
	UserID              int64     `db:"user_id" json:"user_id"`
	Description         string    `db:"description" json:"description"`
	Principal           float64   `db:"principal" json:"principal"`
	WeeklyRatePct       float64   `db:"weekly_rate_pct" json:"weekly_rate_pct"`
	ProjectionWeeks     int       `db:"projection_weeks" json:"projection_weeks"`
	TaxRatePct          float64   `db:"tax_rate_pct" json:"tax_rate_pct"`
	DepositAmount       float64   `db:"deposit_amount" json:"deposit_amount"`
	DepositFrequency    *int      `db:"deposit_frequency" json:"deposit_frequency,omitempty"`
	WithdrawalAmount    float64   `db:"withdrawal_amount" json:"withdrawal_amount"`
	WithdrawalFrequency *int      `db:"withdrawal_frequency" json:"withdrawal_frequency,omitempty"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// AnalysisInput carries the caller-supplied fields of a new analysis.
// A nil frequency disables the corresponding cash flow.
type AnalysisInput struct {
	Description         string  `json:"description" validate:"required,max=500"`
	Principal           float64 `json:"principal" validate:"finite,gte=0"`
	WeeklyRatePct       float64 `json:"weekly_rate_pct" validate:"finite"`
	ProjectionWeeks     int     `json:"projection_weeks" validate:"min=1"`
	TaxRatePct          float64 `json:"tax_rate_pct" validate:"finite,gte=0,lte=100"`
	DepositAmount       float64 `json:"deposit_amount" validate:"finite,gte=0"`
	DepositFrequency    *int    `json:"deposit_frequency" validate:"omitempty,min=1"`
	WithdrawalAmount    float64 `json:"withdrawal_amount" validate:"finite,gte=0"`
	WithdrawalFrequency *int    `json:"withdrawal_frequency" validate:"omitempty,min=1"`
}

// AnalysisUpdate changes selected fields of an existing analysis; nil fields are kept.
// ClearDeposit and ClearWithdrawal disable a cash flow.
type AnalysisUpdate struct {
	Description         *string  `json:"description,omitempty" validate:"omitempty,min=1,max=500"`
	Principal           *float64 `json:"principal,omitempty" validate:"omitempty,finite,gte=0"`
	WeeklyRatePct       *float64 `json:"weekly_rate_pct,omitempty" validate:"omitempty,finite"`
	ProjectionWeeks     *int     `json:"projection_weeks,omitempty" validate:"omitempty,min=1"`
	TaxRatePct          *float64 `json:"tax_rate_pct,omitempty" validate:"omitempty,finite,gte=0,lte=100"`
	DepositAmount       *float64 `json:"deposit_amount,omitempty" validate:"omitempty,finite,gte=0"`
	DepositFrequency    *int     `json:"deposit_frequency,omitempty" validate:"omitempty,min=1"`
	ClearDeposit        bool     `json:"clear_deposit,omitempty"`
	WithdrawalAmount    *float64 `json:"withdrawal_amount,omitempty" validate:"omitempty,finite,gte=0"`
	WithdrawalFrequency *int     `json:"withdrawal_frequency,omitempty" validate:"omitempty,min=1"`
	ClearWithdrawal     bool     `json:"clear_withdrawal,omitempty"`
}

// Input returns the editable fields of the analysis
func (a *Analysis) Input() AnalysisInput {
	return AnalysisInput{
		Description:         a.Description,
		Principal:           a.Principal,
		WeeklyRatePct:       a.WeeklyRatePct,
		ProjectionWeeks:     a.ProjectionWeeks,
		TaxRatePct:          a.TaxRatePct,
		DepositAmount:       a.DepositAmount,
		DepositFrequency:    copyInt(a.DepositFrequency),
		WithdrawalAmount:    a.WithdrawalAmount,
		WithdrawalFrequency: copyInt(a.WithdrawalFrequency),
	}
}

// Apply overwrites the analysis' editable fields with in
func (a *Analysis) Apply(in AnalysisInput) {
	a.Description = in.Description
	a.Principal = in.Principal
	a.WeeklyRatePct = in.WeeklyRatePct
	a.ProjectionWeeks = in.ProjectionWeeks
	a.TaxRatePct = in.TaxRatePct
	a.DepositAmount = in.DepositAmount
	a.DepositFrequency = copyInt(in.DepositFrequency)
	a.WithdrawalAmount = in.WithdrawalAmount
	a.WithdrawalFrequency = copyInt(in.WithdrawalFrequency)
}

// Merge applies the update on top of in and returns the result
func (u AnalysisUpdate) Merge(in AnalysisInput) AnalysisInput {
	if u.Description != nil {
		in.Description = *u.Description
	}
	if u.Principal != nil {
		in.Principal = *u.Principal
	}
	if u.WeeklyRatePct != nil {
		in.WeeklyRatePct = *u.WeeklyRatePct
	}
	if u.ProjectionWeeks != nil {
		in.ProjectionWeeks = *u.ProjectionWeeks
	}
	if u.TaxRatePct != nil {
		in.TaxRatePct = *u.TaxRatePct
	}
	if u.DepositAmount != nil {
		in.DepositAmount = *u.DepositAmount
	}
	if u.DepositFrequency != nil {
		in.DepositFrequency = copyInt(u.DepositFrequency)
	}
	if u.ClearDeposit {
		in.DepositAmount = 0
		in.DepositFrequency = nil
	}
	if u.WithdrawalAmount != nil {
		in.WithdrawalAmount = *u.WithdrawalAmount
	}
	if u.WithdrawalFrequency != nil {
		in.WithdrawalFrequency = copyInt(u.WithdrawalFrequency)
	}
	if u.ClearWithdrawal {
		in.WithdrawalAmount = 0
		in.WithdrawalFrequency = nil
	}
	return in
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
