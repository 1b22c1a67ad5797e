package repository

import (
	"context"
	"errors"
	"fmt"

	"projector/database"
	"projector/models"

	"github.com/jackc/pgx/v5"
)

const analysisColumns = `
	id, user_id, description, principal, weekly_rate_pct, projection_weeks, tax_rate_pct,
	deposit_amount, deposit_frequency, withdrawal_amount, withdrawal_frequency,
	created_at, updated_at`

// AnalysisRepository implements the AnalysisRepository interface
type AnalysisRepository struct {
	q queryable
}

// NewAnalysisRepository creates a new analysis repository
func NewAnalysisRepository(db *database.DB) *AnalysisRepository {
	return &AnalysisRepository{q: db.Pool}
}

// newAnalysisRepositoryWithTx creates a new analysis repository with a transaction
func newAnalysisRepositoryWithTx(tx queryable) *AnalysisRepository {
	return &AnalysisRepository{q: tx}
}

// Create inserts the analysis and fills in its ID
func (r *AnalysisRepository) Create(ctx context.Context, analysis *models.Analysis) error {
	query := `
		INSERT INTO analyses (
			user_id, description, principal, weekly_rate_pct, projection_weeks, tax_rate_pct,
			deposit_amount, deposit_frequency, withdrawal_amount, withdrawal_frequency,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query,
		analysis.UserID,
		analysis.Description,
		analysis.Principal,
		analysis.WeeklyRatePct,
		analysis.ProjectionWeeks,
		analysis.TaxRatePct,
		analysis.DepositAmount,
		analysis.DepositFrequency,
		analysis.WithdrawalAmount,
		analysis.WithdrawalFrequency,
		analysis.CreatedAt,
		analysis.UpdatedAt,
	).Scan(&analysis.ID)
	if err != nil {
		return fmt.Errorf("failed to create analysis for user %d: %w", analysis.UserID, err)
	}

	return nil
}

// GetByID retrieves an analysis, returning nil if it does not exist
func (r *AnalysisRepository) GetByID(ctx context.Context, id int64) (*models.Analysis, error) {
	query := `SELECT ` + analysisColumns + ` FROM analyses WHERE id = $1`

	analysis, err := scanAnalysis(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis %d: %w", id, err)
	}
	return analysis, nil
}

// GetForUpdate retrieves an analysis and locks its row for the rest of the transaction
func (r *AnalysisRepository) GetForUpdate(ctx context.Context, id int64) (*models.Analysis, error) {
	query := `SELECT ` + analysisColumns + ` FROM analyses WHERE id = $1 FOR UPDATE`

	analysis, err := scanAnalysis(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock analysis %d: %w", id, err)
	}
	return analysis, nil
}

// Update stores the editable fields and UpdatedAt
func (r *AnalysisRepository) Update(ctx context.Context, analysis *models.Analysis) error {
	query := `
		UPDATE analyses
		SET description = $2,
			principal = $3,
			weekly_rate_pct = $4,
			projection_weeks = $5,
			tax_rate_pct = $6,
			deposit_amount = $7,
			deposit_frequency = $8,
			withdrawal_amount = $9,
			withdrawal_frequency = $10,
			updated_at = $11
		WHERE id = $1
	`

	result, err := r.q.Exec(ctx, query,
		analysis.ID,
		analysis.Description,
		analysis.Principal,
		analysis.WeeklyRatePct,
		analysis.ProjectionWeeks,
		analysis.TaxRatePct,
		analysis.DepositAmount,
		analysis.DepositFrequency,
		analysis.WithdrawalAmount,
		analysis.WithdrawalFrequency,
		analysis.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update analysis %d: %w", analysis.ID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("analysis %d not found", analysis.ID)
	}

	return nil
}

// Delete removes the analysis; staging rows cascade, permanent rows block the delete
func (r *AnalysisRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.q.Exec(ctx, `DELETE FROM analyses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete analysis %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("analysis %d not found", id)
	}

	return nil
}

// List returns analyses newest first; a nil owner lists all owners
func (r *AnalysisRepository) List(ctx context.Context, ownerID *int64) ([]*models.Analysis, error) {
	query := `
		SELECT ` + analysisColumns + `
		FROM analyses
		WHERE ($1::bigint IS NULL OR user_id = $1)
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.q.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	var analyses []*models.Analysis
	for rows.Next() {
		analysis, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		analyses = append(analyses, analysis)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analyses: %w", err)
	}

	return analyses, nil
}

func scanAnalysis(row pgx.Row) (*models.Analysis, error) {
	var a models.Analysis
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.Description,
		&a.Principal,
		&a.WeeklyRatePct,
		&a.ProjectionWeeks,
		&a.TaxRatePct,
		&a.DepositAmount,
		&a.DepositFrequency,
		&a.WithdrawalAmount,
		&a.WithdrawalFrequency,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
