package repository

import (
	"context"
	"fmt"
	"strings"

	"projector/database"
	"projector/models"

	"github.com/jackc/pgx/v5"
)

// resultTables maps each tier onto its table. Both tables share resultColumns.
var resultTables = map[models.ResultTier]string{
	models.ResultTierStaging:   "staging_results",
	models.ResultTierPermanent: "permanent_results",
}

var resultColumns = []string{
	"analysis_id",
	"week",
	"beginning_balance",
	"interest",
	"profit",
	"tax_deduction",
	"deposit",
	"withdrawal",
	"ending_balance",
	"generated_at",
	"promoted_at",
}

// resultSelectList is the column list read back by scanWeeklyResult
var resultSelectList = "id, " + strings.Join(resultColumns, ", ")

// ResultRepository implements the ResultRepository interface for one tier
type ResultRepository struct {
	q     queryable
	tier  models.ResultTier
	table string
}

// NewResultRepository creates a result repository bound to a tier
func NewResultRepository(db *database.DB, tier models.ResultTier) *ResultRepository {
	return newResultRepositoryWithTx(db.Pool, tier)
}

// newResultRepositoryWithTx creates a result repository with a transaction
func newResultRepositoryWithTx(tx queryable, tier models.ResultTier) *ResultRepository {
	table, ok := resultTables[tier]
	if !ok {
		panic(fmt.Sprintf("unknown result tier %q", tier))
	}
	return &ResultRepository{q: tx, tier: tier, table: table}
}

// Tier reports which tier the repository is bound to
func (r *ResultRepository) Tier() models.ResultTier {
	return r.tier
}

// ReplaceAll deletes the analysis' rows in this tier and bulk inserts rows.
// Runs in a savepoint when called inside a transaction, so either all rows change or none.
func (r *ResultRepository) ReplaceAll(ctx context.Context, analysisID int64, rows []*models.WeeklyResult) error {
	for _, row := range rows {
		if row.AnalysisID != analysisID {
			return fmt.Errorf("week %d of analysis %d replacing analysis %d: %w", row.Week, row.AnalysisID, analysisID, models.ErrForeignResultRow)
		}
	}

	return pgx.BeginFunc(ctx, r.q, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM `+r.table+` WHERE analysis_id = $1`, analysisID); err != nil {
			return fmt.Errorf("failed to clear %s results of analysis %d: %w", r.tier, analysisID, err)
		}

		if len(rows) == 0 {
			return nil
		}

		copied, err := tx.CopyFrom(ctx,
			pgx.Identifier{r.table},
			resultColumns,
			pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
				row := rows[i]
				return []any{
					row.AnalysisID,
					row.Week,
					row.BeginningBalance,
					row.Interest,
					row.Profit,
					row.TaxDeduction,
					row.Deposit,
					row.Withdrawal,
					row.EndingBalance,
					row.GeneratedAt,
					row.PromotedAt,
				}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("failed to insert %s results of analysis %d: %w", r.tier, analysisID, err)
		}
		if copied != int64(len(rows)) {
			return fmt.Errorf("inserted %d of %d %s results for analysis %d", copied, len(rows), r.tier, analysisID)
		}

		return nil
	})
}

// List returns the analysis' rows ordered by week
func (r *ResultRepository) List(ctx context.Context, analysisID int64) ([]*models.WeeklyResult, error) {
	query := `SELECT ` + resultSelectList + ` FROM ` + r.table + ` WHERE analysis_id = $1 ORDER BY week`

	rows, err := r.q.Query(ctx, query, analysisID)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s results of analysis %d: %w", r.tier, analysisID, err)
	}
	defer rows.Close()

	results := make([]*models.WeeklyResult, 0)
	for rows.Next() {
		result, err := scanWeeklyResult(rows, r.tier)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s result: %w", r.tier, err)
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s results: %w", r.tier, err)
	}

	return results, nil
}

// Count returns the number of rows of the analysis in this tier
func (r *ResultRepository) Count(ctx context.Context, analysisID int64) (int, error) {
	var count int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM `+r.table+` WHERE analysis_id = $1`, analysisID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s results of analysis %d: %w", r.tier, analysisID, err)
	}
	return count, nil
}

// DeleteAll removes the analysis' rows in this tier
func (r *ResultRepository) DeleteAll(ctx context.Context, analysisID int64) (int64, error) {
	result, err := r.q.Exec(ctx, `DELETE FROM `+r.table+` WHERE analysis_id = $1`, analysisID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete %s results of analysis %d: %w", r.tier, analysisID, err)
	}
	return result.RowsAffected(), nil
}

// scanWeeklyResult reads one row selected with resultSelectList
func scanWeeklyResult(row pgx.Row, tier models.ResultTier) (*models.WeeklyResult, error) {
	result := models.WeeklyResult{Tier: tier}
	err := row.Scan(
		&result.ID,
		&result.AnalysisID,
		&result.Week,
		&result.BeginningBalance,
		&result.Interest,
		&result.Profit,
		&result.TaxDeduction,
		&result.Deposit,
		&result.Withdrawal,
		&result.EndingBalance,
		&result.GeneratedAt,
		&result.PromotedAt,
	)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
