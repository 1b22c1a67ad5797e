package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"projector/database"
	"projector/models"

	"github.com/jackc/pgx/v5"
)

// ReportRepository implements read-only queries over permanent results
type ReportRepository struct {
	q queryable
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *database.DB) *ReportRepository {
	return &ReportRepository{q: db.Pool}
}

// newReportRepositoryWithTx creates a new report repository with a transaction
func newReportRepositoryWithTx(tx queryable) *ReportRepository {
	return &ReportRepository{q: tx}
}

// conditions accumulates WHERE clauses with numbered placeholders
type conditions struct {
	clauses []string
	args    []any
}

func (c *conditions) add(clause string, arg any) {
	c.args = append(c.args, arg)
	c.clauses = append(c.clauses, strings.ReplaceAll(clause, "?", fmt.Sprintf("$%d", len(c.args))))
}

func (c *conditions) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(c.clauses, " AND ")
}

// containsPattern builds an ILIKE pattern matching s anywhere, with wildcards in s escaped
func containsPattern(s string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
	return "%" + escaped + "%"
}

// QueryResults returns permanent rows joined with their analysis and owner
func (r *ReportRepository) QueryResults(ctx context.Context, filter models.ResultFilter) ([]*models.ResultRecord, error) {
	var c conditions
	if filter.Username != "" {
		c.add("u.username ILIKE ?", containsPattern(filter.Username))
	}
	if filter.DescriptionContains != "" {
		c.add("a.description ILIKE ?", containsPattern(filter.DescriptionContains))
	}
	if filter.PrincipalGT != nil {
		c.add("a.principal > ?", *filter.PrincipalGT)
	}
	if filter.PrincipalLT != nil {
		c.add("a.principal < ?", *filter.PrincipalLT)
	}
	if filter.EndingBalanceGT != nil {
		c.add("p.ending_balance > ?", *filter.EndingBalanceGT)
	}
	if filter.EndingBalanceLT != nil {
		c.add("p.ending_balance < ?", *filter.EndingBalanceLT)
	}
	if filter.GeneratedFrom != nil {
		c.add("p.generated_at >= ?", *filter.GeneratedFrom)
	}
	if filter.GeneratedTo != nil {
		c.add("p.generated_at <= ?", *filter.GeneratedTo)
	}
	if filter.FinalWeekOnly {
		c.clauses = append(c.clauses,
			"p.week = (SELECT MAX(f.week) FROM permanent_results f WHERE f.analysis_id = p.analysis_id)")
	}

	query := `
		SELECT p.id, p.analysis_id, u.username, a.description, a.principal,
			p.week, p.ending_balance, p.generated_at
		FROM permanent_results p
		JOIN analyses a ON a.id = p.analysis_id
		JOIN users u ON u.id = a.user_id
		` + c.where() + `
		ORDER BY p.generated_at DESC, p.analysis_id, p.week
	`

	rows, err := r.q.Query(ctx, query, c.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	records := make([]*models.ResultRecord, 0)
	for rows.Next() {
		var rec models.ResultRecord
		err := rows.Scan(
			&rec.ResultID,
			&rec.AnalysisID,
			&rec.Username,
			&rec.Description,
			&rec.Principal,
			&rec.Week,
			&rec.EndingBalance,
			&rec.GeneratedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result record: %w", err)
		}
		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating result records: %w", err)
	}

	return records, nil
}

// LatestEndingBalance returns the ending balance of the highest permanent week, nil if none
func (r *ReportRepository) LatestEndingBalance(ctx context.Context, analysisID int64) (*models.EndingBalance, error) {
	query := `
		SELECT analysis_id, week, ending_balance
		FROM permanent_results
		WHERE analysis_id = $1
		ORDER BY week DESC
		LIMIT 1
	`

	var balance models.EndingBalance
	err := r.q.QueryRow(ctx, query, analysisID).Scan(&balance.AnalysisID, &balance.Week, &balance.EndingBalance)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest ending balance of analysis %d: %w", analysisID, err)
	}

	return &balance, nil
}

// ListReports returns matching analyses newest first, without their breakdown
func (r *ReportRepository) ListReports(ctx context.Context, filter models.ReportFilter) ([]*models.AnalysisReport, error) {
	var c conditions
	if filter.Username != "" {
		c.add("u.username ILIKE ?", containsPattern(filter.Username))
	}
	if filter.CreatedFrom != nil {
		c.add("a.created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		c.add("a.created_at <= ?", *filter.CreatedTo)
	}

	query := `
		SELECT a.id, u.username, a.description, a.principal, a.created_at
		FROM analyses a
		JOIN users u ON u.id = a.user_id
		` + c.where() + `
		ORDER BY a.created_at DESC, a.id DESC
	`

	rows, err := r.q.Query(ctx, query, c.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	reports := make([]*models.AnalysisReport, 0)
	for rows.Next() {
		var report models.AnalysisReport
		if err := rows.Scan(&report.AnalysisID, &report.Username, &report.Description, &report.Principal, &report.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, &report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}

	return reports, nil
}

// PermanentResultsByAnalysis returns permanent rows of the given analyses ordered by week
func (r *ReportRepository) PermanentResultsByAnalysis(ctx context.Context, analysisIDs []int64) (map[int64][]*models.WeeklyResult, error) {
	byAnalysis := make(map[int64][]*models.WeeklyResult, len(analysisIDs))
	if len(analysisIDs) == 0 {
		return byAnalysis, nil
	}

	query := `
		SELECT ` + resultSelectList + `
		FROM permanent_results
		WHERE analysis_id = ANY($1)
		ORDER BY analysis_id, week
	`

	rows, err := r.q.Query(ctx, query, analysisIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load permanent results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		result, err := scanWeeklyResult(rows, models.ResultTierPermanent)
		if err != nil {
			return nil, fmt.Errorf("failed to scan permanent result: %w", err)
		}
		byAnalysis[result.AnalysisID] = append(byAnalysis[result.AnalysisID], result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating permanent results: %w", err)
	}

	return byAnalysis, nil
}
