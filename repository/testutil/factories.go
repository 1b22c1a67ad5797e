package testutil

import (
	"fmt"
	"time"

	"projector/models"
)

// CreateTestUser creates a test user with default values
func CreateTestUser(username string) *models.User {
	return &models.User{
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
	}
}

// CreateTestManager creates a test user with manager rights
func CreateTestManager(username string) *models.User {
	user := CreateTestUser(username)
	user.IsManager = true
	return user
}

// CreateTestAnalysis creates a test analysis owned by userID
func CreateTestAnalysis(userID int64, description string) *models.Analysis {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Analysis{
		UserID:          userID,
		Description:     description,
		Principal:       1000,
		WeeklyRatePct:   1,
		ProjectionWeeks: 4,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// CreateTestAnalysisAt creates a test analysis with a fixed creation time
func CreateTestAnalysisAt(userID int64, description string, createdAt time.Time) *models.Analysis {
	analysis := CreateTestAnalysis(userID, description)
	analysis.CreatedAt = createdAt
	analysis.UpdatedAt = createdAt
	return analysis
}

// CreateTestWeeklyResults creates weeks rows compounding at 1% from startBalance
func CreateTestWeeklyResults(analysisID int64, tier models.ResultTier, weeks int, startBalance float64, generatedAt time.Time) []*models.WeeklyResult {
	rows := make([]*models.WeeklyResult, 0, weeks)
	balance := startBalance
	for week := 1; week <= weeks; week++ {
		interest := balance * 0.01
		row := &models.WeeklyResult{
			AnalysisID:       analysisID,
			Tier:             tier,
			Week:             week,
			BeginningBalance: balance,
			Interest:         interest,
			Profit:           interest,
			EndingBalance:    balance + interest,
			GeneratedAt:      generatedAt,
		}
		if tier == models.ResultTierPermanent {
			promotedAt := generatedAt
			row.PromotedAt = &promotedAt
		}
		rows = append(rows, row)
		balance = row.EndingBalance
	}
	return rows
}
