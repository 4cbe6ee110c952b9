package mysql

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/crediview/policyhub/internal/domain/usage"
)

func TestUsageLogRepository_Save(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO ai_usage_logs").
		WithArgs("full", 120, int64(350), 170, true, "", created).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewUsageLogRepository(db)
	err = repo.Save(context.Background(), &domain.Record{
		AnalysisType:     "full",
		ContentLength:    120,
		ProcessingTimeMS: 350,
		TokensUsed:       170,
		Success:          true,
		CreatedAt:        created,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsageLogRepository_SaveDefaultsBlankType(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO ai_usage_logs").
		WithArgs("-", 0, int64(0), 0, false, "provider down", created).
		WillReturnResult(sqlmock.NewResult(2, 1))

	repo := NewUsageLogRepository(db)
	err = repo.Save(context.Background(), &domain.Record{
		ErrorMessage: "provider down",
		CreatedAt:    created,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsageLogRepository_Summary(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) AS total").
		WillReturnRows(sqlmock.NewRows([]string{"total", "successful", "avg_ms", "tokens"}).
			AddRow(10, 8, 412.5, 2400))
	mock.ExpectQuery("GROUP BY analysis_type").
		WillReturnRows(sqlmock.NewRows([]string{"analysis_type", "count"}).
			AddRow("full", 7).
			AddRow("summary", 3))

	repo := NewUsageLogRepository(db)
	s, err := repo.Summary(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, 10, s.TotalRequests)
	assert.Equal(t, 8, s.Successful)
	assert.Equal(t, 2, s.Failed)
	assert.Equal(t, int64(412), s.AvgProcessingMS)
	assert.Equal(t, int64(2400), s.TotalTokens)
	assert.Equal(t, map[string]int{"full": 7, "summary": 3}, s.ByAnalysisType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsageLogRepository_Latest(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	cols := []string{"id", "analysis_type", "content_length", "processing_time_ms", "tokens_used", "success", "error_message", "created_at"}
	mock.ExpectQuery("ORDER BY created_at DESC").
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(2, "full", 300, 500, 180, true, "", now).
			AddRow(1, "quick", 90, 120, 12, false, "quota exceeded", now.Add(-time.Hour)))

	repo := NewUsageLogRepository(db)
	recs, err := repo.Latest(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, int64(2), recs[0].ID)
	assert.Equal(t, "full", recs[0].AnalysisType)
	assert.True(t, recs[0].Success)
	assert.Equal(t, "quota exceeded", recs[1].ErrorMessage)
	assert.NoError(t, mock.ExpectationsWereMet())
}
