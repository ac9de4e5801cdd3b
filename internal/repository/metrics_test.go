package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumina-health/lumina-ai-go/internal/models"
)

func day(d int) time.Time {
	return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func TestGetDailySeriesGroupsByMetric(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	metricIDs := []string{"protein_g", "sleep_score"}
	start, end := day(0), day(6)

	rows := pgxmock.NewRows([]string{"metric_id", "domain", "day", "value"}).
		AddRow("protein_g", "nutrition", day(0), 110.0).
		AddRow("protein_g", "nutrition", day(2), 95.0).
		AddRow("sleep_score", "wearable", day(0), 81.0).
		AddRow("sleep_score", "wearable", day(1), 77.0)

	mock.ExpectQuery("SELECT metric_id, domain, day, value").
		WithArgs("user-1", metricIDs, start, end).
		WillReturnRows(rows)

	repo := NewMetricRepository(mock, nil)
	series, err := repo.GetDailySeries(context.Background(), "user-1", metricIDs, start, end)
	require.NoError(t, err)

	require.Len(t, series, 2)
	assert.Equal(t, "protein_g", series[0].MetricID)
	assert.Equal(t, models.DomainNutrition, series[0].Domain)
	require.Len(t, series[0].Points, 2)
	assert.Equal(t, day(2), series[0].Points[1].Date)
	assert.Equal(t, 95.0, series[0].Points[1].Value)

	assert.Equal(t, "sleep_score", series[1].MetricID)
	assert.Equal(t, models.DomainWearable, series[1].Domain)
	require.Len(t, series[1].Points, 2)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDailySeriesEmptyResult(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT metric_id, domain, day, value").
		WithArgs("user-1", []string{"hrv"}, day(0), day(6)).
		WillReturnRows(pgxmock.NewRows([]string{"metric_id", "domain", "day", "value"}))

	repo := NewMetricRepository(mock, nil)
	series, err := repo.GetDailySeries(context.Background(), "user-1", []string{"hrv"}, day(0), day(6))
	require.NoError(t, err)
	assert.Empty(t, series)
}

func TestGetDailySeriesQueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT metric_id, domain, day, value").
		WithArgs("user-1", []string{"hrv"}, day(0), day(6)).
		WillReturnError(errors.New("connection reset"))

	repo := NewMetricRepository(mock, nil)
	series, err := repo.GetDailySeries(context.Background(), "user-1", []string{"hrv"}, day(0), day(6))
	assert.Nil(t, series)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query daily metrics")
}
