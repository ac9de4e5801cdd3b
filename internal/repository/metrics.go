package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/lumina-health/lumina-ai-go/internal/models"
)

// Querier is the slice of pgx the repository needs; satisfied by
// *pgxpool.Pool and by pgxmock in tests.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// MetricRepository reads pre-aggregated daily metric values. It implements
// the engine's SeriesSource contract; ingestion writes the table elsewhere.
type MetricRepository struct {
	db     Querier
	logger *logrus.Logger
}

// NewMetricRepository creates a repository over the given connection.
func NewMetricRepository(db Querier, logger *logrus.Logger) *MetricRepository {
	if logger == nil {
		logger = logrus.New()
	}
	return &MetricRepository{db: db, logger: logger}
}

// GetDailySeries returns one gap-preserving series per metric that has any
// data in [start, end]. Metrics without rows are simply absent from the
// result; the engine treats missing series as missing data, not an error.
func (r *MetricRepository) GetDailySeries(ctx context.Context, userID string, metricIDs []string, start, end time.Time) ([]models.MetricSeries, error) {
	query := `
		SELECT metric_id, domain, day, value
		FROM daily_metrics
		WHERE user_id = $1
		  AND metric_id = ANY($2)
		  AND day BETWEEN $3 AND $4
		ORDER BY metric_id, day`

	rows, err := r.db.Query(ctx, query, userID, metricIDs, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily metrics: %w", err)
	}
	defer rows.Close()

	byMetric := make(map[string]*models.MetricSeries)
	var order []string

	for rows.Next() {
		var (
			metricID string
			domain   string
			day      time.Time
			value    float64
		)
		if err := rows.Scan(&metricID, &domain, &day, &value); err != nil {
			return nil, fmt.Errorf("failed to scan daily metric row: %w", err)
		}

		series, ok := byMetric[metricID]
		if !ok {
			series = &models.MetricSeries{
				MetricID: metricID,
				Domain:   models.MetricDomain(domain),
			}
			byMetric[metricID] = series
			order = append(order, metricID)
		}
		series.Points = append(series.Points, models.DataPoint{Date: day, Value: value})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily metric rows: %w", err)
	}

	result := make([]models.MetricSeries, 0, len(order))
	for _, id := range order {
		result = append(result, *byMetric[id])
	}

	r.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"metrics": len(result),
	}).Debug("Fetched daily metric series")

	return result, nil
}
