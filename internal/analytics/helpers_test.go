package analytics

import (
	"math/rand"
	"time"

	"github.com/lumina-health/lumina-ai-go/internal/models"
)

// testDay maps a day index onto a fixed calendar axis starting 2025-01-01 UTC.
func testDay(i int) time.Time {
	return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

// buildSeries creates a fully dense daily series starting at day index start.
func buildSeries(id string, domain models.MetricDomain, start int, values []float64) models.MetricSeries {
	points := make([]models.DataPoint, len(values))
	for i, v := range values {
		points[i] = models.DataPoint{Date: testDay(start + i), Value: v}
	}
	return models.MetricSeries{MetricID: id, Domain: domain, Points: points}
}

// buildSparseSeries creates a series with observations only on the given day
// indexes.
func buildSparseSeries(id string, domain models.MetricDomain, byDay map[int]float64) models.MetricSeries {
	s := models.MetricSeries{MetricID: id, Domain: domain}
	// Deterministic point order is not required; alignment is by date.
	for day, v := range byDay {
		s.Points = append(s.Points, models.DataPoint{Date: testDay(day), Value: v})
	}
	return s
}

// alignTestWindow aligns the series onto a window of `days` calendar days
// ending at testDay(days-1).
func alignTestWindow(days int, series ...models.MetricSeries) *AlignedWindow {
	aligner := NewTimeSeriesAligner(DefaultMinOverlapDays)
	return aligner.Align(series, days, testDay(days-1))
}

// noiseSeries returns n reproducible pseudo-random values around a mean.
func noiseSeries(seed int64, n int, mean, spread float64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = mean + (rng.Float64()-0.5)*2*spread
	}
	return out
}

// linearSeries returns n values of intercept + slope*i.
func linearSeries(n int, intercept, slope float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = intercept + slope*float64(i)
	}
	return out
}
