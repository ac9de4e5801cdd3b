package analytics

import (
	"time"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"

	"github.com/lumina-health/lumina-ai-go/internal/models"
)

const (
	// DefaultBaselineWindowDays is the history used for personal baselines.
	DefaultBaselineWindowDays = 60
	// baselineSmoothingPeriod is the SMA period applied before taking the
	// baseline mean, so single outlier days do not drag the baseline.
	baselineSmoothingPeriod = 7
	// minBaselinePoints below which a metric gets no baseline entry.
	minBaselinePoints = 7
)

// BaselineBuilder computes a user's rolling personal baselines from history.
// It runs as a collaborator to the engine: the resulting UserBaseline is
// passed into risk scoring explicitly, never held by the engine.
type BaselineBuilder struct {
	windowDays int
}

// NewBaselineBuilder creates a builder over the given history window.
func NewBaselineBuilder(windowDays int) *BaselineBuilder {
	if windowDays <= 0 {
		windowDays = DefaultBaselineWindowDays
	}
	return &BaselineBuilder{windowDays: windowDays}
}

// WindowDays returns the history window the baseline covers.
func (b *BaselineBuilder) WindowDays() int {
	return b.windowDays
}

// Build derives per-metric baseline statistics from the given history
// series. Metrics with too few observations are omitted.
func (b *BaselineBuilder) Build(userID string, history []models.MetricSeries, asOf time.Time) *models.UserBaseline {
	baseline := &models.UserBaseline{
		UserID:     userID,
		WindowDays: b.windowDays,
		Metrics:    make(map[string]models.BaselineStat, len(history)),
		ComputedAt: asOf,
	}

	for _, series := range history {
		values := make([]float64, len(series.Points))
		for i, p := range series.Points {
			values[i] = p.Value
		}
		if len(values) < minBaselinePoints {
			continue
		}

		sma := trend.NewSmaWithPeriod[float64](baselineSmoothingPeriod)
		smoothed := helper.ChanToSlice(sma.Compute(helper.SliceToChan(values)))
		if len(smoothed) == 0 {
			continue
		}

		baseline.Metrics[series.MetricID] = models.BaselineStat{
			Mean:       mean(smoothed),
			StdDev:     stdDev(values),
			SampleSize: len(values),
		}
	}

	return baseline
}
