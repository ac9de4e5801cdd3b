package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumina-health/lumina-ai-go/internal/models"
)

func newTestTrendAnalyzer() *TrendAnalyzer {
	return NewTrendAnalyzer(DefaultSignificanceLevel, DefaultAnomalyZThreshold)
}

func TestAnalyzeMetricImprovingTrend(t *testing.T) {
	// A steadily rising sleep score is an improvement.
	w := alignTestWindow(30, buildSeries("sleep_score", models.DomainWearable, 0, linearSeries(30, 50, 1)))

	result, err := newTestTrendAnalyzer().AnalyzeMetric(w, "sleep_score")
	require.NoError(t, err)

	assert.Equal(t, models.TrendImproving, result.TrendType)
	require.NotNil(t, result.MannKendallP)
	assert.Less(t, *result.MannKendallP, 0.05)
	assert.Equal(t, models.SignificanceClinical, result.Significance)
	assert.Greater(t, result.Slope, 0.0)
	assert.Contains(t, result.Interpretation, "improved")
}

func TestAnalyzeMetricPolarityFlip(t *testing.T) {
	// A steadily rising resting heart rate is a decline, not an improvement.
	w := alignTestWindow(30, buildSeries("resting_heart_rate", models.DomainWearable, 0, linearSeries(30, 55, 0.5)))

	result, err := newTestTrendAnalyzer().AnalyzeMetric(w, "resting_heart_rate")
	require.NoError(t, err)

	assert.Equal(t, models.TrendDeclining, result.TrendType)
	assert.Contains(t, result.Interpretation, "declined")
}

func TestSensSlopeOnLinearSeries(t *testing.T) {
	w := alignTestWindow(20, buildSeries("steps", models.DomainWearable, 0, linearSeries(20, 10, 2)))

	result, err := newTestTrendAnalyzer().AnalyzeMetric(w, "steps")
	require.NoError(t, err)

	require.NotNil(t, result.SensSlope)
	assert.InDelta(t, 2.0, *result.SensSlope, 1e-9)
	assert.InDelta(t, 2.0, result.Slope, 1e-9)
	assert.InDelta(t, 1.0, result.RSquared, 1e-9)
}

func TestDetectAnomalies(t *testing.T) {
	values := make([]float64, 30)
	for i := range values {
		values[i] = 50
	}
	values[15] = 90 // the one bad day

	w := alignTestWindow(30, buildSeries("caffeine_mg", models.DomainNutrition, 0, values))

	result, err := newTestTrendAnalyzer().AnalyzeMetric(w, "caffeine_mg")
	require.NoError(t, err)

	require.Len(t, result.Anomalies, 1)
	assert.Equal(t, testDay(15), result.Anomalies[0])
}

func TestAnomalyInjectionFlagsOnlyTheOutlier(t *testing.T) {
	// 20 alternating values (mean 50, std 5) plus one injected 90: only the
	// injection clears |z| > 2.5.
	values := make([]float64, 0, 21)
	for i := 0; i < 20; i++ {
		if i%2 == 0 {
			values = append(values, 45)
		} else {
			values = append(values, 55)
		}
	}
	values = append(values, 90)

	w := alignTestWindow(21, buildSeries("headache_severity", models.DomainSymptom, 0, values))
	result, err := newTestTrendAnalyzer().AnalyzeMetric(w, "headache_severity")
	require.NoError(t, err)

	require.Len(t, result.Anomalies, 1)
	assert.Equal(t, testDay(20), result.Anomalies[0])
}

func TestConstantSeriesIsStableWithNoAnomalies(t *testing.T) {
	values := make([]float64, 14)
	for i := range values {
		values[i] = 72
	}
	w := alignTestWindow(14, buildSeries("resting_heart_rate", models.DomainWearable, 0, values))

	result, err := newTestTrendAnalyzer().AnalyzeMetric(w, "resting_heart_rate")
	require.NoError(t, err)

	assert.Equal(t, models.TrendStable, result.TrendType)
	assert.Equal(t, models.SignificanceNoise, result.Significance)
	assert.Empty(t, result.Anomalies)
	assert.Equal(t, 0.0, result.StdDeviation)
	assert.Nil(t, result.SensSlope)
}

func TestVolatileClassification(t *testing.T) {
	// Alternating extremes: no monotonic trend, coefficient of variation well
	// above the volatility cutoff.
	values := make([]float64, 20)
	for i := range values {
		if i%2 == 0 {
			values[i] = 10
		} else {
			values[i] = 100
		}
	}
	w := alignTestWindow(20, buildSeries("sugar_g", models.DomainNutrition, 0, values))

	result, err := newTestTrendAnalyzer().AnalyzeMetric(w, "sugar_g")
	require.NoError(t, err)
	assert.Equal(t, models.TrendVolatile, result.TrendType)
}

func TestDetectSeasonalityWeeklyCycle(t *testing.T) {
	n := 28
	values := make([]float64, n)
	for i := range values {
		values[i] = 50 + 10*math.Sin(2*math.Pi*float64(i)/7)
	}

	season := detectSeasonality(values)
	require.NotNil(t, season)
	assert.Equal(t, 7, season.PeriodDays)
	assert.Greater(t, season.PowerFraction, 0.3)
}

func TestDetectSeasonalityRequiresEnoughPoints(t *testing.T) {
	assert.Nil(t, detectSeasonality(linearSeries(7, 0, 1)))
	assert.Nil(t, detectSeasonality([]float64{5, 5, 5, 5, 5, 5, 5, 5}))
}

func TestDetectBreakpointLevelShift(t *testing.T) {
	values := append(linearSeries(10, 10, 0), linearSeries(10, 30, 0)...)
	w := alignTestWindow(20, buildSeries("steps", models.DomainWearable, 0, values))

	result, err := newTestTrendAnalyzer().AnalyzeMetric(w, "steps")
	require.NoError(t, err)

	require.NotNil(t, result.Breakpoint)
	assert.Equal(t, 9, result.Breakpoint.Index)
	assert.Equal(t, testDay(9), result.Breakpoint.Date)
	assert.GreaterOrEqual(t, result.Breakpoint.Confidence, 1.36)
	assert.Contains(t, result.DetectedPatterns, models.PatternBreakpoint)
}

func TestHoltForecastLinearSeries(t *testing.T) {
	// Holt's method tracks an exactly linear series perfectly, so forecasts
	// are the straight-line continuation.
	w := alignTestWindow(14, buildSeries("hrv", models.DomainWearable, 0, linearSeries(14, 5, 3)))

	result, err := newTestTrendAnalyzer().AnalyzeMetric(w, "hrv")
	require.NoError(t, err)

	last := 5 + 3*13.0
	require.NotNil(t, result.Forecast7d)
	require.NotNil(t, result.Forecast14d)
	require.NotNil(t, result.Forecast30d)
	assert.InDelta(t, last+7*3, *result.Forecast7d, 1e-6)
	assert.InDelta(t, last+14*3, *result.Forecast14d, 1e-6)
	assert.InDelta(t, last+30*3, *result.Forecast30d, 1e-6)
}

func TestForecastOmittedOnShortSeries(t *testing.T) {
	w := alignTestWindow(6, buildSeries("hrv", models.DomainWearable, 0, linearSeries(6, 40, 1)))

	result, err := newTestTrendAnalyzer().AnalyzeMetric(w, "hrv")
	require.NoError(t, err)
	assert.Nil(t, result.Forecast7d)
	assert.Nil(t, result.Forecast14d)
	assert.Nil(t, result.Forecast30d)
}

func TestAnalyzeMetricInsufficientData(t *testing.T) {
	w := alignTestWindow(30, buildSparseSeries("mood_severity", models.DomainSymptom, map[int]float64{1: 3, 5: 4, 9: 2}))

	result, err := newTestTrendAnalyzer().AnalyzeMetric(w, "mood_severity")
	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, IsInsufficientData(err))
}

func TestMannKendallDirections(t *testing.T) {
	pUp, dirUp := mannKendall(linearSeries(15, 0, 1))
	require.NotNil(t, pUp)
	assert.Equal(t, 1, dirUp)
	assert.Less(t, *pUp, 0.01)

	pDown, dirDown := mannKendall(linearSeries(15, 100, -2))
	require.NotNil(t, pDown)
	assert.Equal(t, -1, dirDown)
	assert.Less(t, *pDown, 0.01)

	pShort, _ := mannKendall([]float64{1, 2, 3})
	assert.Nil(t, pShort)

	pTies, dirTies := mannKendall([]float64{5, 5, 5, 5, 5})
	require.NotNil(t, pTies)
	assert.Equal(t, 1.0, *pTies)
	assert.Equal(t, 0, dirTies)
}

func TestSensSlopeRobustToOutlier(t *testing.T) {
	// One wild observation should barely move the median pairwise slope.
	values := linearSeries(15, 10, 2)
	values[7] = 200
	xs := make([]float64, len(values))
	for i := range xs {
		xs[i] = float64(i)
	}
	assert.InDelta(t, 2.0, sensSlope(xs, values), 0.5)
}
