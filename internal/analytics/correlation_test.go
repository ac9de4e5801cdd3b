package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumina-health/lumina-ai-go/internal/models"
)

func TestAnalyzePairPerfectCorrelation(t *testing.T) {
	n := 20
	protein := linearSeries(n, 80, 2)
	sleep := linearSeries(n, 60, 1) // co-moves with protein day by day

	w := alignTestWindow(n,
		buildSeries("protein_g", models.DomainNutrition, 0, protein),
		buildSeries("sleep_score", models.DomainWearable, 0, sleep),
	)
	engine := NewCorrelationEngine(0, DefaultSignificanceLevel, DefaultMinSampleSize)

	corr, err := engine.AnalyzePair(w, "protein_g", "sleep_score")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, corr.Coefficient, 1e-9)
	assert.Equal(t, 0, corr.LagDays)
	assert.Equal(t, models.StrengthStrong, corr.Strength)
	assert.Equal(t, models.DirectionPositive, corr.Direction)
	assert.Equal(t, n, corr.SampleSize)
	assert.Len(t, corr.DataPoints, n)
	assert.Less(t, corr.PValue, 0.001)
}

func TestAnalyzePairDetectsLag(t *testing.T) {
	n := 30
	cause := noiseSeries(42, n, 50, 15)

	// Effect reproduces the cause one day later, so the lag-1 pairing is exact
	// while other lags see shuffled noise.
	effect := make([]float64, n-1)
	copy(effect, cause[:n-1])

	w := alignTestWindow(n,
		buildSeries("caffeine_mg", models.DomainNutrition, 0, cause),
		buildSeries("sleep_score", models.DomainWearable, 1, effect),
	)
	engine := NewCorrelationEngine(3, DefaultSignificanceLevel, DefaultMinSampleSize)

	corr, err := engine.AnalyzePair(w, "caffeine_mg", "sleep_score")
	require.NoError(t, err)
	assert.Equal(t, 1, corr.LagDays)
	assert.InDelta(t, 1.0, corr.Coefficient, 1e-9)
}

func TestAnalyzePairLagZeroSymmetry(t *testing.T) {
	n := 25
	a := noiseSeries(7, n, 70, 12)
	noise := noiseSeries(13, n, 0, 5)
	b := make([]float64, n)
	for i := range b {
		b[i] = 0.6*a[i] + noise[i]
	}

	w := alignTestWindow(n,
		buildSeries("hrv", models.DomainWearable, 0, a),
		buildSeries("magnesium_mg", models.DomainNutrition, 0, b),
	)
	engine := NewCorrelationEngine(0, DefaultSignificanceLevel, DefaultMinSampleSize)

	forward, err := engine.AnalyzePair(w, "hrv", "magnesium_mg")
	require.NoError(t, err)
	reverse, err := engine.AnalyzePair(w, "magnesium_mg", "hrv")
	require.NoError(t, err)

	assert.InDelta(t, forward.Coefficient, reverse.Coefficient, 1e-12)
	assert.Equal(t, forward.SampleSize, reverse.SampleSize)
}

func TestAnalyzePairInsufficientOverlap(t *testing.T) {
	a := buildSparseSeries("sleep_score", models.DomainWearable, map[int]float64{0: 80, 1: 82})
	b := buildSparseSeries("protein_g", models.DomainNutrition, map[int]float64{0: 100, 1: 110})
	w := alignTestWindow(30, a, b)
	engine := NewCorrelationEngine(3, DefaultSignificanceLevel, 5)

	corr, err := engine.AnalyzePair(w, "sleep_score", "protein_g")
	assert.Nil(t, corr)
	require.Error(t, err)
	assert.True(t, IsInsufficientData(err))
}

func TestAnalyzePairFallsBackToLagZero(t *testing.T) {
	// Uncorrelated noise: no lag clears significance, so lag 0 is reported.
	n := 20
	w := alignTestWindow(n,
		buildSeries("steps", models.DomainWearable, 0, noiseSeries(3, n, 8000, 2000)),
		buildSeries("fiber_g", models.DomainNutrition, 0, noiseSeries(99, n, 25, 8)),
	)
	engine := NewCorrelationEngine(3, 0.001, DefaultMinSampleSize)

	corr, err := engine.AnalyzePair(w, "steps", "fiber_g")
	require.NoError(t, err)
	assert.Equal(t, 0, corr.LagDays)
}

func TestChosenLagStaysInBounds(t *testing.T) {
	maxLag := 3
	engine := NewCorrelationEngine(maxLag, DefaultSignificanceLevel, DefaultMinSampleSize)
	n := 30

	seeds := []struct {
		name string
		a, b []float64
	}{
		{"noise vs noise", noiseSeries(1, n, 50, 10), noiseSeries(2, n, 80, 20)},
		{"linear vs noise", linearSeries(n, 10, 1), noiseSeries(4, n, 50, 10)},
		{"linear vs linear", linearSeries(n, 10, 1), linearSeries(n, 200, -3)},
	}
	for _, tt := range seeds {
		t.Run(tt.name, func(t *testing.T) {
			w := alignTestWindow(n,
				buildSeries("steps", models.DomainWearable, 0, tt.a),
				buildSeries("calories", models.DomainNutrition, 0, tt.b),
			)
			corr, err := engine.AnalyzePair(w, "steps", "calories")
			require.NoError(t, err)
			assert.GreaterOrEqual(t, corr.LagDays, 0)
			assert.LessOrEqual(t, corr.LagDays, maxLag)
		})
	}
}

func TestNegativeCorrelationDirection(t *testing.T) {
	n := 15
	w := alignTestWindow(n,
		buildSeries("caffeine_mg", models.DomainNutrition, 0, linearSeries(n, 100, 10)),
		buildSeries("sleep_score", models.DomainWearable, 0, linearSeries(n, 90, -1.5)),
	)
	engine := NewCorrelationEngine(0, DefaultSignificanceLevel, DefaultMinSampleSize)

	corr, err := engine.AnalyzePair(w, "caffeine_mg", "sleep_score")
	require.NoError(t, err)
	assert.Equal(t, models.DirectionNegative, corr.Direction)
	assert.InDelta(t, -1.0, corr.Coefficient, 1e-9)
}

func TestEffectDescriptionIsDeterministic(t *testing.T) {
	corr := &models.Correlation{
		MetricA:     "magnesium_mg",
		MetricB:     "sleep_score",
		Coefficient: 0.72,
		LagDays:     1,
		Strength:    models.StrengthStrong,
		Direction:   models.DirectionPositive,
		SampleSize:  24,
	}
	want := "Higher Magnesium Intake is strongly associated with higher Sleep Score 1 day later (r=0.72, n=24)"
	assert.Equal(t, want, describeEffect(corr))
	assert.Equal(t, describeEffect(corr), describeEffect(corr))
}

func TestStrengthLabelBuckets(t *testing.T) {
	assert.Equal(t, models.StrengthWeak, strengthLabel(0.29))
	assert.Equal(t, models.StrengthModerate, strengthLabel(0.3))
	assert.Equal(t, models.StrengthModerate, strengthLabel(-0.45))
	assert.Equal(t, models.StrengthStrong, strengthLabel(0.6))
	assert.Equal(t, models.StrengthStrong, strengthLabel(-0.9))
}
