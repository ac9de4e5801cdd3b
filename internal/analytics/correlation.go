package analytics

import (
	"fmt"
	"math"

	"github.com/lumina-health/lumina-ai-go/internal/models"
)

const (
	// DefaultMaxLagDays bounds the lag search window.
	DefaultMaxLagDays = 3
	// DefaultSignificanceLevel is the p-value cutoff for accepting a lagged fit.
	DefaultSignificanceLevel = 0.05
	// DefaultMinSampleSize is the minimum paired observations for a correlation.
	DefaultMinSampleSize = 5
)

// CorrelationEngine computes lagged Pearson correlations between metric pairs
// on an aligned window. Pure: no state survives a call.
type CorrelationEngine struct {
	maxLagDays    int
	significance  float64
	minSampleSize int
}

// NewCorrelationEngine creates an engine; non-positive arguments fall back to
// the package defaults.
func NewCorrelationEngine(maxLagDays int, significance float64, minSampleSize int) *CorrelationEngine {
	if maxLagDays < 0 {
		maxLagDays = DefaultMaxLagDays
	}
	if significance <= 0 || significance >= 1 {
		significance = DefaultSignificanceLevel
	}
	if minSampleSize < 2 {
		minSampleSize = DefaultMinSampleSize
	}
	return &CorrelationEngine{
		maxLagDays:    maxLagDays,
		significance:  significance,
		minSampleSize: minSampleSize,
	}
}

// AnalyzePair correlates metricA against metricB across lags 0..maxLagDays
// and keeps the most significant lag. The lag with the largest |r| among lags
// whose p-value clears the significance cutoff wins; if none qualify, lag 0
// is reported. Pairs with too little overlap return InsufficientDataError.
func (e *CorrelationEngine) AnalyzePair(w *AlignedWindow, metricA, metricB string) (*models.Correlation, error) {
	overlap := w.OverlapCount(metricA, metricB)
	if overlap < e.minSampleSize {
		return nil, &InsufficientDataError{MetricA: metricA, MetricB: metricB, Have: overlap, Need: e.minSampleSize}
	}

	type lagResult struct {
		lag int
		r   float64
		p   float64
		n   int
	}

	var zeroLag *lagResult
	var best *lagResult

	for lag := 0; lag <= e.maxLagDays; lag++ {
		x, y, _ := w.PairedValues(metricA, metricB, lag)
		if len(x) < e.minSampleSize {
			continue
		}
		r := pearson(x, y)
		p := pearsonPValue(r, len(x))
		res := &lagResult{lag: lag, r: r, p: p, n: len(x)}
		if lag == 0 {
			zeroLag = res
		}
		if p < e.significance {
			if best == nil || math.Abs(r) > math.Abs(best.r) {
				best = res
			}
		}
	}

	chosen := best
	if chosen == nil {
		chosen = zeroLag
	}
	if chosen == nil {
		return nil, &InsufficientDataError{MetricA: metricA, MetricB: metricB, Have: overlap, Need: e.minSampleSize}
	}

	// Re-extract the pairing for the chosen lag so the reported data points
	// carry their dates.
	x, y, dates := w.PairedValues(metricA, metricB, chosen.lag)
	points := make([]models.PairedPoint, len(x))
	for i := range x {
		points[i] = models.PairedPoint{Date: dates[i], ValueA: x[i], ValueB: y[i]}
	}

	direction := models.DirectionPositive
	if chosen.r <= 0 {
		direction = models.DirectionNegative
	}

	corr := &models.Correlation{
		MetricA:     metricA,
		MetricB:     metricB,
		Coefficient: chosen.r,
		PValue:      chosen.p,
		LagDays:     chosen.lag,
		Strength:    strengthLabel(chosen.r),
		Direction:   direction,
		SampleSize:  chosen.n,
		DataPoints:  points,
	}
	corr.EffectDescription = describeEffect(corr)
	return corr, nil
}

// strengthLabel buckets |r| at 0.3 and 0.6.
func strengthLabel(r float64) models.CorrelationStrength {
	abs := math.Abs(r)
	switch {
	case abs >= 0.6:
		return models.StrengthStrong
	case abs >= 0.3:
		return models.StrengthModerate
	default:
		return models.StrengthWeak
	}
}

// describeEffect renders the fixed effect-description template from the
// numeric fields. Deterministic by construction; no generative text.
func describeEffect(c *models.Correlation) string {
	labelA := models.LookupMetric(c.MetricA).Label
	labelB := models.LookupMetric(c.MetricB).Label

	tendency := "higher"
	if c.Direction == models.DirectionNegative {
		tendency = "lower"
	}

	var qualifier string
	switch c.Strength {
	case models.StrengthStrong:
		qualifier = "strongly associated"
	case models.StrengthModerate:
		qualifier = "moderately associated"
	default:
		qualifier = "weakly associated"
	}

	timing := "on the same day"
	switch {
	case c.LagDays == 1:
		timing = "1 day later"
	case c.LagDays > 1:
		timing = fmt.Sprintf("%d days later", c.LagDays)
	}

	return fmt.Sprintf("Higher %s is %s with %s %s %s (r=%.2f, n=%d)",
		labelA, qualifier, tendency, labelB, timing, c.Coefficient, c.SampleSize)
}
