package analytics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/lumina-health/lumina-ai-go/internal/models"
)

// DefaultMinCausalityScore drops edges below this combined score.
const DefaultMinCausalityScore = 0.3

// CausalityWeights combines the three evidence signals into one score.
// Kept configurable; the defaults are a working compromise, not doctrine.
type CausalityWeights struct {
	Correlation float64 `mapstructure:"correlation" json:"correlation"`
	Granger     float64 `mapstructure:"granger" json:"granger"`
	Precedence  float64 `mapstructure:"precedence" json:"precedence"`
}

// DefaultCausalityWeights returns the 0.4/0.4/0.2 weighting.
func DefaultCausalityWeights() CausalityWeights {
	return CausalityWeights{Correlation: 0.4, Granger: 0.4, Precedence: 0.2}
}

// CausalGraphBuilder derives directed edges between metric pairs from
// correlation results plus Granger and temporal-precedence evidence.
type CausalGraphBuilder struct {
	maxLag       int
	significance float64
	weights      CausalityWeights
	minScore     float64
}

// NewCausalGraphBuilder creates a builder; out-of-range arguments fall back
// to package defaults.
func NewCausalGraphBuilder(maxLag int, significance, minScore float64, weights CausalityWeights) *CausalGraphBuilder {
	if maxLag < 1 {
		maxLag = DefaultMaxLagDays
	}
	if significance <= 0 || significance >= 1 {
		significance = DefaultSignificanceLevel
	}
	if minScore <= 0 {
		minScore = DefaultMinCausalityScore
	}
	if weights.Correlation+weights.Granger+weights.Precedence == 0 {
		weights = DefaultCausalityWeights()
	}
	return &CausalGraphBuilder{
		maxLag:       maxLag,
		significance: significance,
		weights:      weights,
		minScore:     minScore,
	}
}

// BuildEdge evaluates the directed relationship corr.MetricA -> corr.MetricB.
// Returns nil when the combined causality score does not clear the minimum.
// Self-edges are never produced.
func (b *CausalGraphBuilder) BuildEdge(w *AlignedWindow, corr *models.Correlation) *models.CausalEdge {
	if corr == nil || corr.MetricA == corr.MetricB {
		return nil
	}

	grangerP := b.grangerPValue(w, corr.MetricA, corr.MetricB)

	grangerSignificant := grangerP != nil && *grangerP < b.significance
	hasPrecedence := corr.LagDays > 0
	correlated := corr.PValue < b.significance

	score := b.weights.Correlation * math.Abs(corr.Coefficient)
	if grangerSignificant {
		score += b.weights.Granger
	}
	if hasPrecedence {
		score += b.weights.Precedence
	}
	if score < b.minScore {
		return nil
	}

	var evidence []models.CausalEvidence
	if grangerSignificant {
		evidence = append(evidence, models.EvidenceGranger)
	}
	if hasPrecedence {
		evidence = append(evidence, models.EvidencePrecedence)
	}
	if correlated {
		evidence = append(evidence, models.EvidenceCorrelation)
	}

	return &models.CausalEdge{
		FromMetric:     corr.MetricA,
		ToMetric:       corr.MetricB,
		Correlation:    corr.Coefficient,
		CausalityScore: score,
		GrangerPValue:  grangerP,
		OptimalLagDays: corr.LagDays,
		Evidence:       evidence,
		Strength:       strengthLabel(corr.Coefficient),
	}
}

// SelectEdges applies the bidirectional tie-break: of the two directions of a
// pair, the higher-scoring edge is kept; the reverse survives only when it
// independently cleared the minimum score (both inputs here already did).
// With both directions present both are returned.
func SelectEdges(forward, reverse *models.CausalEdge) []models.CausalEdge {
	switch {
	case forward != nil && reverse != nil:
		return []models.CausalEdge{*forward, *reverse}
	case forward != nil:
		return []models.CausalEdge{*forward}
	case reverse != nil:
		return []models.CausalEdge{*reverse}
	default:
		return nil
	}
}

// grangerPValue tests whether lags of `from` improve an autoregressive fit of
// `to`, across lag orders 1..maxLag, returning the minimum p-value. Nil when
// no lag order had enough contiguous data to fit both models.
func (b *CausalGraphBuilder) grangerPValue(w *AlignedWindow, from, to string) *float64 {
	var best *float64
	for p := 1; p <= b.maxLag; p++ {
		pv, ok := b.grangerAtOrder(w, from, to, p)
		if !ok {
			continue
		}
		if best == nil || pv < *best {
			v := pv
			best = &v
		}
	}
	return best
}

// grangerAtOrder fits the restricted model to[t] ~ to[t-1..t-p] and the
// augmented model adding from[t-1..t-p], then F-tests the RSS reduction.
func (b *CausalGraphBuilder) grangerAtOrder(w *AlignedWindow, from, to string, p int) (float64, bool) {
	days := w.WindowDays()

	// Rows require the target day plus p consecutive lag days in both series.
	var y []float64
	var restricted [][]float64
	var augmented [][]float64
	for t := p; t < days; t++ {
		target, ok := w.Value(to, t)
		if !ok {
			continue
		}
		row := make([]float64, 0, 2*p+1)
		row = append(row, 1)
		usable := true
		for l := 1; l <= p; l++ {
			v, ok := w.Value(to, t-l)
			if !ok {
				usable = false
				break
			}
			row = append(row, v)
		}
		if !usable {
			continue
		}
		aug := make([]float64, len(row), 2*p+1)
		copy(aug, row)
		for l := 1; l <= p; l++ {
			v, ok := w.Value(from, t-l)
			if !ok {
				usable = false
				break
			}
			aug = append(aug, v)
		}
		if !usable {
			continue
		}
		y = append(y, target)
		restricted = append(restricted, row)
		augmented = append(augmented, aug)
	}

	n := len(y)
	dfDenom := n - 2*p - 1
	if n < 3*p+3 || dfDenom < 1 {
		return 0, false
	}

	rssR, okR := olsResidualSS(restricted, y)
	rssU, okU := olsResidualSS(augmented, y)
	if !okR || !okU {
		return 0, false
	}
	if rssU <= 1e-12 {
		// Augmented model fits (near) perfectly; the reduction is maximal.
		return 0, true
	}

	f := ((rssR - rssU) / float64(p)) / (rssU / float64(dfDenom))
	return fTestPValue(f, p, dfDenom), true
}

// olsResidualSS solves the least-squares fit and returns the residual sum of
// squares. ok is false when the system is underdetermined or singular.
func olsResidualSS(rows [][]float64, y []float64) (float64, bool) {
	n := len(rows)
	if n == 0 {
		return 0, false
	}
	k := len(rows[0])
	if n < k {
		return 0, false
	}

	X := mat.NewDense(n, k, nil)
	for i, row := range rows {
		X.SetRow(i, row)
	}
	b := mat.NewDense(n, 1, append([]float64(nil), y...))

	var qr mat.QR
	qr.Factorize(X)
	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, b); err != nil {
		return 0, false
	}

	var fitted mat.Dense
	fitted.Mul(X, &beta)
	rss := 0.0
	for i := 0; i < n; i++ {
		d := y[i] - fitted.At(i, 0)
		rss += d * d
	}
	if math.IsNaN(rss) || math.IsInf(rss, 0) {
		return 0, false
	}
	return rss, true
}
