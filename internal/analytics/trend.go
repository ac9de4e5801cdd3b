package analytics

import (
	"fmt"
	"math"
	"math/cmplx"
	"time"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"

	"github.com/lumina-health/lumina-ai-go/internal/models"
)

const (
	// DefaultAnomalyZThreshold flags observations beyond this |z|.
	DefaultAnomalyZThreshold = 2.5
	// DefaultHoltAlpha and DefaultHoltBeta are the level/trend smoothing factors.
	DefaultHoltAlpha = 0.8
	DefaultHoltBeta  = 0.2

	// minPointsMannKendall is the smallest series the test is defined for.
	minPointsMannKendall = 4
	// minPointsForecast gates Holt forecasting.
	minPointsForecast = 7
	// minPointsSeasonality gates the FFT pass.
	minPointsSeasonality = 8
	// minPointsBreakpoint gates the CUSUM pass.
	minPointsBreakpoint = 10

	// seasonalPowerFraction is the share of non-DC spectral power a single
	// frequency must hold to be reported as seasonal.
	seasonalPowerFraction = 0.30
	// cusumCriticalValue: max |cusum| normalized by sigma*sqrt(n) beyond which
	// a change point is flagged.
	cusumCriticalValue = 1.36
	// volatilityCV: coefficient of variation beyond which a metric with no
	// confirmed monotonic trend is labeled volatile.
	volatilityCV = 0.5
)

// TrendAnalyzer runs the per-metric trend battery over an aligned window.
// Sub-analyses that cannot run on the available data are omitted from the
// result instead of failing the metric.
type TrendAnalyzer struct {
	significance     float64
	anomalyThreshold float64
	holtAlpha        float64
	holtBeta         float64
}

// NewTrendAnalyzer creates an analyzer; out-of-range arguments fall back to
// the package defaults.
func NewTrendAnalyzer(significance, anomalyThreshold float64) *TrendAnalyzer {
	if significance <= 0 || significance >= 1 {
		significance = DefaultSignificanceLevel
	}
	if anomalyThreshold <= 0 {
		anomalyThreshold = DefaultAnomalyZThreshold
	}
	return &TrendAnalyzer{
		significance:     significance,
		anomalyThreshold: anomalyThreshold,
		holtAlpha:        DefaultHoltAlpha,
		holtBeta:         DefaultHoltBeta,
	}
}

// AnalyzeMetric computes the full TrendResult for one metric on the window.
func (t *TrendAnalyzer) AnalyzeMetric(w *AlignedWindow, metricID string) (*models.TrendResult, error) {
	values, dayIdx := w.SeriesValues(metricID)
	if len(values) < DefaultMinOverlapDays {
		return nil, &InsufficientDataError{MetricA: metricID, Have: len(values), Need: DefaultMinOverlapDays}
	}

	info := models.LookupMetric(metricID)
	avg := mean(values)
	sd := stdDev(values)
	pc := percentChange(values)

	// OLS on day index vs value. Day indexes, not sample positions, so gaps
	// do not compress the time axis.
	xs := make([]float64, len(values))
	for i, d := range dayIdx {
		xs[i] = float64(d)
	}
	alpha, beta := stat.LinearRegression(xs, values, nil, false)
	r2 := stat.RSquared(xs, values, nil, alpha, beta)
	if math.IsNaN(r2) {
		r2 = 0
	}

	result := &models.TrendResult{
		MetricName:    metricID,
		WindowDays:    w.WindowDays(),
		AverageValue:  avg,
		StdDeviation:  sd,
		PercentChange: pc,
		RSquared:      r2,
		Slope:         beta,
	}

	mkP, mkDir := mannKendall(values)
	if mkP != nil {
		result.MannKendallP = mkP
		if *mkP < t.significance {
			ss := sensSlope(xs, values)
			result.SensSlope = &ss
		}
	}

	result.Anomalies = t.detectAnomalies(w, values, dayIdx, avg, sd)

	if season := detectSeasonality(values); season != nil {
		result.Seasonality = season
		result.DetectedPatterns = append(result.DetectedPatterns, models.PatternSeasonal)
	}

	if bp := detectBreakpoint(w, values, dayIdx, sd); bp != nil {
		result.Breakpoint = bp
		result.DetectedPatterns = append(result.DetectedPatterns, models.PatternBreakpoint)
	}

	if len(values) >= minPointsForecast {
		f7 := t.holtForecast(values, 7)
		f14 := t.holtForecast(values, 14)
		f30 := t.holtForecast(values, 30)
		result.Forecast7d = &f7
		result.Forecast14d = &f14
		result.Forecast30d = &f30
	}

	result.TrendType = t.classifyTrend(info, mkP, mkDir, avg, sd, result.Breakpoint != nil)
	result.Significance = t.classifySignificance(mkP, pc)
	result.Interpretation = interpretTrend(info, result)

	return result, nil
}

// mannKendall runs the non-parametric monotonic trend test with tie-corrected
// variance and continuity correction. Returns a nil p-value for series too
// short to test. Direction is +1 (increasing), -1 (decreasing), or 0.
func mannKendall(values []float64) (*float64, int) {
	n := len(values)
	if n < minPointsMannKendall {
		return nil, 0
	}

	s := 0
	for i := 0; i < n-1; i++ {
		for j := i + 1; j < n; j++ {
			switch {
			case values[j] > values[i]:
				s++
			case values[j] < values[i]:
				s--
			}
		}
	}

	// Tie groups reduce the variance of S.
	counts := make(map[float64]int, n)
	for _, v := range values {
		counts[v]++
	}
	varS := float64(n*(n-1)*(2*n+5)) / 18.0
	for _, c := range counts {
		if c > 1 {
			varS -= float64(c*(c-1)*(2*c+5)) / 18.0
		}
	}
	if varS <= 0 {
		p := 1.0
		return &p, 0
	}

	var z float64
	switch {
	case s > 0:
		z = (float64(s) - 1) / math.Sqrt(varS)
	case s < 0:
		z = (float64(s) + 1) / math.Sqrt(varS)
	}

	p := normalTwoTailedP(z)
	dir := 0
	if s > 0 {
		dir = 1
	} else if s < 0 {
		dir = -1
	}
	return &p, dir
}

// sensSlope is the median of all pairwise slopes, a magnitude estimate that
// shrugs off outliers.
func sensSlope(xs, values []float64) float64 {
	var slopes []float64
	for i := 0; i < len(values)-1; i++ {
		for j := i + 1; j < len(values); j++ {
			dx := xs[j] - xs[i]
			if dx == 0 {
				continue
			}
			slopes = append(slopes, (values[j]-values[i])/dx)
		}
	}
	return median(slopes)
}

// detectAnomalies flags dates whose z-score exceeds the threshold. Zero
// variance means no anomalies, never a division by zero.
func (t *TrendAnalyzer) detectAnomalies(w *AlignedWindow, values []float64, dayIdx []int, avg, sd float64) []time.Time {
	if sd == 0 {
		return nil
	}
	var flagged []time.Time
	for i, v := range values {
		if math.Abs((v-avg)/sd) > t.anomalyThreshold {
			flagged = append(flagged, w.Days[dayIdx[i]])
		}
	}
	return flagged
}

// detectSeasonality looks for a dominant non-zero frequency in the
// mean-centered spectrum. Needs at least minPointsSeasonality observations.
func detectSeasonality(values []float64) *models.SeasonalityInfo {
	n := len(values)
	if n < minPointsSeasonality {
		return nil
	}
	m := mean(values)
	centered := make([]float64, n)
	for i, v := range values {
		centered[i] = v - m
	}

	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, centered)

	// Skip the DC bin; it is zero after centering anyway.
	total := 0.0
	powers := make([]float64, len(coeffs))
	for k := 1; k < len(coeffs); k++ {
		p := cmplx.Abs(coeffs[k])
		powers[k] = p * p
		total += powers[k]
	}
	if total == 0 {
		return nil
	}

	bestK, bestPower := 0, 0.0
	for k := 1; k < len(coeffs); k++ {
		if powers[k] > bestPower {
			bestK, bestPower = k, powers[k]
		}
	}
	frac := bestPower / total
	if bestK == 0 || frac < seasonalPowerFraction {
		return nil
	}

	period := int(math.Round(float64(n) / float64(bestK)))
	if period < 2 {
		return nil
	}
	return &models.SeasonalityInfo{PeriodDays: period, PowerFraction: frac}
}

// detectBreakpoint runs a CUSUM scan over centered values and flags the
// single most likely change point when the peak deviation clears the
// critical value.
func detectBreakpoint(w *AlignedWindow, values []float64, dayIdx []int, sd float64) *models.BreakpointInfo {
	n := len(values)
	if n < minPointsBreakpoint || sd == 0 {
		return nil
	}
	m := mean(values)

	cusum := 0.0
	peak, peakIdx := 0.0, 0
	for i, v := range values {
		cusum += v - m
		if math.Abs(cusum) > peak {
			peak = math.Abs(cusum)
			peakIdx = i
		}
	}

	confidence := peak / (sd * math.Sqrt(float64(n)))
	if confidence < cusumCriticalValue {
		return nil
	}
	return &models.BreakpointInfo{
		Date:       w.Days[dayIdx[peakIdx]],
		Index:      peakIdx,
		Confidence: confidence,
	}
}

// holtForecast projects the series `horizon` steps ahead with Holt's linear
// trend method.
func (t *TrendAnalyzer) holtForecast(values []float64, horizon int) float64 {
	level := values[0]
	trend := values[1] - values[0]
	for i := 1; i < len(values); i++ {
		prevLevel := level
		level = t.holtAlpha*values[i] + (1-t.holtAlpha)*(level+trend)
		trend = t.holtBeta*(level-prevLevel) + (1-t.holtBeta)*trend
	}
	return level + float64(horizon)*trend
}

// classifyTrend maps the Mann-Kendall verdict onto the four trend types,
// flipping direction for metrics where lower values are better.
func (t *TrendAnalyzer) classifyTrend(info models.MetricInfo, mkP *float64, mkDir int, avg, sd float64, hasBreakpoint bool) models.TrendType {
	trending := mkP != nil && *mkP < t.significance && mkDir != 0

	if !trending {
		if hasBreakpoint {
			return models.TrendVolatile
		}
		if avg != 0 && sd/math.Abs(avg) > volatilityCV {
			return models.TrendVolatile
		}
		return models.TrendStable
	}

	rising := mkDir > 0
	if (rising && info.Direction == models.HigherIsBetter) || (!rising && info.Direction == models.LowerIsBetter) {
		return models.TrendImproving
	}
	return models.TrendDeclining
}

// classifySignificance maps Mann-Kendall p and percent change onto the
// four-tier label.
func (t *TrendAnalyzer) classifySignificance(mkP *float64, pc float64) models.TrendSignificance {
	if mkP == nil || *mkP >= t.significance {
		return models.SignificanceNoise
	}
	absPC := math.Abs(pc)
	switch {
	case *mkP < 0.01 && absPC > 15:
		return models.SignificanceClinical
	case absPC > 8:
		return models.SignificanceNotable
	default:
		return models.SignificanceMinor
	}
}

// interpretTrend fills the fixed interpretation template from the numeric
// fields. No generative text.
func interpretTrend(info models.MetricInfo, r *models.TrendResult) string {
	var movement string
	switch r.TrendType {
	case models.TrendImproving:
		movement = fmt.Sprintf("improved %.1f%% over the last %d days", math.Abs(r.PercentChange), r.WindowDays)
	case models.TrendDeclining:
		movement = fmt.Sprintf("declined %.1f%% over the last %d days", math.Abs(r.PercentChange), r.WindowDays)
	case models.TrendVolatile:
		movement = fmt.Sprintf("has been volatile over the last %d days", r.WindowDays)
	default:
		movement = fmt.Sprintf("held steady over the last %d days", r.WindowDays)
	}

	out := fmt.Sprintf("%s %s (avg %.1f%s)", info.Label, movement, r.AverageValue, unitSuffix(info.Unit))
	if len(r.Anomalies) > 0 {
		out += fmt.Sprintf("; %d unusual day(s) flagged", len(r.Anomalies))
	}
	if r.Seasonality != nil {
		out += fmt.Sprintf("; repeating ~%d-day cycle detected", r.Seasonality.PeriodDays)
	}
	if r.Breakpoint != nil {
		out += fmt.Sprintf("; shift in pattern around %s", r.Breakpoint.Date.Format("Jan 2"))
	}
	return out
}

func unitSuffix(unit string) string {
	if unit == "" {
		return ""
	}
	return " " + unit
}
