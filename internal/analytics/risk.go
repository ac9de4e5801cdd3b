package analytics

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/lumina-health/lumina-ai-go/internal/models"
)

// Factor weights inside a category score. Trend direction dominates; the
// user's own baseline matters more than isolated anomalous days.
var (
	weightAdverseTrend      = decimal.NewFromFloat(0.5)
	weightBaselineDeviation = decimal.NewFromFloat(0.3)
	weightAnomalyCluster    = decimal.NewFromFloat(0.2)
)

// Risk level bucket boundaries; inclusive upward, so a score of exactly 0.75
// is critical.
var (
	riskCriticalFloor = decimal.NewFromFloat(0.75)
	riskHighFloor     = decimal.NewFromFloat(0.5)
	riskModerateFloor = decimal.NewFromFloat(0.25)
)

type factorKind string

const (
	factorAdverseTrend      factorKind = "adverse_trend"
	factorAnomalyCluster    factorKind = "anomaly_cluster"
	factorBaselineDeviation factorKind = "baseline_deviation"
)

// riskCategorySpec is one entry of the fixed risk catalogue.
type riskCategorySpec struct {
	category   models.RiskCategory
	riskType   string
	keyMetrics []string

	// warnings are fixed per risk type, each tagged with the factor kinds it
	// is relevant to.
	warnings []warningSign

	// recommendations are selected by which factor kinds fired.
	recommendations map[factorKind]models.Recommendation
}

type warningSign struct {
	text     string
	relevant []factorKind
}

// riskCatalogue is the fixed set of scored categories.
var riskCatalogue = []riskCategorySpec{
	{
		category:   models.RiskCardiovascular,
		riskType:   "cardiovascular_strain",
		keyMetrics: []string{"resting_heart_rate", "hrv", "steps"},
		warnings: []warningSign{
			{text: "Resting heart rate creeping above your usual range", relevant: []factorKind{factorAdverseTrend, factorBaselineDeviation}},
			{text: "Heart rate variability dropping for several days in a row", relevant: []factorKind{factorAdverseTrend}},
			{text: "Isolated days with unusually elevated heart rate", relevant: []factorKind{factorAnomalyCluster}},
		},
		recommendations: map[factorKind]models.Recommendation{
			factorAdverseTrend:      {Action: "Prioritize low-intensity movement and consistent sleep this week", Priority: "high", Rationale: "Sustained adverse movement in cardiovascular metrics"},
			factorBaselineDeviation: {Action: "Compare this week's routine against your usual (travel, alcohol, stress)", Priority: "medium", Rationale: "Cardiovascular metrics are running away from your personal baseline"},
			factorAnomalyCluster:    {Action: "Note what was different on the flagged days for your next check-in", Priority: "low", Rationale: "Outlier days can reveal specific triggers"},
		},
	},
	{
		category:   models.RiskMetabolic,
		riskType:   "metabolic_imbalance",
		keyMetrics: []string{"sugar_g", "fiber_g", "calories", "steps"},
		warnings: []warningSign{
			{text: "Sugar intake rising while fiber intake falls", relevant: []factorKind{factorAdverseTrend}},
			{text: "Calorie intake drifting well away from your usual level", relevant: []factorKind{factorBaselineDeviation}},
			{text: "Single days of unusually high intake", relevant: []factorKind{factorAnomalyCluster}},
		},
		recommendations: map[factorKind]models.Recommendation{
			factorAdverseTrend:      {Action: "Shift a portion of daily carbohydrates toward fiber-rich foods", Priority: "high", Rationale: "Sustained adverse nutrition trend"},
			factorBaselineDeviation: {Action: "Review recent meal logging for gaps or routine changes", Priority: "medium", Rationale: "Intake is deviating from your personal baseline"},
			factorAnomalyCluster:    {Action: "Flag the outlier days and what drove them", Priority: "low", Rationale: "Occasional spikes matter less than the pattern around them"},
		},
	},
	{
		category:   models.RiskMentalHealth,
		riskType:   "mental_health_strain",
		keyMetrics: []string{"readiness_score", "caffeine_mg", "mood_severity", "fatigue_severity"},
		warnings: []warningSign{
			{text: "Reported mood or fatigue severity trending upward", relevant: []factorKind{factorAdverseTrend}},
			{text: "Caffeine intake climbing to compensate for low energy", relevant: []factorKind{factorAdverseTrend, factorBaselineDeviation}},
			{text: "Sharp one-day drops in readiness", relevant: []factorKind{factorAnomalyCluster}},
		},
		recommendations: map[factorKind]models.Recommendation{
			factorAdverseTrend:      {Action: "Protect recovery time and consider discussing the trend at your next appointment", Priority: "high", Rationale: "Sustained adverse movement in mood and energy metrics"},
			factorBaselineDeviation: {Action: "Cap caffeine earlier in the day for a week and watch readiness", Priority: "medium", Rationale: "Stimulant intake is off your usual baseline"},
			factorAnomalyCluster:    {Action: "Journal what preceded the flagged days", Priority: "low", Rationale: "Isolated hard days often have identifiable triggers"},
		},
	},
	{
		category:   models.RiskSleep,
		riskType:   "sleep_disruption",
		keyMetrics: []string{"sleep_score", "caffeine_mg"},
		warnings: []warningSign{
			{text: "Sleep score declining across the window", relevant: []factorKind{factorAdverseTrend}},
			{text: "Sleep quality consistently below your personal norm", relevant: []factorKind{factorBaselineDeviation}},
			{text: "Scattered nights of sharply worse sleep", relevant: []factorKind{factorAnomalyCluster}},
		},
		recommendations: map[factorKind]models.Recommendation{
			factorAdverseTrend:      {Action: "Hold a fixed wind-down time for the next two weeks", Priority: "high", Rationale: "Sleep quality shows a sustained decline"},
			factorBaselineDeviation: {Action: "Audit evening caffeine, screens, and room temperature", Priority: "medium", Rationale: "Sleep is running below your own baseline"},
			factorAnomalyCluster:    {Action: "Correlate the bad nights with your symptom and nutrition logs", Priority: "low", Rationale: "Isolated bad nights may share a trigger"},
		},
	},
	{
		category:   models.RiskRecovery,
		riskType:   "recovery_deficit",
		keyMetrics: []string{"readiness_score", "hrv", "sleep_score"},
		warnings: []warningSign{
			{text: "Readiness failing to rebound between active days", relevant: []factorKind{factorAdverseTrend}},
			{text: "Recovery metrics sitting below your usual range", relevant: []factorKind{factorBaselineDeviation}},
			{text: "Occasional days of very poor recovery", relevant: []factorKind{factorAnomalyCluster}},
		},
		recommendations: map[factorKind]models.Recommendation{
			factorAdverseTrend:      {Action: "Insert an extra rest day and re-evaluate in one week", Priority: "high", Rationale: "Recovery metrics show a sustained decline"},
			factorBaselineDeviation: {Action: "Reduce training load until readiness returns to baseline", Priority: "medium", Rationale: "Recovery is lagging your personal norm"},
			factorAnomalyCluster:    {Action: "Check the flagged days against workload and sleep", Priority: "low", Rationale: "Outlier recovery days usually follow identifiable strain"},
		},
	},
}

// RiskScorer combines trend analysis, anomaly counts, and personal-baseline
// deviation into per-category composite risk. The baseline is an explicit
// input; the scorer holds no user state.
type RiskScorer struct{}

// NewRiskScorer creates a scorer.
func NewRiskScorer() *RiskScorer {
	return &RiskScorer{}
}

// Assess scores the whole catalogue. Trends are keyed by metric name;
// categories whose key metrics all lack data are skipped.
func (s *RiskScorer) Assess(trends map[string]*models.TrendResult, w *AlignedWindow, baseline *models.UserBaseline) []models.RiskAssessment {
	var out []models.RiskAssessment
	for _, spec := range riskCatalogue {
		if assessment := s.assessCategory(spec, trends, w, baseline); assessment != nil {
			out = append(out, *assessment)
		}
	}
	return out
}

func (s *RiskScorer) assessCategory(spec riskCategorySpec, trends map[string]*models.TrendResult, w *AlignedWindow, baseline *models.UserBaseline) *models.RiskAssessment {
	var factors []models.ContributingFactor
	fired := map[factorKind]bool{}
	score := decimal.Zero
	metricsWithData := 0

	for _, metricID := range spec.keyMetrics {
		trend, ok := trends[metricID]
		if !ok || trend == nil {
			continue
		}
		metricsWithData++
		info := models.LookupMetric(metricID)

		if impact := trendImpact(trend); impact.IsPositive() {
			fired[factorAdverseTrend] = true
			contribution := impact.Mul(weightAdverseTrend)
			score = score.Add(contribution)
			factors = append(factors, models.ContributingFactor{
				Factor:      string(factorAdverseTrend) + ":" + metricID,
				ImpactScore: impact.Round(3),
				Description: fmt.Sprintf("%s trending in an adverse direction (%.1f%% change, %s)", info.Label, trend.PercentChange, trend.Significance),
			})
		}

		if impact := anomalyImpact(trend, w.WindowDays()); impact.IsPositive() {
			fired[factorAnomalyCluster] = true
			contribution := impact.Mul(weightAnomalyCluster)
			score = score.Add(contribution)
			factors = append(factors, models.ContributingFactor{
				Factor:      string(factorAnomalyCluster) + ":" + metricID,
				ImpactScore: impact.Round(3),
				Description: fmt.Sprintf("%d anomalous day(s) for %s within the window", len(trend.Anomalies), info.Label),
			})
		}

		if impact, z := baselineImpact(info, w, baseline); impact.IsPositive() {
			fired[factorBaselineDeviation] = true
			contribution := impact.Mul(weightBaselineDeviation)
			score = score.Add(contribution)
			factors = append(factors, models.ContributingFactor{
				Factor:      string(factorBaselineDeviation) + ":" + metricID,
				ImpactScore: impact.Round(3),
				Description: fmt.Sprintf("%s running %.1f standard deviations off your personal baseline", info.Label, z),
			})
		}
	}

	if metricsWithData == 0 {
		return nil
	}

	// Normalize by the metrics that actually contributed data, then clip.
	score = score.Div(decimal.NewFromInt(int64(metricsWithData)))
	if score.GreaterThan(decimal.NewFromInt(1)) {
		score = decimal.NewFromInt(1)
	}

	var recommendations []models.Recommendation
	for _, kind := range []factorKind{factorAdverseTrend, factorBaselineDeviation, factorAnomalyCluster} {
		if fired[kind] {
			if rec, ok := spec.recommendations[kind]; ok {
				recommendations = append(recommendations, rec)
			}
		}
	}

	var warnings []string
	for _, sign := range spec.warnings {
		for _, kind := range sign.relevant {
			if fired[kind] {
				warnings = append(warnings, sign.text)
				break
			}
		}
	}

	confidence := decimal.NewFromInt(int64(metricsWithData)).
		Div(decimal.NewFromInt(int64(len(spec.keyMetrics)))).Round(3)

	return &models.RiskAssessment{
		RiskType:            spec.riskType,
		RiskCategory:        spec.category,
		RiskLevel:           BucketRiskLevel(score),
		RiskScore:           score.Round(4),
		ContributingFactors: factors,
		Recommendations:     recommendations,
		EarlyWarningSigns:   warnings,
		ConfidenceScore:     confidence,
	}
}

// BucketRiskLevel maps a score in [0,1] onto the four levels. Boundaries are
// inclusive upward: exactly 0.75 is critical.
func BucketRiskLevel(score decimal.Decimal) models.RiskLevel {
	switch {
	case score.GreaterThanOrEqual(riskCriticalFloor):
		return models.RiskCritical
	case score.GreaterThanOrEqual(riskHighFloor):
		return models.RiskHigh
	case score.GreaterThanOrEqual(riskModerateFloor):
		return models.RiskModerate
	default:
		return models.RiskLow
	}
}

// OverallRiskLevel is the worst level across assessments; low when none exist.
func OverallRiskLevel(risks []models.RiskAssessment) models.RiskLevel {
	order := map[models.RiskLevel]int{
		models.RiskLow:      0,
		models.RiskModerate: 1,
		models.RiskHigh:     2,
		models.RiskCritical: 3,
	}
	overall := models.RiskLow
	for _, r := range risks {
		if order[r.RiskLevel] > order[overall] {
			overall = r.RiskLevel
		}
	}
	return overall
}

// trendImpact converts an adverse trend into an impact in [0,1]. Improving,
// stable, and noise-level trends contribute nothing.
func trendImpact(trend *models.TrendResult) decimal.Decimal {
	if trend.TrendType != models.TrendDeclining {
		return decimal.Zero
	}
	switch trend.Significance {
	case models.SignificanceClinical:
		return decimal.NewFromFloat(0.9)
	case models.SignificanceNotable:
		return decimal.NewFromFloat(0.6)
	case models.SignificanceMinor:
		return decimal.NewFromFloat(0.35)
	default:
		return decimal.Zero
	}
}

// anomalyImpact scales with the share of window days flagged, saturating at
// one flagged day in five.
func anomalyImpact(trend *models.TrendResult, windowDays int) decimal.Decimal {
	if len(trend.Anomalies) == 0 || windowDays == 0 {
		return decimal.Zero
	}
	frac := float64(len(trend.Anomalies)) / float64(windowDays)
	return decimal.NewFromFloat(math.Min(1, frac*5))
}

// baselineImpact measures how far the recent level sits from the user's own
// baseline, in baseline standard deviations, counting only deviation in the
// adverse direction for the metric. Saturates at three standard deviations.
func baselineImpact(info models.MetricInfo, w *AlignedWindow, baseline *models.UserBaseline) (decimal.Decimal, float64) {
	if baseline == nil {
		return decimal.Zero, 0
	}
	stat, ok := baseline.Metrics[info.ID]
	if !ok || stat.StdDev == 0 {
		return decimal.Zero, 0
	}

	values, _ := w.SeriesValues(info.ID)
	if len(values) == 0 {
		return decimal.Zero, 0
	}
	// Recent level: last 7 present observations.
	start := len(values) - 7
	if start < 0 {
		start = 0
	}
	recent := mean(values[start:])

	z := (recent - stat.Mean) / stat.StdDev
	adverse := z < 0
	if info.Direction == models.LowerIsBetter {
		adverse = z > 0
	}
	if !adverse {
		return decimal.Zero, z
	}
	return decimal.NewFromFloat(math.Min(1, math.Abs(z)/3)), z
}
