package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CorrelationStrength buckets the absolute correlation coefficient.
type CorrelationStrength string

const (
	StrengthWeak     CorrelationStrength = "weak"
	StrengthModerate CorrelationStrength = "moderate"
	StrengthStrong   CorrelationStrength = "strong"
)

// CorrelationDirection is the sign of the correlation coefficient.
type CorrelationDirection string

const (
	DirectionPositive CorrelationDirection = "positive"
	DirectionNegative CorrelationDirection = "negative"
)

// PairedPoint is one overlapping observation used in a correlation, after the
// chosen lag has been applied.
type PairedPoint struct {
	Date   time.Time `json:"date"`
	ValueA float64   `json:"value_a"`
	ValueB float64   `json:"value_b"`
}

// Correlation is the result of a lagged Pearson correlation between two metrics.
type Correlation struct {
	MetricA           string               `json:"metric_a"`
	MetricB           string               `json:"metric_b"`
	Coefficient       float64              `json:"coefficient"`
	PValue            float64              `json:"p_value"`
	LagDays           int                  `json:"lag_days"`
	Strength          CorrelationStrength  `json:"strength"`
	Direction         CorrelationDirection `json:"direction"`
	SampleSize        int                  `json:"sample_size"`
	EffectDescription string               `json:"effect_description"`
	DataPoints        []PairedPoint        `json:"data_points"`
}

// CausalEvidence enumerates the evidence kinds that can back a causal edge.
type CausalEvidence string

const (
	EvidenceGranger     CausalEvidence = "granger_causality"
	EvidencePrecedence  CausalEvidence = "temporal_precedence"
	EvidenceCorrelation CausalEvidence = "correlation"
)

// CausalEdge is a directed relationship between two metrics.
// GrangerPValue is nil when the test could not run for any lag order.
type CausalEdge struct {
	FromMetric     string              `json:"from_metric"`
	ToMetric       string              `json:"to_metric"`
	Correlation    float64             `json:"correlation"`
	CausalityScore float64             `json:"causality_score"`
	GrangerPValue  *float64            `json:"granger_p_value"`
	OptimalLagDays int                 `json:"optimal_lag_days"`
	Evidence       []CausalEvidence    `json:"evidence"`
	Strength       CorrelationStrength `json:"strength"`
}

// TrendType classifies the overall movement of a metric over the window.
type TrendType string

const (
	TrendImproving TrendType = "improving"
	TrendDeclining TrendType = "declining"
	TrendStable    TrendType = "stable"
	TrendVolatile  TrendType = "volatile"
)

// TrendSignificance is the four-tier label combining fit quality,
// Mann-Kendall p-value, and percent change.
type TrendSignificance string

const (
	SignificanceClinical TrendSignificance = "clinically_significant"
	SignificanceNotable  TrendSignificance = "notable"
	SignificanceMinor    TrendSignificance = "minor"
	SignificanceNoise    TrendSignificance = "noise"
)

// TrendPattern names a structural pattern detected in the series.
type TrendPattern string

const (
	PatternSeasonal   TrendPattern = "seasonal"
	PatternBreakpoint TrendPattern = "breakpoint"
)

// SeasonalityInfo reports a dominant cycle found in the series spectrum.
type SeasonalityInfo struct {
	PeriodDays    int     `json:"period_days"`
	PowerFraction float64 `json:"power_fraction"`
}

// BreakpointInfo reports a single most-likely structural change point.
type BreakpointInfo struct {
	Date       time.Time `json:"date"`
	Index      int       `json:"index"`
	Confidence float64   `json:"confidence"`
}

// TrendResult is the full per-metric trend analysis. Sub-analyses that could
// not run on the available data are nil rather than failing the metric.
type TrendResult struct {
	MetricName       string            `json:"metric_name"`
	WindowDays       int               `json:"window_days"`
	TrendType        TrendType         `json:"trend_type"`
	Significance     TrendSignificance `json:"significance"`
	AverageValue     float64           `json:"average_value"`
	StdDeviation     float64           `json:"std_deviation"`
	PercentChange    float64           `json:"percent_change"`
	RSquared         float64           `json:"r_squared"`
	Slope            float64           `json:"slope"`
	SensSlope        *float64          `json:"sens_slope"`
	MannKendallP     *float64          `json:"mann_kendall_p"`
	Forecast7d       *float64          `json:"forecast_7d"`
	Forecast14d      *float64          `json:"forecast_14d"`
	Forecast30d      *float64          `json:"forecast_30d"`
	Anomalies        []time.Time       `json:"anomalies"`
	Seasonality      *SeasonalityInfo  `json:"seasonality"`
	Breakpoint       *BreakpointInfo   `json:"breakpoint"`
	DetectedPatterns []TrendPattern    `json:"detected_patterns"`
	Interpretation   string            `json:"interpretation"`
}

// RiskLevel buckets a composite risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskCategory is the fixed catalogue of scored risk areas.
type RiskCategory string

const (
	RiskCardiovascular RiskCategory = "cardiovascular"
	RiskMetabolic      RiskCategory = "metabolic"
	RiskMentalHealth   RiskCategory = "mental_health"
	RiskSleep          RiskCategory = "sleep"
	RiskRecovery       RiskCategory = "recovery"
)

// ContributingFactor is one input that moved a risk score.
type ContributingFactor struct {
	Factor      string          `json:"factor"`
	ImpactScore decimal.Decimal `json:"impact_score"`
	Description string          `json:"description"`
}

// Recommendation is an advisory action selected from a fixed rule table.
type Recommendation struct {
	Action    string `json:"action"`
	Priority  string `json:"priority"` // "high", "medium", "low"
	Rationale string `json:"rationale"`
}

// RiskAssessment is the composite risk output for one category. Advisory
// only; never a diagnosis.
type RiskAssessment struct {
	RiskType            string               `json:"risk_type"`
	RiskCategory        RiskCategory         `json:"risk_category"`
	RiskLevel           RiskLevel            `json:"risk_level"`
	RiskScore           decimal.Decimal      `json:"risk_score"`
	ContributingFactors []ContributingFactor `json:"contributing_factors"`
	Recommendations     []Recommendation     `json:"recommendations"`
	EarlyWarningSigns   []string             `json:"early_warning_signs"`
	ConfidenceScore     decimal.Decimal      `json:"confidence_score"`
}

// BaselineStat is a user's own rolling baseline for one metric.
type BaselineStat struct {
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"std_dev"`
	SampleSize int     `json:"sample_size"`
}

// UserBaseline carries per-metric personal baselines into risk scoring.
// Computed by a collaborator on a schedule and passed in explicitly; the
// engine never owns or caches it.
type UserBaseline struct {
	UserID     string                  `json:"user_id"`
	WindowDays int                     `json:"window_days"`
	Metrics    map[string]BaselineStat `json:"metrics"`
	ComputedAt time.Time               `json:"computed_at"`
}

// CorrelationsResponse is the envelope for computeCorrelations.
type CorrelationsResponse struct {
	Correlations           []Correlation `json:"correlations"`
	DataQualityScore       float64       `json:"data_quality_score"`
	OuraDaysAvailable      int           `json:"oura_days_available"`
	NutritionDaysAvailable int           `json:"nutrition_days_available"`
	Summary                string        `json:"summary"`
	Truncated              bool          `json:"truncated"`
}

// CausalGraphResponse is the envelope for computeCausalGraph.
type CausalGraphResponse struct {
	Edges      []CausalEdge `json:"edges"`
	Truncated  bool         `json:"truncated"`
}

// TrendsResponse is the envelope for computeTrends.
type TrendsResponse struct {
	Trends     []TrendResult `json:"trends"`
	Truncated  bool          `json:"truncated"`
}

// RisksResponse is the envelope for computeRisks.
type RisksResponse struct {
	Risks            []RiskAssessment `json:"risks"`
	OverallRiskLevel RiskLevel        `json:"overall_risk_level"`
}
