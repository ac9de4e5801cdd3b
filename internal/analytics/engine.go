package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/lumina-health/lumina-ai-go/internal/models"
)

// SeriesSource is the collaborator contract for fetching pre-aggregated daily
// series. Implementations live outside the engine (database, remote service).
type SeriesSource interface {
	GetDailySeries(ctx context.Context, userID string, metricIDs []string, start, end time.Time) ([]models.MetricSeries, error)
}

// Config tunes the engine. Zero values fall back to package defaults.
type Config struct {
	MaxLagDays        int              `mapstructure:"max_lag_days"`
	SignificanceLevel float64          `mapstructure:"significance_level"`
	MinSampleSize     int              `mapstructure:"min_sample_size"`
	MinOverlapDays    int              `mapstructure:"min_overlap_days"`
	MinCausalityScore float64          `mapstructure:"min_causality_score"`
	CausalityWeights  CausalityWeights `mapstructure:"causality_weights"`
	AnomalyZThreshold float64          `mapstructure:"anomaly_z_threshold"`
	RiskWindowDays    int              `mapstructure:"risk_window_days"`
	Workers           int              `mapstructure:"workers"`
	ComputeBudget     time.Duration    `mapstructure:"compute_budget"`
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		MaxLagDays:        DefaultMaxLagDays,
		SignificanceLevel: DefaultSignificanceLevel,
		MinSampleSize:     DefaultMinSampleSize,
		MinOverlapDays:    DefaultMinOverlapDays,
		MinCausalityScore: DefaultMinCausalityScore,
		CausalityWeights:  DefaultCausalityWeights(),
		AnomalyZThreshold: DefaultAnomalyZThreshold,
		RiskWindowDays:    30,
		Workers:           4,
		ComputeBudget:     10 * time.Second,
	}
}

// Engine orchestrates the analyzers over one request: align once, fan the
// per-pair/per-metric work across a bounded worker pool, and assemble sorted,
// deterministic responses. The engine itself is stateless and side-effect
// free, so callers may cache its responses keyed by input.
type Engine struct {
	source SeriesSource
	cfg    Config
	logger *logrus.Logger
	tracer trace.Tracer

	aligner     *TimeSeriesAligner
	correlation *CorrelationEngine
	trends      *TrendAnalyzer
	causal      *CausalGraphBuilder
	risk        *RiskScorer
}

// NewEngine wires the analyzers with a shared configuration.
func NewEngine(source SeriesSource, cfg Config, logger *logrus.Logger) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	if cfg.ComputeBudget <= 0 {
		cfg.ComputeBudget = DefaultConfig().ComputeBudget
	}
	if cfg.RiskWindowDays <= 0 {
		cfg.RiskWindowDays = DefaultConfig().RiskWindowDays
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{
		source: source,
		cfg:    cfg,
		logger: logger,
		tracer: otel.Tracer("lumina.analytics"),

		aligner:     NewTimeSeriesAligner(cfg.MinOverlapDays),
		correlation: NewCorrelationEngine(cfg.MaxLagDays, cfg.SignificanceLevel, cfg.MinSampleSize),
		trends:      NewTrendAnalyzer(cfg.SignificanceLevel, cfg.AnomalyZThreshold),
		causal:      NewCausalGraphBuilder(cfg.MaxLagDays, cfg.SignificanceLevel, cfg.MinCausalityScore, cfg.CausalityWeights),
		risk:        NewRiskScorer(),
	}
}

// alignWindow fetches all known metric series for the user and aligns them.
// Fetch failure is the one request-fatal condition.
func (e *Engine) alignWindow(ctx context.Context, userID string, days int, endDate time.Time) (*AlignedWindow, error) {
	metricIDs := models.KnownMetricIDs()
	sort.Strings(metricIDs)

	end := truncateToDay(endDate)
	start := end.AddDate(0, 0, -(days - 1))

	series, err := e.source.GetDailySeries(ctx, userID, metricIDs, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return e.aligner.Align(series, days, end), nil
}

// metricPair is one unit of correlation work.
type metricPair struct {
	a, b string
}

// crossDomainPairs enumerates the unordered cross-domain metric pairs on the
// window in a fixed order. Same-domain pairs are skipped: correlating protein
// with carbs tells the user nothing actionable about their symptoms.
func crossDomainPairs(w *AlignedWindow) []metricPair {
	ids := w.MetricIDs()
	var pairs []metricPair
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if w.Domain(ids[i]) == w.Domain(ids[j]) {
				continue
			}
			pairs = append(pairs, metricPair{a: ids[i], b: ids[j]})
		}
	}
	return pairs
}

// runPool spreads jobs across the worker pool under the compute budget.
// Jobs started after the budget expires are skipped and reported as
// truncation rather than failing the batch.
func (e *Engine) runPool(ctx context.Context, jobCount int, run func(i int)) (truncated bool) {
	budgetCtx, cancel := context.WithTimeout(ctx, e.cfg.ComputeBudget)
	defer cancel()

	jobs := make(chan int)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i := 0; i < e.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if budgetCtx.Err() != nil {
					mu.Lock()
					truncated = true
					mu.Unlock()
					continue
				}
				run(j)
			}
		}()
	}

	for j := 0; j < jobCount; j++ {
		jobs <- j
	}
	close(jobs)
	wg.Wait()
	return truncated
}

// ComputeCorrelations runs the pairwise correlation analysis over the window.
func (e *Engine) ComputeCorrelations(ctx context.Context, userID string, days int, endDate time.Time) (*models.CorrelationsResponse, error) {
	ctx, span := e.tracer.Start(ctx, "engine.ComputeCorrelations",
		trace.WithAttributes(attribute.Int("window.days", days)))
	defer span.End()

	w, err := e.alignWindow(ctx, userID, days, endDate)
	if err != nil {
		return nil, err
	}

	pairs := crossDomainPairs(w)
	results := make([]*models.Correlation, len(pairs))
	truncated := e.runPool(ctx, len(pairs), func(i int) {
		corr, err := e.correlation.AnalyzePair(w, pairs[i].a, pairs[i].b)
		if err != nil {
			// Insufficient overlap omits the pair, never the batch.
			return
		}
		results[i] = corr
	})

	var correlations []models.Correlation
	for _, c := range results {
		if c != nil {
			correlations = append(correlations, *c)
		}
	}
	sort.Slice(correlations, func(i, j int) bool {
		ai, aj := math.Abs(correlations[i].Coefficient), math.Abs(correlations[j].Coefficient)
		if ai != aj {
			return ai > aj
		}
		if correlations[i].MetricA != correlations[j].MetricA {
			return correlations[i].MetricA < correlations[j].MetricA
		}
		return correlations[i].MetricB < correlations[j].MetricB
	})

	quality := averagePairQuality(w, pairs)
	ouraDays, nutritionDays := domainAvailability(w)

	e.logger.WithFields(logrus.Fields{
		"user_id":      userID,
		"window_days":  days,
		"pairs":        len(pairs),
		"correlations": len(correlations),
		"data_quality": quality,
	}).Info("Correlation analysis completed")

	return &models.CorrelationsResponse{
		Correlations:           correlations,
		DataQualityScore:       quality,
		OuraDaysAvailable:      ouraDays,
		NutritionDaysAvailable: nutritionDays,
		Summary:                correlationSummary(len(correlations), len(pairs), days, quality),
		Truncated:              truncated,
	}, nil
}

// ComputeTrends runs the trend battery for every metric on the window.
func (e *Engine) ComputeTrends(ctx context.Context, userID string, days int, endDate time.Time) (*models.TrendsResponse, error) {
	ctx, span := e.tracer.Start(ctx, "engine.ComputeTrends",
		trace.WithAttributes(attribute.Int("window.days", days)))
	defer span.End()

	w, err := e.alignWindow(ctx, userID, days, endDate)
	if err != nil {
		return nil, err
	}

	ids := w.MetricIDs()
	results := make([]*models.TrendResult, len(ids))
	truncated := e.runPool(ctx, len(ids), func(i int) {
		trend, err := e.trends.AnalyzeMetric(w, ids[i])
		if err != nil {
			return
		}
		results[i] = trend
	})

	var trends []models.TrendResult
	for _, t := range results {
		if t != nil {
			trends = append(trends, *t)
		}
	}
	sort.Slice(trends, func(i, j int) bool {
		return trends[i].MetricName < trends[j].MetricName
	})

	e.logger.WithFields(logrus.Fields{
		"user_id":     userID,
		"window_days": days,
		"trends":      len(trends),
	}).Info("Trend analysis completed")

	return &models.TrendsResponse{Trends: trends, Truncated: truncated}, nil
}

// ComputeCausalGraph evaluates both directions of every eligible pair and
// keeps edges that clear the causality threshold.
func (e *Engine) ComputeCausalGraph(ctx context.Context, userID string, days int, endDate time.Time) (*models.CausalGraphResponse, error) {
	ctx, span := e.tracer.Start(ctx, "engine.ComputeCausalGraph",
		trace.WithAttributes(attribute.Int("window.days", days)))
	defer span.End()

	w, err := e.alignWindow(ctx, userID, days, endDate)
	if err != nil {
		return nil, err
	}

	pairs := crossDomainPairs(w)
	edgeSets := make([][]models.CausalEdge, len(pairs))
	truncated := e.runPool(ctx, len(pairs), func(i int) {
		forward := e.directedEdge(w, pairs[i].a, pairs[i].b)
		reverse := e.directedEdge(w, pairs[i].b, pairs[i].a)
		edgeSets[i] = SelectEdges(forward, reverse)
	})

	var edges []models.CausalEdge
	for _, set := range edgeSets {
		edges = append(edges, set...)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].CausalityScore != edges[j].CausalityScore {
			return edges[i].CausalityScore > edges[j].CausalityScore
		}
		if edges[i].FromMetric != edges[j].FromMetric {
			return edges[i].FromMetric < edges[j].FromMetric
		}
		return edges[i].ToMetric < edges[j].ToMetric
	})

	e.logger.WithFields(logrus.Fields{
		"user_id":     userID,
		"window_days": days,
		"edges":       len(edges),
	}).Info("Causal graph analysis completed")

	return &models.CausalGraphResponse{Edges: edges, Truncated: truncated}, nil
}

// directedEdge correlates from->to and promotes the result to a causal edge.
func (e *Engine) directedEdge(w *AlignedWindow, from, to string) *models.CausalEdge {
	corr, err := e.correlation.AnalyzePair(w, from, to)
	if err != nil {
		return nil
	}
	return e.causal.BuildEdge(w, corr)
}

// ComputeRisks scores the fixed risk catalogue over the configured risk
// window. The personal baseline is an explicit input, recomputed by a
// collaborator, never engine-owned.
func (e *Engine) ComputeRisks(ctx context.Context, userID string, endDate time.Time, baseline *models.UserBaseline) (*models.RisksResponse, error) {
	ctx, span := e.tracer.Start(ctx, "engine.ComputeRisks")
	defer span.End()

	days := e.cfg.RiskWindowDays
	w, err := e.alignWindow(ctx, userID, days, endDate)
	if err != nil {
		return nil, err
	}

	trendByMetric := make(map[string]*models.TrendResult)
	var mu sync.Mutex
	ids := w.MetricIDs()
	e.runPool(ctx, len(ids), func(i int) {
		trend, err := e.trends.AnalyzeMetric(w, ids[i])
		if err != nil {
			return
		}
		mu.Lock()
		trendByMetric[ids[i]] = trend
		mu.Unlock()
	})

	risks := e.risk.Assess(trendByMetric, w, baseline)
	sort.Slice(risks, func(i, j int) bool {
		if !risks[i].RiskScore.Equal(risks[j].RiskScore) {
			return risks[i].RiskScore.GreaterThan(risks[j].RiskScore)
		}
		return risks[i].RiskType < risks[j].RiskType
	})

	e.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"risks":   len(risks),
	}).Info("Risk assessment completed")

	return &models.RisksResponse{
		Risks:            risks,
		OverallRiskLevel: OverallRiskLevel(risks),
	}, nil
}

// BuildBaseline fetches baseline history and derives the user's personal
// baseline. Exposed so schedulers and handlers can recompute it outside the
// engine's request path.
func (e *Engine) BuildBaseline(ctx context.Context, userID string, endDate time.Time) (*models.UserBaseline, error) {
	builder := NewBaselineBuilder(DefaultBaselineWindowDays)
	end := truncateToDay(endDate)
	start := end.AddDate(0, 0, -(builder.WindowDays() - 1))

	metricIDs := models.KnownMetricIDs()
	sort.Strings(metricIDs)

	history, err := e.source.GetDailySeries(ctx, userID, metricIDs, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return builder.Build(userID, history, end), nil
}

// averagePairQuality is the mean usable-overlap fraction across the candidate
// pairs, before minimum-overlap filtering, so sparse data shows up as a low
// score rather than an empty denominator.
func averagePairQuality(w *AlignedWindow, pairs []metricPair) float64 {
	if len(pairs) == 0 {
		return 0
	}
	total := 0.0
	for _, p := range pairs {
		total += w.PairQualityScore(p.a, p.b)
	}
	return total / float64(len(pairs))
}

// domainAvailability reports the best per-domain day coverage for the
// wearable and nutrition domains.
func domainAvailability(w *AlignedWindow) (ouraDays, nutritionDays int) {
	for _, id := range w.MetricIDs() {
		available := w.DaysAvailable(id)
		switch w.Domain(id) {
		case models.DomainWearable:
			if available > ouraDays {
				ouraDays = available
			}
		case models.DomainNutrition:
			if available > nutritionDays {
				nutritionDays = available
			}
		}
	}
	return ouraDays, nutritionDays
}

// correlationSummary fills the fixed summary template.
func correlationSummary(found, considered, days int, quality float64) string {
	if considered == 0 || quality == 0 {
		return fmt.Sprintf("No overlapping wearable and nutrition data in the last %d days; log both to unlock correlation insights", days)
	}
	if found == 0 {
		return fmt.Sprintf("Analyzed %d metric pairs over %d days but found no correlations with enough overlapping data (quality %.0f%%)", considered, days, quality*100)
	}
	return fmt.Sprintf("Found %d correlation(s) across %d metric pairs over %d days (data quality %.0f%%)", found, considered, days, quality*100)
}
