package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/lumina-health/lumina-ai-go/internal/analytics"
	"github.com/lumina-health/lumina-ai-go/internal/cache"
	"github.com/lumina-health/lumina-ai-go/internal/models"
)

const (
	defaultWindowDays = 30
	maxWindowDays     = 365
)

// AnalyticsHandler serves the four engine operations over HTTP. Responses
// are memoized in the cache when one is configured; the engine's purity
// makes a hit equivalent to recomputation.
type AnalyticsHandler struct {
	engine *analytics.Engine
	cache  *cache.AnalyticsCache
	logger *logrus.Logger
	now    func() time.Time
}

// NewAnalyticsHandler creates a handler. cache may be nil to disable
// memoization.
func NewAnalyticsHandler(engine *analytics.Engine, resultCache *cache.AnalyticsCache, logger *logrus.Logger) *AnalyticsHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &AnalyticsHandler{
		engine: engine,
		cache:  resultCache,
		logger: logger,
		now:    time.Now,
	}
}

// parseWindow extracts user_id, days, and end_date query parameters.
func (h *AnalyticsHandler) parseWindow(c *gin.Context) (userID string, days int, endDate time.Time, ok bool) {
	userID = c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id parameter is required"})
		return "", 0, time.Time{}, false
	}

	days = defaultWindowDays
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxWindowDays {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be an integer between 1 and 365"})
			return "", 0, time.Time{}, false
		}
		days = parsed
	}

	endDate = h.now()
	if raw := c.Query("end_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be formatted YYYY-MM-DD"})
			return "", 0, time.Time{}, false
		}
		endDate = parsed
	}

	return userID, days, endDate, true
}

func (h *AnalyticsHandler) respondError(c *gin.Context, err error) {
	if errors.Is(err, analytics.ErrUpstreamUnavailable) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "metric data is temporarily unavailable, please retry"})
		return
	}
	h.logger.WithError(err).Error("Analytics request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
}

// GetCorrelations handles GET /api/v1/analytics/correlations.
func (h *AnalyticsHandler) GetCorrelations(c *gin.Context) {
	userID, days, endDate, ok := h.parseWindow(c)
	if !ok {
		return
	}

	var cached models.CorrelationsResponse
	key := ""
	if h.cache != nil {
		key = h.cache.Key("correlations", userID, days, endDate)
		if h.cache.Get(c.Request.Context(), key, &cached) {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	resp, err := h.engine.ComputeCorrelations(c.Request.Context(), userID, days, endDate)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if h.cache != nil && !resp.Truncated {
		h.cache.Set(c.Request.Context(), key, resp)
	}
	c.JSON(http.StatusOK, resp)
}

// GetCausalGraph handles GET /api/v1/analytics/causal-graph.
func (h *AnalyticsHandler) GetCausalGraph(c *gin.Context) {
	userID, days, endDate, ok := h.parseWindow(c)
	if !ok {
		return
	}

	var cached models.CausalGraphResponse
	key := ""
	if h.cache != nil {
		key = h.cache.Key("causal-graph", userID, days, endDate)
		if h.cache.Get(c.Request.Context(), key, &cached) {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	resp, err := h.engine.ComputeCausalGraph(c.Request.Context(), userID, days, endDate)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if h.cache != nil && !resp.Truncated {
		h.cache.Set(c.Request.Context(), key, resp)
	}
	c.JSON(http.StatusOK, resp)
}

// GetTrends handles GET /api/v1/analytics/trends.
func (h *AnalyticsHandler) GetTrends(c *gin.Context) {
	userID, days, endDate, ok := h.parseWindow(c)
	if !ok {
		return
	}

	var cached models.TrendsResponse
	key := ""
	if h.cache != nil {
		key = h.cache.Key("trends", userID, days, endDate)
		if h.cache.Get(c.Request.Context(), key, &cached) {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	resp, err := h.engine.ComputeTrends(c.Request.Context(), userID, days, endDate)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if h.cache != nil && !resp.Truncated {
		h.cache.Set(c.Request.Context(), key, resp)
	}
	c.JSON(http.StatusOK, resp)
}

// GetRisks handles GET /api/v1/analytics/risks. The personal baseline is
// rebuilt from history per request; a scheduler could precompute it, but the
// engine only ever sees it as an input.
func (h *AnalyticsHandler) GetRisks(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id parameter is required"})
		return
	}
	endDate := h.now()

	baseline, err := h.engine.BuildBaseline(c.Request.Context(), userID, endDate)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp, err := h.engine.ComputeRisks(c.Request.Context(), userID, endDate, baseline)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
