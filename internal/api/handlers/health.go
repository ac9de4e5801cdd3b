package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"

	"github.com/lumina-health/lumina-ai-go/internal/database"
)

const healthCheckTimeout = 5 * time.Second

// HealthChecker is anything that can be pinged.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler reports liveness of the service and its backing stores.
type HealthHandler struct {
	db      HealthChecker
	redis   HealthChecker
	logger  *logrus.Logger
	started time.Time
}

// NewHealthHandler creates a health handler. Either checker may be nil, in
// which case that component is reported as disabled.
func NewHealthHandler(db *database.PostgresDB, redis *database.RedisClient, logger *logrus.Logger) *HealthHandler {
	if logger == nil {
		logger = logrus.New()
	}
	h := &HealthHandler{logger: logger, started: time.Now()}
	if db != nil {
		h.db = db
	}
	if redis != nil {
		h.redis = redis
	}
	return h
}

type componentStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func checkComponent(ctx context.Context, checker HealthChecker) componentStatus {
	if checker == nil {
		return componentStatus{Status: "disabled"}
	}
	if err := checker.HealthCheck(ctx); err != nil {
		return componentStatus{Status: "unhealthy", Error: err.Error()}
	}
	return componentStatus{Status: "healthy"}
}

// Check handles GET /health. Degrades to 503 when any enabled backing store
// is unreachable.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	dbStatus := checkComponent(ctx, h.db)
	redisStatus := checkComponent(ctx, h.redis)

	status := "healthy"
	httpStatus := http.StatusOK
	if dbStatus.Status == "unhealthy" || redisStatus.Status == "unhealthy" {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
		h.logger.WithFields(logrus.Fields{
			"database": dbStatus.Status,
			"redis":    redisStatus.Status,
		}).Warn("Health check degraded")
	}

	system := gin.H{
		"goroutines": runtime.NumGoroutine(),
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		system["memory_used_percent"] = vm.UsedPercent
	}

	c.JSON(httpStatus, gin.H{
		"status":         status,
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"components": gin.H{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"system": system,
	})
}
