package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 6379, cfg.Redis.Port)

	assert.Equal(t, 3, cfg.Analytics.MaxLagDays)
	assert.Equal(t, 0.05, cfg.Analytics.SignificanceLevel)
	assert.Equal(t, 5, cfg.Analytics.MinSampleSize)
	assert.Equal(t, 0.3, cfg.Analytics.MinCausalityScore)
	assert.Equal(t, 0.4, cfg.Analytics.CausalityWeights.Correlation)
	assert.Equal(t, 0.4, cfg.Analytics.CausalityWeights.Granger)
	assert.Equal(t, 0.2, cfg.Analytics.CausalityWeights.Precedence)
	assert.Equal(t, 30, cfg.Analytics.RiskWindowDays)
	assert.Equal(t, 60, cfg.Analytics.BaselineWindow)
	assert.Equal(t, 10*time.Second, cfg.Analytics.ComputeBudgetDuration())
	assert.Equal(t, 15*time.Minute, cfg.Analytics.CacheTTLDuration())

	assert.False(t, cfg.Telemetry.Enabled)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	viper.Reset()
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ANALYTICS_MAX_LAG_DAYS", "5")
	t.Setenv("ENVIRONMENT", "Production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Analytics.MaxLagDays)
	assert.Equal(t, "production", cfg.Environment)
}

func TestLoadRejectsInvalidSignificance(t *testing.T) {
	viper.Reset()
	t.Setenv("ANALYTICS_SIGNIFICANCE_LEVEL", "1.5")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "significance")
}

func TestLoadRejectsInvalidMaxLag(t *testing.T) {
	viper.Reset()
	t.Setenv("ANALYTICS_MAX_LAG_DAYS", "20")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max lag")
}

func TestLoadRejectsInvalidComputeBudget(t *testing.T) {
	viper.Reset()
	t.Setenv("ANALYTICS_COMPUTE_BUDGET", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compute budget")
}

func TestDurationHelpersToleratesGarbage(t *testing.T) {
	a := AnalyticsConfig{ComputeBudget: "nope", CacheTTL: ""}
	assert.Equal(t, time.Duration(0), a.ComputeBudgetDuration())
	assert.Equal(t, time.Duration(0), a.CacheTTLDuration())
}
