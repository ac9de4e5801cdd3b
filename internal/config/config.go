package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string          `mapstructure:"environment"`
	LogLevel    string          `mapstructure:"log_level"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Analytics   AnalyticsConfig `mapstructure:"analytics"`
	Telemetry   TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AnalyticsConfig struct {
	MaxLagDays        int                    `mapstructure:"max_lag_days"`
	SignificanceLevel float64                `mapstructure:"significance_level"`
	MinSampleSize     int                    `mapstructure:"min_sample_size"`
	MinOverlapDays    int                    `mapstructure:"min_overlap_days"`
	MinCausalityScore float64                `mapstructure:"min_causality_score"`
	CausalityWeights  CausalityWeightsConfig `mapstructure:"causality_weights"`
	AnomalyZThreshold float64                `mapstructure:"anomaly_z_threshold"`
	RiskWindowDays    int                    `mapstructure:"risk_window_days"`
	Workers           int                    `mapstructure:"workers"`
	ComputeBudget     string                 `mapstructure:"compute_budget"`
	CacheTTL          string                 `mapstructure:"cache_ttl"`
	BaselineWindow    int                    `mapstructure:"baseline_window_days"`
}

type CausalityWeightsConfig struct {
	Correlation float64 `mapstructure:"correlation"`
	Granger     float64 `mapstructure:"granger"`
	Precedence  float64 `mapstructure:"precedence"`
}

type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Missing config file is fine; defaults plus env cover it.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)

	if config.Analytics.ComputeBudget != "" {
		if _, err := time.ParseDuration(config.Analytics.ComputeBudget); err != nil {
			return nil, fmt.Errorf("invalid analytics compute budget: %w", err)
		}
	}
	if config.Analytics.CacheTTL != "" {
		if _, err := time.ParseDuration(config.Analytics.CacheTTL); err != nil {
			return nil, fmt.Errorf("invalid analytics cache TTL: %w", err)
		}
	}
	if sig := config.Analytics.SignificanceLevel; sig <= 0 || sig >= 1 {
		return nil, fmt.Errorf("analytics significance level must be in (0,1), got %v", sig)
	}
	if config.Analytics.MaxLagDays < 0 || config.Analytics.MaxLagDays > 14 {
		return nil, fmt.Errorf("analytics max lag days must be in [0,14], got %d", config.Analytics.MaxLagDays)
	}

	return &config, nil
}

// ComputeBudgetDuration parses the configured budget; zero when unset.
func (a AnalyticsConfig) ComputeBudgetDuration() time.Duration {
	d, err := time.ParseDuration(a.ComputeBudget)
	if err != nil {
		return 0
	}
	return d
}

// CacheTTLDuration parses the configured cache TTL; zero when unset.
func (a AnalyticsConfig) CacheTTLDuration() time.Duration {
	d, err := time.ParseDuration(a.CacheTTL)
	if err != nil {
		return 0
	}
	return d
}

func setDefaults() {
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "lumina_ai")
	viper.SetDefault("database.sslmode", "disable")

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("analytics.max_lag_days", 3)
	viper.SetDefault("analytics.significance_level", 0.05)
	viper.SetDefault("analytics.min_sample_size", 5)
	viper.SetDefault("analytics.min_overlap_days", 5)
	viper.SetDefault("analytics.min_causality_score", 0.3)
	viper.SetDefault("analytics.causality_weights.correlation", 0.4)
	viper.SetDefault("analytics.causality_weights.granger", 0.4)
	viper.SetDefault("analytics.causality_weights.precedence", 0.2)
	viper.SetDefault("analytics.anomaly_z_threshold", 2.5)
	viper.SetDefault("analytics.risk_window_days", 30)
	viper.SetDefault("analytics.workers", 4)
	viper.SetDefault("analytics.compute_budget", "10s")
	viper.SetDefault("analytics.cache_ttl", "15m")
	viper.SetDefault("analytics.baseline_window_days", 60)

	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.otlp_endpoint", "localhost:4318")
	viper.SetDefault("telemetry.sample_rate", 0.2)
}
