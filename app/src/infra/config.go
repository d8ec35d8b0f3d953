package infra

import (
	"context"
	"strings"

	"github.com/spf13/viper"
)

// Config carries every tunable of the service. Values come from environment
// variables with the defaults below; all detection parameters are also
// override-able per API call.
type Config struct {
	HTTPPort    string
	MetricsPort string

	DatabaseDSN      string
	DatabaseHost     string
	DatabasePort     string
	DatabaseUser     string
	DatabasePassword string
	DatabaseName     string

	// Detection defaults
	ZScoreThreshold       float64
	RollingWindowSize     int
	RollingMultiplier     float64
	IsolationContam       float64
	DropThresholdPct      float64
	InstabilityWindowSecs int
	DetectionWorkers      int

	// Generator defaults
	GeneratorSeed  int64
	SpikeFactorMin float64
	SpikeFactorMax float64
	DropFactorMin  float64
	DropFactorMax  float64

	// Continuous synthetic feed
	FeedEnabled         bool
	FeedIntervalSeconds int
	FeedCellIDs         []string
	FeedProfiles        []string
	FeedAnomalyRate     float64

	IngestWorkerCount       int
	MeasurementBufferSize   int
	MeasurementRetainPoints int
}

// LoadConfig reads configuration from the environment via viper.
func LoadConfig() Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("http_port", "8080")
	v.SetDefault("metrics_port", "2112")

	v.SetDefault("db_dsn", "")
	v.SetDefault("db_host", "")
	v.SetDefault("db_port", "")
	v.SetDefault("db_user", "")
	v.SetDefault("db_password", "")
	v.SetDefault("db_name", "")

	v.SetDefault("zscore_threshold", 3.0)
	v.SetDefault("rolling_window_size", 50)
	v.SetDefault("rolling_multiplier", 2.5)
	v.SetDefault("isolation_contamination", 0.05)
	v.SetDefault("drop_threshold_pct", 30.0)
	v.SetDefault("instability_window_seconds", 300)
	v.SetDefault("detection_workers", 4)

	v.SetDefault("generator_seed", 42)
	v.SetDefault("spike_factor_min", 2.5)
	v.SetDefault("spike_factor_max", 5.0)
	v.SetDefault("drop_factor_min", 0.3)
	v.SetDefault("drop_factor_max", 0.6)

	v.SetDefault("feed_enabled", false)
	v.SetDefault("feed_interval_seconds", 10)
	v.SetDefault("feed_cell_ids", []string{"gNB_001_Cell_1", "gNB_002_Cell_1"})
	v.SetDefault("feed_profiles", []string{"eMBB"})
	v.SetDefault("feed_anomaly_rate", 0.05)

	v.SetDefault("ingest_workers", 4)
	v.SetDefault("measurement_buffer", 100)
	v.SetDefault("measurement_retain_points", 100000)

	return Config{
		HTTPPort:    v.GetString("http_port"),
		MetricsPort: v.GetString("metrics_port"),

		DatabaseDSN:      v.GetString("db_dsn"),
		DatabaseHost:     v.GetString("db_host"),
		DatabasePort:     v.GetString("db_port"),
		DatabaseUser:     v.GetString("db_user"),
		DatabasePassword: v.GetString("db_password"),
		DatabaseName:     v.GetString("db_name"),

		ZScoreThreshold:       v.GetFloat64("zscore_threshold"),
		RollingWindowSize:     v.GetInt("rolling_window_size"),
		RollingMultiplier:     v.GetFloat64("rolling_multiplier"),
		IsolationContam:       v.GetFloat64("isolation_contamination"),
		DropThresholdPct:      v.GetFloat64("drop_threshold_pct"),
		InstabilityWindowSecs: v.GetInt("instability_window_seconds"),
		DetectionWorkers:      v.GetInt("detection_workers"),

		GeneratorSeed:  v.GetInt64("generator_seed"),
		SpikeFactorMin: v.GetFloat64("spike_factor_min"),
		SpikeFactorMax: v.GetFloat64("spike_factor_max"),
		DropFactorMin:  v.GetFloat64("drop_factor_min"),
		DropFactorMax:  v.GetFloat64("drop_factor_max"),

		FeedEnabled:         v.GetBool("feed_enabled"),
		FeedIntervalSeconds: v.GetInt("feed_interval_seconds"),
		FeedCellIDs:         v.GetStringSlice("feed_cell_ids"),
		FeedProfiles:        v.GetStringSlice("feed_profiles"),
		FeedAnomalyRate:     v.GetFloat64("feed_anomaly_rate"),

		IngestWorkerCount:       v.GetInt("ingest_workers"),
		MeasurementBufferSize:   v.GetInt("measurement_buffer"),
		MeasurementRetainPoints: v.GetInt("measurement_retain_points"),
	}
}

// LogConfig prints the effective configuration with secrets redacted.
func LogConfig(ctx context.Context, logger *Logger, cfg Config) {
	logger.Printf(ctx, "HTTP_PORT=%s", cfg.HTTPPort)
	logger.Printf(ctx, "METRICS_PORT=%s", cfg.MetricsPort)
	if cfg.DatabaseDSN != "" {
		logger.Printf(ctx, "DB_DSN set (length %d)", len(cfg.DatabaseDSN))
	} else {
		logger.Println(ctx, "DB_DSN not provided")
	}
	logger.Printf(ctx, "DB_HOST=%s", emptyFallback(cfg.DatabaseHost, "(not set)"))
	logger.Printf(ctx, "DB_NAME=%s", emptyFallback(cfg.DatabaseName, "(not set)"))
	if cfg.DatabasePassword != "" {
		logger.Println(ctx, "DB_PASSWORD set (redacted)")
	}
	logger.Printf(ctx, "ZSCORE_THRESHOLD=%.2f", cfg.ZScoreThreshold)
	logger.Printf(ctx, "ROLLING_WINDOW_SIZE=%d", cfg.RollingWindowSize)
	logger.Printf(ctx, "ROLLING_MULTIPLIER=%.2f", cfg.RollingMultiplier)
	logger.Printf(ctx, "ISOLATION_CONTAMINATION=%.3f", cfg.IsolationContam)
	logger.Printf(ctx, "DROP_THRESHOLD_PCT=%.1f", cfg.DropThresholdPct)
	logger.Printf(ctx, "INSTABILITY_WINDOW_SECONDS=%d", cfg.InstabilityWindowSecs)
	logger.Printf(ctx, "DETECTION_WORKERS=%d", cfg.DetectionWorkers)
	logger.Printf(ctx, "GENERATOR_SEED=%d", cfg.GeneratorSeed)
	logger.Printf(ctx, "FEED_ENABLED=%t", cfg.FeedEnabled)
	if cfg.FeedEnabled {
		logger.Printf(ctx, "FEED_INTERVAL_SECONDS=%d", cfg.FeedIntervalSeconds)
		logger.Printf(ctx, "FEED_CELL_IDS=%s", strings.Join(cfg.FeedCellIDs, ","))
		logger.Printf(ctx, "FEED_PROFILES=%s", strings.Join(cfg.FeedProfiles, ","))
		logger.Printf(ctx, "FEED_ANOMALY_RATE=%.3f", cfg.FeedAnomalyRate)
	}
	logger.Printf(ctx, "INGEST_WORKERS=%d", cfg.IngestWorkerCount)
	logger.Printf(ctx, "MEASUREMENT_BUFFER=%d", cfg.MeasurementBufferSize)
	logger.Printf(ctx, "MEASUREMENT_RETAIN_POINTS=%d", cfg.MeasurementRetainPoints)
}

func emptyFallback(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
