// Package config loads the company-level configuration of spec.md §6
// before orchestrator start. It keeps the teacher's environment-first
// loading shape but backs it with spf13/viper for layered precedence
// (explicit overrides > environment > .env file > default), the way
// elchinoo-stormdb and DimaJoyti-go-coffee configure their services.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the replenishment engine's process-wide, read-mostly
// settings (spec.md §5 "Shared resources", §6 "Configuration").
type Config struct {
	AppEnv    string
	LogLevel  string
	LogFormat string

	DatabaseURL                string
	DatabaseMaxConnections     int
	DatabaseMaxIdleConnections int
	DatabaseConnectionLifetime time.Duration
	RunMigrations              bool

	NATSURL string

	// Company-level replenishment parameters (spec.md §6 table).
	DefaultServiceLevel           float64
	DefaultLeadTimeDays           float64
	DefaultLeadTimeVariancePct    float64
	ForecastingPeriodicityDefault int
	BasicAlphaFactor              float64
	ForecastDemandLimit           float64
	UpdateFrequencyImpact         float64
	TrackingSignalLimit           float64
	DemandFilterHigh              float64
	DemandFilterLow                float64
	MADPHighThreshold              float64
	SlowMoverLimit                  float64
	OPPrimeLimit                    float64
	CarryingCostRate                float64
	KeepArchivedExceptionsDays      int
	HistoryPeriodsToKeep            int
	MaxWorkers                      int
	OrderDueAtRiskThresholdPct       float64
	EmpiricalAdjustMaxPct            float64
	MaxStoreWritesPerSecond          float64

	RunTimeout time.Duration
}

// Load reads configuration from an optional .env file followed by the
// process environment, validates required keys, and returns a Config.
func Load() (*Config, error) {
	_ = godotenv.Load() // optional; absence is not an error

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	cfg := &Config{
		AppEnv:    v.GetString("app_env"),
		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),

		DatabaseURL:                v.GetString("database_url"),
		DatabaseMaxConnections:     v.GetInt("database_max_connections"),
		DatabaseMaxIdleConnections: v.GetInt("database_max_idle_connections"),
		DatabaseConnectionLifetime: v.GetDuration("database_connection_lifetime"),
		RunMigrations:              v.GetBool("run_migrations"),

		NATSURL: v.GetString("nats_url"),

		DefaultServiceLevel:           v.GetFloat64("default_service_level"),
		DefaultLeadTimeDays:           v.GetFloat64("default_lead_time"),
		DefaultLeadTimeVariancePct:    v.GetFloat64("default_lead_time_variance"),
		ForecastingPeriodicityDefault: v.GetInt("forecasting_periodicity_default"),
		BasicAlphaFactor:              v.GetFloat64("basic_alpha_factor"),
		ForecastDemandLimit:           v.GetFloat64("forecast_demand_limit"),
		UpdateFrequencyImpact:         v.GetFloat64("update_frequency_impact"),
		TrackingSignalLimit:           v.GetFloat64("tracking_signal_limit"),
		DemandFilterHigh:              v.GetFloat64("demand_filter_high"),
		DemandFilterLow:               v.GetFloat64("demand_filter_low"),
		MADPHighThreshold:             v.GetFloat64("madp_high_threshold"),
		SlowMoverLimit:                v.GetFloat64("slow_mover_limit"),
		OPPrimeLimit:                  v.GetFloat64("op_prime_limit"),
		CarryingCostRate:              v.GetFloat64("carrying_cost_rate"),
		KeepArchivedExceptionsDays:    v.GetInt("keep_archived_exceptions_days"),
		HistoryPeriodsToKeep:          v.GetInt("history_periods_to_keep"),
		MaxWorkers:                    v.GetInt("max_workers"),
		OrderDueAtRiskThresholdPct:    v.GetFloat64("order_due_at_risk_threshold_pct"),
		EmpiricalAdjustMaxPct:         v.GetFloat64("empirical_adjust_max_pct"),
		MaxStoreWritesPerSecond:       v.GetFloat64("max_store_writes_per_second"),

		RunTimeout: v.GetDuration("run_timeout"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")

	v.SetDefault("database_max_connections", 25)
	v.SetDefault("database_max_idle_connections", 5)
	v.SetDefault("database_connection_lifetime", 5*time.Minute)
	v.SetDefault("run_migrations", false)

	v.SetDefault("nats_url", "nats://localhost:4222")

	v.SetDefault("default_service_level", 95.0)
	v.SetDefault("default_lead_time", 14.0)
	v.SetDefault("default_lead_time_variance", 25.0)
	v.SetDefault("forecasting_periodicity_default", 13)
	v.SetDefault("basic_alpha_factor", 10.0)
	v.SetDefault("forecast_demand_limit", 1.0)
	v.SetDefault("update_frequency_impact", 2.0)
	v.SetDefault("tracking_signal_limit", 55.0)
	v.SetDefault("demand_filter_high", 3.0)
	v.SetDefault("demand_filter_low", 3.0)
	v.SetDefault("madp_high_threshold", 60.0)
	v.SetDefault("slow_mover_limit", 12.0)
	v.SetDefault("op_prime_limit", 90.0)
	v.SetDefault("carrying_cost_rate", 0.25)
	v.SetDefault("keep_archived_exceptions_days", 90)
	v.SetDefault("history_periods_to_keep", 156) // ~3 years at periodicity 52
	v.SetDefault("max_workers", 4)
	v.SetDefault("order_due_at_risk_threshold_pct", 20.0)
	v.SetDefault("empirical_adjust_max_pct", 10.0)
	v.SetDefault("max_store_writes_per_second", 0.0) // 0 disables throttling

	v.SetDefault("run_timeout", 60*time.Minute)
}

// Validate checks the settings the orchestrator cannot safely run
// without (spec.md §7 "Fatal: missing company settings").
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config: DATABASE_URL is required")
	}
	if c.MaxWorkers <= 0 {
		return fmt.Errorf("config: max_workers must be positive")
	}
	switch c.ForecastingPeriodicityDefault {
	case 12, 13, 52:
	default:
		return fmt.Errorf("config: forecasting_periodicity_default must be 12, 13, or 52")
	}
	return nil
}
