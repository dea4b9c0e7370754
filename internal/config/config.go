package config

import (
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "CALLTRACE"

const defaultDrainTimeout = 5 * time.Second

// Config holds all calltrace configuration.
type Config struct {
	Logging LoggingConfig
	Sink    SinkConfig
	Metrics MetricsConfig
}

// LoggingConfig controls diagnostics written to stderr.
type LoggingConfig struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "text" or "json"
}

// SinkConfig controls the call line writer.
type SinkConfig struct {
	DrainTimeout time.Duration // max time Close waits for pending lines
}

// MetricsConfig controls the optional Prometheus metrics.
type MetricsConfig struct {
	Enabled   bool
	Namespace string
	Addr      string // listen address for /metrics; empty disables the server
}

// Load reads configuration from CALLTRACE_* environment variables with
// sensible defaults.
func Load() Config {
	return FromViper(New())
}

// FromViper builds a Config from v, which New has prepared.
func FromViper(v *viper.Viper) Config {
	drain := v.GetDuration("drain_timeout")
	if drain <= 0 {
		drain = defaultDrainTimeout
	}
	return Config{
		Logging: LoggingConfig{
			Level:  v.GetString("log_level"),
			Format: v.GetString("log_format"),
		},
		Sink: SinkConfig{
			DrainTimeout: drain,
		},
		Metrics: MetricsConfig{
			Enabled:   v.GetBool("metrics"),
			Namespace: v.GetString("metrics_namespace"),
			Addr:      v.GetString("metrics_addr"),
		},
	}
}

// New returns a viper instance bound to the environment with every key's
// default set. Commands bind their flags to it so flags override env.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("drain_timeout", defaultDrainTimeout)
	v.SetDefault("metrics", false)
	v.SetDefault("metrics_namespace", "calltrace")
	v.SetDefault("metrics_addr", "")
	return v
}
