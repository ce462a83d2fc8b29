// Package config loads sheet-doctor settings from config.yaml and
// SHEETDOCTOR_* environment variables, and sets up the global logger.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/sheet-doctor/internal/loader"
)

// Config holds the full application configuration.
type Config struct {
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
	Limits LimitsConfig `yaml:"limits" mapstructure:"limits"`
	Heal   HealConfig   `yaml:"heal" mapstructure:"heal"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Export ExportConfig `yaml:"export" mapstructure:"export"`
	Fetch  FetchConfig  `yaml:"fetch" mapstructure:"fetch"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// LimitsConfig holds the loader guardrails and the post-pass row cap.
type LimitsConfig struct {
	WarningBytes   int64 `yaml:"warning_bytes" mapstructure:"warning_bytes"`
	DegradedBytes  int64 `yaml:"degraded_bytes" mapstructure:"degraded_bytes"`
	HardLimitBytes int64 `yaml:"hard_limit_bytes" mapstructure:"hard_limit_bytes"`
	WarningRows    int   `yaml:"warning_rows" mapstructure:"warning_rows"`
	DegradedRows   int   `yaml:"degraded_rows" mapstructure:"degraded_rows"`
	HardLimitRows  int   `yaml:"hard_limit_rows" mapstructure:"hard_limit_rows"`
	SkipExtrasRows int   `yaml:"skip_extras_rows" mapstructure:"skip_extras_rows"`
}

// Loader converts the byte and row thresholds for the loader.
func (l LimitsConfig) Loader() loader.Limits {
	return loader.Limits{
		WarningBytes:  l.WarningBytes,
		DegradedBytes: l.DegradedBytes,
		HardBytes:     l.HardLimitBytes,
		WarningRows:   l.WarningRows,
		DegradedRows:  l.DegradedRows,
		HardRows:      l.HardLimitRows,
	}
}

// HealConfig configures healing runs.
type HealConfig struct {
	PreviewRows int      `yaml:"preview_rows" mapstructure:"preview_rows"`
	Concurrency int      `yaml:"concurrency" mapstructure:"concurrency"`
	OutputDir   string   `yaml:"output_dir" mapstructure:"output_dir"`
	Formats     []string `yaml:"formats" mapstructure:"formats"`
}

// StoreConfig configures the run history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ExportConfig configures the Postgres result export.
type ExportConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Schema      string `yaml:"schema" mapstructure:"schema"`
}

// FetchConfig configures remote input downloads.
type FetchConfig struct {
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
}

// Timeout is TimeoutSecs as a duration.
func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSecs) * time.Second
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	MaxUploadMB    int      `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SHEETDOCTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	d := loader.DefaultLimits()
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("limits.warning_bytes", d.WarningBytes)
	v.SetDefault("limits.degraded_bytes", d.DegradedBytes)
	v.SetDefault("limits.hard_limit_bytes", d.HardBytes)
	v.SetDefault("limits.warning_rows", d.WarningRows)
	v.SetDefault("limits.degraded_rows", d.DegradedRows)
	v.SetDefault("limits.hard_limit_rows", d.HardRows)
	v.SetDefault("limits.skip_extras_rows", 10_000)
	v.SetDefault("heal.preview_rows", 1000)
	v.SetDefault("heal.concurrency", 4)
	v.SetDefault("heal.output_dir", ".")
	v.SetDefault("heal.formats", []string{"csv", "xlsx", "json"})
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "sheet-doctor.db")
	v.SetDefault("export.database_url", "")
	v.SetDefault("export.schema", "public")
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.user_agent", "sheet-doctor/1.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_upload_mb", 64)
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command needs. Mode is one of "heal",
// "inspect", "export" or "serve".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "heal", "inspect":
	case "export":
		if c.Export.DatabaseURL == "" {
			errs = append(errs, "export.database_url is required")
		}
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		if c.Server.MaxUploadMB <= 0 {
			errs = append(errs, "server.max_upload_mb must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	errs = append(errs, c.Limits.validate()...)
	if c.Heal.Concurrency < 1 || c.Heal.Concurrency > 64 {
		errs = append(errs, "heal.concurrency must be between 1 and 64")
	}
	if c.Heal.PreviewRows < 1 {
		errs = append(errs, "heal.preview_rows must be > 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (l LimitsConfig) validate() []string {
	var errs []string
	positive := []struct {
		name  string
		value int64
	}{
		{"warning_bytes", l.WarningBytes},
		{"degraded_bytes", l.DegradedBytes},
		{"hard_limit_bytes", l.HardLimitBytes},
		{"warning_rows", int64(l.WarningRows)},
		{"degraded_rows", int64(l.DegradedRows)},
		{"hard_limit_rows", int64(l.HardLimitRows)},
		{"skip_extras_rows", int64(l.SkipExtrasRows)},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errs = append(errs, fmt.Sprintf("limits.%s must be > 0", p.name))
		}
	}
	if len(errs) > 0 {
		return errs
	}
	if l.WarningBytes > l.DegradedBytes || l.DegradedBytes > l.HardLimitBytes {
		errs = append(errs, "limits byte thresholds must satisfy warning <= degraded <= hard")
	}
	if l.WarningRows > l.DegradedRows || l.DegradedRows > l.HardLimitRows {
		errs = append(errs, "limits row thresholds must satisfy warning <= degraded <= hard")
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
