// Package config loads application configuration from a YAML file and
// ADSCOPE_-prefixed environment variables, and owns global logger setup.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/crossrank/adscope-cli/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Anthropic   AnthropicConfig   `yaml:"anthropic" mapstructure:"anthropic"`
	SerpMetrics SerpMetricsConfig `yaml:"serpmetrics" mapstructure:"serpmetrics"`
	PageFetch   PageFetchConfig   `yaml:"pagefetch" mapstructure:"pagefetch"`
	Research    ResearchConfig    `yaml:"research" mapstructure:"research"`
	Gateway     GatewayConfig     `yaml:"gateway" mapstructure:"gateway"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Skills      SkillsConfig      `yaml:"skills" mapstructure:"skills"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string            `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string            `yaml:"database_url" mapstructure:"database_url"`
	Pool        *store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// AnthropicConfig holds Anthropic API settings. Specialists run on the
// default model; the director can be pinned to a stronger one.
type AnthropicConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	Model         string `yaml:"model" mapstructure:"model"`
	DirectorModel string `yaml:"director_model" mapstructure:"director_model"`
}

// SerpMetricsConfig holds the competitive keyword metrics provider settings.
type SerpMetricsConfig struct {
	Key     string  `yaml:"key" mapstructure:"key"`
	BaseURL string  `yaml:"base_url" mapstructure:"base_url"`
	RPS     float64 `yaml:"rps" mapstructure:"rps"`
}

// PageFetchConfig holds the page content reader settings.
type PageFetchConfig struct {
	Key     string  `yaml:"key" mapstructure:"key"`
	BaseURL string  `yaml:"base_url" mapstructure:"base_url"`
	RPS     float64 `yaml:"rps" mapstructure:"rps"`
}

// ResearchConfig configures the enrichment phase.
type ResearchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// GatewayConfig configures AI gateway retry behavior.
type GatewayConfig struct {
	MaxAttempts   int `yaml:"max_attempts" mapstructure:"max_attempts"`
	BaseDelaySecs int `yaml:"base_delay_secs" mapstructure:"base_delay_secs"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// SkillsConfig points at an optional YAML overlay that tunes the built-in
// skill bundles.
type SkillsConfig struct {
	OverlayPath string `yaml:"overlay_path" mapstructure:"overlay_path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment. AutomaticEnv only covers keys viper already knows about,
	// so every key is bound explicitly; otherwise keys without defaults
	// (the API keys in particular) are invisible to ADSCOPE_* overrides.
	v.SetEnvPrefix("ADSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{
		"store.driver", "store.database_url",
		"store.pool.max_conns", "store.pool.min_conns",
		"anthropic.key", "anthropic.model", "anthropic.director_model",
		"serpmetrics.key", "serpmetrics.base_url", "serpmetrics.rps",
		"pagefetch.key", "pagefetch.base_url", "pagefetch.rps",
		"research.concurrency",
		"gateway.max_attempts", "gateway.base_delay_secs",
		"server.port",
		"skills.overlay_path",
		"log.level", "log.format",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", key)
		}
	}

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "adscope.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.director_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("serpmetrics.base_url", "https://api.serpmetrics.io")
	v.SetDefault("serpmetrics.rps", 5.0)
	v.SetDefault("pagefetch.base_url", "https://reader.crossrank.io")
	v.SetDefault("pagefetch.rps", 2.0)
	v.SetDefault("research.concurrency", 4)
	v.SetDefault("gateway.max_attempts", 3)
	v.SetDefault("gateway.base_delay_secs", 1)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
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
