package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Search SearchConfig `yaml:"search" mapstructure:"search"`
	AI     AIConfig     `yaml:"ai" mapstructure:"ai"`
	Verify VerifyConfig `yaml:"verify" mapstructure:"verify"`
	Batch  BatchConfig  `yaml:"batch" mapstructure:"batch"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// SearchConfig configures the metasearch gateway. Instances are tried in
// order; the first entry is the primary.
type SearchConfig struct {
	Instances   []string      `yaml:"instances" mapstructure:"instances"`
	Engines     []string      `yaml:"engines" mapstructure:"engines"`
	Language    string        `yaml:"language" mapstructure:"language"`
	SafeSearch  int           `yaml:"safesearch" mapstructure:"safesearch"`
	TimeRange   string        `yaml:"time_range" mapstructure:"time_range"`
	Limit       int           `yaml:"limit" mapstructure:"limit"`
	TimeoutSecs int           `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxParallel int           `yaml:"max_parallel" mapstructure:"max_parallel"`
	UserAgent   string        `yaml:"user_agent" mapstructure:"user_agent"`
	Breaker     BreakerConfig `yaml:"breaker" mapstructure:"breaker"`
}

// BreakerConfig configures the per-instance circuit breaker.
type BreakerConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// AIConfig configures the reasoning backend used for disambiguation.
type AIConfig struct {
	Provider       string  `yaml:"provider" mapstructure:"provider"`
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	Key            string  `yaml:"key" mapstructure:"key"`
	Model          string  `yaml:"model" mapstructure:"model"`
	AnthropicKey   string  `yaml:"anthropic_key" mapstructure:"anthropic_key"`
	AnthropicModel string  `yaml:"anthropic_model" mapstructure:"anthropic_model"`
	Temperature    float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens      int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	MaxAttempts    int     `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// VerifyConfig configures the domain reachability probe.
type VerifyConfig struct {
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
}

// BatchConfig configures background batch jobs.
type BatchConfig struct {
	MaxConcurrentJobs int `yaml:"max_concurrent_jobs" mapstructure:"max_concurrent_jobs"`
	JobTTLHours       int `yaml:"job_ttl_hours" mapstructure:"job_ttl_hours"`
	MaxUploadMB       int `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
}

// StoreConfig configures the optional file-backed job store. An empty path
// keeps jobs in memory only.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Provider names accepted by ai.provider.
const (
	ProviderOpenRouter = "openrouter"
	ProviderAnthropic  = "anthropic"
)

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("DOMAIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("search.instances", []string{"https://searx.be", "https://searx.org", "https://searx.space"})
	v.SetDefault("search.engines", []string{"google", "bing", "duckduckgo"})
	v.SetDefault("search.language", "en")
	v.SetDefault("search.safesearch", 0)
	v.SetDefault("search.time_range", "")
	v.SetDefault("search.limit", 10)
	v.SetDefault("search.timeout_secs", 15)
	v.SetDefault("search.max_parallel", 6)
	v.SetDefault("search.user_agent", "Domain-Enrichment-Tool/1.0")
	v.SetDefault("search.breaker.failure_threshold", 5)
	v.SetDefault("search.breaker.reset_timeout_secs", 60)
	v.SetDefault("ai.provider", ProviderOpenRouter)
	v.SetDefault("ai.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("ai.model", "moonshotai/kimi-k2")
	v.SetDefault("ai.anthropic_model", "claude-haiku-4-5-20251001")
	v.SetDefault("ai.temperature", 0.1)
	v.SetDefault("ai.max_tokens", 500)
	v.SetDefault("ai.timeout_secs", 30)
	v.SetDefault("ai.rate_limit_rps", 2.0)
	v.SetDefault("ai.max_attempts", 2)
	v.SetDefault("verify.timeout_secs", 10)
	v.SetDefault("verify.user_agent", "Mozilla/5.0 (compatible; DomainBot/1.0)")
	v.SetDefault("batch.max_concurrent_jobs", 4)
	v.SetDefault("batch.job_ttl_hours", 24)
	v.SetDefault("batch.max_upload_mb", 10)
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validate checks that the settings required by the given mode are present.
// Modes: "lookup" (single and detailed lookups), "batch", "serve".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "lookup", "batch", "serve":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(c.Search.Instances) == 0 {
		errs = append(errs, "search.instances must list at least one instance")
	}
	if c.Search.Limit <= 0 {
		errs = append(errs, "search.limit must be > 0")
	}

	switch c.AI.Provider {
	case ProviderOpenRouter:
		if c.AI.Key == "" {
			errs = append(errs, "ai.key is required for provider openrouter")
		}
	case ProviderAnthropic:
		if c.AI.AnthropicKey == "" {
			errs = append(errs, "ai.anthropic_key is required for provider anthropic")
		}
	default:
		errs = append(errs, "ai.provider must be openrouter or anthropic")
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		errs = append(errs, "ai.temperature must be between 0 and 2")
	}

	if mode == "batch" || mode == "serve" {
		if c.Batch.MaxConcurrentJobs < 1 || c.Batch.MaxConcurrentJobs > 64 {
			errs = append(errs, "batch.max_concurrent_jobs must be between 1 and 64")
		}
	}
	if mode == "serve" && c.Server.Port <= 0 {
		errs = append(errs, "server.port must be > 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
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
