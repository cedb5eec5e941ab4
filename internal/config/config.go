package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	YouCom    YouComConfig    `yaml:"youcom" mapstructure:"youcom"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Registry  RegistryConfig  `yaml:"registry" mapstructure:"registry"`
	Research  ResearchConfig  `yaml:"research" mapstructure:"research"`
	News      NewsConfig      `yaml:"news" mapstructure:"news"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the research store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// YouComConfig holds You.com Search and Live News API settings.
type YouComConfig struct {
	Key           string  `yaml:"key" mapstructure:"key"`
	SearchBaseURL string  `yaml:"search_base_url" mapstructure:"search_base_url"`
	NewsBaseURL   string  `yaml:"news_base_url" mapstructure:"news_base_url"`
	RatePerSec    float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	TimeoutSecs   int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// Timeout returns the per-request timeout as a duration.
func (y YouComConfig) Timeout() time.Duration {
	return time.Duration(y.TimeoutSecs) * time.Second
}

// AnthropicConfig holds Anthropic API settings for metric extraction.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// RegistryConfig points at an optional dimension rubric override.
type RegistryConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ResearchConfig configures run orchestration.
type ResearchConfig struct {
	DeadlineSecs     int `yaml:"deadline_secs" mapstructure:"deadline_secs"`
	Year             int `yaml:"year" mapstructure:"year"`
	QueryRetries     int `yaml:"query_retries" mapstructure:"query_retries"`
	ResultsPerQuery  int `yaml:"results_per_query" mapstructure:"results_per_query"`
	QueriesPerMetric int `yaml:"queries_per_metric" mapstructure:"queries_per_metric"`
}

// Deadline returns the per-run deadline as a duration.
func (r ResearchConfig) Deadline() time.Duration {
	return time.Duration(r.DeadlineSecs) * time.Second
}

// NewsConfig configures the auxiliary live-news feed and its cache.
type NewsConfig struct {
	TTLSecs    int `yaml:"ttl_secs" mapstructure:"ttl_secs"`
	MaxEntries int `yaml:"max_entries" mapstructure:"max_entries"`
	ItemCount  int `yaml:"item_count" mapstructure:"item_count"`
}

// TTL returns the cache freshness window as a duration.
func (n NewsConfig) TTL() time.Duration {
	return time.Duration(n.TTLSecs) * time.Second
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Validate checks that the configuration required for a command mode is
// present. Modes: "assess" needs the research providers, "serve" also
// needs a valid port, "store" only needs the persistence settings.
func (c *Config) Validate(mode string) error {
	var missing []string

	checkStore := func() error {
		switch c.Store.Driver {
		case "sqlite":
			if c.Store.Path == "" {
				missing = append(missing, "NAAF_STORE_PATH")
			}
		case "postgres":
			if c.Store.DatabaseURL == "" {
				missing = append(missing, "NAAF_STORE_DATABASE_URL")
			}
		default:
			return eris.Errorf("config: unknown store driver %q", c.Store.Driver)
		}
		return nil
	}

	switch mode {
	case "assess", "serve":
		if c.YouCom.Key == "" {
			missing = append(missing, "NAAF_YOUCOM_KEY")
		}
		if c.Anthropic.Key == "" {
			missing = append(missing, "NAAF_ANTHROPIC_KEY")
		}
		if err := checkStore(); err != nil {
			return err
		}
		if mode == "serve" && (c.Server.Port <= 0 || c.Server.Port > 65535) {
			return eris.Errorf("config: invalid server port %d", c.Server.Port)
		}
	case "news":
		if c.YouCom.Key == "" {
			missing = append(missing, "NAAF_YOUCOM_KEY")
		}
	case "store":
		if err := checkStore(); err != nil {
			return err
		}
	default:
		return eris.Errorf("config: unknown validation mode %q", mode)
	}

	if len(missing) > 0 {
		return eris.Errorf("config: missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("NAAF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "naaf.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("youcom.search_base_url", "https://api.ydc-index.io")
	v.SetDefault("youcom.news_base_url", "https://api.ydc-index.io")
	v.SetDefault("youcom.rate_per_sec", 5)
	v.SetDefault("youcom.timeout_secs", 15)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("research.deadline_secs", 300)
	v.SetDefault("research.year", 2024)
	v.SetDefault("research.query_retries", 3)
	v.SetDefault("research.results_per_query", 8)
	v.SetDefault("research.queries_per_metric", 2)
	v.SetDefault("news.ttl_secs", 600)
	v.SetDefault("news.max_entries", 256)
	v.SetDefault("news.item_count", 5)

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
