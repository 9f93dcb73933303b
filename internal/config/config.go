package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Google      GoogleConfig      `yaml:"google" mapstructure:"google"`
	Directory   DirectoryConfig   `yaml:"directory" mapstructure:"directory"`
	Web         WebConfig         `yaml:"web" mapstructure:"web"`
	Spreadsheet SpreadsheetConfig `yaml:"spreadsheet" mapstructure:"spreadsheet"`
	Crawl       CrawlConfig       `yaml:"crawl" mapstructure:"crawl"`
	Retry       RetryConfig       `yaml:"retry" mapstructure:"retry"`
}

// StoreConfig configures the catalog backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the operator API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// GoogleConfig holds Google Places API settings.
type GoogleConfig struct {
	Key        string `yaml:"key" mapstructure:"key"`
	BaseURL    string `yaml:"base_url" mapstructure:"base_url"`
	MaxResults int    `yaml:"max_results" mapstructure:"max_results"`
}

// DirectoryConfig configures the third-party wedding directory adapter.
type DirectoryConfig struct {
	BaseURL   string            `yaml:"base_url" mapstructure:"base_url"`
	UserAgent string            `yaml:"user_agent" mapstructure:"user_agent"`
	Selectors DirectorySelector `yaml:"selectors" mapstructure:"selectors"`
}

// DirectorySelector holds the CSS selectors used to read vendor cards.
type DirectorySelector struct {
	Card    string `yaml:"card" mapstructure:"card"`
	Name    string `yaml:"name" mapstructure:"name"`
	Link    string `yaml:"link" mapstructure:"link"`
	Address string `yaml:"address" mapstructure:"address"`
	Rating  string `yaml:"rating" mapstructure:"rating"`
	Reviews string `yaml:"reviews" mapstructure:"reviews"`
	Image   string `yaml:"image" mapstructure:"image"`
}

// WebConfig configures the generic website adapter.
type WebConfig struct {
	SeedURLs []string `yaml:"seed_urls" mapstructure:"seed_urls"`
}

// SpreadsheetConfig configures the spreadsheet import adapter.
type SpreadsheetConfig struct {
	Path  string `yaml:"path" mapstructure:"path"`
	Sheet string `yaml:"sheet" mapstructure:"sheet"`
}

// CrawlConfig configures pacing and default scope of a crawl run.
type CrawlConfig struct {
	// Delays below 200ms per record and 1000ms per sub-query are raised to
	// those values.
	ItemDelayMs    int    `yaml:"item_delay_ms" mapstructure:"item_delay_ms"`
	BatchDelayMs   int    `yaml:"batch_delay_ms" mapstructure:"batch_delay_ms"`
	TimeoutSecs    int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	DefaultSource  string `yaml:"default_source" mapstructure:"default_source"`
	DefaultRegion  string `yaml:"default_region" mapstructure:"default_region"`
	DefaultCity    string `yaml:"default_city" mapstructure:"default_city"`
	DefaultMax     int    `yaml:"default_max" mapstructure:"default_max"`
	DictionaryPath string `yaml:"dictionary_path" mapstructure:"dictionary_path"`
}

// RetryConfig configures retries of transient fetch failures.
type RetryConfig struct {
	MaxAttempts    int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoff int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoff     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// Load reads configuration from an optional .env file, config file, and environment.
func Load() (*Config, error) {
	// Missing .env is fine; values may come from the real environment.
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("VENDOR_CRAWLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.database_url", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("google.key", "")
	v.SetDefault("google.base_url", "https://places.googleapis.com/v1")
	v.SetDefault("google.max_results", 20)
	v.SetDefault("directory.base_url", "")
	v.SetDefault("directory.user_agent", "vendor-crawler/1.0")
	v.SetDefault("directory.selectors.card", ".vendor-card")
	v.SetDefault("directory.selectors.name", ".vendor-name")
	v.SetDefault("directory.selectors.link", "a")
	v.SetDefault("directory.selectors.address", ".vendor-location")
	v.SetDefault("directory.selectors.rating", ".vendor-rating")
	v.SetDefault("directory.selectors.reviews", ".vendor-reviews")
	v.SetDefault("directory.selectors.image", "img")
	v.SetDefault("web.seed_urls", []string{})
	v.SetDefault("spreadsheet.path", "")
	v.SetDefault("spreadsheet.sheet", "")
	v.SetDefault("crawl.item_delay_ms", 200)
	v.SetDefault("crawl.batch_delay_ms", 1000)
	v.SetDefault("crawl.timeout_secs", 30)
	v.SetDefault("crawl.default_source", "google-places")
	v.SetDefault("crawl.default_region", "IN")
	v.SetDefault("crawl.default_city", "Mumbai")
	v.SetDefault("crawl.default_max", 20)
	v.SetDefault("crawl.dictionary_path", "")
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("retry.max_backoff_ms", 5000)

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

// Validate checks that the keys required by a command are set.
// Supported sections: "store", "server".
func (c *Config) Validate(section string) error {
	switch section {
	case "store":
		switch c.Store.Driver {
		case "postgres":
			if c.Store.DatabaseURL == "" {
				return eris.New("config: store.database_url is required for the postgres driver")
			}
		case "sqlite":
			if c.Store.DatabaseURL == "" {
				return eris.New("config: store.database_url must name the sqlite file")
			}
		default:
			return eris.Errorf("config: unknown store driver %q", c.Store.Driver)
		}
	case "server":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			return eris.Errorf("config: invalid server.port %d", c.Server.Port)
		}
	default:
		return eris.Errorf("config: unknown section %q", section)
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
