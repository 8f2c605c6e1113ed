// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Crawler CrawlerConfig `mapstructure:"crawler"`
	Render  RenderConfig  `mapstructure:"render"`
	Sink    SinkConfig    `mapstructure:"sink"`
	Storage StorageConfig `mapstructure:"storage"`
	Store   StoreConfig   `mapstructure:"store"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// CrawlerConfig governs the crawl engine.
type CrawlerConfig struct {
	SeedURL     string `mapstructure:"seed_url"`
	Mode        string `mapstructure:"mode"`
	BatchSize   int    `mapstructure:"batch_size"`
	PageBudget  int    `mapstructure:"page_budget"`
	PDFStrategy string `mapstructure:"pdf_strategy"`
	UserAgent   string `mapstructure:"user_agent"`
}

// RenderConfig configures the headless renderer.
type RenderConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	DomainQPS float64       `mapstructure:"domain_qps"`
}

// SinkConfig selects and configures the document sink.
type SinkConfig struct {
	Provider  string `mapstructure:"provider"`
	OutputDir string `mapstructure:"output_dir"`
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
}

// StorageConfig selects the blob store for downloaded PDFs.
type StorageConfig struct {
	Provider string `mapstructure:"provider"`
	BaseDir  string `mapstructure:"base_dir"`
	Bucket   string `mapstructure:"bucket"`
}

// StoreConfig selects the run record store.
type StoreConfig struct {
	Provider  string `mapstructure:"provider"`
	DSN       string `mapstructure:"dsn"`
	PageTable string `mapstructure:"page_table"`
	RunTable  string `mapstructure:"run_table"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from an optional file plus the environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("WEBHARVEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("crawler.mode", "single")
	v.SetDefault("crawler.batch_size", 16)
	v.SetDefault("crawler.page_budget", 1000)
	v.SetDefault("crawler.pdf_strategy", "render")
	v.SetDefault("crawler.user_agent", "webharvest/1.0 (+https://github.com/geodocs/webharvest)")
	v.SetDefault("render.timeout", 45*time.Second)
	v.SetDefault("render.domain_qps", 0.0)
	v.SetDefault("sink.provider", "fs")
	v.SetDefault("sink.output_dir", "batches")
	v.SetDefault("storage.provider", "local")
	v.SetDefault("storage.base_dir", "blobs")
	v.SetDefault("store.provider", "memory")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Crawler.SeedURL) == "" {
		return fmt.Errorf("crawler.seed_url must be set")
	}
	if c.Crawler.Mode != "single" {
		return fmt.Errorf("crawler.mode must be 'single', got %q", c.Crawler.Mode)
	}
	if c.Crawler.BatchSize <= 0 {
		return fmt.Errorf("crawler.batch_size must be > 0")
	}
	if c.Crawler.PageBudget <= 0 {
		return fmt.Errorf("crawler.page_budget must be > 0")
	}
	switch c.Crawler.PDFStrategy {
	case "render", "download":
	default:
		return fmt.Errorf("crawler.pdf_strategy must be 'render' or 'download', got %q", c.Crawler.PDFStrategy)
	}
	if c.Render.Timeout <= 0 {
		return fmt.Errorf("render.timeout must be > 0")
	}
	if c.Render.DomainQPS < 0 {
		return fmt.Errorf("render.domain_qps must be >= 0")
	}
	switch c.Sink.Provider {
	case "fs":
		if c.Sink.OutputDir == "" {
			return fmt.Errorf("sink.output_dir must be set for the fs sink")
		}
	case "pubsub":
		if c.Sink.ProjectID == "" || c.Sink.TopicID == "" {
			return fmt.Errorf("sink.project_id and sink.topic_id must be set for the pubsub sink")
		}
	default:
		return fmt.Errorf("unknown sink provider %q", c.Sink.Provider)
	}
	switch c.Storage.Provider {
	case "local":
		if c.Crawler.PDFStrategy == "download" && c.Storage.BaseDir == "" {
			return fmt.Errorf("storage.base_dir must be set for the local blob store")
		}
	case "gcs":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket must be set for the gcs blob store")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown storage provider %q", c.Storage.Provider)
	}
	switch c.Store.Provider {
	case "memory":
	case "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn must be set for the postgres run store")
		}
	default:
		return fmt.Errorf("unknown store provider %q", c.Store.Provider)
	}
	return nil
}
