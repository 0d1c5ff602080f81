// Package config loads run configuration from an optional YAML file and
// environment variables. Environment values win over file values, and
// every value is validated before a run starts.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Validation errors.
var (
	ErrMissingURL         = errors.New("target URL is required")
	ErrInvalidURL         = errors.New("target URL must be an absolute http(s) URL")
	ErrInvalidMaxArticles = errors.New("max_articles must be a positive integer")
	ErrMissingAPIKey      = errors.New("OPENAI_API_KEY is required when AI resolution is enabled")
	ErrMissingModelID     = errors.New("model id is required when AI resolution is enabled")
)

// Defaults applied when neither file nor environment set a value.
const (
	DefaultURL          = "https://www.yogonet.com/international/"
	DefaultMaxArticles  = 10
	DefaultModelID      = "gpt-4-turbo"
	DefaultFetchTimeout = 30 * time.Second
	DefaultAPITimeout   = 60 * time.Second
	DefaultOutputDir    = "output"
	DefaultRunStorePath = "runs.db"
	DefaultDatasetID    = "yogonet_news"
	DefaultTableID      = "scraped_articles"
)

// BigQueryConfig identifies the warehouse destination. Upload is skipped
// when ProjectID is empty.
type BigQueryConfig struct {
	ProjectID       string `yaml:"project_id"`
	DatasetID       string `yaml:"dataset_id"`
	TableID         string `yaml:"table_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

// Config is the full run configuration.
type Config struct {
	URL          string         `yaml:"url"`
	MaxArticles  int            `yaml:"max_articles"`
	AIEnabled    bool           `yaml:"ai_enabled"`
	ModelID      string         `yaml:"model_id"`
	OpenAIAPIKey string         `yaml:"-"`
	FetchTimeout time.Duration  `yaml:"fetch_timeout"`
	APITimeout   time.Duration  `yaml:"api_timeout"`
	OutputDir    string         `yaml:"output_dir"`
	RunStorePath string         `yaml:"run_store_path"`
	LogLevel     string         `yaml:"log_level"`
	BigQuery     BigQueryConfig `yaml:"bigquery"`
}

// Load builds the configuration from an optional YAML file at path (empty
// path or a missing file means defaults only) overlaid with environment
// variables.
func Load(path string) (*Config, error) {
	cfg := &Config{
		URL:          DefaultURL,
		MaxArticles:  DefaultMaxArticles,
		ModelID:      DefaultModelID,
		FetchTimeout: DefaultFetchTimeout,
		APITimeout:   DefaultAPITimeout,
		OutputDir:    DefaultOutputDir,
		RunStorePath: DefaultRunStorePath,
		LogLevel:     "info",
		BigQuery: BigQueryConfig{
			DatasetID: DefaultDatasetID,
			TableID:   DefaultTableID,
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overlays environment variables onto the config.
func (c *Config) applyEnv() {
	c.URL = getEnv("SCRAPE_URL", c.URL)
	c.MaxArticles = getEnvAsInt("MAX_ARTICLES", c.MaxArticles)
	c.AIEnabled = getEnvAsBool("AI_ENABLED", c.AIEnabled)
	c.ModelID = getEnv("OPENAI_MODEL", c.ModelID)
	c.OpenAIAPIKey = getEnv("OPENAI_API_KEY", c.OpenAIAPIKey)
	c.FetchTimeout = getEnvAsDuration("FETCH_TIMEOUT", c.FetchTimeout)
	c.APITimeout = getEnvAsDuration("OPENAI_TIMEOUT", c.APITimeout)
	c.OutputDir = getEnv("OUTPUT_DIR", c.OutputDir)
	c.RunStorePath = getEnv("RUN_STORE_PATH", c.RunStorePath)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.BigQuery.ProjectID = getEnv("GOOGLE_CLOUD_PROJECT", c.BigQuery.ProjectID)
	c.BigQuery.DatasetID = getEnv("BIGQUERY_DATASET_ID", c.BigQuery.DatasetID)
	c.BigQuery.TableID = getEnv("BIGQUERY_TABLE_ID", c.BigQuery.TableID)
	c.BigQuery.CredentialsFile = getEnv("GOOGLE_APPLICATION_CREDENTIALS", c.BigQuery.CredentialsFile)
}

// Validate rejects out-of-range values before the run starts.
func (c *Config) Validate() error {
	if c.URL == "" {
		return ErrMissingURL
	}
	u, err := url.Parse(c.URL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrInvalidURL
	}
	if c.MaxArticles <= 0 {
		return ErrInvalidMaxArticles
	}
	if c.AIEnabled {
		if c.OpenAIAPIKey == "" {
			return ErrMissingAPIKey
		}
		if c.ModelID == "" {
			return ErrMissingModelID
		}
	}
	return nil
}

// WarehouseEnabled reports whether a BigQuery destination is configured.
func (c *Config) WarehouseEnabled() bool {
	return c.BigQuery.ProjectID != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
