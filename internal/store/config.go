package store

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Inference struct {
		MinLineLength  int      `yaml:"min_line_length"`
		MaxLotSize     float64  `yaml:"max_lot_size"`
		IgnoreKeywords []string `yaml:"ignore_keywords"`
		Ordering       string   `yaml:"ordering"`
	} `yaml:"inference"`
	OCR struct {
		Endpoint          string  `yaml:"endpoint"`
		APIKeyEnv         string  `yaml:"api_key_env"`
		TimeoutSeconds    int     `yaml:"timeout_seconds"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		MaxRetrySeconds   int     `yaml:"max_retry_seconds"`
	} `yaml:"ocr"`
	Journal struct {
		Enabled       bool   `yaml:"enabled"`
		Dir           string `yaml:"dir"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"journal"`
	Metrics struct {
		Enabled  bool   `yaml:"enabled"`
		Textfile string `yaml:"textfile"`
	} `yaml:"metrics"`
	Report struct {
		Format    string `yaml:"format"`
		OutputDir string `yaml:"output_dir"`
	} `yaml:"report"`
}

func (c *Config) Validate() error {
	if c.Inference.Ordering != "input" && c.Inference.Ordering != "timestamp" {
		return fmt.Errorf("invalid inference.ordering '%s': must be 'input' or 'timestamp'", c.Inference.Ordering)
	}
	if c.Inference.MinLineLength < 0 {
		return fmt.Errorf("inference.min_line_length must be >= 0, got %d", c.Inference.MinLineLength)
	}
	if c.Inference.MaxLotSize < 0 {
		return fmt.Errorf("inference.max_lot_size must be >= 0, got %.2f", c.Inference.MaxLotSize)
	}
	if c.OCR.RequestsPerSecond < 0 {
		return fmt.Errorf("ocr.requests_per_second must be >= 0, got %.2f", c.OCR.RequestsPerSecond)
	}
	switch c.Report.Format {
	case "text", "json", "csv":
	default:
		return fmt.Errorf("invalid report.format '%s': must be 'text', 'json' or 'csv'", c.Report.Format)
	}
	if c.Metrics.Enabled && c.Metrics.Textfile == "" {
		return fmt.Errorf("metrics.textfile is required when metrics are enabled")
	}
	return nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var c Config
	applyDefaults(&c)
	return &c
}

// LoadConfig reads path (skipped when empty), fills defaults, applies
// AUTOPSY_* environment overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	applyDefaults(&c)
	applyEnvOverrides(&c)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

func applyDefaults(c *Config) {
	if c.Inference.MinLineLength == 0 {
		c.Inference.MinLineLength = 10
	}
	if c.Inference.MaxLotSize == 0 {
		c.Inference.MaxLotSize = 1000
	}
	if c.Inference.Ordering == "" {
		c.Inference.Ordering = "input"
	}
	if c.OCR.APIKeyEnv == "" {
		c.OCR.APIKeyEnv = "OCR_API_KEY"
	}
	if c.OCR.TimeoutSeconds == 0 {
		c.OCR.TimeoutSeconds = 30
	}
	if c.OCR.RequestsPerSecond == 0 {
		c.OCR.RequestsPerSecond = 2
	}
	if c.OCR.MaxRetrySeconds == 0 {
		c.OCR.MaxRetrySeconds = 30
	}
	if c.Journal.Dir == "" {
		c.Journal.Dir = "logs"
	}
	if c.Report.Format == "" {
		c.Report.Format = "text"
	}
	if c.Report.OutputDir == "" {
		c.Report.OutputDir = "logs/reports"
	}
}

func applyEnvOverrides(c *Config) {
	if v := os.Getenv("AUTOPSY_ORDERING"); v != "" {
		c.Inference.Ordering = v
	}
	if v := os.Getenv("AUTOPSY_MIN_LINE_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Inference.MinLineLength = n
		}
	}
	if v := os.Getenv("AUTOPSY_OCR_ENDPOINT"); v != "" {
		c.OCR.Endpoint = v
	}
	if v := os.Getenv("AUTOPSY_JOURNAL_DIR"); v != "" {
		c.Journal.Dir = v
	}
	if v := os.Getenv("AUTOPSY_JOURNAL_ENABLED"); v != "" {
		c.Journal.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("AUTOPSY_METRICS_TEXTFILE"); v != "" {
		c.Metrics.Enabled = true
		c.Metrics.Textfile = v
	}
	if v := os.Getenv("AUTOPSY_REPORT_FORMAT"); v != "" {
		c.Report.Format = v
	}
}
