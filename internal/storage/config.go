package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration written as "10s" in YAML.
type Duration struct {
	time.Duration
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	d.Duration = parsed
	return nil
}

// Config holds application configuration.
type Config struct {
	APIURL         string   `yaml:"apiUrl"`
	SummaryURL     string   `yaml:"summaryUrl"`
	RequestTimeout Duration `yaml:"requestTimeout"`
	SummaryTimeout Duration `yaml:"summaryTimeout"`
	SummaryRate    float64  `yaml:"summaryRate"` // requests per second, 0 = unlimited
	SummaryBurst   int      `yaml:"summaryBurst"`
	LogLevel       string   `yaml:"logLevel"`

	CheckConcurrency    int      `yaml:"checkConcurrency"`
	CheckTimeout        Duration `yaml:"checkTimeout"`
	CheckExcludeDomains []string `yaml:"checkExcludeDomains"`

	Confirm bool `yaml:"confirm"` // ask before deleting
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		APIURL:              "http://localhost:8080",
		SummaryURL:          "https://r.jina.ai/http://",
		RequestTimeout:      Duration{15 * time.Second},
		SummaryTimeout:      Duration{30 * time.Second},
		SummaryRate:         1,
		SummaryBurst:        3,
		LogLevel:            "info",
		CheckConcurrency:    20,
		CheckTimeout:        Duration{10 * time.Second},
		CheckExcludeDomains: []string{"github.com", "gitlab.com"},
		Confirm:             true,
	}
}

// LoadConfig reads config from the YAML file.
// Creates the file with defaults if it doesn't exist.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			config := DefaultConfig()
			// Non-fatal: return defaults even if save fails
			_ = SaveConfig(path, &config)
			return &config, nil
		}
		return nil, err
	}

	// Fields missing from the file keep their defaults
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return &config, nil
}

// SaveConfig writes config to the YAML file.
// Creates the directory if it doesn't exist.
func SaveConfig(path string, config *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// LoadEnvFile loads KEY=value pairs from a dotenv file into the process
// environment. Variables that are already set win. A missing file is
// ignored.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides config fields from SHELF_* variables looked up with
// getenv (usually os.Getenv).
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("SHELF_API_URL"); v != "" {
		c.APIURL = v
	}
	if v := getenv("SHELF_SUMMARY_URL"); v != "" {
		c.SummaryURL = v
	}
	if v := getenv("SHELF_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getenv("SHELF_CHECK_EXCLUDE_DOMAINS"); v != "" {
		c.CheckExcludeDomains = splitList(v)
	}

	durations := map[string]*Duration{
		"SHELF_REQUEST_TIMEOUT": &c.RequestTimeout,
		"SHELF_SUMMARY_TIMEOUT": &c.SummaryTimeout,
		"SHELF_CHECK_TIMEOUT":   &c.CheckTimeout,
	}
	for key, field := range durations {
		if v := getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			field.Duration = d
		}
	}

	ints := map[string]*int{
		"SHELF_SUMMARY_BURST":     &c.SummaryBurst,
		"SHELF_CHECK_CONCURRENCY": &c.CheckConcurrency,
	}
	for key, field := range ints {
		if v := getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*field = n
		}
	}

	if v := getenv("SHELF_SUMMARY_RATE"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("SHELF_SUMMARY_RATE: %w", err)
		}
		c.SummaryRate = r
	}
	if v := getenv("SHELF_CONFIRM"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SHELF_CONFIRM: %w", err)
		}
		c.Confirm = b
	}

	return nil
}

func splitList(s string) []string {
	var items []string
	for _, part := range strings.Split(s, ",") {
		if item := strings.TrimSpace(part); item != "" {
			items = append(items, item)
		}
	}
	return items
}
