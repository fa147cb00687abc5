package storage_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/nikbrunner/shelf/internal/storage"
)

func TestLoadConfig_CreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := storage.LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}

	if !reflect.DeepEqual(*cfg, storage.DefaultConfig()) {
		t.Errorf("expected defaults, got %+v", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected config file to be written: %v", err)
	}
	if cfg.SummaryURL != "https://r.jina.ai/http://" {
		t.Errorf("unexpected default summaryUrl %q", cfg.SummaryURL)
	}

	// The written file must read back to the same config.
	again, err := storage.LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to reload: %v", err)
	}
	if !reflect.DeepEqual(again, cfg) {
		t.Errorf("round trip changed config: %+v vs %+v", again, cfg)
	}
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "apiUrl: https://bookmarks.example.com\nrequestTimeout: 3s\ncheckExcludeDomains: []\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := storage.LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}

	if cfg.APIURL != "https://bookmarks.example.com" {
		t.Errorf("expected apiUrl from file, got %q", cfg.APIURL)
	}
	if cfg.RequestTimeout.Duration != 3*time.Second {
		t.Errorf("expected requestTimeout 3s, got %v", cfg.RequestTimeout)
	}
	if len(cfg.CheckExcludeDomains) != 0 {
		t.Errorf("expected explicit empty exclude list, got %v", cfg.CheckExcludeDomains)
	}
	if cfg.SummaryURL != storage.DefaultConfig().SummaryURL {
		t.Errorf("expected default summaryUrl, got %q", cfg.SummaryURL)
	}
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("requestTimeout: soon\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := storage.LoadConfig(path); err == nil {
		t.Error("expected error for invalid duration")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"SHELF_API_URL":               "https://api.example.com",
		"SHELF_SUMMARY_TIMEOUT":       "1m",
		"SHELF_SUMMARY_RATE":          "0.5",
		"SHELF_CHECK_CONCURRENCY":     "4",
		"SHELF_CHECK_EXCLUDE_DOMAINS": "a.com, b.com,",
		"SHELF_CONFIRM":               "false",
	}
	cfg := storage.DefaultConfig()

	if err := cfg.ApplyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}

	if cfg.APIURL != "https://api.example.com" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.SummaryTimeout.Duration != time.Minute {
		t.Errorf("SummaryTimeout = %v", cfg.SummaryTimeout)
	}
	if cfg.SummaryRate != 0.5 {
		t.Errorf("SummaryRate = %v", cfg.SummaryRate)
	}
	if cfg.CheckConcurrency != 4 {
		t.Errorf("CheckConcurrency = %d", cfg.CheckConcurrency)
	}
	if !reflect.DeepEqual(cfg.CheckExcludeDomains, []string{"a.com", "b.com"}) {
		t.Errorf("CheckExcludeDomains = %v", cfg.CheckExcludeDomains)
	}
	if cfg.Confirm {
		t.Error("Confirm should be false")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("unset variables must keep values, LogLevel = %q", cfg.LogLevel)
	}
}

func TestApplyEnv_InvalidValue(t *testing.T) {
	cfg := storage.DefaultConfig()

	err := cfg.ApplyEnv(func(k string) string {
		if k == "SHELF_SUMMARY_BURST" {
			return "lots"
		}
		return ""
	})
	if err == nil {
		t.Error("expected error for non-numeric burst")
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("SHELF_TEST_FROM_DOTENV=yes\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SHELF_TEST_FROM_DOTENV", "")
	os.Unsetenv("SHELF_TEST_FROM_DOTENV")

	if err := storage.LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile: %v", err)
	}
	if got := os.Getenv("SHELF_TEST_FROM_DOTENV"); got != "yes" {
		t.Errorf("expected variable from .env, got %q", got)
	}

	if err := storage.LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing .env should be ignored: %v", err)
	}
}
