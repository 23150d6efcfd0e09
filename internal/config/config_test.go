package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"tempo/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "tempo", "data")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempHome, ".local", "share", "tempo", "output") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if cfg.Paths.Catalog != filepath.Join(tempHome, ".config", "tempo", "catalog.yaml") {
		t.Fatalf("unexpected catalog path: %q", cfg.Paths.Catalog)
	}
	if got := cfg.Pipeline.Counters; len(got) != 2 || got[0] != "total_plays" || got[1] != "total_listeners" {
		t.Fatalf("unexpected default counters: %v", got)
	}
	if cfg.Collect.Timezone != "Asia/Seoul" {
		t.Fatalf("unexpected default timezone: %q", cfg.Collect.Timezone)
	}
	if cfg.Collect.Schedule != "*/10 * * * *" {
		t.Fatalf("unexpected default schedule: %q", cfg.Collect.Schedule)
	}
	if !cfg.Store.Enabled {
		t.Fatal("expected store enabled by default")
	}
	if cfg.Store.HistoryLimit != 500 {
		t.Fatalf("unexpected default history limit: %d", cfg.Store.HistoryLimit)
	}
	if cfg.Notifications.NtfyTopic != "" {
		t.Fatalf("expected empty ntfy topic by default, got %q", cfg.Notifications.NtfyTopic)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "tempo.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.OutputDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "tempo.toml")

	type payload struct {
		Paths struct {
			DataDir string `toml:"data_dir"`
		} `toml:"paths"`
		Pipeline struct {
			Counters []string `toml:"counters"`
		} `toml:"pipeline"`
		Collect struct {
			Timezone       string `toml:"timezone"`
			TimeoutSeconds int    `toml:"timeout_seconds"`
			Schedule       string `toml:"schedule"`
		} `toml:"collect"`
	}
	custom := payload{}
	custom.Paths.DataDir = filepath.Join(tempDir, "data")
	custom.Pipeline.Counters = []string{"total_plays"}
	custom.Collect.Timezone = "UTC"
	custom.Collect.TimeoutSeconds = 5
	custom.Collect.Schedule = "0 * * * *"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.DataDir != custom.Paths.DataDir {
		t.Fatalf("expected data dir override, got %q", cfg.Paths.DataDir)
	}
	if len(cfg.Pipeline.Counters) != 1 || cfg.Pipeline.Counters[0] != "total_plays" {
		t.Fatalf("expected counters override, got %v", cfg.Pipeline.Counters)
	}
	if cfg.Collect.Timezone != "UTC" {
		t.Fatalf("expected timezone override, got %q", cfg.Collect.Timezone)
	}
	if cfg.Collect.TimeoutSeconds != 5 {
		t.Fatalf("expected timeout override, got %d", cfg.Collect.TimeoutSeconds)
	}
	if cfg.Collect.Schedule != "0 * * * *" {
		t.Fatalf("expected schedule override, got %q", cfg.Collect.Schedule)
	}
}

func TestEnvVarProvidesNtfyTopic(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("TEMPO_NTFY_TOPIC", "tempo-alerts")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Notifications.NtfyTopic != "tempo-alerts" {
		t.Fatalf("expected ntfy topic from env, got %q", cfg.Notifications.NtfyTopic)
	}
}

func TestCounterNormalization(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "tempo.toml")
	body := "[pipeline]\ncounters = [\" Total_Plays \", \"\", \"total_listeners\"]\n"
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	want := []string{"total_plays", "total_listeners"}
	if len(cfg.Pipeline.Counters) != len(want) {
		t.Fatalf("unexpected counters: %v", cfg.Pipeline.Counters)
	}
	for i, counter := range want {
		if cfg.Pipeline.Counters[i] != counter {
			t.Fatalf("counter %d: got %q want %q", i, cfg.Pipeline.Counters[i], counter)
		}
	}
}

func TestNegativeHistoryLimitClampsToZero(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "tempo.toml")
	body := "[store]\nhistory_limit = -5\n"
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Store.HistoryLimit != 0 {
		t.Fatalf("expected history limit clamped to 0, got %d", cfg.Store.HistoryLimit)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "[pipeline]") {
		t.Fatalf("sample config missing pipeline section: %s", contents)
	}
	if !strings.Contains(string(contents), "total_plays") {
		t.Fatalf("sample config missing default counters: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Collect.Timezone != "Asia/Seoul" {
		t.Fatalf("expected sample timezone Asia/Seoul, got %q", cfg.Collect.Timezone)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.Pipeline.Counters = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty counters")
	}

	cfg = config.Default()
	cfg.Pipeline.Counters = []string{"total plays"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for counter name with spaces")
	}

	cfg = config.Default()
	cfg.Pipeline.Counters = []string{"total_plays", "total_plays"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for duplicate counters")
	}

	cfg = config.Default()
	cfg.Collect.Timezone = "Mars/Olympus"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown timezone")
	}

	cfg = config.Default()
	cfg.Collect.TimeoutSeconds = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive timeout")
	}

	cfg = config.Default()
	cfg.Notifications.RequestTimeout = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative notification timeout")
	}
}
