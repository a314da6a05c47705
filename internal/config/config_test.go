package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Model != "gpt-4o-mini" {
		t.Errorf("Expected default model to be 'gpt-4o-mini', got '%s'", cfg.Model)
	}
	if cfg.Endpoint != DefaultEndpoint {
		t.Errorf("Endpoint = %s, want %s", cfg.Endpoint, DefaultEndpoint)
	}
	if cfg.MaxTokens != 1000 {
		t.Errorf("MaxTokens = %d, want 1000", cfg.MaxTokens)
	}
	if cfg.Temperature != 0.7 {
		t.Errorf("Temperature = %v, want 0.7", cfg.Temperature)
	}
	if cfg.CredentialStore != StoreFile {
		t.Errorf("CredentialStore = %s, want %s", cfg.CredentialStore, StoreFile)
	}
	if cfg.NoticeTimeout() != 5*time.Second {
		t.Errorf("NoticeTimeout() = %v, want 5s", cfg.NoticeTimeout())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_Durations(t *testing.T) {
	cfg := Config{NoticeSeconds: 0, TimeoutSeconds: 0}
	if cfg.NoticeTimeout() != 5*time.Second {
		t.Errorf("NoticeTimeout() with zero = %v, want 5s", cfg.NoticeTimeout())
	}
	if cfg.Timeout() != 0 {
		t.Errorf("Timeout() with zero = %v, want 0", cfg.Timeout())
	}

	cfg = Config{NoticeSeconds: 2, TimeoutSeconds: 30}
	if cfg.NoticeTimeout() != 2*time.Second {
		t.Errorf("NoticeTimeout() = %v, want 2s", cfg.NoticeTimeout())
	}
	if cfg.Timeout() != 30*time.Second {
		t.Errorf("Timeout() = %v, want 30s", cfg.Timeout())
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"empty model", func(c *Config) { c.Model = "" }, true},
		{"empty endpoint", func(c *Config) { c.Endpoint = "" }, true},
		{"zero max tokens", func(c *Config) { c.MaxTokens = 0 }, true},
		{"negative ask tokens", func(c *Config) { c.AskMaxTokens = -1 }, true},
		{"temperature too high", func(c *Config) { c.Temperature = 2.5 }, true},
		{"keyring store", func(c *Config) { c.CredentialStore = StoreKeyring }, false},
		{"unknown store", func(c *Config) { c.CredentialStore = "s3" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetConfigPaths(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	dir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() returned error: %v", err)
	}
	if dir != filepath.Join(tmpDir, ".minigpt") {
		t.Errorf("GetConfigDir() = %s", dir)
	}

	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() returned error: %v", err)
	}
	if filepath.Base(path) != "config.json" {
		t.Errorf("GetConfigPath() should end with config.json, got %s", path)
	}

	storage, err := GetStoragePath()
	if err != nil {
		t.Fatalf("GetStoragePath() returned error: %v", err)
	}
	if filepath.Base(storage) != "storage.json" {
		t.Errorf("GetStoragePath() should end with storage.json, got %s", storage)
	}

	logPath, err := GetLogPath()
	if err != nil {
		t.Fatalf("GetLogPath() returned error: %v", err)
	}
	if filepath.Dir(logPath) != dir {
		t.Errorf("GetLogPath() = %s, want inside %s", logPath, dir)
	}
}

func TestEnsureConfigDir(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	dir, err := EnsureConfigDir()
	if err != nil {
		t.Fatalf("EnsureConfigDir() returned error: %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("Directory does not exist: %v", err)
	}
	if !info.IsDir() {
		t.Error("Path is not a directory")
	}
	if perm := info.Mode().Perm(); perm != 0o700 {
		t.Errorf("Directory permissions = %o, want 700", perm)
	}
}

func TestLoadConfig_FileNotExists(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() returned error: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("LoadConfig() without file = %+v, want defaults", cfg)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	cfg := DefaultConfig()
	cfg.Model = "gpt-4o"
	cfg.MaxTokens = 256
	cfg.CopyToClipboard = true

	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig() returned error: %v", err)
	}

	configPath := filepath.Join(tmpDir, ".minigpt", "config.json")
	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}

	var saved Config
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatalf("Failed to parse saved config: %v", err)
	}
	if saved.Model != "gpt-4o" {
		t.Errorf("Model = %s, want gpt-4o", saved.Model)
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("Failed to stat config file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("File permissions = %o, want 600", perm)
	}

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() returned error: %v", err)
	}
	if loaded != cfg {
		t.Errorf("LoadConfig() = %+v, want %+v", loaded, cfg)
	}
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	configDir := filepath.Join(tmpDir, ".minigpt")
	_ = os.MkdirAll(configDir, 0o700)
	if err := os.WriteFile(filepath.Join(configDir, "config.json"), []byte(`{"model":"gpt-4.1"}`), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() returned error: %v", err)
	}
	if cfg.Model != "gpt-4.1" {
		t.Errorf("Model = %s, want gpt-4.1", cfg.Model)
	}
	if cfg.Temperature != 0.7 {
		t.Errorf("Temperature = %v, want default 0.7", cfg.Temperature)
	}
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	configDir := filepath.Join(tmpDir, ".minigpt")
	_ = os.MkdirAll(configDir, 0o700)
	if err := os.WriteFile(filepath.Join(configDir, "config.json"), []byte(`{"invalid": json content`), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadConfig()
	if err == nil {
		t.Error("LoadConfig() with invalid JSON should return error")
	}
	if cfg.Model != DefaultModel {
		t.Errorf("Model = %s, want %s", cfg.Model, DefaultModel)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("MINIGPT_MODEL", "gpt-4o")
	t.Setenv("MINIGPT_MAX_TOKENS", "50")
	t.Setenv("MINIGPT_TEMPERATURE", "0.2")
	t.Setenv("MINIGPT_STORE", "memory")
	t.Setenv("MINIGPT_MARKDOWN_STYLE", "light")

	cfg := DefaultConfig()
	if err := ApplyEnv(&cfg); err != nil {
		t.Fatalf("ApplyEnv() returned error: %v", err)
	}

	if cfg.Model != "gpt-4o" {
		t.Errorf("Model = %s, want gpt-4o", cfg.Model)
	}
	if cfg.MaxTokens != 50 {
		t.Errorf("MaxTokens = %d, want 50", cfg.MaxTokens)
	}
	if cfg.Temperature != 0.2 {
		t.Errorf("Temperature = %v, want 0.2", cfg.Temperature)
	}
	if cfg.CredentialStore != StoreMemory {
		t.Errorf("CredentialStore = %s, want memory", cfg.CredentialStore)
	}
	if cfg.Markdown.Style != "light" {
		t.Errorf("Markdown.Style = %s, want light", cfg.Markdown.Style)
	}
	if cfg.Endpoint != DefaultEndpoint {
		t.Errorf("unset variable should keep Endpoint, got %s", cfg.Endpoint)
	}
}

func TestApplyEnv_InvalidValue(t *testing.T) {
	t.Setenv("MINIGPT_MAX_TOKENS", "lots")

	cfg := DefaultConfig()
	if err := ApplyEnv(&cfg); err == nil {
		t.Error("ApplyEnv() with non-numeric MAX_TOKENS should return error")
	}
}

func TestLoad_WithEnvFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	// Registered so t.Setenv restores the variable after godotenv sets it.
	t.Setenv("MINIGPT_ENDPOINT", "")
	_ = os.Unsetenv("MINIGPT_ENDPOINT")

	envFile := filepath.Join(tmpDir, "test.env")
	if err := os.WriteFile(envFile, []byte("MINIGPT_ENDPOINT=http://localhost:9999/v1/chat/completions\n"), 0o600); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}

	cfg, err := Load(envFile)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Endpoint != "http://localhost:9999/v1/chat/completions" {
		t.Errorf("Endpoint = %s", cfg.Endpoint)
	}
}

func TestLoad_MissingEnvFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("Load() with missing explicit env file should return error")
	}
}

func TestLoad_DefersValidation(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MINIGPT_STORE", "floppy")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.CredentialStore != "floppy" {
		t.Errorf("CredentialStore = %s, want floppy", cfg.CredentialStore)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() with unknown store should return error")
	}
}

func TestConfig_MarkdownAlwaysSerialized(t *testing.T) {
	data, err := json.Marshal(Config{})
	if err != nil {
		t.Fatalf("Marshal() returned error: %v", err)
	}
	if !strings.Contains(string(data), `"markdown":{`) {
		t.Errorf("marshaled config = %s, want markdown object", data)
	}
}
