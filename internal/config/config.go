// Package config handles configuration loading for minigpt.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	// DefaultEndpoint is the chat completions endpoint.
	DefaultEndpoint = "https://api.openai.com/v1/chat/completions"

	// DefaultModel is the model identifier sent with every request.
	DefaultModel = "gpt-4o-mini"

	// CredentialKey is the store key holding the API key.
	CredentialKey = "openai_api_key"

	// EnvPrefix is prepended to every environment override.
	EnvPrefix = "MINIGPT_"

	configDirName = ".minigpt"
)

// Credential store backends
const (
	StoreFile    = "file"
	StoreKeyring = "keyring"
	StoreMemory  = "memory"
)

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style" env:"STYLE"`                         // "dark", "light", "notty" or path to JSON theme
	EnableEmoji      bool   `json:"enable_emoji" env:"EMOJI"`                  // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines" env:"PRESERVE_NEWLINES"` // Preserve original line breaks
}

// Config represents the user configuration
type Config struct {
	Model    string `json:"model" env:"MODEL"`
	Endpoint string `json:"endpoint" env:"ENDPOINT"`
	// MaxTokens caps the response length of chat messages.
	MaxTokens int `json:"max_tokens" env:"MAX_TOKENS"`
	// AskMaxTokens caps the response length of one-shot `ask` queries.
	AskMaxTokens int     `json:"ask_max_tokens" env:"ASK_MAX_TOKENS"`
	Temperature  float64 `json:"temperature" env:"TEMPERATURE"`
	// TimeoutSeconds bounds a single completion call. Zero disables the limit.
	TimeoutSeconds int `json:"timeout_seconds" env:"TIMEOUT_SECONDS"`
	// CredentialStore selects where the API key is persisted: file, keyring or memory.
	CredentialStore string `json:"credential_store" env:"STORE"`
	// NoticeSeconds is how long a transient notice stays visible.
	NoticeSeconds   int            `json:"notice_seconds" env:"NOTICE_SECONDS"`
	CopyToClipboard bool           `json:"copy_to_clipboard" env:"COPY_TO_CLIPBOARD"`
	TUITheme        string         `json:"tui_theme,omitempty" env:"THEME"`
	Markdown        MarkdownConfig `json:"markdown" envPrefix:"MARKDOWN_"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Model:           DefaultModel,
		Endpoint:        DefaultEndpoint,
		MaxTokens:       1000,
		AskMaxTokens:    1000,
		Temperature:     0.7,
		TimeoutSeconds:  120,
		CredentialStore: StoreFile,
		NoticeSeconds:   5,
		CopyToClipboard: false,
		TUITheme:        "tokyonight",
		Markdown:        DefaultMarkdownConfig(),
	}
}

// NoticeTimeout returns the notice lifetime as a duration.
func (c Config) NoticeTimeout() time.Duration {
	if c.NoticeSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.NoticeSeconds) * time.Second
}

// Timeout returns the per-request timeout as a duration.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate reports configuration values that cannot produce a request.
func (c Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model must not be empty")
	}
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint must not be empty")
	}
	if c.MaxTokens <= 0 || c.AskMaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature %.2f out of range [0, 2]", c.Temperature)
	}
	switch c.CredentialStore {
	case StoreFile, StoreKeyring, StoreMemory:
	default:
		return fmt.Errorf("unknown credential store %q", c.CredentialStore)
	}
	return nil
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, configDirName), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	// 0o700: the directory holds the stored API key
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// GetStoragePath returns the path to the key-value storage file
func GetStoragePath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "storage.json"), nil
}

// GetLogPath returns the path to the debug log file
func GetLogPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "minigpt.log"), nil
}

// LoadConfig loads the configuration from disk
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadEnvFile loads variables from a dotenv file into the process
// environment. An empty path loads ./.env when it exists. Variables
// already present in the environment are not overwritten.
func LoadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		path = ".env"
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg with MINIGPT_* environment variables.
// Unset variables leave the corresponding field untouched.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	return nil
}

// Load returns the effective configuration: defaults, then the config
// file, then the optional env file, then the environment. The result is
// not validated; callers apply their overrides and then call Validate.
func Load(envFile string) (Config, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return cfg, err
	}

	if err := LoadEnvFile(envFile); err != nil {
		return cfg, err
	}

	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
