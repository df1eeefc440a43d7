// =============================================================================
// WeChat Order Ledger - Configuration Module
// =============================================================================
//
// This module loads and validates the application configuration from a
// single YAML file. Secrets (the Gemini API key, the GitHub token) are not
// stored in the file by default; the file names the environment variables
// they are read from, so the config can live in version control.
//
// CONFIGURATION SOURCES, in precedence order:
//   1. Explicit values in the YAML file
//   2. Environment variables named by the *_env keys
//   3. Built-in defaults
//
// =============================================================================

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// CONFIGURATION STRUCTURES
// =============================================================================

// Config holds the full application configuration.
type Config struct {
	// Gemini configures the text-generation collaborator.
	Gemini GeminiConfig `yaml:"gemini"`

	// GitHub configures the remote ledger file store.
	GitHub GitHubConfig `yaml:"github"`

	// Ledger configures ledger partitioning.
	Ledger LedgerConfig `yaml:"ledger"`

	// HistoryDB is the path to the local SQLite history database.
	// Default: "./data/orderledger.db"
	HistoryDB string `yaml:"history_db"`

	// LogFile is the path to the application log file. Empty disables
	// file logging; messages still go to stderr with --verbose.
	LogFile string `yaml:"log_file"`
}

// GeminiConfig configures the Gemini generateContent client.
type GeminiConfig struct {
	// BaseURL is the API endpoint base.
	// Default: "https://generativelanguage.googleapis.com"
	BaseURL string `yaml:"base_url"`

	// Model is the model name. Default: "gemini-1.5-flash"
	Model string `yaml:"model"`

	// APIKey is the API key. Usually left empty in the file.
	APIKey string `yaml:"api_key"`

	// APIKeyEnv names the environment variable the key is read from when
	// APIKey is empty. Default: "GEMINI_API_KEY"
	APIKeyEnv string `yaml:"api_key_env"`

	// TimeoutSeconds is the HTTP client timeout. Default: 60.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// GitHubConfig configures the GitHub contents-API ledger store.
type GitHubConfig struct {
	// BaseURL is the API endpoint base. Default: "https://api.github.com"
	BaseURL string `yaml:"base_url"`

	// Repo is the "owner/name" repository holding the ledger files.
	Repo string `yaml:"repo"`

	// Token is the access token. Usually left empty in the file.
	Token string `yaml:"token"`

	// TokenEnv names the environment variable the token is read from when
	// Token is empty. Default: "GITHUB_TOKEN"
	TokenEnv string `yaml:"token_env"`

	// TimeoutSeconds is the HTTP client timeout. Default: 30.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// LedgerConfig configures ledger file naming.
type LedgerConfig struct {
	// Dir is the directory prefix inside the repository under which the
	// month files live. Default: "to csv"
	Dir string `yaml:"dir"`
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the configuration file at path, applies environment fallbacks
// and defaults, and validates the result. A missing file is not an error:
// the defaults (plus environment) are used, so a config file is only needed
// to override them.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Defaults only.
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills in every unset field with its built-in default.
func (c *Config) applyDefaults() {
	if c.Gemini.BaseURL == "" {
		c.Gemini.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-1.5-flash"
	}
	if c.Gemini.APIKeyEnv == "" {
		c.Gemini.APIKeyEnv = "GEMINI_API_KEY"
	}
	if c.Gemini.TimeoutSeconds <= 0 {
		c.Gemini.TimeoutSeconds = 60
	}

	if c.GitHub.BaseURL == "" {
		c.GitHub.BaseURL = "https://api.github.com"
	}
	if c.GitHub.TokenEnv == "" {
		c.GitHub.TokenEnv = "GITHUB_TOKEN"
	}
	if c.GitHub.TimeoutSeconds <= 0 {
		c.GitHub.TimeoutSeconds = 30
	}

	if c.Ledger.Dir == "" {
		c.Ledger.Dir = "to csv"
	}
	if c.HistoryDB == "" {
		c.HistoryDB = "./data/orderledger.db"
	}
}

// applyEnv resolves secrets from the environment when the file left them
// empty.
func (c *Config) applyEnv() {
	if c.Gemini.APIKey == "" {
		c.Gemini.APIKey = os.Getenv(c.Gemini.APIKeyEnv)
	}
	if c.GitHub.Token == "" {
		c.GitHub.Token = os.Getenv(c.GitHub.TokenEnv)
	}
}

// validate checks settings that have no sensible default. Secrets are
// validated lazily by the commands that need them, so offline commands
// (history, export of a local file) work without any credentials.
func (c *Config) validate() error {
	if c.Gemini.TimeoutSeconds <= 0 || c.GitHub.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}
