// Package config loads Atlas configuration from YAML with environment
// overrides for secrets. A missing file is not an error; defaults apply and
// env vars fill in the tokens.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all Atlas War Room configuration.
type Config struct {
	// Discord gateway settings
	Discord DiscordConfig `yaml:"discord"`

	// OpenRouter gateway settings
	OpenRouter OpenRouterConfig `yaml:"openrouter"`

	// Roster and persistence
	Roster  RosterConfig  `yaml:"roster"`
	Storage StorageConfig `yaml:"storage"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// DiscordConfig configures the Discord connection.
type DiscordConfig struct {
	Token string `yaml:"token"`
	// GuildID scopes slash command registration during development. Empty
	// registers commands globally.
	GuildID string `yaml:"guild_id"`
}

// OpenRouterConfig configures the chat completion gateway.
type OpenRouterConfig struct {
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
	SiteURL  string `yaml:"site_url"`
	SiteName string `yaml:"site_name"`
}

// RosterConfig locates the officer roster document.
type RosterConfig struct {
	Path string `yaml:"path"`
	// Watch enables hot reload on roster file changes.
	Watch bool `yaml:"watch"`
}

// StorageConfig configures the SQLite store.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
	File   string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		OpenRouter: OpenRouterConfig{
			BaseURL:  "https://openrouter.ai/api/v1",
			Timeout:  "60s",
			SiteName: "Atlas War Room",
		},
		Roster: RosterConfig{
			Path:  "officers.json",
			Watch: true,
		},
		Storage: StorageConfig{
			DatabasePath: "data/atlas.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides lets secrets stay out of the config file.
func (c *Config) applyEnvOverrides() {
	if token := os.Getenv("DISCORD_TOKEN"); token != "" {
		c.Discord.Token = token
	}
	if guild := os.Getenv("DISCORD_GUILD_ID"); guild != "" {
		c.Discord.GuildID = guild
	}
	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
		c.OpenRouter.APIKey = key
	}
	if path := os.Getenv("ATLAS_DB"); path != "" {
		c.Storage.DatabasePath = path
	}
	if path := os.Getenv("ATLAS_ROSTER"); path != "" {
		c.Roster.Path = path
	}
}

// GetOpenRouterTimeout returns the per-call gateway timeout as a duration.
func (c *Config) GetOpenRouterTimeout() time.Duration {
	d, err := time.ParseDuration(c.OpenRouter.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Discord.Token == "" {
		return fmt.Errorf("Discord token not configured (set DISCORD_TOKEN or discord.token)")
	}
	if c.OpenRouter.APIKey == "" {
		return fmt.Errorf("OpenRouter API key not configured (set OPENROUTER_API_KEY or openrouter.api_key)")
	}
	if c.Roster.Path == "" {
		return fmt.Errorf("roster path not configured")
	}
	return nil
}
