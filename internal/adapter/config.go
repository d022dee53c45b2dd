package adapter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kirsle/configdir"
	"github.com/spf13/viper"
)

// Provider identifies the upstream catalog backend
type Provider string

const (
	ProviderEnime    Provider = "enime"
	ProviderConsumet Provider = "consumet"
)

// Config holds all application configuration
type Config struct {
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Playback PlaybackConfig `mapstructure:"playback"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Presence PresenceConfig `mapstructure:"presence"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// CatalogConfig selects and addresses the upstream catalog
type CatalogConfig struct {
	Provider    Provider `mapstructure:"provider"`     // "enime" or "consumet"
	EnimeURL    string   `mapstructure:"enime_url"`    // Enime REST base URL
	ConsumetURL string   `mapstructure:"consumet_url"` // Consumet meta/anilist base URL
}

// PlaybackConfig holds stream selection preferences
type PlaybackConfig struct {
	PreferredQuality string `mapstructure:"preferred_quality"` // e.g. "1080p"
}

// StorageConfig locates the on-disk watch history
type StorageConfig struct {
	Dir string `mapstructure:"dir"` // empty means the platform data dir
}

// PresenceConfig controls the rich-presence integration
type PresenceConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	AppID   string `mapstructure:"app_id"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Provider:    ProviderEnime,
			EnimeURL:    "https://api.enime.moe",
			ConsumetURL: "https://api.consumet.org/meta/anilist",
		},
		Playback: PlaybackConfig{
			PreferredQuality: "1080p",
		},
		Storage: StorageConfig{
			Dir: defaultDataDir(),
		},
		Presence: PresenceConfig{
			Enabled: false,
		},
		Logging: LoggingConfig{
			File:  filepath.Join(defaultDataDir(), "tsuki.log"),
			Level: "INFO",
		},
	}
}

func defaultDataDir() string {
	return configdir.LocalCache("tsuki")
}

func defaultConfigPath() string {
	return configdir.LocalConfig("tsuki")
}

// LoadConfig loads configuration from file and environment
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(defaultConfigPath())
	v.AddConfigPath(".")

	// Registered defaults make every key visible to AutomaticEnv.
	v.SetDefault("catalog.provider", string(cfg.Catalog.Provider))
	v.SetDefault("catalog.enime_url", cfg.Catalog.EnimeURL)
	v.SetDefault("catalog.consumet_url", cfg.Catalog.ConsumetURL)
	v.SetDefault("playback.preferred_quality", cfg.Playback.PreferredQuality)
	v.SetDefault("storage.dir", cfg.Storage.Dir)
	v.SetDefault("presence.enabled", cfg.Presence.Enabled)
	v.SetDefault("presence.app_id", cfg.Presence.AppID)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)

	// Environment variable overrides, e.g. TSUKI_CATALOG_PROVIDER
	v.SetEnvPrefix("TSUKI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// SaveConfig writes the configuration to the platform config directory
func SaveConfig(cfg *Config) error {
	configPath := defaultConfigPath()
	if err := configdir.MakePath(configPath); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.Set("catalog.provider", string(cfg.Catalog.Provider))
	v.Set("catalog.enime_url", cfg.Catalog.EnimeURL)
	v.Set("catalog.consumet_url", cfg.Catalog.ConsumetURL)
	v.Set("playback.preferred_quality", cfg.Playback.PreferredQuality)
	v.Set("storage.dir", cfg.Storage.Dir)
	v.Set("presence.enabled", cfg.Presence.Enabled)
	v.Set("presence.app_id", cfg.Presence.AppID)
	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(configPath, "config.yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// EnsureStorageDir creates the storage directory if needed and returns it.
func (c *Config) EnsureStorageDir() (string, error) {
	dir := c.Storage.Dir
	if dir == "" {
		dir = defaultDataDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create storage directory: %w", err)
	}
	return dir, nil
}
