// Package config loads rentdesk settings from an optional YAML file and
// RENTDESK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	appName    = "rentdesk"
	envPrefix  = "RENTDESK"
	configFile = "config.yml"
)

// Config holds every setting the client reads.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Session SessionConfig `mapstructure:"session"`
	UI      UIConfig      `mapstructure:"ui"`
	Storage StorageConfig `mapstructure:"storage"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type ServerConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SessionConfig names the keyring item that holds the bearer token.
type SessionConfig struct {
	KeyringService string `mapstructure:"keyring_service"`
	KeyringAccount string `mapstructure:"keyring_account"`
}

type UIConfig struct {
	BannerTTL   time.Duration `mapstructure:"banner_ttl"`
	OptOutClass string        `mapstructure:"opt_out_class"`
	// SyncInterval is how often the renter list is refreshed while shown.
	SyncInterval time.Duration `mapstructure:"sync_interval"`
}

// StorageConfig locates the local cache. An empty Path uses the default
// under the user config directory.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputFile string `mapstructure:"output_file"` // optional file output
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.base_url", "http://127.0.0.1:8000")
	v.SetDefault("server.timeout", 15*time.Second)
	v.SetDefault("session.keyring_service", appName)
	v.SetDefault("session.keyring_account", "jwt_token")
	v.SetDefault("ui.banner_ttl", 3*time.Second)
	v.SetDefault("ui.opt_out_class", "native-submit")
	v.SetDefault("ui.sync_interval", 2*time.Minute)
	v.SetDefault("storage.path", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output_file", "")
}

// Load reads configPath, or the default config file when configPath is
// empty. A missing default file is not an error; a missing explicit one is.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigType("yml")

	explicit := strings.TrimSpace(configPath) != ""
	if !explicit {
		path, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		configPath = path
	}
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values viper cannot type-check.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil {
		return fmt.Errorf("server.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("server.base_url must be an http(s) URL, got %q", c.Server.BaseURL)
	}
	if c.Server.Timeout < 0 {
		return fmt.Errorf("server.timeout must not be negative")
	}
	if c.UI.BannerTTL < 0 {
		return fmt.Errorf("ui.banner_ttl must not be negative")
	}
	if _, err := parseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}
	return nil
}

// Dir is the per-user directory for the config file, cache and logs.
func Dir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config directory: %w", err)
	}
	return filepath.Join(configDir, appName), nil
}

func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}
