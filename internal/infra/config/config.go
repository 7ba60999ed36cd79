package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Remote   RemoteConfig   `mapstructure:"remote" yaml:"remote"`
	Download DownloadConfig `mapstructure:"download" yaml:"download"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Store    StoreConfig    `mapstructure:"store" yaml:"store"`

	Port string `mapstructure:"port" yaml:"port"`
}

type RemoteConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
}

type DownloadConfig struct {
	InstallDir string `mapstructure:"install_dir" yaml:"install_dir"`
	// BufferSize is the copy increment in bytes; the pause/stop flag is
	// checked between increments, so this bounds cancellation latency.
	BufferSize int `mapstructure:"buffer_size" yaml:"buffer_size"`
	// RateLimit caps download throughput in bytes/sec. 0 means unlimited.
	RateLimit int `mapstructure:"rate_limit" yaml:"rate_limit"`
	// MinFreeSpace is extra headroom in bytes required on the install disk
	// beyond the manifest total. -1 disables the preflight check.
	MinFreeSpace int64 `mapstructure:"min_free_space" yaml:"min_free_space"`
}

type LogConfig struct {
	Path          string `mapstructure:"path" yaml:"path"`
	Level         string `mapstructure:"level" yaml:"level"`
	IncludeStdout bool   `mapstructure:"include_stdout" yaml:"include_stdout"`
}

type StoreConfig struct {
	Driver      string `mapstructure:"driver" yaml:"driver"`
	SQLitePath  string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	PostgresDSN string `mapstructure:"postgres_dsn" yaml:"postgres_dsn"`
	ManifestDir string `mapstructure:"manifest_dir" yaml:"manifest_dir"`
}

func Load(path string) (*Config, error) {

	if path == "" {
		path = "config.yaml"
	}

	// 1. Check if the file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// FALLBACK: If we are in Docker (or similar) and didn't provide a flag, check /config/config.yaml
		if path == "config.yaml" {
			if _, errEx := os.Stat("/config/config.yaml"); errEx == nil {
				path = "/config/config.yaml"
			} else if _, errEx := os.Stat("config.yaml.example"); errEx == nil {
				// If config.yaml is missing but example exists, give a helpful error
				return nil, fmt.Errorf("configuration file 'config.yaml' not found\n\n" +
					"To fix this, run:\n" +
					"  cp config.yaml.example config.yaml\n" +
					"Then edit it with your Drop server URL and API key.")
			} else {
				return nil, fmt.Errorf("config file not found: %s", path)
			}
		} else {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
	}

	v := viper.New()

	// Set Defaults
	v.SetDefault("port", "8080")
	v.SetDefault("download.install_dir", "./games")
	v.SetDefault("download.buffer_size", 128*1024)
	v.SetDefault("download.rate_limit", 0)
	v.SetDefault("download.min_free_space", 0)
	v.SetDefault("log.path", "dropd.log")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.include_stdout", true)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "dropd.db")

	// Read config File
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	// Support Environment Variables
	v.SetEnvPrefix("DROPD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.SQLitePath == "" {
			c.Store.SQLitePath = "dropd.db"
		}
	case "postgres":
		if c.Store.PostgresDSN == "" {
			return fmt.Errorf("store driver 'postgres' requires store.postgres_dsn")
		}
	default:
		return fmt.Errorf("unknown store driver %q (expected 'sqlite' or 'postgres')", c.Store.Driver)
	}

	if c.Download.BufferSize <= 0 {
		// Default to a sane value
		c.Download.BufferSize = 128 * 1024
	}

	if c.Download.RateLimit < 0 {
		return fmt.Errorf("download.rate_limit cannot be negative (0 disables the limit)")
	}

	if c.Download.InstallDir == "" {
		c.Download.InstallDir = "./games"
	}

	if c.Port == "" {
		c.Port = "8080"
	}

	return nil
}
