package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	DB         DBConfig         `yaml:"db"`
	Redis      RedisConfig      `yaml:"redis"`
	Session    SessionConfig    `yaml:"session"`
	Newsletter NewsletterConfig `yaml:"newsletter"`
	Geo        GeoConfig        `yaml:"geo"`
	Log        LogConfig        `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

// RedisConfig enables cross-instance session fan-out when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type SessionConfig struct {
	MaxUsers     int           `yaml:"max_users"`
	SyncInterval time.Duration `yaml:"sync_interval"`
}

type NewsletterConfig struct {
	Provider string `yaml:"provider"` // "mailchimp" or "convertkit"
	APIKey   string `yaml:"api_key"`
	ListID   string `yaml:"list_id"`
}

type GeoConfig struct {
	BigDataCloudKey string `yaml:"bigdatacloud_key"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "collabd.db",
		},
		Session: SessionConfig{
			MaxUsers:     10,
			SyncInterval: 30 * time.Second,
		},
		Newsletter: NewsletterConfig{
			Provider: "mailchimp",
		},
		Log: LogConfig{
			Level: "info",
		},
	}

	if path := os.Getenv("COLLABD_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("COLLABD_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("COLLABD_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid COLLABD_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("COLLABD_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if addr := os.Getenv("COLLABD_REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if key := os.Getenv("COLLABD_NEWSLETTER_API_KEY"); key != "" {
		cfg.Newsletter.APIKey = key
	}
	if level := os.Getenv("COLLABD_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
