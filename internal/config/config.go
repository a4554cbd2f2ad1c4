package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

const (
	defaultConfigPath = "config/config.yaml"
	defaultCurrency   = "usd"
	defaultFlatFee    = 50
)

var defaultIntervals = []string{"day", "week", "month", "year"}

type Config struct {
	Server struct {
		Address string `yaml:"address"`
	} `yaml:"server"`
	Database struct {
		Driver string `yaml:"driver"`
		URL    string `yaml:"url"`
	} `yaml:"database"`
	Redis struct {
		Addr string `yaml:"addr"`
	} `yaml:"redis"`
	Payments struct {
		SecretKey        string   `yaml:"secret_key"`
		WebhookSecret    string   `yaml:"webhook_secret"`
		BaseURL          string   `yaml:"base_url"`
		Currency         string   `yaml:"currency"`
		FlatFee          int64    `yaml:"flat_fee"`
		AllowedIntervals []string `yaml:"allowed_intervals"`
	} `yaml:"payments"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
	Firebase struct {
		CredentialsFile string `yaml:"credentials_file"`
	} `yaml:"firebase"`
}

// Load reads the yaml config and applies environment overrides. Environment
// values win so deployments can keep secrets out of the file.
func Load() (Config, error) {
	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("unmarshal config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "mysql"
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("PAYMENTS_SECRET_KEY"); v != "" {
		cfg.Payments.SecretKey = v
	}
	if v := os.Getenv("PAYMENTS_WEBHOOK_SECRET"); v != "" {
		cfg.Payments.WebhookSecret = v
	}
	if v := os.Getenv("PAYMENTS_BASE_URL"); v != "" {
		cfg.Payments.BaseURL = v
	}
	if v := os.Getenv("PLATFORM_FLAT_FEE"); v != "" {
		fee, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("parse PLATFORM_FLAT_FEE: %w", err)
		}
		cfg.Payments.FlatFee = fee
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("FIREBASE_CREDENTIALS"); v != "" {
		cfg.Firebase.CredentialsFile = v
	}

	if cfg.Payments.Currency == "" {
		cfg.Payments.Currency = defaultCurrency
	}
	if cfg.Payments.FlatFee == 0 {
		cfg.Payments.FlatFee = defaultFlatFee
	}
	if len(cfg.Payments.AllowedIntervals) == 0 {
		cfg.Payments.AllowedIntervals = defaultIntervals
	}

	if cfg.Database.URL == "" {
		return Config{}, fmt.Errorf("database url is required")
	}
	if cfg.Payments.SecretKey == "" || cfg.Payments.WebhookSecret == "" {
		return Config{}, fmt.Errorf("payments configuration incomplete")
	}
	if cfg.Auth.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Payments.FlatFee < 0 {
		return Config{}, fmt.Errorf("flat fee must not be negative")
	}

	return cfg, nil
}
