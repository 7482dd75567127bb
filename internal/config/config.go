// Package config defines the signgate configuration file format.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the top-level signgate configuration file.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Eformsign EformsignConfig `yaml:"eformsign"`
	Database  DatabaseConfig  `yaml:"database"`
	Sync      SyncConfig      `yaml:"sync"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig controls the HTTP server behavior.
type ServerConfig struct {
	Host            string   `yaml:"host"`
	Port            int      `yaml:"port"`
	ShutdownTimeout string   `yaml:"shutdown_timeout"`
	CORSOrigins     []string `yaml:"cors_origins"`
	LoginRatePerMin int      `yaml:"login_rate_per_min"`
	EnableMetrics   bool     `yaml:"enable_metrics"`
}

// AuthConfig controls session issuance and the configured administrator.
// The admin account lives only here; it never appears in the database.
type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret"`
	AdminLoginID  string `yaml:"admin_login_id"`
	AdminPassword string `yaml:"admin_password"`
}

// EformsignConfig holds the provider endpoint and company credentials.
type EformsignConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
	SecretKey string `yaml:"secret_key"`
	CompanyID string `yaml:"company_id"`
}

// DatabaseConfig selects the member store backend. When Driver is empty
// or "sqlite", the store lives under Dir; "postgres" uses DSN.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	Dir    string `yaml:"dir"`
	DSN    string `yaml:"dsn"`
}

// SyncConfig controls the startup member import.
type SyncConfig struct {
	Members bool `yaml:"members"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads and parses a YAML configuration file. Environment variables
// referenced as ${VAR_NAME} in the file are expanded before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	content := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// Default returns a Config pre-filled with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: "30s",
			CORSOrigins:     []string{"*"},
			LoginRatePerMin: 30,
			EnableMetrics:   true,
		},
		Eformsign: EformsignConfig{
			BaseURL: "https://api.eformsign.com",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			Dir:    "./data",
		},
		Sync: SyncConfig{
			Members: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Write serializes cfg to path as YAML with 0600 permissions, since the
// file carries credentials.
func (c *Config) Write(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
