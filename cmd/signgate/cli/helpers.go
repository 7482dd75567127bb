package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/signgate/signgate/internal/auth"
	"github.com/signgate/signgate/internal/config"
	"github.com/signgate/signgate/internal/eformsign"
	"github.com/signgate/signgate/internal/store"
)

// loadConfig builds the effective configuration from defaults, the config
// file read by viper, and SIGNGATE_* environment variables.
func loadConfig() *config.Config {
	def := config.Default()

	viper.SetDefault("server.host", def.Server.Host)
	viper.SetDefault("server.port", def.Server.Port)
	viper.SetDefault("server.shutdown_timeout", def.Server.ShutdownTimeout)
	viper.SetDefault("server.cors_origins", def.Server.CORSOrigins)
	viper.SetDefault("server.login_rate_per_min", def.Server.LoginRatePerMin)
	viper.SetDefault("server.enable_metrics", def.Server.EnableMetrics)
	viper.SetDefault("eformsign.base_url", def.Eformsign.BaseURL)
	viper.SetDefault("database.driver", def.Database.Driver)
	viper.SetDefault("database.dir", def.Database.Dir)
	viper.SetDefault("sync.members", def.Sync.Members)
	viper.SetDefault("logging.level", def.Logging.Level)

	return &config.Config{
		Server: config.ServerConfig{
			Host:            viper.GetString("server.host"),
			Port:            viper.GetInt("server.port"),
			ShutdownTimeout: viper.GetString("server.shutdown_timeout"),
			CORSOrigins:     viper.GetStringSlice("server.cors_origins"),
			LoginRatePerMin: viper.GetInt("server.login_rate_per_min"),
			EnableMetrics:   viper.GetBool("server.enable_metrics"),
		},
		Auth: config.AuthConfig{
			JWTSecret:     viper.GetString("auth.jwt_secret"),
			AdminLoginID:  viper.GetString("auth.admin_login_id"),
			AdminPassword: viper.GetString("auth.admin_password"),
		},
		Eformsign: config.EformsignConfig{
			BaseURL:   viper.GetString("eformsign.base_url"),
			APIKey:    viper.GetString("eformsign.api_key"),
			SecretKey: viper.GetString("eformsign.secret_key"),
			CompanyID: viper.GetString("eformsign.company_id"),
		},
		Database: config.DatabaseConfig{
			Driver: viper.GetString("database.driver"),
			Dir:    viper.GetString("database.dir"),
			DSN:    viper.GetString("database.dsn"),
		},
		Sync: config.SyncConfig{
			Members: viper.GetBool("sync.members"),
		},
		Logging: config.LoggingConfig{
			Level: viper.GetString("logging.level"),
		},
	}
}

// validateConfig rejects configurations that cannot serve requests.
func validateConfig(cfg *config.Config) error {
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required (set SIGNGATE_AUTH_JWT_SECRET or edit the config file)")
	}
	if cfg.Auth.AdminLoginID == "" || cfg.Auth.AdminPassword == "" {
		return fmt.Errorf("auth.admin_login_id and auth.admin_password are required")
	}
	if cfg.Eformsign.APIKey == "" || cfg.Eformsign.SecretKey == "" {
		return fmt.Errorf("eformsign.api_key and eformsign.secret_key are required")
	}
	return nil
}

// newLogger builds the process logger writing to stderr at the configured
// level.
func newLogger(level string) *slog.Logger {
	return newLoggerTo(os.Stderr, level)
}

func newLoggerTo(w io.Writer, level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}

// openStore opens the member store selected by the configuration.
func openStore(cfg *config.Config) (*store.Store, error) {
	if cfg.Database.Driver == store.DriverPostgres {
		return store.Open(store.DriverPostgres, cfg.Database.DSN)
	}
	return store.OpenDir(cfg.Database.Dir)
}

// newAuthService wires the authentication service from configuration.
func newAuthService(cfg *config.Config, st *store.Store) *auth.Service {
	return auth.New(st, auth.AdminIdentity{
		LoginID:  cfg.Auth.AdminLoginID,
		Password: cfg.Auth.AdminPassword,
	}, cfg.Auth.JWTSecret)
}

// newProviderClient wires the eformsign client from configuration. rec may
// be nil.
func newProviderClient(cfg *config.Config, logger *slog.Logger, rec eformsign.Recorder) *eformsign.Client {
	return eformsign.New(eformsign.Config{
		BaseURL:   cfg.Eformsign.BaseURL,
		APIKey:    cfg.Eformsign.APIKey,
		SecretKey: cfg.Eformsign.SecretKey,
		CompanyID: cfg.Eformsign.CompanyID,
	}, logger, rec)
}

// parseDuration parses a duration string, falling back to def on error.
func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
