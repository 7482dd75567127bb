package cli

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/signgate/signgate/internal/eformsign"
	"github.com/signgate/signgate/internal/importer"
	"github.com/signgate/signgate/internal/metrics"
	"github.com/signgate/signgate/internal/server"
	"github.com/signgate/signgate/internal/server/middleware"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		host string
		dev  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the signgate API server",
		Long:  "Start the HTTP server that authenticates members and proxies eformsign API calls.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(dev)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (verbose logging)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(dev bool) error {
	cfg := loadConfig()
	if dev {
		cfg.Logging.Level = "debug"
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}
	logger := newLogger(cfg.Logging.Level)

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open member store: %w", err)
	}
	logger.Info("member store ready", "driver", cfg.Database.Driver)

	authSvc := newAuthService(cfg, st)

	var collector *metrics.Collector
	var rec eformsign.Recorder
	if cfg.Server.EnableMetrics {
		collector = metrics.NewCollector(prometheus.DefaultRegisterer)
		rec = collector
	}
	client := newProviderClient(cfg, logger, rec)

	if cfg.Sync.Members {
		importer.New(st, authSvc, client, cfg.Auth.AdminLoginID, logger).Run(context.Background())
	} else {
		logger.Info("member sync disabled by configuration")
	}

	srvCfg := server.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ShutdownTimeout: parseDuration(cfg.Server.ShutdownTimeout, server.DefaultConfig().ShutdownTimeout),
		CORSOrigins:     cfg.Server.CORSOrigins,
		LoginRatePerMin: cfg.Server.LoginRatePerMin,
		EnableMetrics:   cfg.Server.EnableMetrics,
	}
	var reqRec middleware.RequestRecorder
	if collector != nil {
		reqRec = collector
	}
	srv := server.New(srvCfg, st, authSvc, client, reqRec, logger)

	fmt.Printf("→ signgate\n")
	fmt.Printf("→ Listening on http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("→ OpenAPI:  http://%s:%d/openapi.json\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("→ Health:   http://%s:%d/healthz\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()

	return srv.ListenAndServe()
}
