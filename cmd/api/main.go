package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/clinic-intake/cmd/mainconfig"
	"github.com/wolfman30/clinic-intake/internal/app/bootstrap"
	appconfig "github.com/wolfman30/clinic-intake/internal/config"
)

func main() {
	// Load configuration
	cfg := mainconfig.LoadEnv()

	// Initialize logger
	logger := mainconfig.NewLogger(cfg)
	logger.Info("starting clinic-intake API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"storage_backend", cfg.StorageBackend,
		"slot_backend", cfg.SlotBackend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.BuildApp(ctx, cfg, appOptions(cfg), logger)
	if err != nil {
		logger.Error("failed to build app", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := app.Run(ctx, ":"+cfg.Port); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	fmt.Println("Server exited gracefully")
}

func appOptions(cfg *appconfig.Config) bootstrap.Options {
	return bootstrap.Options{
		Registerer: prometheus.DefaultRegisterer,
		Gatherer:   prometheus.DefaultGatherer,
		LoadAWS: func(ctx context.Context) (aws.Config, error) {
			return mainconfig.LoadAWSConfig(ctx, cfg)
		},
		WidgetJS: bootstrap.ReadWidget(os.Getenv("WEBCHAT_WIDGET_PATH")),
	}
}
