package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/clinic-intake/internal/api/router"
	"github.com/wolfman30/clinic-intake/internal/bookings"
	appconfig "github.com/wolfman30/clinic-intake/internal/config"
	"github.com/wolfman30/clinic-intake/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/clinic-intake/internal/http/middleware"
	"github.com/wolfman30/clinic-intake/internal/intake"
	"github.com/wolfman30/clinic-intake/internal/notify"
	"github.com/wolfman30/clinic-intake/internal/observability/metrics"
	"github.com/wolfman30/clinic-intake/internal/webchat"
	"github.com/wolfman30/clinic-intake/pkg/logging"
)

// Options carries what BuildApp cannot derive from Config.
type Options struct {
	// Registerer receives the intake metrics. Nil uses a fresh registry.
	Registerer prometheus.Registerer
	// Gatherer backs /metrics; it should match Registerer.
	Gatherer prometheus.Gatherer
	// LoadAWS is called only when SES or an S3 intake form is configured.
	LoadAWS AWSLoader
	// WidgetJS is served at /webchat/widget.js.
	WidgetJS []byte
}

// App is a fully wired intake service.
type App struct {
	Config   *appconfig.Config
	Stores   *Stores
	Manager  *intake.Manager
	Metrics  *metrics.IntakeMetrics
	Handler  http.Handler
	limiter  *httpmiddleware.RateLimiter
	logger   *logging.Logger
	sweepTTL time.Duration
}

// BuildApp wires stores, notification, the conversation engine and the router.
func BuildApp(ctx context.Context, cfg *appconfig.Config, opts Options, logger *logging.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if opts.Registerer == nil {
		reg := prometheus.NewRegistry()
		opts.Registerer, opts.Gatherer = reg, reg
	}

	stores, err := BuildStores(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	sender, err := BuildEmailSender(ctx, cfg, opts.LoadAWS, logger)
	if err != nil {
		stores.Close()
		return nil, err
	}
	form, err := BuildIntakeForm(ctx, cfg, opts.LoadAWS, logger)
	if err != nil {
		stores.Close()
		return nil, err
	}

	m := metrics.NewIntakeMetrics(opts.Registerer)
	notifier := notify.NewConfirmationNotifier(sender, form, cfg.ClinicName, logger)
	recorder := bookings.NewRecorder(stores.Ledger, notifier, logger)
	manager := intake.NewManager(NewEngineFactory(stores, recorder, m, cfg.ClinicName, logger), cfg.SessionIdleTTL, m, logger)

	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	routerCfg := &router.Config{
		Logger:             logger,
		Sessions:           intake.NewHandler(manager, logger),
		WebChat:            webchat.NewHandler(manager, opts.WidgetJS, logger),
		AdminDashboard:     handlers.NewAdminDashboardHandler(stores.Slots, stores.Ledger, SeedPlan(cfg), logger),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        limiter,
		Readiness:          stores.Ping,
	}
	if opts.Gatherer != nil {
		routerCfg.MetricsHandler = promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})
	}

	return &App{
		Config:   cfg,
		Stores:   stores,
		Manager:  manager,
		Metrics:  m,
		Handler:  router.New(routerCfg),
		limiter:  limiter,
		logger:   logger,
		sweepTTL: cfg.SessionIdleTTL,
	}, nil
}

// NewEngineFactory returns the per-session engine constructor.
func NewEngineFactory(stores *Stores, recorder intake.BookingRecorder, m *metrics.IntakeMetrics, clinicName string, logger *logging.Logger) func() *intake.Engine {
	return func() *intake.Engine {
		return intake.NewEngine(intake.Deps{
			Slots:      stores.Slots,
			Directory:  stores.Directory,
			Recorder:   recorder,
			Metrics:    m,
			Logger:     logger,
			ClinicName: clinicName,
		})
	}
}

// Run serves HTTP on addr until ctx is cancelled, then shuts down gracefully.
// Idle sessions and rate-limit buckets are swept in the background.
func (a *App) Run(ctx context.Context, addr string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.sweepTTL > 0 {
		go a.Manager.Run(ctx, sweepInterval(a.sweepTTL))
	}
	go a.limiter.Run(ctx, 5*time.Minute)

	srv := &http.Server{
		Addr:         addr,
		Handler:      a.Handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down server...")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 30*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("bootstrap: shutdown: %w", err)
	}
	a.logger.Info("server stopped")
	return nil
}

// Close releases store connections.
func (a *App) Close() {
	a.Stores.Close()
}

// ReadWidget loads the chat widget script; a missing file serves an empty script.
func ReadWidget(path string) []byte {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return data
}

func sweepInterval(ttl time.Duration) time.Duration {
	interval := ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	return interval
}
