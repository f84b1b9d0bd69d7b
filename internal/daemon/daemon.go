package daemon

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fitquest/fitquest/internal/api"
	"github.com/fitquest/fitquest/internal/app/gamification"
	"github.com/fitquest/fitquest/internal/health"
	"github.com/fitquest/fitquest/internal/infra/catalog"
	"github.com/fitquest/fitquest/internal/infra/sqlite"
)

// SweepInterval is how often expired challenges are removed and idle
// engines evicted.
const SweepInterval = 10 * time.Minute

// Daemon is the fitquest runtime. It wires together all services.
type Daemon struct {
	Config   Config
	DB       *sqlite.DB
	Catalog  *catalog.Catalog
	Registry *gamification.Registry
	Health   *health.Checker
	Server   *api.Server

	logFile *os.File
	cancel  context.CancelFunc
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
// A catalog defect is fatal here, before anything is served.
func NewWithConfig(cfg Config) (*Daemon, error) {
	cat, err := catalog.Load(cfg.Engine.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	db, err := sqlite.Open(cfg.Store.Dir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	reg := gamification.NewRegistry(db, gamification.Config{
		Catalog:     cat,
		MaxRetries:  cfg.Engine.MaxCASRetries,
		LootSeed:    cfg.Engine.LootSeed,
		IdleTimeout: time.Duration(cfg.Engine.IdleMinutes) * time.Minute,
	})

	hc := health.NewChecker(db, cfg.Store.Dir)

	srv := api.NewServer(reg)
	srv.SetHealth(hc)
	srv.SetCORSOrigins(cfg.API.CORSOrigins)
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}

	return &Daemon{
		Config:   cfg,
		DB:       db,
		Catalog:  cat,
		Registry: reg,
		Health:   hc,
		Server:   srv,
	}, nil
}

// redirectLog sends the standard logger to Logging.File as well as stderr.
func (d *Daemon) redirectLog() {
	path := d.Config.Logging.File
	if path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		log.Printf("[daemon] log dir: %v", err)
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		log.Printf("[daemon] open log file: %v", err)
		return
	}
	d.logFile = f
	log.SetOutput(io.MultiWriter(os.Stderr, f))
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.redirectLog()

	go d.Health.Run(ctx)
	go d.Registry.Sweep(ctx, SweepInterval)

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		_ = httpServer.Shutdown(shutdownCtx)
		_ = d.DB.Close()
	}()

	fmt.Printf("fitquest serving on http://%s\n", addr)
	fmt.Printf("  Store: %s\n", d.Config.Store.Dir)
	if d.Config.Engine.CatalogFile != "" {
		fmt.Printf("  Catalog: %s\n", d.Config.Engine.CatalogFile)
	}
	if d.Config.Telemetry.Prometheus {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
	if d.logFile != nil {
		log.SetOutput(os.Stderr)
		_ = d.logFile.Close()
	}
}
