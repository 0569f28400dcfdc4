package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/julienschmidt/httprouter"

	"staybook/pkg/config"
	"staybook/pkg/contracts"
	"staybook/pkg/metrics"
	"staybook/pkg/middleware"
)

type closer struct {
	name string
	c    io.Closer
}

type Application struct {
	cfg              *config.Config
	server           *http.Server
	idempotencyStore *middleware.InMemoryIdempotencyStore
	rateLimiter      *middleware.ClientRateLimiter
	healthHandler    http.Handler
	appHttpHandler   http.Handler
	metricsHandler   http.Handler

	workerCtx    context.Context
	stopWorkers  context.CancelFunc
	workers      sync.WaitGroup
	closers      []closer
	shutdownFunc []func(ctx context.Context)
}

func NewApplication() *Application {
	ctx, cancel := context.WithCancel(context.Background())
	return &Application{workerCtx: ctx, stopWorkers: cancel}
}

func (a *Application) SetApp(cfg *config.Config, appHandler, healthHandler contracts.Handler, m *metrics.Metrics) {
	a.cfg = cfg
	a.setHealthHandler(cfg, healthHandler, m)
	a.setAppHandler(cfg, appHandler, m)
	if m != nil {
		a.metricsHandler = m.Handler()
	}
	a.setAppServer()
}

// Handler is the fully wrapped mux, for tests and embedding.
func (a *Application) Handler() http.Handler {
	return a.server.Handler
}

// Go runs a background worker until shutdown cancels its context.
func (a *Application) Go(name string, fn func(ctx context.Context) error) {
	a.workers.Add(1)
	go func() {
		defer a.workers.Done()
		a.cfg.Log.Info("Background worker started", "worker", name)
		if err := fn(a.workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			a.cfg.Log.Error("Background worker stopped with error", "worker", name, "error", err)
			return
		}
		a.cfg.Log.Info("Background worker stopped", "worker", name)
	}()
}

// Close registers c to be closed after the server and workers stop, in
// reverse registration order.
func (a *Application) Close(name string, c io.Closer) {
	a.closers = append(a.closers, closer{name: name, c: c})
}

func (a *Application) OnShutdown(fn func(ctx context.Context)) {
	a.shutdownFunc = append(a.shutdownFunc, fn)
}

func (a *Application) setHealthHandler(cfg *config.Config, healthHandler contracts.Handler, m *metrics.Metrics) {
	healthRouter := httprouter.New()
	healthHandler.RegisterRoutes(healthRouter)

	var healthHTTPHandler http.Handler = healthRouter
	healthHTTPHandler = middleware.RequestLogging(cfg.Log, m)(healthHTTPHandler)
	healthHTTPHandler = middleware.Recovery(cfg.Log)(healthHTTPHandler)
	a.healthHandler = healthHTTPHandler
	cfg.Log.Info("Health endpoints configured with minimal middleware (Recovery + Logging only)")
}

func (a *Application) setAppHandler(cfg *config.Config, appHandler contracts.Handler, m *metrics.Metrics) {
	appRouter := httprouter.New()
	appHandler.RegisterRoutes(appRouter)

	a.idempotencyStore = middleware.NewInMemoryIdempotencyStore(cfg.IdempotencyTTL)
	a.rateLimiter = middleware.NewClientRateLimiter(
		cfg.RateLimitRequests,
		cfg.RateLimitWindow,
		middleware.DefaultKeyExtractor,
		cfg.Log,
	)

	var appHttpHandler http.Handler = appRouter
	appHttpHandler = middleware.Idempotency(a.idempotencyStore)(appHttpHandler)
	appHttpHandler = middleware.RequestTimeout(cfg.RequestTimeout)(appHttpHandler)
	appHttpHandler = middleware.RateLimit(a.rateLimiter)(appHttpHandler)
	appHttpHandler = middleware.ContentTypeValidation(cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.MaxRequestSize(int64(cfg.MaxRequestSize))(appHttpHandler)
	appHttpHandler = middleware.RequestLogging(cfg.Log, m)(appHttpHandler)
	appHttpHandler = middleware.Recovery(cfg.Log)(appHttpHandler)
	a.appHttpHandler = appHttpHandler
	cfg.Log.Info("Application endpoints configured with full middleware stack")
}

func (a *Application) setAppServer() {
	mux := http.NewServeMux()
	mux.Handle("/health", a.healthHandler)
	mux.Handle("/ready", a.healthHandler)
	if a.metricsHandler != nil {
		mux.Handle("/metrics", a.metricsHandler)
	}
	mux.Handle("/", a.appHttpHandler)

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      mux,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}

	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Port)
}

func (a *Application) Run() {
	serverErrors := make(chan error, 1)

	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		a.cfg.Log.Fatal("HTTP server failed", "error", err)

	case sig := <-shutdown:
		a.cfg.Log.Info("Shutdown signal received", "signal", sig)
		a.gracefulShutdown()
	}
}

func (a *Application) gracefulShutdown() {
	a.cfg.Log.Info("Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Fatal("Could not stop server gracefully", "error", err)
		}
	}

	a.cfg.Log.Info("Stopping background workers...")
	a.stopWorkers()
	a.workers.Wait()
	a.idempotencyStore.Stop()
	a.rateLimiter.Stop()
	a.cfg.Log.Info("Background workers stopped")

	for _, fn := range a.shutdownFunc {
		fn(ctx)
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].c.Close(); err != nil {
			a.cfg.Log.Error("Failed to close resource", "resource", a.closers[i].name, "error", err)
		}
	}

	a.cfg.Log.Info("Server stopped gracefully")
}
