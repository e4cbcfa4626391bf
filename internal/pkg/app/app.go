package app

import (
	router "chatrelay/internal/app/adapters/http"
	"chatrelay/internal/app/adapters/ws"
	"chatrelay/internal/app/domain/endpoint"
	"chatrelay/internal/app/domain/registry"
	"chatrelay/internal/app/infrastructure/config"
	"chatrelay/internal/app/infrastructure/storage"
	"chatrelay/internal/app/ports"
	"chatrelay/pkg/logger"
	"context"
	"errors"
	"fmt"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

const defaultConfigPath = "config.json"

type App struct {
	log     *logger.SlogLogger
	manager *config.Manager
	cfg     *config.Config

	registry *registry.Registry
	store    ports.MessageStore
	chat     *ws.Handler
	router   *router.Router
	server   *http.Server
}

// Run is the process entry point: it builds the relay, serves until SIGINT or
// SIGTERM, then shuts down gracefully.
func Run() error {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path := os.Getenv("CHAT_CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}

	manager, err := config.New(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	a, err := New(ctx, manager)
	if err != nil {
		return err
	}
	return a.Serve(ctx)
}

// New wires config → logger → store → registry → endpoint → transport → router.
func New(ctx context.Context, manager *config.Manager) (*App, error) {
	cfg := manager.Get()

	log := logger.New(logger.Options{
		Level:      cfg.App.LogLevel,
		Filename:   cfg.App.Log.File,
		MaxSizeMB:  cfg.App.Log.MaxSizeMB,
		MaxBackups: cfg.App.Log.MaxBackups,
		MaxAgeDays: cfg.App.Log.MaxAgeDays,
		Compress:   cfg.App.Log.Compress,
	})
	gin.SetMode(cfg.App.GinMode)

	store, err := storage.Open(ctx, cfg.Storage, logger.NewPrefixedLogger(log, "storage"))
	if err != nil {
		_ = log.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}

	reg := registry.New(logger.NewPrefixedLogger(log, "registry"))
	ep := endpoint.New(logger.NewPrefixedLogger(log, "endpoint"), reg, store, endpoint.Options{
		HistoryLimit: cfg.Chat.HistoryLimit,
	})

	chat := ws.NewHandler(logger.NewPrefixedLogger(log, "ws"), ep, ws.NewOriginPolicy(cfg.Server.AllowedOrigins), ws.Options{
		MaxMessageSize: cfg.Chat.MaxMessageSize,
		WriteTimeout:   cfg.Chat.WriteTimeout.Std(),
		PongTimeout:    cfg.Chat.PongTimeout.Std(),
		PingInterval:   cfg.Chat.PingInterval.Std(),
		RateBurst:      cfg.Chat.RateLimit.Burst,
		RateInterval:   cfg.Chat.RateLimit.Interval.Std(),
	})

	r := router.NewRouter(logger.NewPrefixedLogger(log, "http"), cfg, chat, reg, store)

	a := &App{
		log:      log,
		manager:  manager,
		cfg:      cfg,
		registry: reg,
		store:    store,
		chat:     chat,
		router:   r,
		server:   r.NewServer(),
	}

	if err := manager.Watch(ctx, log, a.onConfigChange); err != nil {
		log.Warn("Config hot reload disabled", slog.String("error", err.Error()))
	}
	return a, nil
}

// onConfigChange applies what can change at runtime. Everything else needs a restart.
func (a *App) onConfigChange(cfg *config.Config) {
	if cfg.App.LogLevel != a.log.GetLogLevel() {
		a.log.SetLogLevel(cfg.App.LogLevel)
		a.log.Info("Log level changed", slog.String("level", cfg.App.LogLevel))
	}
}

func (a *App) Handler() http.Handler {
	return a.router.Handler()
}

func (a *App) Store() ports.MessageStore {
	return a.store
}

// Serve listens until ctx is done or the listener fails, then shuts down.
func (a *App) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.log.Info("Chat server started",
			slog.String("addr", a.server.Addr),
			slog.String("endpoint", a.cfg.Server.ContextPath+a.cfg.Server.EndpointPath),
			slog.Bool("store_available", a.store.Available()),
		)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case err := <-errCh:
		if err != nil {
			serveErr = fmt.Errorf("listen %s: %w", a.server.Addr, err)
			a.log.Error("Chat server failed", err)
		}
	case <-ctx.Done():
		a.log.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout.Std())
	defer cancel()

	return errors.Join(serveErr, a.Shutdown(shutdownCtx))
}

// Shutdown stops accepting connections, closes every session, waits for
// their read loops and finally closes the store.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error

	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	closed := a.registry.CloseAll()
	if err := a.chat.Wait(ctx); err != nil {
		errs = append(errs, fmt.Errorf("wait for sessions: %w", err))
	}

	if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}

	a.log.Info("Chat server stopped", slog.Int("sessions_closed", closed))
	_ = a.log.Close()

	return errors.Join(errs...)
}
