package http

import (
	"chatrelay/internal/app/adapters/http/handlers"
	"chatrelay/internal/app/adapters/http/middlewares"
	"chatrelay/internal/app/infrastructure/config"
	"chatrelay/internal/app/ports"
	"chatrelay/pkg/logger"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"log/slog"
	"net/http"
	"time"
)

type Router struct {
	router      *gin.Engine
	handlers    *handlers.Handlers
	middlewares *middlewares.Middlewares

	log logger.Logger
	cfg *config.Config
}

// NewRouter mounts the chat endpoint at {context}{endpoint} and the browser
// client at {context}/. Health, metrics and profiling live at the root.
func NewRouter(log logger.Logger, cfg *config.Config, chat http.Handler, sessions handlers.SessionCounter, store ports.MessageStore) *Router {
	endpoint := cfg.Server.ContextPath + cfg.Server.EndpointPath

	r := &Router{
		router:      gin.New(),
		handlers:    handlers.New(log, sessions, store, endpoint),
		middlewares: middlewares.New(log),
		log:         log,
		cfg:         cfg,
	}
	r.router.Use(gin.Recovery(), r.middlewares.AccessLog())
	r.router.SetHTMLTemplate(handlers.Template())

	group := r.router.Group(cfg.Server.ContextPath)
	group.GET(cfg.Server.EndpointPath, gin.WrapH(chat))
	group.GET("/", r.handlers.IndexHandler)
	group.StaticFileFS("/scripts.js", "scripts.js", http.FS(handlers.Static()))

	r.router.GET("/health", r.handlers.HealthHandler)
	r.registerMetrics()

	log.Info("Routes registered",
		slog.String("chat", endpoint),
		slog.String("page", cfg.Server.ContextPath+"/"),
	)
	return r
}

// registerMetrics exposes /metrics and, only behind a token, pprof.
func (r *Router) registerMetrics() {
	m := r.cfg.Metrics
	if !m.Enabled {
		return
	}

	if m.Token == "" {
		r.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
		r.log.Debug("Metrics exposed without auth, profiling disabled")
		return
	}

	auth := r.middlewares.Auth(m.User, m.Token)
	r.router.GET("/metrics", auth, gin.WrapH(promhttp.Handler()))
	pprof.Register(r.router.Group("/", auth))
}

func (r *Router) Handler() http.Handler {
	return r.router
}

func (r *Router) NewServer() *http.Server {
	return newServer(r.cfg.Server.Addr(), r.router, r.cfg.Server.ReadHeaderTimeout.Std())
}

// WriteTimeout stays above pprof's default 30s profile; WebSocket writes
// carry their own deadlines once upgraded.
func newServer(addr string, handler http.Handler, readHeaderTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
