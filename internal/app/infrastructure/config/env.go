package config

import (
	"fmt"
	"github.com/kelseyhightower/envconfig"
)

// env lists every setting that may be overridden from the environment.
// Fields are pre-filled from the file so unset variables keep the file value.
type env struct {
	LogLevel       string   `envconfig:"CHAT_LOG_LEVEL"`
	GinMode        string   `envconfig:"GIN_MODE"`
	Host           string   `envconfig:"CHAT_SERVER_HOST"`
	Port           int      `envconfig:"CHAT_SERVER_PORT"`
	ContextPath    string   `envconfig:"CHAT_SERVER_CONTEXT"`
	AllowedOrigins []string `envconfig:"CHAT_ALLOWED_ORIGINS"`
	HistoryLimit   int      `envconfig:"CHAT_HISTORY_LIMIT"`
	Driver         string   `envconfig:"CHAT_STORAGE_DRIVER"`
	URI            string   `envconfig:"MONGODB_URI"`
	Database       string   `envconfig:"CHAT_DB_NAME"`
	Collection     string   `envconfig:"CHAT_COLLECTION_NAME"`
	Path           string   `envconfig:"CHAT_STORAGE_PATH"`
	MetricsToken   string   `envconfig:"CHAT_METRICS_TOKEN"`
}

func applyEnv(cfg *Config) error {
	e := env{
		LogLevel:       cfg.App.LogLevel,
		GinMode:        cfg.App.GinMode,
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ContextPath:    cfg.Server.ContextPath,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		HistoryLimit:   cfg.Chat.HistoryLimit,
		Driver:         cfg.Storage.Driver,
		URI:            cfg.Storage.URI,
		Database:       cfg.Storage.Database,
		Collection:     cfg.Storage.Collection,
		Path:           cfg.Storage.Path,
		MetricsToken:   cfg.Metrics.Token,
	}

	if err := envconfig.Process("", &e); err != nil {
		return fmt.Errorf("env overrides: %w", err)
	}

	cfg.App.LogLevel = e.LogLevel
	cfg.App.GinMode = e.GinMode
	cfg.Server.Host = e.Host
	cfg.Server.Port = e.Port
	cfg.Server.ContextPath = e.ContextPath
	cfg.Server.AllowedOrigins = e.AllowedOrigins
	cfg.Chat.HistoryLimit = e.HistoryLimit
	cfg.Storage.Driver = e.Driver
	cfg.Storage.URI = e.URI
	cfg.Storage.Database = e.Database
	cfg.Storage.Collection = e.Collection
	cfg.Storage.Path = e.Path
	cfg.Metrics.Token = e.MetricsToken
	return nil
}
