package config

import (
	"net"
	"strconv"
	"time"
)

const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
	DriverBadger = "badger"
	DriverMemory = "memory"
	DriverNone   = "none"
)

func Default() *Config {
	return &Config{
		App: App{
			LogLevel: "info",
			GinMode:  "release",
			Log: Log{
				File:       "logs/chat.log",
				MaxSizeMB:  64,
				MaxBackups: 8,
				MaxAgeDays: 30,
				Compress:   true,
			},
		},
		Server: Server{
			Host:              "0.0.0.0",
			Port:              8080,
			ContextPath:       "/chat-backend",
			EndpointPath:      "/chat",
			AllowedOrigins:    []string{"*"},
			ReadHeaderTimeout: Duration(5 * time.Second),
			ShutdownTimeout:   Duration(10 * time.Second),
		},
		Chat: Chat{
			HistoryLimit:   25,
			MaxMessageSize: 4096,
			WriteTimeout:   Duration(10 * time.Second),
			PongTimeout:    Duration(60 * time.Second),
			PingInterval:   Duration(54 * time.Second),
			RateLimit: RateLimit{
				Burst:    5,
				Interval: Duration(time.Second),
			},
		},
		Storage: Storage{
			Driver:         DriverMongo,
			URI:            "mongodb://localhost:27017",
			Database:       "chatdb",
			Collection:     "messages",
			MemoryCapacity: 1000,
			ConnectTimeout: Duration(5 * time.Second),
			Timeout:        Duration(5 * time.Second),
			CacheTTL:       Duration(30 * time.Second),
		},
		Metrics: Metrics{
			Enabled: true,
			User:    "metrics",
		},
	}
}

// StoragePath returns the on-disk location for file based drivers,
// falling back to a per-driver default when none is configured.
func (s Storage) StoragePath() string {
	if s.Path != "" {
		return s.Path
	}

	switch s.Driver {
	case DriverSQLite:
		return "data/chat.db"
	case DriverBadger:
		return "data/badger"
	}
	return ""
}

func (s Server) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
