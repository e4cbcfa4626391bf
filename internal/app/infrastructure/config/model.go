package config

type Config struct {
	App     App     `json:"app"`
	Server  Server  `json:"server"`
	Chat    Chat    `json:"chat"`
	Storage Storage `json:"storage"`
	Metrics Metrics `json:"metrics"`
}

type App struct {
	LogLevel string `json:"log_level" validate:"oneof=trace debug info warn error fatal"`
	GinMode  string `json:"gin_mode" validate:"oneof=debug release test"`
	Log      Log    `json:"log"`
}

// Log - rotating JSON log file. An empty File disables the file sink.
type Log struct {
	File       string `json:"file"`
	MaxSizeMB  int    `json:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `json:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `json:"max_age_days" validate:"gte=0"`
	Compress   bool   `json:"compress"`
}

type Server struct {
	Host              string   `json:"host"`
	Port              int      `json:"port" validate:"min=1,max=65535"`
	ContextPath       string   `json:"context_path"`
	EndpointPath      string   `json:"endpoint_path" validate:"required"`
	AllowedOrigins    []string `json:"allowed_origins" validate:"min=1"`
	ReadHeaderTimeout Duration `json:"read_header_timeout" validate:"gt=0"`
	ShutdownTimeout   Duration `json:"shutdown_timeout" validate:"gt=0"`
}

type Chat struct {
	HistoryLimit   int       `json:"history_limit" validate:"min=1"`
	MaxMessageSize int64     `json:"max_message_size" validate:"min=64"`
	WriteTimeout   Duration  `json:"write_timeout" validate:"gt=0"`
	PongTimeout    Duration  `json:"pong_timeout" validate:"gt=0"`
	PingInterval   Duration  `json:"ping_interval" validate:"gt=0,ltfield=PongTimeout"`
	RateLimit      RateLimit `json:"rate_limit"`
}

// RateLimit - at most Burst inbound frames per Interval and connection.
// Zero Burst disables the limiter.
type RateLimit struct {
	Burst    int      `json:"burst" validate:"gte=0"`
	Interval Duration `json:"interval" validate:"gte=0"`
}

type Storage struct {
	Driver         string   `json:"driver" validate:"oneof=mongo sqlite badger memory none"`
	URI            string   `json:"uri"`
	Database       string   `json:"database"`
	Collection     string   `json:"collection"`
	Path           string   `json:"path"`
	MemoryCapacity int      `json:"memory_capacity" validate:"gte=0"`
	ConnectTimeout Duration `json:"connect_timeout" validate:"gt=0"`
	Timeout        Duration `json:"timeout" validate:"gt=0"`
	CacheTTL       Duration `json:"cache_ttl" validate:"gte=0"`
}

type Metrics struct {
	Enabled bool   `json:"enabled"`
	User    string `json:"user"`
	Token   string `json:"token"`
}
