package config

import (
	"errors"
	"fmt"
	"github.com/go-playground/validator/v10"
	"strings"
)

var validate = validator.New()

// normalize trims what users commonly get wrong before validation:
// case in enums and a trailing slash on the context path.
func normalize(cfg *Config) {
	cfg.App.LogLevel = strings.ToLower(strings.TrimSpace(cfg.App.LogLevel))
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	cfg.Server.ContextPath = strings.TrimRight(strings.TrimSpace(cfg.Server.ContextPath), "/")
	cfg.Server.EndpointPath = strings.TrimSpace(cfg.Server.EndpointPath)

	origins := cfg.Server.AllowedOrigins[:0]
	for _, o := range cfg.Server.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	cfg.Server.AllowedOrigins = origins
}

func (m *Manager) validate(cfg *Config) error {
	normalize(cfg)

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s failed on %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return err
	}

	if cfg.Server.ContextPath != "" && !strings.HasPrefix(cfg.Server.ContextPath, "/") {
		return fmt.Errorf("server.context_path must start with '/'; got %s", cfg.Server.ContextPath)
	}
	if !strings.HasPrefix(cfg.Server.EndpointPath, "/") || cfg.Server.EndpointPath == "/" {
		return fmt.Errorf("server.endpoint_path must start with '/' and name a path; got %s", cfg.Server.EndpointPath)
	}

	if cfg.Chat.RateLimit.Burst > 0 && cfg.Chat.RateLimit.Interval == 0 {
		return errors.New("chat.rate_limit.interval is required when burst is set")
	}

	switch cfg.Storage.Driver {
	case DriverMongo:
		if cfg.Storage.URI == "" {
			return errors.New("storage.uri is required for the mongo driver")
		}
		if cfg.Storage.Database == "" || cfg.Storage.Collection == "" {
			return errors.New("storage.database and storage.collection are required for the mongo driver")
		}
	case DriverMemory:
		if cfg.Storage.MemoryCapacity == 0 {
			return errors.New("storage.memory_capacity must be positive for the memory driver")
		}
	}

	return nil
}
