package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"
)

// Manager owns the JSON config file and the effective config derived from it.
// The effective config is the file content with environment overrides applied;
// only the file content is ever written back.
type Manager struct {
	mu   sync.RWMutex
	file *Config
	cfg  *Config
	path string
}

func New(path string) (*Manager, error) {
	m := &Manager{path: path}

	file, err := m.read(path)
	if errors.Is(err, os.ErrNotExist) {
		file = Default()
		if err := m.write(file); err != nil {
			return nil, fmt.Errorf("write config: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := m.resolve(file)
	if err != nil {
		return nil, err
	}

	m.file, m.cfg = file, cfg
	return m, nil
}

// Get returns the effective config. Callers must treat it as read-only;
// Update and Reload swap the pointer instead of mutating it.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.cfg
}

func (m *Manager) Path() string {
	return m.path
}

func (m *Manager) Update(modify func(cfg *Config)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.file == nil {
		return errors.New("no config loaded")
	}

	next := clone(m.file)
	modify(next)

	cfg, err := m.resolve(next)
	if err != nil {
		return fmt.Errorf("invalid config update: %w", err)
	}
	if err := m.write(next); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	m.file, m.cfg = next, cfg
	return nil
}

// Reload re-reads the file. On error the previous config stays in effect.
func (m *Manager) Reload() (*Config, error) {
	file, err := m.read(m.path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := m.resolve(file)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.file, m.cfg = file, cfg
	m.mu.Unlock()
	return cfg, nil
}

func (m *Manager) resolve(file *Config) (*Config, error) {
	cfg := clone(file)
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := m.validate(cfg); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	return cfg, nil
}

func (m *Manager) read(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("no config path provided")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open/read config: %w", err)
	}

	// missing keys keep their defaults
	cfg := Default()
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return cfg, nil
}

func (m *Manager) write(cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if dir := filepath.Dir(m.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return writeAtomic(m.path, data, 0o644)
}

func writeAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d", base, time.Now().UnixNano()))

	if err := os.WriteFile(tmp, data, perm); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func clone(c *Config) *Config {
	cp := *c
	cp.Server.AllowedOrigins = slices.Clone(c.Server.AllowedOrigins)
	return &cp
}
