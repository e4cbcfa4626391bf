package config

import (
	"chatrelay/pkg/logger"
	"context"
	"fmt"
	"github.com/fsnotify/fsnotify"
	"log/slog"
	"path/filepath"
	"time"
)

const watchDebounce = 250 * time.Millisecond

// Watch reloads the config whenever its file changes and hands the new effective
// config to onChange. Editors emit several events per save; they collapse into one reload.
// The watcher stops when ctx is done.
func (m *Manager) Watch(ctx context.Context, log logger.Logger, onChange func(*Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	// the directory, not the file: atomic writes replace the inode
	dir := filepath.Dir(m.path)
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	go m.watchLoop(ctx, w, log, onChange)
	return nil
}

func (m *Manager) watchLoop(ctx context.Context, w *fsnotify.Watcher, log logger.Logger, onChange func(*Config)) {
	defer w.Close()

	name := filepath.Base(m.path)
	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			log.Debug("Config change detected", slog.String("path", m.path), slog.String("op", ev.Op.String()))
			timer.Reset(watchDebounce)

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			log.Warn("Config watcher error", slog.String("error", err.Error()))

		case <-timer.C:
			cfg, err := m.Reload()
			if err != nil {
				log.Error("Failed to reload config, keeping previous", err, slog.String("path", m.path))
				continue
			}
			log.Info("Config reloaded", slog.String("path", m.path))
			onChange(cfg)
		}
	}
}
