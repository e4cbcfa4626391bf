package handlers

import (
	"chatrelay/internal/app/ports"
	"chatrelay/pkg/logger"
	"embed"
	"html/template"
	"io/fs"
	"time"
)

//go:embed assets
var assets embed.FS

// SessionCounter - anything that knows how many sessions are live.
type SessionCounter interface {
	Len() int
}

type Handlers struct {
	log      logger.Logger
	sessions SessionCounter
	store    ports.MessageStore
	endpoint string
	started  time.Time
}

// New wires the handlers. endpoint is the absolute WebSocket path the page connects to.
func New(log logger.Logger, sessions SessionCounter, store ports.MessageStore, endpoint string) *Handlers {
	return &Handlers{
		log:      log,
		sessions: sessions,
		store:    store,
		endpoint: endpoint,
		started:  time.Now(),
	}
}

// Template - the page templates, for gin's HTML renderer.
func Template() *template.Template {
	return template.Must(template.ParseFS(assets, "assets/*.html"))
}

// Static - the page's static files (scripts, styles).
func Static() fs.FS {
	sub, err := fs.Sub(assets, "assets")
	if err != nil {
		panic(err)
	}
	return sub
}
