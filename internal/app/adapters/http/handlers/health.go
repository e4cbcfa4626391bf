package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/cpu"
	"net/http"
	"runtime"
	"time"
)

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

type Health struct {
	Status     string      `json:"status"`
	Sessions   int         `json:"sessions"`
	Store      StoreHealth `json:"store"`
	Uptime     string      `json:"uptime"`
	CPUPercent float64     `json:"cpu_percent"`
	MemoryMB   uint64      `json:"memory_mb"`
	Goroutines int         `json:"goroutines"`
}

type StoreHealth struct {
	Available bool `json:"available"`
}

// HealthHandler answers 200 even when the store is down: the relay still
// broadcasts live traffic, only history is missing.
func (h *Handlers) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.health())
}

func (h *Handlers) health() Health {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	var cpuPercent float64
	if percent, err := cpu.Percent(0, false); err == nil && len(percent) > 0 {
		cpuPercent = percent[0]
	}

	status := StatusOK
	available := h.store.Available()
	if !available {
		status = StatusDegraded
	}

	return Health{
		Status:     status,
		Sessions:   h.sessions.Len(),
		Store:      StoreHealth{Available: available},
		Uptime:     time.Since(h.started).Truncate(time.Second).String(),
		CPUPercent: cpuPercent,
		MemoryMB:   m.Sys / 1024 / 1024,
		Goroutines: runtime.NumGoroutine(),
	}
}
