package middlewares

import (
	"github.com/gin-gonic/gin"
	"log/slog"
	"net/http"
	"time"
)

func (m *Middlewares) AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		args := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("remote", c.ClientIP()),
		}

		switch {
		case status >= http.StatusInternalServerError:
			m.log.Warn("HTTP request failed", args...)
		case status == http.StatusSwitchingProtocols:
			// upgraded connections are logged by the session lifecycle
		default:
			m.log.Debug("HTTP request", args...)
		}
	}
}
