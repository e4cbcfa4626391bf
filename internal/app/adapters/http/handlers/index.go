package handlers

import (
	"github.com/gin-gonic/gin"
	"net/http"
)

func (h *Handlers) IndexHandler(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Endpoint": h.endpoint,
	})
}
