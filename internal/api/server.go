// Package api exposes the in-memory pool over HTTP.
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hhlyyng/animesub/internal/pool"
)

const (
	defaultRandomCount = 12
	maxRandomCount     = 50
)

// Handler serves the pool endpoints.
type Handler struct {
	pool *pool.Service
}

// NewHandler creates a handler backed by the given pool service.
func NewHandler(service *pool.Service) *Handler {
	return &Handler{pool: service}
}

// RegisterRoutes mounts the pool endpoints on rg.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/random", h.random) // GET /api/pool/random?count=12
	rg.GET("/status", h.status) // GET /api/pool/status
}

// NewRouter builds the HTTP router for the service.
func NewRouter(service *pool.Service) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	h := NewHandler(service)
	h.RegisterRoutes(r.Group("/api/pool"))
	return r
}

func (h *Handler) random(c *gin.Context) {
	count := parseInt(c.Query("count"), defaultRandomCount)
	if count < 1 {
		count = defaultRandomCount
	}
	if count > maxRandomCount {
		count = maxRandomCount
	}

	items := h.pool.Random(count)
	if items == nil {
		items = []pool.Record{}
	}
	c.JSON(http.StatusOK, gin.H{
		"count": len(items),
		"items": items,
	})
}

func (h *Handler) status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"size":     h.pool.Size(),
		"building": h.pool.Building(),
	})
}

func parseInt(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
