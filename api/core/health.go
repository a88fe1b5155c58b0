package core

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/anoixa/folio/cache"
	"github.com/anoixa/folio/config"
	"github.com/anoixa/folio/database"
	"github.com/anoixa/folio/storage"
)

// HealthHandler GET /health
type HealthHandler struct {
	db      *gorm.DB
	storage storage.Provider
	cache   cache.Provider
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(db *gorm.DB, provider storage.Provider, c cache.Provider) *HealthHandler {
	return &HealthHandler{db: db, storage: provider, cache: c}
}

// Handle 任一检查失败时返回 503
func (h *HealthHandler) Handle(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := gin.H{
		"database": h.checkDatabase(ctx),
		"storage":  h.checkStorage(ctx),
		"cache":    h.checkCache(),
	}

	status := http.StatusOK
	for _, result := range checks {
		if result != "ok" {
			status = http.StatusServiceUnavailable
			break
		}
	}

	c.JSON(status, gin.H{
		"status":  http.StatusText(status),
		"uptime":  time.Since(startTime).Round(time.Second).String(),
		"version": config.Version,
		"checks":  checks,
	})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) string {
	if h.db == nil {
		return "not initialized"
	}
	if err := database.Ping(ctx, h.db); err != nil {
		return "unavailable: " + err.Error()
	}
	return "ok"
}

func (h *HealthHandler) checkStorage(ctx context.Context) string {
	if h.storage == nil {
		return "not initialized"
	}
	if err := h.storage.Health(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}

func (h *HealthHandler) checkCache() string {
	if h.cache == nil {
		return "not initialized"
	}
	return "ok"
}
