package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// PingFunc checks a single dependency.
type PingFunc func(ctx context.Context) error

type HealthHandler struct {
	checks  map[string]PingFunc
	timeout time.Duration
}

// NewHealthHandler takes named readiness checks, e.g. "db" and "redis".
// Nil checks are skipped.
func NewHealthHandler(checks map[string]PingFunc) *HealthHandler {
	live := make(map[string]PingFunc, len(checks))
	for name, fn := range checks {
		if fn != nil {
			live[name] = fn
		}
	}
	return &HealthHandler{checks: live, timeout: time.Second}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(ctx *gin.Context) {
	status := make(map[string]string, len(h.checks))
	ready := true

	for name, ping := range h.checks {
		pctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
		err := ping(pctx)
		cancel()

		if err != nil {
			ready = false
			status[name] = "down"
			slog.Default().WarnContext(ctx.Request.Context(), "readiness check failed", "check", name, "err", err)
			continue
		}
		status[name] = "up"
	}

	if !ready {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "checks": status})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready", "checks": status})
}
