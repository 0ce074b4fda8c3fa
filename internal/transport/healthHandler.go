package transport

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/ds124wfegd/innonet-bff/internal/service"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck pings one infrastructure dependency.
type HealthCheck func(ctx context.Context) error

// StatsProvider is a background worker that reports its counters.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

type HealthHandler struct {
	sessionService service.SessionService
	checks         map[string]HealthCheck
	workers        []StatsProvider
}

func NewHealthHandler(sessionService service.SessionService, checks map[string]HealthCheck, workers ...StatsProvider) *HealthHandler {
	if checks == nil {
		checks = map[string]HealthCheck{}
	}
	return &HealthHandler{
		sessionService: sessionService,
		checks:         checks,
		workers:        workers,
	}
}

// Health answers 200 while every configured dependency responds, 503 otherwise.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status, code := "healthy", http.StatusOK
	deps := gin.H{}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			deps[name] = err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	body := gin.H{
		"status":       status,
		"service":      "innonet-bff",
		"timestamp":    time.Now().Format(time.RFC3339),
		"dependencies": deps,
		"sessions":     h.sessionService.Count(),
	}

	if stats, err := h.sessionService.MutationStats(ctx); err != nil {
		body["mutations"] = gin.H{"error": err.Error()}
	} else {
		body["mutations"] = stats
	}

	workers := make([]map[string]interface{}, 0, len(h.workers))
	for _, w := range h.workers {
		workers = append(workers, w.GetStats())
	}
	body["workers"] = workers

	c.JSON(code, body)
}
