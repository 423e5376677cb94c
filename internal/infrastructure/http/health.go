package http

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/yukikm/subly/internal/domain"
	"github.com/yukikm/subly/internal/infrastructure/http/server"
	"github.com/yukikm/subly/pkg/httputil"
)

// HealthStatus represents the overall health status
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// ComponentHealth represents health status of a single component
type ComponentHealth struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// HealthResponse represents the JSON response for health check
type HealthResponse struct {
	Status     HealthStatus      `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components []ComponentHealth `json:"components"`
}

// HealthHandler reports store reachability and whether billing is paused
type HealthHandler struct {
	store  domain.Store
	logger zerolog.Logger
}

func NewHealthHandler(store domain.Store, logger zerolog.Logger) *HealthHandler {
	return &HealthHandler{store: store, logger: logger}
}

func RegisterHealthRoute(srv *server.Server, h *HealthHandler) {
	srv.Router.GET("/health", h.Handle)
}

func (h *HealthHandler) Handle(ctx *fasthttp.RequestCtx) {
	checkCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	components := h.checkComponents(checkCtx)
	status := determineOverallStatus(components)

	logEvent := h.logger.Debug()
	if status != HealthStatusHealthy {
		logEvent = h.logger.Warn()
	}
	logEvent.
		Str("status", string(status)).
		Interface("components", components).
		Msg("Health check completed")

	httputil.WriteHealthResponse(ctx, HealthResponse{
		Status:     status,
		Timestamp:  time.Now().UTC(),
		Components: components,
	}, status != HealthStatusUnhealthy)
}

func (h *HealthHandler) checkComponents(ctx context.Context) []ComponentHealth {
	cfg, err := h.store.Reader().Protocol().Get(ctx)
	if err != nil {
		return []ComponentHealth{
			{Name: "store", Healthy: false, Message: err.Error()},
			{Name: "billing", Healthy: false, Message: "protocol state unavailable"},
		}
	}

	billing := ComponentHealth{Name: "billing", Healthy: !cfg.Paused}
	if cfg.Paused {
		billing.Message = "protocol is paused"
	}

	return []ComponentHealth{
		{Name: "store", Healthy: true},
		billing,
	}
}

func determineOverallStatus(components []ComponentHealth) HealthStatus {
	allHealthy := true
	anyHealthy := false

	for _, component := range components {
		if !component.Healthy {
			allHealthy = false
		} else {
			anyHealthy = true
		}
	}

	if allHealthy {
		return HealthStatusHealthy
	} else if anyHealthy {
		return HealthStatusDegraded
	}
	return HealthStatusUnhealthy
}
