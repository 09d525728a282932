package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/contribhub/sync-functions/internal/triggers"
)

// Pinger reports dependency reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthResponse struct {
	Status    string                           `json:"status"`
	Timestamp time.Time                        `json:"timestamp"`
	Service   string                           `json:"service"`
	Version   string                           `json:"version"`
	Region    string                           `json:"region,omitempty"`
	Ledger    string                           `json:"ledger"`
	Triggers  map[string]triggers.TriggerStats `json:"triggers,omitempty"`
}

type HealthHandler struct {
	serviceName string
	version     string
	region      string
	ledger      Pinger
	metrics     *triggers.Metrics
}

// NewHealthHandler creates the health endpoint. ledger and metrics may be nil.
func NewHealthHandler(serviceName, version, region string, ledger Pinger, metrics *triggers.Metrics) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		region:      region,
		ledger:      ledger,
		metrics:     metrics,
	}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ledgerStatus := "disabled"
	if h.ledger != nil {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		if err := h.ledger.Ping(pingCtx); err != nil {
			ledgerStatus = "down"
		} else {
			ledgerStatus = "up"
		}
	}

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		Region:    h.region,
		Ledger:    ledgerStatus,
	}
	if h.metrics != nil {
		resp.Triggers = h.metrics.Snapshot()
	}

	c.JSON(http.StatusOK, resp)
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}
