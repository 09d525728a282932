package http

import (
	"github.com/gin-gonic/gin"

	"github.com/contribhub/sync-functions/internal/triggers"
)

type RouterDeps struct {
	ServiceName   string
	Version       string
	Region        string
	TriggerSecret string
	Dispatcher    *triggers.Dispatcher
	Ledger        Pinger
	Events        EventLookup // nil when the ledger is disabled
}

// BuildRouter wires health, trigger ingress and, with a ledger, delivery lookup routes.
func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())

	healthHandler := NewHealthHandler(dep.ServiceName, dep.Version, dep.Region, dep.Ledger, dep.Dispatcher.Metrics())
	healthHandler.RegisterRoutes(r)

	v1 := r.Group("/v1")
	NewHandler(dep.Dispatcher, dep.TriggerSecret).RegisterRoutes(v1)
	if dep.Events != nil {
		NewEventsHandler(dep.Events, dep.TriggerSecret).RegisterRoutes(v1)
	}

	return r
}
