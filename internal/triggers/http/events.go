package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/contribhub/sync-functions/internal/triggers/ledger"
)

// EventLookup reads delivery records. *ledger.RedisLedger satisfies it.
type EventLookup interface {
	Get(ctx context.Context, eventID string) (*ledger.Record, error)
}

// EventsHandler reports how often an event was delivered and how the last attempt ended.
type EventsHandler struct {
	events        EventLookup
	triggerSecret string
}

func NewEventsHandler(events EventLookup, triggerSecret string) *EventsHandler {
	return &EventsHandler{events: events, triggerSecret: triggerSecret}
}

func (h *EventsHandler) GetEvent(c *gin.Context) {
	if !authorized(c, h.triggerSecret) {
		return
	}

	eventID := c.Param("eventId")
	rec, err := h.events.Get(c.Request.Context(), eventID)
	if err != nil {
		if errors.Is(err, ledger.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "event not found"})
			return
		}
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("event_id", eventID).Msg("ledger lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, rec)
}

func (h *EventsHandler) RegisterRoutes(rg gin.IRouter) {
	rg.GET("/events/:eventId", h.GetEvent)
}
