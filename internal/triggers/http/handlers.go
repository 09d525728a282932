package http

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/contribhub/sync-functions/internal/triggers"
)

const secretHeader = "X-Trigger-Secret"

// Handler exposes the trigger dispatcher to the hosting infrastructure.
type Handler struct {
	dispatcher    *triggers.Dispatcher
	triggerSecret string
}

func NewHandler(dispatcher *triggers.Dispatcher, triggerSecret string) *Handler {
	return &Handler{
		dispatcher:    dispatcher,
		triggerSecret: triggerSecret,
	}
}

// HandleTrigger runs one trigger event. Non-2xx responses other than 400/401/404
// ask the host to redeliver.
func (h *Handler) HandleTrigger(c *gin.Context) {
	if !authorized(c, h.triggerSecret) {
		return
	}

	trigger, err := triggers.ParseTrigger(c.Param("trigger"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
		return
	}

	var env triggers.Envelope
	if err := c.ShouldBindJSON(&env); err != nil {
		zerolog.Ctx(c.Request.Context()).Warn().Err(err).Str("trigger", string(trigger)).Msg("trigger body rejected")
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body", "details": err.Error()})
		return
	}

	outcome, err := h.dispatcher.Dispatch(c.Request.Context(), trigger, env)
	if err != nil {
		switch {
		case errors.Is(err, triggers.ErrInvalidEvent):
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		case errors.Is(err, triggers.ErrUnknownTrigger):
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "event_id": env.EventID, "outcome": outcome})
}

// authorized aborts with 401 unless the request carries the configured secret.
// An empty secret allows everything (local development).
func authorized(c *gin.Context, triggerSecret string) bool {
	if triggerSecret == "" {
		return true
	}
	secret := c.GetHeader(secretHeader)
	if subtle.ConstantTimeCompare([]byte(secret), []byte(triggerSecret)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "unauthorized: invalid trigger secret"})
		return false
	}
	return true
}

func (h *Handler) RegisterRoutes(rg gin.IRouter) {
	rg.POST("/triggers/:trigger", h.HandleTrigger)
}
