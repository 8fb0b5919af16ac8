package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nyuchitech/harare-metro-sub001/internal/engage/behavior"
	"github.com/nyuchitech/harare-metro-sub001/internal/logger"
	"github.com/nyuchitech/harare-metro-sub001/internal/telemetry"
)

// BehaviorHandler handles per-user behavior profile requests.
type BehaviorHandler struct {
	actor   *behavior.Actor
	logger  logger.Logger
	metrics *telemetry.Provider
}

// NewBehaviorHandler creates a BehaviorHandler with the given dependencies.
func NewBehaviorHandler(actor *behavior.Actor, log logger.Logger, metrics *telemetry.Provider) *BehaviorHandler {
	return &BehaviorHandler{actor: actor, logger: log, metrics: metrics}
}

type behaviorRequest struct {
	Action      string         `json:"action"`
	EntityID    string         `json:"entity_id"`
	Category    string         `json:"category"`
	Source      string         `json:"source"`
	ReadingTime int64          `json:"reading_time"`
	Preferences map[string]any `json:"preferences"`
}

// Record applies one behavior action to the user's profile.
func (h *BehaviorHandler) Record(c *gin.Context) {
	var req behaviorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	action, err := behavior.ParseAction(req.Action)
	if err != nil {
		respondError(c, err)
		return
	}

	profile, err := h.actor.Record(c.Request.Context(), c.Param("userId"), action, behavior.Payload{
		EntityID:    req.EntityID,
		Category:    req.Category,
		Source:      req.Source,
		ReadingTime: req.ReadingTime,
		Preferences: req.Preferences,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordBehaviorUpdate(string(action))
	}
	c.JSON(http.StatusOK, profile)
}

// Get returns the user's behavior profile, zero-valued when unseen.
func (h *BehaviorHandler) Get(c *gin.Context) {
	profile, err := h.actor.Get(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Clear deletes the user's profile and read history.
func (h *BehaviorHandler) Clear(c *gin.Context) {
	removed, err := h.actor.Clear(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared", "keys_removed": removed})
}
