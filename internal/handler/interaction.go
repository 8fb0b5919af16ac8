package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nyuchitech/harare-metro-sub001/internal/engage"
	"github.com/nyuchitech/harare-metro-sub001/internal/engage/interactions"
	"github.com/nyuchitech/harare-metro-sub001/internal/logger"
	"github.com/nyuchitech/harare-metro-sub001/internal/telemetry"
)

// defaultDelta is applied when an interaction request omits the delta field.
const defaultDelta = 1

// InteractionHandler handles per-entity interaction counter requests.
type InteractionHandler struct {
	actor   *interactions.Actor
	logger  logger.Logger
	metrics *telemetry.Provider
}

// NewInteractionHandler creates an InteractionHandler with the given dependencies.
func NewInteractionHandler(actor *interactions.Actor, log logger.Logger, metrics *telemetry.Provider) *InteractionHandler {
	return &InteractionHandler{actor: actor, logger: log, metrics: metrics}
}

type interactionRequest struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
	Delta  *int64 `json:"delta"`
}

// Record applies one signed interaction delta to the entity's snapshot.
func (h *InteractionHandler) Record(c *gin.Context) {
	var req interactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	typ, err := interactions.ParseType(req.Type)
	if err != nil {
		respondError(c, err)
		return
	}

	delta := int64(defaultDelta)
	if req.Delta != nil {
		delta = *req.Delta
	}

	snapshot, err := h.actor.Record(c.Request.Context(), c.Param("entityId"), typ, req.UserID, delta)
	if err != nil {
		if h.metrics != nil && engage.StatusOf(err) == http.StatusConflict {
			h.metrics.RecordConflict()
		}
		respondError(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordInteraction(string(typ))
	}
	c.JSON(http.StatusOK, snapshot)
}

// Get returns the entity's interaction snapshot, zero-valued when unseen.
func (h *InteractionHandler) Get(c *gin.Context) {
	snapshot, err := h.actor.Get(c.Request.Context(), c.Param("entityId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}
