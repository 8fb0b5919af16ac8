package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nyuchitech/harare-metro-sub001/internal/engage/analytics"
	"github.com/nyuchitech/harare-metro-sub001/internal/logger"
	"github.com/nyuchitech/harare-metro-sub001/internal/telemetry"
)

// AnalyticsHandler handles analytics event and query requests.
type AnalyticsHandler struct {
	actor   *analytics.Actor
	logger  logger.Logger
	metrics *telemetry.Provider
}

// NewAnalyticsHandler creates an AnalyticsHandler with the given dependencies.
func NewAnalyticsHandler(actor *analytics.Actor, log logger.Logger, metrics *telemetry.Provider) *AnalyticsHandler {
	return &AnalyticsHandler{actor: actor, logger: log, metrics: metrics}
}

type analyticsEventRequest struct {
	Type    string            `json:"type"`
	Payload analytics.Payload `json:"payload"`
}

// RecordEvent appends one analytics event and updates its rollup.
func (h *AnalyticsHandler) RecordEvent(c *gin.Context) {
	var req analyticsEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	eventType, err := analytics.ParseEventType(req.Type)
	if err != nil {
		respondError(c, err)
		return
	}

	eventID, err := h.actor.RecordEvent(c.Request.Context(), eventType, req.Payload)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordAnalyticsEvent(string(eventType))
	}
	c.JSON(http.StatusOK, gin.H{"event_id": eventID})
}

// Query answers one analytics read query. kind and range come from query
// parameters; range defaults to 24h.
func (h *AnalyticsHandler) Query(c *gin.Context) {
	kind, err := analytics.ParseQueryKind(c.DefaultQuery("kind", string(analytics.QueryAll)))
	if err != nil {
		respondError(c, err)
		return
	}

	timeRange, err := analytics.ParseTimeRange(c.Query("range"))
	if err != nil {
		respondError(c, err)
		return
	}

	start := time.Now()
	result, err := h.actor.Query(c.Request.Context(), kind, timeRange)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordQueryDuration(string(kind), time.Since(start))
	}
	c.JSON(http.StatusOK, result)
}

// Clear deletes analytics data for the requested scope, defaulting to all.
func (h *AnalyticsHandler) Clear(c *gin.Context) {
	removed, err := h.actor.Clear(c.Request.Context(), c.DefaultQuery("scope", "all"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared", "keys_removed": removed})
}
