package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nyuchitech/harare-metro-sub001/internal/engage/counters"
	"github.com/nyuchitech/harare-metro-sub001/internal/logger"
	"github.com/nyuchitech/harare-metro-sub001/internal/telemetry"
)

// defaultIncrement is applied when a counter request omits the increment field.
const defaultIncrement = 1

// CounterHandler handles aggregate counter requests.
type CounterHandler struct {
	actor   *counters.Actor
	logger  logger.Logger
	metrics *telemetry.Provider
}

// NewCounterHandler creates a CounterHandler with the given dependencies.
func NewCounterHandler(actor *counters.Actor, log logger.Logger, metrics *telemetry.Provider) *CounterHandler {
	return &CounterHandler{actor: actor, logger: log, metrics: metrics}
}

type counterRequest struct {
	Action    string `json:"action"`
	Increment *int64 `json:"increment"`
	UserID    string `json:"user_id"`
	Category  string `json:"category"`
}

// counterResponse reports the updated aggregate together with the outcome of
// the best-effort category side-write, when one was attempted.
type counterResponse struct {
	Aggregate counters.Aggregate `json:"aggregate"`
	SideWrite *sideWriteResult   `json:"side_write,omitempty"`
}

type sideWriteResult struct {
	Attempted bool   `json:"attempted"`
	CounterID string `json:"counter_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Update applies one action to the counter's rolling aggregate.
func (h *CounterHandler) Update(c *gin.Context) {
	var req counterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	action, err := counters.ParseAction(req.Action)
	if err != nil {
		respondError(c, err)
		return
	}

	increment := int64(defaultIncrement)
	if req.Increment != nil {
		increment = *req.Increment
	}

	aggregate, sideWrite, err := h.actor.Update(
		c.Request.Context(), c.Param("counterId"), action, increment, req.UserID, req.Category,
	)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordCounterUpdate(string(action))
		if sideWrite.Err != nil {
			h.metrics.RecordSideWriteFailure()
		}
	}

	resp := counterResponse{Aggregate: aggregate}
	if sideWrite.Attempted {
		result := sideWriteResult{Attempted: true, CounterID: sideWrite.CounterID}
		if sideWrite.Err != nil {
			result.Error = sideWrite.Err.Error()
		}
		resp.SideWrite = &result
	}
	c.JSON(http.StatusOK, resp)
}

// Get returns the counter's aggregate, zero-valued when unseen.
func (h *CounterHandler) Get(c *gin.Context) {
	aggregate, err := h.actor.Get(c.Request.Context(), c.Param("counterId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, aggregate)
}

// Reset deletes all state of the counter's partition.
func (h *CounterHandler) Reset(c *gin.Context) {
	if err := h.actor.Reset(c.Request.Context(), c.Param("counterId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}
