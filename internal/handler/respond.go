// Package handler implements the HTTP handlers for the engagement API.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nyuchitech/harare-metro-sub001/internal/engage"
)

// respondError writes the JSON error body for a failed operation. Conflict
// errors carry the unchanged snapshot so callers can render current state
// without a second read.
func respondError(c *gin.Context, err error) {
	e := engage.AsError(err)
	if e == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	body := gin.H{"error": e.Message}
	if e.Snapshot != nil {
		body["snapshot"] = e.Snapshot
	}
	c.JSON(e.Status, body)
}
