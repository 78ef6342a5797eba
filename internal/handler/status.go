// Package handler provides the HTTP status API for a running foldersync process.
package handler

import (
	"net/http"
	"time"

	"github.com/CageChen/foldersync/internal/reconciler"
	"github.com/gin-gonic/gin"
)

// PassSource is the part of the scheduler the status API needs
type PassSource interface {
	Last() (reconciler.PassResult, bool)
	Trigger() bool
	Interval() time.Duration
}

// StatusHandler reports on passes and lets clients request an early one
type StatusHandler struct {
	passes PassSource
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(passes PassSource) *StatusHandler {
	return &StatusHandler{passes: passes}
}

// GetStatus returns the summary of the last pass
func (h *StatusHandler) GetStatus(c *gin.Context) {
	res, ok := h.passes.Last()
	if !ok {
		c.JSON(http.StatusOK, gin.H{
			"status":          "pending",
			"intervalSeconds": int(h.passes.Interval().Seconds()),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":          res.Status,
		"intervalSeconds": int(h.passes.Interval().Seconds()),
		"lastPass":        res.Summary(),
	})
}

// TriggerSync queues a pass to run as soon as the current one, if any, is done
func (h *StatusHandler) TriggerSync(c *gin.Context) {
	if !h.passes.Trigger() {
		c.JSON(http.StatusConflict, gin.H{
			"error": "a sync is already queued",
		})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"message": "sync queued",
	})
}
