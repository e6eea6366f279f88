package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/abordo/internal/realtime"
	"github.com/charlesng35/abordo/pkg/errors"
	"github.com/charlesng35/abordo/pkg/response"
)

// RealtimeHandler upgrades authenticated requests into notification streams.
type RealtimeHandler struct {
	hub *realtime.Hub
}

// NewRealtimeHandler constructs a realtime handler.
func NewRealtimeHandler(hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

// GET /ws
func (h *RealtimeHandler) Stream(c *gin.Context) {
	if h.hub == nil {
		response.Error(c, errors.ErrNotFound)
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	h.hub.Serve(userID, c.Writer, c.Request)
}
