package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/alumnethq/alumnet/internal/realtime"
	"github.com/alumnethq/alumnet/pkg/errors"
	"github.com/alumnethq/alumnet/pkg/response"
)

// RealtimeHandler upgrades HTTP connections into chat WebSocket sessions.
// Authentication happens in-band: the connection starts unauthenticated and
// must send a handshake event carrying a token before any other operation.
type RealtimeHandler struct {
	hub *realtime.Hub
}

// NewRealtimeHandler constructs a RealtimeHandler.
func NewRealtimeHandler(hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

// Stream hands the connection to the hub.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	if h.hub == nil {
		response.Error(c, errors.ErrNotFound)
		return
	}
	h.hub.Serve(c.Writer, c.Request)
}
