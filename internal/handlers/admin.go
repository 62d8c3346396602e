package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/alumnethq/alumnet/internal/middleware"
	"github.com/alumnethq/alumnet/internal/models"
	"github.com/alumnethq/alumnet/internal/services"
	"github.com/alumnethq/alumnet/pkg/logger"
	"github.com/alumnethq/alumnet/pkg/response"
)

// AdminHandler exposes the account approval queue.
type AdminHandler struct {
	users      *services.UserService
	dispatcher *services.Dispatcher
	log        *zap.Logger
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(users *services.UserService, dispatcher *services.Dispatcher) *AdminHandler {
	return &AdminHandler{
		users:      users,
		dispatcher: dispatcher,
		log:        logger.WithModule("admin"),
	}
}

// ListPending returns accounts awaiting approval.
func (h *AdminHandler) ListPending(c *gin.Context) {
	users, err := h.users.ListPending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, users)
}

// Approve marks a pending account approved and notifies the new member.
func (h *AdminHandler) Approve(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("id"))
	user, err := h.users.Approve(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.dispatcher != nil {
		adminID, _ := middleware.UserIDFromContext(c)
		err := h.dispatcher.Dispatch(c.Request.Context(), services.Event{
			RecipientID: user.ID,
			SenderID:    adminID,
			Type:        models.NotificationAccountApproved,
			Snippet:     "Your account has been approved. Welcome!",
		})
		if err != nil {
			// Approval already committed; the welcome notification is best effort.
			h.log.Warn("approval notification failed",
				zap.String("user_id", user.ID),
				zap.Error(err))
		}
	}

	response.Success(c, http.StatusOK, user)
}

// Reject removes a pending account.
func (h *AdminHandler) Reject(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("id"))
	if err := h.users.Reject(c.Request.Context(), userID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"rejected": true})
}
