package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Inkroom/internal/domain"
)

// NotificationInbox reads a recipient's stored notifications.
type NotificationInbox interface {
	NotificationsFor(ctx context.Context, to domain.UserID) ([]domain.Notification, error)
}

type NotificationsHandler struct {
	inbox NotificationInbox
}

func NewNotificationsHandler(inbox NotificationInbox) *NotificationsHandler {
	return &NotificationsHandler{inbox: inbox}
}

func (h *NotificationsHandler) listNotifications(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	notes, err := h.inbox.NotificationsFor(c.Request.Context(), identity.UserID)
	if err != nil {
		log.Error().Err(err).Str("module", "http.notifications").Msg("list notifications")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unexpected server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"notifications": notes}})
}
