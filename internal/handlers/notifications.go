package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medlabs/critalert/internal/devices"
	"github.com/medlabs/critalert/internal/middleware"
	"github.com/medlabs/critalert/internal/notify"
	"github.com/medlabs/critalert/pkg/errors"
	"github.com/medlabs/critalert/pkg/response"
)

// NotificationHandler exposes device registration and the test-notification
// endpoint. Registrations are always scoped to the authenticated caller.
type NotificationHandler struct {
	registry devices.Registry
	fanout   *notify.Fanout
}

// NewNotificationHandler constructs a NotificationHandler.
func NewNotificationHandler(registry devices.Registry, fanout *notify.Fanout) *NotificationHandler {
	return &NotificationHandler{registry: registry, fanout: fanout}
}

type registerDeviceRequest struct {
	DeviceToken string `json:"device_token" validate:"required,max=512"`
}

// POST /api/notifications/register
func (h *NotificationHandler) Register(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req registerDeviceRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.registry.Register(c.Request.Context(), userID, req.DeviceToken); err != nil {
		response.Error(c, errors.Wrap(err, "Failed to register device"))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"registered": true})
}

// DELETE /api/notifications/unregister
func (h *NotificationHandler) Unregister(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.registry.Unregister(c.Request.Context(), userID); err != nil {
		response.Error(c, errors.Wrap(err, "Failed to unregister device"))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"unregistered": true})
}

// POST /api/notifications/test
func (h *NotificationHandler) Test(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	err := h.fanout.SendToUser(c.Request.Context(), userID,
		"Test Notification",
		"This is a test notification from the critical alerts API",
		map[string]any{"test": true},
	)
	if err != nil {
		response.Error(c, errors.ErrNotificationFailed.WithInternal(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"sent": true})
}
