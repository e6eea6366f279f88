package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/abordo/internal/services"
	"github.com/charlesng35/abordo/pkg/response"
)

// NotificationHandler exposes HTTP endpoints for deadline notifications.
type NotificationHandler struct {
	notifications *services.NotificationService
	reminders     *services.ReminderService
}

// NewNotificationHandler constructs a notification handler.
func NewNotificationHandler(notifications *services.NotificationService, reminders *services.ReminderService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, reminders: reminders}
}

type updateNotificationRequest struct {
	Status    *string `json:"status" validate:"omitempty,oneof=safe warning critical expired"`
	EmailSent *bool   `json:"emailSent"`
}

// GET /api/notifications?status=
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	filter := strings.TrimSpace(c.Query("status"))
	items, err := h.notifications.ListForUser(requestContext(c), userID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, items, &response.Meta{Total: len(items), Filter: filter})
}

// GET /api/notifications/urgent
func (h *NotificationHandler) Urgent(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	items, err := h.notifications.UrgentForUser(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, items, &response.Meta{Total: len(items)})
}

// GET /api/notifications/vehicle/:vehicleId
func (h *NotificationHandler) ForVehicle(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	items, err := h.notifications.ListForVehicle(requestContext(c), userID, strings.TrimSpace(c.Param("vehicleId")))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, items, &response.Meta{Total: len(items)})
}

// GET /api/notifications/stats
func (h *NotificationHandler) Stats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	stats, err := h.notifications.StatsForUser(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, stats)
}

// PUT /api/notifications/:id
func (h *NotificationHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req updateNotificationRequest
	if !bindAndValidate(c, &req) {
		return
	}

	dto, err := h.notifications.Update(requestContext(c), userID, strings.TrimSpace(c.Param("id")), services.UpdateNotificationInput{
		Status:    req.Status,
		EmailSent: req.EmailSent,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, dto)
}

// DELETE /api/notifications/:id
func (h *NotificationHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.notifications.Delete(requestContext(c), userID, strings.TrimSpace(c.Param("id"))); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// POST /api/notifications/send-emails
//
// The run continues after the client disconnects.
func (h *NotificationHandler) SendEmails(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	result, err := h.reminders.SendForUser(context.WithoutCancel(requestContext(c)), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.Errors == nil {
		result.Errors = []services.DispatchError{}
	}

	response.Success(c, http.StatusOK, result)
}
