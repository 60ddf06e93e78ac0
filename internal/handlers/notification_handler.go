package handlers

import (
	"net/http"

	"github.com/lingualink/lingualink-backend/internal/services"
	"github.com/lingualink/lingualink-backend/pkg/logger"
)

type NotificationHandler struct {
	Service *services.NotificationService
}

func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{Service: service}
}

// GET /api/notifications
func (h *NotificationHandler) GetUserNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	notifications, err := h.Service.GetUserNotifications(r.Context(), userID)
	if err != nil {
		logger.Log.Errorf("Failed to fetch notifications: %v", err)
		respondError(w, r, err)
		return
	}

	respondOK(w, http.StatusOK, envelope{"notifications": notifications})
}

// PUT /api/notifications/{id}/read
func (h *NotificationHandler) MarkAsReadHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	notifID, ok := pathID(w, r, "id", "notification")
	if !ok {
		return
	}

	if err := h.Service.MarkNotificationAsRead(r.Context(), notifID, userID); err != nil {
		respondError(w, r, err)
		return
	}

	respondMessage(w, http.StatusOK, "Notification marked as read")
}

// DELETE /api/notifications/{id}
func (h *NotificationHandler) DeleteNotificationHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	notifID, ok := pathID(w, r, "id", "notification")
	if !ok {
		return
	}

	if err := h.Service.DeleteNotification(r.Context(), notifID, userID); err != nil {
		respondError(w, r, err)
		return
	}

	respondMessage(w, http.StatusOK, "Notification deleted")
}
