package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nordrein/webshop/internal/notification"
)

const notificationFeedLimit = 50

type NotificationHandler struct {
	repo notification.Repository
}

func NewNotificationHandler(repo notification.Repository) *NotificationHandler {
	return &NotificationHandler{repo: repo}
}

type NotificationsResponse struct {
	Notifications []*notification.Notification `json:"notifications"`
}

// GET /api/v1/notifications
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	sessionKey := getSessionKey(r.Context())

	list, err := h.repo.ListBySession(r.Context(), sessionKey, notificationFeedLimit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	if list == nil {
		list = []*notification.Notification{}
	}

	respondJSON(w, http.StatusOK, NotificationsResponse{Notifications: list})
}

// POST /api/v1/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	sessionKey := getSessionKey(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.repo.MarkRead(r.Context(), sessionKey, id); err != nil {
		if errors.Is(err, notification.ErrNotificationNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "notification not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
