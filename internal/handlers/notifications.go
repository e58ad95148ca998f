package handlers

import (
	"net/http"

	"assistance/internal/apperr"
)

// GetNotificationsHandler обрабатывает GET /api/notifications.
// Ответ несет состояние прочитанности на момент чтения, после чего все
// перечисленные уведомления помечаются прочитанными — один вызов и
// отображает, и подтверждает. Фильтр notification_type: new, old или пусто.
func (h *Handler) GetNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	username := actor(r)
	if username == "" {
		h.writeError(w, apperr.Validation("missing username parameter"))
		return
	}

	user, err := h.Store.GetUserByUsername(r.Context(), username)
	if err != nil {
		h.writeError(w, err)
		return
	}

	notifications, err := h.Store.ListNotifications(r.Context(), user.ID,
		r.URL.Query().Get("notification_type"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, notifications)
}
