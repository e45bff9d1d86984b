package http

import (
	"net/http"

	"sponsorhub-backend/internal/domain"
)

type notificationList struct {
	Notifications []domain.Notification `json:"notifications"`
	TotalCount    int32                 `json:"totalCount"`
}

func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	userID, err := requireActor(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	page := queryInt32(r, "page", 1)
	pageSize := queryInt32(r, "pageSize", 20)

	notes, total, err := h.svc.Notifications.GetNotifications(r.Context(), userID, page, pageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notificationList{Notifications: notes, TotalCount: total})
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	userID, notificationID, err := actorAndPathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.Notifications.MarkAsRead(r.Context(), userID, notificationID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
