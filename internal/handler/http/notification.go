package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jpalomar/CitasGo/internal/repository"
	"github.com/jpalomar/CitasGo/pkg/httputil"
	"github.com/jpalomar/CitasGo/pkg/middleware"
)

// NotificationHandler handles HTTP requests for in-app notifications.
type NotificationHandler struct {
	repo   repository.NotificationRepository
	logger *slog.Logger
}

// NewNotificationHandler creates a new notification HTTP handler.
func NewNotificationHandler(repo repository.NotificationRepository, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{repo: repo, logger: logger}
}

// List handles GET /notificaciones
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	notifications, err := h.repo.ListByUser(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, notifications)
}

// MarkRead handles POST /notificaciones/{id}/leer
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.repo.MarkRead(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
