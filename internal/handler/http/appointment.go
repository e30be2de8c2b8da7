package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jpalomar/CitasGo/internal/domain"
	"github.com/jpalomar/CitasGo/internal/service"
	"github.com/jpalomar/CitasGo/pkg/httputil"
	"github.com/jpalomar/CitasGo/pkg/middleware"
	"github.com/jpalomar/CitasGo/pkg/validator"
)

// AppointmentHandler handles HTTP requests for appointments.
type AppointmentHandler struct {
	service *service.AppointmentService
	logger  *slog.Logger
}

// NewAppointmentHandler creates a new appointment HTTP handler.
func NewAppointmentHandler(svc *service.AppointmentService, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{service: svc, logger: logger}
}

// BookRequest is the JSON request body for booking a slot.
type BookRequest struct {
	HorarioID string `json:"horario_id" validate:"required,uuid"`
	Motivo    string `json:"motivo" validate:"required"`
}

// List handles GET /citas/citas
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.UserIDFromContext(r.Context())
	callerRole := middleware.RoleFromContext(r.Context())

	appointments, err := h.service.List(r.Context(), callerID, callerRole)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, appointments)
}

// Book handles POST /citas/citas
func (h *AppointmentHandler) Book(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteDetail(w, http.StatusBadRequest, "JSON parse error - "+err.Error())
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	appt, err := h.service.Book(r.Context(), service.BookInput{
		StudentID: middleware.UserIDFromContext(r.Context()),
		SlotID:    req.HorarioID,
		Reason:    req.Motivo,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, appt)
}

// Confirm handles POST /citas/citas/{id}/confirmar
func (h *AppointmentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Confirm)
}

// Reject handles POST /citas/citas/{id}/rechazar
func (h *AppointmentHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Reject)
}

// Complete handles POST /citas/citas/{id}/completar
func (h *AppointmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Complete)
}

// Cancel handles POST /citas/citas/{id}/cancelar
func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Cancel)
}

func (h *AppointmentHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, apptID, callerID string) (*domain.Appointment, error),
) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	callerID := middleware.UserIDFromContext(r.Context())
	appt, err := apply(r.Context(), id.String(), callerID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, appt)
}
