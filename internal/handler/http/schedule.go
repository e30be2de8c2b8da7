package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jpalomar/CitasGo/internal/service"
	"github.com/jpalomar/CitasGo/pkg/httputil"
	"github.com/jpalomar/CitasGo/pkg/middleware"
	"github.com/jpalomar/CitasGo/pkg/validator"
)

// ScheduleHandler handles HTTP requests for availability slots.
type ScheduleHandler struct {
	service *service.ScheduleService
	logger  *slog.Logger
}

// NewScheduleHandler creates a new schedule HTTP handler.
func NewScheduleHandler(svc *service.ScheduleService, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{service: svc, logger: logger}
}

// CreateSlotRequest is the JSON request body for publishing a slot.
// EspecialistaID is a defensive redundant field; the server always uses the
// session identity as the owner.
type CreateSlotRequest struct {
	EspecialistaID string `json:"especialista,omitempty"`
	Fecha          string `json:"fecha" validate:"required,datetime=2006-01-02"`
	HoraInicio     string `json:"hora_inicio" validate:"required"`
	HoraFin        string `json:"hora_fin" validate:"required"`
}

// List handles GET /agenda/horarios?disponible=<bool>
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	availableOnly := false
	if raw := r.URL.Query().Get("disponible"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			httputil.WriteDetail(w, http.StatusBadRequest, "El parámetro disponible debe ser true o false.")
			return
		}
		availableOnly = v
	}

	callerID := middleware.UserIDFromContext(r.Context())
	callerRole := middleware.RoleFromContext(r.Context())

	slots, err := h.service.ListSlots(r.Context(), callerID, callerRole, availableOnly)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, slots)
}

// Create handles POST /agenda/horarios
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req CreateSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteDetail(w, http.StatusBadRequest, "JSON parse error - "+err.Error())
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	slot, err := h.service.CreateSlot(r.Context(), service.CreateSlotInput{
		SpecialistID: middleware.UserIDFromContext(r.Context()),
		Date:         req.Fecha,
		StartTime:    req.HoraInicio,
		EndTime:      req.HoraFin,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, slot)
}

// Delete handles DELETE /agenda/horarios/{id}
func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	callerID := middleware.UserIDFromContext(r.Context())
	if err := h.service.DeleteSlot(r.Context(), id.String(), callerID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
