package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	apperrors "github.com/jpalomar/CitasGo/pkg/errors"
	"github.com/jpalomar/CitasGo/pkg/logger"
	"github.com/jpalomar/CitasGo/pkg/validator"
)

// Detail is the single-message error body: {"detail": "..."}.
type Detail struct {
	Detail string `json:"detail"`
}

// FieldErrors is the per-field error body: each key maps to one or more
// messages, with non-form-level messages under "non_field_errors".
type FieldErrors map[string][]string

// WriteJSON writes a JSON response with the given status code.
// If encoding fails, the error is logged but headers are already sent so nothing can be done.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteDetail writes a {"detail": message} error body with the given status.
func WriteDetail(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Detail{Detail: message})
}

// WriteFieldErrors writes a per-field error body with the given status.
func WriteFieldErrors(w http.ResponseWriter, status int, fields map[string][]string) {
	WriteJSON(w, status, FieldErrors(fields))
}

// WriteNonFieldError writes a single message under "non_field_errors".
func WriteNonFieldError(w http.ResponseWriter, status int, message string) {
	WriteFieldErrors(w, status, map[string][]string{
		apperrors.NonFieldKey: {message},
	})
}

// WriteError writes an error response based on the error type. AppErrors
// carrying per-field messages render the field-keyed body; all others render
// {"detail": ...} with the mapped status. It prefers the request-scoped logger
// from context (set by the RequestLogger middleware) over the fallback logger.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	// Prefer the request-scoped logger (enriched with correlation_id, user_id,
	// trace_id, span_id) if the RequestLogger middleware has been mounted.
	l := logger.FromContext(r.Context())
	if l == slog.Default() {
		l = fallback
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if len(appErr.Fields) > 0 {
			WriteFieldErrors(w, appErr.Status, appErr.Fields)
			return
		}
		WriteDetail(w, appErr.Status, appErr.Message)
		return
	}

	status := apperrors.HTTPStatus(err)
	message := "Error interno del servidor."

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		message = "No encontrado."
	case errors.Is(err, apperrors.ErrAlreadyExists), errors.Is(err, apperrors.ErrConflict):
		message = "Conflicto con el estado actual del recurso."
	case errors.Is(err, apperrors.ErrInvalidInput):
		message = err.Error()
	case errors.Is(err, apperrors.ErrUnauthorized):
		message = "Las credenciales de autenticación no se proveyeron."
	case errors.Is(err, apperrors.ErrForbidden):
		message = "Usted no tiene permiso para realizar esta acción."
	}

	if status == http.StatusInternalServerError {
		l.ErrorContext(r.Context(), "internal error",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	WriteDetail(w, status, message)
}

// WriteValidationError writes a field-keyed 400 response for validation
// failures; malformed bodies get a {"detail": ...} body instead.
func WriteValidationError(w http.ResponseWriter, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		WriteFieldErrors(w, http.StatusBadRequest, valErr.Fields())
		return
	}
	WriteDetail(w, http.StatusBadRequest, "JSON parse error - "+err.Error())
}

// ParseUUID validates that the given string is a valid UUID and returns it.
// If invalid, it writes a 404 response (unknown resource path segment) and
// returns uuid.Nil plus false, signaling the caller to return early.
func ParseUUID(w http.ResponseWriter, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(param)
	if err != nil {
		WriteDetail(w, http.StatusNotFound, "No encontrado.")
		return uuid.Nil, false
	}
	return id, true
}
