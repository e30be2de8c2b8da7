package httpclient

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jpalomar/CitasGo/pkg/errors"
)

func fakeResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestParseResponseError_DetailShape(t *testing.T) {
	resp := fakeResponse(http.StatusConflict,
		`{"detail": "No se puede eliminar un horario con una cita agendada."}`)

	err := ParseResponseError(resp, "citas-api")

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "No se puede eliminar un horario con una cita agendada.", appErr.Message)
	assert.Equal(t, http.StatusConflict, appErr.Status)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestParseResponseError_FieldMapShape(t *testing.T) {
	resp := fakeResponse(http.StatusBadRequest,
		`{"motivo": ["Este campo es requerido."], "non_field_errors": ["Este horario ya no está disponible."]}`)

	err := ParseResponseError(resp, "citas-api")

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "Este horario ya no está disponible.", appErr.Message)
	assert.Equal(t, []string{"Este campo es requerido."}, appErr.Fields["motivo"])
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestParseResponseError_SentinelByStatus(t *testing.T) {
	cases := []struct {
		status   int
		sentinel error
	}{
		{http.StatusNotFound, apperrors.ErrNotFound},
		{http.StatusUnauthorized, apperrors.ErrUnauthorized},
		{http.StatusForbidden, apperrors.ErrForbidden},
		{http.StatusServiceUnavailable, apperrors.ErrServiceUnavail},
		{http.StatusInternalServerError, apperrors.ErrInternal},
	}
	for _, tc := range cases {
		resp := fakeResponse(tc.status, `{"detail": "x"}`)
		err := ParseResponseError(resp, "citas-api")
		assert.ErrorIs(t, err, tc.sentinel, "status %d", tc.status)
	}
}

func TestParseResponseError_UnstructuredBody(t *testing.T) {
	resp := fakeResponse(http.StatusBadGateway, "upstream timed out")

	err := ParseResponseError(resp, "notificaciones")

	var appErr *apperrors.AppError
	assert.False(t, errors.As(err, &appErr))
	assert.EqualError(t, err, "notificaciones returned status 502: upstream timed out")
}

func TestIsClientError(t *testing.T) {
	assert.False(t, IsClientError(399))
	assert.True(t, IsClientError(400))
	assert.True(t, IsClientError(499))
	assert.False(t, IsClientError(500))
}
