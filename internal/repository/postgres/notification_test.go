package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpalomar/CitasGo/internal/domain"
	apperrors "github.com/jpalomar/CitasGo/pkg/errors"
)

func newNotificationTestFixture(t *testing.T) (*NotificationRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := NewNotificationRepository(mock)
	return repo, mock
}

func TestNotificationRepository_Create(t *testing.T) {
	repo, mock := newNotificationTestFixture(t)
	defer mock.Close()

	now := time.Now().UTC().Truncate(time.Microsecond)
	n := &domain.Notification{
		ID:            "n-1",
		UserID:        "esp-1",
		Type:          domain.NotificationCitaCreated,
		Message:       "Luis Pérez solicitó una cita.",
		AppointmentID: "c-1",
		Read:          false,
		CreatedAt:     now,
	}

	mock.ExpectExec("INSERT INTO notificaciones").
		WithArgs(n.ID, n.UserID, n.Type, n.Message, n.AppointmentID, n.Read, n.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, repo.Create(context.Background(), n))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_ListByUser(t *testing.T) {
	repo, mock := newNotificationTestFixture(t)
	defer mock.Close()

	now := time.Now().UTC().Truncate(time.Microsecond)
	rows := pgxmock.NewRows([]string{"id", "usuario_id", "tipo", "mensaje", "cita_id", "leida", "fecha_creacion"}).
		AddRow("n-1", "esp-1", domain.NotificationCitaCreated, "mensaje", "c-1", false, now).
		AddRow("n-2", "esp-1", domain.NotificationCitaCanceled, "otro mensaje", "", true, now)

	mock.ExpectQuery("SELECT .+ FROM notificaciones").
		WithArgs("esp-1").
		WillReturnRows(rows)

	notifs, err := repo.ListByUser(context.Background(), "esp-1")
	require.NoError(t, err)
	require.Len(t, notifs, 2)
	assert.Equal(t, "c-1", notifs[0].AppointmentID)
	assert.Empty(t, notifs[1].AppointmentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_MarkRead_NotFound(t *testing.T) {
	repo, mock := newNotificationTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("UPDATE notificaciones SET leida = true").
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.MarkRead(context.Background(), "missing")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
