package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jpalomar/CitasGo/internal/domain"
	apperrors "github.com/jpalomar/CitasGo/pkg/errors"
)

func newAppointmentServiceFixture(t *testing.T) (*AppointmentService, *mockAppointmentRepository, *mockSlotRepository) {
	t.Helper()
	apptRepo := new(mockAppointmentRepository)
	slotRepo := new(mockSlotRepository)
	svc := NewAppointmentService(apptRepo, slotRepo, newTestEventProducer(), newTestLogger())
	svc.now = func() time.Time { return scheduleTestNow }
	return svc, apptRepo, slotRepo
}

func sampleAppointment(status string) *domain.Appointment {
	return &domain.Appointment{
		ID:           "c-1",
		StudentID:    "alu-1",
		SpecialistID: "esp-1",
		SlotID:       "s-1",
		Reason:       "Consulta general",
		Status:       status,
	}
}

func TestAppointmentService_Book_Success(t *testing.T) {
	svc, apptRepo, slotRepo := newAppointmentServiceFixture(t)

	apptRepo.On("HasActiveForStudent", mock.Anything, "alu-1").Return(false, nil)
	slotRepo.On("GetByID", mock.Anything, "s-1").Return(&domain.Slot{
		ID:             "s-1",
		SpecialistID:   "esp-1",
		SpecialistName: "Dra. Ruiz",
		Date:           "2026-09-07",
		StartTime:      "09:00:00",
		EndTime:        "10:00:00",
		Available:      true,
	}, nil)

	var booked *domain.Appointment
	apptRepo.On("Book", mock.Anything, mock.AnythingOfType("*domain.Appointment")).
		Run(func(args mock.Arguments) {
			booked = args.Get(1).(*domain.Appointment)
		}).
		Return(nil)

	appt, err := svc.Book(publishCtx(t), BookInput{
		StudentID: "alu-1",
		SlotID:    "s-1",
		Reason:    "  Consulta general  ",
	})

	require.NoError(t, err)
	require.Equal(t, booked, appt)
	require.NotEmpty(t, appt.ID)
	require.Equal(t, domain.StatusPending, appt.Status)
	require.Equal(t, "Consulta general", appt.Reason)
	require.Equal(t, "alu-1", appt.StudentID)
	require.Equal(t, "esp-1", appt.SpecialistID)
	require.Equal(t, "Dra. Ruiz", appt.SpecialistName)
	require.Equal(t, "s-1", appt.SlotID)
	apptRepo.AssertExpectations(t)
}

func TestAppointmentService_Book_Preconditions(t *testing.T) {
	tests := []struct {
		name      string
		input     BookInput
		wantField string
	}{
		{
			name:      "empty reason",
			input:     BookInput{StudentID: "alu-1", SlotID: "s-1", Reason: "   "},
			wantField: "motivo",
		},
		{
			name:      "missing slot",
			input:     BookInput{StudentID: "alu-1", Reason: "Consulta"},
			wantField: "horario_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, apptRepo, slotRepo := newAppointmentServiceFixture(t)

			appt, err := svc.Book(context.Background(), tt.input)

			require.Nil(t, appt)
			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			require.Contains(t, appErr.Fields, tt.wantField)
			apptRepo.AssertNumberOfCalls(t, "HasActiveForStudent", 0)
			slotRepo.AssertNumberOfCalls(t, "GetByID", 0)
		})
	}
}

func TestAppointmentService_Book_ActiveAppointmentBlocks(t *testing.T) {
	svc, apptRepo, _ := newAppointmentServiceFixture(t)

	apptRepo.On("HasActiveForStudent", mock.Anything, "alu-1").Return(true, nil)

	appt, err := svc.Book(context.Background(), BookInput{
		StudentID: "alu-1",
		SlotID:    "s-1",
		Reason:    "Consulta",
	})

	require.Nil(t, appt)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t,
		[]string{"Ya tienes una cita activa. Espera a que se resuelva antes de agendar otra."},
		appErr.Fields[apperrors.NonFieldKey],
	)
	apptRepo.AssertNumberOfCalls(t, "Book", 0)
}

func TestAppointmentService_Book_UnknownSlot(t *testing.T) {
	svc, apptRepo, slotRepo := newAppointmentServiceFixture(t)

	apptRepo.On("HasActiveForStudent", mock.Anything, "alu-1").Return(false, nil)
	slotRepo.On("GetByID", mock.Anything, "s-404").
		Return(nil, apperrors.NotFound("slot", "s-404"))

	appt, err := svc.Book(context.Background(), BookInput{
		StudentID: "alu-1",
		SlotID:    "s-404",
		Reason:    "Consulta",
	})

	require.Nil(t, appt)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, []string{"El horario no existe."}, appErr.Fields["horario_id"])
}

func TestAppointmentService_Book_SlotNoLongerAvailable(t *testing.T) {
	svc, apptRepo, slotRepo := newAppointmentServiceFixture(t)

	apptRepo.On("HasActiveForStudent", mock.Anything, "alu-1").Return(false, nil)
	slotRepo.On("GetByID", mock.Anything, "s-1").
		Return(&domain.Slot{ID: "s-1", SpecialistID: "esp-1", Available: false}, nil)

	appt, err := svc.Book(context.Background(), BookInput{
		StudentID: "alu-1",
		SlotID:    "s-1",
		Reason:    "Consulta",
	})

	require.Nil(t, appt)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t,
		[]string{"Este horario ya no está disponible."},
		appErr.Fields[apperrors.NonFieldKey],
	)
	apptRepo.AssertNumberOfCalls(t, "Book", 0)
}

// An available slot whose date has already passed can no longer be booked,
// even though the availability flag was never flipped.
func TestAppointmentService_Book_PastDatedSlotRejected(t *testing.T) {
	svc, apptRepo, slotRepo := newAppointmentServiceFixture(t)

	apptRepo.On("HasActiveForStudent", mock.Anything, "alu-1").Return(false, nil)
	slotRepo.On("GetByID", mock.Anything, "s-1").
		Return(&domain.Slot{ID: "s-1", SpecialistID: "esp-1", Date: "2026-08-28", Available: true}, nil)

	appt, err := svc.Book(context.Background(), BookInput{
		StudentID: "alu-1",
		SlotID:    "s-1",
		Reason:    "Consulta",
	})

	require.Nil(t, appt)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t,
		[]string{"Este horario ya no está disponible."},
		appErr.Fields[apperrors.NonFieldKey],
	)
	apptRepo.AssertNumberOfCalls(t, "Book", 0)
}

// A slot can look available at read time and still be claimed by a concurrent
// booking. The repository reports that as a conflict, which surfaces to the
// caller as the same "no longer available" message.
func TestAppointmentService_Book_LosesRace(t *testing.T) {
	svc, apptRepo, slotRepo := newAppointmentServiceFixture(t)

	apptRepo.On("HasActiveForStudent", mock.Anything, "alu-1").Return(false, nil)
	slotRepo.On("GetByID", mock.Anything, "s-1").
		Return(&domain.Slot{ID: "s-1", SpecialistID: "esp-1", Date: "2026-09-07", Available: true}, nil)
	apptRepo.On("Book", mock.Anything, mock.AnythingOfType("*domain.Appointment")).
		Return(apperrors.Conflict("slot already claimed"))

	appt, err := svc.Book(context.Background(), BookInput{
		StudentID: "alu-1",
		SlotID:    "s-1",
		Reason:    "Consulta",
	})

	require.Nil(t, appt)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t,
		[]string{"Este horario ya no está disponible."},
		appErr.Fields[apperrors.NonFieldKey],
	)
}

func TestAppointmentService_List_ScopedByRole(t *testing.T) {
	svc, apptRepo, _ := newAppointmentServiceFixture(t)
	own := []domain.Appointment{*sampleAppointment(domain.StatusPending)}

	apptRepo.On("ListByStudent", mock.Anything, "alu-1").Return(own, nil)
	apptRepo.On("ListBySpecialist", mock.Anything, "esp-1").Return(own, nil)

	student, err := svc.List(context.Background(), "alu-1", domain.RoleStudent)
	require.NoError(t, err)
	require.Equal(t, own, student)

	specialist, err := svc.List(context.Background(), "esp-1", domain.RoleSpecialist)
	require.NoError(t, err)
	require.Equal(t, own, specialist)
	apptRepo.AssertExpectations(t)
}

func TestAppointmentService_Confirm(t *testing.T) {
	svc, apptRepo, _ := newAppointmentServiceFixture(t)

	apptRepo.On("GetByID", mock.Anything, "c-1").Return(sampleAppointment(domain.StatusPending), nil)
	apptRepo.On("UpdateStatus", mock.Anything, "c-1", domain.StatusConfirmed, false).Return(nil)

	appt, err := svc.Confirm(publishCtx(t), "c-1", "esp-1")

	require.NoError(t, err)
	require.Equal(t, domain.StatusConfirmed, appt.Status)
	apptRepo.AssertExpectations(t)
}

func TestAppointmentService_Reject_ReleasesSlot(t *testing.T) {
	svc, apptRepo, _ := newAppointmentServiceFixture(t)

	apptRepo.On("GetByID", mock.Anything, "c-1").Return(sampleAppointment(domain.StatusPending), nil)
	apptRepo.On("UpdateStatus", mock.Anything, "c-1", domain.StatusRejected, true).Return(nil)

	appt, err := svc.Reject(publishCtx(t), "c-1", "esp-1")

	require.NoError(t, err)
	require.Equal(t, domain.StatusRejected, appt.Status)
	apptRepo.AssertExpectations(t)
}

func TestAppointmentService_Complete(t *testing.T) {
	svc, apptRepo, _ := newAppointmentServiceFixture(t)

	apptRepo.On("GetByID", mock.Anything, "c-1").Return(sampleAppointment(domain.StatusConfirmed), nil)
	apptRepo.On("UpdateStatus", mock.Anything, "c-1", domain.StatusCompleted, false).Return(nil)

	appt, err := svc.Complete(publishCtx(t), "c-1", "esp-1")

	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, appt.Status)
}

func TestAppointmentService_Transition_NotOwner(t *testing.T) {
	svc, apptRepo, _ := newAppointmentServiceFixture(t)

	apptRepo.On("GetByID", mock.Anything, "c-1").Return(sampleAppointment(domain.StatusPending), nil)

	appt, err := svc.Confirm(context.Background(), "c-1", "esp-2")

	require.Nil(t, appt)
	require.ErrorIs(t, err, apperrors.ErrForbidden)
	apptRepo.AssertNumberOfCalls(t, "UpdateStatus", 0)
}

func TestAppointmentService_Transition_Illegal(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		call    func(svc *AppointmentService, ctx context.Context) (*domain.Appointment, error)
		wantMsg string
	}{
		{
			name: "confirm a rejected appointment",
			from: domain.StatusRejected,
			call: func(svc *AppointmentService, ctx context.Context) (*domain.Appointment, error) {
				return svc.Confirm(ctx, "c-1", "esp-1")
			},
			wantMsg: "No se puede pasar una cita de RECHAZADA a CONFIRMADA.",
		},
		{
			name: "complete a pending appointment",
			from: domain.StatusPending,
			call: func(svc *AppointmentService, ctx context.Context) (*domain.Appointment, error) {
				return svc.Complete(ctx, "c-1", "esp-1")
			},
			wantMsg: "No se puede pasar una cita de PENDIENTE a COMPLETADA.",
		},
		{
			name: "reject a completed appointment",
			from: domain.StatusCompleted,
			call: func(svc *AppointmentService, ctx context.Context) (*domain.Appointment, error) {
				return svc.Reject(ctx, "c-1", "esp-1")
			},
			wantMsg: "No se puede pasar una cita de COMPLETADA a RECHAZADA.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, apptRepo, _ := newAppointmentServiceFixture(t)
			apptRepo.On("GetByID", mock.Anything, "c-1").Return(sampleAppointment(tt.from), nil)

			appt, err := tt.call(svc, context.Background())

			require.Nil(t, appt)
			require.ErrorIs(t, err, apperrors.ErrConflict)
			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			require.Equal(t, tt.wantMsg, appErr.Message)
			apptRepo.AssertNumberOfCalls(t, "UpdateStatus", 0)
		})
	}
}

func TestAppointmentService_Cancel(t *testing.T) {
	svc, apptRepo, _ := newAppointmentServiceFixture(t)

	apptRepo.On("GetByID", mock.Anything, "c-1").Return(sampleAppointment(domain.StatusPending), nil)
	apptRepo.On("UpdateStatus", mock.Anything, "c-1", domain.StatusCanceled, true).Return(nil)

	appt, err := svc.Cancel(publishCtx(t), "c-1", "alu-1")

	require.NoError(t, err)
	require.Equal(t, domain.StatusCanceled, appt.Status)
}

func TestAppointmentService_Cancel_NotOwner(t *testing.T) {
	svc, apptRepo, _ := newAppointmentServiceFixture(t)

	apptRepo.On("GetByID", mock.Anything, "c-1").Return(sampleAppointment(domain.StatusPending), nil)

	appt, err := svc.Cancel(context.Background(), "c-1", "alu-2")

	require.Nil(t, appt)
	require.ErrorIs(t, err, apperrors.ErrForbidden)
	apptRepo.AssertNumberOfCalls(t, "UpdateStatus", 0)
}
