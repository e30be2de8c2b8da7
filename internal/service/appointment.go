package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jpalomar/CitasGo/internal/domain"
	"github.com/jpalomar/CitasGo/internal/event"
	"github.com/jpalomar/CitasGo/internal/repository"
	apperrors "github.com/jpalomar/CitasGo/pkg/errors"
)

// AppointmentService implements the business logic for booking and
// appointment lifecycle transitions.
type AppointmentService struct {
	apptRepo repository.AppointmentRepository
	slotRepo repository.SlotRepository
	producer *event.Producer
	logger   *slog.Logger
	now      func() time.Time
}

// NewAppointmentService creates a new appointment service.
func NewAppointmentService(
	apptRepo repository.AppointmentRepository,
	slotRepo repository.SlotRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *AppointmentService {
	return &AppointmentService{
		apptRepo: apptRepo,
		slotRepo: slotRepo,
		producer: producer,
		logger:   logger,
		now:      time.Now,
	}
}

// BookInput holds the parameters for booking a slot.
type BookInput struct {
	StudentID string
	SlotID    string
	Reason    string
}

// Book claims a slot for the student. The slot's availability is re-checked
// and flipped atomically in the repository, so concurrent bookings of the
// same slot are resolved there: the loser gets a conflict.
func (s *AppointmentService) Book(ctx context.Context, input BookInput) (*domain.Appointment, error) {
	if strings.TrimSpace(input.Reason) == "" {
		return nil, apperrors.Validation(map[string][]string{
			"motivo": {"Este campo es requerido."},
		})
	}
	if input.SlotID == "" {
		return nil, apperrors.Validation(map[string][]string{
			"horario_id": {"Este campo es requerido."},
		})
	}

	active, err := s.apptRepo.HasActiveForStudent(ctx, input.StudentID)
	if err != nil {
		return nil, fmt.Errorf("check active appointments: %w", err)
	}
	if active {
		return nil, apperrors.NonField("Ya tienes una cita activa. Espera a que se resuelva antes de agendar otra.")
	}

	slot, err := s.slotRepo.GetByID(ctx, input.SlotID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Validation(map[string][]string{
				"horario_id": {"El horario no existe."},
			})
		}
		return nil, fmt.Errorf("get slot: %w", err)
	}
	if !slot.Available {
		return nil, apperrors.NonField("Este horario ya no está disponible.")
	}
	if today := s.now().UTC().Format("2006-01-02"); slot.Date < today {
		return nil, apperrors.NonField("Este horario ya no está disponible.")
	}

	nowUTC := s.now().UTC()
	appt := &domain.Appointment{
		ID:             uuid.New().String(),
		StudentID:      input.StudentID,
		SpecialistID:   slot.SpecialistID,
		SpecialistName: slot.SpecialistName,
		SlotID:         slot.ID,
		Slot:           slot,
		Reason:         strings.TrimSpace(input.Reason),
		Status:         domain.StatusPending,
		CreatedAt:      nowUTC,
		UpdatedAt:      nowUTC,
	}

	if err := s.apptRepo.Book(ctx, appt); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, apperrors.NonField("Este horario ya no está disponible.")
		}
		return nil, fmt.Errorf("book appointment: %w", err)
	}

	if err := s.producer.PublishCitaCreated(ctx, appt); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cita.creada event",
			slog.String("cita_id", appt.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "appointment booked",
		slog.String("cita_id", appt.ID),
		slog.String("alumno_id", appt.StudentID),
		slog.String("horario_id", appt.SlotID),
	)

	return appt, nil
}

// List returns the caller's appointments, scoped by role: students see their
// own, specialists see those addressed to them.
func (s *AppointmentService) List(ctx context.Context, callerID, callerRole string) ([]domain.Appointment, error) {
	var (
		appointments []domain.Appointment
		err          error
	)

	switch callerRole {
	case domain.RoleSpecialist:
		appointments, err = s.apptRepo.ListBySpecialist(ctx, callerID)
	default:
		appointments, err = s.apptRepo.ListByStudent(ctx, callerID)
	}
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	return appointments, nil
}

// Confirm transitions a PENDIENTE appointment to CONFIRMADA.
func (s *AppointmentService) Confirm(ctx context.Context, apptID, callerID string) (*domain.Appointment, error) {
	return s.transition(ctx, apptID, callerID, domain.StatusConfirmed)
}

// Reject transitions a PENDIENTE appointment to RECHAZADA and frees its slot.
func (s *AppointmentService) Reject(ctx context.Context, apptID, callerID string) (*domain.Appointment, error) {
	return s.transition(ctx, apptID, callerID, domain.StatusRejected)
}

// Complete transitions a CONFIRMADA appointment to COMPLETADA.
func (s *AppointmentService) Complete(ctx context.Context, apptID, callerID string) (*domain.Appointment, error) {
	return s.transition(ctx, apptID, callerID, domain.StatusCompleted)
}

// Cancel transitions an active appointment to CANCELADA on behalf of the
// student who booked it, freeing the slot.
func (s *AppointmentService) Cancel(ctx context.Context, apptID, studentID string) (*domain.Appointment, error) {
	appt, err := s.apptRepo.GetByID(ctx, apptID)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}

	if appt.StudentID != studentID {
		return nil, apperrors.Forbidden("Usted no tiene permiso para realizar esta acción.")
	}

	return s.applyTransition(ctx, appt, domain.StatusCanceled)
}

// transition applies a specialist-driven state change, enforcing ownership
// and transition legality.
func (s *AppointmentService) transition(ctx context.Context, apptID, callerID, target string) (*domain.Appointment, error) {
	appt, err := s.apptRepo.GetByID(ctx, apptID)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}

	if appt.SpecialistID != callerID {
		return nil, apperrors.Forbidden("Usted no tiene permiso para realizar esta acción.")
	}

	return s.applyTransition(ctx, appt, target)
}

func (s *AppointmentService) applyTransition(ctx context.Context, appt *domain.Appointment, target string) (*domain.Appointment, error) {
	if !appt.CanTransitionTo(target) {
		return nil, apperrors.Conflict(
			fmt.Sprintf("No se puede pasar una cita de %s a %s.", appt.Status, target),
		)
	}

	oldStatus := appt.Status
	if err := s.apptRepo.UpdateStatus(ctx, appt.ID, target, domain.ReleasesSlot(target)); err != nil {
		return nil, fmt.Errorf("update appointment status: %w", err)
	}
	appt.Status = target

	if err := s.producer.PublishCitaStatusChanged(ctx, appt, oldStatus, target); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cita.estado_cambiado event",
			slog.String("cita_id", appt.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "appointment status changed",
		slog.String("cita_id", appt.ID),
		slog.String("estado_anterior", oldStatus),
		slog.String("estado_nuevo", target),
	)

	return appt, nil
}
