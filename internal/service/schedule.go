package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jpalomar/CitasGo/internal/domain"
	"github.com/jpalomar/CitasGo/internal/event"
	"github.com/jpalomar/CitasGo/internal/repository"
	apperrors "github.com/jpalomar/CitasGo/pkg/errors"
)

// ScheduleService implements the business logic for availability slots.
type ScheduleService struct {
	slotRepo repository.SlotRepository
	producer *event.Producer
	logger   *slog.Logger
	now      func() time.Time
}

// NewScheduleService creates a new schedule service.
func NewScheduleService(slotRepo repository.SlotRepository, producer *event.Producer, logger *slog.Logger) *ScheduleService {
	return &ScheduleService{
		slotRepo: slotRepo,
		producer: producer,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateSlotInput holds the parameters for publishing a new slot.
type CreateSlotInput struct {
	SpecialistID string
	Date         string // YYYY-MM-DD
	StartTime    string // HH:MM or HH:MM:SS
	EndTime      string // HH:MM or HH:MM:SS
}

// CreateSlot validates and persists a new availability slot.
func (s *ScheduleService) CreateSlot(ctx context.Context, input CreateSlotInput) (*domain.Slot, error) {
	date, err := time.Parse("2006-01-02", input.Date)
	if err != nil {
		return nil, apperrors.Validation(map[string][]string{
			"fecha": {"Fecha inválida, use el formato AAAA-MM-DD."},
		})
	}

	start, err := normalizeTime(input.StartTime)
	if err != nil {
		return nil, apperrors.Validation(map[string][]string{
			"hora_inicio": {"Hora inválida, use el formato HH:MM."},
		})
	}
	end, err := normalizeTime(input.EndTime)
	if err != nil {
		return nil, apperrors.Validation(map[string][]string{
			"hora_fin": {"Hora inválida, use el formato HH:MM."},
		})
	}

	if !domain.IsAllowedWeekday(date) {
		return nil, apperrors.NonField("Las citas solo pueden agendarse de lunes a viernes.")
	}
	if today := s.now().UTC().Format("2006-01-02"); input.Date < today {
		return nil, apperrors.NonField("No se pueden crear horarios en fechas pasadas.")
	}
	if start >= end {
		return nil, apperrors.NonField("La hora de inicio debe ser anterior a la hora de fin.")
	}

	exists, err := s.slotRepo.Exists(ctx, input.SpecialistID, input.Date, start)
	if err != nil {
		return nil, fmt.Errorf("check duplicate slot: %w", err)
	}
	if exists {
		return nil, apperrors.NonField("Ya existe un horario para esa fecha y hora de inicio.")
	}

	slot := &domain.Slot{
		ID:           uuid.New().String(),
		SpecialistID: input.SpecialistID,
		Date:         input.Date,
		StartTime:    start,
		EndTime:      end,
		Available:    true,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.slotRepo.Create(ctx, slot); err != nil {
		return nil, fmt.Errorf("create slot: %w", err)
	}

	// Publish slot event (non-blocking on failure).
	if err := s.producer.PublishHorarioCreated(ctx, slot); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish horario.creado event",
			slog.String("horario_id", slot.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "slot created",
		slog.String("horario_id", slot.ID),
		slog.String("especialista_id", slot.SpecialistID),
		slog.String("fecha", slot.Date),
	)

	return slot, nil
}

// ListSlots returns either the caller's own slots or, when availableOnly is
// set, the available future slots across all specialists. Specialists asking
// for available slots additionally get all of their own, so they can see
// slots already claimed or dated in the past.
func (s *ScheduleService) ListSlots(ctx context.Context, callerID, callerRole string, availableOnly bool) ([]domain.Slot, error) {
	if availableOnly {
		slots, err := s.slotRepo.ListAvailable(ctx)
		if err != nil {
			return nil, fmt.Errorf("list available slots: %w", err)
		}
		if callerRole == domain.RoleSpecialist {
			own, err := s.slotRepo.ListBySpecialist(ctx, callerID)
			if err != nil {
				return nil, fmt.Errorf("list specialist slots: %w", err)
			}
			slots = mergeSlots(slots, own)
		}
		return slots, nil
	}

	if callerRole != domain.RoleSpecialist && callerRole != domain.RoleAdmin {
		return nil, apperrors.Forbidden("Usted no tiene permiso para realizar esta acción.")
	}

	slots, err := s.slotRepo.ListBySpecialist(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("list specialist slots: %w", err)
	}
	return slots, nil
}

// DeleteSlot removes one of the caller's slots. A slot referenced by a live
// appointment cannot be deleted; that is reported as a conflict, which
// clients must treat as an expected outcome.
func (s *ScheduleService) DeleteSlot(ctx context.Context, slotID, callerID string) error {
	slot, err := s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		return fmt.Errorf("get slot: %w", err)
	}

	if slot.SpecialistID != callerID {
		return apperrors.Forbidden("Usted no tiene permiso para realizar esta acción.")
	}

	taken, err := s.slotRepo.HasAppointment(ctx, slotID)
	if err != nil {
		return fmt.Errorf("check slot appointments: %w", err)
	}
	if taken {
		return apperrors.Conflict("No se puede eliminar un horario con una cita agendada.")
	}

	if err := s.slotRepo.Delete(ctx, slotID); err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}

	if err := s.producer.PublishHorarioDeleted(ctx, slot); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish horario.eliminado event",
			slog.String("horario_id", slot.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "slot deleted",
		slog.String("horario_id", slotID),
		slog.String("especialista_id", callerID),
	)

	return nil
}

// mergeSlots unions two slot lists, deduplicating by ID and restoring the
// (fecha, hora_inicio, id) listing order.
func mergeSlots(a, b []domain.Slot) []domain.Slot {
	seen := make(map[string]bool, len(a))
	merged := make([]domain.Slot, 0, len(a)+len(b))
	for _, s := range a {
		seen[s.ID] = true
		merged = append(merged, s)
	}
	for _, s := range b {
		if !seen[s.ID] {
			merged = append(merged, s)
		}
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Date != merged[j].Date {
			return merged[i].Date < merged[j].Date
		}
		if merged[i].StartTime != merged[j].StartTime {
			return merged[i].StartTime < merged[j].StartTime
		}
		return merged[i].ID < merged[j].ID
	})
	return merged
}

// normalizeTime validates an HH:MM or HH:MM:SS time and returns it in the
// canonical HH:MM:SS form.
func normalizeTime(value string) (string, error) {
	if t, err := time.Parse("15:04:05", value); err == nil {
		return t.Format("15:04:05"), nil
	}
	t, err := time.Parse("15:04", value)
	if err != nil {
		return "", fmt.Errorf("parse time %q: %w", value, err)
	}
	return t.Format("15:04:05"), nil
}
