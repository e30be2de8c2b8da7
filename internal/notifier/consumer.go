// Package notifier consumes appointment events and materializes user-facing
// notifications.
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jpalomar/CitasGo/internal/domain"
	"github.com/jpalomar/CitasGo/internal/event"
	"github.com/jpalomar/CitasGo/internal/mailer"
	"github.com/jpalomar/CitasGo/internal/repository"
	pkgkafka "github.com/jpalomar/CitasGo/pkg/kafka"
)

// ConsumerGroupID is the Kafka consumer group for the notifier.
const ConsumerGroupID = "citas-notifier"

// ConsumerHandler routes incoming Kafka events to the appropriate handler.
type ConsumerHandler struct {
	notifRepo repository.NotificationRepository
	userRepo  repository.UserRepository
	mail      mailer.Sender
	logger    *slog.Logger
}

// NewConsumerHandler creates a new event consumer handler.
func NewConsumerHandler(
	notifRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	mail mailer.Sender,
	logger *slog.Logger,
) *ConsumerHandler {
	return &ConsumerHandler{
		notifRepo: notifRepo,
		userRepo:  userRepo,
		mail:      mail,
		logger:    logger,
	}
}

// Handle processes an incoming Kafka event based on its event type.
func (h *ConsumerHandler) Handle(ctx context.Context, evt *pkgkafka.Event) error {
	switch evt.EventType {
	case event.TopicCitaCreated:
		return h.handleCitaCreated(ctx, evt)
	case event.TopicCitaStatusChanged:
		return h.handleCitaStatusChanged(ctx, evt)
	default:
		h.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", evt.EventType),
			slog.String("event_id", evt.EventID),
		)
		return nil
	}
}

// handleCitaCreated notifies the specialist that a student requested a slot.
func (h *ConsumerHandler) handleCitaCreated(ctx context.Context, evt *pkgkafka.Event) error {
	var data event.CitaCreatedData
	if err := evt.UnmarshalData(&data); err != nil {
		return fmt.Errorf("unmarshal cita.creada payload: %w", err)
	}

	msg := fmt.Sprintf("%s solicitó una cita para el %s a las %s.", data.StudentName, data.Date, data.StartTime)
	return h.createNotification(ctx, data.SpecialistID, domain.NotificationCitaCreated, msg, data.ID)
}

// handleCitaStatusChanged notifies the student of the new state and sends a
// best-effort email.
func (h *ConsumerHandler) handleCitaStatusChanged(ctx context.Context, evt *pkgkafka.Event) error {
	var data event.CitaStatusChangedData
	if err := evt.UnmarshalData(&data); err != nil {
		return fmt.Errorf("unmarshal cita.estado_cambiado payload: %w", err)
	}

	var notifType string
	switch data.NewStatus {
	case domain.StatusConfirmed:
		notifType = domain.NotificationCitaConfirmed
	case domain.StatusRejected:
		notifType = domain.NotificationCitaRejected
	case domain.StatusCompleted:
		notifType = domain.NotificationCitaCompleted
	case domain.StatusCanceled:
		notifType = domain.NotificationCitaCanceled
	default:
		h.logger.WarnContext(ctx, "status change with no notification mapping",
			slog.String("cita_id", data.CitaID),
			slog.String("estado_nuevo", data.NewStatus),
		)
		return nil
	}

	// Cancellations are student-initiated, so they notify the specialist;
	// everything else notifies the student.
	recipientID := data.StudentID
	if data.NewStatus == domain.StatusCanceled {
		recipientID = data.SpecialistID
	}

	msg := fmt.Sprintf("Tu cita cambió de estado: %s.", data.NewStatus)
	if err := h.createNotification(ctx, recipientID, notifType, msg, data.CitaID); err != nil {
		return err
	}

	recipient, err := h.userRepo.GetByID(ctx, recipientID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load notification recipient",
			slog.String("usuario_id", recipientID),
			slog.String("error", err.Error()),
		)
		return nil
	}

	if err := h.mail.SendAppointmentStatus(recipient.Email, recipient.FullName(), data.NewStatus, data.Date, data.StartTime); err != nil {
		h.logger.ErrorContext(ctx, "failed to send status email",
			slog.String("usuario_id", recipientID),
			slog.String("error", err.Error()),
		)
	}

	return nil
}

func (h *ConsumerHandler) createNotification(ctx context.Context, userID, notifType, msg, citaID string) error {
	n := &domain.Notification{
		ID:            uuid.New().String(),
		UserID:        userID,
		Type:          notifType,
		Message:       msg,
		AppointmentID: citaID,
		Read:          false,
		CreatedAt:     time.Now().UTC(),
	}

	if err := h.notifRepo.Create(ctx, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	h.logger.InfoContext(ctx, "notification created",
		slog.String("notificacion_id", n.ID),
		slog.String("usuario_id", userID),
		slog.String("tipo", notifType),
	)

	return nil
}

// NewConsumers creates Kafka consumers for all topics the notifier subscribes to.
func NewConsumers(brokers []string, handler *ConsumerHandler, logger *slog.Logger) []*pkgkafka.Consumer {
	topics := []string{
		event.TopicCitaCreated,
		event.TopicCitaStatusChanged,
	}

	consumers := make([]*pkgkafka.Consumer, 0, len(topics))

	for _, topic := range topics {
		cfg := pkgkafka.ConsumerConfig{
			Brokers:  brokers,
			GroupID:  ConsumerGroupID,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6,
		}

		consumers = append(consumers, pkgkafka.NewConsumer(cfg, handler.Handle, logger))
	}

	return consumers
}
