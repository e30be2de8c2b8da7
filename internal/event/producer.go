package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jpalomar/CitasGo/internal/domain"
	pkgkafka "github.com/jpalomar/CitasGo/pkg/kafka"
)

// Kafka topic constants for appointment and slot domain events.
const (
	TopicCitaCreated       = "citas.cita.creada"
	TopicCitaStatusChanged = "citas.cita.estado_cambiado"
	TopicHorarioCreated    = "citas.horario.creado"
	TopicHorarioDeleted    = "citas.horario.eliminado"
)

// Aggregate type constants.
const (
	AggregateTypeCita    = "cita"
	AggregateTypeHorario = "horario"
)

// Source identifier for events originating from this API.
const SourceCitasAPI = "citas-api"

// CitaCreatedData is the payload for a cita.creada event (full appointment snapshot).
type CitaCreatedData struct {
	ID             string `json:"id"`
	StudentID      string `json:"alumno_id"`
	SpecialistID   string `json:"especialista_id"`
	SlotID         string `json:"horario_id"`
	Reason         string `json:"motivo"`
	Status         string `json:"estado"`
	Date           string `json:"fecha"`
	StartTime      string `json:"hora_inicio"`
	StudentName    string `json:"alumno_nombre"`
	SpecialistName string `json:"especialista_nombre"`
}

// CitaStatusChangedData is the payload for a cita.estado_cambiado event.
type CitaStatusChangedData struct {
	CitaID       string `json:"cita_id"`
	StudentID    string `json:"alumno_id"`
	SpecialistID string `json:"especialista_id"`
	OldStatus    string `json:"estado_anterior"`
	NewStatus    string `json:"estado_nuevo"`
	Date         string `json:"fecha"`
	StartTime    string `json:"hora_inicio"`
}

// HorarioData is the payload for horario lifecycle events.
type HorarioData struct {
	ID           string `json:"id"`
	SpecialistID string `json:"especialista_id"`
	Date         string `json:"fecha"`
	StartTime    string `json:"hora_inicio"`
	EndTime      string `json:"hora_fin"`
}

// Producer publishes appointment domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCitaCreated publishes a cita.creada event with the full appointment snapshot.
func (p *Producer) PublishCitaCreated(ctx context.Context, appt *domain.Appointment) error {
	data := CitaCreatedData{
		ID:             appt.ID,
		StudentID:      appt.StudentID,
		SpecialistID:   appt.SpecialistID,
		SlotID:         appt.SlotID,
		Reason:         appt.Reason,
		Status:         appt.Status,
		StudentName:    appt.StudentName,
		SpecialistName: appt.SpecialistName,
	}
	if appt.Slot != nil {
		data.Date = appt.Slot.Date
		data.StartTime = appt.Slot.StartTime
	}

	event, err := pkgkafka.NewEvent(TopicCitaCreated, appt.ID, AggregateTypeCita, SourceCitasAPI, data)
	if err != nil {
		return fmt.Errorf("create cita.creada event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCitaCreated, event); err != nil {
		return fmt.Errorf("publish cita.creada event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cita.creada event",
		slog.String("cita_id", appt.ID),
		slog.String("alumno_id", appt.StudentID),
	)

	return nil
}

// PublishCitaStatusChanged publishes a cita.estado_cambiado event.
func (p *Producer) PublishCitaStatusChanged(ctx context.Context, appt *domain.Appointment, oldStatus, newStatus string) error {
	data := CitaStatusChangedData{
		CitaID:       appt.ID,
		StudentID:    appt.StudentID,
		SpecialistID: appt.SpecialistID,
		OldStatus:    oldStatus,
		NewStatus:    newStatus,
	}
	if appt.Slot != nil {
		data.Date = appt.Slot.Date
		data.StartTime = appt.Slot.StartTime
	}

	event, err := pkgkafka.NewEvent(TopicCitaStatusChanged, appt.ID, AggregateTypeCita, SourceCitasAPI, data)
	if err != nil {
		return fmt.Errorf("create cita.estado_cambiado event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCitaStatusChanged, event); err != nil {
		return fmt.Errorf("publish cita.estado_cambiado event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cita.estado_cambiado event",
		slog.String("cita_id", appt.ID),
		slog.String("estado_anterior", oldStatus),
		slog.String("estado_nuevo", newStatus),
	)

	return nil
}

// PublishHorarioCreated publishes a horario.creado event.
func (p *Producer) PublishHorarioCreated(ctx context.Context, slot *domain.Slot) error {
	return p.publishHorario(ctx, TopicHorarioCreated, slot)
}

// PublishHorarioDeleted publishes a horario.eliminado event.
func (p *Producer) PublishHorarioDeleted(ctx context.Context, slot *domain.Slot) error {
	return p.publishHorario(ctx, TopicHorarioDeleted, slot)
}

func (p *Producer) publishHorario(ctx context.Context, topic string, slot *domain.Slot) error {
	data := HorarioData{
		ID:           slot.ID,
		SpecialistID: slot.SpecialistID,
		Date:         slot.Date,
		StartTime:    slot.StartTime,
		EndTime:      slot.EndTime,
	}

	event, err := pkgkafka.NewEvent(topic, slot.ID, AggregateTypeHorario, SourceCitasAPI, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published horario event",
		slog.String("topic", topic),
		slog.String("horario_id", slot.ID),
	)

	return nil
}
