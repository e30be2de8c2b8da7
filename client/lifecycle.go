package client

import (
	"context"
	"errors"
	"fmt"
)

// Confirmer is the blocking yes/no acknowledgment shown before each
// lifecycle action. Transitions are irreversible from the caller's point
// of view, so the gate is mandatory, not polish.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmerFunc adapts a function to the Confirmer interface.
type ConfirmerFunc func(prompt string) bool

func (f ConfirmerFunc) Confirm(prompt string) bool { return f(prompt) }

var (
	// ErrActionDeclined is returned when the user answers no at the
	// confirmation gate; no request is sent.
	ErrActionDeclined = errors.New("acción cancelada por el usuario")
	// ErrActionFailed is returned when the API rejects a transition. The
	// previously displayed state remains valid.
	ErrActionFailed = errors.New("No se pudo completar la acción. Intenta de nuevo.")
)

// Lifecycle drives the appointment transitions: the specialist's
// confirm/reject/complete and the student's cancel. Each call
// sends exactly one transition request; nothing is idempotent
// client-side, the API rejects transitions from an illegal source state.
type Lifecycle struct {
	api       *api
	confirmer Confirmer
}

// List fetches the caller's appointments, role-scoped by the API.
func (l *Lifecycle) List(ctx context.Context) ([]Appointment, error) {
	appts, err := l.api.listAppointments(ctx)
	if err != nil {
		return []Appointment{}, err
	}
	return appts, nil
}

// Confirm moves a pending appointment to confirmed.
func (l *Lifecycle) Confirm(ctx context.Context, appt *Appointment) error {
	return l.apply(ctx, appt, "confirmar", "¿Confirmar esta cita?")
}

// Reject moves a pending appointment to rejected, releasing its slot.
func (l *Lifecycle) Reject(ctx context.Context, appt *Appointment) error {
	return l.apply(ctx, appt, "rechazar", "¿Rechazar esta cita?")
}

// Complete moves a confirmed appointment to completed.
func (l *Lifecycle) Complete(ctx context.Context, appt *Appointment) error {
	return l.apply(ctx, appt, "completar", "¿Marcar esta cita como completada?")
}

// Cancel moves the student's own active appointment to cancelled,
// releasing its slot.
func (l *Lifecycle) Cancel(ctx context.Context, appt *Appointment) error {
	return l.apply(ctx, appt, "cancelar", "¿Cancelar esta cita?")
}

// apply runs the confirmation gate, posts the action, and on success
// patches the one affected record in place. On failure the record is left
// untouched so the prior state stays displayed.
func (l *Lifecycle) apply(ctx context.Context, appt *Appointment, action, prompt string) error {
	if !l.confirmer.Confirm(prompt) {
		return ErrActionDeclined
	}

	updated, err := l.api.transition(ctx, appt.ID, action)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrActionFailed, ComposeErrorMessage(err))
	}
	*appt = *updated
	return nil
}

// Buckets is the specialist's three-way appointment partition. Every
// appointment lands in exactly one bucket.
type Buckets struct {
	Pending   []Appointment
	Confirmed []Appointment
	History   []Appointment
}

// PartitionAppointments splits a list into the pending, confirmed and
// history display buckets. History collects every terminal state
// (completed, rejected, cancelled, no-show).
func PartitionAppointments(appts []Appointment) Buckets {
	b := Buckets{
		Pending:   []Appointment{},
		Confirmed: []Appointment{},
		History:   []Appointment{},
	}
	for _, a := range appts {
		switch a.Status {
		case StatusPending:
			b.Pending = append(b.Pending, a)
		case StatusConfirmed:
			b.Confirmed = append(b.Confirmed, a)
		default:
			b.History = append(b.History, a)
		}
	}
	return b
}
