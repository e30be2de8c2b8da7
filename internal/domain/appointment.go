package domain

import "time"

// Appointment status constants. The wire values are the Spanish state names
// the API exposes.
const (
	StatusPending   = "PENDIENTE"
	StatusConfirmed = "CONFIRMADA"
	StatusRejected  = "RECHAZADA"
	StatusCompleted = "COMPLETADA"
	StatusCanceled  = "CANCELADA"
	StatusNoShow    = "NO_ASISTIO"
)

// Appointment represents a student's claim on a Slot ("cita").
type Appointment struct {
	ID             string    `json:"id"`
	StudentID      string    `json:"alumno"`
	StudentName    string    `json:"alumno_nombre,omitempty"`
	SpecialistID   string    `json:"especialista"`
	SpecialistName string    `json:"especialista_nombre,omitempty"`
	SlotID         string    `json:"horario_id"`
	Slot           *Slot     `json:"horario,omitempty"`
	Reason         string    `json:"motivo"`
	Status         string    `json:"estado"`
	CreatedAt      time.Time `json:"fecha_creacion"`
	UpdatedAt      time.Time `json:"-"`
}

// ValidStatuses returns all valid appointment statuses.
func ValidStatuses() []string {
	return []string{
		StatusPending,
		StatusConfirmed,
		StatusRejected,
		StatusCompleted,
		StatusCanceled,
		StatusNoShow,
	}
}

// IsValidStatus checks if a status string is valid.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// ActiveStatuses are the states in which an appointment still holds its slot
// and blocks the student from booking another one.
func ActiveStatuses() []string {
	return []string{StatusPending, StatusConfirmed}
}

// AllowedTransitions defines which status transitions are valid.
func AllowedTransitions() map[string][]string {
	return map[string][]string{
		StatusPending:   {StatusConfirmed, StatusRejected, StatusCanceled},
		StatusConfirmed: {StatusCompleted, StatusNoShow, StatusCanceled},
		StatusRejected:  {},
		StatusCompleted: {},
		StatusCanceled:  {},
		StatusNoShow:    {},
	}
}

// CanTransitionTo checks if the appointment can transition to the target status.
func (a *Appointment) CanTransitionTo(target string) bool {
	allowed, ok := AllowedTransitions()[a.Status]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

// IsActive reports whether the appointment still holds its slot.
func (a *Appointment) IsActive() bool {
	return a.Status == StatusPending || a.Status == StatusConfirmed
}

// ReleasesSlot reports whether entering the target state should free the
// underlying slot for rebooking.
func ReleasesSlot(target string) bool {
	return target == StatusRejected || target == StatusCanceled
}
