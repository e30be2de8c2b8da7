// Package client is a Go SDK for the appointments API. It owns the
// client-side session model (bearer-token claims, persistence, role-based
// routing), availability reads, slot authoring, booking, and the
// appointment lifecycle actions a specialist drives.
package client

// Roles carried in the token claims.
const (
	RoleStudent    = "ALUMNO"
	RoleSpecialist = "ESPECIALISTA"
	RoleAdmin      = "ADMIN"
)

// Appointment states as reported by the API.
const (
	StatusPending   = "PENDIENTE"
	StatusConfirmed = "CONFIRMADA"
	StatusRejected  = "RECHAZADA"
	StatusCompleted = "COMPLETADA"
	StatusCancelled = "CANCELADA"
	StatusNoShow    = "NO_ASISTIO"
)

// Identity is the authenticated user as decoded from the access token
// claims. It is advisory only: the API re-checks authorization on every
// privileged call, so these fields gate UI reachability, nothing more.
type Identity struct {
	ID            string
	Email         string
	FullName      string
	Role          string
	EmailVerified bool
}

// IsZero reports whether the identity is empty (logged out).
func (i Identity) IsZero() bool {
	return i == Identity{}
}

// Slot is a specialist-published unit of availability.
type Slot struct {
	ID             string `json:"id"`
	SpecialistID   string `json:"especialista"`
	SpecialistName string `json:"especialista_nombre,omitempty"`
	Date           string `json:"fecha"`       // YYYY-MM-DD
	StartTime      string `json:"hora_inicio"` // HH:MM:SS
	EndTime        string `json:"hora_fin"`    // HH:MM:SS
	Available      bool   `json:"disponible"`
}

// Appointment is a student's claim on a slot.
type Appointment struct {
	ID             string `json:"id"`
	StudentID      string `json:"alumno"`
	StudentName    string `json:"alumno_nombre,omitempty"`
	SpecialistID   string `json:"especialista"`
	SpecialistName string `json:"especialista_nombre,omitempty"`
	SlotID         string `json:"horario_id"`
	Slot           *Slot  `json:"horario,omitempty"`
	Reason         string `json:"motivo"`
	Status         string `json:"estado"`
	CreatedAt      string `json:"fecha_creacion"`
}

// TokenPair is the access/refresh pair issued at login.
type TokenPair struct {
	AccessToken  string `json:"access"`
	RefreshToken string `json:"refresh"`
}
