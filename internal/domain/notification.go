package domain

import "time"

// Notification type constants, matching the kinds of appointment events the
// platform reports to users.
const (
	NotificationCitaCreated   = "CITA_CREADA"
	NotificationCitaConfirmed = "CITA_CONFIRMADA"
	NotificationCitaRejected  = "CITA_RECHAZADA"
	NotificationCitaCompleted = "CITA_COMPLETADA"
	NotificationCitaCanceled  = "CITA_CANCELADA"
)

// Notification represents an in-app notification for a user.
type Notification struct {
	ID            string    `json:"id"`
	UserID        string    `json:"usuario"`
	Type          string    `json:"tipo"`
	Message       string    `json:"mensaje"`
	AppointmentID string    `json:"cita,omitempty"`
	Read          bool      `json:"leida"`
	CreatedAt     time.Time `json:"fecha_creacion"`
}

// ValidNotificationTypes returns the set of valid notification types.
func ValidNotificationTypes() []string {
	return []string{
		NotificationCitaCreated,
		NotificationCitaConfirmed,
		NotificationCitaRejected,
		NotificationCitaCompleted,
		NotificationCitaCanceled,
	}
}

// IsValidNotificationType checks whether the given type string is valid.
func IsValidNotificationType(t string) bool {
	for _, v := range ValidNotificationTypes() {
		if v == t {
			return true
		}
	}
	return false
}
