package domain

import "time"

// Slot represents a specialist-published unit of availability ("horario").
// The JSON field names match the wire format of the API.
type Slot struct {
	ID               string    `json:"id"`
	SpecialistID     string    `json:"especialista"`
	SpecialistName   string    `json:"especialista_nombre,omitempty"`
	Date             string    `json:"fecha"`       // YYYY-MM-DD
	StartTime        string    `json:"hora_inicio"` // HH:MM:SS
	EndTime          string    `json:"hora_fin"`    // HH:MM:SS
	Available        bool      `json:"disponible"`
	CreatedAt        time.Time `json:"created_at"`
}

// AllowedWeekdays is the set of weekdays on which slots may be scheduled.
var AllowedWeekdays = map[time.Weekday]bool{
	time.Monday:    true,
	time.Tuesday:   true,
	time.Wednesday: true,
	time.Thursday:  true,
	time.Friday:    true,
}

// IsAllowedWeekday reports whether the given date falls on a schedulable day.
func IsAllowedWeekday(date time.Time) bool {
	return AllowedWeekdays[date.Weekday()]
}
