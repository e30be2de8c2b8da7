package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/jpalomar/CitasGo/pkg/errors"
)

// SlotCandidate is a slot a specialist wants to publish, as entered.
// Times accept both HH:MM and HH:MM:SS.
type SlotCandidate struct {
	Date      string // YYYY-MM-DD
	StartTime string
	EndTime   string
}

// Authoring publishes and retires availability slots for the
// authenticated specialist.
type Authoring struct {
	api     *api
	session *Session
}

// ErrSlotConflict marks a slot deletion rejected because an appointment
// already references the slot. This is an expected outcome, surfaced as a
// user message, not a defect.
var ErrSlotConflict = errors.New("slot has an appointment attached")

// ValidateCandidate checks calendar legality without any I/O: the date
// must fall Monday through Friday and the start time must precede the end
// time. Both violations are reported with the same user-facing wording
// the API would use.
func ValidateCandidate(c SlotCandidate) error {
	date, err := time.Parse("2006-01-02", c.Date)
	if err != nil {
		return apperrors.Validation(map[string][]string{
			"fecha": {"Ingrese una fecha válida con formato AAAA-MM-DD."},
		})
	}
	if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return apperrors.NonField("Las citas solo pueden agendarse de lunes a viernes.")
	}

	start, err := normalizeTime(c.StartTime)
	if err != nil {
		return apperrors.Validation(map[string][]string{
			"hora_inicio": {"Ingrese una hora válida con formato HH:MM."},
		})
	}
	end, err := normalizeTime(c.EndTime)
	if err != nil {
		return apperrors.Validation(map[string][]string{
			"hora_fin": {"Ingrese una hora válida con formato HH:MM."},
		})
	}
	if start >= end {
		return apperrors.NonField("La hora de inicio debe ser anterior a la hora de fin.")
	}
	return nil
}

// Create validates the candidate and submits it. Times are normalized to
// HH:MM:SS before transmission. The API attaches the owning specialist
// from the bearer token; the caller's id is still sent as a redundant
// field so a mismatch is detectable server-side.
func (a *Authoring) Create(ctx context.Context, c SlotCandidate) (*Slot, error) {
	if err := ValidateCandidate(c); err != nil {
		return nil, err
	}
	start, _ := normalizeTime(c.StartTime)
	end, _ := normalizeTime(c.EndTime)

	return a.api.createSlot(ctx, createSlotRequest{
		SpecialistID: a.session.Identity().ID,
		Date:         c.Date,
		StartTime:    start,
		EndTime:      end,
	})
}

// Delete retires a slot. A conflict response means an appointment already
// references the slot; that case is reported as ErrSlotConflict wrapping
// the API's message so callers can show it as a plain user notice.
func (a *Authoring) Delete(ctx context.Context, slotID string) error {
	err := a.api.deleteSlot(ctx, slotID)
	if err == nil {
		return nil
	}
	if errors.Is(err, apperrors.ErrConflict) {
		return fmt.Errorf("%w: %s", ErrSlotConflict, ComposeErrorMessage(err))
	}
	return err
}

// normalizeTime canonicalizes HH:MM and HH:MM:SS inputs to HH:MM:SS.
func normalizeTime(value string) (string, error) {
	if t, err := time.Parse("15:04:05", value); err == nil {
		return t.Format("15:04:05"), nil
	}
	t, err := time.Parse("15:04", value)
	if err != nil {
		return "", fmt.Errorf("invalid time %q: %w", value, err)
	}
	return t.Format("15:04:05"), nil
}
