package client

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	apperrors "github.com/jpalomar/CitasGo/pkg/errors"
)

// Preconditions checked before any network request is made.
var (
	// ErrConsentRequired is returned when the privacy-notice consent box
	// was not accepted.
	ErrConsentRequired = errors.New("Debes aceptar el aviso de privacidad para agendar una cita.")
	// ErrReasonRequired is returned when the consultation reason is empty.
	ErrReasonRequired = errors.New("Debes indicar el motivo de la consulta.")
)

// successDisplayDelay is how long the confirmation view stays up before
// the deferred navigation home fires. Cosmetic only.
const successDisplayDelay = 2 * time.Second

// Booking claims a slot into an appointment on behalf of the
// authenticated student.
type Booking struct {
	api      *api
	nav      Navigator
	navDelay time.Duration
	// after schedules the deferred navigation; replaced in tests.
	after func(d time.Duration, f func()) *time.Timer
}

// Book submits a claim on slotID with the given consultation reason.
// Consent and a non-empty reason are required before any request is
// issued. Slot availability is decided by the server: when two students
// race for the same slot the loser gets a conflict back, surfaced through
// the returned error with no automatic retry.
//
// On success a navigation to the student home is scheduled after a short
// display delay so the confirmation stays visible.
func (b *Booking) Book(ctx context.Context, slotID, reason string, consentAccepted bool) (*Appointment, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrReasonRequired
	}
	if !consentAccepted {
		return nil, ErrConsentRequired
	}

	appt, err := b.api.book(ctx, slotID, strings.TrimSpace(reason))
	if err != nil {
		return nil, err
	}

	b.after(b.navDelay, func() {
		b.nav.NavigateTo(RouteStudentHome)
	})
	return appt, nil
}

// ComposeErrorMessage renders an API error into the user-facing message
// text. The composition rules mirror the API's error payloads:
//
//   - a detail payload is used verbatim;
//   - a payload carrying non_field_errors joins those entries with
//     newlines;
//   - any other field-keyed payload renders one "<key>: <values joined by
//     commas>" line per key (keys in sorted order, the non_field_errors
//     key with no prefix), each line newline-terminated.
//
// The payload's own key order does not survive JSON decoding into a map,
// so sorted order is the deterministic stand-in for it. Do not change it:
// the rendered text is asserted verbatim in tests.
//
// The SDK's own precondition and action sentinels already carry their
// user-facing wording and pass through unchanged. Errors that are neither
// (network failures, timeouts) produce a generic retry-suggesting
// message.
func ComposeErrorMessage(err error) string {
	for _, sentinel := range []error{ErrReasonRequired, ErrConsentRequired, ErrActionDeclined, ErrActionFailed, ErrSlotConflict} {
		if errors.Is(err, sentinel) {
			return err.Error()
		}
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return "No se pudo conectar con el servidor. Intenta de nuevo más tarde."
	}

	if len(appErr.Fields) == 0 {
		return appErr.Message
	}

	if msgs, ok := appErr.Fields[apperrors.NonFieldKey]; ok {
		return strings.Join(msgs, "\n")
	}

	keys := make([]string, 0, len(appErr.Fields))
	for key := range appErr.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, key := range keys {
		values := strings.Join(appErr.Fields[key], ", ")
		if key == apperrors.NonFieldKey {
			sb.WriteString(values)
		} else {
			sb.WriteString(key + ": " + values)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
