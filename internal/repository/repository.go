package repository

import (
	"context"

	"github.com/jpalomar/CitasGo/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// CountUsernamePrefix returns how many users have the exact username or
	// the username followed by a numeric suffix. Used for auto-generated
	// usernames of the form first.last, first.last1, first.last2, ...
	CountUsernamePrefix(ctx context.Context, username string) (int, error)

	// Update modifies an existing user in the store.
	Update(ctx context.Context, user *domain.User) error
}

// SlotRepository defines the interface for availability slot persistence.
type SlotRepository interface {
	// Create inserts a new slot into the store.
	Create(ctx context.Context, slot *domain.Slot) error

	// GetByID retrieves a slot by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Slot, error)

	// ListBySpecialist returns all slots owned by the given specialist,
	// available and taken alike, ordered by date then start time.
	ListBySpecialist(ctx context.Context, specialistID string) ([]domain.Slot, error)

	// ListAvailable returns slots across all specialists where disponible
	// is true, ordered by date then start time.
	ListAvailable(ctx context.Context) ([]domain.Slot, error)

	// Exists reports whether the specialist already has a slot at the exact
	// date and start time.
	Exists(ctx context.Context, specialistID, date, startTime string) (bool, error)

	// HasAppointment reports whether any non-released appointment references
	// the slot.
	HasAppointment(ctx context.Context, slotID string) (bool, error)

	// Delete removes a slot from the store by its identifier.
	Delete(ctx context.Context, id string) error
}

// AppointmentRepository defines the interface for appointment persistence.
type AppointmentRepository interface {
	// Book atomically re-checks the slot's availability, flips it to taken,
	// and inserts the appointment in PENDIENTE state. It fails when the slot
	// no longer exists or has already been claimed.
	Book(ctx context.Context, appt *domain.Appointment) error

	// GetByID retrieves an appointment by its unique identifier, including
	// its slot projection.
	GetByID(ctx context.Context, id string) (*domain.Appointment, error)

	// ListByStudent returns the student's appointments, newest first.
	ListByStudent(ctx context.Context, studentID string) ([]domain.Appointment, error)

	// ListBySpecialist returns the specialist's appointments, newest first.
	ListBySpecialist(ctx context.Context, specialistID string) ([]domain.Appointment, error)

	// HasActiveForStudent reports whether the student holds an appointment
	// in an active state (PENDIENTE or CONFIRMADA).
	HasActiveForStudent(ctx context.Context, studentID string) (bool, error)

	// UpdateStatus transitions the appointment to the target status and,
	// when releaseSlot is true, frees the underlying slot in the same
	// transaction.
	UpdateStatus(ctx context.Context, id, status string, releaseSlot bool) error
}

// NotificationRepository defines the interface for notification persistence.
type NotificationRepository interface {
	// Create inserts a new notification into the store.
	Create(ctx context.Context, n *domain.Notification) error

	// ListByUser returns the user's notifications, newest first.
	ListByUser(ctx context.Context, userID string) ([]domain.Notification, error)

	// MarkRead marks a notification as read.
	MarkRead(ctx context.Context, id string) error
}
