package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jpalomar/CitasGo/internal/domain"
	"github.com/jpalomar/CitasGo/pkg/database"
	apperrors "github.com/jpalomar/CitasGo/pkg/errors"
)

const appointmentColumns = `c.id, c.alumno_id, ua.first_name || ' ' || ua.last_name,
	c.especialista_id, ue.first_name || ' ' || ue.last_name,
	c.horario_id, h.fecha, h.hora_inicio, h.hora_fin, h.disponible, h.created_at,
	c.motivo, c.estado, c.fecha_creacion, c.updated_at`

// AppointmentRepository implements repository.AppointmentRepository using PostgreSQL.
type AppointmentRepository struct {
	pool database.DBTX
}

// NewAppointmentRepository creates a new PostgreSQL-backed appointment repository.
func NewAppointmentRepository(pool database.DBTX) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

// Book atomically claims the slot and inserts the appointment. The slot row is
// updated with a disponible guard so a concurrent booking of the same slot
// loses the race and gets ErrConflict.
func (r *AppointmentRepository) Book(ctx context.Context, a *domain.Appointment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Claim the slot only if it is still available.
	ct, err := tx.Exec(ctx,
		`UPDATE horarios SET disponible = false WHERE id = $1 AND disponible = true`,
		a.SlotID,
	)
	if err != nil {
		return fmt.Errorf("claim slot: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrConflict
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO citas (id, alumno_id, especialista_id, horario_id, motivo, estado, fecha_creacion, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID,
		a.StudentID,
		a.SpecialistID,
		a.SlotID,
		a.Reason,
		a.Status,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves an appointment by its ID, including its slot projection.
func (r *AppointmentRepository) GetByID(ctx context.Context, id string) (*domain.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM citas c
		JOIN usuarios ua ON ua.id = c.alumno_id
		JOIN usuarios ue ON ue.id = c.especialista_id
		JOIN horarios h ON h.id = c.horario_id
		WHERE c.id = $1`

	row := r.pool.QueryRow(ctx, query, id)
	a, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan appointment: %w", err)
	}

	return a, nil
}

// ListByStudent returns the student's appointments, newest first.
func (r *AppointmentRepository) ListByStudent(ctx context.Context, studentID string) ([]domain.Appointment, error) {
	return r.listAppointments(ctx, "c.alumno_id", studentID)
}

// ListBySpecialist returns the specialist's appointments, newest first.
func (r *AppointmentRepository) ListBySpecialist(ctx context.Context, specialistID string) ([]domain.Appointment, error) {
	return r.listAppointments(ctx, "c.especialista_id", specialistID)
}

// HasActiveForStudent reports whether the student holds an active appointment.
func (r *AppointmentRepository) HasActiveForStudent(ctx context.Context, studentID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM citas
			WHERE alumno_id = $1 AND estado IN ($2, $3)
		)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, studentID, domain.StatusPending, domain.StatusConfirmed).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check active appointments: %w", err)
	}

	return exists, nil
}

// UpdateStatus transitions the appointment and optionally frees its slot in
// the same transaction.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id, status string, releaseSlot bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx,
		`UPDATE citas SET estado = $1, updated_at = NOW() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("appointment", id)
	}

	if releaseSlot {
		_, err = tx.Exec(ctx,
			`UPDATE horarios SET disponible = true WHERE id = (SELECT horario_id FROM citas WHERE id = $1)`,
			id,
		)
		if err != nil {
			return fmt.Errorf("release slot: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// listAppointments executes a filtered multi-row appointment query.
func (r *AppointmentRepository) listAppointments(ctx context.Context, column, value string) ([]domain.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM citas c
		JOIN usuarios ua ON ua.id = c.alumno_id
		JOIN usuarios ue ON ue.id = c.especialista_id
		JOIN horarios h ON h.id = c.horario_id
		WHERE ` + column + ` = $1
		ORDER BY c.fecha_creacion DESC`

	rows, err := r.pool.Query(ctx, query, value)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var appointments []domain.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment row: %w", err)
		}
		appointments = append(appointments, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate appointment rows: %w", err)
	}

	if appointments == nil {
		appointments = []domain.Appointment{}
	}

	return appointments, nil
}

// scanAppointment scans a joined citas/usuarios/horarios row.
func scanAppointment(row pgx.Row) (*domain.Appointment, error) {
	var (
		a    domain.Appointment
		slot domain.Slot
	)

	err := row.Scan(
		&a.ID,
		&a.StudentID,
		&a.StudentName,
		&a.SpecialistID,
		&a.SpecialistName,
		&a.SlotID,
		&slot.Date,
		&slot.StartTime,
		&slot.EndTime,
		&slot.Available,
		&slot.CreatedAt,
		&a.Reason,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	slot.ID = a.SlotID
	slot.SpecialistID = a.SpecialistID
	slot.SpecialistName = a.SpecialistName
	a.Slot = &slot

	return &a, nil
}
