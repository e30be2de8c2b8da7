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

const slotColumns = `h.id, h.especialista_id, u.first_name || ' ' || u.last_name, h.fecha, h.hora_inicio, h.hora_fin, h.disponible, h.created_at`

// SlotRepository implements repository.SlotRepository using PostgreSQL.
type SlotRepository struct {
	pool database.DBTX
}

// NewSlotRepository creates a new PostgreSQL-backed slot repository.
func NewSlotRepository(pool database.DBTX) *SlotRepository {
	return &SlotRepository{pool: pool}
}

// Create inserts a new slot into the database.
func (r *SlotRepository) Create(ctx context.Context, s *domain.Slot) error {
	query := `
		INSERT INTO horarios (id, especialista_id, fecha, hora_inicio, hora_fin, disponible, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		s.ID,
		s.SpecialistID,
		s.Date,
		s.StartTime,
		s.EndTime,
		s.Available,
		s.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("slot", "start", s.Date+" "+s.StartTime)
		}
		return fmt.Errorf("insert slot: %w", err)
	}

	return nil
}

// GetByID retrieves a slot by its ID.
func (r *SlotRepository) GetByID(ctx context.Context, id string) (*domain.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM horarios h
		JOIN usuarios u ON u.id = h.especialista_id
		WHERE h.id = $1`

	var s domain.Slot
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.SpecialistID,
		&s.SpecialistName,
		&s.Date,
		&s.StartTime,
		&s.EndTime,
		&s.Available,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan slot: %w", err)
	}

	return &s, nil
}

// ListBySpecialist returns all slots owned by the given specialist.
func (r *SlotRepository) ListBySpecialist(ctx context.Context, specialistID string) ([]domain.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM horarios h
		JOIN usuarios u ON u.id = h.especialista_id
		WHERE h.especialista_id = $1
		ORDER BY h.fecha, h.hora_inicio, h.id`

	return r.listSlots(ctx, query, specialistID)
}

// ListAvailable returns slots across all specialists where disponible is
// true, excluding past dates.
func (r *SlotRepository) ListAvailable(ctx context.Context) ([]domain.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM horarios h
		JOIN usuarios u ON u.id = h.especialista_id
		WHERE h.disponible = true AND h.fecha >= CURRENT_DATE
		ORDER BY h.fecha, h.hora_inicio, h.id`

	return r.listSlots(ctx, query)
}

// Exists reports whether the specialist already has a slot at the exact
// date and start time.
func (r *SlotRepository) Exists(ctx context.Context, specialistID, date, startTime string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM horarios
			WHERE especialista_id = $1 AND fecha = $2 AND hora_inicio = $3
		)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, specialistID, date, startTime).Scan(&exists); err != nil {
		return false, fmt.Errorf("check slot existence: %w", err)
	}

	return exists, nil
}

// HasAppointment reports whether any non-released appointment references the slot.
func (r *SlotRepository) HasAppointment(ctx context.Context, slotID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM citas
			WHERE horario_id = $1 AND estado NOT IN ($2, $3)
		)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, slotID, domain.StatusRejected, domain.StatusCanceled).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slot appointments: %w", err)
	}

	return exists, nil
}

// Delete removes a slot from the database by its ID.
func (r *SlotRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM horarios WHERE id = $1`

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("slot", id)
	}

	return nil
}

// listSlots executes a multi-row slot query and scans the results.
func (r *SlotRepository) listSlots(ctx context.Context, query string, args ...any) ([]domain.Slot, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()

	var slots []domain.Slot
	for rows.Next() {
		var s domain.Slot
		if err := rows.Scan(
			&s.ID,
			&s.SpecialistID,
			&s.SpecialistName,
			&s.Date,
			&s.StartTime,
			&s.EndTime,
			&s.Available,
			&s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan slot row: %w", err)
		}
		slots = append(slots, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slot rows: %w", err)
	}

	if slots == nil {
		slots = []domain.Slot{}
	}

	return slots, nil
}
