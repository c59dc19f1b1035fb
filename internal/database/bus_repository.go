package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/transporttn/busline-backend/internal/models"
)

// BusRepository handles fleet database operations
type BusRepository struct {
	db DB
}

// NewBusRepository creates a new BusRepository
func NewBusRepository(db DB) *BusRepository {
	return &BusRepository{db: db}
}

const busColumns = `id, number, capacity, type, driver_id, status, gps_tracking, created_at, updated_at`

// Create inserts a new bus
func (r *BusRepository) Create(bus *models.Bus) (*models.Bus, error) {
	if bus.ID == "" {
		bus.ID = uuid.New().String()
	}
	query := `
		INSERT INTO buses (id, number, capacity, type, driver_id, status, gps_tracking)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(query,
		bus.ID, bus.Number, bus.Capacity, bus.Type, bus.DriverID, bus.Status, bus.GPSTracking,
	).Scan(&bus.CreatedAt, &bus.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create bus: %w", err)
	}
	return bus, nil
}

// GetByID retrieves a bus by id, returning nil when absent
func (r *BusRepository) GetByID(id string) (*models.Bus, error) {
	var bus models.Bus
	query := fmt.Sprintf(`SELECT %s FROM buses WHERE id = $1`, busColumns)
	err := r.db.Get(&bus, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bus by id: %w", err)
	}
	return &bus, nil
}

// List returns the whole fleet
func (r *BusRepository) List() ([]models.Bus, error) {
	var buses []models.Bus
	query := fmt.Sprintf(`SELECT %s FROM buses ORDER BY number`, busColumns)
	if err := r.db.Select(&buses, query); err != nil {
		return nil, fmt.Errorf("failed to list buses: %w", err)
	}
	return buses, nil
}

// ListByStatus returns buses with the given status
func (r *BusRepository) ListByStatus(status models.BusStatus) ([]models.Bus, error) {
	var buses []models.Bus
	query := fmt.Sprintf(`SELECT %s FROM buses WHERE status = $1 ORDER BY number`, busColumns)
	if err := r.db.Select(&buses, query, status); err != nil {
		return nil, fmt.Errorf("failed to list buses by status: %w", err)
	}
	return buses, nil
}

// Count returns the fleet size
func (r *BusRepository) Count() (int, error) {
	var count int
	if err := r.db.Get(&count, `SELECT COUNT(*) FROM buses`); err != nil {
		return 0, fmt.Errorf("failed to count buses: %w", err)
	}
	return count, nil
}

// Update overwrites the mutable fields of a bus
func (r *BusRepository) Update(bus *models.Bus) error {
	query := `
		UPDATE buses
		SET number = $2, capacity = $3, type = $4, driver_id = $5,
			status = $6, gps_tracking = $7, updated_at = now()
		WHERE id = $1`

	result, err := r.db.Exec(query,
		bus.ID, bus.Number, bus.Capacity, bus.Type, bus.DriverID, bus.Status, bus.GPSTracking,
	)
	if err != nil {
		return fmt.Errorf("failed to update bus: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a bus
func (r *BusRepository) Delete(id string) error {
	if _, err := r.db.Exec(`DELETE FROM buses WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete bus: %w", err)
	}
	return nil
}

// DeleteAll removes every bus. Used by the administrative reset.
func (r *BusRepository) DeleteAll() error {
	if _, err := r.db.Exec(`DELETE FROM buses`); err != nil {
		return fmt.Errorf("failed to delete buses: %w", err)
	}
	return nil
}
