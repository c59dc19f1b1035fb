package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/transporttn/busline-backend/internal/models"
)

// TripRepository handles trip inventory database operations. Seat
// availability on a trip is decremented only inside the booking
// transaction (see BookingRepository) or reset by administrative edits.
type TripRepository struct {
	db DB
}

// NewTripRepository creates a new TripRepository
func NewTripRepository(db DB) *TripRepository {
	return &TripRepository{db: db}
}

const tripColumns = `id, origin, destination, service_date, departure_time, arrival_time,
	price, bus_id, driver_id, available_seats, status, created_at, updated_at`

// GetByID retrieves a trip or fails with models.ErrTripNotFound
func (r *TripRepository) GetByID(id string) (*models.Trip, error) {
	var trip models.Trip
	query := fmt.Sprintf(`SELECT %s FROM trips WHERE id = $1`, tripColumns)
	err := r.db.Get(&trip, query, id)
	if err == sql.ErrNoRows {
		return nil, models.ErrTripNotFound
	}
	if err != nil {
		return nil, models.NewStorageError("get trip", err)
	}
	return &trip, nil
}

// Search returns Active trips matching the filter. Origin and destination
// are case-insensitive substring matches; the date filter is exact.
func (r *TripRepository) Search(filter models.TripSearchFilter) ([]models.Trip, error) {
	query := fmt.Sprintf(`SELECT %s FROM trips WHERE status = 'Active'`, tripColumns)
	args := []interface{}{}

	if filter.Origin != "" {
		args = append(args, "%"+filter.Origin+"%")
		query += fmt.Sprintf(` AND origin ILIKE $%d`, len(args))
	}
	if filter.Destination != "" {
		args = append(args, "%"+filter.Destination+"%")
		query += fmt.Sprintf(` AND destination ILIKE $%d`, len(args))
	}

	date, err := filter.NormalizedDate()
	if err != nil {
		return nil, err
	}
	if date != "" {
		args = append(args, date)
		query += fmt.Sprintf(` AND service_date = $%d`, len(args))
	}

	query += ` ORDER BY service_date, departure_time`

	var trips []models.Trip
	if err := r.db.Select(&trips, query, args...); err != nil {
		return nil, models.NewStorageError("search trips", err)
	}
	return trips, nil
}

// List returns every trip, soonest first
func (r *TripRepository) List() ([]models.Trip, error) {
	var trips []models.Trip
	query := fmt.Sprintf(`SELECT %s FROM trips ORDER BY service_date, departure_time`, tripColumns)
	if err := r.db.Select(&trips, query); err != nil {
		return nil, models.NewStorageError("list trips", err)
	}
	return trips, nil
}

// ListByDriver returns the trips assigned to a driver
func (r *TripRepository) ListByDriver(driverID string) ([]models.Trip, error) {
	var trips []models.Trip
	query := fmt.Sprintf(`SELECT %s FROM trips WHERE driver_id = $1 ORDER BY service_date, departure_time`, tripColumns)
	if err := r.db.Select(&trips, query, driverID); err != nil {
		return nil, models.NewStorageError("list trips by driver", err)
	}
	return trips, nil
}

// ListByDate returns the trips departing on the given day
func (r *TripRepository) ListByDate(date string) ([]models.Trip, error) {
	var trips []models.Trip
	query := fmt.Sprintf(`SELECT %s FROM trips WHERE service_date = $1 ORDER BY departure_time`, tripColumns)
	if err := r.db.Select(&trips, query, date); err != nil {
		return nil, models.NewStorageError("list trips by date", err)
	}
	return trips, nil
}

// CountByDate returns how many trips depart on the given day
func (r *TripRepository) CountByDate(date string) (int, error) {
	var count int
	if err := r.db.Get(&count, `SELECT COUNT(*) FROM trips WHERE service_date = $1`, date); err != nil {
		return 0, models.NewStorageError("count trips by date", err)
	}
	return count, nil
}

// Count returns the total number of trips
func (r *TripRepository) Count() (int, error) {
	var count int
	if err := r.db.Get(&count, `SELECT COUNT(*) FROM trips`); err != nil {
		return 0, models.NewStorageError("count trips", err)
	}
	return count, nil
}

// Create inserts a new trip
func (r *TripRepository) Create(trip *models.Trip) (*models.Trip, error) {
	if trip.ID == "" {
		trip.ID = uuid.New().String()
	}
	query := `
		INSERT INTO trips (id, origin, destination, service_date, departure_time,
			arrival_time, price, bus_id, driver_id, available_seats, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(query,
		trip.ID, trip.Origin, trip.Destination, trip.ServiceDate.Format("2006-01-02"),
		trip.DepartureTime, trip.ArrivalTime, trip.Price, trip.BusID, trip.DriverID,
		trip.AvailableSeats, trip.Status,
	).Scan(&trip.CreatedAt, &trip.UpdatedAt)
	if err != nil {
		return nil, models.NewStorageError("create trip", err)
	}
	return trip, nil
}

// Update overwrites the mutable fields of a trip, including the
// administrative reset of available_seats
func (r *TripRepository) Update(trip *models.Trip) error {
	query := `
		UPDATE trips
		SET origin = $2, destination = $3, service_date = $4, departure_time = $5,
			arrival_time = $6, price = $7, bus_id = $8, driver_id = $9,
			available_seats = $10, status = $11, updated_at = now()
		WHERE id = $1`

	result, err := r.db.Exec(query,
		trip.ID, trip.Origin, trip.Destination, trip.ServiceDate.Format("2006-01-02"),
		trip.DepartureTime, trip.ArrivalTime, trip.Price, trip.BusID, trip.DriverID,
		trip.AvailableSeats, trip.Status,
	)
	if err != nil {
		return models.NewStorageError("update trip", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return models.NewStorageError("update trip", err)
	}
	if rows == 0 {
		return models.ErrTripNotFound
	}
	return nil
}

// Delete removes a trip
func (r *TripRepository) Delete(id string) error {
	if _, err := r.db.Exec(`DELETE FROM trips WHERE id = $1`, id); err != nil {
		return models.NewStorageError("delete trip", err)
	}
	return nil
}

// DeleteAll removes every trip. Used by the administrative reset.
func (r *TripRepository) DeleteAll() error {
	if _, err := r.db.Exec(`DELETE FROM trips`); err != nil {
		return models.NewStorageError("delete trips", err)
	}
	return nil
}
