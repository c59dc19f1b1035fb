package database

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/transporttn/busline-backend/internal/models"
)

// seatUniqueConstraint is the partial unique index on (trip_id, seat_number)
// over non-terminal statuses. A violation means another booking won the race
// for the seat.
const seatUniqueConstraint = "bookings_trip_seat_active_idx"

// BookingRepository handles booking database operations. It needs the raw
// sqlx handle rather than the DB interface because the seat check, ticket
// insert and inventory decrement must share one transaction.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `id, trip_id, user_id, passenger_name, seat_number, trip_date,
	price, token, status, refund_reason, refund_iban, created_at, updated_at`

// GenerateTicketToken generates a unique, unguessable validation token.
// Format: TM-XXXXXXXXXXXXXXXXXXXXXXXX (24 hex chars from crypto/rand).
func (r *BookingRepository) GenerateTicketToken() (string, error) {
	for attempts := 0; attempts < 10; attempts++ {
		randomBytes := make([]byte, 12)
		if _, err := rand.Read(randomBytes); err != nil {
			return "", fmt.Errorf("failed to generate random bytes: %w", err)
		}
		token := "TM-" + strings.ToUpper(hex.EncodeToString(randomBytes))

		var count int
		err := r.db.Get(&count, `SELECT COUNT(*) FROM bookings WHERE token = $1`, token)
		if err != nil {
			return "", models.NewStorageError("check token uniqueness", err)
		}
		if count == 0 {
			return token, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique ticket token after 10 attempts")
}

// Create inserts a booking and decrements the trip's seat availability in a
// single transaction. The trip row is locked for the duration so the
// occupancy check and the insert are atomic with respect to concurrent
// attempts on the same seat; of two racing requests at most one commits and
// the other observes models.ErrSeatAlreadyBooked. Availability is floored at
// zero.
func (r *BookingRepository) Create(booking *models.Booking) (*models.Booking, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, models.NewStorageError("begin booking transaction", err)
	}
	defer tx.Rollback()

	// Lock the trip row. Concurrent bookings for the same trip serialize
	// here, which also keeps the availability decrement exact.
	var availableSeats int
	err = tx.Get(&availableSeats, `SELECT available_seats FROM trips WHERE id = $1 FOR UPDATE`, booking.TripID)
	if err == sql.ErrNoRows {
		return nil, models.ErrTripNotFound
	}
	if err != nil {
		return nil, models.NewStorageError("lock trip", err)
	}

	// Occupancy check inside the transaction. A seat is occupied while any
	// booking for it is outside the terminal CANCELLED/REFUNDED states.
	var occupied int
	err = tx.Get(&occupied, `
		SELECT COUNT(*) FROM bookings
		WHERE trip_id = $1 AND seat_number = $2
		  AND status NOT IN ('CANCELLED', 'REFUNDED')`,
		booking.TripID, booking.SeatNumber,
	)
	if err != nil {
		return nil, models.NewStorageError("check seat occupancy", err)
	}
	if occupied > 0 {
		return nil, models.ErrSeatAlreadyBooked
	}

	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}
	if booking.Status == "" {
		booking.Status = models.BookingStatusConfirmed
	}

	insertQuery := `
		INSERT INTO bookings (id, trip_id, user_id, passenger_name, seat_number,
			trip_date, price, token, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	err = tx.QueryRowx(insertQuery,
		booking.ID, booking.TripID, booking.UserID, booking.PassengerName,
		booking.SeatNumber, booking.TripDate.Format("2006-01-02"), booking.Price,
		booking.Token, booking.Status,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		// Backstop for writers that did not serialize on the trip lock.
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" && pqErr.Constraint == seatUniqueConstraint {
			return nil, models.ErrSeatAlreadyBooked
		}
		return nil, models.NewStorageError("insert booking", err)
	}

	_, err = tx.Exec(`
		UPDATE trips
		SET available_seats = GREATEST(available_seats - 1, 0), updated_at = now()
		WHERE id = $1`,
		booking.TripID,
	)
	if err != nil {
		return nil, models.NewStorageError("decrement availability", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, models.NewStorageError("commit booking", err)
	}

	return booking, nil
}

// GetOccupiedSeats returns the seat labels currently held on a trip
func (r *BookingRepository) GetOccupiedSeats(tripID string) ([]string, error) {
	var seats []string
	err := r.db.Select(&seats, `
		SELECT seat_number FROM bookings
		WHERE trip_id = $1 AND status NOT IN ('CANCELLED', 'REFUNDED')
		ORDER BY seat_number`,
		tripID,
	)
	if err != nil {
		return nil, models.NewStorageError("get occupied seats", err)
	}
	return seats, nil
}

// IsSeatOccupied reports whether a seat on a trip is held by a booking in a
// non-terminal status
func (r *BookingRepository) IsSeatOccupied(tripID, seatNumber string) (bool, error) {
	var count int
	err := r.db.Get(&count, `
		SELECT COUNT(*) FROM bookings
		WHERE trip_id = $1 AND seat_number = $2
		  AND status NOT IN ('CANCELLED', 'REFUNDED')`,
		tripID, seatNumber,
	)
	if err != nil {
		return false, models.NewStorageError("check seat occupancy", err)
	}
	return count > 0, nil
}

// GetByID retrieves a booking or fails with models.ErrTicketNotFound
func (r *BookingRepository) GetByID(id string) (*models.Booking, error) {
	var booking models.Booking
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE id = $1`, bookingColumns)
	err := r.db.Get(&booking, query, id)
	if err == sql.ErrNoRows {
		return nil, models.ErrTicketNotFound
	}
	if err != nil {
		return nil, models.NewStorageError("get booking", err)
	}
	return &booking, nil
}

// GetByToken retrieves a booking by its validation token or fails with
// models.ErrTicketNotFound. The token, not the id, is what a ticket artifact
// carries.
func (r *BookingRepository) GetByToken(token string) (*models.Booking, error) {
	var booking models.Booking
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE token = $1`, bookingColumns)
	err := r.db.Get(&booking, query, token)
	if err == sql.ErrNoRows {
		return nil, models.ErrTicketNotFound
	}
	if err != nil {
		return nil, models.NewStorageError("get booking by token", err)
	}
	return &booking, nil
}

// ListByUser returns a passenger's bookings, newest first
func (r *BookingRepository) ListByUser(userID string) ([]models.Booking, error) {
	var bookings []models.Booking
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE user_id = $1 ORDER BY created_at DESC`, bookingColumns)
	if err := r.db.Select(&bookings, query, userID); err != nil {
		return nil, models.NewStorageError("list bookings by user", err)
	}
	return bookings, nil
}

// ListPendingRefunds returns bookings awaiting refund resolution
func (r *BookingRepository) ListPendingRefunds() ([]models.Booking, error) {
	var bookings []models.Booking
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE status = 'PENDING_REFUND' ORDER BY updated_at`, bookingColumns)
	if err := r.db.Select(&bookings, query); err != nil {
		return nil, models.NewStorageError("list pending refunds", err)
	}
	return bookings, nil
}

// ListPaid returns the most recent bookings that represent money taken
// (CONFIRMED or USED), for the simulated payment history
func (r *BookingRepository) ListPaid(limit int) ([]models.Booking, error) {
	var bookings []models.Booking
	query := fmt.Sprintf(`
		SELECT %s FROM bookings
		WHERE status IN ('CONFIRMED', 'USED')
		ORDER BY created_at DESC
		LIMIT $1`, bookingColumns)
	if err := r.db.Select(&bookings, query, limit); err != nil {
		return nil, models.NewStorageError("list paid bookings", err)
	}
	return bookings, nil
}

// MarkUsed transitions a CONFIRMED booking to USED by token. The condition
// on the current status makes the transition race-safe: a concurrent refund
// request and a validation cannot both win. Returns false when the booking
// was not in CONFIRMED status.
func (r *BookingRepository) MarkUsed(token string) (bool, error) {
	result, err := r.db.Exec(`
		UPDATE bookings
		SET status = 'USED', updated_at = now()
		WHERE token = $1 AND status = 'CONFIRMED'`,
		token,
	)
	if err != nil {
		return false, models.NewStorageError("mark ticket used", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, models.NewStorageError("mark ticket used", err)
	}
	return rows > 0, nil
}

// RequestRefund transitions a CONFIRMED booking to PENDING_REFUND, recording
// the reason and payout destination. Returns false when the booking was not
// in CONFIRMED status.
func (r *BookingRepository) RequestRefund(id, reason, iban string) (bool, error) {
	result, err := r.db.Exec(`
		UPDATE bookings
		SET status = 'PENDING_REFUND', refund_reason = $2, refund_iban = $3, updated_at = now()
		WHERE id = $1 AND status = 'CONFIRMED'`,
		id, reason, iban,
	)
	if err != nil {
		return false, models.NewStorageError("request refund", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, models.NewStorageError("request refund", err)
	}
	return rows > 0, nil
}

// ResolveRefund settles a PENDING_REFUND booking to REFUNDED or CANCELLED.
// Returns false when the booking was not pending a refund.
func (r *BookingRepository) ResolveRefund(id string, status models.BookingStatus) (bool, error) {
	result, err := r.db.Exec(`
		UPDATE bookings
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status = 'PENDING_REFUND'`,
		id, status,
	)
	if err != nil {
		return false, models.NewStorageError("resolve refund", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, models.NewStorageError("resolve refund", err)
	}
	return rows > 0, nil
}

// DeleteAll removes every booking. Used by the administrative reset.
func (r *BookingRepository) DeleteAll() error {
	if _, err := r.db.Exec(`DELETE FROM bookings`); err != nil {
		return models.NewStorageError("delete bookings", err)
	}
	return nil
}
