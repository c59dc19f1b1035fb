package models

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BookingStatus represents the lifecycle state of a ticket
type BookingStatus string

const (
	BookingStatusConfirmed     BookingStatus = "CONFIRMED"
	BookingStatusUsed          BookingStatus = "USED"
	BookingStatusPendingRefund BookingStatus = "PENDING_REFUND"
	BookingStatusRefunded      BookingStatus = "REFUNDED"
	BookingStatusCancelled     BookingStatus = "CANCELLED"
)

// seatNumberRe matches seat labels like "A1" or "C12"
var seatNumberRe = regexp.MustCompile(`^[A-Z][0-9]{1,2}$`)

// Booking represents a passenger's claim on one seat of one trip. The trip
// date and price are denormalized copies taken at booking time, and the token
// is the opaque bearer credential encoded on the ticket artifact.
type Booking struct {
	ID            string        `json:"id" db:"id"`
	TripID        string        `json:"trip_id" db:"trip_id"`
	UserID        string        `json:"user_id" db:"user_id"`
	PassengerName string        `json:"passenger_name" db:"passenger_name"`
	SeatNumber    string        `json:"seat_number" db:"seat_number"`
	TripDate      time.Time     `json:"trip_date" db:"trip_date"`
	Price         float64       `json:"price" db:"price"`
	Token         string        `json:"token" db:"token"`
	Status        BookingStatus `json:"status" db:"status"`
	RefundReason  *string       `json:"refund_reason,omitempty" db:"refund_reason"`
	RefundIBAN    *string       `json:"refund_iban,omitempty" db:"refund_iban"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// OccupiesSeat reports whether the booking still holds its seat. Only the
// terminal CANCELLED and REFUNDED states release a seat.
func (b *Booking) OccupiesSeat() bool {
	return b.Status != BookingStatusCancelled && b.Status != BookingStatusRefunded
}

// CreateBookingRequest is the validated input for the booking engine
type CreateBookingRequest struct {
	TripID        string `json:"trip_id" binding:"required"`
	SeatNumber    string `json:"seat_number" binding:"required"`
	PassengerName string `json:"passenger_name" binding:"required"`
}

// Validate checks formats before any side effect: the trip id must be a
// UUID, the seat label must look like "A1", and the passenger name must be
// non-empty.
func (r *CreateBookingRequest) Validate() error {
	if _, err := uuid.Parse(r.TripID); err != nil {
		return errors.New("trip_id must be a valid UUID")
	}
	r.SeatNumber = strings.ToUpper(strings.TrimSpace(r.SeatNumber))
	if !seatNumberRe.MatchString(r.SeatNumber) {
		return errors.New("seat_number must be a letter followed by 1-2 digits, e.g. A1")
	}
	r.PassengerName = strings.TrimSpace(r.PassengerName)
	if r.PassengerName == "" {
		return errors.New("passenger_name is required")
	}
	return nil
}

// RefundRequest asks to move a CONFIRMED ticket into PENDING_REFUND,
// recording the reason and the payout destination.
type RefundRequest struct {
	BookingID string `json:"booking_id" binding:"required"`
	Reason    string `json:"reason" binding:"required"`
	IBAN      string `json:"iban" binding:"required"`
}

// Validate checks the refund payload
func (r *RefundRequest) Validate() error {
	if _, err := uuid.Parse(r.BookingID); err != nil {
		return errors.New("booking_id must be a valid UUID")
	}
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		return errors.New("reason is required")
	}
	r.IBAN = strings.ToUpper(strings.ReplaceAll(r.IBAN, " ", ""))
	if len(r.IBAN) < 8 {
		return errors.New("iban is too short")
	}
	return nil
}

// ResolveRefundRequest is the administrative resolution of a pending refund
type ResolveRefundRequest struct {
	Status BookingStatus `json:"status" binding:"required"`
}

// Validate restricts the resolution to the two terminal outcomes
func (r *ResolveRefundRequest) Validate() error {
	if r.Status != BookingStatusRefunded && r.Status != BookingStatusCancelled {
		return errors.New("status must be REFUNDED or CANCELLED")
	}
	return nil
}

// ValidateTicketRequest carries the token scanned at boarding
type ValidateTicketRequest struct {
	Token string `json:"token" binding:"required"`
}

// PaymentRecord is a simulated payment history entry derived from paid bookings
type PaymentRecord struct {
	Date   string  `json:"date"`
	Method string  `json:"method"`
	Amount float64 `json:"amount"`
	Status string  `json:"status"`
}
