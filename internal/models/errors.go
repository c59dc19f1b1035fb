package models

import (
	"errors"
	"fmt"
)

// Business outcomes of the booking and ticketing core. These are expected
// results of an operation, not faults, and handlers translate them to 4xx
// responses unchanged.
var (
	// ErrTripNotFound is returned when a trip id does not resolve to a trip.
	ErrTripNotFound = errors.New("trip not found")

	// ErrBookingWindowClosed is returned when a booking is attempted after
	// the cutoff (30 minutes before departure by default).
	ErrBookingWindowClosed = errors.New("booking window closed")

	// ErrSeatAlreadyBooked is returned when the requested seat already has a
	// booking in a non-terminal status for the same trip.
	ErrSeatAlreadyBooked = errors.New("seat already booked")

	// ErrTicketNotFound is returned when no booking matches the given id or
	// validation token.
	ErrTicketNotFound = errors.New("ticket not found")

	// ErrTicketAlreadyUsed is returned when a ticket presented for boarding
	// has already been validated.
	ErrTicketAlreadyUsed = errors.New("ticket already used")

	// ErrTicketNotBoardable is returned when a ticket is in a refund or
	// cancelled status and therefore cannot be validated for boarding.
	ErrTicketNotBoardable = errors.New("ticket is not valid for boarding")

	// ErrTicketNotRefundable is returned when a refund is requested on a
	// ticket that is not in CONFIRMED status (including a second refund
	// request on the same ticket).
	ErrTicketNotRefundable = errors.New("ticket is not refundable")
)

// StorageError wraps an unexpected failure of the persistent store so that
// callers can tell "seat taken" apart from "system unavailable".
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps err with the operation that failed.
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

// IsStorageError reports whether err is (or wraps) a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
