package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TripStatus represents whether a trip accepts bookings
type TripStatus string

const (
	TripStatusActive TripStatus = "Active"
	TripStatusClosed TripStatus = "Closed"
)

// Trip represents one scheduled departure with fixed seats, price and timing.
// AvailableSeats is a counter mutated only by successful bookings and by
// administrative edits; it never goes below zero and never exceeds the
// capacity of the assigned bus.
type Trip struct {
	ID             string     `json:"id" db:"id"`
	Origin         string     `json:"origin" db:"origin"`
	Destination    string     `json:"destination" db:"destination"`
	ServiceDate    time.Time  `json:"date" db:"service_date"`
	DepartureTime  string     `json:"departure_time" db:"departure_time"` // "15:04"
	ArrivalTime    string     `json:"arrival_time" db:"arrival_time"`     // "15:04"
	Price          float64    `json:"price" db:"price"`
	BusID          string     `json:"bus_id" db:"bus_id"`
	DriverID       string     `json:"driver_id" db:"driver_id"`
	AvailableSeats int        `json:"available_seats" db:"available_seats"`
	Status         TripStatus `json:"status" db:"status"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// DepartureDateTime combines the service date and departure time fields into
// a single instant in the server's local time zone.
func (t *Trip) DepartureDateTime() (time.Time, error) {
	hhmm, err := time.Parse("15:04", t.DepartureTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid departure time %q: %w", t.DepartureTime, err)
	}
	d := t.ServiceDate
	return time.Date(d.Year(), d.Month(), d.Day(), hhmm.Hour(), hhmm.Minute(), 0, 0, time.Local), nil
}

// TripSearchFilter narrows the public trip search. Origin and destination are
// matched case-insensitively as substrings; Date accepts "2006-01-02" or
// "02/01/2006".
type TripSearchFilter struct {
	Origin      string
	Destination string
	Date        string
}

// NormalizedDate returns the date filter in "2006-01-02" form, converting the
// "02/01/2006" spelling if needed. An empty filter returns "".
func (f *TripSearchFilter) NormalizedDate() (string, error) {
	d := strings.TrimSpace(f.Date)
	if d == "" {
		return "", nil
	}
	if strings.Contains(d, "/") {
		parsed, err := time.Parse("02/01/2006", d)
		if err != nil {
			return "", fmt.Errorf("invalid date %q: %w", d, err)
		}
		return parsed.Format("2006-01-02"), nil
	}
	if _, err := time.Parse("2006-01-02", d); err != nil {
		return "", fmt.Errorf("invalid date %q: %w", d, err)
	}
	return d, nil
}

// SaveTripRequest is the admin payload for creating or updating a trip.
// When ID is set the request updates the existing trip.
type SaveTripRequest struct {
	ID             string  `json:"id"`
	Origin         string  `json:"origin" binding:"required"`
	Destination    string  `json:"destination" binding:"required"`
	Date           string  `json:"date" binding:"required"`
	DepartureTime  string  `json:"departure_time" binding:"required"`
	ArrivalTime    string  `json:"arrival_time" binding:"required"`
	Price          float64 `json:"price" binding:"required,gte=0"`
	BusID          string  `json:"bus_id" binding:"required"`
	DriverID       string  `json:"driver_id" binding:"required"`
	AvailableSeats *int    `json:"available_seats"`
	Status         *string `json:"status"`
}

// Validate checks identifier and time formats before any side effect
func (r *SaveTripRequest) Validate() error {
	if _, err := uuid.Parse(r.BusID); err != nil {
		return errors.New("bus_id must be a valid UUID")
	}
	if _, err := uuid.Parse(r.DriverID); err != nil {
		return errors.New("driver_id must be a valid UUID")
	}
	if _, err := time.Parse("2006-01-02", r.Date); err != nil {
		return errors.New("date must be in YYYY-MM-DD format")
	}
	if _, err := time.Parse("15:04", r.DepartureTime); err != nil {
		return errors.New("departure_time must be in HH:MM format")
	}
	if _, err := time.Parse("15:04", r.ArrivalTime); err != nil {
		return errors.New("arrival_time must be in HH:MM format")
	}
	if r.AvailableSeats != nil && *r.AvailableSeats < 0 {
		return errors.New("available_seats cannot be negative")
	}
	if r.Status != nil {
		switch TripStatus(*r.Status) {
		case TripStatusActive, TripStatusClosed:
		default:
			return errors.New("status must be Active or Closed")
		}
	}
	return nil
}
