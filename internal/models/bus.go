package models

import (
	"errors"
	"time"
)

// BusStatus represents the operational status of a bus
type BusStatus string

const (
	BusStatusActive      BusStatus = "Active"
	BusStatusMaintenance BusStatus = "Maintenance"
)

// Bus represents a vehicle in the fleet
type Bus struct {
	ID          string    `json:"id" db:"id"`
	Number      string    `json:"number" db:"number"`
	Capacity    int       `json:"capacity" db:"capacity"`
	Type        string    `json:"type" db:"type"` // Standard, Confort, VIP
	DriverID    *string   `json:"driver_id,omitempty" db:"driver_id"`
	Status      BusStatus `json:"status" db:"status"`
	GPSTracking bool      `json:"gps_tracking" db:"gps_tracking"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// SaveBusRequest is the admin payload for creating or updating a bus.
// When ID is set the request updates the existing bus.
type SaveBusRequest struct {
	ID          string  `json:"id"`
	Number      string  `json:"number" binding:"required"`
	Capacity    int     `json:"capacity" binding:"required,gt=0"`
	Type        string  `json:"type" binding:"required"`
	DriverID    *string `json:"driver_id"`
	Status      *string `json:"status"`
	GPSTracking bool    `json:"gps_tracking"`
}

// Validate checks the bus payload
func (r *SaveBusRequest) Validate() error {
	if r.Capacity <= 0 {
		return errors.New("capacity must be positive")
	}
	if r.Status != nil {
		switch BusStatus(*r.Status) {
		case BusStatusActive, BusStatusMaintenance:
		default:
			return errors.New("status must be Active or Maintenance")
		}
	}
	return nil
}

// BusPosition is a synthetic GPS point for fleet map display
type BusPosition struct {
	ID     string  `json:"id"`
	Number string  `json:"number"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Speed  float64 `json:"speed"`
}
