package database

import (
	"fmt"
)

// schemaStatements are applied in order at startup. Every statement is
// idempotent so repeated boots are safe. The partial unique index on
// (trip_id, seat_number) is what enforces the seat-uniqueness invariant
// under concurrent bookings: a seat is free again only once every booking
// for it has reached a terminal status.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id              UUID PRIMARY KEY,
		name            TEXT NOT NULL,
		email           TEXT NOT NULL UNIQUE,
		password_hash   TEXT NOT NULL,
		phone           TEXT NOT NULL DEFAULT '',
		role            TEXT NOT NULL DEFAULT 'CLIENT'
		                CHECK (role IN ('CLIENT', 'DRIVER', 'ADMIN')),
		status          TEXT NOT NULL DEFAULT 'Active',
		license_number  TEXT,
		city            TEXT,
		assigned_bus_id UUID,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS buses (
		id           UUID PRIMARY KEY,
		number       TEXT NOT NULL,
		capacity     INTEGER NOT NULL CHECK (capacity > 0),
		type         TEXT NOT NULL DEFAULT 'Standard',
		driver_id    UUID REFERENCES users (id) ON DELETE SET NULL,
		status       TEXT NOT NULL DEFAULT 'Active'
		             CHECK (status IN ('Active', 'Maintenance')),
		gps_tracking BOOLEAN NOT NULL DEFAULT false,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS trips (
		id              UUID PRIMARY KEY,
		origin          TEXT NOT NULL,
		destination     TEXT NOT NULL,
		service_date    DATE NOT NULL,
		departure_time  TEXT NOT NULL,
		arrival_time    TEXT NOT NULL,
		price           NUMERIC(10,2) NOT NULL DEFAULT 0,
		bus_id          UUID NOT NULL REFERENCES buses (id),
		driver_id       UUID NOT NULL REFERENCES users (id),
		available_seats INTEGER NOT NULL CHECK (available_seats >= 0),
		status          TEXT NOT NULL DEFAULT 'Active'
		                CHECK (status IN ('Active', 'Closed')),
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id             UUID PRIMARY KEY,
		trip_id        UUID NOT NULL REFERENCES trips (id),
		user_id        UUID NOT NULL REFERENCES users (id),
		passenger_name TEXT NOT NULL,
		seat_number    TEXT NOT NULL,
		trip_date      DATE NOT NULL,
		price          NUMERIC(10,2) NOT NULL DEFAULT 0,
		token          TEXT NOT NULL UNIQUE,
		status         TEXT NOT NULL DEFAULT 'CONFIRMED'
		               CHECK (status IN ('CONFIRMED', 'USED', 'PENDING_REFUND', 'REFUNDED', 'CANCELLED')),
		refund_reason  TEXT,
		refund_iban    TEXT,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS bookings_trip_seat_active_idx
		ON bookings (trip_id, seat_number)
		WHERE status NOT IN ('CANCELLED', 'REFUNDED')`,

	`CREATE INDEX IF NOT EXISTS bookings_user_idx ON bookings (user_id)`,
	`CREATE INDEX IF NOT EXISTS trips_search_idx ON trips (service_date, origin, destination)`,
}

// EnsureSchema creates the tables and indexes the service needs
func EnsureSchema(db DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
