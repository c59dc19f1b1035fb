package database

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transporttn/busline-backend/internal/models"
)

func newTripRepoMock(t *testing.T) (*TripRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return NewTripRepository(&PostgresDB{DB: sqlxDB}), mock
}

var tripTestColumns = []string{
	"id", "origin", "destination", "service_date", "departure_time", "arrival_time",
	"price", "bus_id", "driver_id", "available_seats", "status", "created_at", "updated_at",
}

func tripRow(id string, seats int) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(tripTestColumns).AddRow(
		id, "Tunis", "Sousse", time.Date(2026, 9, 10, 0, 0, 0, 0, time.Local),
		"09:00", "11:30", 25.5, uuid.New().String(), uuid.New().String(),
		seats, models.TripStatusActive, now, now,
	)
}

func TestGetTripByID(t *testing.T) {
	repo, mock := newTripRepoMock(t)
	tripID := uuid.New().String()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM trips WHERE id = \$1`).
			WithArgs(tripID).
			WillReturnRows(tripRow(tripID, 40))

		trip, err := repo.GetByID(tripID)
		require.NoError(t, err)
		assert.Equal(t, tripID, trip.ID)
		assert.Equal(t, "Tunis", trip.Origin)
		assert.Equal(t, 40, trip.AvailableSeats)
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM trips WHERE id = \$1`).
			WithArgs(tripID).
			WillReturnError(sql.ErrNoRows)

		trip, err := repo.GetByID(tripID)
		assert.ErrorIs(t, err, models.ErrTripNotFound)
		assert.Nil(t, trip)
	})

	t.Run("Database Error", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM trips WHERE id = \$1`).
			WithArgs(tripID).
			WillReturnError(fmt.Errorf("connection reset"))

		trip, err := repo.GetByID(tripID)
		assert.True(t, models.IsStorageError(err))
		assert.Nil(t, trip)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchTrips(t *testing.T) {
	repo, mock := newTripRepoMock(t)

	t.Run("All Filters", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM trips WHERE status = 'Active' AND origin ILIKE \$1 AND destination ILIKE \$2 AND service_date = \$3`).
			WithArgs("%Tunis%", "%Sousse%", "2026-09-10").
			WillReturnRows(tripRow(uuid.New().String(), 40))

		trips, err := repo.Search(models.TripSearchFilter{
			Origin:      "Tunis",
			Destination: "Sousse",
			Date:        "2026-09-10",
		})
		require.NoError(t, err)
		assert.Len(t, trips, 1)
	})

	t.Run("Slash Date Format", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM trips WHERE status = 'Active' AND service_date = \$1`).
			WithArgs("2026-09-10").
			WillReturnRows(tripRow(uuid.New().String(), 40))

		trips, err := repo.Search(models.TripSearchFilter{Date: "10/09/2026"})
		require.NoError(t, err)
		assert.Len(t, trips, 1)
	})

	t.Run("Invalid Date", func(t *testing.T) {
		trips, err := repo.Search(models.TripSearchFilter{Date: "not-a-date"})
		assert.Error(t, err)
		assert.Nil(t, trips)
	})

	t.Run("No Filters", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM trips WHERE status = 'Active' ORDER BY`).
			WillReturnRows(sqlmock.NewRows(tripTestColumns))

		trips, err := repo.Search(models.TripSearchFilter{})
		require.NoError(t, err)
		assert.Empty(t, trips)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTrip(t *testing.T) {
	repo, mock := newTripRepoMock(t)

	trip := &models.Trip{
		ID:             uuid.New().String(),
		Origin:         "Tunis",
		Destination:    "Sousse",
		ServiceDate:    time.Date(2026, 9, 10, 0, 0, 0, 0, time.Local),
		DepartureTime:  "09:00",
		ArrivalTime:    "11:30",
		Price:          25.5,
		BusID:          uuid.New().String(),
		DriverID:       uuid.New().String(),
		AvailableSeats: 40,
		Status:         models.TripStatusActive,
	}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`UPDATE trips`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Update(trip)
		assert.NoError(t, err)
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectExec(`UPDATE trips`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Update(trip)
		assert.ErrorIs(t, err, models.ErrTripNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountTripsByDate(t *testing.T) {
	repo, mock := newTripRepoMock(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM trips WHERE service_date = \$1`).
		WithArgs("2026-09-10").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountByDate("2026-09-10")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	assert.NoError(t, mock.ExpectationsWereMet())
}
