package services

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transporttn/busline-backend/internal/database"
	"github.com/transporttn/busline-backend/internal/models"
)

func newTicketServiceMock(t *testing.T) (*TicketService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return NewTicketService(database.NewBookingRepository(sqlxDB), testLogger()), mock
}

var bookingTestColumns = []string{
	"id", "trip_id", "user_id", "passenger_name", "seat_number", "trip_date",
	"price", "token", "status", "refund_reason", "refund_iban", "created_at", "updated_at",
}

func bookingRowWithStatus(id, token string, status models.BookingStatus) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(bookingTestColumns).AddRow(
		id, uuid.New().String(), uuid.New().String(), "Amine Trabelsi", "A1", now,
		25.5, token, status, nil, nil, now, now,
	)
}

func TestValidateTicket(t *testing.T) {
	token := "TM-0011223344556677889900AA"

	t.Run("Confirmed Ticket Boards", func(t *testing.T) {
		svc, mock := newTicketServiceMock(t)
		id := uuid.New().String()

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE token = \$1`).
			WithArgs(token).
			WillReturnRows(bookingRowWithStatus(id, token, models.BookingStatusConfirmed))
		mock.ExpectExec(`UPDATE bookings`).
			WithArgs(token).
			WillReturnResult(sqlmock.NewResult(0, 1))

		booking, err := svc.ValidateTicket(token)
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusUsed, booking.Status)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown Token", func(t *testing.T) {
		svc, mock := newTicketServiceMock(t)

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE token = \$1`).
			WithArgs(token).
			WillReturnError(sql.ErrNoRows)

		booking, err := svc.ValidateTicket(token)
		assert.ErrorIs(t, err, models.ErrTicketNotFound)
		assert.Nil(t, booking)
	})

	t.Run("Second Scan Rejected", func(t *testing.T) {
		svc, mock := newTicketServiceMock(t)

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE token = \$1`).
			WithArgs(token).
			WillReturnRows(bookingRowWithStatus(uuid.New().String(), token, models.BookingStatusUsed))

		booking, err := svc.ValidateTicket(token)
		assert.ErrorIs(t, err, models.ErrTicketAlreadyUsed)
		assert.Nil(t, booking)
	})

	t.Run("Refunded Ticket Does Not Board", func(t *testing.T) {
		svc, mock := newTicketServiceMock(t)

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE token = \$1`).
			WithArgs(token).
			WillReturnRows(bookingRowWithStatus(uuid.New().String(), token, models.BookingStatusPendingRefund))

		booking, err := svc.ValidateTicket(token)
		assert.ErrorIs(t, err, models.ErrTicketNotBoardable)
		assert.Nil(t, booking)
	})

	t.Run("Lost Race Reports Accurately", func(t *testing.T) {
		svc, mock := newTicketServiceMock(t)

		// Looked CONFIRMED, but a concurrent scan won the conditional update.
		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE token = \$1`).
			WithArgs(token).
			WillReturnRows(bookingRowWithStatus(uuid.New().String(), token, models.BookingStatusConfirmed))
		mock.ExpectExec(`UPDATE bookings`).
			WithArgs(token).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE token = \$1`).
			WithArgs(token).
			WillReturnRows(bookingRowWithStatus(uuid.New().String(), token, models.BookingStatusUsed))

		booking, err := svc.ValidateTicket(token)
		assert.ErrorIs(t, err, models.ErrTicketAlreadyUsed)
		assert.Nil(t, booking)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRequestRefund(t *testing.T) {
	id := uuid.New().String()
	req := func() *models.RefundRequest {
		return &models.RefundRequest{
			BookingID: id,
			Reason:    "Change of plans",
			IBAN:      "TN59 1000 6035 1835 9847 8831",
		}
	}

	t.Run("Confirmed Ticket Enters Pending Refund", func(t *testing.T) {
		svc, mock := newTicketServiceMock(t)

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(bookingRowWithStatus(id, "TM-AA", models.BookingStatusConfirmed))
		mock.ExpectExec(`UPDATE bookings`).
			WithArgs(id, "Change of plans", "TN5910006035183598478831").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(bookingRowWithStatus(id, "TM-AA", models.BookingStatusPendingRefund))

		booking, err := svc.RequestRefund(req())
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusPendingRefund, booking.Status)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Used Ticket Is Not Refundable", func(t *testing.T) {
		svc, mock := newTicketServiceMock(t)

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(bookingRowWithStatus(id, "TM-AA", models.BookingStatusUsed))

		booking, err := svc.RequestRefund(req())
		assert.ErrorIs(t, err, models.ErrTicketNotRefundable)
		assert.Nil(t, booking)
	})

	t.Run("Second Request Is Not Refundable", func(t *testing.T) {
		svc, mock := newTicketServiceMock(t)

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(bookingRowWithStatus(id, "TM-AA", models.BookingStatusPendingRefund))

		booking, err := svc.RequestRefund(req())
		assert.ErrorIs(t, err, models.ErrTicketNotRefundable)
		assert.Nil(t, booking)
	})

	t.Run("Unknown Booking", func(t *testing.T) {
		svc, mock := newTicketServiceMock(t)

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id = \$1`).
			WithArgs(id).
			WillReturnError(sql.ErrNoRows)

		booking, err := svc.RequestRefund(req())
		assert.ErrorIs(t, err, models.ErrTicketNotFound)
		assert.Nil(t, booking)
	})

	t.Run("Invalid IBAN", func(t *testing.T) {
		svc, _ := newTicketServiceMock(t)

		booking, err := svc.RequestRefund(&models.RefundRequest{
			BookingID: id,
			Reason:    "Change of plans",
			IBAN:      "TN59",
		})
		assert.Error(t, err)
		assert.Nil(t, booking)
	})
}

func TestResolveRefund(t *testing.T) {
	id := uuid.New().String()

	t.Run("Settles To Refunded", func(t *testing.T) {
		svc, mock := newTicketServiceMock(t)

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(bookingRowWithStatus(id, "TM-AA", models.BookingStatusPendingRefund))
		mock.ExpectExec(`UPDATE bookings`).
			WithArgs(id, models.BookingStatusRefunded).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(bookingRowWithStatus(id, "TM-AA", models.BookingStatusRefunded))

		booking, err := svc.ResolveRefund(id, models.BookingStatusRefunded)
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusRefunded, booking.Status)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Nothing Pending", func(t *testing.T) {
		svc, mock := newTicketServiceMock(t)

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(bookingRowWithStatus(id, "TM-AA", models.BookingStatusConfirmed))
		mock.ExpectExec(`UPDATE bookings`).
			WithArgs(id, models.BookingStatusCancelled).
			WillReturnResult(sqlmock.NewResult(0, 0))

		booking, err := svc.ResolveRefund(id, models.BookingStatusCancelled)
		assert.ErrorIs(t, err, models.ErrTicketNotRefundable)
		assert.Nil(t, booking)
	})
}
