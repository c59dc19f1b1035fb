package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transporttn/busline-backend/internal/database"
	"github.com/transporttn/busline-backend/internal/models"
	"github.com/transporttn/busline-backend/internal/services"
)

func setupDriverHandlerTest(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	tripRepo := database.NewTripRepository(&database.PostgresDB{DB: sqlxDB})
	ticketService := services.NewTicketService(database.NewBookingRepository(sqlxDB), logger)
	handler := NewDriverHandler(tripRepo, ticketService, logger)

	router := gin.New()
	router.POST("/api/driver/validate-ticket", handler.ValidateTicket)
	return router, mock
}

func postValidateTicket(router *gin.Engine, body interface{}) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/driver/validate-ticket", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func ticketRow(token string, status models.BookingStatus) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "trip_id", "user_id", "passenger_name", "seat_number", "trip_date",
		"price", "token", "status", "refund_reason", "refund_iban", "created_at", "updated_at",
	}).AddRow(
		uuid.New().String(), uuid.New().String(), uuid.New().String(),
		"Amine Trabelsi", "A1", now, 25.5, token, status, nil, nil, now, now,
	)
}

func TestValidateTicketEndpoint(t *testing.T) {
	token := "TM-0011223344556677889900AA"

	t.Run("Valid Ticket", func(t *testing.T) {
		router, mock := setupDriverHandlerTest(t)

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE token = \$1`).
			WithArgs(token).
			WillReturnRows(ticketRow(token, models.BookingStatusConfirmed))
		mock.ExpectExec(`UPDATE bookings`).
			WithArgs(token).
			WillReturnResult(sqlmock.NewResult(0, 1))

		w := postValidateTicket(router, gin.H{"token": token})
		assert.Equal(t, http.StatusOK, w.Code)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, true, resp["valid"])

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown Ticket", func(t *testing.T) {
		router, mock := setupDriverHandlerTest(t)

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE token = \$1`).
			WithArgs(token).
			WillReturnError(sql.ErrNoRows)

		w := postValidateTicket(router, gin.H{"token": token})
		assert.Equal(t, http.StatusNotFound, w.Code)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, false, resp["valid"])
		assert.Equal(t, "TICKET_NOT_FOUND", resp["code"])
	})

	t.Run("Already Used Ticket", func(t *testing.T) {
		router, mock := setupDriverHandlerTest(t)

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE token = \$1`).
			WithArgs(token).
			WillReturnRows(ticketRow(token, models.BookingStatusUsed))

		w := postValidateTicket(router, gin.H{"token": token})
		assert.Equal(t, http.StatusConflict, w.Code)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "TICKET_USED", resp["code"])
	})

	t.Run("Cancelled Ticket", func(t *testing.T) {
		router, mock := setupDriverHandlerTest(t)

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE token = \$1`).
			WithArgs(token).
			WillReturnRows(ticketRow(token, models.BookingStatusCancelled))

		w := postValidateTicket(router, gin.H{"token": token})
		assert.Equal(t, http.StatusConflict, w.Code)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "TICKET_NOT_BOARDABLE", resp["code"])
	})

	t.Run("Missing Token", func(t *testing.T) {
		router, _ := setupDriverHandlerTest(t)

		w := postValidateTicket(router, gin.H{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
