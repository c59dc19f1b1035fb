package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/transporttn/busline-backend/internal/database"
	"github.com/transporttn/busline-backend/internal/middleware"
	"github.com/transporttn/busline-backend/internal/models"
	"github.com/transporttn/busline-backend/internal/services"
)

// BookingHandler serves the passenger booking endpoints: creating a booking,
// listing own bookings and asking for a refund.
type BookingHandler struct {
	bookingService *services.BookingService
	ticketService  *services.TicketService
	bookingRepo    *database.BookingRepository
	logger         *logrus.Logger
}

func NewBookingHandler(
	bookingService *services.BookingService,
	ticketService *services.TicketService,
	bookingRepo *database.BookingRepository,
	logger *logrus.Logger,
) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		ticketService:  ticketService,
		bookingRepo:    bookingRepo,
		logger:         logger,
	}
}

// CreateBooking books one seat on one trip for the authenticated passenger
// POST /api/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	booking, err := h.bookingService.CreateBooking(&req, userCtx.UserID.String())
	if err != nil {
		switch {
		case errors.Is(err, models.ErrTripNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Trip not found"})
		case errors.Is(err, models.ErrBookingWindowClosed):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Bookings for this trip are closed",
				"code":  "BOOKING_WINDOW_CLOSED",
			})
		case errors.Is(err, models.ErrSeatAlreadyBooked):
			c.JSON(http.StatusConflict, gin.H{
				"error": "This seat is already booked",
				"code":  "SEAT_TAKEN",
			})
		case models.IsStorageError(err):
			h.logger.WithError(err).Error("Booking failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create booking"})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, booking)
}

// MyBookings lists the authenticated passenger's bookings, newest first
// GET /api/bookings/me
func (h *BookingHandler) MyBookings(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	bookings, err := h.bookingService.BookingsForUser(userCtx.UserID.String())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list bookings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bookings"})
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// RequestRefund moves one of the passenger's CONFIRMED tickets into
// PENDING_REFUND, recording the reason and payout IBAN.
// POST /api/bookings/:id/refund
func (h *BookingHandler) RequestRefund(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var body struct {
		Reason string `json:"reason" binding:"required"`
		IBAN   string `json:"iban" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	req := &models.RefundRequest{
		BookingID: c.Param("id"),
		Reason:    body.Reason,
		IBAN:      body.IBAN,
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Passengers can only refund their own tickets.
	booking, err := h.bookingRepo.GetByID(req.BookingID)
	if err != nil {
		if errors.Is(err, models.ErrTicketNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to fetch booking")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to request refund"})
		return
	}
	if booking.UserID != userCtx.UserID.String() {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to refund this booking"})
		return
	}

	updated, err := h.ticketService.RequestRefund(req)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrTicketNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		case errors.Is(err, models.ErrTicketNotRefundable):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Only confirmed tickets can be refunded",
				"code":  "NOT_REFUNDABLE",
			})
		case models.IsStorageError(err):
			h.logger.WithError(err).Error("Refund request failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to request refund"})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, updated)
}
