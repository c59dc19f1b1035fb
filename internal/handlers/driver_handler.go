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

// DriverHandler serves the driver app: assigned trips and ticket validation
// at boarding.
type DriverHandler struct {
	tripRepo      *database.TripRepository
	ticketService *services.TicketService
	logger        *logrus.Logger
}

func NewDriverHandler(tripRepo *database.TripRepository, ticketService *services.TicketService, logger *logrus.Logger) *DriverHandler {
	return &DriverHandler{
		tripRepo:      tripRepo,
		ticketService: ticketService,
		logger:        logger,
	}
}

// MyTrips lists the trips assigned to the authenticated driver
// GET /api/driver/trips
func (h *DriverHandler) MyTrips(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	trips, err := h.tripRepo.ListByDriver(userCtx.UserID.String())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list driver trips")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch trips"})
		return
	}

	c.JSON(http.StatusOK, trips)
}

// ValidateTicket checks a scanned ticket token and, if the ticket is valid,
// marks it used so a second scan is rejected.
// POST /api/driver/validate-ticket
func (h *DriverHandler) ValidateTicket(c *gin.Context) {
	var req models.ValidateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	booking, err := h.ticketService.ValidateTicket(req.Token)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrTicketNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"valid": false,
				"error": "Unknown ticket",
				"code":  "TICKET_NOT_FOUND",
			})
		case errors.Is(err, models.ErrTicketAlreadyUsed):
			c.JSON(http.StatusConflict, gin.H{
				"valid": false,
				"error": "Ticket already used",
				"code":  "TICKET_USED",
			})
		case errors.Is(err, models.ErrTicketNotBoardable):
			c.JSON(http.StatusConflict, gin.H{
				"valid": false,
				"error": "Ticket is not valid for boarding",
				"code":  "TICKET_NOT_BOARDABLE",
			})
		default:
			h.logger.WithError(err).Error("Ticket validation failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate ticket"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":   true,
		"booking": booking,
	})
}
