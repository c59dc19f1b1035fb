package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/transporttn/busline-backend/internal/database"
	"github.com/transporttn/busline-backend/internal/models"
	"github.com/transporttn/busline-backend/internal/services"
)

// TripHandler serves the public trip search and seat map endpoints.
type TripHandler struct {
	tripRepo       *database.TripRepository
	bookingService *services.BookingService
	logger         *logrus.Logger
}

func NewTripHandler(tripRepo *database.TripRepository, bookingService *services.BookingService, logger *logrus.Logger) *TripHandler {
	return &TripHandler{
		tripRepo:       tripRepo,
		bookingService: bookingService,
		logger:         logger,
	}
}

// SearchTrips lists trips matching the optional origin, destination and date
// filters. With no filters it lists every trip.
// GET /api/trips?origin=&destination=&date=
func (h *TripHandler) SearchTrips(c *gin.Context) {
	filter := models.TripSearchFilter{
		Origin:      c.Query("origin"),
		Destination: c.Query("destination"),
		Date:        c.Query("date"),
	}
	if _, err := filter.NormalizedDate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD or DD/MM/YYYY"})
		return
	}

	trips, err := h.tripRepo.Search(filter)
	if err != nil {
		h.logger.WithError(err).Error("Trip search failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search trips"})
		return
	}

	c.JSON(http.StatusOK, trips)
}

// GetTrip returns a single trip
// GET /api/trips/:id
func (h *TripHandler) GetTrip(c *gin.Context) {
	trip, err := h.tripRepo.GetByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrTripNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Trip not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to fetch trip")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch trip"})
		return
	}

	c.JSON(http.StatusOK, trip)
}

// GetOccupiedSeats returns the seat labels currently held on a trip, so the
// seat map can grey them out before the passenger picks.
// GET /api/trips/:id/occupied-seats
func (h *TripHandler) GetOccupiedSeats(c *gin.Context) {
	seats, err := h.bookingService.OccupiedSeats(c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrTripNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Trip not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to fetch occupied seats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch occupied seats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"occupied_seats": seats})
}
