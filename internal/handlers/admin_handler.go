package handlers

import (
	"database/sql"
	"errors"
	"math/rand"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/transporttn/busline-backend/internal/database"
	"github.com/transporttn/busline-backend/internal/models"
	"github.com/transporttn/busline-backend/internal/services"
)

// AdminHandler serves the back-office: account, fleet and trip management,
// refund resolution, payment history and dashboard stats.
type AdminHandler struct {
	userRepo      *database.UserRepository
	busRepo       *database.BusRepository
	tripRepo      *database.TripRepository
	bookingRepo   *database.BookingRepository
	ticketService *services.TicketService
	seedService   *services.SeedService
	bcryptCost    int
	logger        *logrus.Logger
}

func NewAdminHandler(
	userRepo *database.UserRepository,
	busRepo *database.BusRepository,
	tripRepo *database.TripRepository,
	bookingRepo *database.BookingRepository,
	ticketService *services.TicketService,
	seedService *services.SeedService,
	bcryptCost int,
	logger *logrus.Logger,
) *AdminHandler {
	return &AdminHandler{
		userRepo:      userRepo,
		busRepo:       busRepo,
		tripRepo:      tripRepo,
		bookingRepo:   bookingRepo,
		ticketService: ticketService,
		seedService:   seedService,
		bcryptCost:    bcryptCost,
		logger:        logger,
	}
}

// ListUsers lists accounts, optionally filtered by role
// GET /api/admin/users?role=
func (h *AdminHandler) ListUsers(c *gin.Context) {
	role := c.Query("role")

	var (
		users []models.User
		err   error
	)
	if role != "" {
		users, err = h.userRepo.ListByRole(models.UserRole(role))
	} else {
		users, err = h.userRepo.List()
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to list users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	c.JSON(http.StatusOK, users)
}

// SaveUser creates a new account, or updates an existing one when the
// payload carries an id.
// POST /api/admin/users
func (h *AdminHandler) SaveUser(c *gin.Context) {
	var req models.SaveUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := &models.User{
		ID:            req.ID,
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		Role:          req.Role,
		Status:        models.UserStatusActive,
		LicenseNumber: req.LicenseNumber,
		City:          req.City,
		AssignedBusID: req.AssignedBusID,
	}
	if req.Status != nil {
		user.Status = models.UserStatus(*req.Status)
	}

	if req.ID == "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.bcryptCost)
		if err != nil {
			h.logger.WithError(err).Error("Failed to hash password")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save user"})
			return
		}
		user.PasswordHash = string(hash)

		created, err := h.userRepo.Create(user)
		if err != nil {
			h.logger.WithError(err).Error("Failed to create user")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save user"})
			return
		}
		c.JSON(http.StatusCreated, created)
		return
	}

	existing, err := h.userRepo.GetByID(req.ID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save user"})
		return
	}
	if existing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	user.PasswordHash = existing.PasswordHash
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.bcryptCost)
		if err != nil {
			h.logger.WithError(err).Error("Failed to hash password")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save user"})
			return
		}
		user.PasswordHash = string(hash)
	}

	if err := h.userRepo.Update(user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to update user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save user"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// DeleteUser removes an account
// DELETE /api/admin/users/:id
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	if err := h.userRepo.Delete(c.Param("id")); err != nil {
		h.logger.WithError(err).Error("Failed to delete user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

// ListBuses lists the fleet
// GET /api/admin/buses
func (h *AdminHandler) ListBuses(c *gin.Context) {
	buses, err := h.busRepo.List()
	if err != nil {
		h.logger.WithError(err).Error("Failed to list buses")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch buses"})
		return
	}
	c.JSON(http.StatusOK, buses)
}

// SaveBus creates or updates a bus
// POST /api/admin/buses
func (h *AdminHandler) SaveBus(c *gin.Context) {
	var req models.SaveBusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bus := &models.Bus{
		ID:          req.ID,
		Number:      req.Number,
		Capacity:    req.Capacity,
		Type:        req.Type,
		DriverID:    req.DriverID,
		Status:      models.BusStatusActive,
		GPSTracking: req.GPSTracking,
	}
	if req.Status != nil {
		bus.Status = models.BusStatus(*req.Status)
	}

	if req.ID == "" {
		created, err := h.busRepo.Create(bus)
		if err != nil {
			h.logger.WithError(err).Error("Failed to create bus")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save bus"})
			return
		}
		c.JSON(http.StatusCreated, created)
		return
	}

	if err := h.busRepo.Update(bus); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Bus not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to update bus")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save bus"})
		return
	}
	c.JSON(http.StatusOK, bus)
}

// DeleteBus removes a bus
// DELETE /api/admin/buses/:id
func (h *AdminHandler) DeleteBus(c *gin.Context) {
	if err := h.busRepo.Delete(c.Param("id")); err != nil {
		h.logger.WithError(err).Error("Failed to delete bus")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete bus"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Bus deleted"})
}

// ListTrips lists all trips
// GET /api/admin/trips
func (h *AdminHandler) ListTrips(c *gin.Context) {
	trips, err := h.tripRepo.List()
	if err != nil {
		h.logger.WithError(err).Error("Failed to list trips")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch trips"})
		return
	}
	c.JSON(http.StatusOK, trips)
}

// SaveTrip creates or updates a trip. Available seats are clamped to the
// capacity of the assigned bus so an edit can never oversell the vehicle.
// POST /api/admin/trips
func (h *AdminHandler) SaveTrip(c *gin.Context) {
	var req models.SaveTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bus, err := h.busRepo.GetByID(req.BusID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch bus")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save trip"})
		return
	}
	if bus == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Assigned bus does not exist"})
		return
	}

	seats := bus.Capacity
	if req.AvailableSeats != nil && *req.AvailableSeats < seats {
		seats = *req.AvailableSeats
	}

	serviceDate, _ := time.Parse("2006-01-02", req.Date)
	trip := &models.Trip{
		ID:             req.ID,
		Origin:         req.Origin,
		Destination:    req.Destination,
		ServiceDate:    serviceDate,
		DepartureTime:  req.DepartureTime,
		ArrivalTime:    req.ArrivalTime,
		Price:          req.Price,
		BusID:          req.BusID,
		DriverID:       req.DriverID,
		AvailableSeats: seats,
		Status:         models.TripStatusActive,
	}
	if req.Status != nil {
		trip.Status = models.TripStatus(*req.Status)
	}

	if req.ID == "" {
		created, err := h.tripRepo.Create(trip)
		if err != nil {
			h.logger.WithError(err).Error("Failed to create trip")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save trip"})
			return
		}
		c.JSON(http.StatusCreated, created)
		return
	}

	if err := h.tripRepo.Update(trip); err != nil {
		if errors.Is(err, models.ErrTripNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Trip not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to update trip")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save trip"})
		return
	}
	c.JSON(http.StatusOK, trip)
}

// DeleteTrip removes a trip
// DELETE /api/admin/trips/:id
func (h *AdminHandler) DeleteTrip(c *gin.Context) {
	if err := h.tripRepo.Delete(c.Param("id")); err != nil {
		h.logger.WithError(err).Error("Failed to delete trip")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete trip"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Trip deleted"})
}

// ListPendingRefunds lists refund requests awaiting resolution
// GET /api/admin/refunds
func (h *AdminHandler) ListPendingRefunds(c *gin.Context) {
	refunds, err := h.ticketService.PendingRefunds()
	if err != nil {
		h.logger.WithError(err).Error("Failed to list pending refunds")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch refunds"})
		return
	}
	c.JSON(http.StatusOK, refunds)
}

// ResolveRefund settles a pending refund to REFUNDED or CANCELLED
// POST /api/admin/refunds/:id
func (h *AdminHandler) ResolveRefund(c *gin.Context) {
	var req models.ResolveRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booking, err := h.ticketService.ResolveRefund(c.Param("id"), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrTicketNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		case errors.Is(err, models.ErrTicketNotRefundable):
			c.JSON(http.StatusConflict, gin.H{"error": "Booking has no pending refund"})
		default:
			h.logger.WithError(err).Error("Failed to resolve refund")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve refund"})
		}
		return
	}

	c.JSON(http.StatusOK, booking)
}

// ListPayments returns a simulated payment history derived from paid bookings
// GET /api/admin/payments
func (h *AdminHandler) ListPayments(c *gin.Context) {
	bookings, err := h.bookingRepo.ListPaid(100)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list payments")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch payments"})
		return
	}

	payments := make([]models.PaymentRecord, 0, len(bookings))
	for _, b := range bookings {
		payments = append(payments, models.PaymentRecord{
			Date:   b.CreatedAt.Format("2006-01-02"),
			Method: "Card",
			Amount: b.Price,
			Status: "Completed",
		})
	}

	c.JSON(http.StatusOK, payments)
}

// Stats returns the dashboard counters
// GET /api/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	clients, err := h.userRepo.CountByRole(models.RoleClient)
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}
	drivers, err := h.userRepo.CountByRole(models.RoleDriver)
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}
	buses, err := h.busRepo.Count()
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}
	tripsToday, err := h.tripRepo.CountByDate(time.Now().Format("2006-01-02"))
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"clients":     clients,
		"drivers":     drivers,
		"buses":       buses,
		"trips_today": tripsToday,
	})
}

// DailyTripStats returns the trip counters for today's dashboard card
// GET /api/admin/stats/daily-trips
func (h *AdminHandler) DailyTripStats(c *gin.Context) {
	scheduled, err := h.tripRepo.CountByDate(time.Now().Format("2006-01-02"))
	if err != nil {
		h.logger.WithError(err).Error("Failed to count daily trips")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}

	// Ongoing/completed tracking needs trip telemetry that does not exist yet.
	c.JSON(http.StatusOK, gin.H{
		"scheduled": scheduled,
		"ongoing":   0,
		"completed": 0,
	})
}

// BusOccupationStats returns a simulated per-bus occupation percentage
// GET /api/admin/stats/bus-occupation
func (h *AdminHandler) BusOccupationStats(c *gin.Context) {
	buses, err := h.busRepo.List()
	if err != nil {
		h.logger.WithError(err).Error("Failed to list buses")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}

	type occupation struct {
		Name       string `json:"name"`
		Occupation int    `json:"occupation"`
	}
	data := make([]occupation, 0, len(buses))
	for _, bus := range buses {
		data = append(data, occupation{Name: bus.Number, Occupation: rand.Intn(101)})
	}

	c.JSON(http.StatusOK, gin.H{"data": data})
}

// AlertStats lists buses needing attention
// GET /api/admin/stats/alerts
func (h *AdminHandler) AlertStats(c *gin.Context) {
	inMaintenance, err := h.busRepo.ListByStatus(models.BusStatusMaintenance)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list buses")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}

	maintenance := make([]string, 0, len(inMaintenance))
	for _, bus := range inMaintenance {
		maintenance = append(maintenance, bus.Number)
	}

	c.JSON(http.StatusOK, gin.H{
		"maintenance":         maintenance,
		"verification_needed": []string{},
	})
}

// ReservationsHeatmap returns a simulated weekday-by-hour reservation grid
// GET /api/admin/stats/reservations-heatmap
func (h *AdminHandler) ReservationsHeatmap(c *gin.Context) {
	labelsX := []string{"6h", "9h", "12h", "15h", "18h", "21h"}
	labelsY := []string{"Lun", "Mar", "Mer", "Jeu", "Ven", "Sam", "Dim"}

	data := make([][]int, len(labelsY))
	for i := range data {
		row := make([]int, len(labelsX))
		for j := range row {
			row[j] = rand.Intn(10)
		}
		data[i] = row
	}

	c.JSON(http.StatusOK, gin.H{
		"labels_x": labelsX,
		"labels_y": labelsY,
		"data":     data,
	})
}

// PrioritySeatStats returns the fixed seat-category split
// GET /api/admin/stats/priority-seats
func (h *AdminHandler) PrioritySeatStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"standard": 80,
		"handicap": 15,
		"pregnant": 5,
	})
}

// BusPositions returns synthetic GPS positions for buses with tracking
// enabled. Positions jitter around the depot until real telemetry exists.
// GET /api/admin/bus-positions
func (h *AdminHandler) BusPositions(c *gin.Context) {
	buses, err := h.busRepo.ListByStatus(models.BusStatusActive)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list buses")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bus positions"})
		return
	}

	// Tunis city centre
	const baseLat, baseLng = 36.8065, 10.1815

	positions := make([]models.BusPosition, 0, len(buses))
	for _, bus := range buses {
		if !bus.GPSTracking {
			continue
		}
		positions = append(positions, models.BusPosition{
			ID:     bus.ID,
			Number: bus.Number,
			Lat:    baseLat + (rand.Float64()-0.5)*0.1,
			Lng:    baseLng + (rand.Float64()-0.5)*0.1,
			Speed:  rand.Float64() * 90,
		})
	}

	c.JSON(http.StatusOK, positions)
}

// Seed inserts the demo dataset if it is missing
// POST /api/admin/seed
func (h *AdminHandler) Seed(c *gin.Context) {
	if err := h.seedService.Seed(); err != nil {
		h.logger.WithError(err).Error("Seeding failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to seed database"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Database seeded"})
}

// Reset wipes all data and restores the admin account
// POST /api/admin/reset
func (h *AdminHandler) Reset(c *gin.Context) {
	if err := h.seedService.Reset(); err != nil {
		h.logger.WithError(err).Error("Reset failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset database"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Database reset"})
}
