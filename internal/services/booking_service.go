package services

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/transporttn/busline-backend/internal/database"
	"github.com/transporttn/busline-backend/internal/models"
)

// BookingServiceConfig holds configuration for the booking engine
type BookingServiceConfig struct {
	Cutoff time.Duration // how long before departure bookings close
}

// DefaultBookingServiceConfig returns the default configuration
func DefaultBookingServiceConfig() BookingServiceConfig {
	return BookingServiceConfig{
		Cutoff: 30 * time.Minute,
	}
}

// BookingService is the booking engine. It validates a booking request in a
// fixed order (trip existence, cutoff window, seat occupancy), then issues
// the ticket and decrements trip availability atomically. A failure at any
// step leaves no partial side effects.
type BookingService struct {
	tripRepo    *database.TripRepository
	bookingRepo *database.BookingRepository
	config      BookingServiceConfig
	logger      *logrus.Logger

	// now is swappable for cutoff boundary tests
	now func() time.Time
}

// NewBookingService creates a new BookingService
func NewBookingService(
	tripRepo *database.TripRepository,
	bookingRepo *database.BookingRepository,
	config BookingServiceConfig,
	logger *logrus.Logger,
) *BookingService {
	return &BookingService{
		tripRepo:    tripRepo,
		bookingRepo: bookingRepo,
		config:      config,
		logger:      logger,
		now:         time.Now,
	}
}

// CreateBooking reserves a seat on a trip and issues the ticket.
//
// Validation order, each failure terminal:
//  1. the trip must exist (models.ErrTripNotFound)
//  2. now must not be past departure minus the cutoff window
//     (models.ErrBookingWindowClosed); booking exactly at the cutoff
//     instant is still accepted
//  3. the seat must be free (models.ErrSeatAlreadyBooked) — checked and
//     enforced inside the creation transaction, so of N concurrent attempts
//     on the same seat exactly one succeeds
func (s *BookingService) CreateBooking(req *models.CreateBookingRequest, userID string) (*models.Booking, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	trip, err := s.tripRepo.GetByID(req.TripID)
	if err != nil {
		return nil, err
	}
	if trip.Status != models.TripStatusActive {
		return nil, models.ErrBookingWindowClosed
	}

	departure, err := trip.DepartureDateTime()
	if err != nil {
		return nil, models.NewStorageError("read trip schedule", err)
	}
	cutoff := departure.Add(-s.config.Cutoff)
	if s.now().After(cutoff) {
		return nil, models.ErrBookingWindowClosed
	}

	token, err := s.bookingRepo.GenerateTicketToken()
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{
		TripID:        trip.ID,
		UserID:        userID,
		PassengerName: req.PassengerName,
		SeatNumber:    req.SeatNumber,
		TripDate:      trip.ServiceDate,
		Price:         trip.Price,
		Token:         token,
		Status:        models.BookingStatusConfirmed,
	}

	created, err := s.bookingRepo.Create(booking)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":  created.ID,
		"trip_id":     created.TripID,
		"seat_number": created.SeatNumber,
		"user_id":     created.UserID,
	}).Info("Booking confirmed")

	return created, nil
}

// OccupiedSeats returns the seat labels currently held on a trip. The list
// is recomputed from bookings on every call rather than cached.
func (s *BookingService) OccupiedSeats(tripID string) ([]string, error) {
	if _, err := s.tripRepo.GetByID(tripID); err != nil {
		return nil, err
	}
	seats, err := s.bookingRepo.GetOccupiedSeats(tripID)
	if err != nil {
		return nil, err
	}
	if seats == nil {
		seats = []string{}
	}
	return seats, nil
}

// BookingsForUser returns a passenger's bookings
func (s *BookingService) BookingsForUser(userID string) ([]models.Booking, error) {
	return s.bookingRepo.ListByUser(userID)
}
