package services

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/transporttn/busline-backend/internal/database"
	"github.com/transporttn/busline-backend/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// SeedService populates an empty database with a default administrator and
// sample fleet data, and backs the administrative reset. Development tooling:
// it never overwrites existing records.
type SeedService struct {
	userRepo    *database.UserRepository
	busRepo     *database.BusRepository
	tripRepo    *database.TripRepository
	bookingRepo *database.BookingRepository
	bcryptCost  int
	logger      *logrus.Logger
}

// NewSeedService creates a new SeedService
func NewSeedService(
	userRepo *database.UserRepository,
	busRepo *database.BusRepository,
	tripRepo *database.TripRepository,
	bookingRepo *database.BookingRepository,
	bcryptCost int,
	logger *logrus.Logger,
) *SeedService {
	return &SeedService{
		userRepo:    userRepo,
		busRepo:     busRepo,
		tripRepo:    tripRepo,
		bookingRepo: bookingRepo,
		bcryptCost:  bcryptCost,
		logger:      logger,
	}
}

const defaultAdminEmail = "admin@transport.tn"

// Seed creates the default admin plus sample drivers, buses and trips when
// each of those collections is empty
func (s *SeedService) Seed() error {
	if err := s.ensureAdmin(); err != nil {
		return err
	}

	drivers, err := s.ensureDrivers()
	if err != nil {
		return err
	}

	buses, err := s.ensureBuses(drivers)
	if err != nil {
		return err
	}

	if err := s.ensureTrips(drivers, buses); err != nil {
		return err
	}

	s.logger.Info("Seed completed")
	return nil
}

// Reset wipes bookings, trips, buses and users, then recreates the admin
func (s *SeedService) Reset() error {
	if err := s.bookingRepo.DeleteAll(); err != nil {
		return err
	}
	if err := s.tripRepo.DeleteAll(); err != nil {
		return err
	}
	if err := s.busRepo.DeleteAll(); err != nil {
		return err
	}
	if err := s.userRepo.DeleteAll(); err != nil {
		return err
	}

	s.logger.Warn("Database reset, recreating admin account")
	return s.ensureAdmin()
}

func (s *SeedService) ensureAdmin() error {
	existing, err := s.userRepo.GetByEmail(defaultAdminEmail)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	_, err = s.userRepo.Create(&models.User{
		Name:         "Super Admin",
		Email:        defaultAdminEmail,
		PasswordHash: string(hash),
		Phone:        "71000000",
		Role:         models.RoleAdmin,
		Status:       models.UserStatusActive,
	})
	return err
}

func (s *SeedService) ensureDrivers() ([]models.User, error) {
	count, err := s.userRepo.CountByRole(models.RoleDriver)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return s.userRepo.ListByRole(models.RoleDriver)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("driver123"), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash driver password: %w", err)
	}

	samples := []struct {
		name, email, phone, license, city string
	}{
		{"Ali Ben", "ali.driver@transport.tn", "71200001", "D-1001", "Tunis"},
		{"Mouna Habib", "mouna.driver@transport.tn", "71200002", "D-1002", "Sousse"},
		{"Karim Saad", "karim.driver@transport.tn", "71200003", "D-1003", "Sfax"},
	}

	drivers := make([]models.User, 0, len(samples))
	for _, d := range samples {
		license, city := d.license, d.city
		created, err := s.userRepo.Create(&models.User{
			Name:          d.name,
			Email:         d.email,
			PasswordHash:  string(hash),
			Phone:         d.phone,
			Role:          models.RoleDriver,
			Status:        models.UserStatusActive,
			LicenseNumber: &license,
			City:          &city,
		})
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, *created)
	}

	s.logger.WithField("count", len(drivers)).Info("Sample drivers created")
	return drivers, nil
}

func (s *SeedService) ensureBuses(drivers []models.User) ([]models.Bus, error) {
	count, err := s.busRepo.Count()
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return s.busRepo.List()
	}

	samples := []struct {
		number  string
		cap     int
		busType string
	}{
		{"TN-1001", 50, "Standard"},
		{"TN-1002", 40, "Standard"},
		{"TN-1003", 30, "Confort"},
	}

	buses := make([]models.Bus, 0, len(samples))
	for i, b := range samples {
		bus := &models.Bus{
			Number:   b.number,
			Capacity: b.cap,
			Type:     b.busType,
			Status:   models.BusStatusActive,
		}
		if i < len(drivers) {
			id := drivers[i].ID
			bus.DriverID = &id
		}
		created, err := s.busRepo.Create(bus)
		if err != nil {
			return nil, err
		}
		buses = append(buses, *created)
	}

	s.logger.WithField("count", len(buses)).Info("Sample buses created")
	return buses, nil
}

func (s *SeedService) ensureTrips(drivers []models.User, buses []models.Bus) error {
	count, err := s.tripRepo.Count()
	if err != nil {
		return err
	}
	if count > 0 || len(drivers) < 3 || len(buses) < 3 {
		return nil
	}

	tomorrow := time.Now().AddDate(0, 0, 1)
	dayAfter := time.Now().AddDate(0, 0, 2)

	samples := []models.Trip{
		{
			Origin: "Tunis", Destination: "Sousse", ServiceDate: tomorrow,
			DepartureTime: "08:00", ArrivalTime: "10:00", Price: 15,
			BusID: buses[0].ID, DriverID: drivers[0].ID,
			AvailableSeats: buses[0].Capacity, Status: models.TripStatusActive,
		},
		{
			Origin: "Sousse", Destination: "Monastir", ServiceDate: tomorrow,
			DepartureTime: "11:00", ArrivalTime: "12:00", Price: 8,
			BusID: buses[1].ID, DriverID: drivers[1].ID,
			AvailableSeats: buses[1].Capacity, Status: models.TripStatusActive,
		},
		{
			Origin: "Sfax", Destination: "Gabes", ServiceDate: dayAfter,
			DepartureTime: "09:30", ArrivalTime: "12:00", Price: 20,
			BusID: buses[2].ID, DriverID: drivers[2].ID,
			AvailableSeats: buses[2].Capacity, Status: models.TripStatusActive,
		},
	}

	for i := range samples {
		if _, err := s.tripRepo.Create(&samples[i]); err != nil {
			return err
		}
	}

	s.logger.WithField("count", len(samples)).Info("Sample trips created")
	return nil
}
