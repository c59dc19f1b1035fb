package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/transporttn/busline-backend/internal/config"
	"github.com/transporttn/busline-backend/internal/database"
	"github.com/transporttn/busline-backend/internal/handlers"
	"github.com/transporttn/busline-backend/internal/middleware"
	"github.com/transporttn/busline-backend/internal/models"
	"github.com/transporttn/busline-backend/internal/services"
	"github.com/transporttn/busline-backend/pkg/jwt"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting Busline Booking Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	if err := database.EnsureSchema(db); err != nil {
		logger.Fatalf("Failed to apply database schema: %v", err)
	}

	// Initialize services
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	userRepository := database.NewUserRepository(db)
	busRepository := database.NewBusRepository(db)
	tripRepository := database.NewTripRepository(db)

	// Type assertion needed: db is interface DB, but the booking repository
	// manages its own transactions and needs *sqlx.DB.
	sqlxDB, ok := db.(*database.PostgresDB)
	if !ok {
		logger.Fatal("Failed to cast database connection to PostgresDB")
	}
	bookingRepository := database.NewBookingRepository(sqlxDB.DB)

	bookingService := services.NewBookingService(
		tripRepository,
		bookingRepository,
		services.BookingServiceConfig{Cutoff: cfg.Booking.Cutoff()},
		logger,
	)
	ticketService := services.NewTicketService(bookingRepository, logger)
	seedService := services.NewSeedService(
		userRepository,
		busRepository,
		tripRepository,
		bookingRepository,
		cfg.Security.BcryptCost,
		logger,
	)
	logger.Info("Services initialized")

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userRepository, jwtService, cfg.Security.BcryptCost, logger)
	tripHandler := handlers.NewTripHandler(tripRepository, bookingService, logger)
	bookingHandler := handlers.NewBookingHandler(bookingService, ticketService, bookingRepository, logger)
	driverHandler := handlers.NewDriverHandler(tripRepository, ticketService, logger)
	adminHandler := handlers.NewAdminHandler(
		userRepository,
		busRepository,
		tripRepository,
		bookingRepository,
		ticketService,
		seedService,
		cfg.Security.BcryptCost,
		logger,
	)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Security.EnableRequestLog {
		router.Use(requestLogger(logger))
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", healthCheckHandler(db))

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.GET("/me", middleware.AuthMiddleware(jwtService), authHandler.Me)
		}

		trips := api.Group("/trips")
		{
			trips.GET("", tripHandler.SearchTrips)
			trips.GET("/:id", tripHandler.GetTrip)
			trips.GET("/:id/occupied-seats", tripHandler.GetOccupiedSeats)
		}

		bookings := api.Group("/bookings")
		bookings.Use(middleware.AuthMiddleware(jwtService))
		{
			bookings.POST("", bookingHandler.CreateBooking)
			bookings.GET("/me", bookingHandler.MyBookings)
			bookings.POST("/:id/refund", bookingHandler.RequestRefund)
		}

		driver := api.Group("/driver")
		driver.Use(middleware.AuthMiddleware(jwtService))
		driver.Use(middleware.RequireRole(string(models.RoleDriver), string(models.RoleAdmin)))
		{
			driver.GET("/trips", driverHandler.MyTrips)
			driver.POST("/validate-ticket", driverHandler.ValidateTicket)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.AuthMiddleware(jwtService))
		admin.Use(middleware.RequireRole(string(models.RoleAdmin)))
		{
			admin.GET("/users", adminHandler.ListUsers)
			admin.POST("/users", adminHandler.SaveUser)
			admin.DELETE("/users/:id", adminHandler.DeleteUser)

			admin.GET("/buses", adminHandler.ListBuses)
			admin.POST("/buses", adminHandler.SaveBus)
			admin.DELETE("/buses/:id", adminHandler.DeleteBus)

			admin.GET("/trips", adminHandler.ListTrips)
			admin.POST("/trips", adminHandler.SaveTrip)
			admin.DELETE("/trips/:id", adminHandler.DeleteTrip)

			admin.GET("/refunds", adminHandler.ListPendingRefunds)
			admin.POST("/refunds/:id", adminHandler.ResolveRefund)

			admin.GET("/payments", adminHandler.ListPayments)
			admin.GET("/stats", adminHandler.Stats)
			admin.GET("/stats/daily-trips", adminHandler.DailyTripStats)
			admin.GET("/stats/bus-occupation", adminHandler.BusOccupationStats)
			admin.GET("/stats/alerts", adminHandler.AlertStats)
			admin.GET("/stats/reservations-heatmap", adminHandler.ReservationsHeatmap)
			admin.GET("/stats/priority-seats", adminHandler.PrioritySeatStats)
			admin.GET("/bus-positions", adminHandler.BusPositions)

			admin.POST("/seed", adminHandler.Seed)
			admin.POST("/reset", adminHandler.Reset)
		}
	}

	// Start server with graceful shutdown
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Infof("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Forced shutdown: %v", err)
	}
	logger.Info("Server stopped")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		entry := logger.WithFields(fields)
		status := c.Writer.Status()
		switch {
		case len(c.Errors) > 0:
			entry.WithField("errors", c.Errors.String()).Error("Request failed with errors")
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
