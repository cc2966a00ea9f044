// api/routes/router.go
package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/piyushmishra0/Modex-System/internal/bookings"
	"github.com/piyushmishra0/Modex-System/internal/inventory"
	"github.com/piyushmishra0/Modex-System/internal/reaper"
	"github.com/piyushmishra0/Modex-System/internal/seats"
	"github.com/piyushmishra0/Modex-System/internal/shared/config"
	"github.com/piyushmishra0/Modex-System/internal/shared/constants"
	"github.com/piyushmishra0/Modex-System/internal/shared/database"
	"github.com/piyushmishra0/Modex-System/internal/shared/middleware"
	"github.com/piyushmishra0/Modex-System/internal/shows"
	"github.com/piyushmishra0/Modex-System/pkg/cache"
	"github.com/piyushmishra0/Modex-System/pkg/lease"
	"github.com/piyushmishra0/Modex-System/pkg/logger"
)

// Router holds all route dependencies
type Router struct {
	config    *config.Config
	db        *database.DB
	store     inventory.Store
	locks     *seats.LockManager
	cache     cache.Service
	publisher bookings.Publisher

	bookingService bookings.Service // For dependency injection into the reaper
	jobs           *reaper.JobProcessor
}

// NewRouter creates a new router instance. publisher may be nil.
func NewRouter(cfg *config.Config, db *database.DB, publisher bookings.Publisher) *Router {
	var store inventory.Store
	if cfg.UsesPostgres() && db.GetPostgreSQL() != nil {
		store = inventory.NewPostgresStore(db.GetPostgreSQL())
	} else {
		store = inventory.NewMemoryStore()
	}

	var bookingCache cache.Service
	if db.GetRedisClient() != nil {
		bookingCache = cache.NewService(db.GetRedisClient())
	}

	return &Router{
		config:    cfg,
		db:        db,
		store:     store,
		locks:     seats.NewLockManager(store),
		cache:     bookingCache,
		publisher: publisher,
	}
}

// Reaper returns the lease reaper once routes are set up
func (r *Router) Reaper() *reaper.JobProcessor {
	return r.jobs
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)

	adminGuard := middleware.RequireAdminKey(r.config.AdminAPIKey)

	// API routes
	api := engine.Group(r.config.GetAPIBasePath())
	{
		// Setup show routes
		r.setupShowRoutes(api, adminGuard)

		// Setup booking routes (must be before reaper routes for dependency injection)
		r.setupBookingRoutes(api)

		// Setup reaper routes
		r.setupReaperRoutes(api, adminGuard)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		// Perform health checks
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "modex-system",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "modex-system",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"store":       r.config.StoreDriver,
			"redis_cache": r.cache != nil,
			"events":      r.config.Events.Broker,
			"reaper":      r.config.Reaper.Enabled,
			"timestamp":   time.Now(),
		})
	})
}

// setupShowRoutes configures the show catalogue routes
func (r *Router) setupShowRoutes(rg *gin.RouterGroup, adminGuard gin.HandlerFunc) {
	showService := shows.NewService(r.store, r.locks, r.cache, r.config.Reservation.MaxSeatsPerShow)
	showController := shows.NewController(showService)

	shows.SetupShowRoutes(rg, showController, adminGuard)
}

// setupBookingRoutes configures the reservation engine routes
func (r *Router) setupBookingRoutes(rg *gin.RouterGroup) {
	bookingConfig := bookings.DefaultConfig()
	bookingConfig.DefaultHoldTTL = r.config.Reservation.DefaultHoldTTL
	bookingConfig.MaxHoldTTL = r.config.Reservation.MaxHoldTTL
	bookingConfig.PendingBookingTTL = r.config.Reservation.PendingBookingTTL
	bookingConfig.MaxSeatsPerBooking = r.config.Reservation.MaxSeatsPerBooking

	bookingService := bookings.NewService(r.store, r.locks, r.publisher, r.cache, bookingConfig)
	bookingController := bookings.NewController(bookingService)

	// Store booking service for dependency injection
	r.bookingService = bookingService

	bookings.SetupBookingRoutes(rg, bookingController)
}

// setupReaperRoutes configures the lease reaper and its admin routes
func (r *Router) setupReaperRoutes(rg *gin.RouterGroup, adminGuard gin.HandlerFunc) {
	var leader reaper.Leader
	if r.config.Reaper.LeaderElection && r.db.GetRedisClient() != nil {
		leaderLease := lease.New(r.db.GetRedisClient(), constants.LOCK_KEY_REAPER_LEADER, constants.TTL_REAPER_LEADER)

		// Scripts load on first use if this fails
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := leaderLease.PreloadScripts(ctx); err != nil {
			logger.GetDefault().Warn("Failed to preload reaper lease scripts", "error", err.Error())
		}
		cancel()
		leader = leaderLease
	}

	r.jobs = reaper.NewJobProcessor(r.store, r.locks, r.bookingService, leader, &reaper.JobConfig{
		Interval:  r.config.Reaper.Interval,
		BatchSize: r.config.Reaper.BatchSize,
	})

	reaper.SetupReaperRoutes(rg, reaper.NewController(r.jobs), adminGuard)
}
