package bookings

import (
	"github.com/gin-gonic/gin"
)

// SetupBookingRoutes configures all booking-related routes
func SetupBookingRoutes(rg *gin.RouterGroup, controller *Controller) {
	bookings := rg.Group("/bookings")
	{
		// Atomic mode
		bookings.POST("", controller.CreateBooking) // POST /api/v1/bookings
		bookings.GET("", controller.ListBookings)   // GET /api/v1/bookings?show_id=&status=&page=&limit=
		bookings.GET("/:id", controller.GetBooking) // GET /api/v1/bookings/:id

		// Deferred mode
		bookings.POST("/pending", controller.CreatePendingBooking) // POST /api/v1/bookings/pending
		bookings.POST("/reserve", controller.Reserve)              // POST /api/v1/bookings/reserve
		bookings.POST("/:id/confirm", controller.ConfirmBooking)   // POST /api/v1/bookings/:id/confirm
		bookings.POST("/:id/fail", controller.FailBooking)         // POST /api/v1/bookings/:id/fail
	}

	holds := rg.Group("/shows/:id/holds")
	{
		holds.POST("", controller.HoldSeats)      // POST /api/v1/shows/:id/holds
		holds.DELETE("", controller.ReleaseSeats) // DELETE /api/v1/shows/:id/holds
	}
}

// Key flows:
//
// ATOMIC
// POST /bookings { show_id, seat_ids, user_id? } -> CONFIRMED booking or
// SEATS_LOCKED / SEATS_UNAVAILABLE / INVALID_SEATS
//
// DEFERRED
// 1. POST /shows/:id/holds { seat_ids, ttl_seconds } holds seats as PENDING
// 2. POST /bookings/pending { show_id, seat_ids } records a PENDING booking
//    (or POST /bookings/reserve to do 1 and 2 in one transaction)
// 3. POST /bookings/:id/confirm books the held seats, or
//    POST /bookings/:id/fail releases them
// 4. Unconfirmed bookings past their deadline are failed by the reaper
