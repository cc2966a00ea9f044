package shows

import (
	"github.com/gin-gonic/gin"
)

func SetupShowRoutes(router *gin.RouterGroup, controller Controller, adminGuard gin.HandlerFunc) {
	// Public routes - anyone can browse shows and seat maps
	publicShows := router.Group("/shows")
	{
		publicShows.GET("", controller.GetAllShows)          // GET /api/v1/shows - Browse shows
		publicShows.GET("/:id", controller.GetShow)          // GET /api/v1/shows/:id - Show details
		publicShows.GET("/:id/seats", controller.GetSeatMap) // GET /api/v1/shows/:id/seats - Seat map
	}

	// Admin routes - create, delete and audit shows
	adminShows := router.Group("/admin/shows")
	adminShows.Use(adminGuard)
	{
		adminShows.POST("", controller.CreateShow)                      // POST /api/v1/admin/shows - Create show with seats
		adminShows.DELETE("/:id", controller.DeleteShow)                // DELETE /api/v1/admin/shows/:id - Delete show
		adminShows.GET("/:id/consistency", controller.CheckConsistency) // GET /api/v1/admin/shows/:id/consistency - Counter audit
	}
}
