package reaper

import (
	"github.com/gin-gonic/gin"
)

func SetupReaperRoutes(rg *gin.RouterGroup, controller *Controller, adminGuard gin.HandlerFunc) {
	admin := rg.Group("/admin/reaper")
	admin.Use(adminGuard)
	{
		admin.GET("/status", controller.GetStatus) // GET /api/v1/admin/reaper/status
		admin.POST("/run", controller.RunNow)      // POST /api/v1/admin/reaper/run
	}
}
