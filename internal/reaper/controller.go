package reaper

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/piyushmishra0/Modex-System/internal/shared/utils/response"
)

type Controller struct {
	jobs *JobProcessor
}

func NewController(jobs *JobProcessor) *Controller {
	return &Controller{jobs: jobs}
}

// GetStatus handles GET /api/v1/admin/reaper/status
func (c *Controller) GetStatus(ctx *gin.Context) {
	response.RespondJSON(ctx, "success", http.StatusOK, "Reaper status retrieved", c.jobs.GetJobStatus(), nil)
}

// RunNow handles POST /api/v1/admin/reaper/run
func (c *Controller) RunNow(ctx *gin.Context) {
	result := c.jobs.RunOnce(ctx.Request.Context())
	response.RespondJSON(ctx, "success", http.StatusOK, "Sweep completed", result, nil)
}
