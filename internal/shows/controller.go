package shows

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/piyushmishra0/Modex-System/internal/inventory"
	"github.com/piyushmishra0/Modex-System/internal/shared/utils/response"
)

type Controller interface {
	CreateShow(c *gin.Context)
	DeleteShow(c *gin.Context)
	GetShow(c *gin.Context)
	GetAllShows(c *gin.Context)
	GetSeatMap(c *gin.Context)
	CheckConsistency(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

func (ctrl *controller) CreateShow(c *gin.Context) {
	var req CreateShowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondInvalid(c, "Invalid request body", err.Error())
		return
	}

	show, err := ctrl.service.CreateShow(c.Request.Context(), CreateShowInput{
		Name:       req.Name,
		StartTime:  req.StartTime,
		TotalSeats: req.TotalSeats,
	})
	if err != nil {
		response.RespondError(c, "Failed to create show", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Show created successfully", ToShowResponse(show), nil)
}

func (ctrl *controller) DeleteShow(c *gin.Context) {
	id, ok := showID(c)
	if !ok {
		return
	}

	if err := ctrl.service.DeleteShow(c.Request.Context(), id); err != nil {
		response.RespondError(c, "Failed to delete show", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Show deleted successfully", nil, nil)
}

func (ctrl *controller) GetShow(c *gin.Context) {
	id, ok := showID(c)
	if !ok {
		return
	}

	show, err := ctrl.service.GetShow(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, "Show not found", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Show retrieved successfully", ToShowResponse(show), nil)
}

func (ctrl *controller) GetAllShows(c *gin.Context) {
	var req ShowListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.RespondInvalid(c, "Invalid query parameters", err.Error())
		return
	}

	result, err := ctrl.service.ListShows(c.Request.Context(), inventory.ShowListQuery{
		Page:         req.Page,
		Limit:        req.Limit,
		UpcomingOnly: req.UpcomingOnly,
	})
	if err != nil {
		response.RespondError(c, "Failed to list shows", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Shows retrieved successfully", result, nil)
}

func (ctrl *controller) GetSeatMap(c *gin.Context) {
	id, ok := showID(c)
	if !ok {
		return
	}

	seatMap, err := ctrl.service.GetSeatMap(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, "Failed to load seats", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Seats retrieved successfully", seatMap, nil)
}

func (ctrl *controller) CheckConsistency(c *gin.Context) {
	id, ok := showID(c)
	if !ok {
		return
	}

	report, err := ctrl.service.CheckConsistency(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, "Failed to check consistency", err)
		return
	}

	message := "Seat counter is consistent"
	if !report.Consistent {
		message = "Seat counter drift detected"
	}
	response.RespondJSON(c, "success", http.StatusOK, message, report, nil)
}

func showID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, "Invalid show ID", fmt.Errorf("%w: %s", inventory.ErrNotFound, err.Error()))
		return uuid.Nil, false
	}
	return id, true
}
