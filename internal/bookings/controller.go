package bookings

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/piyushmishra0/Modex-System/internal/inventory"
	"github.com/piyushmishra0/Modex-System/internal/shared/utils/response"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// CreateBooking handles POST /api/v1/bookings
func (c *Controller) CreateBooking(ctx *gin.Context) {
	var req CreateBookingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondInvalid(ctx, "Invalid request body", err.Error())
		return
	}

	showID := uuid.MustParse(req.ShowID) // validated by binding
	seatIDs, err := parseSeatIDs(req.SeatIDs)
	if err != nil {
		response.RespondError(ctx, "Invalid seats", err)
		return
	}

	booking, err := c.service.CreateBooking(ctx.Request.Context(), CreateBookingInput{
		ShowID:  showID,
		SeatIDs: seatIDs,
		UserID:  req.UserID,
	})
	if err != nil {
		response.RespondError(ctx, "Failed to create booking", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Booking confirmed", ToBookingResponse(booking), nil)
}

// GetBooking handles GET /api/v1/bookings/:id
func (c *Controller) GetBooking(ctx *gin.Context) {
	bookingID, ok := bookingIDParam(ctx)
	if !ok {
		return
	}

	booking, err := c.service.GetBooking(ctx.Request.Context(), bookingID)
	if err != nil {
		response.RespondError(ctx, "Booking not found", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking retrieved successfully", ToBookingResponse(booking), nil)
}

// ListBookings handles GET /api/v1/bookings
func (c *Controller) ListBookings(ctx *gin.Context) {
	var req BookingListRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		response.RespondInvalid(ctx, "Invalid query parameters", err.Error())
		return
	}

	query := inventory.BookingListQuery{
		Page:   req.Page,
		Limit:  req.Limit,
		Status: inventory.BookingStatus(req.Status),
		UserID: req.UserID,
	}
	if req.ShowID != "" {
		showID := uuid.MustParse(req.ShowID)
		query.ShowID = &showID
	}
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}

	list, total, err := c.service.ListBookings(ctx.Request.Context(), query)
	if err != nil {
		response.RespondError(ctx, "Failed to list bookings", err)
		return
	}

	items := make([]BookingResponse, len(list))
	for i := range list {
		items[i] = ToBookingResponse(&list[i])
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Bookings retrieved successfully", BookingListResponse{
		Bookings:   items,
		Total:      total,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: CalculateTotalPages(total, query.Limit),
	}, nil)
}

// HoldSeats handles POST /api/v1/shows/:id/holds
func (c *Controller) HoldSeats(ctx *gin.Context) {
	showID, ok := showIDParam(ctx)
	if !ok {
		return
	}

	var req HoldSeatsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondInvalid(ctx, "Invalid request body", err.Error())
		return
	}

	seatIDs, err := parseSeatIDs(req.SeatIDs)
	if err != nil {
		response.RespondError(ctx, "Invalid seats", err)
		return
	}

	hold, err := c.service.Hold(ctx.Request.Context(), HoldInput{
		ShowID:  showID,
		SeatIDs: seatIDs,
		TTL:     time.Duration(req.TTLSeconds) * time.Second,
	})
	if err != nil {
		response.RespondError(ctx, "Failed to hold seats", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Seats held", ToHoldResponse(hold, time.Now()), nil)
}

// ReleaseSeats handles DELETE /api/v1/shows/:id/holds
func (c *Controller) ReleaseSeats(ctx *gin.Context) {
	showID, ok := showIDParam(ctx)
	if !ok {
		return
	}

	var req ReleaseSeatsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondInvalid(ctx, "Invalid request body", err.Error())
		return
	}

	seatIDs, err := parseSeatIDs(req.SeatIDs)
	if err != nil {
		response.RespondError(ctx, "Invalid seats", err)
		return
	}

	released, err := c.service.Release(ctx.Request.Context(), ReleaseInput{
		ShowID:  showID,
		SeatIDs: seatIDs,
		HoldID:  uuid.MustParse(req.HoldID),
	})
	if err != nil {
		response.RespondError(ctx, "Failed to release seats", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Seats released", ReleaseResponse{Released: released}, nil)
}

// CreatePendingBooking handles POST /api/v1/bookings/pending
func (c *Controller) CreatePendingBooking(ctx *gin.Context) {
	var req PendingBookingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondInvalid(ctx, "Invalid request body", err.Error())
		return
	}

	seatIDs, err := parseSeatIDs(req.SeatIDs)
	if err != nil {
		response.RespondError(ctx, "Invalid seats", err)
		return
	}

	booking, err := c.service.CreatePendingBooking(ctx.Request.Context(), CreatePendingInput{
		ShowID:  uuid.MustParse(req.ShowID),
		SeatIDs: seatIDs,
		HoldID:  uuid.MustParse(req.HoldID),
		UserID:  req.UserID,
		TTL:     time.Duration(req.TTLSeconds) * time.Second,
	})
	if err != nil {
		response.RespondError(ctx, "Failed to create pending booking", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Pending booking created", ToBookingResponse(booking), nil)
}

// Reserve handles POST /api/v1/bookings/reserve
func (c *Controller) Reserve(ctx *gin.Context) {
	var req ReserveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondInvalid(ctx, "Invalid request body", err.Error())
		return
	}

	seatIDs, err := parseSeatIDs(req.SeatIDs)
	if err != nil {
		response.RespondError(ctx, "Invalid seats", err)
		return
	}

	booking, err := c.service.Reserve(ctx.Request.Context(), ReserveInput{
		ShowID:  uuid.MustParse(req.ShowID),
		SeatIDs: seatIDs,
		UserID:  req.UserID,
		TTL:     time.Duration(req.TTLSeconds) * time.Second,
	})
	if err != nil {
		response.RespondError(ctx, "Failed to reserve seats", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Seats reserved", ToBookingResponse(booking), nil)
}

// ConfirmBooking handles POST /api/v1/bookings/:id/confirm
func (c *Controller) ConfirmBooking(ctx *gin.Context) {
	bookingID, ok := bookingIDParam(ctx)
	if !ok {
		return
	}

	booking, err := c.service.Confirm(ctx.Request.Context(), bookingID)
	if err != nil {
		response.RespondError(ctx, "Failed to confirm booking", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking confirmed", ToBookingResponse(booking), nil)
}

// FailBooking handles POST /api/v1/bookings/:id/fail
func (c *Controller) FailBooking(ctx *gin.Context) {
	bookingID, ok := bookingIDParam(ctx)
	if !ok {
		return
	}

	booking, err := c.service.Fail(ctx.Request.Context(), bookingID)
	if err != nil {
		response.RespondError(ctx, "Failed to fail booking", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking failed", ToBookingResponse(booking), nil)
}

func bookingIDParam(ctx *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondError(ctx, "Invalid booking ID", fmt.Errorf("%w: %s", inventory.ErrNotFound, err.Error()))
		return uuid.Nil, false
	}
	return id, true
}

func showIDParam(ctx *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondError(ctx, "Invalid show ID", fmt.Errorf("%w: %s", inventory.ErrNotFound, err.Error()))
		return uuid.Nil, false
	}
	return id, true
}

// parseSeatIDs treats any id that is not a seat identifier as a seat foreign to the show
func parseSeatIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a seat of this show", inventory.ErrInvalidSeats, s)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
