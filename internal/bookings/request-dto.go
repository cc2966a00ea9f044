package bookings

type CreateBookingRequest struct {
	ShowID  string   `json:"show_id" binding:"required,uuid"`
	SeatIDs []string `json:"seat_ids" binding:"required,min=1"`
	UserID  *string  `json:"user_id" binding:"omitempty,max=255"`
}

// ttl_seconds is capped at a day here; the engine applies the tighter configured bound
type HoldSeatsRequest struct {
	SeatIDs    []string `json:"seat_ids" binding:"required,min=1"`
	TTLSeconds int      `json:"ttl_seconds" binding:"omitempty,min=1,max=86400"`
}

type ReleaseSeatsRequest struct {
	SeatIDs []string `json:"seat_ids" binding:"required,min=1"`
	HoldID  string   `json:"hold_id" binding:"required,uuid"`
}

type PendingBookingRequest struct {
	ShowID     string   `json:"show_id" binding:"required,uuid"`
	SeatIDs    []string `json:"seat_ids" binding:"required,min=1"`
	HoldID     string   `json:"hold_id" binding:"required,uuid"`
	UserID     *string  `json:"user_id" binding:"omitempty,max=255"`
	TTLSeconds int      `json:"ttl_seconds" binding:"omitempty,min=1,max=86400"`
}

type ReserveRequest struct {
	ShowID     string   `json:"show_id" binding:"required,uuid"`
	SeatIDs    []string `json:"seat_ids" binding:"required,min=1"`
	UserID     *string  `json:"user_id" binding:"omitempty,max=255"`
	TTLSeconds int      `json:"ttl_seconds" binding:"omitempty,min=1,max=86400"`
}

type BookingListRequest struct {
	ShowID string `form:"show_id" binding:"omitempty,uuid"`
	Status string `form:"status" binding:"omitempty,oneof=PENDING CONFIRMED FAILED"`
	UserID string `form:"user_id" binding:"omitempty,max=255"`
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
}
