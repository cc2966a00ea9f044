package bookings

import (
	"math"
	"time"

	"github.com/piyushmishra0/Modex-System/internal/inventory"
	"github.com/piyushmishra0/Modex-System/internal/seats"
)

type BookingResponse struct {
	ID        string     `json:"id"`
	ShowID    string     `json:"show_id"`
	UserID    *string    `json:"user_id,omitempty"`
	SeatIDs   []string   `json:"seat_ids"`
	Status    string     `json:"status"`
	HoldID    *string    `json:"hold_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type HoldResponse struct {
	HoldID      string    `json:"hold_id"`
	ShowID      string    `json:"show_id"`
	SeatIDs     []string  `json:"seat_ids"`
	LockedUntil time.Time `json:"locked_until"`
	TTLSeconds  int       `json:"ttl_seconds"`
}

type ReleaseResponse struct {
	Released int `json:"released"`
}

type BookingListResponse struct {
	Bookings   []BookingResponse `json:"bookings"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}

// ToBookingResponse converts a booking for the wire
func ToBookingResponse(b *inventory.Booking) BookingResponse {
	seatIDs := make([]string, len(b.SeatIDs))
	for i, id := range b.SeatIDs {
		seatIDs[i] = id.String()
	}
	resp := BookingResponse{
		ID:        b.ID.String(),
		ShowID:    b.ShowID.String(),
		UserID:    b.UserID,
		SeatIDs:   seatIDs,
		Status:    b.Status.String(),
		CreatedAt: b.CreatedAt,
		ExpiresAt: b.ExpiresAt,
	}
	// The hold id is the handle for releasing seats; it means nothing once final
	if b.HoldID != nil && !b.IsTerminal() {
		holdID := b.HoldID.String()
		resp.HoldID = &holdID
	}
	return resp
}

// ToHoldResponse converts a granted lease for the wire
func ToHoldResponse(h *seats.HoldResult, now time.Time) HoldResponse {
	seatIDs := make([]string, len(h.SeatIDs))
	for i, id := range h.SeatIDs {
		seatIDs[i] = id.String()
	}
	return HoldResponse{
		HoldID:      h.HoldID.String(),
		ShowID:      h.ShowID.String(),
		SeatIDs:     seatIDs,
		LockedUntil: h.LockedUntil,
		TTLSeconds:  int(math.Ceil(h.LockedUntil.Sub(now).Seconds())),
	}
}

// CalculateTotalPages returns the number of pages for totalCount items
func CalculateTotalPages(totalCount int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(totalCount) / float64(limit)))
}
