package shows

import (
	"math"
	"time"

	"github.com/piyushmishra0/Modex-System/internal/inventory"
)

type ShowResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	StartTime      time.Time `json:"start_time"`
	TotalSeats     int       `json:"total_seats"`
	AvailableSeats int       `json:"available_seats"`
	CreatedAt      time.Time `json:"created_at"`
}

type PaginatedShows struct {
	Shows      []ShowResponse `json:"shows"`
	TotalCount int64          `json:"total_count"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
}

// SeatView is one seat as a reader should see it right now
type SeatView struct {
	ID          string     `json:"id"`
	SeatNumber  int        `json:"seat_number"`
	Status      string     `json:"status"`
	LockedUntil *time.Time `json:"locked_until,omitempty"`
}

type SeatMap struct {
	ShowID         string     `json:"show_id"`
	TotalSeats     int        `json:"total_seats"`
	AvailableSeats int        `json:"available_seats"`
	Seats          []SeatView `json:"seats"`
}

// ConsistencyReport compares the denormalized counter with the seat rows
type ConsistencyReport struct {
	ShowID          string `json:"show_id"`
	TotalSeats      int    `json:"total_seats"`
	SeatRows        int    `json:"seat_rows"`
	AvailableSeats  int    `json:"available_seats"`
	AvailableRows   int    `json:"available_rows"`
	PendingRows     int    `json:"pending_rows"`
	BookedRows      int    `json:"booked_rows"`
	ExpectedCounter int    `json:"expected_counter"`
	Consistent      bool   `json:"consistent"`
}

func ToShowResponse(show *inventory.Show) ShowResponse {
	return ShowResponse{
		ID:             show.ID.String(),
		Name:           show.Name,
		StartTime:      show.StartTime,
		TotalSeats:     show.TotalSeats,
		AvailableSeats: show.AvailableSeats,
		CreatedAt:      show.CreatedAt,
	}
}

// ToSeatView reports a lapsed lease as AVAILABLE and hides its stale deadline
func ToSeatView(seat *inventory.Seat, now time.Time) SeatView {
	view := SeatView{
		ID:         seat.ID.String(),
		SeatNumber: seat.SeatNumber,
		Status:     seat.LogicalStatus(now).String(),
	}
	if seat.IsHeld(now) {
		view.LockedUntil = seat.LockedUntil
	}
	return view
}

func calculateTotalPages(totalCount int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(totalCount) / float64(limit)))
}
