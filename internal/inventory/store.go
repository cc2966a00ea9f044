package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the durable owner of shows, seats and bookings
type Store interface {
	// InTx runs fn inside one atomic unit of work. Any error returned by fn
	// discards every change made through the Tx.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	// Show catalogue
	CreateShow(ctx context.Context, show *Show, seats []Seat) error
	DeleteShow(ctx context.Context, id uuid.UUID) error
	GetShow(ctx context.Context, id uuid.UUID) (*Show, error)
	ListShows(ctx context.Context, query ShowListQuery) ([]Show, int64, error)
	GetSeats(ctx context.Context, showID uuid.UUID) ([]Seat, error)
	CountSeatsByStatus(ctx context.Context, showID uuid.UUID) (map[SeatStatus]int, error)

	// Bookings
	GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error)
	ListBookings(ctx context.Context, query BookingListQuery) ([]Booking, int64, error)

	// Reaper predicates
	FindExpiredHolds(ctx context.Context, now time.Time, limit int) ([]Seat, error)
	FindOverdueBookings(ctx context.Context, now time.Time, limit int) ([]Booking, error)
}

// Tx is the set of mutations allowed inside a unit of work
type Tx interface {
	// LockSeats takes exclusive row locks on the given seats of a show without
	// waiting. If any row is locked elsewhere it returns ErrContention.
	// Ids that do not belong to the show are simply absent from the result.
	LockSeats(ctx context.Context, showID uuid.UUID, seatIDs []uuid.UUID) ([]Seat, error)
	// UpdateSeats sets the status of locked seats. lease must be set for
	// PENDING and nil otherwise; it is cleared on every other status.
	UpdateSeats(ctx context.Context, seatIDs []uuid.UUID, status SeatStatus, lease *Lease) error
	AdjustAvailableSeats(ctx context.Context, showID uuid.UUID, delta int) error

	InsertBooking(ctx context.Context, booking *Booking) error
	// LockBooking locks one booking row without waiting
	LockBooking(ctx context.Context, id uuid.UUID) (*Booking, error)
	UpdateBookingStatus(ctx context.Context, id uuid.UUID, status BookingStatus) error
}
