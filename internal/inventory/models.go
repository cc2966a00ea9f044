package inventory

import (
	"time"

	"github.com/google/uuid"
)

// Show is a time-bound performance with a fixed seat inventory
type Show struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name           string    `gorm:"type:varchar(255);not null" json:"name"`
	StartTime      time.Time `gorm:"not null;index" json:"start_time"`
	TotalSeats     int       `gorm:"not null;check:total_seats > 0" json:"total_seats"`
	AvailableSeats int       `gorm:"not null;check:available_seats >= 0" json:"available_seats"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Relationships
	Seats []Seat `json:"seats,omitempty" gorm:"foreignKey:ShowID;constraint:OnDelete:CASCADE;"`
}

// Seat is one numbered place within a show
type Seat struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ShowID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_show_seat_number" json:"show_id"`
	SeatNumber  int        `gorm:"not null;uniqueIndex:idx_show_seat_number" json:"seat_number"`
	Status      SeatStatus `gorm:"type:varchar(20);not null;check:status IN ('AVAILABLE', 'PENDING', 'BOOKED');default:'AVAILABLE'" json:"status"`
	LockedUntil *time.Time `json:"locked_until,omitempty"`
	HoldID      *uuid.UUID `gorm:"type:uuid" json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Booking is a claim on an ordered set of seats within one show
type Booking struct {
	ID        uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ShowID    uuid.UUID     `gorm:"type:uuid;index;not null" json:"show_id"`
	UserID    *string       `gorm:"type:varchar(255);index" json:"user_id,omitempty"`
	SeatIDs   []uuid.UUID   `gorm:"type:jsonb;serializer:json;not null" json:"seat_ids"`
	Status    BookingStatus `gorm:"type:varchar(20);not null;check:status IN ('PENDING', 'CONFIRMED', 'FAILED');default:'PENDING'" json:"status"`
	HoldID    *uuid.UUID    `gorm:"type:uuid" json:"hold_id,omitempty"`
	ExpiresAt *time.Time    `gorm:"index" json:"expires_at,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Lease is the claim carried by a PENDING seat
type Lease struct {
	HoldID uuid.UUID
	Until  time.Time
}

// TableName sets the table name for Show
func (Show) TableName() string {
	return "shows"
}

// TableName sets the table name for Seat
func (Seat) TableName() string {
	return "seats"
}

// TableName sets the table name for Booking
func (Booking) TableName() string {
	return "bookings"
}

// IsAcquirable reports whether the seat is free for a new lock at instant now.
// A PENDING seat whose lease has lapsed counts as free even before the reaper resets it.
func (s *Seat) IsAcquirable(now time.Time) bool {
	switch s.Status {
	case SeatStatusAvailable:
		return true
	case SeatStatusPending:
		return s.LockedUntil == nil || !s.LockedUntil.After(now)
	}
	return false
}

// IsHeld reports whether the seat carries a live lease at instant now
func (s *Seat) IsHeld(now time.Time) bool {
	return s.Status == SeatStatusPending && s.LockedUntil != nil && s.LockedUntil.After(now)
}

// IsHeldBy reports whether the seat carries a live lease owned by holdID
func (s *Seat) IsHeldBy(holdID uuid.UUID, now time.Time) bool {
	return s.IsHeld(now) && s.HoldID != nil && *s.HoldID == holdID
}

// IsOwnedBy reports whether the seat is PENDING under holdID, lapsed or not
func (s *Seat) IsOwnedBy(holdID uuid.UUID) bool {
	return s.Status == SeatStatusPending && s.HoldID != nil && *s.HoldID == holdID
}

// LogicalStatus is the status a reader should see at instant now
func (s *Seat) LogicalStatus(now time.Time) SeatStatus {
	if s.Status == SeatStatusPending && !s.IsHeld(now) {
		return SeatStatusAvailable
	}
	return s.Status
}

// IsTerminal reports whether the booking has left PENDING
func (b *Booking) IsTerminal() bool {
	return b.Status.IsTerminal()
}

// IsOverdue reports whether a pending booking passed its deadline at instant now
func (b *Booking) IsOverdue(now time.Time) bool {
	return b.Status == BookingStatusPending && b.ExpiresAt != nil && !b.ExpiresAt.After(now)
}

// ShowListQuery filters show listings
type ShowListQuery struct {
	Page         int
	Limit        int
	UpcomingOnly bool
	Now          time.Time
}

// BookingListQuery filters booking listings
type BookingListQuery struct {
	Page   int
	Limit  int
	ShowID *uuid.UUID
	Status BookingStatus
	UserID string
}

func normalizePage(page, limit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
