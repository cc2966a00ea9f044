package bookings

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/piyushmishra0/Modex-System/internal/inventory"
)

// EventType names a booking lifecycle transition
type EventType string

const (
	EventBookingConfirmed EventType = "booking.confirmed"
	EventBookingPending   EventType = "booking.pending"
	EventBookingFailed    EventType = "booking.failed"
)

// BookingEvent is published after a booking transition commits
type BookingEvent struct {
	ID         string                  `json:"id"`
	Type       EventType               `json:"type"`
	BookingID  uuid.UUID               `json:"booking_id"`
	ShowID     uuid.UUID               `json:"show_id"`
	UserID     *string                 `json:"user_id,omitempty"`
	SeatIDs    []uuid.UUID             `json:"seat_ids"`
	Status     inventory.BookingStatus `json:"status"`
	ExpiresAt  *time.Time              `json:"expires_at,omitempty"`
	OccurredAt time.Time               `json:"occurred_at"`
}

// NewBookingEvent snapshots booking for publishing
func NewBookingEvent(eventType EventType, booking *inventory.Booking, at time.Time) *BookingEvent {
	return &BookingEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		BookingID:  booking.ID,
		ShowID:     booking.ShowID,
		UserID:     booking.UserID,
		SeatIDs:    append([]uuid.UUID(nil), booking.SeatIDs...),
		Status:     booking.Status,
		ExpiresAt:  booking.ExpiresAt,
		OccurredAt: at.UTC(),
	}
}

// ToJSON serializes the event
func (e *BookingEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// PartitionKey keeps every event of one show on the same partition
func (e *BookingEvent) PartitionKey() string {
	return e.ShowID.String()
}
