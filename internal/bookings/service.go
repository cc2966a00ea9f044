package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/piyushmishra0/Modex-System/internal/inventory"
	"github.com/piyushmishra0/Modex-System/internal/seats"
	"github.com/piyushmishra0/Modex-System/internal/shared/constants"
	"github.com/piyushmishra0/Modex-System/pkg/cache"
	"github.com/piyushmishra0/Modex-System/pkg/logger"
)

// Service is the reservation engine. It holds no state beyond one unit of
// work; all durable state lives in the inventory store.
type Service interface {
	// Atomic mode
	CreateBooking(ctx context.Context, input CreateBookingInput) (*inventory.Booking, error)

	// Deferred mode
	Hold(ctx context.Context, input HoldInput) (*seats.HoldResult, error)
	Release(ctx context.Context, input ReleaseInput) (int, error)
	CreatePendingBooking(ctx context.Context, input CreatePendingInput) (*inventory.Booking, error)
	Reserve(ctx context.Context, input ReserveInput) (*inventory.Booking, error)
	Confirm(ctx context.Context, bookingID uuid.UUID) (*inventory.Booking, error)
	Fail(ctx context.Context, bookingID uuid.UUID) (*inventory.Booking, error)

	// Reads
	GetBooking(ctx context.Context, bookingID uuid.UUID) (*inventory.Booking, error)
	ListBookings(ctx context.Context, query inventory.BookingListQuery) ([]inventory.Booking, int64, error)
}

// Config bounds the engine's inputs
type Config struct {
	DefaultHoldTTL     time.Duration
	MaxHoldTTL         time.Duration
	PendingBookingTTL  time.Duration
	MaxSeatsPerBooking int
	BookingCacheTTL    time.Duration
}

// DefaultConfig returns the default engine configuration
func DefaultConfig() *Config {
	return &Config{
		DefaultHoldTTL:     5 * time.Minute,
		MaxHoldTTL:         30 * time.Minute,
		PendingBookingTTL:  5 * time.Minute,
		MaxSeatsPerBooking: 20,
		BookingCacheTTL:    constants.TTL_BOOKING_DETAIL,
	}
}

type CreateBookingInput struct {
	ShowID  uuid.UUID   `validate:"required"`
	SeatIDs []uuid.UUID `validate:"required,min=1"`
	UserID  *string     `validate:"omitempty,max=255"`
}

type HoldInput struct {
	ShowID  uuid.UUID     `validate:"required"`
	SeatIDs []uuid.UUID   `validate:"required,min=1"`
	TTL     time.Duration `validate:"gte=0"`
}

type ReleaseInput struct {
	ShowID  uuid.UUID   `validate:"required"`
	SeatIDs []uuid.UUID `validate:"required,min=1"`
	HoldID  uuid.UUID   `validate:"required"`
}

// CreatePendingInput names the hold the booking will confirm. The hold is
// not checked here; Confirm is where it must still be live.
type CreatePendingInput struct {
	ShowID  uuid.UUID     `validate:"required"`
	SeatIDs []uuid.UUID   `validate:"required,min=1"`
	HoldID  uuid.UUID     `validate:"required"`
	UserID  *string       `validate:"omitempty,max=255"`
	TTL     time.Duration `validate:"gte=0"`
}

type ReserveInput struct {
	ShowID  uuid.UUID     `validate:"required"`
	SeatIDs []uuid.UUID   `validate:"required,min=1"`
	UserID  *string       `validate:"omitempty,max=255"`
	TTL     time.Duration `validate:"gte=0"`
}

type service struct {
	store     inventory.Store
	locks     *seats.LockManager
	publisher Publisher
	cache     cache.Service
	config    *Config
	validator *validator.Validate
	log       *logger.Logger
}

// NewService wires the engine. publisher and bookingCache may be nil.
func NewService(store inventory.Store, locks *seats.LockManager, publisher Publisher, bookingCache cache.Service, cfg *Config) Service {
	if publisher == nil {
		publisher = NewNoopPublisher()
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &service{
		store:     store,
		locks:     locks,
		publisher: publisher,
		cache:     bookingCache,
		config:    cfg,
		validator: validator.New(),
		log:       logger.GetDefault(),
	}
}

// ATOMIC MODE

// CreateBooking books the seats and records a CONFIRMED booking in one unit of work
func (s *service) CreateBooking(ctx context.Context, input CreateBookingInput) (*inventory.Booking, error) {
	if err := s.validateSeats(input, input.SeatIDs); err != nil {
		return nil, err
	}
	if err := s.ensureShow(ctx, input.ShowID); err != nil {
		return nil, err
	}

	now := s.locks.Now()
	booking := &inventory.Booking{
		ID:        uuid.New(),
		ShowID:    input.ShowID,
		UserID:    input.UserID,
		SeatIDs:   append([]uuid.UUID(nil), input.SeatIDs...),
		Status:    inventory.BookingStatusConfirmed,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.store.InTx(ctx, func(tx inventory.Tx) error {
		if _, err := s.locks.Acquire(ctx, tx, input.ShowID, input.SeatIDs, seats.Book()); err != nil {
			return err
		}
		return tx.InsertBooking(ctx, booking)
	})
	if err != nil {
		s.logRejected(ctx, "create_booking", input.ShowID, err)
		return nil, err
	}

	s.log.LogBookingConfirmed(ctx, booking.ID.String(), booking.ShowID.String(), userIDString(booking.UserID), len(booking.SeatIDs))
	s.afterCommit(ctx, EventBookingConfirmed, booking)
	return booking, nil
}

// DEFERRED MODE

// Hold leases the seats as PENDING without creating a booking
func (s *service) Hold(ctx context.Context, input HoldInput) (*seats.HoldResult, error) {
	if err := s.validateSeats(input, input.SeatIDs); err != nil {
		return nil, err
	}
	ttl, err := s.holdTTL(input.TTL)
	if err != nil {
		return nil, err
	}
	if err := s.ensureShow(ctx, input.ShowID); err != nil {
		return nil, err
	}

	result, err := s.locks.Hold(ctx, input.ShowID, input.SeatIDs, ttl)
	if err != nil {
		s.logRejected(ctx, "hold", input.ShowID, err)
		return nil, err
	}

	s.log.LogSeatsHeld(ctx, input.ShowID.String(), len(input.SeatIDs), result.LockedUntil)
	return result, nil
}

// Release frees seats that are still PENDING; other seats are left alone
func (s *service) Release(ctx context.Context, input ReleaseInput) (int, error) {
	if err := s.validateSeats(input, input.SeatIDs); err != nil {
		return 0, err
	}
	if err := s.ensureShow(ctx, input.ShowID); err != nil {
		return 0, err
	}

	released, err := s.locks.Release(ctx, input.ShowID, input.SeatIDs, input.HoldID)
	if err != nil {
		s.logRejected(ctx, "release", input.ShowID, err)
		return 0, err
	}
	return released, nil
}

// CreatePendingBooking records a PENDING booking with a deadline. It does not
// lock or check the seat holds; the caller pairs it with Hold.
func (s *service) CreatePendingBooking(ctx context.Context, input CreatePendingInput) (*inventory.Booking, error) {
	if err := s.validateSeats(input, input.SeatIDs); err != nil {
		return nil, err
	}
	ttl, err := s.pendingTTL(input.TTL)
	if err != nil {
		return nil, err
	}
	if err := s.ensureShow(ctx, input.ShowID); err != nil {
		return nil, err
	}
	if err := s.ensureSeatsBelong(ctx, input.ShowID, input.SeatIDs); err != nil {
		return nil, err
	}

	now := s.locks.Now()
	expiresAt := now.Add(ttl)
	holdID := input.HoldID
	booking := &inventory.Booking{
		ID:        uuid.New(),
		ShowID:    input.ShowID,
		UserID:    input.UserID,
		SeatIDs:   append([]uuid.UUID(nil), input.SeatIDs...),
		Status:    inventory.BookingStatusPending,
		HoldID:    &holdID,
		ExpiresAt: &expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.store.InTx(ctx, func(tx inventory.Tx) error {
		return tx.InsertBooking(ctx, booking)
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, EventBookingPending, booking)
	return booking, nil
}

// Reserve holds the seats and records the PENDING booking in one unit of work.
// The lease and the booking deadline share one instant.
func (s *service) Reserve(ctx context.Context, input ReserveInput) (*inventory.Booking, error) {
	if err := s.validateSeats(input, input.SeatIDs); err != nil {
		return nil, err
	}
	ttl, err := s.holdTTL(input.TTL)
	if err != nil {
		return nil, err
	}
	if err := s.ensureShow(ctx, input.ShowID); err != nil {
		return nil, err
	}

	now := s.locks.Now()
	until := now.Add(ttl)
	holdID := uuid.New()
	booking := &inventory.Booking{
		ID:        uuid.New(),
		ShowID:    input.ShowID,
		UserID:    input.UserID,
		SeatIDs:   append([]uuid.UUID(nil), input.SeatIDs...),
		Status:    inventory.BookingStatusPending,
		HoldID:    &holdID,
		ExpiresAt: &until,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.store.InTx(ctx, func(tx inventory.Tx) error {
		if _, err := s.locks.Acquire(ctx, tx, input.ShowID, input.SeatIDs, seats.HoldUntil(until, holdID)); err != nil {
			return err
		}
		return tx.InsertBooking(ctx, booking)
	})
	if err != nil {
		s.logRejected(ctx, "reserve", input.ShowID, err)
		return nil, err
	}

	s.log.LogSeatsHeld(ctx, input.ShowID.String(), len(input.SeatIDs), until)
	s.afterCommit(ctx, EventBookingPending, booking)
	return booking, nil
}

// Confirm books the held seats of a PENDING booking. Confirming an already
// confirmed booking returns it unchanged.
func (s *service) Confirm(ctx context.Context, bookingID uuid.UUID) (*inventory.Booking, error) {
	var (
		booking   *inventory.Booking
		unchanged bool
	)

	err := s.store.InTx(ctx, func(tx inventory.Tx) error {
		b, err := tx.LockBooking(ctx, bookingID)
		if err != nil {
			return fmt.Errorf("booking %s: %w", bookingID, err)
		}

		switch b.Status {
		case inventory.BookingStatusConfirmed:
			booking, unchanged = b, true
			return nil
		case inventory.BookingStatusFailed:
			return fmt.Errorf("%w: booking %s is %s", inventory.ErrBookingFinalized, b.ID, b.Status)
		}

		now := s.locks.Now()
		if b.IsOverdue(now) {
			return fmt.Errorf("%w: booking deadline passed at %s", inventory.ErrHoldExpired, b.ExpiresAt.Format(time.RFC3339))
		}

		if b.HoldID == nil {
			return fmt.Errorf("%w: booking %s has no seat hold", inventory.ErrHoldExpired, b.ID)
		}
		if err := s.locks.CommitHeld(ctx, tx, b.ShowID, b.SeatIDs, *b.HoldID); err != nil {
			return err
		}
		if err := tx.UpdateBookingStatus(ctx, b.ID, inventory.BookingStatusConfirmed); err != nil {
			return fmt.Errorf("failed to confirm booking: %w", err)
		}

		b.Status = inventory.BookingStatusConfirmed
		b.UpdatedAt = now
		booking = b
		return nil
	})
	if err != nil {
		s.log.WarnContext(ctx, "Booking confirmation rejected",
			"booking_id", bookingID.String(),
			"code", inventory.ErrorCode(err),
			"error", err.Error(),
		)
		return nil, err
	}

	if !unchanged {
		s.log.LogBookingConfirmed(ctx, booking.ID.String(), booking.ShowID.String(), userIDString(booking.UserID), len(booking.SeatIDs))
		s.afterCommit(ctx, EventBookingConfirmed, booking)
	}
	return booking, nil
}

// Fail releases the booking's still-PENDING seats and marks it FAILED.
// Failing an already failed booking returns it unchanged.
func (s *service) Fail(ctx context.Context, bookingID uuid.UUID) (*inventory.Booking, error) {
	var (
		booking   *inventory.Booking
		unchanged bool
		released  int
	)

	err := s.store.InTx(ctx, func(tx inventory.Tx) error {
		b, err := tx.LockBooking(ctx, bookingID)
		if err != nil {
			return fmt.Errorf("booking %s: %w", bookingID, err)
		}

		switch b.Status {
		case inventory.BookingStatusFailed:
			booking, unchanged = b, true
			return nil
		case inventory.BookingStatusConfirmed:
			return fmt.Errorf("%w: booking %s is %s", inventory.ErrBookingFinalized, b.ID, b.Status)
		}

		// Seats re-held by another attempt after our lease lapsed stay theirs
		var n int
		if b.HoldID != nil {
			n, err = s.locks.ReleaseTx(ctx, tx, b.ShowID, b.SeatIDs, *b.HoldID)
			if err != nil {
				return err
			}
		}
		if err := tx.UpdateBookingStatus(ctx, b.ID, inventory.BookingStatusFailed); err != nil {
			return fmt.Errorf("failed to fail booking: %w", err)
		}

		b.Status = inventory.BookingStatusFailed
		b.UpdatedAt = s.locks.Now()
		booking = b
		released = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !unchanged {
		s.log.LogBookingFailed(ctx, booking.ID.String(), booking.ShowID.String(), released)
		s.afterCommit(ctx, EventBookingFailed, booking)
	}
	return booking, nil
}

// READS

// GetBooking serves terminal bookings from cache; they never change again
func (s *service) GetBooking(ctx context.Context, bookingID uuid.UUID) (*inventory.Booking, error) {
	key := constants.BuildBookingDetailKey(bookingID.String())

	if s.cache != nil {
		var cached inventory.Booking
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.WarnContext(ctx, "Booking cache read failed", "booking_id", bookingID.String(), "error", err.Error())
		}
	}

	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("booking %s: %w", bookingID, err)
	}

	if booking.IsTerminal() {
		s.cacheBooking(ctx, booking)
	}
	return booking, nil
}

func (s *service) ListBookings(ctx context.Context, query inventory.BookingListQuery) ([]inventory.Booking, int64, error) {
	if query.Status != "" && !query.Status.IsValid() {
		return nil, 0, fmt.Errorf("%w: unknown booking status %q", inventory.ErrInvalidInput, query.Status)
	}
	return s.store.ListBookings(ctx, query)
}

// HELPERS

func (s *service) validateSeats(input interface{}, seatIDs []uuid.UUID) error {
	if err := s.validator.Struct(input); err != nil {
		if len(seatIDs) == 0 {
			return fmt.Errorf("%w: seat set is empty", inventory.ErrInvalidSeats)
		}
		return fmt.Errorf("%w: %s", inventory.ErrInvalidInput, err.Error())
	}
	if err := seats.ValidateSeatIDs(seatIDs); err != nil {
		return err
	}
	if s.config.MaxSeatsPerBooking > 0 && len(seatIDs) > s.config.MaxSeatsPerBooking {
		return fmt.Errorf("%w: at most %d seats per request", inventory.ErrInvalidInput, s.config.MaxSeatsPerBooking)
	}
	return nil
}

func (s *service) holdTTL(ttl time.Duration) (time.Duration, error) {
	if ttl == 0 {
		ttl = s.config.DefaultHoldTTL
	}
	if ttl <= 0 {
		return 0, fmt.Errorf("%w: hold ttl must be positive", inventory.ErrInvalidInput)
	}
	if s.config.MaxHoldTTL > 0 && ttl > s.config.MaxHoldTTL {
		return 0, fmt.Errorf("%w: hold ttl exceeds %s", inventory.ErrInvalidInput, s.config.MaxHoldTTL)
	}
	return ttl, nil
}

func (s *service) pendingTTL(ttl time.Duration) (time.Duration, error) {
	if ttl == 0 {
		ttl = s.config.PendingBookingTTL
	}
	if ttl <= 0 {
		return 0, fmt.Errorf("%w: booking ttl must be positive", inventory.ErrInvalidInput)
	}
	if s.config.MaxHoldTTL > 0 && ttl > s.config.MaxHoldTTL {
		return 0, fmt.Errorf("%w: booking ttl exceeds %s", inventory.ErrInvalidInput, s.config.MaxHoldTTL)
	}
	return ttl, nil
}

func (s *service) ensureShow(ctx context.Context, showID uuid.UUID) error {
	if _, err := s.store.GetShow(ctx, showID); err != nil {
		return fmt.Errorf("show %s: %w", showID, err)
	}
	return nil
}

func (s *service) ensureSeatsBelong(ctx context.Context, showID uuid.UUID, seatIDs []uuid.UUID) error {
	showSeats, err := s.store.GetSeats(ctx, showID)
	if err != nil {
		return fmt.Errorf("failed to load seats: %w", err)
	}
	owned := make(map[uuid.UUID]struct{}, len(showSeats))
	for _, seat := range showSeats {
		owned[seat.ID] = struct{}{}
	}
	for _, id := range seatIDs {
		if _, ok := owned[id]; !ok {
			return fmt.Errorf("%w: seat %s", inventory.ErrInvalidSeats, id)
		}
	}
	return nil
}

// afterCommit runs side effects that must not undo a committed transition
func (s *service) afterCommit(ctx context.Context, eventType EventType, booking *inventory.Booking) {
	if booking.IsTerminal() {
		s.cacheBooking(ctx, booking)
	}

	event := NewBookingEvent(eventType, booking, s.locks.Now())
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.ErrorContext(ctx, "Failed to publish booking event",
			"type", string(eventType),
			"booking_id", booking.ID.String(),
			"error", err.Error(),
		)
	}
}

func (s *service) cacheBooking(ctx context.Context, booking *inventory.Booking) {
	if s.cache == nil {
		return
	}
	key := constants.BuildBookingDetailKey(booking.ID.String())
	if err := s.cache.Set(ctx, key, booking, s.config.BookingCacheTTL); err != nil {
		s.log.WarnContext(ctx, "Booking cache write failed", "booking_id", booking.ID.String(), "error", err.Error())
	}
}

func (s *service) logRejected(ctx context.Context, operation string, showID uuid.UUID, err error) {
	code := inventory.ErrorCode(err)
	if code == inventory.CodeSeatsLocked {
		s.log.LogContention(ctx, operation, showID.String())
		return
	}
	s.log.InfoContext(ctx, "Seat request rejected",
		"operation", operation,
		"show_id", showID.String(),
		"code", code,
		"error", err.Error(),
	)
}

func userIDString(userID *string) string {
	if userID == nil {
		return ""
	}
	return *userID
}
