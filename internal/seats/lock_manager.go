package seats

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/piyushmishra0/Modex-System/internal/inventory"
)

// Target is the status a successful Acquire moves seats into
type Target struct {
	Status inventory.SeatStatus
	Lease  *inventory.Lease
}

// Book targets BOOKED directly, skipping the PENDING step
func Book() Target {
	return Target{Status: inventory.SeatStatusBooked}
}

// HoldUntil targets PENDING with a lease owned by holdID ending at until
func HoldUntil(until time.Time, holdID uuid.UUID) Target {
	return Target{
		Status: inventory.SeatStatusPending,
		Lease:  &inventory.Lease{HoldID: holdID, Until: until.UTC()},
	}
}

// HoldResult describes a lease granted by Hold. HoldID is the only handle
// that can later confirm or release the seats.
type HoldResult struct {
	HoldID      uuid.UUID   `json:"hold_id"`
	ShowID      uuid.UUID   `json:"show_id"`
	SeatIDs     []uuid.UUID `json:"seat_ids"`
	LockedUntil time.Time   `json:"locked_until"`
}

// LockManager places exclusive, fail-fast holds on seats of one show.
// Every change to a show's BOOKED count goes through here so the
// available-seat counter moves in the same unit of work as the seats.
type LockManager struct {
	store inventory.Store
	now   func() time.Time
}

type Option func(*LockManager)

// WithClock overrides the time source used to judge lease expiry
func WithClock(now func() time.Time) Option {
	return func(m *LockManager) {
		m.now = now
	}
}

func NewLockManager(store inventory.Store, opts ...Option) *LockManager {
	m := &LockManager{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Now returns the manager's current instant in UTC
func (m *LockManager) Now() time.Time {
	return m.now().UTC()
}

// ValidateSeatIDs rejects empty sets, nil ids and duplicates
func ValidateSeatIDs(seatIDs []uuid.UUID) error {
	if len(seatIDs) == 0 {
		return fmt.Errorf("%w: seat set is empty", inventory.ErrInvalidSeats)
	}
	seen := make(map[uuid.UUID]struct{}, len(seatIDs))
	for _, id := range seatIDs {
		if id == uuid.Nil {
			return fmt.Errorf("%w: nil seat id", inventory.ErrInvalidSeats)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: seat %s requested twice", inventory.ErrInvalidSeats, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// lockAll locks the requested rows and fails when any id is foreign to the show
func lockAll(ctx context.Context, tx inventory.Tx, showID uuid.UUID, seatIDs []uuid.UUID) ([]inventory.Seat, error) {
	locked, err := tx.LockSeats(ctx, showID, seatIDs)
	if err != nil {
		return nil, err
	}
	if len(locked) != len(seatIDs) {
		return nil, fmt.Errorf("%w: %d of %d seats found", inventory.ErrInvalidSeats, len(locked), len(seatIDs))
	}
	return locked, nil
}

// Acquire is the single lock primitive shared by both reservation modes.
// It must run inside tx; every failure leaves tx to be rolled back.
func (m *LockManager) Acquire(ctx context.Context, tx inventory.Tx, showID uuid.UUID, seatIDs []uuid.UUID, target Target) ([]inventory.Seat, error) {
	if err := ValidateSeatIDs(seatIDs); err != nil {
		return nil, err
	}
	if target.Status == inventory.SeatStatusPending && (target.Lease == nil || target.Lease.HoldID == uuid.Nil) {
		return nil, fmt.Errorf("%w: hold target needs an owner and an expiry", inventory.ErrInvalidInput)
	}
	if target.Status != inventory.SeatStatusPending && target.Status != inventory.SeatStatusBooked {
		return nil, fmt.Errorf("%w: cannot acquire seats into %s", inventory.ErrInvalidInput, target.Status)
	}

	locked, err := lockAll(ctx, tx, showID, seatIDs)
	if err != nil {
		return nil, err
	}

	now := m.Now()
	for _, seat := range locked {
		if !seat.IsAcquirable(now) {
			return nil, fmt.Errorf("%w: seat %d is %s", inventory.ErrSeatsUnavailable, seat.SeatNumber, seat.Status)
		}
	}

	if err := tx.UpdateSeats(ctx, seatIDs, target.Status, target.Lease); err != nil {
		return nil, fmt.Errorf("failed to update seats: %w", err)
	}

	if target.Status == inventory.SeatStatusBooked {
		if err := tx.AdjustAvailableSeats(ctx, showID, -len(seatIDs)); err != nil {
			return nil, err
		}
	}

	for i := range locked {
		locked[i].Status = target.Status
		locked[i].LockedUntil, locked[i].HoldID = nil, nil
		if target.Lease != nil {
			until, holdID := target.Lease.Until, target.Lease.HoldID
			locked[i].LockedUntil, locked[i].HoldID = &until, &holdID
		}
	}
	return locked, nil
}

// Hold leases the seats as PENDING for ttl in its own unit of work
func (m *LockManager) Hold(ctx context.Context, showID uuid.UUID, seatIDs []uuid.UUID, ttl time.Duration) (*HoldResult, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("%w: hold ttl must be positive", inventory.ErrInvalidInput)
	}

	holdID := uuid.New()
	until := m.Now().Add(ttl)
	err := m.store.InTx(ctx, func(tx inventory.Tx) error {
		_, err := m.Acquire(ctx, tx, showID, seatIDs, HoldUntil(until, holdID))
		return err
	})
	if err != nil {
		return nil, err
	}

	return &HoldResult{
		HoldID:      holdID,
		ShowID:      showID,
		SeatIDs:     seatIDs,
		LockedUntil: until,
	}, nil
}

// Release returns seats still PENDING under holdID to AVAILABLE in its own unit of work
func (m *LockManager) Release(ctx context.Context, showID uuid.UUID, seatIDs []uuid.UUID, holdID uuid.UUID) (int, error) {
	var released int
	err := m.store.InTx(ctx, func(tx inventory.Tx) error {
		n, err := m.ReleaseTx(ctx, tx, showID, seatIDs, holdID)
		released = n
		return err
	})
	return released, err
}

// ReleaseTx only resets seats PENDING under holdID. AVAILABLE and BOOKED seats
// and seats re-held by another owner are left alone, so releasing twice or
// releasing a confirmed seat is a no-op.
func (m *LockManager) ReleaseTx(ctx context.Context, tx inventory.Tx, showID uuid.UUID, seatIDs []uuid.UUID, holdID uuid.UUID) (int, error) {
	if err := ValidateSeatIDs(seatIDs); err != nil {
		return 0, err
	}

	locked, err := lockAll(ctx, tx, showID, seatIDs)
	if err != nil {
		return 0, err
	}

	pending := make([]uuid.UUID, 0, len(locked))
	for _, seat := range locked {
		if seat.IsOwnedBy(holdID) {
			pending = append(pending, seat.ID)
		}
	}
	if len(pending) == 0 {
		return 0, nil
	}

	if err := tx.UpdateSeats(ctx, pending, inventory.SeatStatusAvailable, nil); err != nil {
		return 0, fmt.Errorf("failed to release seats: %w", err)
	}
	return len(pending), nil
}

// CommitHeld turns live leases owned by holdID into BOOKED seats inside tx
func (m *LockManager) CommitHeld(ctx context.Context, tx inventory.Tx, showID uuid.UUID, seatIDs []uuid.UUID, holdID uuid.UUID) error {
	if err := ValidateSeatIDs(seatIDs); err != nil {
		return err
	}

	locked, err := lockAll(ctx, tx, showID, seatIDs)
	if err != nil {
		return err
	}

	now := m.Now()
	for _, seat := range locked {
		if !seat.IsHeldBy(holdID, now) {
			return fmt.Errorf("%w: seat %d is no longer held", inventory.ErrHoldExpired, seat.SeatNumber)
		}
	}

	if err := tx.UpdateSeats(ctx, seatIDs, inventory.SeatStatusBooked, nil); err != nil {
		return fmt.Errorf("failed to book seats: %w", err)
	}
	return tx.AdjustAvailableSeats(ctx, showID, -len(seatIDs))
}

// ReclaimExpired resets one seat whose lease lapsed in its own unit of work,
// so a busy row never holds back the rest of a sweep. It reports false when
// the seat was re-held or booked since it was read.
func (m *LockManager) ReclaimExpired(ctx context.Context, showID, seatID uuid.UUID) (bool, error) {
	var reclaimed bool
	err := m.store.InTx(ctx, func(tx inventory.Tx) error {
		locked, err := tx.LockSeats(ctx, showID, []uuid.UUID{seatID})
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			return nil
		}

		seat := locked[0]
		if seat.Status != inventory.SeatStatusPending || seat.IsHeld(m.Now()) {
			return nil
		}

		if err := tx.UpdateSeats(ctx, []uuid.UUID{seat.ID}, inventory.SeatStatusAvailable, nil); err != nil {
			return fmt.Errorf("failed to reclaim seat: %w", err)
		}
		reclaimed = true
		return nil
	})
	return reclaimed, err
}
