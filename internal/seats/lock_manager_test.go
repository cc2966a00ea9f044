package seats

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piyushmishra0/Modex-System/internal/inventory"
)

// fakeClock is a settable time source
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store inventory.Store
	locks *LockManager
	clock *fakeClock
	show  *inventory.Show
	seats []uuid.UUID
}

func setup(t *testing.T, seatCount int) *fixture {
	t.Helper()

	store := inventory.NewMemoryStore()
	clock := newFakeClock()
	show := &inventory.Show{
		Name:           "Matinee",
		StartTime:      clock.Now().Add(48 * time.Hour),
		TotalSeats:     seatCount,
		AvailableSeats: seatCount,
	}
	rows := make([]inventory.Seat, seatCount)
	for i := range rows {
		rows[i] = inventory.Seat{SeatNumber: i + 1, Status: inventory.SeatStatusAvailable}
	}
	require.NoError(t, store.CreateShow(context.Background(), show, rows))

	ids := make([]uuid.UUID, seatCount)
	for i := range rows {
		ids[i] = rows[i].ID
	}

	return &fixture{
		store: store,
		locks: NewLockManager(store, WithClock(clock.Now)),
		clock: clock,
		show:  show,
		seats: ids,
	}
}

func (f *fixture) seat(t *testing.T, id uuid.UUID) inventory.Seat {
	t.Helper()
	all, err := f.store.GetSeats(context.Background(), f.show.ID)
	require.NoError(t, err)
	for _, s := range all {
		if s.ID == id {
			return s
		}
	}
	t.Fatalf("seat %s not found", id)
	return inventory.Seat{}
}

func (f *fixture) available(t *testing.T) int {
	t.Helper()
	show, err := f.store.GetShow(context.Background(), f.show.ID)
	require.NoError(t, err)
	return show.AvailableSeats
}

func (f *fixture) book(t *testing.T, ids ...uuid.UUID) error {
	t.Helper()
	ctx := context.Background()
	return f.store.InTx(ctx, func(tx inventory.Tx) error {
		_, err := f.locks.Acquire(ctx, tx, f.show.ID, ids, Book())
		return err
	})
}

func TestValidateSeatIDs(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	assert.NoError(t, ValidateSeatIDs([]uuid.UUID{a, b}))
	assert.ErrorIs(t, ValidateSeatIDs(nil), inventory.ErrInvalidSeats)
	assert.ErrorIs(t, ValidateSeatIDs([]uuid.UUID{a, uuid.Nil}), inventory.ErrInvalidSeats)
	assert.ErrorIs(t, ValidateSeatIDs([]uuid.UUID{a, b, a}), inventory.ErrInvalidSeats)
}

func TestAcquire_BookMovesCounter(t *testing.T) {
	f := setup(t, 5)

	require.NoError(t, f.book(t, f.seats[0], f.seats[1]))

	assert.Equal(t, 3, f.available(t))
	assert.Equal(t, inventory.SeatStatusBooked, f.seat(t, f.seats[0]).Status)
	assert.Nil(t, f.seat(t, f.seats[0]).LockedUntil)

	// Booked seats are never re-acquired
	err := f.book(t, f.seats[1], f.seats[2])
	assert.ErrorIs(t, err, inventory.ErrSeatsUnavailable)
	assert.Equal(t, inventory.SeatStatusAvailable, f.seat(t, f.seats[2]).Status, "failed acquire must not touch other seats")
	assert.Equal(t, 3, f.available(t))
}

func TestAcquire_ForeignSeatIsInvalid(t *testing.T) {
	f := setup(t, 3)

	otherSeats := []inventory.Seat{{SeatNumber: 1, Status: inventory.SeatStatusAvailable}}
	require.NoError(t, f.store.CreateShow(context.Background(), &inventory.Show{
		Name:           "Evening",
		StartTime:      f.clock.Now().Add(72 * time.Hour),
		TotalSeats:     1,
		AvailableSeats: 1,
	}, otherSeats))

	// A real seat of another show
	err := f.book(t, f.seats[0], otherSeats[0].ID)
	assert.ErrorIs(t, err, inventory.ErrInvalidSeats)
	assert.Equal(t, inventory.CodeInvalidSeats, inventory.ErrorCode(err))

	err = f.book(t, f.seats[0], uuid.New())
	assert.ErrorIs(t, err, inventory.ErrInvalidSeats)

	assert.Equal(t, inventory.SeatStatusAvailable, f.seat(t, f.seats[0]).Status)
	assert.Equal(t, 3, f.available(t))
}

func TestAcquire_DuplicateSeatIsInvalid(t *testing.T) {
	f := setup(t, 2)

	err := f.book(t, f.seats[0], f.seats[0])
	assert.ErrorIs(t, err, inventory.ErrInvalidSeats)
	assert.Equal(t, 2, f.available(t))
}

func TestAcquire_ContentionFailsFast(t *testing.T) {
	f := setup(t, 4)
	ctx := context.Background()

	err := f.store.InTx(ctx, func(tx inventory.Tx) error {
		_, err := f.locks.Acquire(ctx, tx, f.show.ID, f.seats[:2], Book())
		require.NoError(t, err)

		// Overlaps on seat 2 while the first unit of work is open
		inner := f.book(t, f.seats[1], f.seats[2])
		assert.ErrorIs(t, inner, inventory.ErrContention)
		assert.True(t, inventory.IsRetryable(inner))
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, inventory.SeatStatusAvailable, f.seat(t, f.seats[2]).Status)
	assert.Equal(t, 2, f.available(t))
}

func TestAcquire_RejectsBadTargets(t *testing.T) {
	f := setup(t, 1)
	ctx := context.Background()

	err := f.store.InTx(ctx, func(tx inventory.Tx) error {
		_, err := f.locks.Acquire(ctx, tx, f.show.ID, f.seats, Target{Status: inventory.SeatStatusPending})
		return err
	})
	assert.ErrorIs(t, err, inventory.ErrInvalidInput)

	err = f.store.InTx(ctx, func(tx inventory.Tx) error {
		_, err := f.locks.Acquire(ctx, tx, f.show.ID, f.seats, Target{Status: inventory.SeatStatusAvailable})
		return err
	})
	assert.ErrorIs(t, err, inventory.ErrInvalidInput)
}

func TestHold_LeavesCounterAlone(t *testing.T) {
	f := setup(t, 3)
	ctx := context.Background()

	result, err := f.locks.Hold(ctx, f.show.ID, f.seats[:2], 5*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now().Add(5*time.Minute), result.LockedUntil)

	seat := f.seat(t, f.seats[0])
	assert.Equal(t, inventory.SeatStatusPending, seat.Status)
	require.NotNil(t, seat.LockedUntil)
	assert.Equal(t, 3, f.available(t), "a hold does not change the available counter")

	// A live hold blocks a second hold
	_, err = f.locks.Hold(ctx, f.show.ID, f.seats[1:], time.Minute)
	assert.ErrorIs(t, err, inventory.ErrSeatsUnavailable)

	_, err = f.locks.Hold(ctx, f.show.ID, f.seats[:1], 0)
	assert.ErrorIs(t, err, inventory.ErrInvalidInput)
}

func TestHold_ExpiredLeaseIsAcquirable(t *testing.T) {
	f := setup(t, 2)
	ctx := context.Background()

	_, err := f.locks.Hold(ctx, f.show.ID, f.seats[:1], time.Minute)
	require.NoError(t, err)

	f.clock.Advance(61 * time.Second)

	// The lapsed seat is free before any reaper has run
	require.NoError(t, f.book(t, f.seats[0]))
	seat := f.seat(t, f.seats[0])
	assert.Equal(t, inventory.SeatStatusBooked, seat.Status)
	assert.Nil(t, seat.LockedUntil)
	assert.Equal(t, 1, f.available(t))
}

func TestRelease_IsIdempotent(t *testing.T) {
	f := setup(t, 3)
	ctx := context.Background()

	hold, err := f.locks.Hold(ctx, f.show.ID, f.seats[:2], time.Minute)
	require.NoError(t, err)
	require.NoError(t, f.book(t, f.seats[2]))

	released, err := f.locks.Release(ctx, f.show.ID, f.seats, hold.HoldID)
	require.NoError(t, err)
	assert.Equal(t, 2, released)

	released, err = f.locks.Release(ctx, f.show.ID, f.seats, hold.HoldID)
	require.NoError(t, err)
	assert.Zero(t, released)

	first := f.seat(t, f.seats[0])
	assert.Equal(t, inventory.SeatStatusAvailable, first.Status)
	assert.Nil(t, first.LockedUntil)
	assert.Nil(t, first.HoldID)
	assert.Equal(t, inventory.SeatStatusBooked, f.seat(t, f.seats[2]).Status, "release never touches booked seats")
	assert.Equal(t, 2, f.available(t))

	_, err = f.locks.Release(ctx, f.show.ID, []uuid.UUID{uuid.New()}, hold.HoldID)
	assert.ErrorIs(t, err, inventory.ErrInvalidSeats)
}

func TestRelease_OnlyTouchesOwnLease(t *testing.T) {
	f := setup(t, 2)
	ctx := context.Background()

	first, err := f.locks.Hold(ctx, f.show.ID, f.seats, time.Minute)
	require.NoError(t, err)
	f.clock.Advance(2 * time.Minute)

	// The lapsed seats are taken over by a second holder
	second, err := f.locks.Hold(ctx, f.show.ID, f.seats[:1], 5*time.Minute)
	require.NoError(t, err)

	released, err := f.locks.Release(ctx, f.show.ID, f.seats, first.HoldID)
	require.NoError(t, err)
	assert.Equal(t, 1, released, "only the seat still under the first lease")

	seat := f.seat(t, f.seats[0])
	assert.True(t, seat.IsHeldBy(second.HoldID, f.clock.Now()))
	assert.Equal(t, inventory.SeatStatusAvailable, f.seat(t, f.seats[1]).Status)

	// A stranger's id releases nothing
	released, err = f.locks.Release(ctx, f.show.ID, f.seats, uuid.New())
	require.NoError(t, err)
	assert.Zero(t, released)
	assert.Equal(t, inventory.SeatStatusPending, f.seat(t, f.seats[0]).Status)
}

func TestCommitHeld(t *testing.T) {
	f := setup(t, 3)
	ctx := context.Background()

	hold, err := f.locks.Hold(ctx, f.show.ID, f.seats[:2], time.Minute)
	require.NoError(t, err)

	err = f.store.InTx(ctx, func(tx inventory.Tx) error {
		return f.locks.CommitHeld(ctx, tx, f.show.ID, f.seats[:2], hold.HoldID)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, f.available(t))
	booked := f.seat(t, f.seats[1])
	assert.Equal(t, inventory.SeatStatusBooked, booked.Status)
	assert.Nil(t, booked.HoldID)

	// Seat 3 was never held
	err = f.store.InTx(ctx, func(tx inventory.Tx) error {
		return f.locks.CommitHeld(ctx, tx, f.show.ID, f.seats[2:], hold.HoldID)
	})
	assert.ErrorIs(t, err, inventory.ErrHoldExpired)
	assert.Equal(t, 1, f.available(t))
}

func TestCommitHeld_RejectsAnotherHoldersLease(t *testing.T) {
	f := setup(t, 2)
	ctx := context.Background()

	_, err := f.locks.Hold(ctx, f.show.ID, f.seats, time.Minute)
	require.NoError(t, err)

	err = f.store.InTx(ctx, func(tx inventory.Tx) error {
		return f.locks.CommitHeld(ctx, tx, f.show.ID, f.seats, uuid.New())
	})
	assert.ErrorIs(t, err, inventory.ErrHoldExpired)
	assert.Equal(t, inventory.SeatStatusPending, f.seat(t, f.seats[0]).Status)
	assert.Equal(t, 2, f.available(t))
}

func TestCommitHeld_ExpiredLease(t *testing.T) {
	f := setup(t, 2)
	ctx := context.Background()

	hold, err := f.locks.Hold(ctx, f.show.ID, f.seats, time.Minute)
	require.NoError(t, err)
	f.clock.Advance(2 * time.Minute)

	err = f.store.InTx(ctx, func(tx inventory.Tx) error {
		return f.locks.CommitHeld(ctx, tx, f.show.ID, f.seats, hold.HoldID)
	})
	assert.ErrorIs(t, err, inventory.ErrHoldExpired)
	assert.Equal(t, inventory.CodeExpired, inventory.ErrorCode(err))
	assert.Equal(t, 2, f.available(t))
}

func TestReclaimExpired(t *testing.T) {
	f := setup(t, 3)
	ctx := context.Background()

	_, err := f.locks.Hold(ctx, f.show.ID, f.seats[:1], time.Minute)
	require.NoError(t, err)
	_, err = f.locks.Hold(ctx, f.show.ID, f.seats[1:2], 10*time.Minute)
	require.NoError(t, err)

	f.clock.Advance(2 * time.Minute)

	ok, err := f.locks.ReclaimExpired(ctx, f.show.ID, f.seats[0])
	require.NoError(t, err)
	assert.True(t, ok)

	first := f.seat(t, f.seats[0])
	assert.Equal(t, inventory.SeatStatusAvailable, first.Status)
	assert.Nil(t, first.LockedUntil)
	assert.Nil(t, first.HoldID)

	ok, err = f.locks.ReclaimExpired(ctx, f.show.ID, f.seats[1])
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, inventory.SeatStatusPending, f.seat(t, f.seats[1]).Status, "live hold survives")

	// Already reclaimed, never held, and foreign ids are all no-ops
	for _, id := range []uuid.UUID{f.seats[0], f.seats[2], uuid.New()} {
		ok, err = f.locks.ReclaimExpired(ctx, f.show.ID, id)
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.Equal(t, 3, f.available(t))
}

func TestReclaimExpired_ContentionIsPerSeat(t *testing.T) {
	f := setup(t, 2)
	ctx := context.Background()

	_, err := f.locks.Hold(ctx, f.show.ID, f.seats, time.Minute)
	require.NoError(t, err)
	f.clock.Advance(2 * time.Minute)

	err = f.store.InTx(ctx, func(tx inventory.Tx) error {
		_, err := tx.LockSeats(ctx, f.show.ID, f.seats[:1])
		require.NoError(t, err)

		_, err = f.locks.ReclaimExpired(ctx, f.show.ID, f.seats[0])
		assert.ErrorIs(t, err, inventory.ErrContention)

		ok, err := f.locks.ReclaimExpired(ctx, f.show.ID, f.seats[1])
		assert.NoError(t, err)
		assert.True(t, ok)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, inventory.SeatStatusAvailable, f.seat(t, f.seats[1]).Status)
}
