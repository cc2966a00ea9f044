package inventory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryStore keeps inventory in process. Row locks are per-id mutexes taken
// with TryLock so contention fails fast exactly like NOWAIT. Writes are staged
// in the transaction and applied under mu at commit.
type memoryStore struct {
	mu          sync.RWMutex
	shows       map[uuid.UUID]*Show
	seats       map[uuid.UUID]*Seat
	seatsByShow map[uuid.UUID][]uuid.UUID
	bookings    map[uuid.UUID]*Booking

	rowLocks sync.Map // uuid.UUID -> *sync.Mutex
}

// NewMemoryStore returns an in-process Store
func NewMemoryStore() Store {
	return &memoryStore{
		shows:       make(map[uuid.UUID]*Show),
		seats:       make(map[uuid.UUID]*Seat),
		seatsByShow: make(map[uuid.UUID][]uuid.UUID),
		bookings:    make(map[uuid.UUID]*Booking),
	}
}

func (s *memoryStore) rowLock(id uuid.UUID) *sync.Mutex {
	lock, _ := s.rowLocks.LoadOrStore(id, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func (s *memoryStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memoryTx{
		store:         s,
		locked:        make(map[uuid.UUID]*sync.Mutex),
		seatWrites:    make(map[uuid.UUID]seatWrite),
		showDeltas:    make(map[uuid.UUID]int),
		newBookings:   make(map[uuid.UUID]*Booking),
		bookingWrites: make(map[uuid.UUID]BookingStatus),
	}
	defer tx.unlockAll()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.commit()
}

// SHOW CATALOGUE

func (s *memoryStore) CreateShow(ctx context.Context, show *Show, seats []Seat) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if show.ID == uuid.Nil {
		show.ID = uuid.New()
	}
	if _, exists := s.shows[show.ID]; exists {
		return fmt.Errorf("show %s already exists", show.ID)
	}

	now := time.Now().UTC()
	if show.CreatedAt.IsZero() {
		show.CreatedAt = now
	}
	show.UpdatedAt = show.CreatedAt

	stored := *show
	stored.Seats = nil
	s.shows[show.ID] = &stored

	ids := make([]uuid.UUID, 0, len(seats))
	for i := range seats {
		seats[i].ShowID = show.ID
		if seats[i].ID == uuid.Nil {
			seats[i].ID = uuid.New()
		}
		if seats[i].CreatedAt.IsZero() {
			seats[i].CreatedAt = now
		}
		seats[i].UpdatedAt = seats[i].CreatedAt
		seat := seats[i]
		s.seats[seat.ID] = &seat
		ids = append(ids, seat.ID)
	}
	s.seatsByShow[show.ID] = ids
	return nil
}

func (s *memoryStore) DeleteShow(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.shows[id]; !ok {
		return ErrNotFound
	}
	for _, seatID := range s.seatsByShow[id] {
		delete(s.seats, seatID)
	}
	for bookingID, booking := range s.bookings {
		if booking.ShowID == id {
			delete(s.bookings, bookingID)
		}
	}
	delete(s.seatsByShow, id)
	delete(s.shows, id)
	return nil
}

func (s *memoryStore) GetShow(ctx context.Context, id uuid.UUID) (*Show, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	show, ok := s.shows[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *show
	return &cp, nil
}

func (s *memoryStore) ListShows(ctx context.Context, query ShowListQuery) ([]Show, int64, error) {
	s.mu.RLock()
	all := make([]Show, 0, len(s.shows))
	for _, show := range s.shows {
		if query.UpcomingOnly && !show.StartTime.After(query.Now) {
			continue
		}
		all = append(all, *show)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].StartTime.Before(all[j].StartTime)
	})

	page, limit := normalizePage(query.Page, query.Limit)
	return paginate(all, page, limit), int64(len(all)), nil
}

func (s *memoryStore) GetSeats(ctx context.Context, showID uuid.UUID) ([]Seat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.seatsByShow[showID]
	seats := make([]Seat, 0, len(ids))
	for _, id := range ids {
		seats = append(seats, copySeat(s.seats[id]))
	}
	sort.Slice(seats, func(i, j int) bool {
		return seats[i].SeatNumber < seats[j].SeatNumber
	})
	return seats, nil
}

func (s *memoryStore) CountSeatsByStatus(ctx context.Context, showID uuid.UUID) (map[SeatStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[SeatStatus]int)
	for _, id := range s.seatsByShow[showID] {
		counts[s.seats[id].Status]++
	}
	return counts, nil
}

// BOOKINGS

func (s *memoryStore) GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	booking, ok := s.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := copyBooking(booking)
	return &cp, nil
}

func (s *memoryStore) ListBookings(ctx context.Context, query BookingListQuery) ([]Booking, int64, error) {
	s.mu.RLock()
	all := make([]Booking, 0)
	for _, booking := range s.bookings {
		if query.ShowID != nil && booking.ShowID != *query.ShowID {
			continue
		}
		if query.Status != "" && booking.Status != query.Status {
			continue
		}
		if query.UserID != "" && (booking.UserID == nil || *booking.UserID != query.UserID) {
			continue
		}
		all = append(all, copyBooking(booking))
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	page, limit := normalizePage(query.Page, query.Limit)
	return paginate(all, page, limit), int64(len(all)), nil
}

// REAPER PREDICATES

func (s *memoryStore) FindExpiredHolds(ctx context.Context, now time.Time, limit int) ([]Seat, error) {
	s.mu.RLock()
	expired := make([]Seat, 0)
	for _, seat := range s.seats {
		if seat.Status == SeatStatusPending && seat.LockedUntil != nil && !seat.LockedUntil.After(now) {
			expired = append(expired, copySeat(seat))
		}
	}
	s.mu.RUnlock()

	sort.Slice(expired, func(i, j int) bool {
		return expired[i].LockedUntil.Before(*expired[j].LockedUntil)
	})
	if limit > 0 && len(expired) > limit {
		expired = expired[:limit]
	}
	return expired, nil
}

func (s *memoryStore) FindOverdueBookings(ctx context.Context, now time.Time, limit int) ([]Booking, error) {
	s.mu.RLock()
	overdue := make([]Booking, 0)
	for _, booking := range s.bookings {
		if booking.IsOverdue(now) {
			overdue = append(overdue, copyBooking(booking))
		}
	}
	s.mu.RUnlock()

	sort.Slice(overdue, func(i, j int) bool {
		return overdue[i].ExpiresAt.Before(*overdue[j].ExpiresAt)
	})
	if limit > 0 && len(overdue) > limit {
		overdue = overdue[:limit]
	}
	return overdue, nil
}

// TRANSACTION

type seatWrite struct {
	status      SeatStatus
	lockedUntil *time.Time
	holdID      *uuid.UUID
}

type memoryTx struct {
	store  *memoryStore
	locked map[uuid.UUID]*sync.Mutex

	seatWrites    map[uuid.UUID]seatWrite
	showDeltas    map[uuid.UUID]int
	newBookings   map[uuid.UUID]*Booking
	bookingWrites map[uuid.UUID]BookingStatus
}

// tryLock acquires the row lock for id once per transaction
func (t *memoryTx) tryLock(id uuid.UUID) bool {
	if _, ok := t.locked[id]; ok {
		return true
	}
	lock := t.store.rowLock(id)
	if !lock.TryLock() {
		return false
	}
	t.locked[id] = lock
	return true
}

func (t *memoryTx) unlockAll() {
	for id, lock := range t.locked {
		lock.Unlock()
		delete(t.locked, id)
	}
}

func (t *memoryTx) LockSeats(ctx context.Context, showID uuid.UUID, seatIDs []uuid.UUID) ([]Seat, error) {
	t.store.mu.RLock()
	candidates := make([]uuid.UUID, 0, len(seatIDs))
	seen := make(map[uuid.UUID]struct{}, len(seatIDs))
	for _, id := range seatIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if seat, ok := t.store.seats[id]; ok && seat.ShowID == showID {
			candidates = append(candidates, id)
		}
	}
	t.store.mu.RUnlock()

	for _, id := range candidates {
		if !t.tryLock(id) {
			return nil, ErrContention
		}
	}

	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	seats := make([]Seat, 0, len(candidates))
	for _, id := range candidates {
		stored, ok := t.store.seats[id]
		if !ok {
			continue
		}
		seat := copySeat(stored)
		if w, ok := t.seatWrites[id]; ok {
			seat.Status = w.status
			seat.LockedUntil = w.lockedUntil
			seat.HoldID = w.holdID
		}
		seats = append(seats, seat)
	}
	sort.Slice(seats, func(i, j int) bool {
		return seats[i].SeatNumber < seats[j].SeatNumber
	})
	return seats, nil
}

func (t *memoryTx) UpdateSeats(ctx context.Context, seatIDs []uuid.UUID, status SeatStatus, lease *Lease) error {
	if (status == SeatStatusPending) != (lease != nil) {
		return fmt.Errorf("seat status %s does not match lease %v", status, lease)
	}
	for _, id := range seatIDs {
		if _, ok := t.locked[id]; !ok {
			return fmt.Errorf("seat %s updated without holding its row lock", id)
		}
		w := seatWrite{status: status}
		if lease != nil {
			until, holdID := lease.Until.UTC(), lease.HoldID
			w.lockedUntil, w.holdID = &until, &holdID
		}
		t.seatWrites[id] = w
	}
	return nil
}

func (t *memoryTx) AdjustAvailableSeats(ctx context.Context, showID uuid.UUID, delta int) error {
	t.store.mu.RLock()
	_, ok := t.store.shows[showID]
	t.store.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	t.showDeltas[showID] += delta
	return nil
}

func (t *memoryTx) InsertBooking(ctx context.Context, booking *Booking) error {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now().UTC()
	}
	booking.UpdatedAt = booking.CreatedAt

	t.store.mu.RLock()
	_, exists := t.store.bookings[booking.ID]
	t.store.mu.RUnlock()
	if exists {
		return fmt.Errorf("booking %s already exists", booking.ID)
	}

	cp := copyBooking(booking)
	t.newBookings[booking.ID] = &cp
	t.locked[booking.ID] = t.store.rowLock(booking.ID)
	t.locked[booking.ID].Lock()
	return nil
}

func (t *memoryTx) LockBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	if staged, ok := t.newBookings[id]; ok {
		cp := copyBooking(staged)
		if status, ok := t.bookingWrites[id]; ok {
			cp.Status = status
		}
		return &cp, nil
	}

	t.store.mu.RLock()
	_, ok := t.store.bookings[id]
	t.store.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	if !t.tryLock(id) {
		return nil, ErrContention
	}

	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	stored, ok := t.store.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := copyBooking(stored)
	if status, ok := t.bookingWrites[id]; ok {
		cp.Status = status
	}
	return &cp, nil
}

func (t *memoryTx) UpdateBookingStatus(ctx context.Context, id uuid.UUID, status BookingStatus) error {
	if _, ok := t.locked[id]; !ok {
		return fmt.Errorf("booking %s updated without holding its row lock", id)
	}
	t.bookingWrites[id] = status
	return nil
}

// commit applies every staged write atomically with respect to readers
func (t *memoryTx) commit() error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for showID, delta := range t.showDeltas {
		show, ok := s.shows[showID]
		if !ok {
			return ErrNotFound
		}
		next := show.AvailableSeats + delta
		if next < 0 || next > show.TotalSeats {
			return fmt.Errorf("available seats for show %s would become %d", showID, next)
		}
	}

	now := time.Now().UTC()
	for showID, delta := range t.showDeltas {
		show := s.shows[showID]
		show.AvailableSeats += delta
		show.UpdatedAt = now
	}
	for id, w := range t.seatWrites {
		seat, ok := s.seats[id]
		if !ok {
			continue
		}
		seat.Status = w.status
		seat.LockedUntil = w.lockedUntil
		seat.HoldID = w.holdID
		seat.UpdatedAt = now
	}
	for id, booking := range t.newBookings {
		if status, ok := t.bookingWrites[id]; ok {
			booking.Status = status
		}
		s.bookings[id] = booking
	}
	for id, status := range t.bookingWrites {
		if _, staged := t.newBookings[id]; staged {
			continue
		}
		if booking, ok := s.bookings[id]; ok {
			booking.Status = status
			booking.UpdatedAt = now
		}
	}
	return nil
}

func copySeat(seat *Seat) Seat {
	cp := *seat
	if seat.LockedUntil != nil {
		until := *seat.LockedUntil
		cp.LockedUntil = &until
	}
	if seat.HoldID != nil {
		holdID := *seat.HoldID
		cp.HoldID = &holdID
	}
	return cp
}

func copyBooking(booking *Booking) Booking {
	cp := *booking
	cp.SeatIDs = append([]uuid.UUID(nil), booking.SeatIDs...)
	if booking.UserID != nil {
		user := *booking.UserID
		cp.UserID = &user
	}
	if booking.ExpiresAt != nil {
		expires := *booking.ExpiresAt
		cp.ExpiresAt = &expires
	}
	return cp
}

func paginate[T any](items []T, page, limit int) []T {
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
