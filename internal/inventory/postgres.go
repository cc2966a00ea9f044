package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Postgres SQLSTATE raised by NOWAIT when a row lock is held elsewhere
const pgLockNotAvailable = "55P03"

// lockNoWait renders FOR UPDATE NOWAIT
var lockNoWait = clause.Locking{Strength: "UPDATE", Options: "NOWAIT"}

type postgresStore struct {
	db *gorm.DB
}

// NewPostgresStore returns a Store backed by gorm on PostgreSQL
func NewPostgresStore(db *gorm.DB) Store {
	return &postgresStore{db: db}
}

func (s *postgresStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&postgresTx{db: tx})
	})
}

// SHOW CATALOGUE

func (s *postgresStore) CreateShow(ctx context.Context, show *Show, seats []Seat) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Seats").Create(show).Error; err != nil {
			return fmt.Errorf("failed to create show: %w", err)
		}
		for i := range seats {
			seats[i].ShowID = show.ID
		}
		if len(seats) > 0 {
			if err := tx.CreateInBatches(&seats, 500).Error; err != nil {
				return fmt.Errorf("failed to create seats: %w", err)
			}
		}
		return nil
	})
}

func (s *postgresStore) DeleteShow(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("show_id = ?", id).Delete(&Booking{}).Error; err != nil {
			return fmt.Errorf("failed to delete bookings: %w", err)
		}
		if err := tx.Where("show_id = ?", id).Delete(&Seat{}).Error; err != nil {
			return fmt.Errorf("failed to delete seats: %w", err)
		}
		result := tx.Where("id = ?", id).Delete(&Show{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete show: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *postgresStore) GetShow(ctx context.Context, id uuid.UUID) (*Show, error) {
	var show Show
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&show).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &show, nil
}

func (s *postgresStore) ListShows(ctx context.Context, query ShowListQuery) ([]Show, int64, error) {
	var shows []Show
	var totalCount int64

	page, limit := normalizePage(query.Page, query.Limit)

	baseQuery := s.db.WithContext(ctx).Model(&Show{})
	if query.UpcomingOnly {
		baseQuery = baseQuery.Where("start_time > ?", query.Now)
	}

	if err := baseQuery.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	err := baseQuery.
		Order("start_time ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&shows).Error

	return shows, totalCount, err
}

func (s *postgresStore) GetSeats(ctx context.Context, showID uuid.UUID) ([]Seat, error) {
	var seats []Seat
	err := s.db.WithContext(ctx).
		Where("show_id = ?", showID).
		Order("seat_number ASC").
		Find(&seats).Error
	return seats, err
}

func (s *postgresStore) CountSeatsByStatus(ctx context.Context, showID uuid.UUID) (map[SeatStatus]int, error) {
	var rows []struct {
		Status SeatStatus
		Count  int
	}
	err := s.db.WithContext(ctx).
		Model(&Seat{}).
		Select("status, COUNT(*) AS count").
		Where("show_id = ?", showID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[SeatStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// BOOKINGS

func (s *postgresStore) GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&booking).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &booking, nil
}

func (s *postgresStore) ListBookings(ctx context.Context, query BookingListQuery) ([]Booking, int64, error) {
	var bookings []Booking
	var totalCount int64

	page, limit := normalizePage(query.Page, query.Limit)

	baseQuery := s.db.WithContext(ctx).Model(&Booking{})
	if query.ShowID != nil {
		baseQuery = baseQuery.Where("show_id = ?", *query.ShowID)
	}
	if query.Status != "" {
		baseQuery = baseQuery.Where("status = ?", query.Status)
	}
	if query.UserID != "" {
		baseQuery = baseQuery.Where("user_id = ?", query.UserID)
	}

	if err := baseQuery.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	err := baseQuery.
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&bookings).Error

	return bookings, totalCount, err
}

// REAPER PREDICATES

func (s *postgresStore) FindExpiredHolds(ctx context.Context, now time.Time, limit int) ([]Seat, error) {
	var seats []Seat
	err := s.db.WithContext(ctx).
		Where("status = ? AND locked_until <= ?", SeatStatusPending, now).
		Order("locked_until ASC").
		Limit(limit).
		Find(&seats).Error
	return seats, err
}

func (s *postgresStore) FindOverdueBookings(ctx context.Context, now time.Time, limit int) ([]Booking, error) {
	var bookings []Booking
	err := s.db.WithContext(ctx).
		Where("status = ? AND expires_at <= ?", BookingStatusPending, now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&bookings).Error
	return bookings, err
}

// TRANSACTION

type postgresTx struct {
	db *gorm.DB
}

func (t *postgresTx) LockSeats(ctx context.Context, showID uuid.UUID, seatIDs []uuid.UUID) ([]Seat, error) {
	var seats []Seat
	err := t.db.WithContext(ctx).
		Clauses(lockNoWait).
		Where("show_id = ? AND id IN ?", showID, seatIDs).
		Order("seat_number ASC").
		Find(&seats).Error
	if err != nil {
		return nil, translateError(err)
	}
	return seats, nil
}

func (t *postgresTx) UpdateSeats(ctx context.Context, seatIDs []uuid.UUID, status SeatStatus, lease *Lease) error {
	if (status == SeatStatusPending) != (lease != nil) {
		return fmt.Errorf("seat status %s does not match lease %v", status, lease)
	}

	updates := map[string]interface{}{
		"status":       status,
		"locked_until": gorm.Expr("NULL"),
		"hold_id":      gorm.Expr("NULL"),
		"updated_at":   time.Now().UTC(),
	}
	if lease != nil {
		updates["locked_until"] = lease.Until.UTC()
		updates["hold_id"] = lease.HoldID
	}

	return t.db.WithContext(ctx).
		Model(&Seat{}).
		Where("id IN ?", seatIDs).
		Updates(updates).Error
}

func (t *postgresTx) AdjustAvailableSeats(ctx context.Context, showID uuid.UUID, delta int) error {
	result := t.db.WithContext(ctx).
		Model(&Show{}).
		Where("id = ?", showID).
		Updates(map[string]interface{}{
			"available_seats": gorm.Expr("available_seats + ?", delta),
			"updated_at":      time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update available seats: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *postgresTx) InsertBooking(ctx context.Context, booking *Booking) error {
	if err := t.db.WithContext(ctx).Create(booking).Error; err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (t *postgresTx) LockBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := t.db.WithContext(ctx).
		Clauses(lockNoWait).
		Where("id = ?", id).
		First(&booking).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &booking, nil
}

func (t *postgresTx) UpdateBookingStatus(ctx context.Context, id uuid.UUID, status BookingStatus) error {
	return t.db.WithContext(ctx).
		Model(&Booking{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}).Error
}

// translateError maps driver errors onto the store's sentinels
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
		return fmt.Errorf("%w: %s", ErrContention, pgErr.Message)
	}
	return err
}
