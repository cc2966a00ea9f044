package shows

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/piyushmishra0/Modex-System/internal/inventory"
	"github.com/piyushmishra0/Modex-System/internal/seats"
	"github.com/piyushmishra0/Modex-System/internal/shared/constants"
	"github.com/piyushmishra0/Modex-System/pkg/cache"
	"github.com/piyushmishra0/Modex-System/pkg/logger"
)

type Service interface {
	CreateShow(ctx context.Context, input CreateShowInput) (*inventory.Show, error)
	DeleteShow(ctx context.Context, id uuid.UUID) error
	GetShow(ctx context.Context, id uuid.UUID) (*inventory.Show, error)
	ListShows(ctx context.Context, query inventory.ShowListQuery) (*PaginatedShows, error)
	GetSeatMap(ctx context.Context, id uuid.UUID) (*SeatMap, error)
	CheckConsistency(ctx context.Context, id uuid.UUID) (*ConsistencyReport, error)
}

type CreateShowInput struct {
	Name       string    `validate:"required,max=255"`
	StartTime  time.Time `validate:"required"`
	TotalSeats int       `validate:"required,min=1"`
}

type service struct {
	store           inventory.Store
	locks           *seats.LockManager
	cache           cache.Service
	maxSeatsPerShow int
	validator       *validator.Validate
	log             *logger.Logger
}

// NewService wires the show catalogue. bookingCache may be nil.
func NewService(store inventory.Store, locks *seats.LockManager, bookingCache cache.Service, maxSeatsPerShow int) Service {
	return &service{
		store:           store,
		locks:           locks,
		cache:           bookingCache,
		maxSeatsPerShow: maxSeatsPerShow,
		validator:       validator.New(),
		log:             logger.GetDefault().WithComponent("shows"),
	}
}

// CreateShow stores the show with seats numbered 1..TotalSeats, all AVAILABLE
func (s *service) CreateShow(ctx context.Context, input CreateShowInput) (*inventory.Show, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := s.validator.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %s", inventory.ErrInvalidInput, err.Error())
	}
	if s.maxSeatsPerShow > 0 && input.TotalSeats > s.maxSeatsPerShow {
		return nil, fmt.Errorf("%w: a show has at most %d seats", inventory.ErrInvalidInput, s.maxSeatsPerShow)
	}

	show := &inventory.Show{
		Name:           input.Name,
		StartTime:      input.StartTime.UTC(),
		TotalSeats:     input.TotalSeats,
		AvailableSeats: input.TotalSeats,
	}

	rows := make([]inventory.Seat, input.TotalSeats)
	for i := range rows {
		rows[i] = inventory.Seat{
			SeatNumber: i + 1,
			Status:     inventory.SeatStatusAvailable,
		}
	}

	if err := s.store.CreateShow(ctx, show, rows); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "Show created",
		"show_id", show.ID.String(),
		"total_seats", show.TotalSeats,
	)
	return show, nil
}

// DeleteShow removes the show with its seats and bookings
func (s *service) DeleteShow(ctx context.Context, id uuid.UUID) error {
	keys, err := s.bookingCacheKeys(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteShow(ctx, id); err != nil {
		return fmt.Errorf("show %s: %w", id, err)
	}

	if s.cache != nil && len(keys) > 0 {
		if err := s.cache.Delete(ctx, keys...); err != nil {
			// Log error but don't fail the request
			s.log.WarnContext(ctx, "Failed to invalidate booking cache", "show_id", id.String(), "error", err.Error())
		}
	}

	s.log.InfoContext(ctx, "Show deleted", "show_id", id.String(), "cached_bookings", len(keys))
	return nil
}

func (s *service) GetShow(ctx context.Context, id uuid.UUID) (*inventory.Show, error) {
	show, err := s.store.GetShow(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("show %s: %w", id, err)
	}
	return show, nil
}

func (s *service) ListShows(ctx context.Context, query inventory.ShowListQuery) (*PaginatedShows, error) {
	// Set defaults
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}
	if query.Limit > 100 {
		query.Limit = 100
	}
	if query.UpcomingOnly && query.Now.IsZero() {
		query.Now = s.locks.Now()
	}

	list, total, err := s.store.ListShows(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list shows: %w", err)
	}

	items := make([]ShowResponse, len(list))
	for i := range list {
		items[i] = ToShowResponse(&list[i])
	}

	return &PaginatedShows{
		Shows:      items,
		TotalCount: total,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: calculateTotalPages(total, query.Limit),
	}, nil
}

// GetSeatMap lists every seat of the show by seat number
func (s *service) GetSeatMap(ctx context.Context, id uuid.UUID) (*SeatMap, error) {
	show, err := s.GetShow(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := s.store.GetSeats(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load seats: %w", err)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].SeatNumber < rows[j].SeatNumber })

	now := s.locks.Now()
	views := make([]SeatView, len(rows))
	for i := range rows {
		views[i] = ToSeatView(&rows[i], now)
	}

	return &SeatMap{
		ShowID:         show.ID.String(),
		TotalSeats:     show.TotalSeats,
		AvailableSeats: show.AvailableSeats,
		Seats:          views,
	}, nil
}

// CheckConsistency verifies availableSeats equals the number of seats not BOOKED
func (s *service) CheckConsistency(ctx context.Context, id uuid.UUID) (*ConsistencyReport, error) {
	show, err := s.GetShow(ctx, id)
	if err != nil {
		return nil, err
	}

	counts, err := s.store.CountSeatsByStatus(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count seats: %w", err)
	}

	report := &ConsistencyReport{
		ShowID:         show.ID.String(),
		TotalSeats:     show.TotalSeats,
		AvailableSeats: show.AvailableSeats,
		AvailableRows:  counts[inventory.SeatStatusAvailable],
		PendingRows:    counts[inventory.SeatStatusPending],
		BookedRows:     counts[inventory.SeatStatusBooked],
	}
	report.SeatRows = report.AvailableRows + report.PendingRows + report.BookedRows
	report.ExpectedCounter = report.SeatRows - report.BookedRows
	report.Consistent = report.SeatRows == show.TotalSeats && report.ExpectedCounter == show.AvailableSeats

	if !report.Consistent {
		s.log.ErrorContext(ctx, "Seat counter drift detected",
			"show_id", report.ShowID,
			"available_seats", report.AvailableSeats,
			"expected", report.ExpectedCounter,
			"seat_rows", report.SeatRows,
		)
	}
	return report, nil
}

// bookingCacheKeys collects the cache keys of the show's terminal bookings
func (s *service) bookingCacheKeys(ctx context.Context, showID uuid.UUID) ([]string, error) {
	if s.cache == nil {
		return nil, nil
	}

	var keys []string
	query := inventory.BookingListQuery{Page: 1, Limit: 100, ShowID: &showID}
	for {
		page, total, err := s.store.ListBookings(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("failed to list bookings: %w", err)
		}
		for i := range page {
			if page[i].IsTerminal() {
				keys = append(keys, constants.BuildBookingDetailKey(page[i].ID.String()))
			}
		}
		if len(page) == 0 || int64(query.Page*query.Limit) >= total {
			return keys, nil
		}
		query.Page++
	}
}
