package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/piyushmishra0/Modex-System/internal/bookings"
	"github.com/piyushmishra0/Modex-System/internal/inventory"
	"github.com/piyushmishra0/Modex-System/internal/seats"
	"github.com/piyushmishra0/Modex-System/internal/shared/config"
	"github.com/piyushmishra0/Modex-System/internal/shared/database"
	"github.com/piyushmishra0/Modex-System/internal/shows"
)

type Seeder struct {
	db       *database.DB
	shows    shows.Service
	bookings bookings.Service
}

// demoShow describes one seeded show; booked seats are confirmed through the engine
type demoShow struct {
	Name       string
	StartsIn   time.Duration
	TotalSeats int
	Booked     [][]int // seat numbers per booking
}

var demoShows = []demoShow{
	{Name: "Hamlet - Evening Performance", StartsIn: 48 * time.Hour, TotalSeats: 120, Booked: [][]int{{1, 2}, {10, 11, 12}, {40}}},
	{Name: "Jazz Night at the Blue Room", StartsIn: 72 * time.Hour, TotalSeats: 60, Booked: [][]int{{5, 6}}},
	{Name: "Stand-up Comedy Showcase", StartsIn: 7 * 24 * time.Hour, TotalSeats: 200},
	{Name: "Load Test Arena", StartsIn: 30 * 24 * time.Hour, TotalSeats: 10},
	{Name: "Morning Matinee (past)", StartsIn: -24 * time.Hour, TotalSeats: 40, Booked: [][]int{{1, 2, 3, 4}}},
}

func main() {
	fmt.Println("Starting Modex database seeder...")

	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using system environment variables")
	}

	// Load configuration
	cfg := config.Load()
	if !cfg.UsesPostgres() {
		log.Fatalf("Seeding needs STORE_DRIVER=postgres, got %q", cfg.StoreDriver)
	}
	cfg.Redis.Enabled = false

	// Initialize database
	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	store := inventory.NewPostgresStore(db.GetPostgreSQL())
	locks := seats.NewLockManager(store)
	seeder := &Seeder{
		db:       db,
		shows:    shows.NewService(store, locks, nil, cfg.Reservation.MaxSeatsPerShow),
		bookings: bookings.NewService(store, locks, nil, nil, nil),
	}

	// Clean database
	fmt.Println("\nCleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("Database cleaned successfully")

	// Seed data
	fmt.Println("\nSeeding database...")
	if err := seeder.SeedAll(context.Background()); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("\nSeeding completed! Database is ready for testing.")
}

// CleanDatabase truncates all tables; CASCADE follows the show foreign keys
func (s *Seeder) CleanDatabase() error {
	tables := []string{"bookings", "seats", "shows"}

	return s.db.PostgreSQL.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			fmt.Printf("  Truncating table: %s\n", table)
			if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
				return fmt.Errorf("failed to truncate table %s: %w", table, err)
			}
		}
		return nil
	})
}

// SeedAll creates the demo shows and their confirmed bookings
func (s *Seeder) SeedAll(ctx context.Context) error {
	for _, demo := range demoShows {
		show, err := s.shows.CreateShow(ctx, shows.CreateShowInput{
			Name:       demo.Name,
			StartTime:  time.Now().Add(demo.StartsIn),
			TotalSeats: demo.TotalSeats,
		})
		if err != nil {
			return fmt.Errorf("failed to create show %q: %w", demo.Name, err)
		}

		seatMap, err := s.shows.GetSeatMap(ctx, show.ID)
		if err != nil {
			return err
		}
		byNumber := make(map[int]uuid.UUID, len(seatMap.Seats))
		for _, seat := range seatMap.Seats {
			byNumber[seat.SeatNumber] = uuid.MustParse(seat.ID)
		}

		for _, numbers := range demo.Booked {
			if err := s.bookSeats(ctx, show.ID, byNumber, numbers); err != nil {
				return fmt.Errorf("failed to book seats %v of %q: %w", numbers, demo.Name, err)
			}
		}

		report, err := s.shows.CheckConsistency(ctx, show.ID)
		if err != nil {
			return err
		}
		fmt.Printf("  %-32s %s  seats=%d available=%d consistent=%v\n",
			demo.Name, show.ID, show.TotalSeats, report.AvailableSeats, report.Consistent)
	}
	return nil
}

func (s *Seeder) bookSeats(ctx context.Context, showID uuid.UUID, byNumber map[int]uuid.UUID, numbers []int) error {
	input := bookings.CreateBookingInput{ShowID: showID}
	for _, n := range numbers {
		input.SeatIDs = append(input.SeatIDs, byNumber[n])
	}
	userID := "seed-user"
	input.UserID = &userID

	_, err := s.bookings.CreateBooking(ctx, input)
	return err
}
