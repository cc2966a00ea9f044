package reaper

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/piyushmishra0/Modex-System/internal/inventory"
	"github.com/piyushmishra0/Modex-System/internal/seats"
	"github.com/piyushmishra0/Modex-System/pkg/logger"
)

// BookingFailer moves an overdue pending booking to FAILED
type BookingFailer interface {
	Fail(ctx context.Context, bookingID uuid.UUID) (*inventory.Booking, error)
}

// Leader decides whether this process sweeps on a given tick
type Leader interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// JobProcessor runs the lease reaper in the background
type JobProcessor struct {
	store   inventory.Store
	locks   *seats.LockManager
	engine  BookingFailer
	leader  Leader
	config  *JobConfig
	log     *logger.Logger
	done    chan struct{}
	stopped sync.Once
	wg      sync.WaitGroup

	// sweepMu serializes ticker sweeps with on-demand runs
	sweepMu sync.Mutex

	mu         sync.RWMutex
	running    bool
	lastRun    time.Time
	lastResult SweepResult
	totals     SweepResult
}

// JobConfig contains configuration for the reaper
type JobConfig struct {
	Interval  time.Duration
	BatchSize int
}

// SweepResult counts the work done by one pass
type SweepResult struct {
	SeatsReclaimed int `json:"seats_reclaimed"`
	BookingsFailed int `json:"bookings_failed"`
	Errors         int `json:"errors"`
}

// DefaultJobConfig returns default reaper configuration
func DefaultJobConfig() *JobConfig {
	return &JobConfig{
		Interval:  15 * time.Second, // Sweep expired leases every 15 seconds
		BatchSize: 200,              // Reclaim at most 200 rows per sweep
	}
}

// NewJobProcessor creates a new reaper. leader may be nil for a single replica.
func NewJobProcessor(store inventory.Store, locks *seats.LockManager, engine BookingFailer, leader Leader, config *JobConfig) *JobProcessor {
	if config == nil {
		config = DefaultJobConfig()
	}

	return &JobProcessor{
		store:  store,
		locks:  locks,
		engine: engine,
		leader: leader,
		config: config,
		log:    logger.GetDefault().WithComponent("reaper"),
		done:   make(chan struct{}),
	}
}

// Start starts the sweep loop
func (jp *JobProcessor) Start(ctx context.Context) {
	jp.mu.Lock()
	jp.running = true
	jp.mu.Unlock()

	jp.wg.Add(1)
	go jp.startSweeper(ctx)

	jp.log.InfoContext(ctx, "Lease reaper started",
		"interval", jp.config.Interval.String(),
		"batch_size", jp.config.BatchSize,
		"leader_election", jp.leader != nil,
	)
}

// Stop stops the sweep loop and waits for an in-flight sweep to finish
func (jp *JobProcessor) Stop() {
	jp.stopped.Do(func() {
		close(jp.done)
	})
	jp.wg.Wait()

	jp.mu.Lock()
	jp.running = false
	jp.mu.Unlock()

	if jp.leader != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = jp.leader.Release(ctx)
	}
	jp.log.Info("Lease reaper stopped")
}

func (jp *JobProcessor) startSweeper(ctx context.Context) {
	defer jp.wg.Done()

	ticker := time.NewTicker(jp.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			jp.tick(ctx)
		case <-jp.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// tick sweeps only while this process holds the leader lease
func (jp *JobProcessor) tick(ctx context.Context) {
	if jp.leader != nil {
		leading, err := jp.leader.Acquire(ctx)
		if err != nil {
			jp.log.WarnContext(ctx, "Reaper leader lease unavailable", "error", err.Error())
			return
		}
		if !leading {
			return
		}
	}
	jp.RunOnce(ctx)
}

// RunOnce performs both sweeps. Per-item failures are logged and counted,
// never returned: one bad row must not block the rest of the batch.
func (jp *JobProcessor) RunOnce(ctx context.Context) SweepResult {
	jp.sweepMu.Lock()
	defer jp.sweepMu.Unlock()

	start := time.Now()
	var result SweepResult

	jp.reclaimExpiredHolds(ctx, &result)
	jp.failOverdueBookings(ctx, &result)

	jp.log.LogSweep(ctx, result.SeatsReclaimed, result.BookingsFailed, result.Errors, time.Since(start))

	jp.mu.Lock()
	jp.lastRun = jp.locks.Now()
	jp.lastResult = result
	jp.totals.SeatsReclaimed += result.SeatsReclaimed
	jp.totals.BookingsFailed += result.BookingsFailed
	jp.totals.Errors += result.Errors
	jp.mu.Unlock()

	return result
}

// reclaimExpiredHolds resets PENDING seats whose lease has lapsed
func (jp *JobProcessor) reclaimExpiredHolds(ctx context.Context, result *SweepResult) {
	expired, err := jp.store.FindExpiredHolds(ctx, jp.locks.Now(), jp.config.BatchSize)
	if err != nil {
		jp.log.ErrorContext(ctx, "Failed to find expired holds", "error", err.Error())
		result.Errors++
		return
	}

	// One transaction per seat: a row locked by a live request only skips that seat
	for _, seat := range expired {
		reclaimed, err := jp.locks.ReclaimExpired(ctx, seat.ShowID, seat.ID)
		if err != nil {
			jp.log.WarnContext(ctx, "Failed to reclaim expired hold",
				"show_id", seat.ShowID.String(),
				"seat_id", seat.ID.String(),
				"code", inventory.ErrorCode(err),
				"error", err.Error(),
			)
			result.Errors++
			continue
		}
		if reclaimed {
			result.SeatsReclaimed++
		}
	}
}

// failOverdueBookings fails PENDING bookings past their deadline
func (jp *JobProcessor) failOverdueBookings(ctx context.Context, result *SweepResult) {
	overdue, err := jp.store.FindOverdueBookings(ctx, jp.locks.Now(), jp.config.BatchSize)
	if err != nil {
		jp.log.ErrorContext(ctx, "Failed to find overdue bookings", "error", err.Error())
		result.Errors++
		return
	}

	for i := range overdue {
		booking, err := jp.engine.Fail(ctx, overdue[i].ID)
		if errors.Is(err, inventory.ErrBookingFinalized) {
			// Confirmed between the query and the lock
			continue
		}
		if err != nil {
			jp.log.WarnContext(ctx, "Failed to fail overdue booking",
				"booking_id", overdue[i].ID.String(),
				"code", inventory.ErrorCode(err),
				"error", err.Error(),
			)
			result.Errors++
			continue
		}
		if booking.Status == inventory.BookingStatusFailed {
			result.BookingsFailed++
		}
	}
}

// GetJobStatus returns the status of the reaper
func (jp *JobProcessor) GetJobStatus() map[string]interface{} {
	jp.mu.RLock()
	defer jp.mu.RUnlock()

	status := "stopped"
	if jp.running {
		status = "running"
	}

	var lastRun interface{}
	if !jp.lastRun.IsZero() {
		lastRun = jp.lastRun
	}

	return map[string]interface{}{
		"interval":        jp.config.Interval.String(),
		"batch_size":      jp.config.BatchSize,
		"leader_election": jp.leader != nil,
		"status":          status,
		"last_run":        lastRun,
		"last_result":     jp.lastResult,
		"totals":          jp.totals,
	}
}
