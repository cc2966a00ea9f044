package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger wraps slog.Logger with additional functionality
type Logger struct {
	*slog.Logger
}

// New creates a new logger instance writing to stdout
func New() *Logger {
	return NewWithWriter(os.Stdout, os.Getenv("LOG_LEVEL"))
}

// NewWithWriter creates a logger writing to w at the given level
func NewWithWriter(w io.Writer, levelStr string) *Logger {
	level := getLogLevel(levelStr)

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	// Text is easier to read in development, JSON is structured for production
	var handler slog.Handler
	if gin.Mode() == gin.DebugMode {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// getLogLevel converts string to slog.Level
func getLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithComponent tags every record with the emitting component
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger: l.Logger.With(slog.String("component", component)),
	}
}

// HTTP logging methods

// LogHTTPRequest logs an HTTP request
func (l *Logger) LogHTTPRequest(c *gin.Context, duration time.Duration) {
	l.Logger.InfoContext(c.Request.Context(),
		"HTTP Request",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("query", c.Request.URL.RawQuery),
		slog.Int("status", c.Writer.Status()),
		slog.Duration("duration", duration),
		slog.String("ip", c.ClientIP()),
		slog.String("user_agent", c.Request.UserAgent()),
		slog.Int("size", c.Writer.Size()),
	)
}

// LogRateLimitExceeded logs rate limit exceeded
func (l *Logger) LogRateLimitExceeded(ctx context.Context, ip, endpoint string) {
	l.Logger.WarnContext(ctx,
		"Rate Limit Exceeded",
		slog.String("ip", ip),
		slog.String("endpoint", endpoint),
	)
}

// Reservation logging methods

// LogBookingConfirmed logs when seats are booked
func (l *Logger) LogBookingConfirmed(ctx context.Context, bookingID, showID, userID string, seatCount int) {
	l.Logger.InfoContext(ctx,
		"Booking Confirmed",
		slog.String("booking_id", bookingID),
		slog.String("show_id", showID),
		slog.String("user_id", userID),
		slog.Int("seats", seatCount),
	)
}

// LogBookingFailed logs when a pending booking is failed
func (l *Logger) LogBookingFailed(ctx context.Context, bookingID, showID string, released int) {
	l.Logger.InfoContext(ctx,
		"Booking Failed",
		slog.String("booking_id", bookingID),
		slog.String("show_id", showID),
		slog.Int("seats_released", released),
	)
}

// LogSeatsHeld logs a granted seat lease
func (l *Logger) LogSeatsHeld(ctx context.Context, showID string, seatCount int, lockedUntil time.Time) {
	l.Logger.InfoContext(ctx,
		"Seats Held",
		slog.String("show_id", showID),
		slog.Int("seats", seatCount),
		slog.Time("locked_until", lockedUntil),
	)
}

// LogContention logs a request rejected because seat rows were locked elsewhere
func (l *Logger) LogContention(ctx context.Context, operation, showID string) {
	l.Logger.DebugContext(ctx,
		"Seat Lock Contention",
		slog.String("operation", operation),
		slog.String("show_id", showID),
	)
}

// LogSweep logs the outcome of one reaper pass
func (l *Logger) LogSweep(ctx context.Context, reclaimed, failed, errors int, duration time.Duration) {
	level := slog.LevelDebug
	if reclaimed > 0 || failed > 0 {
		level = slog.LevelInfo
	}
	if errors > 0 {
		level = slog.LevelWarn
	}
	l.Logger.Log(ctx, level,
		"Lease Sweep",
		slog.Int("seats_reclaimed", reclaimed),
		slog.Int("bookings_failed", failed),
		slog.Int("errors", errors),
		slog.Duration("duration", duration),
	)
}

// Global logger instance (can be replaced with dependency injection)
var defaultLogger = New()

// GetDefault returns the default logger instance
func GetDefault() *Logger {
	return defaultLogger
}

// SetDefault sets the default logger instance
func SetDefault(logger *Logger) {
	defaultLogger = logger
}
