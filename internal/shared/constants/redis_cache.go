package constants

import (
	"fmt"
	"time"
)

// Redis Cache Configuration
// This file centralizes all Redis keys and TTL values for the Modex service
// Pattern: modex:{module}:{operation}:{identifier}

// ================== CACHE TTL DURATIONS ==================

const (
	TTL_STATIC_LONG     = 24 * time.Hour  // 24 hours - for immutable records
	TTL_REALTIME_MEDIUM = 1 * time.Minute // 1 minute - for coordination leases
)

// ================== REDIS KEY PREFIXES ==================

const (
	CACHE_PREFIX = "modex"
)

// ================== BOOKINGS MODULE ==================

// Booking Cache Keys
const (
	// Only terminal bookings (CONFIRMED / FAILED) are cached; they never change again
	CACHE_KEY_BOOKING_DETAIL = CACHE_PREFIX + ":bookings:detail:uuid:" // + booking-id
)

// Booking Cache TTLs
const (
	TTL_BOOKING_DETAIL = TTL_STATIC_LONG // 24 hours
)

// ================== RATE LIMIT MODULE ==================

const (
	RATE_LIMIT_KEY_PREFIX = CACHE_PREFIX + ":ratelimit" // + :ip:type
)

// ================== REAPER MODULE ==================

const (
	// Only the replica holding this lease runs the sweep for a tick
	LOCK_KEY_REAPER_LEADER = CACHE_PREFIX + ":reaper:leader"
	TTL_REAPER_LEADER      = TTL_REALTIME_MEDIUM // 1 minute
)

// ================== KEY BUILDERS ==================

// BuildBookingDetailKey creates the cache key for one booking
func BuildBookingDetailKey(bookingID string) string {
	return CACHE_KEY_BOOKING_DETAIL + bookingID
}

// BuildRateLimitKey creates the sliding window key for a client and limit type
func BuildRateLimitKey(clientIP, limitType string) string {
	return fmt.Sprintf("%s:%s:%s", RATE_LIMIT_KEY_PREFIX, clientIP, limitType)
}
