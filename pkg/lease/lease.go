package lease

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lease is a Redis-backed exclusive lease owned by one process at a time.
// A holder that stops renewing loses the lease once the TTL lapses.
type Lease struct {
	client *redis.Client
	key    string
	owner  string
	ttl    time.Duration
}

// Lua script that extends the lease only while we still own it
// KEYS[1] = lease key, ARGV[1] = owner, ARGV[2] = ttl in ms
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// Lua script that deletes the lease only while we still own it
// KEYS[1] = lease key, ARGV[1] = owner
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

// ErrNotHeld is returned by Release when another owner holds the lease
var ErrNotHeld = errors.New("lease not held")

// New creates a lease on key. The owner id is unique per process.
func New(client *redis.Client, key string, ttl time.Duration) *Lease {
	host, _ := os.Hostname()
	return &Lease{
		client: client,
		key:    key,
		owner:  fmt.Sprintf("%s:%s", host, uuid.NewString()),
		ttl:    ttl,
	}
}

// Owner returns the value stored under the key while this process holds it
func (l *Lease) Owner() string {
	return l.owner
}

// Acquire takes the lease, or renews it if already ours.
// It reports false without error when another owner holds it.
func (l *Lease) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.owner, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lease %s: %w", l.key, err)
	}
	if ok {
		return true, nil
	}

	renewed, err := renewScript.Run(ctx, l.client, []string{l.key}, l.owner, l.ttl.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to renew lease %s: %w", l.key, err)
	}
	return renewed == 1, nil
}

// Release gives the lease up if we hold it
func (l *Lease) Release(ctx context.Context) error {
	deleted, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.owner).Int64()
	if err != nil {
		return fmt.Errorf("failed to release lease %s: %w", l.key, err)
	}
	if deleted == 0 {
		return ErrNotHeld
	}
	return nil
}

// PreloadScripts loads the Lua scripts into Redis
func (l *Lease) PreloadScripts(ctx context.Context) error {
	if err := renewScript.Load(ctx, l.client).Err(); err != nil {
		return fmt.Errorf("failed to load renew script: %w", err)
	}
	if err := releaseScript.Load(ctx, l.client).Err(); err != nil {
		return fmt.Errorf("failed to load release script: %w", err)
	}
	return nil
}
