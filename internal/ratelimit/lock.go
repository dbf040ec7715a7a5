package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

var (
	ErrLockNotConfigured = errors.New("lock client not configured")
	ErrLeaseHeld         = errors.New("lease held by another owner")
)

// compare-and-delete so an expired lease never removes its successor's key
var releaseLease = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker hands out Redis leases used to elect one sweeping replica.
type Locker struct {
	client *redis.Client
}

// Lease is an acquired key; it expires on its own after the TTL.
type Lease struct {
	client *redis.Client
	key    string
	owner  string
}

func NewLocker(client *redis.Client) *Locker {
	if client == nil {
		return nil
	}
	return &Locker{client: client}
}

func (l *Locker) Enabled() bool {
	return l != nil && l.client != nil
}

// Acquire returns ErrLeaseHeld when another owner has the key.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (*Lease, error) {
	if !l.Enabled() {
		return nil, ErrLockNotConfigured
	}
	if key == "" || ttl <= 0 {
		return nil, errors.New("lease needs a key and a positive ttl")
	}

	owner := uuid.NewString()
	err := l.client.SetArgs(ctx, key, owner, redis.SetArgs{Mode: "NX", TTL: ttl}).Err()
	if errors.Is(err, redis.Nil) {
		return nil, ErrLeaseHeld
	}
	if err != nil {
		return nil, err
	}
	return &Lease{client: l.client, key: key, owner: owner}, nil
}

func (l *Lease) Release(ctx context.Context) error {
	if l == nil {
		return nil
	}
	return releaseLease.Run(ctx, l.client, []string{l.key}, l.owner).Err()
}
