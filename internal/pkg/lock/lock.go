// Package lock provides short-lived mutual exclusion across service replicas,
// backed by Redis SET NX with an owner token and a compare-and-delete release.
package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotAcquired is returned when another holder owns the key.
	ErrNotAcquired = errors.New("lock: already held")
	// ErrNotHeld is returned by Release when the lock expired or changed owner.
	ErrNotHeld = errors.New("lock: not held")
	// ErrRelease marks a WithLock error that came from releasing the lease
	// after fn had already run.
	ErrRelease = errors.New("lock: release failed")
)

const (
	defaultPrefix = "lock:"
	defaultTTL    = 30 * time.Second
)

// releaseScript deletes the key only when it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker acquires named locks.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (*Lease, error)
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Redis implements Locker on a redis client.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// Option customizes Redis.
type Option func(*Redis)

// WithPrefix overrides the key prefix (default "lock:").
func WithPrefix(prefix string) Option {
	return func(r *Redis) { r.prefix = prefix }
}

// New returns a Redis locker.
func New(client redis.UniversalClient, opts ...Option) *Redis {
	r := &Redis{client: client, prefix: defaultPrefix}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Lease is a held lock.
type Lease struct {
	client redis.UniversalClient
	key    string
	token  string
}

// Acquire takes the lock for ttl or returns ErrNotAcquired.
func (r *Redis) Acquire(ctx context.Context, key string, ttl time.Duration) (*Lease, error) {
	if ttl <= 0 {
		ttl = defaultTTL
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}

	fk := r.prefix + key
	ok, err := r.client.SetNX(ctx, fk, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotAcquired
	}

	return &Lease{client: r.client, key: fk, token: token}, nil
}

// WithLock runs fn while holding key. The lease is released afterwards even
// when fn fails; a release failure is wrapped in ErrRelease and joined with
// fn's error, so callers can tell it apart from a failed acquire.
func (r *Redis) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	lease, err := r.Acquire(ctx, key, ttl)
	if err != nil {
		return err
	}

	errFn := fn(ctx)
	errRelease := lease.Release(context.WithoutCancel(ctx))
	if errRelease == nil || errors.Is(errRelease, ErrNotHeld) {
		return errFn
	}
	return errors.Join(errFn, fmt.Errorf("%w: %w", ErrRelease, errRelease))
}

// Release frees the lock if this lease still owns it.
func (l *Lease) Release(ctx context.Context) error {
	n, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotHeld
	}
	return nil
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
