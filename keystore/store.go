package keystore

import (
	"context"
	"errors"
	"fmt"
	"time"

	goToken "github.com/MrEthical07/goToken"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrMissingKeyID is returned when the header being signed has no string kid.
	ErrMissingKeyID = errors.New("keystore: header has no kid")
	// ErrKeyNotFound is returned when no key is stored under the requested kid.
	ErrKeyNotFound = errors.New("keystore: key not found")
	// ErrRedisUnavailable wraps transport failures.
	ErrRedisUnavailable = errors.New("keystore: redis unavailable")
)

// Store holds PEM or secret key material in Redis, keyed by key ID.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore returns a Store that namespaces its keys under prefix.
func NewStore(redis redis.UniversalClient, prefix string) *Store {
	return &Store{redis: redis, prefix: prefix}
}

func (s *Store) key(kid string) string {
	return s.prefix + ":key:" + kid
}

// Put stores material under kid. A zero ttl keeps the key until it is deleted.
func (s *Store) Put(ctx context.Context, kid string, material []byte, ttl time.Duration) error {
	if kid == "" {
		return ErrMissingKeyID
	}
	if err := s.redis.Set(ctx, s.key(kid), material, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Get returns the material stored under kid.
func (s *Store) Get(ctx context.Context, kid string) ([]byte, error) {
	if kid == "" {
		return nil, ErrMissingKeyID
	}
	material, err := s.redis.Get(ctx, s.key(kid)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, kid)
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return material, nil
}

// Delete removes kid. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, kid string) error {
	if err := s.redis.Del(ctx, s.key(kid)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Ping reports the round-trip latency to Redis.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}

// KeyFunc resolves the kid of each signed header against the store.
func (s *Store) KeyFunc() goToken.KeyFunc {
	return func(ctx context.Context, header map[string]any) (any, error) {
		kid, _ := header["kid"].(string)
		return s.Get(ctx, kid)
	}
}
