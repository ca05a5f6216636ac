package keystore

import (
	"context"
	"time"

	goToken "github.com/MrEthical07/goToken"
	gocache "github.com/patrickmn/go-cache"
)

// NewCachedKeyFunc caches the keys returned by next per kid for ttl. Headers without a
// kid always reach next, and failures are never cached.
func NewCachedKeyFunc(next goToken.KeyFunc, ttl time.Duration) goToken.KeyFunc {
	c := gocache.New(ttl, time.Minute)
	return func(ctx context.Context, header map[string]any) (any, error) {
		kid, _ := header["kid"].(string)
		if kid == "" {
			return next(ctx, header)
		}
		if key, ok := c.Get(kid); ok {
			return key, nil
		}
		key, err := next(ctx, header)
		if err != nil {
			return nil, err
		}
		c.SetDefault(kid, key)
		return key, nil
	}
}
