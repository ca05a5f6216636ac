package keystore

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	goToken "github.com/MrEthical07/goToken"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newStoreTest(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return NewStore(rdb, "gt"), mr
}

func TestStorePutGetDelete(t *testing.T) {
	store, mr := newStoreTest(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k1", []byte("secret"), time.Minute))
	require.True(t, mr.Exists("gt:key:k1"))

	got, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	require.Equal(t, []byte("secret"), got)

	require.NoError(t, store.Delete(ctx, "k1"))
	require.NoError(t, store.Delete(ctx, "k1"))
	_, err = store.Get(ctx, "k1")
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestStoreTTL(t *testing.T) {
	store, mr := newStoreTest(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k1", []byte("secret"), time.Second))
	mr.FastForward(2 * time.Second)
	_, err := store.Get(ctx, "k1")
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestStoreRedisDown(t *testing.T) {
	store, mr := newStoreTest(t)
	mr.Close()

	_, err := store.Get(context.Background(), "k1")
	require.ErrorIs(t, err, ErrRedisUnavailable)
	_, err = store.Ping(context.Background())
	require.ErrorIs(t, err, ErrRedisUnavailable)
}

func TestStoreKeyFuncSigns(t *testing.T) {
	store, _ := newStoreTest(t)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "k1", []byte("secret"), 0))

	signer, err := goToken.NewSigner(goToken.SignerConfig{Key: store.KeyFunc(), KeyID: "k1"})
	require.NoError(t, err)

	token, err := signer.Sign(ctx, "hello")
	require.NoError(t, err)
	// header {"alg":"HS256","kid":"k1"}
	require.True(t, strings.HasPrefix(token, "eyJhbGciOiJIUzI1NiIsImtpZCI6ImsxIn0.aGVsbG8."), token)

	missing, err := goToken.NewSigner(goToken.SignerConfig{Key: store.KeyFunc(), KeyID: "nope"})
	require.NoError(t, err)
	_, err = missing.Sign(ctx, "hello")
	require.ErrorIs(t, err, goToken.ErrKeyFetching)
	require.ErrorIs(t, err, ErrKeyNotFound)

	noKid, err := goToken.NewSigner(goToken.SignerConfig{Key: store.KeyFunc()})
	require.NoError(t, err)
	_, err = noKid.Sign(ctx, "hello")
	require.True(t, errors.Is(err, ErrMissingKeyID))
}
