package goToken

import (
	"context"
	"sync"
)

// KeyFunc resolves signing key material for a token about to be signed. header is a
// private copy of the partially built header; alg is present only when the Signer was
// configured with an algorithm. The returned key must be a string or []byte holding an
// HMAC secret or a PEM private key.
//
// KeyFunc may block. The Signer calls it once per signing call, never retries it, and
// waits for it without a timeout; ctx is the caller's context, passed through unchanged.
type KeyFunc func(ctx context.Context, header map[string]any) (any, error)

// KeyCallbackFunc is the completion-callback form of [KeyFunc]. The function must call
// done exactly once; later calls are ignored. A KeyCallbackFunc that never calls done
// leaves the signing call pending.
type KeyCallbackFunc func(ctx context.Context, header map[string]any, done func(key any, err error))

type keyResult struct {
	key any
	err error
}

// keyProvider is the single suspension point of deferred signing: both calling
// conventions are reduced to a one-shot future.
type keyProvider interface {
	fetch(ctx context.Context, header map[string]any) <-chan keyResult
}

func (f KeyFunc) fetch(ctx context.Context, header map[string]any) <-chan keyResult {
	out := make(chan keyResult, 1)
	go func() {
		key, err := f(ctx, header)
		out <- keyResult{key: key, err: err}
	}()
	return out
}

func (f KeyCallbackFunc) fetch(ctx context.Context, header map[string]any) <-chan keyResult {
	out := make(chan keyResult, 1)
	var once sync.Once
	done := func(key any, err error) {
		once.Do(func() {
			out <- keyResult{key: key, err: err}
		})
	}
	go f(ctx, header, done)
	return out
}
