package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"flag"
	"fmt"
	mrand "math/rand"
	"os"
	"time"

	goToken "github.com/MrEthical07/goToken"
	"github.com/MrEthical07/goToken/keystore"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		keys        = flag.Int("keys", 64, "number of signing keys to seed in redis")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (sign, deferred sign, decode)")
		alg         = flag.String("alg", "HS256", "signing algorithm: HS256, RS256 or ES256")
		cacheTTL    = flag.Duration("key-cache-ttl", 0, "cache deferred keys in process for this long")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "gotoken", "key store prefix")
	)
	flag.Parse()

	if *keys <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "keys, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	material, err := generateKey(*alg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate key: %v\n", err)
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	store := keystore.NewStore(client, *prefix)

	fmt.Printf("seeding %d keys...\n", *keys)
	startSeed := time.Now()
	for i := 0; i < *keys; i++ {
		if err := store.Put(ctx, kidFor(i), material, time.Hour); err != nil {
			fmt.Fprintf(os.Stderr, "put failed: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	metrics := goToken.NewMetrics(goToken.MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	immediate, err := goToken.NewSigner(goToken.SignerConfig{
		Key:       material,
		Algorithm: *alg,
		ExpiresIn: time.Hour,
		Metrics:   metrics,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "signer: %v\n", err)
		os.Exit(1)
	}

	keyFunc := store.KeyFunc()
	if *cacheTTL > 0 {
		keyFunc = keystore.NewCachedKeyFunc(keyFunc, *cacheTTL)
	}
	deferredSigners := make([]*goToken.Signer, *keys)
	for i := range deferredSigners {
		deferredSigners[i], err = goToken.NewSigner(goToken.SignerConfig{
			Key:       keyFunc,
			Algorithm: *alg,
			KeyID:     kidFor(i),
			ExpiresIn: time.Hour,
			Metrics:   metrics,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "deferred signer: %v\n", err)
			os.Exit(1)
		}
	}

	tokens := make([]string, *keys)
	for i := range tokens {
		tokens[i], err = immediate.Sign(ctx, payloadFor(i))
		if err != nil {
			fmt.Fprintf(os.Stderr, "seed token: %v\n", err)
			os.Exit(1)
		}
	}
	decoder := goToken.NewDecoder(goToken.DecoderConfig{Metrics: metrics})

	signStats := runPhase(*ops, *concurrency, func(r *mrand.Rand, i int) error {
		_, err := immediate.Sign(ctx, payloadFor(i))
		return err
	})
	deferredStats := runPhase(*ops, *concurrency, func(r *mrand.Rand, i int) error {
		_, err := deferredSigners[r.Intn(len(deferredSigners))].Sign(ctx, payloadFor(i))
		return err
	})
	decodeStats := runPhase(*ops, *concurrency, func(r *mrand.Rand, _ int) error {
		_, err := decoder.Decode(tokens[r.Intn(len(tokens))])
		return err
	})

	fmt.Println("---- results ----")
	printStats("sign", signStats)
	printStats("sign-deferred", deferredStats)
	printStats("decode", decodeStats)

	snap := metrics.Snapshot()
	fmt.Printf("metrics: sign_success=%d sign_failure=%d key_fetch_failure=%d decode_success=%d decode_failure=%d\n",
		snap.Counters[goToken.MetricSignSuccess],
		snap.Counters[goToken.MetricSignFailure],
		snap.Counters[goToken.MetricKeyFetchFailure],
		snap.Counters[goToken.MetricDecodeSuccess],
		snap.Counters[goToken.MetricDecodeFailure],
	)
}

func kidFor(i int) string {
	return fmt.Sprintf("kid-%d", i)
}

func payloadFor(i int) map[string]any {
	return map[string]any{"sub": fmt.Sprintf("user-%d", i), "scope": "read"}
}

func generateKey(alg string) ([]byte, error) {
	switch alg {
	case "HS256":
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, err
		}
		return secret, nil
	case "RS256":
		k, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			return nil, err
		}
		return pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(k)}), nil
	case "ES256":
		k, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return nil, err
		}
		der, err := x509.MarshalECPrivateKey(k)
		if err != nil {
			return nil, err
		}
		return pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}), nil
	default:
		return nil, fmt.Errorf("unsupported algorithm %q", alg)
	}
}
