package main

import (
	"fmt"
	"os"
	"time"

	goToken "github.com/MrEthical07/goToken"
	"github.com/MrEthical07/goToken/keystore"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

const (
	envKey       = "GOTOKEN_KEY"
	envRedisAddr = "GOTOKEN_REDIS_ADDR"
)

// fileConfig is the YAML shape of a signer profile. Flags override its fields.
type fileConfig struct {
	Key       string `yaml:"key"`
	KeyFile   string `yaml:"key_file"`
	Algorithm string `yaml:"algorithm"`

	ExpiresIn   string `yaml:"expires_in"`
	NotBefore   string `yaml:"not_before"`
	NoTimestamp bool   `yaml:"no_timestamp"`

	JWTID    string         `yaml:"jti"`
	Audience []string       `yaml:"aud"`
	Issuer   string         `yaml:"iss"`
	Subject  string         `yaml:"sub"`
	Nonce    string         `yaml:"nonce"`
	KeyID    string         `yaml:"kid"`
	Header   map[string]any `yaml:"header"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Prefix   string `yaml:"prefix"`
		CacheTTL string `yaml:"cache_ttl"`
	} `yaml:"redis"`
}

func loadFileConfig(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fc, fmt.Errorf("parse config %s: %w", path, err)
	}
	return fc, nil
}

// applyEnv fills fields left empty by the file and flags.
func (fc *fileConfig) applyEnv() {
	if fc.Key == "" && fc.KeyFile == "" {
		fc.Key = os.Getenv(envKey)
	}
	if fc.Redis.Addr == "" {
		fc.Redis.Addr = os.Getenv(envRedisAddr)
	}
}

func parseDuration(name, v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}

// signerConfig resolves fc into a SignerConfig. The returned cleanup closes the Redis
// client of a key-store profile.
func (fc fileConfig) signerConfig() (goToken.SignerConfig, func(), error) {
	cleanup := func() {}
	cfg := goToken.SignerConfig{
		Algorithm:   fc.Algorithm,
		NoTimestamp: fc.NoTimestamp,
		JWTID:       fc.JWTID,
		Audience:    fc.Audience,
		Issuer:      fc.Issuer,
		Subject:     fc.Subject,
		Nonce:       fc.Nonce,
		KeyID:       fc.KeyID,
		Header:      fc.Header,
	}
	if cfg.JWTID == "auto" {
		cfg.JWTID = uuid.NewString()
	}

	var err error
	if cfg.ExpiresIn, err = parseDuration("expires_in", fc.ExpiresIn); err != nil {
		return cfg, cleanup, err
	}
	if cfg.NotBefore, err = parseDuration("not_before", fc.NotBefore); err != nil {
		return cfg, cleanup, err
	}

	switch {
	case fc.Redis.Addr != "":
		if fc.KeyID == "" {
			return cfg, cleanup, fmt.Errorf("a kid is required to look keys up in redis")
		}
		ttl, err := parseDuration("redis.cache_ttl", fc.Redis.CacheTTL)
		if err != nil {
			return cfg, cleanup, err
		}
		client := redis.NewClient(&redis.Options{Addr: fc.Redis.Addr})
		cleanup = func() { _ = client.Close() }
		keyFunc := newKeyStore(client, fc.Redis.Prefix).KeyFunc()
		if ttl > 0 {
			keyFunc = keystore.NewCachedKeyFunc(keyFunc, ttl)
		}
		cfg.Key = keyFunc
	case fc.KeyFile != "":
		raw, err := os.ReadFile(fc.KeyFile)
		if err != nil {
			return cfg, cleanup, fmt.Errorf("read key file: %w", err)
		}
		cfg.Key = raw
	case fc.Key != "":
		cfg.Key = fc.Key
	}
	return cfg, cleanup, nil
}

func newKeyStore(client redis.UniversalClient, prefix string) *keystore.Store {
	if prefix == "" {
		prefix = "gotoken"
	}
	return keystore.NewStore(client, prefix)
}
