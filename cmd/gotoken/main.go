package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	goToken "github.com/MrEthical07/goToken"
	"github.com/MrEthical07/goToken/internal/logger"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootOptions struct {
	configPath string
	envFile    string
	logLevel   string
	logEnv     string

	log *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "gotoken",
		Short:         "Sign and decode compact JSON Web Tokens",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if opts.envFile != "" {
				if err := godotenv.Load(opts.envFile); err != nil {
					return fmt.Errorf("load env file: %w", err)
				}
			}
			l, err := logger.New(logger.Config{Env: opts.logEnv, Level: opts.logLevel})
			if err != nil {
				return fmt.Errorf("build logger: %w", err)
			}
			opts.log = l
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if opts.log != nil {
				_ = opts.log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML signer profile")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", ".env file loaded before reading "+envKey+" and "+envRedisAddr)
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "debug|info|warn|error")
	root.PersistentFlags().StringVar(&opts.logEnv, "log-env", "dev", "dev (console) or prod (JSON)")

	root.AddCommand(newSignCmd(opts), newDecodeCmd(opts), newKeyCmd(opts))
	return root
}

func newSignCmd(opts *rootOptions) *cobra.Command {
	var (
		fc      fileConfig
		raw     bool
		payload string
	)
	cmd := &cobra.Command{
		Use:   "sign [payload]",
		Short: "Sign a JSON object (or, with --raw, an opaque string)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			merged, err := loadFileConfig(opts.configPath)
			if err != nil {
				return err
			}
			mergeFlags(cmd, &merged, fc)
			merged.applyEnv()

			cfg, cleanup, err := merged.signerConfig()
			if err != nil {
				return err
			}
			defer cleanup()
			cfg.Logger = opts.log

			signer, err := goToken.NewSigner(cfg)
			if err != nil {
				return err
			}

			input, err := readInput(cmd, args, payload)
			if err != nil {
				return err
			}
			var body any = input
			if !raw {
				if body, err = parseClaims(input); err != nil {
					return err
				}
			}

			token, err := signer.Sign(cmd.Context(), body)
			if err != nil {
				return err
			}
			opts.log.Debug("token signed", zap.String("alg", signer.Algorithm().String()), zap.Bool("deferred", signer.Deferred()))
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&fc.Key, "key", "", "HMAC secret or PEM private key (env "+envKey+")")
	f.StringVar(&fc.KeyFile, "key-file", "", "file holding the secret or PEM key")
	f.StringVar(&fc.Algorithm, "alg", "", "signing algorithm; defaults to the key's canonical algorithm")
	f.StringVar(&fc.ExpiresIn, "expires-in", "", "exp offset, e.g. 1h")
	f.StringVar(&fc.NotBefore, "not-before", "", "nbf offset, e.g. 30s")
	f.BoolVar(&fc.NoTimestamp, "no-timestamp", false, "omit iat")
	f.StringVar(&fc.JWTID, "jti", "", "token id; \"auto\" generates a UUID")
	f.StringSliceVar(&fc.Audience, "aud", nil, "audience, repeatable")
	f.StringVar(&fc.Issuer, "iss", "", "issuer")
	f.StringVar(&fc.Subject, "sub", "", "subject")
	f.StringVar(&fc.Nonce, "nonce", "", "nonce")
	f.StringVar(&fc.KeyID, "kid", "", "key id header; also the redis lookup key")
	f.StringVar(&fc.Redis.Addr, "redis-addr", "", "resolve keys by kid from redis (env "+envRedisAddr+")")
	f.StringVar(&fc.Redis.Prefix, "redis-prefix", "", "redis key prefix (default gotoken)")
	f.StringVar(&fc.Redis.CacheTTL, "key-cache-ttl", "", "cache resolved keys for this long")
	f.BoolVar(&raw, "raw", false, "sign the payload as an opaque string")
	f.StringVar(&payload, "payload", "", "payload; defaults to the argument or stdin")
	return cmd
}

// mergeFlags copies the explicitly set flags of cmd over dst.
func mergeFlags(cmd *cobra.Command, dst *fileConfig, src fileConfig) {
	set := func(name string) bool { return cmd.Flags().Changed(name) }
	if set("key") {
		dst.Key, dst.KeyFile = src.Key, ""
	}
	if set("key-file") {
		dst.KeyFile, dst.Key = src.KeyFile, ""
	}
	if set("alg") {
		dst.Algorithm = src.Algorithm
	}
	if set("expires-in") {
		dst.ExpiresIn = src.ExpiresIn
	}
	if set("not-before") {
		dst.NotBefore = src.NotBefore
	}
	if set("no-timestamp") {
		dst.NoTimestamp = src.NoTimestamp
	}
	if set("jti") {
		dst.JWTID = src.JWTID
	}
	if set("aud") {
		dst.Audience = src.Audience
	}
	if set("iss") {
		dst.Issuer = src.Issuer
	}
	if set("sub") {
		dst.Subject = src.Subject
	}
	if set("nonce") {
		dst.Nonce = src.Nonce
	}
	if set("kid") {
		dst.KeyID = src.KeyID
	}
	if set("redis-addr") {
		dst.Redis.Addr = src.Redis.Addr
	}
	if set("redis-prefix") {
		dst.Redis.Prefix = src.Redis.Prefix
	}
	if set("key-cache-ttl") {
		dst.Redis.CacheTTL = src.Redis.CacheTTL
	}
}

func readInput(cmd *cobra.Command, args []string, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if len(args) == 1 {
		return args[0], nil
	}
	raw, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimRight(string(raw), "\r\n"), nil
}

func parseClaims(input string) (map[string]any, error) {
	if strings.TrimSpace(input) == "" {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(strings.NewReader(input))
	dec.UseNumber()
	var claims map[string]any
	if err := dec.Decode(&claims); err != nil {
		return nil, fmt.Errorf("payload must be a JSON object (use --raw for strings): %w", err)
	}
	if claims == nil {
		return nil, fmt.Errorf("payload must be a JSON object (use --raw for strings)")
	}
	return claims, nil
}

func newDecodeCmd(opts *rootOptions) *cobra.Command {
	var cfg goToken.DecoderConfig
	cmd := &cobra.Command{
		Use:   "decode [token]",
		Short: "Decode a token without verifying its signature",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := readInput(cmd, args, "")
			if err != nil {
				return err
			}
			cfg.Logger = opts.log
			out, err := goToken.NewDecoder(cfg).Decode(strings.TrimSpace(token))
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			enc := json.NewEncoder(&buf)
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return fmt.Errorf("encode output: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(buf.Bytes())
			return err
		},
	}
	cmd.Flags().BoolVar(&cfg.Complete, "complete", false, "print header, payload, signature and input")
	cmd.Flags().BoolVar(&cfg.JSON, "json", false, "parse the payload as JSON even without typ JWT")
	return cmd
}

func newKeyCmd(opts *rootOptions) *cobra.Command {
	var (
		addr, prefix, kid, keyFile, ttl string
		remove                          bool
	)
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Store or delete a signing key in redis under its kid",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = os.Getenv(envRedisAddr)
			}
			if addr == "" || kid == "" {
				return fmt.Errorf("--redis-addr (or %s) and --kid are required", envRedisAddr)
			}
			client := redis.NewClient(&redis.Options{Addr: addr})
			defer client.Close()
			store := newKeyStore(client, prefix)

			ctx := cmd.Context()
			if remove {
				return store.Delete(ctx, kid)
			}

			var material []byte
			if keyFile != "" {
				raw, err := os.ReadFile(keyFile)
				if err != nil {
					return fmt.Errorf("read key file: %w", err)
				}
				material = raw
			} else {
				material = []byte(os.Getenv(envKey))
			}
			if len(material) == 0 {
				return fmt.Errorf("--key-file or %s is required", envKey)
			}
			expiry, err := parseDuration("ttl", ttl)
			if err != nil {
				return err
			}
			if err := store.Put(ctx, kid, material, expiry); err != nil {
				return err
			}
			opts.log.Info("key stored", zap.String("kid", kid))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&addr, "redis-addr", "", "redis address (env "+envRedisAddr+")")
	f.StringVar(&prefix, "redis-prefix", "", "redis key prefix (default gotoken)")
	f.StringVar(&kid, "kid", "", "key id")
	f.StringVar(&keyFile, "key-file", "", "file holding the secret or PEM key (default env "+envKey+")")
	f.StringVar(&ttl, "ttl", "", "expire the key after this long")
	f.BoolVar(&remove, "delete", false, "delete the key instead of storing it")
	return cmd
}
