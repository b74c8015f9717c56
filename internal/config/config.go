// Package config manages dhcpauthd daemon configuration using koanf/v2.
//
// Supports YAML files and environment variables layered on top of
// built-in defaults.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/dantte-lp/dhcpauthd/internal/dhcpauth"
)

// -------------------------------------------------------------------------
// Configuration Structures
// -------------------------------------------------------------------------

// Config holds the complete dhcpauthd configuration.
type Config struct {
	Auth    AuthConfig    `koanf:"auth"`
	Tokens  []TokenConfig `koanf:"tokens"`
	Replay  ReplayConfig  `koanf:"replay"`
	Metrics MetricsConfig `koanf:"metrics"`
	Log     LogConfig     `koanf:"log"`
}

// AuthConfig holds the authentication policy applied to every DHCP
// session this daemon authenticates (RFC 3118 Section 3, RFC 3315
// Section 21.1).
type AuthConfig struct {
	// Protocol is one of "token", "delayed", "delayed_realm",
	// "reconf_key".
	Protocol string `koanf:"protocol"`
	// Algorithm is the keyed-hash algorithm; only "hmac-md5" is
	// currently supported.
	Algorithm string `koanf:"algorithm"`
	// RDM is the replay detection method; only "monotonic" is
	// currently supported.
	RDM string `koanf:"rdm"`
	// Send sets dhcpauth.AuthOptionSend. When true, incoming options must
	// match the configured protocol, algorithm and rdm; when false, only
	// RECONF_KEY options are accepted on input.
	Send bool `koanf:"send"`
}

// Policy translates the configured strings into an dhcpauth.AuthPolicy.
func (ac AuthConfig) Policy() (dhcpauth.AuthPolicy, error) {
	protocol, err := parseAuthProtocol(ac.Protocol)
	if err != nil {
		return dhcpauth.AuthPolicy{}, err
	}
	algorithm, err := parseAuthAlgorithm(ac.Algorithm)
	if err != nil {
		return dhcpauth.AuthPolicy{}, err
	}
	rdm, err := parseReplayDetectionMethod(ac.RDM)
	if err != nil {
		return dhcpauth.AuthPolicy{}, err
	}
	var opts dhcpauth.AuthOptions
	if ac.Send {
		opts |= dhcpauth.AuthOptionSend
	}
	return dhcpauth.AuthPolicy{Protocol: protocol, Algorithm: algorithm, RDM: rdm, Options: opts}, nil
}

func parseAuthProtocol(s string) (dhcpauth.AuthProtocol, error) {
	switch strings.ToLower(s) {
	case "token":
		return dhcpauth.AuthProtocolToken, nil
	case "delayed":
		return dhcpauth.AuthProtocolDelayed, nil
	case "delayed_realm":
		return dhcpauth.AuthProtocolDelayedRealm, nil
	case "reconf_key":
		return dhcpauth.AuthProtocolReconfKey, nil
	default:
		return 0, fmt.Errorf("auth.protocol %q: %w", s, ErrInvalidAuthProtocol)
	}
}

func parseAuthAlgorithm(s string) (dhcpauth.AuthAlgorithm, error) {
	switch strings.ToLower(s) {
	case "hmac-md5":
		return dhcpauth.AuthAlgorithmHMACMD5, nil
	default:
		return 0, fmt.Errorf("auth.algorithm %q: %w", s, ErrInvalidAuthAlgorithm)
	}
}

func parseReplayDetectionMethod(s string) (dhcpauth.ReplayDetectionMethod, error) {
	switch strings.ToLower(s) {
	case "monotonic":
		return dhcpauth.ReplayDetectionMonotonic, nil
	default:
		return 0, fmt.Errorf("auth.rdm %q: %w", s, ErrInvalidReplayDetectionMethod)
	}
}

// TokenConfig describes one configured shared secret. KeyHex is the raw
// key encoded as hex, since YAML/env have no native byte-string type.
type TokenConfig struct {
	SecretID uint32 `koanf:"secret_id"`
	Realm    string `koanf:"realm"`
	KeyHex   string `koanf:"key"`
	// ExpireAt is an RFC 3339 timestamp, or empty if the token never
	// expires.
	ExpireAt string `koanf:"expire_at"`
}

// Token decodes tc into a dhcpauth.Token.
func (tc TokenConfig) Token() (*dhcpauth.Token, error) {
	key, err := hex.DecodeString(tc.KeyHex)
	if err != nil {
		return nil, fmt.Errorf("token (secret_id=%d) key: %w", tc.SecretID, err)
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("token (secret_id=%d): %w", tc.SecretID, ErrEmptyTokenKey)
	}
	t := &dhcpauth.Token{SecretID: tc.SecretID, Key: key}
	if tc.Realm != "" {
		t.Realm = []byte(tc.Realm)
	}
	if tc.ExpireAt != "" {
		exp, err := time.Parse(time.RFC3339, tc.ExpireAt)
		if err != nil {
			return nil, fmt.Errorf("token (secret_id=%d) expire_at %q: %w", tc.SecretID, tc.ExpireAt, err)
		}
		t.Expire = &exp
	}
	return t, nil
}

// ReplayConfig holds the durable replay counter's storage location.
type ReplayConfig struct {
	// Path is the counter file path on disk.
	Path string `koanf:"path"`
}

// MetricsConfig holds the Prometheus metrics endpoint configuration.
type MetricsConfig struct {
	// Addr is the HTTP listen address for the metrics endpoint (e.g., ":9100").
	Addr string `koanf:"addr"`
	// Path is the URL path for the metrics endpoint (e.g., "/metrics").
	Path string `koanf:"path"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `koanf:"level"`
	// Format is the log output format: "json" or "text".
	Format string `koanf:"format"`
}

// -------------------------------------------------------------------------
// Defaults
// -------------------------------------------------------------------------

// DefaultConfig returns a Config populated with sensible defaults. No
// tokens are configured by default; at least one must be supplied before
// Validate succeeds for a protocol other than "reconf_key".
func DefaultConfig() *Config {
	return &Config{
		Auth: AuthConfig{
			Protocol:  "delayed",
			Algorithm: "hmac-md5",
			RDM:       "monotonic",
			Send:      true,
		},
		Replay: ReplayConfig{
			Path: "/var/lib/dhcpauthd/replay.counter",
		},
		Metrics: MetricsConfig{
			Addr: ":9100",
			Path: "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// -------------------------------------------------------------------------
// Loader
// -------------------------------------------------------------------------

// envPrefix is the environment variable prefix for dhcpauthd configuration.
// Variables are named DHCPAUTHD_<section>_<key>, e.g., DHCPAUTHD_AUTH_PROTOCOL.
const envPrefix = "DHCPAUTHD_"

// Load reads configuration from a YAML file at path, overlays environment
// variable overrides (DHCPAUTHD_ prefix), and merges on top of
// DefaultConfig(). Missing fields inherit defaults.
//
// Environment variable mapping:
//
//	DHCPAUTHD_AUTH_PROTOCOL  -> auth.protocol
//	DHCPAUTHD_AUTH_ALGORITHM -> auth.algorithm
//	DHCPAUTHD_AUTH_RDM       -> auth.rdm
//	DHCPAUTHD_REPLAY_PATH    -> replay.path
//	DHCPAUTHD_METRICS_ADDR   -> metrics.addr
//	DHCPAUTHD_LOG_LEVEL      -> log.level
//
// Tokens are not overridable via environment variables; they are only
// read from the YAML file, since secret material in process environment
// variables is visible to every other process sharing the host.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := DefaultConfig()
	if err := loadDefaults(k, defaults); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load config from %s: %w", path, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config from %s: %w", path, err)
	}

	return cfg, nil
}

// envKeyMapper transforms DHCPAUTHD_AUTH_PROTOCOL -> auth.protocol.
// Strips the DHCPAUTHD_ prefix, lowercases, and replaces _ with .
//
// Keys under "tokens" never reach here: koanf's env provider only
// overrides scalar leaves already present from the file/default layers,
// and the token slice has no environment-addressable leaves by design.
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "_", ".")
}

// loadDefaults marshals the default config into koanf as the base layer.
func loadDefaults(k *koanf.Koanf, defaults *Config) error {
	defaultMap := map[string]any{
		"auth.protocol":  defaults.Auth.Protocol,
		"auth.algorithm": defaults.Auth.Algorithm,
		"auth.rdm":       defaults.Auth.RDM,
		"auth.send":      defaults.Auth.Send,
		"replay.path":    defaults.Replay.Path,
		"metrics.addr":   defaults.Metrics.Addr,
		"metrics.path":   defaults.Metrics.Path,
		"log.level":      defaults.Log.Level,
		"log.format":     defaults.Log.Format,
	}

	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

// -------------------------------------------------------------------------
// Validation
// -------------------------------------------------------------------------

// Validation errors.
var (
	ErrInvalidAuthProtocol          = errors.New("auth.protocol must be one of token, delayed, delayed_realm, reconf_key")
	ErrInvalidAuthAlgorithm         = errors.New("auth.algorithm must be hmac-md5")
	ErrInvalidReplayDetectionMethod = errors.New("auth.rdm must be monotonic")
	ErrEmptyReplayPath              = errors.New("replay.path must not be empty")
	ErrEmptyTokenKey                = errors.New("token key must not be empty")
	ErrDuplicateToken               = errors.New("duplicate token secret_id/realm")
	ErrNoTokensConfigured           = errors.New("at least one token must be configured for this protocol")
)

// Validate checks the configuration for logical errors.
// Returns the first validation error encountered.
func Validate(cfg *Config) error {
	policy, err := cfg.Auth.Policy()
	if err != nil {
		return err
	}

	if cfg.Replay.Path == "" {
		return ErrEmptyReplayPath
	}

	if err := validateTokens(cfg.Tokens); err != nil {
		return err
	}

	if policy.Protocol != dhcpauth.AuthProtocolReconfKey && len(cfg.Tokens) == 0 {
		return ErrNoTokensConfigured
	}

	return nil
}

// validateTokens decodes and uniqueness-checks every configured token.
func validateTokens(tokens []TokenConfig) error {
	seen := make(map[string]struct{}, len(tokens))
	for i, tc := range tokens {
		if _, err := tc.Token(); err != nil {
			return fmt.Errorf("tokens[%d]: %w", i, err)
		}
		key := fmt.Sprintf("%d|%s", tc.SecretID, tc.Realm)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("tokens[%d] (secret_id=%d realm=%q): %w", i, tc.SecretID, tc.Realm, ErrDuplicateToken)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// TokenStore builds a dhcpauth.MemoryTokenStore from the configured
// tokens.
func (c *Config) TokenStore() (*dhcpauth.MemoryTokenStore, error) {
	tokens := make([]*dhcpauth.Token, 0, len(c.Tokens))
	for i, tc := range c.Tokens {
		t, err := tc.Token()
		if err != nil {
			return nil, fmt.Errorf("tokens[%d]: %w", i, err)
		}
		tokens = append(tokens, t)
	}
	return dhcpauth.NewMemoryTokenStore(tokens...), nil
}

// -------------------------------------------------------------------------
// Log Level Parsing
// -------------------------------------------------------------------------

// ParseLogLevel maps a configuration log level string to the corresponding
// slog.Level. Unknown values default to slog.LevelInfo.
//
// Recognized values: "debug", "info", "warn", "error" (case-insensitive).
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
