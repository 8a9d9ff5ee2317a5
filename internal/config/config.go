// Package config provides configuration loading and parsing for networksession.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/samber/mo"

	"github.com/wikimedia/mediawiki-extensions-NetworkSession/internal/auth"
)

// RuntimeConfig defines the interface for accessing runtime configuration that supports hot-reload.
// Components that need to observe config changes should use this interface instead of
// holding a direct *Config pointer, which would become stale after hot-reload.
//
// Usage pattern:
//
//	func (m *Middleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
//		cfg := m.runtime.Get()
//		engine := auth.NewEngine(cfg.NetworkSession.WikiID, cfg.NetworkSession.Principals())
//		// evaluate this request against the snapshot...
//	}
type RuntimeConfig interface {
	Get() *Config
}

// Log level constants.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Config represents the complete networksession configuration.
type Config struct {
	NetworkSession NetworkSessionConfig `yaml:"network_session" toml:"network_session"`
	Accounts       AccountsConfig       `yaml:"accounts" toml:"accounts"`
	Logging        LoggingConfig        `yaml:"logging" toml:"logging"`
	Server         ServerConfig         `yaml:"server" toml:"server"`
}

// ServerConfig defines server-level settings.
type ServerConfig struct {
	// RequireHTTPS rejects requests carrying a NetworkSession credential over
	// plain HTTP. Defaults to true when unset.
	RequireHTTPS *bool `yaml:"require_https" toml:"require_https"`

	Listen string `yaml:"listen" toml:"listen"`

	// TrustedProxies lists range specifiers (address, low-high, CIDR) of
	// reverse proxies whose X-Forwarded-For and X-Forwarded-Proto headers are honored.
	TrustedProxies []string `yaml:"trusted_proxies" toml:"trusted_proxies"`

	APIKey           APIKeyConfig       `yaml:"api_key" toml:"api_key"`
	AuthFailureLimit FailureLimitConfig `yaml:"auth_failure_limit" toml:"auth_failure_limit"`
	TimeoutMS        int                `yaml:"timeout_ms" toml:"timeout_ms"`
	EnableHTTP2      bool               `yaml:"enable_http2" toml:"enable_http2"` // Enable HTTP/2 cleartext (h2c) support
}

// IsHTTPSRequired returns the effective require_https setting.
func (s *ServerConfig) IsHTTPSRequired() bool {
	if s.RequireHTTPS == nil {
		return true
	}
	return *s.RequireHTTPS
}

// GetTimeoutOption returns the timeout as an Option.
// Returns None if TimeoutMS is zero (use default).
func (s *ServerConfig) GetTimeoutOption() mo.Option[time.Duration] {
	if s.TimeoutMS <= 0 {
		return mo.None[time.Duration]()
	}
	return mo.Some(time.Duration(s.TimeoutMS) * time.Millisecond)
}

// APIKeyConfig enables the optional x-api-key authenticator.
type APIKeyConfig struct {
	// Key is the expected x-api-key value (supports ${ENV_VAR}).
	// If empty, API key authentication is disabled.
	Key string `yaml:"key" toml:"key"`
	// Username is the account a valid key authenticates as.
	Username string `yaml:"username" toml:"username"`
}

// IsEnabled returns true if API key authentication is configured.
func (a *APIKeyConfig) IsEnabled() bool {
	return a.Key != ""
}

// FailureLimitConfig throttles clients that keep failing authentication.
type FailureLimitConfig struct {
	// PerMinute is the sustained number of failed attempts allowed per client address.
	// Zero disables throttling.
	PerMinute int `yaml:"per_minute" toml:"per_minute"`
	// Burst is the number of failures allowed at once. Defaults to PerMinute.
	Burst int `yaml:"burst" toml:"burst"`
	// MaxClients bounds the number of client addresses tracked at once.
	MaxClients int64 `yaml:"max_clients" toml:"max_clients"`
	// TTLSeconds is how long an idle client's bucket is kept. Defaults to 600.
	TTLSeconds int `yaml:"ttl_seconds" toml:"ttl_seconds"`
}

// IsEnabled returns true if failure throttling is on.
func (f *FailureLimitConfig) IsEnabled() bool {
	return f.PerMinute > 0
}

// GetBurst returns the burst size with default fallback.
func (f *FailureLimitConfig) GetBurst() int {
	if f.Burst <= 0 {
		return f.PerMinute
	}
	return f.Burst
}

// GetMaxClients returns the tracked client bound with default fallback.
func (f *FailureLimitConfig) GetMaxClients() int64 {
	if f.MaxClients <= 0 {
		return 10_000
	}
	return f.MaxClients
}

// GetTTL returns the idle bucket lifetime with default fallback.
func (f *FailureLimitConfig) GetTTL() time.Duration {
	if f.TTLSeconds <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(f.TTLSeconds) * time.Second
}

// NetworkSessionConfig holds the principal table and the host policy
// applied after a principal authenticates.
type NetworkSessionConfig struct {
	// AllowedRights caps the rights of authenticated principals.
	// Absent means uncapped; an empty list removes every right.
	AllowedRights *[]string `yaml:"allowed_rights" toml:"allowed_rights"`

	// WikiID is the tenant identifier mixed into derived session IDs.
	WikiID string `yaml:"wiki_id" toml:"wiki_id"`

	// PrincipalEntries are kept loosely typed so that a missing or
	// mistyped field surfaces as a per-entry error during evaluation
	// instead of failing the whole file.
	PrincipalEntries []PrincipalEntry `yaml:"principals" toml:"principals"`

	// CanAlwaysAutocreate lets principals without an account get one
	// regardless of the directory-level autocreate policy.
	CanAlwaysAutocreate bool `yaml:"can_always_autocreate" toml:"can_always_autocreate"`
}

// GetAllowedRights returns the rights cap as an Option.
func (n *NetworkSessionConfig) GetAllowedRights() mo.Option[[]string] {
	if n.AllowedRights == nil {
		return mo.None[[]string]()
	}
	return mo.Some(*n.AllowedRights)
}

// Principals converts the configured entries for the auth engine, in order.
func (n *NetworkSessionConfig) Principals() []auth.Principal {
	return lo.Map(n.PrincipalEntries, func(e PrincipalEntry, _ int) auth.Principal {
		return e.Principal()
	})
}

// PrincipalEntry is one raw principal table row as decoded from YAML or TOML.
type PrincipalEntry map[string]any

// Principal converts the entry. Fields of the wrong type become None.
func (e PrincipalEntry) Principal() auth.Principal {
	return auth.Principal{
		Username: stringField(e, "username"),
		Token:    stringField(e, "token"),
		IPRanges: rangesField(e, "ip_ranges"),
	}
}

func stringField(e PrincipalEntry, key string) mo.Option[string] {
	if s, ok := e[key].(string); ok {
		return mo.Some(s)
	}
	return mo.None[string]()
}

// rangesField accepts any list. Non-string elements are kept in printed
// form; they fail to parse as ranges and so never match.
func rangesField(e PrincipalEntry, key string) mo.Option[[]string] {
	switch v := e[key].(type) {
	case []string:
		return mo.Some(append([]string{}, v...))
	case []any:
		return mo.Some(lo.Map(v, func(item any, _ int) string {
			if s, ok := item.(string); ok {
				return s
			}
			return fmt.Sprint(item)
		}))
	default:
		return mo.None[[]string]()
	}
}

// AccountsConfig is the account directory consulted after authentication.
type AccountsConfig struct {
	// DefaultRights are granted to auto-created accounts.
	DefaultRights []string        `yaml:"default_rights" toml:"default_rights"`
	Users         []AccountConfig `yaml:"users" toml:"users"`
	// Autocreate allows unknown users to be auto-created for this service.
	Autocreate bool `yaml:"autocreate" toml:"autocreate"`
}

// AccountConfig is one known account and its rights.
type AccountConfig struct {
	Name   string   `yaml:"name" toml:"name"`
	Rights []string `yaml:"rights" toml:"rights"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`   // debug, info, warn, error
	Format string `yaml:"format" toml:"format"` // json, console
	Output string `yaml:"output" toml:"output"` // stdout, stderr, or file path
	Pretty bool   `yaml:"pretty" toml:"pretty"` // enable colored console output
}

// ParseLevel converts a string log level to zerolog.Level.
// Returns zerolog.InfoLevel if the level string is invalid.
func (l *LoggingConfig) ParseLevel() zerolog.Level {
	switch strings.ToLower(l.Level) {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
