package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/wikimedia/mediawiki-extensions-NetworkSession/internal/auth"
	"github.com/wikimedia/mediawiki-extensions-NetworkSession/internal/config"
	"github.com/wikimedia/mediawiki-extensions-NetworkSession/internal/identity"
	"github.com/wikimedia/mediawiki-extensions-NetworkSession/internal/iprange"
)

// authState is everything derived from the auth-relevant part of one
// configuration snapshot. It is immutable once built.
type authState struct {
	source       *config.Config
	chain        *auth.ChainAuthenticator
	binder       *identity.Binder
	fingerprint  string
	resolver     ClientResolver
	requireHTTPS bool
}

// liveState rebuilds the authenticator chain when the auth fingerprint of
// the runtime configuration changes, and reuses it otherwise.
type liveState struct {
	runtime config.RuntimeConfig
	metrics *Metrics
	state   atomic.Pointer[authState]
	mu      sync.Mutex
}

func newLiveState(runtime config.RuntimeConfig, metrics *Metrics) *liveState {
	return &liveState{runtime: runtime, metrics: metrics}
}

type authStateKey struct{}

// contextWithAuthState pins s for the rest of the request.
func contextWithAuthState(ctx context.Context, s *authState) context.Context {
	return context.WithValue(ctx, authStateKey{}, s)
}

// forRequest returns the state pinned to r, or the current one when none is.
func (l *liveState) forRequest(r *http.Request) *authState {
	if s, ok := r.Context().Value(authStateKey{}).(*authState); ok && s != nil {
		return s
	}
	return l.current()
}

// current returns the state for the latest configuration snapshot.
func (l *liveState) current() *authState {
	cfg := l.runtime.Get()

	// Fast path: same snapshot as last time.
	if s := l.state.Load(); s != nil && s.source == cfg {
		return s
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	prev := l.state.Load()
	if prev != nil && prev.source == cfg {
		return prev
	}

	fingerprint := authFingerprint(cfg)
	if prev != nil && prev.fingerprint == fingerprint {
		// Reloaded, but nothing auth-related changed.
		next := *prev
		next.source = cfg
		l.state.Store(&next)
		return &next
	}

	next := buildAuthState(cfg, fingerprint)
	l.state.Store(next)
	if prev != nil && l.metrics != nil {
		l.metrics.RecordRebuild()
	}
	return next
}

func buildAuthState(cfg *config.Config, fingerprint string) *authState {
	logger := log.With().Str("component", "auth").Logger()

	for _, problem := range cfg.PrincipalProblems() {
		event := logger.Warn()
		if problem.Fatal {
			event = logger.Error()
		}
		event.Int("principal", problem.Entry).Msg(problem.String())
	}

	proxies, err := iprange.ParseSet(cfg.Server.TrustedProxies)
	if err != nil {
		logger.Error().Err(err).Msg("ignoring unparseable trusted proxies")
	}

	authenticators := []auth.Authenticator{
		auth.NewNetworkSessionAuthenticator(
			auth.NewEngine(cfg.NetworkSession.WikiID, cfg.NetworkSession.Principals()),
		),
	}
	if cfg.Server.APIKey.IsEnabled() {
		authenticators = append(authenticators, auth.NewAPIKeyAuthenticator(
			cfg.NetworkSession.WikiID, cfg.Server.APIKey.Username, cfg.Server.APIKey.Key,
		))
	}
	chain := auth.NewChainAuthenticator(authenticators...)

	logger.Info().
		Int("principals", len(cfg.NetworkSession.PrincipalEntries)).
		Int("accounts", len(cfg.Accounts.Users)).
		Int("trusted_proxies", len(proxies)).
		Bool("require_https", cfg.Server.IsHTTPSRequired()).
		Interface("methods", chain.Methods()).
		Msg("authenticator chain built")

	return &authState{
		source:       cfg,
		chain:        chain,
		binder:       identity.NewBinderFromConfig(cfg),
		fingerprint:  fingerprint,
		resolver:     NewClientResolver(proxies),
		requireHTTPS: cfg.Server.IsHTTPSRequired(),
	}
}

// authFingerprint digests the auth-relevant configuration. Secrets only
// enter the digest, never the returned string.
func authFingerprint(cfg *config.Config) string {
	data, err := json.Marshal(struct {
		AllowedRights       *[]string               `json:"allowed_rights"`
		APIKey              config.APIKeyConfig     `json:"api_key"`
		WikiID              string                  `json:"wiki_id"`
		Principals          []config.PrincipalEntry `json:"principals"`
		TrustedProxies      []string                `json:"trusted_proxies"`
		Accounts            config.AccountsConfig   `json:"accounts"`
		CanAlwaysAutocreate bool                    `json:"can_always_autocreate"`
		RequireHTTPS        bool                    `json:"require_https"`
	}{
		AllowedRights:       cfg.NetworkSession.AllowedRights,
		APIKey:              cfg.Server.APIKey,
		WikiID:              cfg.NetworkSession.WikiID,
		Principals:          cfg.NetworkSession.PrincipalEntries,
		TrustedProxies:      cfg.Server.TrustedProxies,
		Accounts:            cfg.Accounts,
		CanAlwaysAutocreate: cfg.NetworkSession.CanAlwaysAutocreate,
		RequireHTTPS:        cfg.Server.IsHTTPSRequired(),
	})
	if err != nil {
		// Unencodable values: fall back to snapshot identity.
		return fmt.Sprintf("ptr:%p", cfg)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
