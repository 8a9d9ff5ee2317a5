package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/wikimedia/mediawiki-extensions-NetworkSession/internal/auth"
	"github.com/wikimedia/mediawiki-extensions-NetworkSession/internal/identity"
	"github.com/wikimedia/mediawiki-extensions-NetworkSession/internal/ratelimit"
)

// RequestIDMiddleware adds X-Request-ID header and logger with request ID to context.
func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := AddRequestID(r.Context(), r.Header.Get("X-Request-ID"))
			w.Header().Set("X-Request-ID", GetRequestID(ctx))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LoggingMiddleware logs the start and completion of each request.
func LoggingMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			logger := zerolog.Ctx(r.Context()).With().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Logger()
			logger.Debug().Msgf("%s %s", r.Method, r.URL.Path)

			next.ServeHTTP(wrapped, r)

			duration := formatDuration(time.Since(start))
			msg := statusSymbol(wrapped.statusCode) + " " + http.StatusText(wrapped.statusCode) + " (" + duration + ")"
			event := logger.Info()
			switch {
			case wrapped.statusCode >= 500:
				event = logger.Error()
			case wrapped.statusCode >= 400:
				event = logger.Warn()
			}
			event.Int("status", wrapped.statusCode).Str("duration", duration).Msg(msg)
		})
	}
}

// ClientIPMiddleware resolves the client behind any trusted proxies and
// records it for the authenticators.
func ClientIPMiddleware(live *liveState) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := live.current()
			client := state.resolver.Resolve(r)

			ctx := contextWithAuthState(r.Context(), state)
			ctx = contextWithClient(ctx, client)
			ctx = auth.ContextWithSourceIP(ctx, client.IP)
			logger := zerolog.Ctx(ctx).With().Str("client_ip", client.IP).Logger()
			ctx = logger.WithContext(ctx)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ThrottleMiddleware refuses clients that have exhausted their
// authentication failure budget.
func ThrottleMiddleware(
	limiter ratelimit.FailureLimiter,
	metrics *Metrics,
	retryAfter time.Duration,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter.Allow(auth.SourceIP(r)) {
				next.ServeHTTP(w, r)
				return
			}

			metrics.RecordThrottled()
			zerolog.Ctx(r.Context()).Warn().Msg("request throttled after repeated authentication failures")
			WriteThrottled(w, retryAfter)
		})
	}
}

// AuthMiddleware authenticates the request against the live chain and
// attaches the bound identity to its context.
//
// Terminal failures all produce the same client response. The specific
// category is logged and counted, and charged to the client's failure budget.
func AuthMiddleware(live *liveState, limiter ratelimit.FailureLimiter, metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := live.forRequest(r)
			logger := zerolog.Ctx(r.Context())

			if state.requireHTTPS && auth.HasCredential(r) {
				if client, ok := ClientFromContext(r.Context()); !ok || !client.HTTPS {
					metrics.RecordDecision(auth.TypeNetworkSession, "https_required")
					logger.Warn().Msg("NetworkSession credential sent over plain HTTP")
					WriteError(w, http.StatusForbidden, ErrTypeHTTPSRequired, MsgHTTPSRequired)
					return
				}
			}

			result := state.chain.Authenticate(r)
			metrics.RecordDecision(result.Type, result.Outcome.Decision.String())

			if result.Deferred() {
				logger.Debug().Msg("no credentials presented")
				WriteError(w, http.StatusUnauthorized, ErrTypeAuthentication, MsgMissingCredentials)
				return
			}

			if !result.Valid() {
				logFailure(logger, result)
				limiter.RecordFailure(auth.SourceIP(r))
				WriteError(w, http.StatusUnauthorized, ErrTypeAuthentication, MsgAuthenticationFailed)
				return
			}

			id, err := state.binder.Bind(result)
			if err != nil {
				metrics.RecordDecision(result.Type, "no_account")
				logger.Warn().
					Str("auth_type", string(result.Type)).
					Str("user", result.Outcome.Username).
					Bool("no_account", errors.Is(err, identity.ErrNoAccount)).
					Err(err).
					Msg("authenticated user could not be bound")
				WriteError(w, http.StatusUnauthorized, ErrTypeAuthentication, MsgAuthenticationFailed)
				return
			}

			sub := logger.With().Str("user", id.Username).Str("auth_type", string(id.Provider)).Logger()
			sub.Debug().Bool("ephemeral", id.Ephemeral).Msg("authentication succeeded")

			ctx := identity.WithContext(sub.WithContext(r.Context()), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func logFailure(logger *zerolog.Logger, result auth.Result) {
	event := logger.Warn()
	if result.Outcome.Decision == auth.DecisionConfigError {
		event = logger.Error().Str("config_error", string(result.Outcome.ConfigError))
	}
	if result.Outcome.Entry >= 0 {
		event = event.Int("principal", result.Outcome.Entry)
	}
	event.
		Str("auth_type", string(result.Type)).
		Str("decision", result.Outcome.Decision.String()).
		Msg("authentication failed")
}

// formatDuration formats a duration with units that suit its size.
func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	d = d.Round(time.Microsecond)
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
	case d < time.Minute:
		return fmt.Sprintf("%.2fs", d.Seconds())
	default:
		return d.Truncate(time.Second).String()
	}
}

func statusSymbol(statusCode int) string {
	switch {
	case statusCode >= 500:
		return "✗"
	case statusCode >= 400:
		return "⚠"
	default:
		return "✓"
	}
}

// responseWriter captures the status code for logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
