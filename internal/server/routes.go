package server

import (
	"net/http"
	"time"

	"github.com/wikimedia/mediawiki-extensions-NetworkSession/internal/config"
	"github.com/wikimedia/mediawiki-extensions-NetworkSession/internal/identity"
	"github.com/wikimedia/mediawiki-extensions-NetworkSession/internal/ratelimit"
)

// WhoAmIResponse is the body of GET /v1/whoami.
type WhoAmIResponse struct {
	Username          string   `json:"username"`
	SessionID         string   `json:"session_id"`
	Provider          string   `json:"provider"`
	Rights            []string `json:"rights"`
	Ephemeral         bool     `json:"ephemeral"`
	PersistsSessionID bool     `json:"persists_session_id"`
	CanChangeUser     bool     `json:"can_change_user"`
}

// RightResponse is the body of GET /v1/rights/{right}.
type RightResponse struct {
	Right   string `json:"right"`
	Granted bool   `json:"granted"`
}

// SetupRoutes creates the HTTP handler.
// Routes:
//   - GET /health - liveness (no auth)
//   - GET /metrics - Prometheus metrics (no auth)
//   - GET /v1/whoami - the authenticated identity
//   - GET /v1/rights/{right} - 200 if the identity holds right, 403 otherwise
func SetupRoutes(runtime config.RuntimeConfig, limiter ratelimit.FailureLimiter, metrics *Metrics) http.Handler {
	if limiter == nil {
		limiter = ratelimit.NoopLimiter{}
	}
	if metrics == nil {
		metrics = NewMetrics()
	}

	live := newLiveState(runtime, metrics)
	retryAfter := throttleRetryAfter(runtime.Get())

	// Applied outermost first: client address, failure throttle, authentication.
	protect := func(h http.Handler) http.Handler {
		h = AuthMiddleware(live, limiter, metrics)(h)
		h = ThrottleMiddleware(limiter, metrics, retryAfter)(h)
		return ClientIPMiddleware(live)(h)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", metrics.Handler())
	mux.Handle("GET /v1/whoami", protect(whoAmIHandler(live)))
	mux.Handle("GET /v1/rights/{right}", protect(http.HandlerFunc(rightHandler)))

	var handler http.Handler = mux
	handler = LoggingMiddleware()(handler)
	handler = RequestIDMiddleware()(handler)
	return handler
}

func whoAmIHandler(live *liveState) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := identity.FromContext(r.Context())
		if id == nil {
			WriteError(w, http.StatusUnauthorized, ErrTypeAuthentication, MsgMissingCredentials)
			return
		}

		resp := WhoAmIResponse{
			Username:  id.Username,
			SessionID: id.SessionID,
			Provider:  string(id.Provider),
			Rights:    id.Rights,
			Ephemeral: id.Ephemeral,
		}
		if policy, ok := live.forRequest(r).chain.Policy(id.Provider).Get(); ok {
			resp.PersistsSessionID = policy.PersistsSessionID()
			resp.CanChangeUser = policy.CanChangeUser()
		}
		writeJSON(w, http.StatusOK, resp)
	})
}

func rightHandler(w http.ResponseWriter, r *http.Request) {
	id := identity.FromContext(r.Context())
	if id == nil {
		WriteError(w, http.StatusUnauthorized, ErrTypeAuthentication, MsgMissingCredentials)
		return
	}

	right := r.PathValue("right")
	if !id.Can(right) {
		WriteError(w, http.StatusForbidden, ErrTypePermission, "missing right: "+right)
		return
	}
	writeJSON(w, http.StatusOK, RightResponse{Right: right, Granted: true})
}

// throttleRetryAfter is the time for one failure token to refill.
func throttleRetryAfter(cfg *config.Config) time.Duration {
	perMinute := cfg.Server.AuthFailureLimit.PerMinute
	if perMinute <= 0 {
		return time.Minute
	}
	return time.Minute / time.Duration(perMinute)
}
