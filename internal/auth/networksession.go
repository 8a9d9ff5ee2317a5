package auth

import (
	"context"
	"net"
	"net/http"
)

type contextKey int

const sourceIPKey contextKey = iota

// ContextWithSourceIP records the resolved client address for authenticators.
// The host sets it after applying its trusted-proxy rules.
func ContextWithSourceIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, sourceIPKey, ip)
}

// SourceIP returns the client address recorded by ContextWithSourceIP, or
// the host part of r.RemoteAddr when none was recorded.
func SourceIP(r *http.Request) string {
	if ip, ok := r.Context().Value(sourceIPKey).(string); ok && ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// NetworkSessionAuthenticator adapts an Engine to the Authenticator interface.
type NetworkSessionAuthenticator struct {
	engine *Engine
}

// NewNetworkSessionAuthenticator wraps engine.
func NewNetworkSessionAuthenticator(engine *Engine) *NetworkSessionAuthenticator {
	return &NetworkSessionAuthenticator{engine: engine}
}

// Authenticate evaluates the request's NetworkSession credential and source address.
func (a *NetworkSessionAuthenticator) Authenticate(r *http.Request) Result {
	return Result{
		Type:    TypeNetworkSession,
		Outcome: a.engine.Authenticate(HeaderValue(r), SourceIP(r)),
	}
}

// Type returns the authentication type (network_session).
func (a *NetworkSessionAuthenticator) Type() Type {
	return TypeNetworkSession
}

// PersistsSessionID is false: every request is re-authenticated and a
// client-supplied session ID is never honored.
func (a *NetworkSessionAuthenticator) PersistsSessionID() bool {
	return false
}

// CanChangeUser is false: the principal is fixed by the credential.
func (a *NetworkSessionAuthenticator) CanChangeUser() bool {
	return false
}

var (
	_ Authenticator = (*NetworkSessionAuthenticator)(nil)
	_ SessionPolicy = (*NetworkSessionAuthenticator)(nil)
)
