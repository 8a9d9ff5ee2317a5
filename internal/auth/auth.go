// Package auth decides whether an inbound request is made by a configured
// network principal: a fixed identity trusted because the request comes
// from an approved address and carries the matching shared secret.
//
// The Engine holds the decision logic and has no knowledge of HTTP. The
// Authenticator implementations adapt it (and the optional API key
// mechanism) to net/http so they can be composed in a ChainAuthenticator.
package auth

import "net/http"

// Type represents the authentication method used.
type Type string

const (
	// TypeNetworkSession represents Authorization: NetworkSession authentication.
	TypeNetworkSession Type = "network_session"
	// TypeAPIKey represents x-api-key header authentication.
	TypeAPIKey Type = "api_key"
	// TypeNone represents no authentication or an all-deferring chain.
	TypeNone Type = "none"
)

// Result contains the outcome of an authentication attempt.
type Result struct {
	// Type indicates which authentication method produced the outcome.
	Type Type
	// Outcome is the decision and, on success, the authenticated principal.
	Outcome Outcome
}

// Valid reports whether the request was authenticated.
func (r Result) Valid() bool {
	return r.Outcome.Decision == DecisionAuthenticated
}

// Deferred reports whether the authenticator had no opinion about the request.
func (r Result) Deferred() bool {
	return r.Outcome.Decision == DecisionNoCredential
}

// Authenticator defines the interface for authentication mechanisms.
// Implementations must be safe for concurrent use.
type Authenticator interface {
	// Authenticate inspects the request. A NoCredential outcome means the
	// authenticator found nothing it recognizes and the next one may try.
	Authenticate(r *http.Request) Result

	// Type returns the authentication type this authenticator handles.
	Type() Type
}

// SessionPolicy describes how a session established by an authenticator
// may be used by the host for the rest of the request.
type SessionPolicy interface {
	// PersistsSessionID reports whether the host may accept a session ID
	// supplied by the client (cookie, header) in place of re-authentication.
	PersistsSessionID() bool
	// CanChangeUser reports whether the authenticated user may be switched
	// during the request (login/logout flows).
	CanChangeUser() bool
}
