package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
)

// APIKeyAuthenticator validates x-api-key header authentication and maps a
// valid key to a single fixed service account.
// Uses constant-time comparison to prevent timing attacks.
type APIKeyAuthenticator struct {
	username string
	tenantID string
	key      string
	// expectedHash is the pre-computed SHA-256 hash of the expected key.
	expectedHash [32]byte
}

// NewAPIKeyAuthenticator creates a new API key authenticator that
// authenticates as username within tenantID.
//
// SHA-256 is appropriate here because API keys are high-entropy secrets,
// not passwords. Hashing both sides keeps the comparison fixed-length.
func NewAPIKeyAuthenticator(tenantID, username, expectedKey string) *APIKeyAuthenticator {
	return &APIKeyAuthenticator{
		username: username,
		tenantID: tenantID,
		key:      expectedKey,
		// #nosec G401 -- SHA-256 is appropriate for high-entropy API keys (not passwords)
		expectedHash: sha256.Sum256([]byte(expectedKey)),
	}
}

// Authenticate checks the x-api-key header against the expected value.
// A missing header defers to other authenticators.
func (a *APIKeyAuthenticator) Authenticate(r *http.Request) Result {
	providedKey := r.Header.Get("x-api-key")
	if providedKey == "" {
		return Result{Type: TypeAPIKey, Outcome: NoCredential()}
	}

	// #nosec G401 -- SHA-256 is appropriate for high-entropy API keys (not passwords)
	providedHash := sha256.Sum256([]byte(providedKey))

	// CRITICAL: Constant-time comparison prevents timing attacks
	if subtle.ConstantTimeCompare(providedHash[:], a.expectedHash[:]) != 1 {
		return Result{Type: TypeAPIKey, Outcome: NoMatch()}
	}

	return Result{
		Type:    TypeAPIKey,
		Outcome: Authenticated(0, a.username, DeriveSessionID(a.tenantID, a.username, a.key)),
	}
}

// Type returns the authentication type (api_key).
func (a *APIKeyAuthenticator) Type() Type {
	return TypeAPIKey
}

// PersistsSessionID is false: the key is checked on every request.
func (a *APIKeyAuthenticator) PersistsSessionID() bool {
	return false
}

// CanChangeUser is false: the key always maps to the same account.
func (a *APIKeyAuthenticator) CanChangeUser() bool {
	return false
}

var (
	_ Authenticator = (*APIKeyAuthenticator)(nil)
	_ SessionPolicy = (*APIKeyAuthenticator)(nil)
)
