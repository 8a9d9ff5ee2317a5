package auth

import (
	"errors"
	"fmt"
)

// Decision is the category of an authentication outcome.
type Decision int

const (
	// DecisionNoCredential means no recognized credential was present.
	// It is not a failure: other authenticators should be tried.
	DecisionNoCredential Decision = iota
	// DecisionNoMatch means a credential was present but no principal matched.
	DecisionNoMatch
	// DecisionAmbiguous means more than one principal matched.
	DecisionAmbiguous
	// DecisionConfigError means a principal entry is structurally invalid.
	DecisionConfigError
	// DecisionAuthenticated means exactly one principal matched.
	DecisionAuthenticated
)

// String returns the snake_case name of the decision.
func (d Decision) String() string {
	switch d {
	case DecisionNoCredential:
		return "no_credential"
	case DecisionNoMatch:
		return "no_match"
	case DecisionAmbiguous:
		return "ambiguous"
	case DecisionConfigError:
		return "config_error"
	case DecisionAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// Terminal reports whether the decision must end the request with an error.
func (d Decision) Terminal() bool {
	return d == DecisionNoMatch || d == DecisionAmbiguous || d == DecisionConfigError
}

// ConfigErrorKind names the field of a principal entry that failed validation.
type ConfigErrorKind string

const (
	ConfigErrMissingIPRanges ConfigErrorKind = "missing_ip_ranges"
	ConfigErrInvalidToken    ConfigErrorKind = "invalid_token"
	ConfigErrInvalidUsername ConfigErrorKind = "invalid_username"
)

// Authentication failures. Outcome.Err wraps these so callers can use errors.Is.
var (
	ErrNoCredential = errors.New("auth: no credential presented")
	ErrNoMatch      = errors.New("auth: no principal matched the credential")
	ErrAmbiguous    = errors.New("auth: credential matches more than one principal")
	ErrConfig       = errors.New("auth: invalid principal configuration")
)

// ConfigError reports a structurally invalid principal entry.
type ConfigError struct {
	Kind  ConfigErrorKind
	Entry int
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("auth: principal[%d]: %s", e.Entry, e.Kind)
}

// Unwrap lets errors.Is(err, ErrConfig) match.
func (e *ConfigError) Unwrap() error {
	return ErrConfig
}

// Outcome is the immutable result of a single evaluation.
//
// Entry is the table index of the matched principal (Authenticated), of the
// offending principal (ConfigError) or of the second matching principal
// (Ambiguous). It is -1 otherwise.
type Outcome struct {
	Username    string
	SessionID   string
	ConfigError ConfigErrorKind
	Decision    Decision
	Entry       int
}

// NoCredential returns the deferral outcome.
func NoCredential() Outcome {
	return Outcome{Decision: DecisionNoCredential, Entry: -1}
}

// NoMatch returns the outcome for a credential no principal accepts.
func NoMatch() Outcome {
	return Outcome{Decision: DecisionNoMatch, Entry: -1}
}

// Ambiguous returns the outcome for a second match at entry.
func Ambiguous(entry int) Outcome {
	return Outcome{Decision: DecisionAmbiguous, Entry: entry}
}

// InvalidConfig returns the outcome for a malformed principal at entry.
func InvalidConfig(kind ConfigErrorKind, entry int) Outcome {
	return Outcome{Decision: DecisionConfigError, ConfigError: kind, Entry: entry}
}

// Authenticated returns the success outcome for the principal at entry.
func Authenticated(entry int, username, sessionID string) Outcome {
	return Outcome{
		Decision:  DecisionAuthenticated,
		Entry:     entry,
		Username:  username,
		SessionID: sessionID,
	}
}

// Err returns the failure as an error, or nil for NoCredential and Authenticated.
func (o Outcome) Err() error {
	switch o.Decision {
	case DecisionNoMatch:
		return ErrNoMatch
	case DecisionAmbiguous:
		return fmt.Errorf("%w (principal[%d])", ErrAmbiguous, o.Entry)
	case DecisionConfigError:
		return &ConfigError{Kind: o.ConfigError, Entry: o.Entry}
	default:
		return nil
	}
}
