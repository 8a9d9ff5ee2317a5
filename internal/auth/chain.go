package auth

import (
	"net/http"

	"github.com/samber/lo"
	"github.com/samber/mo"
)

// ChainAuthenticator tries multiple authenticators in order.
//
// An authenticator returning NoCredential passes the request to the next
// one. The first authenticator with an opinion decides: success and
// terminal failures both stop the chain. If every authenticator defers, the
// chain returns NoCredential with TypeNone.
type ChainAuthenticator struct {
	authenticators []Authenticator
}

// NewChainAuthenticator creates a chain of authenticators.
// Nil entries are dropped.
func NewChainAuthenticator(authenticators ...Authenticator) *ChainAuthenticator {
	return &ChainAuthenticator{
		authenticators: lo.Filter(authenticators, func(a Authenticator, _ int) bool { return a != nil }),
	}
}

// Authenticate runs the chain.
func (c *ChainAuthenticator) Authenticate(r *http.Request) Result {
	// Once an authenticator has an opinion its result is passed through unchanged.
	result := lo.Reduce(c.authenticators, func(acc Result, a Authenticator, _ int) Result {
		if !acc.Deferred() {
			return acc
		}
		return a.Authenticate(r)
	}, Result{Type: TypeNone, Outcome: NoCredential()})

	if result.Deferred() {
		return Result{Type: TypeNone, Outcome: NoCredential()}
	}
	return result
}

// Type returns TypeNone since this is a meta-authenticator.
func (c *ChainAuthenticator) Type() Type {
	return TypeNone
}

// Methods returns the types of the chained authenticators, in order.
func (c *ChainAuthenticator) Methods() []Type {
	return lo.Map(c.authenticators, func(a Authenticator, _ int) Type { return a.Type() })
}

// Policy returns the session policy of the chained authenticator of type t.
func (c *ChainAuthenticator) Policy(t Type) mo.Option[SessionPolicy] {
	for _, a := range c.authenticators {
		if a.Type() != t {
			continue
		}
		if policy, ok := a.(SessionPolicy); ok {
			return mo.Some(policy)
		}
	}
	return mo.None[SessionPolicy]()
}

// AuthenticateResult runs the chain and returns mo.Ok for an authenticated
// request, or mo.Err carrying the failure. A fully deferring chain yields
// ErrNoCredential.
func (c *ChainAuthenticator) AuthenticateResult(r *http.Request) mo.Result[Result] {
	return ToResult(c.Authenticate(r))
}

// ToResult converts a Result for railway-style callers.
func ToResult(result Result) mo.Result[Result] {
	if result.Valid() {
		return mo.Ok(result)
	}
	if result.Deferred() {
		return mo.Err[Result](ErrNoCredential)
	}
	return mo.Err[Result](result.Outcome.Err())
}
