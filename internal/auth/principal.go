package auth

import (
	"slices"

	"github.com/samber/mo"
)

// Principal is one configured (username, token, ip_ranges) binding.
//
// Fields are optional because configuration may omit or mistype them; a
// None (or an empty string) is reported as a ConfigError when the entry is
// reached during evaluation, not when the table is loaded.
type Principal struct {
	Username mo.Option[string]
	Token    mo.Option[string]
	IPRanges mo.Option[[]string]
}

// NewPrincipal builds a fully specified principal. With no ranges the
// entry is valid but never matches.
func NewPrincipal(username, token string, ipRanges ...string) Principal {
	return Principal{
		Username: mo.Some(username),
		Token:    mo.Some(token),
		IPRanges: mo.Some(append([]string{}, ipRanges...)),
	}
}

// Check applies the structural guards in evaluation order: ip_ranges, then
// token, then username. It returns the first failing kind.
func (p Principal) Check() mo.Option[ConfigErrorKind] {
	if ranges, ok := p.IPRanges.Get(); !ok || ranges == nil {
		return mo.Some(ConfigErrMissingIPRanges)
	}
	if token, ok := p.Token.Get(); !ok || token == "" {
		return mo.Some(ConfigErrInvalidToken)
	}
	if username, ok := p.Username.Get(); !ok || username == "" {
		return mo.Some(ConfigErrInvalidUsername)
	}
	return mo.None[ConfigErrorKind]()
}

func (p Principal) clone() Principal {
	if ranges, ok := p.IPRanges.Get(); ok && ranges != nil {
		p.IPRanges = mo.Some(slices.Clone(ranges))
	}
	return p
}
