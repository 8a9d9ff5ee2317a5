package auth

import (
	"crypto/sha256"
	"crypto/subtle"

	"github.com/samber/lo"
	"github.com/samber/mo"

	"github.com/wikimedia/mediawiki-extensions-NetworkSession/internal/iprange"
)

// Engine evaluates credentials against an immutable principal table.
// It is safe for concurrent use: nothing is mutated after NewEngine.
type Engine struct {
	tenantID string
	entries  []entry
}

type entry struct {
	principal Principal
	// tokenHash is the SHA-256 of the configured token. Comparing digests
	// keeps the comparison fixed-length, so token length does not leak.
	tokenHash [sha256.Size]byte
}

// NewEngine returns an engine over a private copy of principals.
// tenantID scopes derived session identifiers (the wiki ID).
func NewEngine(tenantID string, principals []Principal) *Engine {
	entries := lo.Map(principals, func(p Principal, _ int) entry {
		e := entry{principal: p.clone()}
		if token, ok := p.Token.Get(); ok {
			// #nosec G401 -- digests are compared, not stored; tokens are high-entropy secrets
			e.tokenHash = sha256.Sum256([]byte(token))
		}
		return e
	})

	return &Engine{tenantID: tenantID, entries: entries}
}

// TenantID returns the tenant the engine derives session identifiers for.
func (e *Engine) TenantID() string {
	return e.tenantID
}

// Len returns the number of principal entries.
func (e *Engine) Len() int {
	return len(e.entries)
}

// Authenticate extracts the credential from a raw Authorization value and evaluates it.
func (e *Engine) Authenticate(header mo.Option[string], sourceIP string) Outcome {
	return e.Evaluate(ExtractCredential(header), sourceIP)
}

// Evaluate decides whether exactly one principal accepts token from sourceIP.
//
// The table is scanned left to right. The first structurally invalid entry
// returns ConfigError, even when an earlier entry already matched. A second
// entry accepting both token and address returns Ambiguous at once. Token
// comparison is constant time; address ranges are only read for entries
// whose token matched.
func (e *Engine) Evaluate(token mo.Option[string], sourceIP string) Outcome {
	presented, ok := token.Get()
	if !ok {
		return NoCredential()
	}

	// #nosec G401 -- see NewEngine
	presentedHash := sha256.Sum256([]byte(presented))
	matched := -1

	for i := range e.entries {
		ent := &e.entries[i]

		if kind, bad := ent.principal.Check().Get(); bad {
			return InvalidConfig(kind, i)
		}

		if !tokensEqual(presentedHash, ent.tokenHash) {
			continue
		}

		if !iprange.Matches(sourceIP, ent.principal.IPRanges.MustGet()) {
			continue
		}

		if matched >= 0 {
			return Ambiguous(i)
		}
		matched = i
	}

	if matched < 0 {
		return NoMatch()
	}

	p := e.entries[matched].principal
	username := p.Username.MustGet()
	return Authenticated(matched, username, DeriveSessionID(e.tenantID, username, p.Token.MustGet()))
}

// tokensEqual compares two digests in constant time.
func tokensEqual(a, b [sha256.Size]byte) bool {
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}
