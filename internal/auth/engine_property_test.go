package auth

import (
	"crypto/sha256"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/samber/mo"
)

// Reusable generators.
var (
	genToken    = gen.AlphaString().SuchThat(func(s string) bool { return s != "" })
	genUsername = gen.Identifier()
	genOctet    = gen.IntRange(0, 255)
)

// Property-based tests for Engine

func TestEngine_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	// Property 1: without a recognized credential the table is never consulted
	properties.Property("missing credential defers regardless of table", prop.ForAll(
		func(header string) bool {
			engine := NewEngine("wiki", []Principal{{}, {Token: mo.Some("")}})
			got := engine.Authenticate(mo.Some("Bearer "+header), "127.0.0.1")
			return got.Decision == DecisionNoCredential
		},
		gen.AlphaString(),
	))

	// Property 2: a single matching entry authenticates as that entry's user
	properties.Property("single match authenticates", prop.ForAll(
		func(username, token string, octet int) bool {
			ip := fmt.Sprintf("10.0.0.%d", octet)
			engine := NewEngine("wiki", []Principal{
				NewPrincipal("decoy", token+"x", ip),
				NewPrincipal(username, token, "10.0.0.0/24"),
			})
			got := engine.Evaluate(mo.Some(token), ip)
			return got.Decision == DecisionAuthenticated && got.Username == username && got.Entry == 1
		},
		genUsername,
		genToken,
		genOctet,
	))

	// Property 3: two or more matching entries are ambiguous
	properties.Property("multiple matches are ambiguous", prop.ForAll(
		func(token string, copies int) bool {
			table := make([]Principal, copies)
			for i := range table {
				table[i] = NewPrincipal(fmt.Sprintf("user%d", i), token, "192.168.0.0/16")
			}
			got := NewEngine("wiki", table).Evaluate(mo.Some(token), "192.168.4.4")
			return got.Decision == DecisionAmbiguous && got.Entry == 1
		},
		genToken,
		gen.IntRange(2, 6),
	))

	// Property 4: an invalid entry is reported once reached, even after a match
	properties.Property("invalid entry fails after match", prop.ForAll(
		func(token string, position int) bool {
			table := []Principal{NewPrincipal("first", token, "127.0.0.1")}
			for i := 0; i < position; i++ {
				table = append(table, NewPrincipal(fmt.Sprintf("pad%d", i), token+"pad", "127.0.0.1"))
			}
			table = append(table, Principal{Username: mo.Some("broken"), IPRanges: mo.Some([]string{})})

			got := NewEngine("wiki", table).Evaluate(mo.Some(token), "127.0.0.1")
			return got.Decision == DecisionConfigError &&
				got.ConfigError == ConfigErrInvalidToken &&
				got.Entry == position+1
		},
		genToken,
		gen.IntRange(0, 5),
	))

	// Property 5: a wrong token never authenticates
	properties.Property("wrong token never matches", prop.ForAll(
		func(configured, presented string) bool {
			if configured == presented {
				return true
			}
			engine := NewEngine("wiki", []Principal{NewPrincipal("Bot", configured, "0.0.0.0/0")})
			return engine.Evaluate(mo.Some(presented), "8.8.8.8").Decision == DecisionNoMatch
		},
		genToken,
		genToken,
	))

	properties.TestingRun(t)
}

func TestTokensEqual_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	// tokensEqual is the crypto/subtle primitive over fixed-length digests,
	// so it must agree with plain equality on every input.
	properties.Property("agrees with equality", prop.ForAll(
		func(a, b string) bool {
			return tokensEqual(sha256.Sum256([]byte(a)), sha256.Sum256([]byte(b))) == (a == b)
		},
		gen.AnyString(),
		gen.OneGenOf(gen.AnyString(), gen.Const("shared-prefix")),
	))

	properties.Property("reflexive", prop.ForAll(
		func(a string) bool {
			digest := sha256.Sum256([]byte(a))
			return tokensEqual(digest, digest)
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

func TestSessionID_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("deterministic", prop.ForAll(
		func(tenant, username, token string) bool {
			return DeriveSessionID(tenant, username, token) == DeriveSessionID(tenant, username, token)
		},
		gen.AlphaString(),
		genUsername,
		genToken,
	))

	properties.Property("changing one input changes the id", prop.ForAll(
		func(tenant, username, token string) bool {
			base := DeriveSessionID(tenant, username, token)
			return base != DeriveSessionID(tenant+"x", username, token) &&
				base != DeriveSessionID(tenant, username+"x", token) &&
				base != DeriveSessionID(tenant, username, token+"x")
		},
		gen.AlphaString(),
		genUsername,
		genToken,
	))

	properties.TestingRun(t)
}
