package auth

import (
	"net/http"
	"strings"

	"github.com/samber/mo"
)

// Scheme is the Authorization scheme carrying a network session token.
const Scheme = "NetworkSession"

// ExtractCredential returns the bearer token of a NetworkSession
// Authorization value. Everything after the first space is the token,
// verbatim. An absent header, a value without a space or a different
// scheme all yield None.
func ExtractCredential(header mo.Option[string]) mo.Option[string] {
	value, ok := header.Get()
	if !ok {
		return mo.None[string]()
	}

	scheme, token, found := strings.Cut(value, " ")
	if !found || !asciiEqualFold(scheme, Scheme) {
		return mo.None[string]()
	}

	return mo.Some(token)
}

// HeaderValue reads the Authorization header of r. A header that is not
// sent at all is None; a header sent with an empty value is Some("").
func HeaderValue(r *http.Request) mo.Option[string] {
	values := r.Header.Values("Authorization")
	if len(values) == 0 {
		return mo.None[string]()
	}
	return mo.Some(values[0])
}

// HasCredential reports whether r carries a NetworkSession credential.
func HasCredential(r *http.Request) bool {
	return ExtractCredential(HeaderValue(r)).IsPresent()
}

// asciiEqualFold compares s and t under ASCII case folding only. Unlike
// strings.EqualFold it does not fold non-ASCII runes such as the Kelvin sign.
func asciiEqualFold(s, t string) bool {
	if len(s) != len(t) {
		return false
	}
	for i := 0; i < len(s); i++ {
		if lowerASCII(s[i]) != lowerASCII(t[i]) {
			return false
		}
	}
	return true
}

func lowerASCII(b byte) byte {
	if 'A' <= b && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}
