// Package iprange parses and matches IP range specifiers.
//
// A specifier is one of:
//   - a single address ("10.0.0.1", "2001:db8::1")
//   - an inclusive dash range ("10.0.0.0-10.0.0.255", "2001:db8::-2001:db8::ff")
//   - a CIDR block ("10.0.0.0/8", "2001:db8::/32")
//
// IPv4 and IPv6 never match each other. IPv4-mapped IPv6 addresses are
// unmapped before comparison, so "::ffff:10.0.0.1" is treated as 10.0.0.1.
package iprange

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
)

// ErrMalformed is returned when a specifier cannot be parsed.
var ErrMalformed = errors.New("iprange: malformed specifier")

// Range is an inclusive address interval within a single address family.
type Range struct {
	low  netip.Addr
	high netip.Addr
}

// Parse parses a single range specifier.
func Parse(spec string) (Range, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Range{}, fmt.Errorf("%w: empty", ErrMalformed)
	}

	if strings.Contains(spec, "/") {
		prefix, err := netip.ParsePrefix(spec)
		if err != nil {
			return Range{}, fmt.Errorf("%w: %q: %w", ErrMalformed, spec, err)
		}
		prefix = prefix.Masked()
		low, high := prefix.Addr(), lastAddr(prefix)
		// Only a prefix inside ::ffff:0:0/96 is an IPv4 block.
		if low.Is4In6() && prefix.Bits() >= 96 {
			low, high = low.Unmap(), high.Unmap()
		}
		return Range{low: low, high: high}, nil
	}

	if lowStr, highStr, ok := strings.Cut(spec, "-"); ok {
		low, err := parseAddr(lowStr)
		if err != nil {
			return Range{}, fmt.Errorf("%w: %q: %w", ErrMalformed, spec, err)
		}
		high, err := parseAddr(highStr)
		if err != nil {
			return Range{}, fmt.Errorf("%w: %q: %w", ErrMalformed, spec, err)
		}
		if low.Is4() != high.Is4() {
			return Range{}, fmt.Errorf("%w: %q: mixed address families", ErrMalformed, spec)
		}
		if high.Less(low) {
			return Range{}, fmt.Errorf("%w: %q: low end above high end", ErrMalformed, spec)
		}
		return Range{low: low, high: high}, nil
	}

	addr, err := parseAddr(spec)
	if err != nil {
		return Range{}, fmt.Errorf("%w: %q: %w", ErrMalformed, spec, err)
	}
	return Range{low: addr, high: addr}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(spec string) Range {
	r, err := Parse(spec)
	if err != nil {
		panic(err)
	}
	return r
}

// Contains reports whether addr lies inside the range.
func (r Range) Contains(addr netip.Addr) bool {
	if !r.low.IsValid() || !addr.IsValid() {
		return false
	}
	addr = addr.Unmap()
	if addr.Is4() != r.low.Is4() {
		return false
	}
	return r.low.Compare(addr) <= 0 && addr.Compare(r.high) <= 0
}

// String returns the range in dash form, or a single address when low == high.
func (r Range) String() string {
	if r.low == r.high {
		return r.low.String()
	}
	return r.low.String() + "-" + r.high.String()
}

// Matches reports whether address falls within at least one of specs.
// Malformed addresses and specifiers never match.
func Matches(address string, specs []string) bool {
	addr, err := parseAddr(address)
	if err != nil {
		return false
	}
	for _, spec := range specs {
		r, err := Parse(spec)
		if err != nil {
			continue
		}
		if r.Contains(addr) {
			return true
		}
	}
	return false
}

// parseAddr parses an address, dropping any IPv6 zone and unmapping IPv4-in-IPv6.
func parseAddr(s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return netip.Addr{}, err
	}
	return addr.WithZone("").Unmap(), nil
}

// lastAddr returns the highest address covered by a masked prefix.
func lastAddr(prefix netip.Prefix) netip.Addr {
	raw := prefix.Addr().AsSlice()
	bits := prefix.Bits()
	for i := range raw {
		hostBits := len(raw)*8 - bits - (len(raw)-1-i)*8
		switch {
		case hostBits >= 8:
			raw[i] = 0xff
		case hostBits > 0:
			raw[i] |= byte(0xff >> (8 - hostBits))
		}
	}
	addr, _ := netip.AddrFromSlice(raw)
	return addr
}
