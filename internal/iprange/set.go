package iprange

import (
	"errors"
	"net/netip"
)

// Set is an ordered list of pre-parsed ranges.
type Set []Range

// ParseSet parses every specifier strictly. All parse errors are joined
// into the returned error; the ranges that did parse are still returned.
func ParseSet(specs []string) (Set, error) {
	set := make(Set, 0, len(specs))
	var errs []error
	for _, spec := range specs {
		r, err := Parse(spec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		set = append(set, r)
	}
	return set, errors.Join(errs...)
}

// Contains reports whether any range in the set contains addr.
func (s Set) Contains(addr netip.Addr) bool {
	for _, r := range s {
		if r.Contains(addr) {
			return true
		}
	}
	return false
}

// ContainsString parses address and reports whether the set contains it.
// Unparseable addresses are never contained.
func (s Set) ContainsString(address string) bool {
	addr, err := parseAddr(address)
	if err != nil {
		return false
	}
	return s.Contains(addr)
}
