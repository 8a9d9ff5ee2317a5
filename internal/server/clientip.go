package server

import (
	"context"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/wikimedia/mediawiki-extensions-NetworkSession/internal/iprange"
)

const (
	headerForwardedFor   = "X-Forwarded-For"
	headerForwardedProto = "X-Forwarded-Proto"
)

// Client is the resolved origin of a request.
type Client struct {
	// IP is the client address used for authentication and throttling.
	IP string
	// HTTPS reports whether the client connection was encrypted, either
	// here or at a trusted proxy.
	HTTPS bool
	// Proxied is set when IP came from X-Forwarded-For.
	Proxied bool
}

// ClientResolver finds the real client address behind trusted proxies.
type ClientResolver struct {
	trusted iprange.Set
}

// NewClientResolver creates a resolver trusting the given proxies.
func NewClientResolver(trusted iprange.Set) ClientResolver {
	return ClientResolver{trusted: trusted}
}

// Resolve returns the client of r.
//
// Forwarding headers are only read when the direct peer is a trusted
// proxy. X-Forwarded-For is walked right to left and the first address
// that is not itself a trusted proxy is the client. If an entry cannot be
// parsed the walk stops at the last good hop.
func (c ClientResolver) Resolve(r *http.Request) Client {
	peer := remoteHost(r.RemoteAddr)
	client := Client{IP: peer, HTTPS: r.TLS != nil}

	peerAddr, ok := parseHop(peer)
	if !ok || !c.trusted.Contains(peerAddr) {
		return client
	}

	if proto := lastHeaderValue(r.Header.Values(headerForwardedProto)); strings.EqualFold(proto, "https") {
		client.HTTPS = true
	}

	hops := splitHeaderValues(r.Header.Values(headerForwardedFor))
	for i := len(hops) - 1; i >= 0; i-- {
		addr, ok := parseHop(hops[i])
		if !ok {
			break
		}
		client.IP = addr.String()
		client.Proxied = true
		if !c.trusted.Contains(addr) {
			break
		}
	}

	return client
}

func remoteHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// parseHop accepts a bare address or an address with a port.
func parseHop(hop string) (netip.Addr, bool) {
	hop = strings.TrimSpace(hop)
	if addr, err := netip.ParseAddr(hop); err == nil {
		return addr.WithZone("").Unmap(), true
	}
	if ap, err := netip.ParseAddrPort(hop); err == nil {
		return ap.Addr().WithZone("").Unmap(), true
	}
	return netip.Addr{}, false
}

func splitHeaderValues(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func lastHeaderValue(values []string) string {
	parts := splitHeaderValues(values)
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

type clientKey struct{}

func contextWithClient(ctx context.Context, client Client) context.Context {
	return context.WithValue(ctx, clientKey{}, client)
}

// ClientFromContext returns the client resolved for the request.
func ClientFromContext(ctx context.Context) (Client, bool) {
	client, ok := ctx.Value(clientKey{}).(Client)
	return client, ok
}
