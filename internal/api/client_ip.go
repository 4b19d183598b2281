// Tourdesk - Tour Operator Booking and Enquiry Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tourdesk

package api

import (
	"context"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/tomtom215/tourdesk/internal/logging"
)

// ClientIPResolver derives the address quotas are keyed by. Forwarding
// headers are read only when the socket peer is a trusted proxy.
type ClientIPResolver struct {
	trusted []netip.Prefix
}

// NewClientIPResolver accepts IPs and CIDRs. Invalid entries are logged and
// skipped; config validation rejects them before startup.
func NewClientIPResolver(trustedProxies []string) *ClientIPResolver {
	c := &ClientIPResolver{}
	for _, entry := range trustedProxies {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		prefix, err := parseProxy(entry)
		if err != nil {
			logging.Warn().Str("proxy", entry).Err(err).Msg("Ignoring invalid trusted proxy")
			continue
		}
		c.trusted = append(c.trusted, prefix)
	}
	return c
}

func parseProxy(s string) (netip.Prefix, error) {
	if strings.Contains(s, "/") {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return netip.Prefix{}, err
		}
		return p.Masked(), nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, err
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

func (c *ClientIPResolver) isTrusted(addr netip.Addr) bool {
	for _, p := range c.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP returns the client address of r.
//
// From an untrusted peer the socket address is the answer. From a trusted
// proxy, X-Forwarded-For is walked right to left and the first hop that is
// not itself a trusted proxy wins; X-Real-IP is the fallback.
func (c *ClientIPResolver) ClientIP(r *http.Request) string {
	peer, ok := socketAddr(r.RemoteAddr)
	if !ok {
		return r.RemoteAddr
	}
	if !c.isTrusted(peer) {
		return peer.String()
	}

	if xff := r.Header.Values("X-Forwarded-For"); len(xff) > 0 {
		hops := strings.Split(strings.Join(xff, ","), ",")
		for i := len(hops) - 1; i >= 0; i-- {
			addr, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				break
			}
			addr = addr.Unmap()
			if !c.isTrusted(addr) {
				return addr.String()
			}
		}
	}

	if addr, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return addr.Unmap().String()
	}
	return peer.String()
}

// Middleware stores the resolved client address in the request context.
func (c *ClientIPResolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), clientIPKey{}, c.ClientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// KeyFunc is an httprate key function over the resolved client address.
func KeyFunc(r *http.Request) (string, error) {
	return clientIP(r), nil
}

type clientIPKey struct{}

// clientIP is the address the quotas are keyed by. Requests that did not
// pass through Middleware fall back to the socket peer.
func clientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(clientIPKey{}).(string); ok && ip != "" {
		return ip
	}
	if addr, ok := socketAddr(r.RemoteAddr); ok {
		return addr.String()
	}
	return r.RemoteAddr
}

func socketAddr(remote string) (netip.Addr, bool) {
	host := remote
	if h, _, err := net.SplitHostPort(remote); err == nil {
		host = h
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}
