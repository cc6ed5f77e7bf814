package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/JonMunkholm/reshape/internal/config"
)

// ProxyTrust decides which connection peers may report the client address
// through X-Real-IP or X-Forwarded-For.
type ProxyTrust struct {
	prefixes []netip.Prefix
}

// NewProxyTrust parses cfg.TrustedProxies. Entries may be CIDRs or single
// addresses. Invalid entries are logged and skipped, so an empty or broken
// list trusts nobody.
func NewProxyTrust(cfg *config.SecurityConfig) *ProxyTrust {
	p := &ProxyTrust{}
	for _, entry := range cfg.TrustedProxies {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if prefix, err := netip.ParsePrefix(entry); err == nil {
			p.prefixes = append(p.prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			slog.Warn("realip: invalid trusted proxy, skipping",
				"entry", entry,
				"error", err,
			)
			continue
		}
		addr = addr.Unmap()
		p.prefixes = append(p.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return p
}

// Trusts reports whether addr lies in a trusted proxy range.
func (p *ProxyTrust) Trusts(addr netip.Addr) bool {
	if !addr.IsValid() {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range p.prefixes {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientAddr resolves the address of the client behind r. Headers are read
// only when the connection peer is trusted. X-Real-IP wins. Otherwise
// X-Forwarded-For is walked from the nearest hop outward and the first
// untrusted hop is the client; a chain made only of trusted hops resolves
// to its leftmost entry. ok is false when the headers give nothing usable.
func (p *ProxyTrust) ClientAddr(r *http.Request) (addr netip.Addr, ok bool) {
	peer, err := netip.ParseAddr(ClientIP(r))
	if err != nil || !p.Trusts(peer) {
		return netip.Addr{}, false
	}

	if rip := strings.TrimSpace(r.Header.Get("X-Real-IP")); rip != "" {
		a, err := netip.ParseAddr(rip)
		if err != nil {
			return netip.Addr{}, false
		}
		return a.Unmap(), true
	}

	xff := r.Header.Get("X-Forwarded-For")
	if xff == "" {
		return netip.Addr{}, false
	}
	hops := strings.Split(xff, ",")
	for i := len(hops) - 1; i >= 0; i-- {
		a, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			return netip.Addr{}, false
		}
		addr = a.Unmap()
		if !p.Trusts(addr) {
			return addr, true
		}
	}
	return addr, true
}

// TrustedRealIP rewrites r.RemoteAddr to the client address when the
// request arrives through a proxy listed in cfg.TrustedProxies. Requests
// from anywhere else keep their RemoteAddr, so clients cannot spoof their
// way past rate limiting.
func TrustedRealIP(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	trust := NewProxyTrust(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if addr, ok := trust.ClientAddr(r); ok {
				r.RemoteAddr = addr.String()
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the host part of r.RemoteAddr.
func ClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
