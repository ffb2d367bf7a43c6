package http

import (
	"net"
	"net/http"
	"strings"
)

// Headers consulted when deriving the address of a capture submitter
const (
	HeaderForwardedFor  = "X-Forwarded-For"
	HeaderConnectingIP  = "CF-Connecting-IP"
	UnknownClientIP     = "unknown"
	loopbackIPv4Literal = "127.0.0.1"
)

// ExtractAttemptIP derives the submitter address for a captured attempt.
//
// Precedence:
// 1. First comma-separated entry of X-Forwarded-For, trimmed
// 2. CF-Connecting-IP set by the edge proxy
// 3. The literal "unknown"
//
// The result is not validated as an IP address. Downstream lookups fail
// softly when it is not one.
func ExtractAttemptIP(r *http.Request) string {
	if xff := r.Header.Get(HeaderForwardedFor); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if cf := r.Header.Get(HeaderConnectingIP); cf != "" {
		return cf
	}

	return UnknownClientIP
}

// IsLookupable reports whether ip is worth sending to a geolocation service.
// The "unknown" sentinel and loopback addresses are not.
func IsLookupable(ip string) bool {
	if ip == "" || ip == UnknownClientIP || ip == loopbackIPv4Literal {
		return false
	}
	if parsed := net.ParseIP(ip); parsed != nil && parsed.IsLoopback() {
		return false
	}
	return true
}
