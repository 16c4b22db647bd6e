package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// UnknownClient is the key of requests with no derivable identity. All of them
// share one bucket rather than bypassing the limiter.
const UnknownClient = "unknown"

// KeyFunc derives the rate limit identity of a request. It must never return
// an empty string.
type KeyFunc func(r *http.Request) string

// Key strategies accepted by NewKeyFunc.
const (
	KeyIP          = "ip"
	KeyIPUserAgent = "ip_user_agent"
)

// NewKeyFunc returns the key strategy registered under name.
func NewKeyFunc(name string, trustProxy bool) (KeyFunc, error) {
	switch name {
	case KeyIP, "":
		return IPKey(trustProxy), nil
	case KeyIPUserAgent:
		return IPUserAgentKey(trustProxy), nil
	default:
		return nil, fmt.Errorf("unknown client key strategy %q", name)
	}
}

// IPKey identifies clients by network address.
func IPKey(trustProxy bool) KeyFunc {
	return func(r *http.Request) string {
		if ip := clientIP(r, trustProxy); ip != "" {
			return ip
		}

		return UnknownClient
	}
}

// IPUserAgentKey identifies clients by a hash of address and User-Agent, which
// separates clients sharing a NAT address.
func IPUserAgentKey(trustProxy bool) KeyFunc {
	return func(r *http.Request) string {
		ip := clientIP(r, trustProxy)
		ua := r.UserAgent()

		if ip == "" && ua == "" {
			return UnknownClient
		}

		hash := sha256.Sum256([]byte(ip + "|" + ua))

		return hex.EncodeToString(hash[:])
	}
}

// clientIP extracts the client IP from the request. Forwarding headers are
// only honored when the service runs behind a trusted proxy, since clients
// can set them freely.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		// Take the first IP (original client)
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}

		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}

	addr := strings.TrimSpace(r.RemoteAddr)

	ip, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}

	return ip
}
