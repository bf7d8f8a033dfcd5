package httputil

import (
	"net"
	"net/http"
	"strings"
)

// GetClientIP returns the originating client address for a request. Proxy
// headers win over the socket address: the first entry of X-Forwarded-For,
// then X-Real-IP, then RemoteAddr with the port stripped.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
