package router

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// clientIP rewrites RemoteAddr to the address reported by the first trusted
// proxy header that holds a valid IP.
func clientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ip, ok := forwardedIP(r.Header); ok {
			r.RemoteAddr = ip
		} else if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			if _, err := netip.ParseAddr(host); err == nil {
				r.RemoteAddr = host
			}
		}
		next.ServeHTTP(w, r)
	})
}

func forwardedIP(h http.Header) (string, bool) {
	first, _, _ := strings.Cut(h.Get("X-Forwarded-For"), ",")
	for _, v := range []string{h.Get("True-Client-IP"), h.Get("X-Real-IP"), first} {
		addr, err := netip.ParseAddr(strings.TrimSpace(v))
		if err == nil {
			return addr.String(), true
		}
	}
	return "", false
}
