package observability

import (
	"net"
	"net/http"
	"strings"
	"unicode"
)

const (
	routeLimit  = 180
	methodLimit = 10
	ipLimit     = 64
)

// logSafe removes control characters and keeps at most limit runes, so request data cannot forge
// log lines.
func logSafe(value string, limit int) string {
	value = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, value)
	if runes := []rune(value); len(runes) > limit {
		value = string(runes[:limit])
	}
	return value
}

// RouteLabel is the loggable form of a route pattern or path.
func RouteLabel(route string) string {
	if route == "" {
		return "/"
	}
	return logSafe(route, routeLimit)
}

// MethodLabel is the loggable form of an HTTP method.
func MethodLabel(method string) string {
	return logSafe(method, methodLimit)
}

// clientIP strips the port from RemoteAddr, which RealIP may already have rewritten.
func clientIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	return logSafe(addr, ipLimit)
}
