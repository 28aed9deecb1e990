package utilities

import (
	"net"
	"net/http"
	"strings"
)

var forwardedIPHeaders = []string{
	"X-Forwarded-For",
	"X-Real-IP",
}

// ClientInfo describes the caller of an HTTP request.
type ClientInfo struct {
	IPAddress *string
	UserAgent *string
}

// ClientInfoFromRequest extracts the client IP and user agent, preferring the
// proxy headers set by the gateway over the socket address.
func ClientInfoFromRequest(r *http.Request) ClientInfo {
	var info ClientInfo

	if ip := clientIP(r); ip != "" {
		info.IPAddress = &ip
	}

	if ua := r.Header.Get("User-Agent"); ua != "" {
		info.UserAgent = &ua
	}

	return info
}

func clientIP(r *http.Request) string {
	for _, header := range forwardedIPHeaders {
		value := r.Header.Get(header)
		if value == "" {
			continue
		}
		// X-Forwarded-For may carry a chain, the first entry is the client.
		first := strings.TrimSpace(strings.SplitN(value, ",", 2)[0])
		if first != "" {
			return first
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
