package config

import "strings"

// NormalizeBaseURL turns a gateway host or URL into the form requests are
// built from: a scheme is added when missing (http for loopback hosts,
// https otherwise) and trailing slashes are dropped.
func NormalizeBaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		if isLoopback(raw) {
			raw = "http://" + raw
		} else {
			raw = "https://" + raw
		}
	}
	return strings.TrimRight(raw, "/")
}

// isLoopback reports whether host (optionally with a port or path) is
// localhost, a .localhost subdomain, 127.0.0.1 or [::1].
func isLoopback(host string) bool {
	if i := strings.IndexByte(host, '/'); i != -1 {
		host = host[:i]
	}
	if strings.HasPrefix(host, "[") {
		return host == "[::1]" || strings.HasPrefix(host, "[::1]:")
	}
	if i := strings.LastIndexByte(host, ':'); i != -1 {
		host = host[:i]
	}
	return host == "localhost" || strings.HasSuffix(host, ".localhost") || host == "127.0.0.1"
}
