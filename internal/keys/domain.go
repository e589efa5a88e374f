package keys

import (
	"net"
	"net/url"
	"strings"
)

// hostFromOrigin extracts a lowercase hostname from an Origin/Referer value or bare host.
func hostFromOrigin(origin string) string {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		return ""
	}
	if strings.Contains(origin, "://") {
		u, err := url.Parse(origin)
		if err != nil {
			return ""
		}
		return strings.ToLower(u.Hostname())
	}
	if host, _, err := net.SplitHostPort(origin); err == nil {
		origin = host
	}
	if i := strings.IndexByte(origin, '/'); i >= 0 {
		origin = origin[:i]
	}
	return strings.ToLower(strings.TrimSuffix(origin, "."))
}

// domainAllowed reports whether origin matches an entry exactly or as a subdomain.
// An empty allow-list admits everything. Requests without an origin are server to
// server calls and are not domain checked.
func domainAllowed(allowed []string, origin string) bool {
	if len(allowed) == 0 || strings.TrimSpace(origin) == "" {
		return true
	}
	host := hostFromOrigin(origin)
	if host == "" {
		return false
	}
	for _, d := range allowed {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func normalizeDomains(domains []string) []string {
	out := make([]string, 0, len(domains))
	seen := make(map[string]bool, len(domains))
	for _, d := range domains {
		h := hostFromOrigin(d)
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	return out
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}
