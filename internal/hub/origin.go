package hub

import (
	"net/http"
	"strings"
)

// OriginPolicy decides which browser origins may open viewer connections.
type OriginPolicy struct {
	any     bool
	allowed map[string]struct{}
}

// ParseOrigins builds a policy from the configured value: "*" allows every
// origin, a comma-separated list allows those origins, and an empty value
// allows only same-origin and non-browser clients.
func ParseOrigins(raw string) OriginPolicy {
	raw = strings.TrimSpace(raw)
	if raw == "*" {
		return OriginPolicy{any: true}
	}
	p := OriginPolicy{allowed: make(map[string]struct{})}
	for _, o := range strings.Split(raw, ",") {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			p.allowed[o] = struct{}{}
		}
	}
	return p
}

// Check reports whether r may be upgraded. Requests without an Origin
// header are always allowed. Same-host origins are accepted only when no
// list is configured.
func (p OriginPolicy) Check(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || p.any {
		return true
	}
	if len(p.allowed) > 0 {
		_, ok := p.allowed[strings.TrimRight(origin, "/")]
		return ok
	}
	return sameHost(origin, r.Host)
}

func sameHost(origin, host string) bool {
	if i := strings.Index(origin, "://"); i >= 0 {
		origin = origin[i+3:]
	}
	return strings.EqualFold(origin, host)
}
