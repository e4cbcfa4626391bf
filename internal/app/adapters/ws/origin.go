package ws

import (
	"net/url"
	"strings"
)

// OriginPolicy decides which browser origins may open a WebSocket.
// "*" allows every origin. Requests without an Origin header come from
// non-browser clients and are always allowed.
type OriginPolicy struct {
	allowAll bool
	allowed  map[string]struct{}
	invalid  []string
}

func NewOriginPolicy(origins []string) *OriginPolicy {
	p := &OriginPolicy{allowed: make(map[string]struct{}, len(origins))}

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		switch {
		case trimmed == "":
			continue
		case trimmed == "*":
			p.allowAll = true
			continue
		}

		normalized, ok := normalizeOrigin(trimmed)
		if !ok {
			p.invalid = append(p.invalid, origin)
			continue
		}
		p.allowed[normalized] = struct{}{}
	}

	return p
}

// Invalid - configured entries that could not be parsed and are ignored.
func (p *OriginPolicy) Invalid() []string {
	return p.invalid
}

func (p *OriginPolicy) Allowed(origin string) bool {
	if origin == "" || p.allowAll {
		return true
	}

	normalized, ok := normalizeOrigin(origin)
	if !ok {
		return false
	}

	_, exists := p.allowed[normalized]
	return exists
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil {
		return "", false
	}

	if parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}

	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}
