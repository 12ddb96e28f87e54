// Package trust classifies callers of JSON endpoints into access tiers.
//
// Classification is pure: it looks only at request headers and the resolved
// tenant key. The three trusted tiers bypass rate limiting and API key
// checks entirely; everything else proceeds to the quota pipeline.
package trust

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Tier is the caller's access-privilege classification for one request.
// Ordering is evaluation precedence, not severity.
type Tier int

const (
	// TierFirstParty is browser traffic from the tenant's own pages.
	TierFirstParty Tier = iota
	// TierInternalService is a sibling service holding the shared secret.
	TierInternalService
	// TierResearchTool is a known academic citation/research client.
	TierResearchTool
	// TierUnknown is an unclassified caller, subject to rate limiting.
	TierUnknown
	// TierValidKey is an unknown caller holding a valid API key.
	TierValidKey
	// TierAnonymous is an unknown caller with no key; results are capped.
	TierAnonymous
)

func (t Tier) String() string {
	switch t {
	case TierFirstParty:
		return "first_party"
	case TierInternalService:
		return "internal_service"
	case TierResearchTool:
		return "research_tool"
	case TierValidKey:
		return "valid_key"
	case TierAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// researchTools are User-Agent substrings of citation managers and academic
// tooling we let through without keys. Matched case-insensitively.
var researchTools = []string{
	"zotero",
	"tropy",
	"mendeley",
	"citoid",
}

// Classifier decides whether a caller is trusted ahead of rate limiting.
type Classifier struct {
	// BaseDomain is the apex domain tenant sites hang off of.
	BaseDomain string
	// ServiceSecret grants internal-service trust. Empty or placeholder
	// values never match.
	ServiceSecret string
	// Placeholder is the shipped default secret, which must fail closed.
	Placeholder string
	// Debug switches the expected referer scheme to http.
	Debug bool
}

// Classify evaluates first-party, internal-service, and research-tool checks
// in that order, short-circuiting on the first match. A false result means
// the caller continues into rate limiting and key validation.
func (c *Classifier) Classify(h http.Header, tenantKey string) (Tier, bool) {
	if c.IsFirstParty(h, tenantKey) {
		return TierFirstParty, true
	}
	if c.IsInternalService(h) {
		return TierInternalService, true
	}
	if c.IsResearchTool(h) {
		return TierResearchTool, true
	}
	return TierUnknown, false
}

// IsFirstParty reports whether the Referer pins the request to this tenant's
// own site. The match is an exact prefix including the trailing slash, so
// "alameda.ca.civic.band.evil.com" cannot spoof "alameda.ca.civic.band".
func (c *Classifier) IsFirstParty(h http.Header, tenantKey string) bool {
	referer := h.Get("Referer")
	if referer == "" || tenantKey == "" {
		return false
	}
	scheme := "https"
	if c.Debug {
		scheme = "http"
	}
	prefix := scheme + "://" + tenantKey + "." + c.BaseDomain + "/"
	return strings.HasPrefix(referer, prefix)
}

// IsInternalService checks the X-Service-Secret header against the
// configured secret in constant time. An unconfigured or placeholder secret
// can never be satisfied.
func (c *Classifier) IsInternalService(h http.Header) bool {
	if c.ServiceSecret == "" || c.ServiceSecret == c.Placeholder {
		return false
	}
	provided := h.Get("X-Service-Secret")
	if provided == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(c.ServiceSecret)) == 1
}

// IsResearchTool matches the User-Agent against known academic tools.
func (c *Classifier) IsResearchTool(h http.Header) bool {
	ua := strings.ToLower(h.Get("User-Agent"))
	if ua == "" {
		return false
	}
	for _, tool := range researchTools {
		if strings.Contains(ua, tool) {
			return true
		}
	}
	return false
}
