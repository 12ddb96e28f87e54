package trust

import (
	"net/http"
	"testing"
)

func newClassifier() *Classifier {
	return &Classifier{
		BaseDomain:  "civic.band",
		Placeholder: "dev-secret-change-me",
	}
}

func headers(kv ...string) http.Header {
	h := http.Header{}
	for i := 0; i+1 < len(kv); i += 2 {
		h.Set(kv[i], kv[i+1])
	}
	return h
}

// =============================================================================
// First-party (Referer) Tests
// =============================================================================

func TestIsFirstParty(t *testing.T) {
	c := newClassifier()

	tests := []struct {
		name      string
		referer   string
		tenantKey string
		want      bool
	}{
		{"matching referer", "https://alameda.ca.civic.band/meetings/minutes", "alameda.ca", true},
		{"matching referer with query", "https://alameda.ca.civic.band/-/search?q=budget", "alameda.ca", true},
		{"different subdomain", "https://oakland.ca.civic.band/meetings/minutes", "alameda.ca", false},
		{"external site", "https://example.com/scraper", "alameda.ca", false},
		{"no referer", "", "alameda.ca", false},
		{"http scheme in production", "http://alameda.ca.civic.band/meetings", "alameda.ca", false},
		{"partial subdomain", "https://alameda.civic.band/meetings", "alameda.ca", false},
		{"prefix attack", "https://alameda.ca.civic.band.evil.com/", "alameda.ca", false},
		{"no tenant key", "https://alameda.ca.civic.band/", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.referer != "" {
				h.Set("Referer", tt.referer)
			}
			if got := c.IsFirstParty(h, tt.tenantKey); got != tt.want {
				t.Errorf("IsFirstParty(%q, %q) = %v, want %v", tt.referer, tt.tenantKey, got, tt.want)
			}
		})
	}
}

func TestIsFirstParty_DebugUsesHTTP(t *testing.T) {
	c := newClassifier()
	c.Debug = true

	h := headers("Referer", "http://alameda.ca.civic.band/meetings")
	if !c.IsFirstParty(h, "alameda.ca") {
		t.Error("expected http referer to match in debug mode")
	}

	h = headers("Referer", "https://alameda.ca.civic.band/meetings")
	if c.IsFirstParty(h, "alameda.ca") {
		t.Error("expected https referer to be rejected in debug mode")
	}
}

// =============================================================================
// Internal service (X-Service-Secret) Tests
// =============================================================================

func TestIsInternalService(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		header     string
		want       bool
	}{
		{"valid secret", "real-secret-value", "real-secret-value", true},
		{"invalid secret", "real-secret-value", "wrong-secret", false},
		{"missing header", "real-secret-value", "", false},
		{"placeholder secret never matches", "dev-secret-change-me", "dev-secret-change-me", false},
		{"empty secret never matches", "", "", false},
		{"empty secret with header", "", "anything", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClassifier()
			c.ServiceSecret = tt.configured
			h := http.Header{}
			if tt.header != "" {
				h.Set("X-Service-Secret", tt.header)
			}
			if got := c.IsInternalService(h); got != tt.want {
				t.Errorf("IsInternalService = %v, want %v", got, tt.want)
			}
		})
	}
}

// =============================================================================
// Research tool (User-Agent) Tests
// =============================================================================

func TestIsResearchTool(t *testing.T) {
	c := newClassifier()

	tests := []struct {
		ua   string
		want bool
	}{
		{"Mozilla/5.0 Zotero/6.0", true},
		{"ZOTERO", true},
		{"tropy 1.0", true},
		{"Mendeley Desktop/2.80", true},
		{"Mozilla/5.0 (Windows NT 10.0)", false},
		{"", false},
	}

	for _, tt := range tests {
		h := http.Header{}
		if tt.ua != "" {
			h.Set("User-Agent", tt.ua)
		}
		if got := c.IsResearchTool(h); got != tt.want {
			t.Errorf("IsResearchTool(%q) = %v, want %v", tt.ua, got, tt.want)
		}
	}
}

// =============================================================================
// Classify ordering
// =============================================================================

func TestClassify_Precedence(t *testing.T) {
	c := newClassifier()
	c.ServiceSecret = "real-secret-value"

	// First-party wins even when the secret also matches.
	h := headers(
		"Referer", "https://alameda.ca.civic.band/",
		"X-Service-Secret", "real-secret-value",
	)
	tier, trusted := c.Classify(h, "alameda.ca")
	if !trusted || tier != TierFirstParty {
		t.Errorf("expected first_party, got %v (trusted=%v)", tier, trusted)
	}

	// Secret beats research-tool UA.
	h = headers(
		"X-Service-Secret", "real-secret-value",
		"User-Agent", "Zotero/6.0",
	)
	tier, trusted = c.Classify(h, "alameda.ca")
	if !trusted || tier != TierInternalService {
		t.Errorf("expected internal_service, got %v (trusted=%v)", tier, trusted)
	}

	// Nothing matches: unknown and untrusted.
	tier, trusted = c.Classify(http.Header{}, "alameda.ca")
	if trusted || tier != TierUnknown {
		t.Errorf("expected unknown/untrusted, got %v (trusted=%v)", tier, trusted)
	}
}
