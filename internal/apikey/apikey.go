// Package apikey validates caller credentials against civic.observer,
// caching verdicts so repeat callers don't round-trip upstream.
package apikey

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

// Verdict is the cached outcome of validating a credential.
type Verdict struct {
	Valid   bool   `json:"valid"`
	OrgID   string `json:"org_id,omitempty"`
	OrgName string `json:"org_name,omitempty"`
}

// Extract locates a credential in the request, first match wins:
// Authorization bearer token, then the X-API-Key header, then the api_key
// query parameter. The second return value is false when no credential is
// present, which is distinct from an invalid one.
func Extract(r *http.Request) (string, bool) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
			return strings.TrimSpace(auth[7:]), true
		}
	}

	if key := r.Header.Get("X-API-Key"); key != "" {
		return strings.TrimSpace(key), true
	}

	if key := r.URL.Query().Get("api_key"); key != "" {
		return key, true
	}

	return "", false
}

// CacheKey hashes a credential into its cache key. Raw credentials are
// never stored or logged; the truncated digest is enough to disambiguate.
func CacheKey(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return "apikey:" + hex.EncodeToString(sum[:])[:16]
}
