package gate

import (
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// searchParams are the free-text parameters scrapers stuff oversized
// payloads into. Only these are length-checked.
var searchParams = []string{"text", "_search"}

// IsQueryTooLong reports whether any free-text search value exceeds the
// maximum. This is the cheapest rejection in the pipeline and runs before
// trust classification, so it applies to every tier.
func IsQueryTooLong(rawQuery string, max int) bool {
	if rawQuery == "" {
		return false
	}
	values, _ := url.ParseQuery(rawQuery)
	for _, param := range searchParams {
		for _, v := range values[param] {
			if len(v) > max {
				return true
			}
		}
	}
	return false
}

// CapResultSize returns a query string whose _size parameter never exceeds
// max. Absent or unparseable values are set to max (fail closed); values
// already at or under the max pass through untouched.
func CapResultSize(rawQuery string, max int) string {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		values = url.Values{}
	}

	capped := strconv.Itoa(max)
	current := values.Get("_size")
	if current != "" {
		n, err := strconv.Atoi(current)
		if err == nil && n <= max {
			return rawQuery
		}
	}
	values.Set("_size", capped)
	return values.Encode()
}

// ClientAddr derives the rate-limit key for a request: the first entry of
// X-Forwarded-For (the reverse proxy in front of us populates it; we do not
// defend against proxy spoofing here), falling back to the transport peer,
// then to a shared "unknown" sentinel.
func ClientAddr(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if addr := strings.TrimSpace(first); addr != "" {
			return addr
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
