package server

import (
	"net/http"
	"strconv"
	"time"
)

// WriteRateLimitHeaders writes normalized x-ratelimit-* headers so callers
// can see their quota position regardless of which limiter backend served
// the decision.
func WriteRateLimitHeaders(h http.Header, limit, remaining int, resetAt time.Time) {
	if limit <= 0 {
		return
	}
	h.Set("x-ratelimit-limit", strconv.Itoa(limit))
	if remaining < 0 {
		remaining = 0
	}
	h.Set("x-ratelimit-remaining", strconv.Itoa(remaining))
	if !resetAt.IsZero() {
		h.Set("x-ratelimit-reset", resetAt.UTC().Format(time.RFC3339))
	}
}
