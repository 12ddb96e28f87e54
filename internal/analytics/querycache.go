// Package analytics ships query events to the Umami collector, with an
// LRU+TTL dedup cache so repeated identical queries from the same caller
// are only tracked once per hour.
package analytics

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

var whitespace = regexp.MustCompile(`\s+`)

// QueryCache suppresses duplicate query-tracking events. Entries are keyed
// by (normalized query, client address, tenant key), bounded by maxSize with
// LRU eviction, and independently expired by TTL.
type QueryCache struct {
	lru *expirable.LRU[string, struct{}]
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 1000
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &QueryCache{
		lru: expirable.NewLRU[string, struct{}](maxSize, nil, ttl),
	}
}

// ShouldTrack reports whether this query is new for this caller and tenant,
// recording it when it is. A present, unexpired entry suppresses tracking.
func (c *QueryCache) ShouldTrack(query, clientAddr, tenantKey string) bool {
	key := cacheKey(query, clientAddr, tenantKey)
	if _, ok := c.lru.Get(key); ok {
		return false
	}
	c.lru.Add(key, struct{}{})
	return true
}

// Len returns the number of live entries, for tests and metrics.
func (c *QueryCache) Len() int {
	return c.lru.Len()
}

func cacheKey(query, clientAddr, tenantKey string) string {
	normalized := whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(query)), " ")
	sum := sha256.Sum256([]byte(normalized + "|" + clientAddr + "|" + tenantKey))
	return hex.EncodeToString(sum[:])
}
