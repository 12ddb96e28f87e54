package analytics

import (
	"fmt"
	"testing"
	"time"
)

func TestQueryCache_SuppressesDuplicates(t *testing.T) {
	c := NewQueryCache(100, time.Hour)

	if !c.ShouldTrack("select * from meetings", "1.2.3.4", "alameda.ca") {
		t.Fatal("first occurrence should be tracked")
	}
	if c.ShouldTrack("select * from meetings", "1.2.3.4", "alameda.ca") {
		t.Error("duplicate should be suppressed")
	}
}

func TestQueryCache_NormalizesQueries(t *testing.T) {
	c := NewQueryCache(100, time.Hour)

	c.ShouldTrack("SELECT  *   FROM meetings", "1.2.3.4", "alameda.ca")
	if c.ShouldTrack("select * from meetings", "1.2.3.4", "alameda.ca") {
		t.Error("case and whitespace variants should dedup together")
	}
}

func TestQueryCache_KeyIncludesCallerAndTenant(t *testing.T) {
	c := NewQueryCache(100, time.Hour)

	c.ShouldTrack("select 1", "1.2.3.4", "alameda.ca")
	if !c.ShouldTrack("select 1", "5.6.7.8", "alameda.ca") {
		t.Error("different client should be tracked independently")
	}
	if !c.ShouldTrack("select 1", "1.2.3.4", "oakland.ca") {
		t.Error("different tenant should be tracked independently")
	}
}

func TestQueryCache_BoundedSize(t *testing.T) {
	c := NewQueryCache(10, time.Hour)

	for i := 0; i < 50; i++ {
		c.ShouldTrack(fmt.Sprintf("select %d", i), "1.2.3.4", "alameda.ca")
	}
	if c.Len() > 10 {
		t.Errorf("cache exceeded max size: %d", c.Len())
	}
}

func TestQueryCache_TTLExpiry(t *testing.T) {
	c := NewQueryCache(100, 50*time.Millisecond)

	c.ShouldTrack("select 1", "1.2.3.4", "alameda.ca")
	time.Sleep(80 * time.Millisecond)
	if !c.ShouldTrack("select 1", "1.2.3.4", "alameda.ca") {
		t.Error("expired entry should be tracked again")
	}
}
