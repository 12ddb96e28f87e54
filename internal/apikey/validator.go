package apikey

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Upstream is the identity-validation collaborator.
type Upstream interface {
	Validate(ctx context.Context, credential, tenantKey string) (*Verdict, error)
}

// Validator resolves credentials to verdicts through the cache. Valid
// verdicts are cached longer than invalid ones so legitimate keys see fewer
// round trips while mistyped or revoked keys recheck sooner.
type Validator struct {
	Cache    VerdictCache
	Upstream Upstream

	ValidTTL   time.Duration
	InvalidTTL time.Duration

	// Debug enables the local dev_ key stub. It must never be set in
	// production deployments; config wiring guarantees that.
	Debug bool

	Logger *slog.Logger
}

// Validate returns the verdict for a credential, consulting the cache
// first. Upstream failures resolve to invalid, never to an error: the gate
// favors availability and the short invalid TTL allows quick retry.
func (v *Validator) Validate(ctx context.Context, credential, tenantKey string) *Verdict {
	key := CacheKey(credential)

	if cached, ok := v.Cache.Get(ctx, key); ok {
		v.logger().DebugContext(ctx, "api key cache hit", slog.String("cache_key", key))
		return cached
	}

	verdict := v.resolve(ctx, credential, tenantKey)

	ttl := v.InvalidTTL
	if verdict.Valid {
		ttl = v.ValidTTL
	}
	v.Cache.Set(ctx, key, verdict, ttl)

	return verdict
}

func (v *Validator) resolve(ctx context.Context, credential, tenantKey string) *Verdict {
	if v.Debug && strings.HasPrefix(credential, "dev_") {
		v.logger().DebugContext(ctx, "accepting dev_ key in debug mode")
		return &Verdict{Valid: true, OrgID: "dev", OrgName: "Development"}
	}

	verdict, err := v.Upstream.Validate(ctx, credential, tenantKey)
	if err != nil {
		v.logger().ErrorContext(ctx, "upstream validation failed, treating key as invalid",
			slog.String("error", err.Error()))
		return &Verdict{Valid: false}
	}
	return verdict
}

func (v *Validator) logger() *slog.Logger {
	if v.Logger != nil {
		return v.Logger
	}
	return slog.Default()
}
