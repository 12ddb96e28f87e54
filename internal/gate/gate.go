// Package gate is the request-admission pipeline: it resolves the tenant
// from the hostname, filters oversized bot queries, classifies the caller
// into a trust tier, and enforces rate limits and API key policy before a
// request ever reaches a tenant's data browser.
package gate

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/civicband/edge-gateway/internal/analytics"
	"github.com/civicband/edge-gateway/internal/apikey"
	"github.com/civicband/edge-gateway/internal/backend"
	"github.com/civicband/edge-gateway/internal/ratelimit"
	"github.com/civicband/edge-gateway/internal/server"
	"github.com/civicband/edge-gateway/internal/tenant"
	"github.com/civicband/edge-gateway/internal/trust"
)

// Gate orchestrates admission. All collaborators are injected at
// construction; Gate itself holds no mutable per-request state.
type Gate struct {
	Directory  tenant.Directory
	Classifier *trust.Classifier
	Limiter    ratelimit.Limiter
	Validator  *apikey.Validator
	Backend    backend.Dispatcher

	// Root serves hosts with no tenant key (the marketing site).
	Root http.Handler

	Tracker *analytics.Tracker
	Metrics *Metrics
	Logger  *slog.Logger

	HomeURL   string
	DocsURL   string
	SignupURL string

	MaxQueryLength int
	MaxPageSize    int
}

// ServeHTTP runs the admission state machine. Every stage's decision is
// final; each request reaches exactly one terminal: forward to backend,
// redirect home, or a synthesized 401/402 response.
func (g *Gate) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	key := tenant.KeyFromHost(r.Host)
	if key == "" {
		g.Root.ServeHTTP(w, r)
		return
	}
	server.AddLogField(ctx, "tenant", key)

	site, err := g.Directory.Lookup(ctx, key)
	if err != nil {
		// Unregistered subdomains and directory faults both redirect;
		// only the fault is worth an error log.
		if errors.Is(err, tenant.ErrNotFound) {
			g.logger().DebugContext(ctx, "unknown tenant", slog.String("tenant", key))
		} else {
			g.logger().ErrorContext(ctx, "tenant directory lookup failed",
				slog.String("tenant", key), slog.String("error", err.Error()))
		}
		g.Metrics.observe("redirect_home", "")
		server.AddLogField(ctx, "outcome", "redirect_home")
		g.redirectHome(w)
		return
	}

	if r.URL.Path == "/robots.txt" {
		g.writeRobots(w)
		return
	}

	if IsQueryTooLong(r.URL.RawQuery, g.MaxQueryLength) {
		g.Metrics.observe("reject_query_too_long", "")
		server.AddLogField(ctx, "outcome", "reject_query_too_long")
		g.reject402QueryTooLong(w)
		return
	}

	// Abuse and quota policy applies to programmatic data export only;
	// interactive browsing goes straight through.
	if !strings.HasSuffix(r.URL.Path, ".json") {
		g.dispatch(w, r, site, "", true)
		return
	}

	tier, trusted := g.Classifier.Classify(r.Header, key)
	if trusted {
		server.AddLogField(ctx, "tier", tier.String())
		g.dispatch(w, r, site, tier.String(), false)
		return
	}

	addr := ClientAddr(r)
	decision := g.Limiter.Allow(ctx, addr)
	server.WriteRateLimitHeaders(w.Header(), decision.Limit, decision.Remaining, decision.ResetAt)
	if !decision.Allowed {
		g.Metrics.observe("reject_rate_limit", tier.String())
		server.AddLogField(ctx, "outcome", "reject_rate_limit")
		server.AddLogField(ctx, "client_addr", addr)
		g.reject402RateLimit(w)
		return
	}

	credential, present := apikey.Extract(r)
	if present {
		verdict := g.Validator.Validate(ctx, credential, key)
		if !verdict.Valid {
			g.Metrics.observe("reject_invalid_key", trust.TierUnknown.String())
			server.AddLogField(ctx, "outcome", "reject_invalid_key")
			g.reject401(w)
			return
		}
		server.AddLogField(ctx, "tier", trust.TierValidKey.String())
		server.AddLogField(ctx, "org", verdict.OrgID)
		g.dispatch(w, r, site, trust.TierValidKey.String(), false)
		return
	}

	// Anonymous: admitted, but result size is clamped. The inbound request
	// is never mutated; the effective request is a clone.
	server.AddLogField(ctx, "tier", trust.TierAnonymous.String())
	capped := r.Clone(ctx)
	capped.URL.RawQuery = CapResultSize(r.URL.RawQuery, g.MaxPageSize)
	g.Metrics.observe("forward_capped", trust.TierAnonymous.String())
	g.dispatch(w, capped, site, trust.TierAnonymous.String(), false)
}

// dispatch hands the (possibly modified) request to the tenant's backend.
// HTML dispatches get the 404 interception treatment; JSON responses pass
// through untouched.
func (g *Gate) dispatch(w http.ResponseWriter, r *http.Request, site *tenant.Site, tier string, html bool) {
	ctx := r.Context()

	// A disconnected client gets no backend dispatch; cache writes above
	// have already completed.
	if ctx.Err() != nil {
		return
	}

	g.trackQuery(r, site.Subdomain)

	handler, err := g.Backend.Handler(site)
	if err != nil {
		g.logger().ErrorContext(ctx, "backend dispatch failed",
			slog.String("tenant", site.Subdomain), slog.String("error", err.Error()))
		g.Metrics.observe("backend_error", tier)
		http.Error(w, "Service temporarily unavailable", http.StatusBadGateway)
		return
	}

	if tier == "" {
		g.Metrics.observe("forward", "browse")
	} else if tier != trust.TierAnonymous.String() {
		g.Metrics.observe("forward", tier)
	}

	if html {
		w = &notFoundWriter{ResponseWriter: w}
	}
	handler.ServeHTTP(w, r)
}

func (g *Gate) trackQuery(r *http.Request, tenantKey string) {
	if g.Tracker == nil {
		return
	}
	values := r.URL.Query()
	if q := values.Get("_search"); q != "" {
		g.Tracker.TrackQuery(r.Context(), "search_query", q, ClientAddr(r), tenantKey, r.URL.String())
	}
	if q := values.Get("sql"); q != "" {
		g.Tracker.TrackQuery(r.Context(), "sql_query", q, ClientAddr(r), tenantKey, r.URL.String())
	}
}

func (g *Gate) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}
