// Package backend is the boundary to the per-tenant data browsers. The
// gate treats a backend as an opaque http.Handler; this package resolves
// one per site.
package backend

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sync"

	"github.com/civicband/edge-gateway/internal/tenant"
)

// Dispatcher resolves the handler serving a tenant's data browser.
type Dispatcher interface {
	Handler(site *tenant.Site) (http.Handler, error)
}

// ProxyDispatcher forwards requests to per-site browser processes. The
// address template expands %s to the tenant key, e.g.
// "http://127.0.0.1:9000/%s" or "http://%s.sites.internal:8001".
type ProxyDispatcher struct {
	addrTemplate string

	mu      sync.Mutex
	proxies map[string]http.Handler
}

var _ Dispatcher = (*ProxyDispatcher)(nil)

func NewProxyDispatcher(addrTemplate string) *ProxyDispatcher {
	return &ProxyDispatcher{
		addrTemplate: addrTemplate,
		proxies:      make(map[string]http.Handler),
	}
}

// RootProxy forwards tenant-less hosts (the bare domain, localhost) to the
// marketing application, unmodified.
func RootProxy(rootURL string) (http.Handler, error) {
	target, err := url.Parse(rootURL)
	if err != nil {
		return nil, fmt.Errorf("resolving root application: %w", err)
	}
	return httputil.NewSingleHostReverseProxy(target), nil
}

func (p *ProxyDispatcher) Handler(site *tenant.Site) (http.Handler, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if h, ok := p.proxies[site.Subdomain]; ok {
		return h, nil
	}

	target, err := url.Parse(fmt.Sprintf(p.addrTemplate, site.Subdomain))
	if err != nil {
		return nil, fmt.Errorf("resolving backend for %s: %w", site.Subdomain, err)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	p.proxies[site.Subdomain] = proxy
	return proxy, nil
}
