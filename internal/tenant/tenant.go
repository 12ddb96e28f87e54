package tenant

import (
	"context"
	"strings"
)

// Site is one municipality's hosted data site.
type Site struct {
	Subdomain   string `db:"subdomain"`
	Name        string `db:"name"`
	State       string `db:"state"`
	LastUpdated string `db:"last_updated"`
}

// Directory resolves a tenant key to its site record.
type Directory interface {
	Lookup(ctx context.Context, key string) (*Site, error)
}

// localHosts are served by the root application directly, without a
// directory lookup.
var localHosts = map[string]bool{
	"localhost": true,
	"127.0.0.1": true,
	"0.0.0.0":   true,
}

// KeyFromHost derives the tenant key from a request host. The port is
// stripped; the key is every label except the last two, dot-joined, so
// multi-level keys like "alameda.ca" survive. Hosts with two or fewer
// labels, and loopback addresses, have no tenant key.
func KeyFromHost(host string) string {
	h, _, _ := strings.Cut(host, ":")
	if localHosts[h] {
		return ""
	}
	parts := strings.Split(h, ".")
	if len(parts) <= 2 {
		return ""
	}
	return strings.Join(parts[:len(parts)-2], ".")
}
