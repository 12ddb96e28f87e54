package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Tracker sends search and SQL query events to an Umami-compatible
// collector. Tracking is strictly best-effort: failures are logged and
// never affect the request being tracked.
type Tracker struct {
	Enabled   bool
	URL       string
	WebsiteID string
	APIKey    string

	Queries *QueryCache
	Logger  *slog.Logger

	httpClient *http.Client
}

func NewTracker(enabled bool, url, websiteID, apiKey string, logger *slog.Logger) *Tracker {
	return &Tracker{
		Enabled:    enabled,
		URL:        url,
		WebsiteID:  websiteID,
		APIKey:     apiKey,
		Queries:    NewQueryCache(1000, time.Hour),
		Logger:     logger,
		httpClient: &http.Client{Timeout: 3 * time.Second},
	}
}

type event struct {
	Type    string       `json:"type"`
	Payload eventPayload `json:"payload"`
}

type eventPayload struct {
	Hostname string            `json:"hostname"`
	Language string            `json:"language"`
	Referrer string            `json:"referrer"`
	URL      string            `json:"url"`
	Website  string            `json:"website"`
	Name     string            `json:"name"`
	Data     map[string]string `json:"data,omitempty"`
}

// TrackQuery records a search or SQL query event, deduplicating repeats
// from the same caller. It detaches from the request's cancellation so an
// early client disconnect doesn't lose the event.
func (t *Tracker) TrackQuery(ctx context.Context, name, query, clientAddr, tenantKey, url string) {
	if !t.Enabled || query == "" {
		return
	}
	if !t.Queries.ShouldTrack(query, clientAddr, tenantKey) {
		return
	}

	go t.send(context.WithoutCancel(ctx), event{
		Type: "event",
		Payload: eventPayload{
			Hostname: tenantKey,
			Language: "en-US",
			URL:      url,
			Website:  t.WebsiteID,
			Name:     name,
			Data:     map[string]string{"query": query, "subdomain": tenantKey},
		},
	})
}

func (t *Tracker) send(ctx context.Context, e event) {
	body, err := json.Marshal(e)
	if err != nil {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.URL+"/api/send", bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	// Umami requires a browser-looking UA or it drops the event.
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; civicband-gateway)")
	if t.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.APIKey)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.logger().Debug("analytics event failed", slog.String("error", err.Error()))
		return
	}
	resp.Body.Close()
}

func (t *Tracker) logger() *slog.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return slog.Default()
}
