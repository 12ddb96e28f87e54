package apikey

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ObserverClient validates credentials against the civic.observer identity
// service. Calls carry the shared service secret for mutual auth and are
// bounded by the configured timeout; a hung upstream must not hang the gate.
type ObserverClient struct {
	BaseURL string
	Secret  string

	httpClient *http.Client
}

func NewObserverClient(baseURL, secret string, timeout time.Duration) *ObserverClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ObserverClient{
		BaseURL:    baseURL,
		Secret:     secret,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type validateRequest struct {
	APIKey    string `json:"api_key"`
	Subdomain string `json:"subdomain"`
}

// Validate posts the credential and tenant key upstream. Any transport
// error, timeout, or non-200 response is returned as an error; the caller
// treats all of those as an invalid verdict.
func (c *ObserverClient) Validate(ctx context.Context, credential, tenantKey string) (*Verdict, error) {
	body, err := json.Marshal(validateRequest{APIKey: credential, Subdomain: tenantKey})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/api/v1/validate-key", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Service-Secret", c.Secret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling civic.observer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("civic.observer returned status %d", resp.StatusCode)
	}

	var v Verdict
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return nil, fmt.Errorf("decoding civic.observer response: %w", err)
	}
	return &v, nil
}
