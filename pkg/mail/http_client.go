package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// APISettings configure the JSON-over-HTTP providers.
type APISettings struct {
	APIKey   string
	Endpoint string
	From     string
	FromName string
	Timeout  time.Duration
}

// APIOption customises an HTTP provider.
type APIOption func(*apiClient)

// WithHTTPClient overrides the HTTP client used to reach the provider.
func WithHTTPClient(c *http.Client) APIOption {
	return func(cl *apiClient) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

type apiClient struct {
	provider   string
	settings   APISettings
	httpClient *http.Client
}

func newAPIClient(provider, defaultEndpoint string, settings APISettings, opts ...APIOption) (*apiClient, error) {
	if strings.TrimSpace(settings.APIKey) == "" {
		return nil, fmt.Errorf("%s: api key is required", provider)
	}
	if strings.TrimSpace(settings.Endpoint) == "" {
		settings.Endpoint = defaultEndpoint
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 15 * time.Second
	}
	c := &apiClient{
		provider:   provider,
		settings:   settings,
		httpClient: &http.Client{Timeout: settings.Timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// postJSON sends payload and returns the response headers and body for 2xx replies.
func (c *apiClient) postJSON(ctx context.Context, payload any, headers map[string]string) (http.Header, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: marshal payload: %w", c.provider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.settings.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: create request: %w", c.provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, &TransportError{Provider: c.provider, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, nil, &TransportError{
			Provider:   c.provider,
			StatusCode: resp.StatusCode,
			Message:    apiErrorMessage(raw, resp.Status),
		}
	}
	return resp.Header, raw, nil
}

func apiErrorMessage(raw []byte, fallback string) string {
	var decoded struct {
		Message string `json:"message"`
		Errors  []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if json.Unmarshal(raw, &decoded) == nil {
		if decoded.Message != "" {
			return decoded.Message
		}
		if len(decoded.Errors) > 0 && decoded.Errors[0].Message != "" {
			return decoded.Errors[0].Message
		}
	}
	return fallback
}
