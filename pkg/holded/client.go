package holded

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/solucions-socials/platform/pkg/common/config"
	"github.com/solucions-socials/platform/pkg/common/logger"
	"github.com/solucions-socials/platform/pkg/gateway/httpclient"
)

const maxResponseBytes = 20 << 20

// Client talks to the Holded invoicing API on behalf of one tenant. The API
// key never leaves this process.
type Client struct {
	company       string
	baseURL       string
	apiKey        string
	http          *http.Client
	retryAttempts int
}

func NewClient(tenant config.Tenant, httpClient *http.Client, retryAttempts int) *Client {
	baseURL := tenant.BaseURL
	if baseURL == "" {
		baseURL = config.DefaultHoldedBaseURL
	}
	if httpClient == nil {
		httpClient = httpclient.New(30 * time.Second)
	}
	return &Client{
		company:       tenant.ID,
		baseURL:       strings.TrimRight(baseURL, "/"),
		apiKey:        tenant.APIKey,
		http:          httpClient,
		retryAttempts: retryAttempts,
	}
}

func (c *Client) Get(ctx context.Context, endpoint string, query url.Values, out interface{}) error {
	return c.Do(ctx, http.MethodGet, endpoint, query, nil, out)
}

// Do performs one request and decodes the JSON body into out. Numbers are
// decoded as json.Number so that ids and timestamps keep their precision.
func (c *Client) Do(ctx context.Context, method, endpoint string, query url.Values, body, out interface{}) error {
	return httpclient.Retry(ctx, c.retryAttempts, 200*time.Millisecond, retriable, func() error {
		return c.do(ctx, method, endpoint, query, body, out)
	})
}

func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, body, out interface{}) error {
	target := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &NetworkError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &NetworkError{Endpoint: endpoint, Err: err}
	}

	logger.Log.WithFields(map[string]interface{}{
		"company":     c.company,
		"method":      method,
		"endpoint":    endpoint,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("holded request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RemoteAPIError{
			StatusCode: resp.StatusCode,
			Endpoint:   endpoint,
			Body:       truncate(strings.TrimSpace(string(raw)), 512),
		}
	}

	if !json.Valid(raw) {
		return &InvalidCredentialsError{Endpoint: endpoint, Err: errors.New("response body is not JSON")}
	}
	if out == nil {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", endpoint, err)
	}
	return nil
}

// retriable retries transport failures only. Holded answers are never retried.
func retriable(err error) bool {
	return IsNetworkError(err) && httpclient.IsRetriable(err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
