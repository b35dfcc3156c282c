package holded

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/solucions-socials/platform/pkg/common/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(config.Tenant{ID: "solucions", APIKey: "secret", BaseURL: server.URL}, server.Client(), 1)
}

func TestClientSendsKeyHeaderAndDecodesNumbers(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("key") != "secret" {
			t.Errorf("expected key header, got %q", r.Header.Get("key"))
		}
		if r.URL.Path != "/documents/purchase" || r.URL.Query().Get("page") != "2" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"p1","status":0,"total":121.5}]`))
	})

	var out []Purchase
	if err := client.Get(context.Background(), "/documents/purchase", url.Values{"page": {"2"}}, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0].ID() != "p1" {
		t.Fatalf("unexpected purchases %v", out)
	}
	if _, ok := out[0]["total"].(json.Number); !ok {
		t.Fatalf("expected json.Number total, got %T", out[0]["total"])
	}
}

func TestClientRemoteAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"info":"not found"}`))
	})

	err := client.Get(context.Background(), "/contacts/missing", nil, nil)
	var apiErr *RemoteAPIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected RemoteAPIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", apiErr.StatusCode)
	}
	if IsInvalidCredentials(err) {
		t.Fatal("404 must not be reported as invalid credentials")
	}
}

func TestClientHTMLBodyIsInvalidCredentials(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>Unauthorized</body></html>"))
	})

	err := client.Get(context.Background(), "/contacts", nil, nil)
	if !IsInvalidCredentials(err) {
		t.Fatalf("expected invalid credentials error, got %v", err)
	}
	if !strings.Contains(err.Error(), "invalid Holded API key") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestClientNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	client := NewClient(config.Tenant{ID: "solucions", APIKey: "secret", BaseURL: baseURL}, nil, 1)
	err := client.Get(context.Background(), "/contacts", nil, nil)
	if !IsNetworkError(err) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestClientRetriesNetworkErrorsOnly(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})
	client.retryAttempts = 3

	if err := client.Get(context.Background(), "/contacts", nil, nil); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected remote api errors not to be retried, got %d calls", calls)
	}
}

func TestClientRetriesRefusedConnections(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	client := NewClient(config.Tenant{ID: "solucions", APIKey: "secret", BaseURL: baseURL}, nil, 2)
	if err := client.Get(context.Background(), "/contacts", nil, nil); !IsNetworkError(err) {
		t.Fatalf("expected network error after retries, got %v", err)
	}
}
