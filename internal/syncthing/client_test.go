package syncthing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New("nas", srv.URL, "test-key")
}

func TestGet_SendsAPIKey(t *testing.T) {
	t.Parallel()

	var gotKey string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	if _, err := c.Get(context.Background(), "/rest/system/status", nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if gotKey != "test-key" {
		t.Fatalf("X-API-Key = %q", gotKey)
	}
}

func TestGet_QueryParams(t *testing.T) {
	t.Parallel()

	var gotFolder, gotDevice string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotFolder = r.URL.Query().Get("folder")
		gotDevice = r.URL.Query().Get("device")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := c.Get(context.Background(), "/rest/db/completion",
		map[string]string{"folder": "docs", "device": "DEV1"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if gotFolder != "docs" || gotDevice != "DEV1" {
		t.Fatalf("query = folder:%q device:%q", gotFolder, gotDevice)
	}
}

func TestPost_EmptyBodyYieldsOKSentinel(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	res, err := c.Post(context.Background(), "/rest/db/scan",
		map[string]string{"folder": "docs"}, nil)
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	m, ok := res.(map[string]any)
	if !ok || m["status"] != "ok" {
		t.Fatalf("expected ok sentinel, got %#v", res)
	}
}

func TestDo_NonJSONBodyYieldsOKSentinel(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("OK"))
	})

	res, err := c.Get(context.Background(), "/rest/system/ping", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	m, ok := res.(map[string]any)
	if !ok || m["status"] != "ok" {
		t.Fatalf("expected ok sentinel, got %#v", res)
	}
}

func TestDo_NonSuccessReturnsAPIError(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no such folder", http.StatusNotFound)
	})

	_, err := c.Get(context.Background(), "/rest/db/status",
		map[string]string{"folder": "missing"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Body != "no such folder" {
		t.Fatalf("APIError = %+v", apiErr)
	}
}

func TestGetInto_DecodesTypedResponse(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"completion":  99.5,
			"needBytes":   1024,
			"remoteState": "valid",
		})
	})

	comp, err := c.FetchCompletion(context.Background(), "docs", "DEV1")
	if err != nil {
		t.Fatalf("FetchCompletion: %v", err)
	}
	if comp.Completion != 99.5 || comp.NeedBytes != 1024 || comp.RemoteState != "valid" {
		t.Fatalf("decoded = %+v", comp)
	}
}

func TestTimeoutIsReported(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	})
	WithTimeout(20 * time.Millisecond)(c)

	_, err := c.Get(context.Background(), "/rest/system/status", nil)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	msg := c.DescribeError(err)
	if want := "busy or unreachable"; !strings.Contains(msg, want) {
		t.Fatalf("DescribeError = %q, want substring %q", msg, want)
	}
}
