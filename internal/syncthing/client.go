// Package syncthing is a thin authenticated client for one Syncthing
// instance's REST API. It offers the five raw verbs the tool handlers build
// on, typed fetchers for the endpoints with stable shapes, and a canonical
// error-to-message mapping.
package syncthing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// defaultTimeout is the flat per-call timeout. No retries, no backoff:
// transient failures surface immediately to the caller.
const defaultTimeout = 30 * time.Second

// okSentinel is returned for successful responses with no JSON body, so that
// mutating endpoints always yield something serializable.
var okSentinel = map[string]any{"status": "ok"}

// Observer is notified after every completed REST call. Used to feed
// metrics; a nil observer is valid.
type Observer func(instance, method, path string, status int, err error, elapsed time.Duration)

// Client is an instance-bound accessor for the Syncthing REST API.
type Client struct {
	name     string
	baseURL  string
	apiKey   string
	http     *resty.Client
	observer Observer
	tracer   trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the flat per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// WithObserver installs a call observer.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// New creates a client bound to one instance.
func New(name, baseURL, apiKey string, opts ...Option) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	c := &Client{
		name:    name,
		baseURL: baseURL,
		apiKey:  apiKey,
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(defaultTimeout).
			SetRetryCount(0).
			SetHeader("X-API-Key", apiKey).
			SetHeader("Accept", "application/json"),
		tracer: otel.Tracer("syncmcp/syncthing"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the instance name.
func (c *Client) Name() string { return c.name }

// BaseURL returns the instance base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// HasAPIKey reports whether credentials are configured.
func (c *Client) HasAPIKey() bool { return c.apiKey != "" }

// Get issues an authenticated GET and returns the decoded JSON body.
func (c *Client) Get(ctx context.Context, path string, query map[string]string) (any, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

// Post issues an authenticated POST with an optional JSON body.
func (c *Client) Post(ctx context.Context, path string, query map[string]string, body any) (any, error) {
	return c.do(ctx, http.MethodPost, path, query, body)
}

// Patch issues an authenticated PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body any) (any, error) {
	return c.do(ctx, http.MethodPatch, path, nil, body)
}

// Put issues an authenticated PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (any, error) {
	return c.do(ctx, http.MethodPut, path, nil, body)
}

// Delete issues an authenticated DELETE.
func (c *Client) Delete(ctx context.Context, path string, query map[string]string) (any, error) {
	return c.do(ctx, http.MethodDelete, path, query, nil)
}

// GetInto issues a GET and decodes the JSON response into out.
func (c *Client) GetInto(ctx context.Context, path string, query map[string]string, out any) error {
	raw, err := c.raw(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("syncthing: decoding %s: %w", path, err)
	}
	return nil
}

// do performs a call and decodes the JSON body generically. A successful
// response without a JSON content type or with an empty body yields the
// {"status":"ok"} sentinel.
func (c *Client) do(ctx context.Context, method, path string, query map[string]string, body any) (any, error) {
	raw, err := c.raw(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return okSentinel, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("syncthing: decoding %s: %w", path, err)
	}
	return v, nil
}

// raw performs a call and returns the JSON body bytes, or nil for a
// successful response that carried no JSON.
func (c *Client) raw(ctx context.Context, method, path string, query map[string]string, body any) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, "syncthing.request",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("syncthing.instance", c.name),
			attribute.String("http.method", method),
			attribute.String("http.path", path),
		))
	defer span.End()

	req := c.http.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	elapsed := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		if c.observer != nil {
			c.observer(c.name, method, path, 0, err, elapsed)
		}
		return nil, fmt.Errorf("syncthing: %s %s: %w", method, path, err)
	}

	status := resp.StatusCode()
	span.SetAttributes(attribute.Int("http.status_code", status))
	if c.observer != nil {
		c.observer(c.name, method, path, status, nil, elapsed)
	}

	if !resp.IsSuccess() {
		apiErr := &APIError{Status: status, Body: strings.TrimSpace(string(resp.Body()))}
		span.SetStatus(codes.Error, apiErr.Error())
		return nil, apiErr
	}

	ct := resp.Header().Get("Content-Type")
	if !strings.HasPrefix(ct, "application/json") || len(resp.Body()) == 0 {
		return nil, nil
	}
	return resp.Body(), nil
}

// Typed fetchers for the endpoints whose shapes the formatters and the
// replication classifier depend on.

// FetchConfig returns the daemon configuration.
func (c *Client) FetchConfig(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := c.GetInto(ctx, "/rest/config", nil, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FetchSystemStatus returns system status.
func (c *Client) FetchSystemStatus(ctx context.Context) (*SystemStatus, error) {
	var st SystemStatus
	if err := c.GetInto(ctx, "/rest/system/status", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// FetchVersion returns the daemon version info.
func (c *Client) FetchVersion(ctx context.Context) (*Version, error) {
	var v Version
	if err := c.GetInto(ctx, "/rest/system/version", nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// FetchConnections returns per-device connection state.
func (c *Client) FetchConnections(ctx context.Context) (*Connections, error) {
	var conns Connections
	if err := c.GetInto(ctx, "/rest/system/connections", nil, &conns); err != nil {
		return nil, err
	}
	if conns.Connections == nil {
		conns.Connections = map[string]Connection{}
	}
	return &conns, nil
}

// FetchFolderStatus returns database status for one folder.
func (c *Client) FetchFolderStatus(ctx context.Context, folderID string) (*FolderStatus, error) {
	var st FolderStatus
	if err := c.GetInto(ctx, "/rest/db/status", map[string]string{"folder": folderID}, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// FetchCompletion returns replication completion for a folder on a device.
func (c *Client) FetchCompletion(ctx context.Context, folderID, deviceID string) (*Completion, error) {
	var comp Completion
	query := map[string]string{"folder": folderID, "device": deviceID}
	if err := c.GetInto(ctx, "/rest/db/completion", query, &comp); err != nil {
		return nil, err
	}
	return &comp, nil
}

// FetchDeviceCompletion returns a device's aggregate completion across all
// shared folders.
func (c *Client) FetchDeviceCompletion(ctx context.Context, deviceID string) (*Completion, error) {
	var comp Completion
	if err := c.GetInto(ctx, "/rest/db/completion", map[string]string{"device": deviceID}, &comp); err != nil {
		return nil, err
	}
	return &comp, nil
}

// FetchDeviceStats returns last-seen statistics keyed by device ID.
func (c *Client) FetchDeviceStats(ctx context.Context) (map[string]DeviceStat, error) {
	stats := map[string]DeviceStat{}
	if err := c.GetInto(ctx, "/rest/stats/device", nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// FetchFolderStats returns scan statistics keyed by folder ID.
func (c *Client) FetchFolderStats(ctx context.Context) (map[string]FolderStat, error) {
	stats := map[string]FolderStat{}
	if err := c.GetInto(ctx, "/rest/stats/folder", nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// Ping checks liveness via the unauthenticated health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Get(ctx, "/rest/noauth/health", nil)
	return err
}
