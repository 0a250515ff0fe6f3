package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/lynx-sync-agent/internal/lif"
	"github.com/stacklok/lynx-sync-agent/internal/versions"
)

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks -source=client.go Client

const (
	// DefaultProbeTimeout bounds the health check
	DefaultProbeTimeout = 10 * time.Second
	// DefaultUploadTimeout bounds a result upload
	DefaultUploadTimeout = 30 * time.Second
	// DefaultFetchTimeout bounds a start list download
	DefaultFetchTimeout = 30 * time.Second

	// MaxResponseSize is the maximum response body the client reads (16MB)
	MaxResponseSize = 16 * 1024 * 1024

	healthPath      = "/api/health"
	importPath      = "/api/finishlynx/import-results-agent"
	startListPrefix = "/api/finishlynx/export-start-lists/"

	// RequestIDHeader correlates an upload with server side logs
	RequestIDHeader = "X-Request-ID"
)

// Client is the interface to the competition platform
type Client interface {
	// Probe checks that the server is reachable and accepts the API key
	Probe(ctx context.Context) error

	// UploadResults sends decoded results of one file
	UploadResults(ctx context.Context, req UploadRequest) (*UploadResponse, error)

	// FetchStartLists downloads the start lists of a competition
	FetchStartLists(ctx context.Context, competitionID string) ([]StartListEvent, error)
}

// Option configures an HTTPClient
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying http.Client. Its transport is used as is.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) {
		if c != nil {
			h.http = c
		}
	}
}

// WithTimeouts overrides the per operation timeouts. Zero values keep the default.
func WithTimeouts(probe, upload, fetch time.Duration) Option {
	return func(h *HTTPClient) {
		if probe > 0 {
			h.probeTimeout = probe
		}
		if upload > 0 {
			h.uploadTimeout = upload
		}
		if fetch > 0 {
			h.fetchTimeout = fetch
		}
	}
}

// WithTracerProvider traces outgoing requests with the given provider
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(h *HTTPClient) {
		h.tracerProvider = tp
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(h *HTTPClient) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// HTTPClient is the default Client implementation
type HTTPClient struct {
	baseURL string
	apiKey  string

	http           *http.Client
	tracerProvider trace.TracerProvider
	logger         *slog.Logger
	userAgent      string

	probeTimeout  time.Duration
	uploadTimeout time.Duration
	fetchTimeout  time.Duration
}

var _ Client = (*HTTPClient)(nil)

// NewClient creates a client for the server at serverURL
func NewClient(serverURL, apiKey string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:       strings.TrimRight(strings.TrimSpace(serverURL), "/"),
		apiKey:        apiKey,
		logger:        slog.Default(),
		userAgent:     versions.UserAgent(),
		probeTimeout:  DefaultProbeTimeout,
		uploadTimeout: DefaultUploadTimeout,
		fetchTimeout:  DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		transportOpts := []otelhttp.Option{}
		if c.tracerProvider != nil {
			transportOpts = append(transportOpts, otelhttp.WithTracerProvider(c.tracerProvider))
		}
		c.http = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport, transportOpts...),
		}
	}
	return c
}

// BaseURL returns the normalized server URL
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// Probe performs GET /api/health. Any 2xx response means the server is reachable.
func (c *HTTPClient) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	_, _, err := c.do(ctx, "probe", http.MethodGet, healthPath, nil, nil)
	return err
}

// UploadResults performs POST /api/finishlynx/import-results-agent
func (c *HTTPClient) UploadResults(ctx context.Context, req UploadRequest) (*UploadResponse, error) {
	if req.Results == nil {
		req.Results = []lif.ResultRecord{}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, &ClientError{Op: "upload", Err: fmt.Errorf("failed to encode results: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	requestID := uuid.NewString()
	headers := map[string]string{RequestIDHeader: requestID}

	status, respBody, err := c.do(ctx, "upload", http.MethodPost, importPath, bytes.NewReader(body), headers)
	if err != nil {
		return nil, err
	}

	resp := &UploadResponse{StatusCode: status, RequestID: requestID, Imported: -1}
	if gjson.ValidBytes(respBody) {
		parsed := gjson.ParseBytes(respBody)
		for _, path := range []string{"imported", "count", "data.imported"} {
			if v := parsed.Get(path); v.Exists() && v.Type == gjson.Number {
				resp.Imported = int(v.Int())
				break
			}
		}
	}

	c.logger.Debug("Uploaded results",
		"file", req.FileName,
		"records", len(req.Results),
		"status_code", status,
		"request_id", requestID)

	return resp, nil
}

// FetchStartLists performs GET /api/finishlynx/export-start-lists/{id}. The
// response is either a bare array of events or an object wrapping the array
// in "data", "events" or "startLists".
func (c *HTTPClient) FetchStartLists(ctx context.Context, competitionID string) ([]StartListEvent, error) {
	if strings.TrimSpace(competitionID) == "" {
		return nil, &ClientError{Op: "fetch start lists", Err: fmt.Errorf("competition id is empty")}
	}

	ctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	path := startListPrefix + url.PathEscape(competitionID)
	status, body, err := c.do(ctx, "fetch start lists", http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	events, err := decodeStartLists(body)
	if err != nil {
		return nil, &ServerError{
			StatusCode: status,
			URL:        c.baseURL + path,
			Message:    fmt.Sprintf("malformed start list response: %v", err),
		}
	}
	return events, nil
}

func decodeStartLists(body []byte) ([]StartListEvent, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return []StartListEvent{}, nil
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("response is not valid JSON")
	}

	parsed := gjson.ParseBytes(body)
	raw := ""
	switch {
	case parsed.IsArray():
		raw = parsed.Raw
	case parsed.IsObject():
		for _, key := range []string{"data", "events", "startLists"} {
			if v := parsed.Get(key); v.IsArray() {
				raw = v.Raw
				break
			}
		}
	}
	if raw == "" {
		return nil, fmt.Errorf("response does not contain a list of events")
	}

	events := []StartListEvent{}
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}
	return events, nil
}

// do sends a request and returns the status and body of a 2xx response.
// Non-2xx responses become *ServerError, transport failures *ConnectivityError.
func (c *HTTPClient) do(
	ctx context.Context,
	op, method, path string,
	body io.Reader,
	headers map[string]string,
) (int, []byte, error) {
	target := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return 0, nil, &ClientError{Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, &ConnectivityError{Op: op, URL: target, Err: unwrapURLError(err)}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return 0, nil, &ConnectivityError{Op: op, URL: target, Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	if len(respBody) > MaxResponseSize {
		return 0, nil, &ServerError{
			StatusCode: resp.StatusCode,
			URL:        target,
			Message:    fmt.Sprintf("response exceeds %d bytes", MaxResponseSize),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, nil, &ServerError{
			StatusCode: resp.StatusCode,
			URL:        target,
			Message:    messageFromBody(resp.StatusCode, respBody),
		}
	}
	return resp.StatusCode, respBody, nil
}

// unwrapURLError drops the *url.Error wrapper; the URL is already part of
// ConnectivityError and repeating it makes messages noisy.
func unwrapURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err
	}
	return err
}
