package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"happinessdash/internal/happiness"
)

// ProcessPath is the backend route that returns processed results.
const ProcessPath = "/api/process"

const (
	maxErrorBody = 4096
	// DefaultMaxBody bounds a successful response body.
	DefaultMaxBody int64 = 64 << 20
)

// Processor captures the ability to request a processed results payload.
type Processor interface {
	Process(ctx context.Context, sourceURL string) (*happiness.Payload, error)
}

// Client is a thin wrapper around the backend /api/process endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	headers    http.Header
	maxBody    int64
}

// NewClient constructs a client for the backend rooted at baseURL. Without
// options the client relies on the transport default timeout.
func NewClient(baseURL string, opts ...func(*Client)) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		headers:    http.Header{},
		maxBody:    DefaultMaxBody,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithHTTPClient overrides the internal HTTP client.
func WithHTTPClient(hc *http.Client) func(*Client) {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds each request made by the client.
func WithTimeout(d time.Duration) func(*Client) {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// WithMaxBody overrides the largest successful response body accepted.
func WithMaxBody(n int64) func(*Client) {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// WithNoCache adds the cache-busting headers sent on the direct backend path.
func WithNoCache() func(*Client) {
	return func(c *Client) {
		c.headers.Set("Cache-Control", "no-cache")
		c.headers.Set("Pragma", "no-cache")
		c.headers.Set("Expires", "0")
	}
}

// ProcessURL builds the /api/process URL for baseURL, passing sourceURL as
// the url query parameter when set.
func ProcessURL(baseURL, sourceURL string) string {
	endpoint := strings.TrimRight(baseURL, "/") + ProcessPath
	if sourceURL == "" {
		return endpoint
	}
	return endpoint + "?" + url.Values{"url": {sourceURL}}.Encode()
}

// Process requests the processed results for sourceURL, or the backend's
// default dataset when sourceURL is empty.
//
// A 2xx response always yields a payload; a body that is not a JSON payload
// is returned as a payload without a status so callers treat it as an
// upstream failure. Transport failures are returned as *StatusError,
// *NoResponseError or *RequestError.
func (c *Client) Process(ctx context.Context, sourceURL string) (*happiness.Payload, error) {
	endpoint := ProcessURL(c.baseURL, sourceURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &RequestError{Err: eris.Wrap(err, "backend: create request")}
	}
	if req.URL.Scheme == "" || req.URL.Host == "" {
		return nil, &RequestError{Err: eris.Errorf("backend: endpoint %q is not absolute", endpoint)}
	}
	for key, values := range c.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if id := RequestIDFrom(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NoResponseError{URL: endpoint, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			URL:        endpoint,
			StatusCode: resp.StatusCode,
			Message:    serverMessage(data),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, &NoResponseError{URL: endpoint, Err: eris.Wrap(err, "backend: read body")}
	}
	if int64(len(body)) > c.maxBody {
		zap.L().Warn("backend body exceeds limit",
			zap.String("url", endpoint),
			zap.Int64("limit", c.maxBody),
		)
		return &happiness.Payload{}, nil
	}

	payload, err := happiness.DecodePayload(body)
	if err != nil {
		zap.L().Warn("backend returned an undecodable body",
			zap.String("url", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.Error(err),
		)
		return &happiness.Payload{}, nil
	}
	return payload, nil
}

func serverMessage(body []byte) string {
	var decoded struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return ""
	}
	return strings.TrimSpace(decoded.Message)
}

type requestIDKey struct{}

// WithRequestID attaches a request ID that outgoing requests carry as X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the request ID stored in ctx, if any.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
