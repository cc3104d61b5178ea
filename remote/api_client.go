package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hdlnet/hdlproxy/handle"

	"github.com/carlmjohnson/versioninfo"
	"github.com/hashicorp/go-cleanhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

// Default cap on response body size. Prefix and handle listings for a large repository can be several MB.
const DefaultMaxBodyBytes = 16 * 1024 * 1024

// Does HTTP requests to remote handle repositories. Requests are never retried.
type APIClient struct {
	Client *http.Client
	// If not nil, every outbound request waits on this limiter first
	Limiter      *rate.Limiter
	UserAgent    string
	MaxBodyBytes int64
}

var _ Client = (*APIClient)(nil)

// Creates a client with a pooled transport, traced with OpenTelemetry. A zero timeout means no client-side timeout.
func NewAPIClient(timeout time.Duration) *APIClient {
	c := cleanhttp.DefaultPooledClient()
	c.Timeout = timeout
	c.Transport = otelhttp.NewTransport(c.Transport)
	return &APIClient{
		Client:       c,
		UserAgent:    "hdlproxy/" + versioninfo.Short(),
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
}

// Checks that an endpoint is an absolute http(s) URL and returns it without a trailing slash.
func NormalizeEndpoint(endpoint string) (string, error) {
	endpoint = strings.TrimSpace(endpoint)
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid endpoint URL, expected http or https scheme: %q", endpoint)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid endpoint URL, missing host: %q", endpoint)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return "", fmt.Errorf("invalid endpoint URL, can not have query or fragment: %q", endpoint)
	}
	return strings.TrimRight(endpoint, "/"), nil
}

// escapes each '/'-separated segment, keeping the separators
func escapePath(s string) string {
	parts := strings.Split(s, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func (c *APIClient) ListPrefixes(ctx context.Context, endpoint string) ([]handle.Prefix, error) {
	body, err := c.getStrings(ctx, "listprefixes", endpoint, "/listprefixes", -1)
	if err != nil {
		return nil, err
	}
	out := make([]handle.Prefix, 0, len(body))
	for i, s := range body {
		if s == nil {
			return nil, fmt.Errorf("%w: null prefix at position %d", ErrRequestFailed, i)
		}
		p, err := handle.ParsePrefix(*s)
		if err != nil {
			return nil, fmt.Errorf("%w: position %d: %w", ErrRequestFailed, i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func (c *APIClient) ListHandles(ctx context.Context, endpoint string, prefix handle.Prefix) ([]handle.Handle, error) {
	body, err := c.getStrings(ctx, "listhandles", endpoint, "/listhandles/"+escapePath(prefix.String()), -1)
	if err != nil {
		return nil, err
	}
	out := make([]handle.Handle, 0, len(body))
	for i, s := range body {
		if s == nil {
			return nil, fmt.Errorf("%w: null handle at position %d", ErrRequestFailed, i)
		}
		h, err := handle.ParseHandle(*s)
		if err != nil {
			return nil, fmt.Errorf("%w: position %d: %w", ErrRequestFailed, i, err)
		}
		out = append(out, h)
	}
	return out, nil
}

// Only the first element of a resolve response is ever read, so elements after it which are not scalars come back as nil instead of failing the request.
func (c *APIClient) Resolve(ctx context.Context, endpoint string, h handle.Handle) ([]*string, error) {
	return c.getStrings(ctx, "resolve", endpoint, "/resolve/"+escapePath(h.String()), 1)
}

// Fetches a JSON array and converts each element with scalarString. Elements at index strict or later which are objects or arrays become nil; a negative strict checks every element.
func (c *APIClient) getStrings(ctx context.Context, op, endpoint, path string, strict int) ([]*string, error) {
	var body []json.RawMessage
	if err := c.apiGet(ctx, op, endpoint, path, &body); err != nil {
		return nil, err
	}
	out := make([]*string, len(body))
	for i, raw := range body {
		s, err := scalarString(raw)
		if err != nil {
			if strict >= 0 && i >= strict {
				continue
			}
			return nil, fmt.Errorf("%w: position %d: %w", ErrRequestFailed, i, err)
		}
		out[i] = s
	}
	return out, nil
}

// Converts a JSON array element to a string: strings are unquoted, numbers and booleans keep their literal text, and null is nil. Objects and arrays are an error.
func scalarString(raw json.RawMessage) (*string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] == 'n' {
		return nil, nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return &s, nil
	case '{', '[':
		return nil, fmt.Errorf("expected JSON scalar, got %s", raw)
	default:
		s := string(raw)
		return &s, nil
	}
}

// body: pointer to a value which can be `json.Unmarshal()`. An empty or "null" response body leaves it untouched.
func (c *APIClient) apiGet(ctx context.Context, op, endpoint, path string, body any) (err error) {
	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		remoteRequests.WithLabelValues(op, status).Inc()
		remoteRequestDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
	}()

	base, err := NormalizeEndpoint(endpoint)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: rate limit wait: %w", ErrRequestFailed, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+path, nil)
	if err != nil {
		return fmt.Errorf("%w: constructing HTTP request: %w", ErrRequestFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: repository HTTP: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: repository HTTP status: %d", ErrRequestFailed, resp.StatusCode)
	}

	limit := c.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return fmt.Errorf("%w: reading repository response: %w", ErrRequestFailed, err)
	}
	if int64(len(b)) > limit {
		return fmt.Errorf("%w: repository response larger than %d bytes", ErrRequestFailed, limit)
	}

	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, body); err != nil {
		return fmt.Errorf("%w: repository JSON: %w", ErrRequestFailed, err)
	}
	return nil
}
