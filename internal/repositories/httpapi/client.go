// Package httpapi talks to the remote Catalog Service over its JSON REST API.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/hanko-field/catalog-console/internal/repositories"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 4 << 20
)

// HTTPClient matches the subset of http.Client used by Client.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the instrumented default client.
func WithHTTPClient(client HTTPClient) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithToken sends the bearer token on every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// WithTimeout sets the timeout of the default client. Ignored when WithHTTPClient is used.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// Client implements repositories.CatalogRepository against the Catalog Service.
type Client struct {
	base    *url.URL
	http    HTTPClient
	token   string
	timeout time.Duration
}

var _ repositories.CatalogRepository = (*Client)(nil)

// NewClient constructs a client rooted at baseURL, e.g. https://catalog.internal/api/.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("httpapi: base URL is required")
	}
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("httpapi: parse base URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("httpapi: base URL %q must be absolute", baseURL)
	}
	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}
	c := &Client{base: parsed, timeout: defaultTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.http == nil {
		c.http = &http.Client{
			Timeout:   c.timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return c, nil
}

// envelope is the Catalog Service response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// call performs one round trip and decodes data into out when out is non-nil.
func (c *Client) call(ctx context.Context, op, method string, path []string, query url.Values, payload, out any) error {
	req, err := c.newRequest(ctx, method, path, query, payload)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return repositories.WrapTransportError(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return repositories.NewServiceError(op, 0, "read response body", err)
	}

	var (
		env       envelope
		decodeErr error
	)
	if len(bytes.TrimSpace(body)) > 0 {
		decodeErr = json.Unmarshal(body, &env)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		message := env.Message
		if decodeErr != nil || message == "" {
			message = strings.TrimSpace(string(body))
		}
		return repositories.NewServiceError(op, resp.StatusCode, message, nil)
	}
	if decodeErr != nil {
		return repositories.NewServiceError(op, http.StatusBadGateway, "malformed response envelope", decodeErr)
	}
	if len(body) > 0 && !env.Success {
		return repositories.NewServiceError(op, http.StatusUnprocessableEntity, env.Message, nil)
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return repositories.NewServiceError(op, http.StatusBadGateway, "malformed response data", err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method string, path []string, query url.Values, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(payload); err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		body = &buf
	}
	escaped := make([]string, len(path))
	for i, segment := range path {
		escaped[i] = url.PathEscape(segment)
	}
	target := c.base.JoinPath(escaped...)
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func boolQuery(key string, value bool) url.Values {
	return url.Values{key: []string{strconv.FormatBool(value)}}
}
