// Package deepl is a client for the DeepL v2 translation API: text and
// document translation, glossaries, language metadata and account usage.
//
// Every operation is a synchronous round trip. Document translation is
// asynchronous on the service side; callers poll DocumentStatus (see package
// poller) until a terminal state and then call DownloadDocument.
package deepl

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	FreeBaseURL = "https://api-free.deepl.com/v2"
	ProBaseURL  = "https://api.deepl.com/v2"
)

// DefaultBaseURL picks the free endpoint for keys with the ":fx" suffix.
func DefaultBaseURL(authKey string) string {
	if strings.HasSuffix(strings.TrimSpace(authKey), ":fx") {
		return FreeBaseURL
	}
	return ProBaseURL
}

// Client talks to the translation service. It holds no per-operation state
// and is safe for concurrent use if its Doer is.
type Client struct {
	baseURL   string
	transport *Transport
	logger    zerolog.Logger
	json      bool

	doer      Doer
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root, e.g. for a proxy or a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient sets the Doer used for requests.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) { c.doer = d }
}

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithLogger sets the request logger. Keys are never logged.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithJSONBodies sends text translation requests as JSON instead of form data.
func WithJSONBodies(enabled bool) Option {
	return func(c *Client) { c.json = enabled }
}

// New creates a Client authenticated with authKey.
func New(authKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL(authKey),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.transport = NewTransport(c.doer, authKey, c.userAgent)
	return c
}

// BaseURL returns the API root the client sends requests to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	accept      string
}

// send performs req and returns the fully read, classified response body.
func (c *Client) send(ctx context.Context, req request) ([]byte, error) {
	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, req.body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if req.accept != "" {
		httpReq.Header.Set("Accept", req.accept)
	}

	start := time.Now()
	resp, err := c.transport.Do(httpReq)
	if err != nil {
		c.logger.Warn().Err(err).Str("method", req.method).Str("path", req.path).Msg("request failed")
		return nil, &Error{Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	c.logger.Debug().
		Str("method", req.method).
		Str("path", req.path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("request completed")

	if err := classify(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

// call sends req and decodes a JSON success body into out when out is non-nil.
func (c *Client) call(ctx context.Context, req request, out any) error {
	body, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decode(body, out)
}

func formRequest(method, path string, values url.Values) request {
	return request{
		method:      method,
		path:        path,
		body:        strings.NewReader(values.Encode()),
		contentType: "application/x-www-form-urlencoded",
	}
}

func jsonRequest(method, path string, payload []byte) request {
	return request{
		method:      method,
		path:        path,
		body:        bytes.NewReader(payload),
		contentType: "application/json",
	}
}
