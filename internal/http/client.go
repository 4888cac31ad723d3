// Package http is the transport for the catalog client. It wraps
// go-retryablehttp and normalizes every failure into a *dex.Error.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/dex/internal/constants"
	"github.com/fivetwenty-io/dex/pkg/dex"
)

// Request describes one catalog call.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Headers map[string]string
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Client issues requests relative to a base URL.
type Client struct {
	baseURL      string
	httpClient   *retryablehttp.Client
	logger       dex.Logger
	debug        bool
	userAgent    string
	interceptors *dex.InterceptorChain
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for debug output.
func WithLogger(logger dex.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug logs every request and response when a logger is set.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithRetryConfig enables retries of transient failures (connection errors,
// 429 and 5xx). Retries are off by default.
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = retryMax
		if waitMin > 0 {
			c.httpClient.RetryWaitMin = waitMin
		}

		if waitMax > 0 {
			c.httpClient.RetryWaitMax = waitMax
		}
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.HTTPClient.Timeout = timeout
		}
	}
}

// WithInterceptors runs chain around every request.
func WithInterceptors(chain *dex.InterceptorChain) Option {
	return func(c *Client) {
		if chain != nil {
			c.interceptors = chain
		}
	}
}

// NewClient creates a client for baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = constants.DefaultRetryMax
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout
	retryClient.Logger = nil
	// Hand the last response back instead of a "giving up" error so status
	// codes can be classified.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   retryClient,
		userAgent:    constants.DefaultUserAgent,
		interceptors: dex.NewInterceptorChain(),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// BaseURL returns the base URL requests are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do performs req. Any status >= 400 is returned as a *dex.Error together
// with the response; transport failures return a nil response.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	path := req.Path
	if len(req.Query) > 0 {
		path += "?" + req.Query.Encode()
	}

	intercepted := &dex.Request{
		Method:  req.Method,
		Path:    path,
		Headers: make(http.Header),
	}
	intercepted.Headers.Set("Accept", "application/json")
	intercepted.Headers.Set("User-Agent", c.userAgent)

	for key, value := range req.Headers {
		intercepted.Headers.Set(key, value)
	}

	err := c.interceptors.ExecuteRequestInterceptors(ctx, intercepted)
	if err != nil {
		return nil, err
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, intercepted.Method, c.baseURL+intercepted.Path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header = intercepted.Headers.Clone()

	c.debugLog("HTTP Request", map[string]interface{}{
		"method": intercepted.Method,
		"url":    c.baseURL + intercepted.Path,
	})

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		apiErr := dex.NewTransportError(err, path)
		_ = c.interceptors.ExecuteResponseInterceptors(ctx, intercepted, &dex.Response{Error: apiErr})

		return nil, apiErr
	}

	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		apiErr := dex.NewTransportError(err, path)
		_ = c.interceptors.ExecuteResponseInterceptors(ctx, intercepted, &dex.Response{
			StatusCode: httpResp.StatusCode,
			Error:      apiErr,
		})

		return nil, apiErr
	}

	c.debugLog("HTTP Response", map[string]interface{}{
		"status": httpResp.StatusCode,
		"size":   len(body),
	})

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       body,
	}

	var respErr error
	if resp.StatusCode >= http.StatusBadRequest {
		respErr = dex.NewStatusError(resp.StatusCode, path)
	}

	err = c.interceptors.ExecuteResponseInterceptors(ctx, intercepted, &dex.Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       resp.Body,
		Error:      respErr,
	})
	if err != nil && respErr == nil {
		return resp, err
	}

	return resp, respErr
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  query,
	})
}

func (c *Client) debugLog(msg string, fields map[string]interface{}) {
	if c.debug && c.logger != nil {
		c.logger.Debug(msg, fields)
	}
}
