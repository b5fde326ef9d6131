// Package convertapi is the HTTP client for the hosted conversion service.
// It performs the multipart upload that starts a conversion and the follow-up
// downloads of the produced files. All actual format transformation happens
// upstream; this package only moves bytes.
package convertapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/dptools869/dp-tools-server/internal/utils/httpclient"
)

const (
	// DefaultBaseURL is the production endpoint of the conversion service.
	DefaultBaseURL = "https://v2.convertapi.com"

	// DefaultTimeout bounds a single upstream HTTP call. Conversions are
	// synchronous upstream, so this covers the conversion itself.
	DefaultTimeout = 120 * time.Second

	// MaxOutputSize caps how many bytes a single output download may
	// occupy in memory.
	MaxOutputSize = 100 * 1024 * 1024

	// UserAgent identifies this service to the upstream converter.
	UserAgent = "dp-tools-server/1.0"
)

// Client talks to the upstream conversion service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logrus.Logger
	maxOutput  int64
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-call HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithMaxOutputSize overrides the per-download size cap.
func WithMaxOutputSize(n int64) Option {
	return func(c *Client) {
		c.maxOutput = n
	}
}

// WithRateLimit caps upstream calls to n per second with the given burst.
// The burst is clamped to at least 1; a burst-0 finite limiter would reject
// every call outright.
func WithRateLimit(n float64, burst int) Option {
	return func(c *Client) {
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(n), burst)
	}
}

// NewClient creates a client for the conversion service at baseURL.
// An empty baseURL selects the production endpoint.
func NewClient(baseURL string, logger *logrus.Logger, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := httpclient.NewHTTPClientWithProxyAndLogger(DefaultTimeout, logger)
	httpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 10 {
			return fmt.Errorf("too many redirects")
		}
		req.Header.Set("User-Agent", UserAgent)
		return nil
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Inf, 1),
		logger:     logger,
		maxOutput:  MaxOutputSize,
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert uploads the input (when present) plus the given parameters to the
// operation addressed by route and returns the output file references. The
// secret is passed as a query parameter; StoreFile is always requested so
// outputs can be fetched by URL afterwards.
func (c *Client) Convert(ctx context.Context, route Route, secret, fileName string, data []byte, params map[string]string) ([]OutputFile, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if len(data) > 0 {
		part, err := writer.CreateFormFile("File", fileName)
		if err != nil {
			return nil, fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := part.Write(data); err != nil {
			return nil, fmt.Errorf("failed to write form file: %w", err)
		}
	}

	// Deterministic field order keeps request logs and tests stable.
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writer.WriteField(name, params[name]); err != nil {
			return nil, fmt.Errorf("failed to write field %s: %w", name, err)
		}
	}

	if err := writer.WriteField("StoreFile", "true"); err != nil {
		return nil, fmt.Errorf("failed to write StoreFile field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	endpoint := fmt.Sprintf("%s/convert/%s/to/%s?Secret=%s",
		c.baseURL, route.From, route.To, url.QueryEscape(secret))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("User-Agent", UserAgent)

	c.logger.WithFields(logrus.Fields{
		"from":      route.From,
		"to":        route.To,
		"file":      fileName,
		"body_size": body.Len(),
	}).Debug("Submitting conversion request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("conversion request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.WithError(closeErr).Warn("Failed to close response body")
		}
	}()

	respBody, err := c.readCapped(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read conversion response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var parsed convertResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse conversion response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"from":  route.From,
		"to":    route.To,
		"files": len(parsed.Files),
	}).Debug("Conversion request completed")

	return parsed.Files, nil
}

// Download fetches the raw bytes of one produced file by its URL, fully
// buffered in memory.
func (c *Client) Download(ctx context.Context, fileURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.WithError(closeErr).Warn("Failed to close response body")
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	data, err := c.readCapped(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read download body: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"url":  fileURL,
		"size": len(data),
	}).Debug("Downloaded converted file")

	return data, nil
}

// readCapped buffers r fully, failing when the body exceeds the size cap.
// Truncating an oversized file would hand the caller a corrupted prefix.
func (c *Client) readCapped(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, c.maxOutput+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > c.maxOutput {
		return nil, fmt.Errorf("response body exceeds the %d byte limit", c.maxOutput)
	}
	return data, nil
}
