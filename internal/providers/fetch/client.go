// Package fetch retrieves JSON documents from external URLs for link import.
//
// The client is resty over a go-retryablehttp transport, so transient
// 5xx/connection failures are retried before the import gives up. A
// token-bucket limiter keeps repeated imports from hammering a host.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

var (
	ErrStatus       = errors.New("unexpected HTTP status")
	ErrScheme       = errors.New("only http and https URLs can be fetched")
	ErrBodyTooLarge = errors.New("response body too large")
)

// Options configures the client.
type Options struct {
	Timeout           time.Duration
	Retries           int
	RetryWaitMin      time.Duration
	RetryWaitMax      time.Duration
	MaxBytes          int64
	RequestsPerSecond float64
	UserAgent         string
}

// DefaultOptions returns production settings.
func DefaultOptions() Options {
	return Options{
		Timeout:           15 * time.Second,
		Retries:           2,
		RetryWaitMin:      500 * time.Millisecond,
		RetryWaitMax:      5 * time.Second,
		MaxBytes:          10 << 20,
		RequestsPerSecond: 5,
		UserAgent:         "FileDeck/1.0",
	}
}

// Client fetches JSON over HTTP.
type Client struct {
	resty    *resty.Client
	limiter  *rate.Limiter
	maxBytes int64
}

// NewClient creates a client from opts.
func NewClient(opts Options) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.Retries
	retryClient.RetryWaitMin = opts.RetryWaitMin
	retryClient.RetryWaitMax = opts.RetryWaitMax
	retryClient.Logger = nil

	restyClient := resty.NewWithClient(retryClient.StandardClient()).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", opts.UserAgent)

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), max(1, int(opts.RequestsPerSecond)))
	}

	return &Client{
		resty:    restyClient,
		limiter:  limiter,
		maxBytes: opts.MaxBytes,
	}
}

// FetchJSON GETs rawURL and returns the body of a 2xx response.
// The body is not parsed here. Reading stops once it passes MaxBytes.
func (c *Client) FetchJSON(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q", ErrScheme, u.Scheme)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	resp, err := c.resty.R().SetContext(ctx).SetDoNotParseResponse(true).Get(u.String())
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u.Redacted(), err)
	}
	raw := resp.RawBody()
	defer raw.Close()

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}
	return c.readBody(raw)
}

func (c *Client) readBody(r io.Reader) ([]byte, error) {
	if c.maxBytes <= 0 {
		return io.ReadAll(r)
	}
	body, err := io.ReadAll(io.LimitReader(r, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > c.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, c.maxBytes)
	}
	return body, nil
}
