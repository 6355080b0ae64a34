// Package market talks to the trade market endpoints and turns their
// delimited payloads into typed records.
package market

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"bdo-market/internal/apperrors"
	"bdo-market/internal/config"
)

// Unpacker turns a raw list/bidding response body into its delimited text.
type Unpacker interface {
	Unpack([]byte) (string, error)
}

type Client struct {
	http     *resty.Client
	tables   *config.Tables
	unpacker Unpacker
	order    LadderOrder
	logger   *slog.Logger
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.http.SetHeader("User-Agent", ua) }
}

func WithLadderOrder(o LadderOrder) Option {
	return func(c *Client) { c.order = o }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient builds a client for baseURL. Requests are not retried.
func NewClient(baseURL string, tables *config.Tables, unpacker Unpacker, opts ...Option) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "BlackDesert")

	c := &Client{
		http:     httpClient,
		tables:   tables,
		unpacker: unpacker,
		order:    LadderLexical,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// post sends a JSON body and returns the raw response body.
func (c *Client) post(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		Post(endpoint)
	if err != nil {
		return nil, apperrors.NewTransportError("market."+endpoint, "request failed", err)
	}
	c.logger.Debug("market request", "endpoint", endpoint, "status", resp.StatusCode(), "bytes", len(resp.Body()), "elapsed", time.Since(start))

	if resp.StatusCode() != http.StatusOK {
		return nil, apperrors.NewTransportError("market."+endpoint, fmt.Sprintf("unexpected status %d", resp.StatusCode()), nil)
	}
	return resp.Body(), nil
}

// postUnpacked posts and unpacks the response into delimited text.
func (c *Client) postUnpacked(ctx context.Context, endpoint string, payload any) (string, error) {
	body, err := c.post(ctx, endpoint, payload)
	if err != nil {
		return "", err
	}
	text, err := c.unpacker.Unpack(body)
	if err != nil {
		return "", apperrors.NewDecodeError("market."+endpoint, "unpack response", err)
	}
	return text, nil
}
