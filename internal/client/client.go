package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/manifest-network/chainctl/internal/config"
	"github.com/manifest-network/chainctl/internal/response"
)

const requestIDHeader = "X-Request-ID"

// Observer receives one observation per request.
type Observer interface {
	ObserveRequest(endpoint, outcome string, elapsed time.Duration)
}

// ChainClient talks JSON over HTTP to the chain service. Every response goes
// through envelope normalization before it reaches a caller.
type ChainClient struct {
	http     *resty.Client
	observer Observer
}

type Option func(*ChainClient)

// WithObserver reports every request to o.
func WithObserver(o Observer) Option {
	return func(c *ChainClient) {
		c.observer = o
	}
}

// NewChainClient initializes the HTTP client for the service at cfg.BaseURL.
// Failed requests are never retried.
func NewChainClient(cfg config.ClientConfig, opts ...Option) *ChainClient {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Accept", "application/json").
		SetRetryCount(0)

	if cfg.Timeout > 0 {
		httpClient.SetTimeout(cfg.Timeout)
	}
	if cfg.UserAgent != "" {
		httpClient.SetHeader("User-Agent", cfg.UserAgent)
	}

	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		if req.Header.Get(requestIDHeader) == "" {
			req.SetHeader(requestIDHeader, uuid.NewString())
		}
		return nil
	})

	c := &ChainClient{http: httpClient}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// call sends one request and returns the unwrapped payload. Transport
// failures, non-2xx statuses and envelopes with success=false all surface as
// *response.RequestError.
func (c *ChainClient) call(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	if err != nil {
		c.observe(path, "error", start)
		slog.Debug("Request failed", "method", method, "path", path, "error", err)
		return nil, &response.RequestError{Message: err.Error(), Err: err}
	}

	slog.Debug("Request completed",
		"method", method,
		"path", path,
		"status", resp.StatusCode(),
		"request_id", resp.Request.Header.Get(requestIDHeader),
		"elapsed", resp.Time())

	if resp.IsError() || resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		c.observe(path, strconv.Itoa(resp.StatusCode()), start)
		return nil, statusError(resp)
	}

	data, err := response.RequireSuccess(resp.Body())
	if err != nil {
		c.observe(path, "rejected", start)
		return nil, err
	}

	c.observe(path, "ok", start)
	return data, nil
}

func statusError(resp *resty.Response) error {
	msg := fmt.Sprintf("request failed with status code %d", resp.StatusCode())
	result := response.Unwrap(resp.Body())
	if result.Error != nil {
		msg = *result.Error
	} else if text := response.Message(resp.Body()); text != "" {
		msg = text
	}
	return &response.RequestError{Message: msg, Status: resp.StatusCode()}
}

func (c *ChainClient) observe(path, outcome string, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveRequest(path, outcome, time.Since(start))
	}
}

func (c *ChainClient) get(ctx context.Context, path string) (json.RawMessage, error) {
	return c.call(ctx, http.MethodGet, path, nil)
}

func (c *ChainClient) post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.call(ctx, http.MethodPost, path, body)
}

// IsCanceled reports whether err came from a canceled or expired context.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
