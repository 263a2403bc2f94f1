// Package rest implements the record-store gateway against a PostgREST-style
// HTTP record API. Every call is a single attempt behind a circuit breaker;
// the gateway never retries on its own.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/yosseffehabb/illusion-studios/pkg/errors"
	"github.com/yosseffehabb/illusion-studios/pkg/httpclient"
)

// Client is the shared HTTP plumbing for the REST stores. It speaks the
// PostgREST filter dialect (id=eq.X, name=ilike.*q*, select=..., order=...).
type Client struct {
	baseURL string
	http    *httpclient.CircuitBreakerClient
	logger  *slog.Logger
}

// New creates a REST record-store client. The underlying HTTP client performs
// exactly one attempt per call; failures surface immediately so callers decide
// what to do with them.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	inner := httpclient.New(httpclient.NoRetryConfig(timeout))
	breaker := httpclient.NewCircuitBreakerClient(inner, httpclient.DefaultCircuitBreakerConfig("record-store"), logger)

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    breaker,
		logger:  logger,
	}
}

// do performs one request against the record API. Responses decode into out
// when out is non-nil. Transport failures, timeouts, open breaker and 5xx all
// map to the store-unavailable branch of the taxonomy; 404 and 409 map to
// their sentinels so stores can attach resource context.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodPost || method == http.MethodPatch || method == http.MethodDelete {
		// Mutations ask for the affected rows back so an empty result can be
		// distinguished from success.
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return apperrors.StoreUnavailable(fmt.Errorf("%s %s: %w", method, path, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		return apperrors.ErrAlreadyExists
	case resp.StatusCode >= 400:
		return apperrors.StoreUnavailable(fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return apperrors.StoreUnavailable(fmt.Errorf("decode %s %s response: %w", method, path, err))
		}
	}

	return nil
}

// Ping checks that the record API answers at all. Used by readiness probes.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/", nil, nil, nil)
}

func eq(v string) string {
	return "eq." + v
}
