package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Client talks to the storefront's public JSON endpoints. One instance is
// shared by the catalog loader, the cart submitter and the cart guard.
type Client struct {
	baseURL string
	httpc   *http.Client
	log     *slog.Logger
}

func NewClient(baseURL string, l *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 15 * time.Second},
		log:     l,
	}
}

// StatusError is a non-2xx answer from the storefront.
type StatusError struct {
	Endpoint string
	Status   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("storefront %s: status %d", e.Endpoint, e.Status)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, path, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.do(req, path, out)
}

func (c *Client) do(req *http.Request, path string, out any) error {
	res, err := c.httpc.Do(req)
	if err != nil {
		c.log.LogAttrs(req.Context(), slog.LevelWarn, "storefront_request_failed",
			slog.String("endpoint", path),
			slog.Any("err", err),
		)
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, res.Body)
		c.log.LogAttrs(req.Context(), slog.LevelWarn, "storefront_request_rejected",
			slog.String("endpoint", path),
			slog.Int("status", res.StatusCode),
		)
		return &StatusError{Endpoint: path, Status: res.StatusCode}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("storefront %s: decode: %w", path, err)
	}
	return nil
}

// ForwardResult carries a proxied storefront answer back to the theme.
type ForwardResult struct {
	Status      int
	ContentType string
	Body        []byte
}

// Forward relays a raw request body to the storefront untouched. Used by the
// cart proxy for pass-through calls the guard does not substitute.
func (c *Client) Forward(ctx context.Context, method, path, contentType string, body []byte) (ForwardResult, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return ForwardResult{}, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpc.Do(req)
	if err != nil {
		c.log.LogAttrs(ctx, slog.LevelWarn, "storefront_forward_failed",
			slog.String("endpoint", path),
			slog.Any("err", err),
		)
		return ForwardResult{}, err
	}
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return ForwardResult{}, err
	}
	return ForwardResult{
		Status:      res.StatusCode,
		ContentType: res.Header.Get("Content-Type"),
		Body:        b,
	}, nil
}
