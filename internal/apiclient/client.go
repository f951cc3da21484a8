// Package apiclient forwards JSON requests to the TaskFlow backend. It performs
// no retries and no response shaping; the interceptor installed as the HTTP
// client's transport owns authentication.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"taskflow-console/internal/requestid"
	"taskflow-console/pkg/apierror"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*http.Request)

func WithHeader(key string, value string) Option {
	return func(r *http.Request) {
		r.Header.Set(key, value)
	}
}

func WithParams(params url.Values) Option {
	return func(r *http.Request) {
		if len(params) == 0 {
			return
		}
		q := r.URL.Query()
		for key, values := range params {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		r.URL.RawQuery = q.Encode()
	}
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Get(ctx context.Context, endpoint string, params url.Values, out any) error {
	return c.do(ctx, http.MethodGet, endpoint, nil, out, WithParams(params))
}

func (c *Client) Post(ctx context.Context, endpoint string, body any, out any, opts ...Option) error {
	return c.do(ctx, http.MethodPost, endpoint, body, out, opts...)
}

func (c *Client) Put(ctx context.Context, endpoint string, body any, out any, opts ...Option) error {
	return c.do(ctx, http.MethodPut, endpoint, body, out, opts...)
}

func (c *Client) Delete(ctx context.Context, endpoint string, out any, opts ...Option) error {
	return c.do(ctx, http.MethodDelete, endpoint, nil, out, opts...)
}

func (c *Client) do(ctx context.Context, method string, endpoint string, body any, out any, opts ...Option) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, endpoint, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, endpoint, err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(requestid.Header, requestid.FromOrNew(ctx))
	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Errors raised by the transport (refresh failures included) are returned as-is.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return urlErr.Err
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apierror.FromResponse(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s %s response: %w", method, endpoint, err)
	}

	return nil
}
