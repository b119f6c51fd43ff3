// Package client is a small Go client for the RotuPrinters REST API.
//
// Every call takes an explicit *Session. When the API answers 401 the client
// refreshes the session once and retries the request once; nothing else is
// retried.
package client

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
	"time"

	"rotuprinters/internal/apperr"
	"rotuprinters/pkg/response"
)

const idempotencyHeader = "Idempotency-Key"

// Client talks to one API base URL, e.g. "http://localhost:8080".
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client (30s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is returned for every non-2xx answer. It unwraps to one of the
// apperr kinds so callers can use errors.Is.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	kind       error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s (status %d)", e.kind.Error(), e.StatusCode)
	}
	return fmt.Sprintf("%s (status %d): %s", e.kind.Error(), e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.kind
}

// kindFor maps a response status to an error kind. Unlisted statuses are
// treated as a broken collaborator.
func kindFor(status int) error {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperr.ErrValidation
	case http.StatusConflict:
		return apperr.ErrInvalidTransition
	case http.StatusNotFound:
		return apperr.ErrNotFound
	case http.StatusUnauthorized:
		return apperr.ErrUnauthorized
	default:
		return apperr.ErrNetwork
	}
}

type request struct {
	method         string
	path           string
	body           any
	idempotencyKey string
}

// send performs a single HTTP exchange and decodes the envelope's data into out.
func (c *Client) send(ctx context.Context, token string, r request, out any) error {
	var payload []byte
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		payload = b
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if r.idempotencyKey != "" {
		req.Header.Set(idempotencyHeader, r.idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.Network(r.method+" "+r.path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Network("failed to read response", err)
	}

	env := response.Response{Data: out}
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, kind: kindFor(resp.StatusCode)}
		if decodeErr == nil {
			apiErr.Code = env.ErrorCode
			apiErr.Message = env.Error
		}
		// CONFLICT on 409 means the idempotency key was already used.
		if resp.StatusCode == http.StatusConflict && apiErr.Code == response.CodeConflict {
			apiErr.kind = apperr.ErrConflict
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	if decodeErr != nil {
		return apperr.Network("failed to decode response", decodeErr)
	}
	return nil
}

// do sends an authenticated request, refreshing the session and retrying once on 401.
func (c *Client) do(ctx context.Context, s *Session, r request, out any) error {
	if s == nil {
		return apperr.Unauthorized("no session")
	}

	access, _ := s.Tokens()
	err := c.send(ctx, access, r, out)
	if !isUnauthorized(err) {
		return err
	}

	if refreshErr := c.Refresh(ctx, s); refreshErr != nil {
		return apperr.Unauthorized(fmt.Sprintf("session refresh failed: %v", refreshErr))
	}

	access, _ = s.Tokens()
	err = c.send(ctx, access, r, out)
	if isUnauthorized(err) {
		return apperr.Unauthorized(fmt.Sprintf("rejected after refresh: %v", err))
	}
	return err
}

func isUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

func pathID(format, id string) string {
	return fmt.Sprintf(format, url.PathEscape(id))
}
