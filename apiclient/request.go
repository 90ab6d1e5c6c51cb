package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/aams-client/internal/errors"
)

// DefaultMaxResponseBytes caps the size of a response body
const DefaultMaxResponseBytes = 10 << 20

// PendingRequest describes one logical API call. It is replayed at most once
// after a token refresh, Retried guards against a second refresh.
type PendingRequest struct {
	ID              string
	Method          string
	Path            string
	Query           url.Values
	Header          http.Header
	Body            []byte
	Retried         bool
	SkipAuthRefresh bool
	Anonymous       bool

	state State
}

// State returns the request's current lifecycle state
func (pr PendingRequest) State() State {
	return pr.state
}

type RequestOption func(*PendingRequest)

func WithQuery(query url.Values) RequestOption {
	return func(pr *PendingRequest) {
		pr.Query = query
	}
}

func WithHeader(key, value string) RequestOption {
	return func(pr *PendingRequest) {
		pr.Header.Set(key, value)
	}
}

// SkipAuthRefresh makes a 401 an ordinary client error with no refresh or logout
func SkipAuthRefresh() RequestOption {
	return func(pr *PendingRequest) {
		pr.SkipAuthRefresh = true
	}
}

// Anonymous sends the request without the stored bearer token. A 401 is then
// an ordinary client error, it never refreshes or logs out.
func Anonymous() RequestOption {
	return func(pr *PendingRequest) {
		pr.Anonymous = true
	}
}

// Response is a fully read API response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string
}

// Decode unmarshals the JSON body into out, an empty body leaves out untouched
func (r *Response) Decode(out any) error {
	if out == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("[apiclient Decode] failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, http.MethodGet, path, nil, opts...)
}

func (c *Client) Post(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, http.MethodPost, path, body, opts...)
}

func (c *Client) Put(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, http.MethodPut, path, body, opts...)
}

func (c *Client) Patch(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, http.MethodPatch, path, body, opts...)
}

func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, http.MethodDelete, path, nil, opts...)
}

// Do performs a request and decodes the JSON response into out
func (c *Client) Do(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	resp, err := c.Request(ctx, method, path, body, opts...)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

// Request issues an API call. Body may be nil, []byte, io.Reader or any JSON
// encodable value. Failures are returned as *Error except for interceptor and
// encoding errors, which abort the call before anything is sent.
func (c *Client) Request(ctx context.Context, method, path string, body any, opts ...RequestOption) (*Response, error) {
	pr, err := newPendingRequest(method, path, body, opts)
	if err != nil {
		return nil, err
	}
	return c.execute(ctx, pr)
}

func newPendingRequest(method, path string, body any, opts []RequestOption) (*PendingRequest, error) {
	if method == "" || path == "" {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "[apiclient Request] method and path are required")
	}
	raw, err := encodeBody(body)
	if err != nil {
		return nil, err
	}
	pr := &PendingRequest{
		ID:     uuid.New().String(),
		Method: method,
		Path:   path,
		Header: make(http.Header),
		Body:   raw,
		state:  StateInitial,
	}
	for _, opt := range opts {
		opt(pr)
	}
	return pr, nil
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case io.Reader:
		raw, err := io.ReadAll(b)
		if err != nil {
			return nil, errors.Wrapf(err, "[apiclient Request] failed to read body")
		}
		return raw, nil
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return nil, errors.Wrapf(err, "[apiclient Request] failed to encode body")
		}
		return raw, nil
	}
}

func (c *Client) execute(ctx context.Context, pr *PendingRequest) (*Response, error) {
	req, err := c.buildRequest(ctx, pr)
	if err != nil {
		c.transition(pr, StateFailedOther)
		return nil, err
	}
	if !pr.Retried {
		c.transition(pr, StateSent)
	}
	sentToken := bearerToken(req.Header.Get(headerAuthorization))

	resp, err := c.send(ctx, req, pr)
	if err != nil {
		apiErr := transportError(ctx, pr, err)
		c.logAPIError(apiErr)
		c.transition(pr, StateFailedOther)
		return nil, apiErr
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.transition(pr, StateSuccess)
		return resp, nil
	}

	// an anonymous 401 says nothing about the stored session
	if resp.StatusCode == http.StatusUnauthorized && !pr.SkipAuthRefresh && !pr.Anonymous {
		if pr.Retried {
			apiErr := statusError(KindAuthExpired, pr, resp, nil)
			c.logAPIError(apiErr)
			c.ForceLogout("unauthorized after token refresh")
			c.transition(pr, StateLoggedOut)
			return nil, apiErr
		}
		return c.recoverUnauthorized(ctx, pr, resp, sentToken)
	}

	apiErr := statusError(kindForStatus(resp.StatusCode), pr, resp, nil)
	c.logAPIError(apiErr)
	c.transition(pr, StateFailedOther)
	return nil, apiErr
}

// recoverUnauthorized refreshes the access token once and replays pr
func (c *Client) recoverUnauthorized(ctx context.Context, pr *PendingRequest, resp *Response, sentToken string) (*Response, error) {
	pr.Retried = true
	c.transition(pr, StateFailed401Retrying)
	original := statusError(KindAuthExpired, pr, resp, nil)

	token, err := c.refreshAccessToken(ctx, sentToken)
	if err != nil {
		if ctx.Err() != nil {
			// the caller gave up, the session may still be valid
			apiErr := transportError(ctx, pr, err)
			c.transition(pr, StateFailedOther)
			return nil, apiErr
		}
		c.logger.Warn().Err(err).Str("request_id", pr.ID).Msg("Refresh token failed")
		c.ForceLogout("token refresh failed")
		c.transition(pr, StateLoggedOut)
		if errors.Is(err, errors.ErrNoRefreshToken) {
			return nil, original
		}
		return nil, refreshError(pr, err)
	}

	pr.Header.Set(headerAuthorization, "Bearer "+token)
	return c.execute(ctx, pr)
}

func (c *Client) buildRequest(ctx context.Context, pr *PendingRequest) (*http.Request, error) {
	var body io.Reader
	if pr.Body != nil {
		body = bytes.NewReader(pr.Body)
	}
	req, err := http.NewRequestWithContext(ctx, pr.Method, c.resolve(pr.Path, pr.Query), body)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "[apiclient Request] %v", err)
	}
	for key, values := range pr.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if err := ChainInterceptors(c.interceptors...)(req, pr); err != nil {
		return nil, errors.Wrapf(err, "[apiclient Request] interceptor rejected %s %s", pr.Method, pr.Path)
	}
	return req, nil
}

func (c *Client) send(ctx context.Context, req *http.Request, pr *PendingRequest) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			// the limiter refuses waits that would outlive the deadline
			return nil, fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	raw, err := readBody(httpResp.Body, c.maxResponseBytes)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("request_id", pr.ID).
		Str("method", pr.Method).
		Str("path", pr.Path).
		Int("status", httpResp.StatusCode).
		Dur("duration", time.Since(start)).
		Bool("retried", pr.Retried).
		Msg(c.requestLine(pr.Method, httpResp.StatusCode))

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       raw,
		RequestID:  pr.ID,
	}, nil
}

// readBody reads at most limit bytes and fails instead of truncating a larger body
func readBody(body io.Reader, limit int64) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > limit {
		return nil, errors.Wrapf(errors.ErrResponseTooLarge, "[apiclient Request] body exceeds %d bytes", limit)
	}
	return raw, nil
}
