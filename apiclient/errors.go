package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	"github.com/jrsteele09/aams-client/internal/errors"
)

// Kind categorises API failures
type Kind int

const (
	KindAuthExpired Kind = iota + 1
	KindClient
	KindServer
	KindNetwork
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindAuthExpired:
		return "auth_expired"
	case KindClient:
		return "client_error"
	case KindServer:
		return "server_error"
	case KindNetwork:
		return "network_error"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error is returned for every failed API call that reached the transport
type Error struct {
	Kind       Kind
	StatusCode int // 0 when no response was received
	Method     string
	Path       string
	RequestID  string
	Body       []byte
	Detail     string
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("[apiclient] %s %s: %s", e.Method, e.Path, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the category sentinel and the underlying cause to errors.Is/As
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 3)
	switch e.Kind {
	case KindAuthExpired:
		errs = append(errs, errors.ErrAuthExpired)
	case KindClient:
		errs = append(errs, errors.ErrClientError)
	case KindServer:
		errs = append(errs, errors.ErrServerError)
	case KindNetwork:
		errs = append(errs, errors.ErrNetwork)
	case KindTimeout:
		errs = append(errs, errors.ErrTimeout, errors.ErrNetwork)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// UserMessage returns the text a UI should show for this failure
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindAuthExpired:
		return "Your session has expired. Please log in again."
	case KindClient:
		if e.Detail != "" {
			return e.Detail
		}
		switch e.StatusCode {
		case http.StatusBadRequest:
			return "The submitted data is invalid."
		case http.StatusUnauthorized:
			return "Invalid username or password."
		case http.StatusForbidden:
			return "You do not have permission to access this resource."
		case http.StatusNotFound:
			return "The requested data was not found."
		default:
			return "The request could not be completed."
		}
	case KindServer:
		return "A system error occurred. Please try again later."
	case KindTimeout:
		return "The server took too long to respond."
	default:
		return "Cannot reach the server."
	}
}

// FieldErrors returns DRF validation errors such as {"username": ["already exists"]}
func (e *Error) FieldErrors() map[string][]string {
	var raw map[string]any
	if err := json.Unmarshal(e.Body, &raw); err != nil {
		return nil
	}
	fields := make(map[string][]string)
	for field, v := range raw {
		if field == "detail" {
			continue
		}
		switch msgs := v.(type) {
		case string:
			fields[field] = []string{msgs}
		case []any:
			for _, m := range msgs {
				if s, ok := m.(string); ok {
					fields[field] = append(fields[field], s)
				}
			}
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// AsError extracts an *Error from err's chain
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func kindForStatus(status int) Kind {
	switch {
	case status >= 500:
		return KindServer
	default:
		return KindClient
	}
}

func statusError(kind Kind, pr *PendingRequest, resp *Response, cause error) *Error {
	return &Error{
		Kind:       kind,
		StatusCode: resp.StatusCode,
		Method:     pr.Method,
		Path:       pr.Path,
		RequestID:  pr.ID,
		Body:       resp.Body,
		Detail:     detailFromBody(resp.Body),
		Err:        cause,
	}
}

func refreshError(pr *PendingRequest, cause error) *Error {
	e := &Error{
		Kind:      KindAuthExpired,
		Method:    pr.Method,
		Path:      pr.Path,
		RequestID: pr.ID,
		Err:       cause,
	}
	if refreshErr, ok := AsError(cause); ok {
		e.StatusCode = refreshErr.StatusCode
		e.Detail = refreshErr.Detail
		e.Body = refreshErr.Body
	}
	return e
}

func transportError(ctx context.Context, pr *PendingRequest, cause error) *Error {
	if apiErr, ok := AsError(cause); ok {
		return apiErr
	}
	kind := KindNetwork
	var netErr net.Error
	if errors.Is(cause, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(cause, &netErr) && netErr.Timeout()) {
		kind = KindTimeout
	}
	return &Error{
		Kind:      kind,
		Method:    pr.Method,
		Path:      pr.Path,
		RequestID: pr.ID,
		Err:       cause,
	}
}

// detailFromBody pulls the DRF "detail" message, if any
func detailFromBody(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Detail != "" {
		return payload.Detail
	}
	return payload.Error
}

func (c *Client) logAPIError(e *Error) {
	event := c.logger.Warn()
	if e.Kind == KindServer || e.Kind == KindNetwork || e.Kind == KindTimeout {
		event = c.logger.Error()
	}
	event = event.Str("request_id", e.RequestID).Str("method", e.Method).Str("path", e.Path).Stringer("kind", e.Kind)

	if e.StatusCode == 0 {
		event.Err(e.Err).Msg("Network Error")
		return
	}
	event = event.Int("status", e.StatusCode)
	if e.Detail != "" {
		event = event.Str("detail", e.Detail)
	}
	switch e.StatusCode {
	case http.StatusBadRequest:
		event.Msg("Bad Request")
	case http.StatusUnauthorized:
		event.Msg("Unauthorized")
	case http.StatusForbidden:
		event.Msg("Forbidden")
	case http.StatusNotFound:
		event.Msg("Not Found")
	case http.StatusInternalServerError:
		event.Msg("Internal Server Error")
	default:
		event.Msgf("Unexpected error: %d", e.StatusCode)
	}
}
