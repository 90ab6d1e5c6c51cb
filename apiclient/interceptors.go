package apiclient

import (
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// RequestInterceptor runs before a request is sent. Returning an error aborts the call.
type RequestInterceptor func(req *http.Request, pr *PendingRequest) error

// ChainInterceptors runs interceptors in order, stopping at the first error
func ChainInterceptors(interceptors ...RequestInterceptor) RequestInterceptor {
	return func(req *http.Request, pr *PendingRequest) error {
		for _, interceptor := range interceptors {
			if err := interceptor(req, pr); err != nil {
				return err
			}
		}
		return nil
	}
}

// defaultHeaderInterceptor applies client-wide headers the request has not set itself
func (c *Client) defaultHeaderInterceptor(req *http.Request, pr *PendingRequest) error {
	c.headerLock.RLock()
	defer c.headerLock.RUnlock()

	for key, values := range c.defaultHeaders {
		if pr.Anonymous && key == headerAuthorization {
			continue
		}
		if req.Header.Get(key) != "" || len(values) == 0 {
			continue
		}
		req.Header.Set(key, values[0])
	}
	return nil
}

// bearerInterceptor attaches the stored access token. A missing token leaves
// the request unmodified so anonymous calls still go out.
func (c *Client) bearerInterceptor(req *http.Request, pr *PendingRequest) error {
	if pr.Anonymous {
		req.Header.Del(headerAuthorization)
		return nil
	}
	access := c.sessions.AccessToken()
	if access == "" {
		return nil
	}
	tok := &oauth2.Token{AccessToken: access, TokenType: "Bearer"}
	tok.SetAuthHeader(req)
	return nil
}

func requestIDInterceptor(req *http.Request, pr *PendingRequest) error {
	if req.Header.Get(headerRequestID) == "" {
		req.Header.Set(headerRequestID, pr.ID)
	}
	return nil
}

func jsonInterceptor(req *http.Request, pr *PendingRequest) error {
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if pr.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return nil
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
