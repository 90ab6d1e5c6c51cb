package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jrsteele09/aams-client/internal/errors"
)

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// RefreshResponse is the body of /api/token/refresh/. Refresh is only set
// when the server rotates refresh tokens.
type RefreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// refreshFlight keys the single shared refresh. Rotation changes the refresh
// token, so it cannot be the key.
const refreshFlight = "refresh"

// refreshAccessToken returns a usable access token for a request that was
// rejected while carrying staleToken.
func (c *Client) refreshAccessToken(ctx context.Context, staleToken string) (string, error) {
	if c.refreshMode == RefreshPerRequest {
		refresh := c.sessions.RefreshToken()
		if refresh == "" {
			return "", errors.ErrNoRefreshToken
		}
		return c.doRefresh(ctx, refresh)
	}

	ch := c.refreshGroup.DoChan(refreshFlight, func() (any, error) {
		// the session is read inside the flight so a refresh that finished
		// just before this one is never repeated with a rotated-out token
		if current := c.sessions.AccessToken(); current != "" && staleToken != "" && current != staleToken {
			return current, nil
		}
		refresh := c.sessions.RefreshToken()
		if refresh == "" {
			return "", errors.ErrNoRefreshToken
		}
		return c.doRefresh(context.WithoutCancel(ctx), refresh)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// doRefresh calls the refresh endpoint directly, bypassing the interceptors
// so a failing refresh can never recurse into another refresh.
func (c *Client) doRefresh(ctx context.Context, refresh string) (string, error) {
	payload, err := json.Marshal(refreshRequest{Refresh: refresh})
	if err != nil {
		return "", fmt.Errorf("[apiclient refresh] failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolve(PathTokenRefresh, nil), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("[apiclient refresh] failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return "", transportError(ctx, &PendingRequest{Method: http.MethodPost, Path: PathTokenRefresh}, err)
	}
	defer httpResp.Body.Close()

	raw, err := readBody(httpResp.Body, c.maxResponseBytes)
	if err != nil {
		return "", fmt.Errorf("[apiclient refresh] failed to read response: %w", err)
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		pr := &PendingRequest{Method: http.MethodPost, Path: PathTokenRefresh}
		resp := &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: raw}
		return "", statusError(kindForStatus(httpResp.StatusCode), pr, resp, nil)
	}

	var out RefreshResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("[apiclient refresh] failed to decode response: %w", err)
	}
	if out.Access == "" {
		return "", errors.Wrapf(errors.ErrInvalidToken, "[apiclient refresh] response has no access token")
	}

	if err := c.sessions.SetAccessToken(out.Access); err != nil {
		return "", errors.Wrapf(err, "[apiclient refresh] failed to store access token")
	}
	if out.Refresh != "" {
		if err := c.sessions.SetRefreshToken(out.Refresh); err != nil {
			return "", errors.Wrapf(err, "[apiclient refresh] failed to store rotated refresh token")
		}
	}
	c.setDefaultHeader(headerAuthorization, "Bearer "+out.Access)

	c.logger.Info().Bool("rotated", out.Refresh != "").Msg("Access token refreshed")
	return out.Access, nil
}
