package apiclient

import (
	"context"
	"net/http"
)

// HealthStatus is the body of /api/health/
type HealthStatus struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Health fetches the API health document
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var status HealthStatus
	if err := c.Do(ctx, http.MethodGet, PathHealth, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// CheckHealth reports whether the API answered the health check with 200
func (c *Client) CheckHealth(ctx context.Context) bool {
	resp, err := c.Get(ctx, PathHealth)
	if err != nil {
		c.logger.Error().Err(err).Msg("API health check failed")
		return false
	}
	return resp.StatusCode == http.StatusOK
}
