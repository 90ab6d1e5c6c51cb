package apiclient

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

type Option func(*Client)

// WithHTTPClient uses a copy of httpClient, its Timeout is kept as is. A nil
// client is ignored.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient == nil {
			return
		}
		cp := *httpClient
		c.httpClient = &cp
	}
}

// WithTimeout sets the per-request timeout on the client's own copy of the HTTP client
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d <= 0 {
			return
		}
		cp := *c.httpClient
		cp.Timeout = d
		c.httpClient = &cp
	}
}

// WithMaxResponseBytes caps response bodies, larger ones fail with errors.ErrResponseTooLarge
func WithMaxResponseBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxResponseBytes = n
		}
	}
}

func WithNavigator(n Navigator) Option {
	return func(c *Client) {
		if n != nil {
			c.navigator = n
		}
	}
}

func WithLoginPath(path string) Option {
	return func(c *Client) {
		if path != "" {
			c.loginPath = path
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithEnv sets the environment name, "DEV" enables coloured request logging
func WithEnv(env string) Option {
	return func(c *Client) {
		c.env = env
	}
}

// WithRateLimit limits outgoing requests to perSecond with the given burst
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

func WithRefreshMode(mode RefreshMode) Option {
	return func(c *Client) {
		c.refreshMode = mode
	}
}

// WithInterceptor appends request interceptors after the built-in ones
func WithInterceptor(interceptors ...RequestInterceptor) Option {
	return func(c *Client) {
		c.interceptors = append(c.interceptors, interceptors...)
	}
}

// WithStateObserver receives every request state transition
func WithStateObserver(observer StateObserver) Option {
	return func(c *Client) {
		c.observer = observer
	}
}
