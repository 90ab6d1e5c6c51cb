package apiclient

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/aams-client/internal/config"
	"github.com/jrsteele09/aams-client/internal/errors"
	"github.com/jrsteele09/aams-client/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// API routes owned by the client itself
const (
	PathLogin          = "/api/auth/login/"
	PathTokenRefresh   = "/api/token/refresh/"
	PathTokenBlacklist = "/api/token/blacklist/"
	PathHealth         = "/api/health/"

	DefaultTimeout   = 10 * time.Second
	DefaultLoginPath = "/login"

	headerAuthorization = "Authorization"
	headerRequestID     = "X-Request-ID"
)

// RefreshMode selects how concurrent 401s share token refreshes
type RefreshMode int

const (
	// RefreshSingleFlight coalesces concurrent refreshes into one endpoint call
	RefreshSingleFlight RefreshMode = iota
	// RefreshPerRequest lets every 401'd request refresh on its own
	RefreshPerRequest
)

// Client performs AAMS API calls with bearer authentication and transparent
// access-token refresh. It is safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	sessions   *session.Manager
	navigator  Navigator
	loginPath  string
	env        string
	logger     zerolog.Logger
	limiter    *rate.Limiter
	observer   StateObserver

	maxResponseBytes int64

	interceptors []RequestInterceptor

	refreshMode  RefreshMode
	refreshGroup singleflight.Group

	headerLock     sync.RWMutex
	defaultHeaders http.Header

	logoutLock sync.Mutex
}

// New creates a client for the API at baseURL
func New(baseURL string, sessions *session.Manager, opts ...Option) (*Client, error) {
	if !config.ValidBaseURL(baseURL) {
		return nil, errors.Wrapf(errors.ErrInvalidBaseURL, "[apiclient New] %q", baseURL)
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidBaseURL, "[apiclient New] %v", err)
	}
	if sessions == nil {
		return nil, fmt.Errorf("[apiclient New] session manager is required")
	}
	u.Path = strings.TrimSuffix(u.Path, "/")

	c := &Client{
		baseURL:        u,
		httpClient:     &http.Client{Timeout: DefaultTimeout},
		sessions:       sessions,
		navigator:      NewMemoryNavigator("/"),
		loginPath:      DefaultLoginPath,
		env:            "DEV",
		logger:         log.Logger,
		defaultHeaders: make(http.Header),

		maxResponseBytes: DefaultMaxResponseBytes,
	}
	c.interceptors = []RequestInterceptor{
		c.defaultHeaderInterceptor,
		c.bearerInterceptor,
		requestIDInterceptor,
		jsonInterceptor,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewFromConfig creates a client using the configured base URL, timeout,
// login path, rate limit and refresh mode
func NewFromConfig(cfg config.Config, sessions *session.Manager, opts ...Option) (*Client, error) {
	base := []Option{
		WithTimeout(cfg.GetRequestTimeout()),
		WithLoginPath(cfg.GetLoginPath()),
		WithEnv(cfg.GetEnv()),
	}
	if r := cfg.GetRateLimit(); r > 0 {
		base = append(base, WithRateLimit(r, cfg.GetRateBurst()))
	}
	if cfg.GetRefreshMode() == config.RefreshModePerRequest {
		base = append(base, WithRefreshMode(RefreshPerRequest))
	}
	return New(cfg.GetAPIBaseURL(), sessions, append(base, opts...)...)
}

// BaseURL returns the API base URL
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Sessions returns the session manager used by the client
func (c *Client) Sessions() *session.Manager {
	return c.sessions
}

// Navigator returns the navigator that receives login redirects
func (c *Client) Navigator() Navigator {
	return c.navigator
}

// LoginPath returns the location logout redirects to
func (c *Client) LoginPath() string {
	return c.loginPath
}

// DefaultHeader returns a header applied to every request
func (c *Client) DefaultHeader(key string) string {
	c.headerLock.RLock()
	defer c.headerLock.RUnlock()
	return c.defaultHeaders.Get(key)
}

func (c *Client) setDefaultHeader(key, value string) {
	c.headerLock.Lock()
	defer c.headerLock.Unlock()
	c.defaultHeaders.Set(key, value)
}

func (c *Client) deleteDefaultHeader(key string) {
	c.headerLock.Lock()
	defer c.headerLock.Unlock()
	c.defaultHeaders.Del(key)
}

// ForceLogout clears the session and the default Authorization header, then
// navigates to the login location unless the navigator is already there.
func (c *Client) ForceLogout(reason string) {
	c.logoutLock.Lock()
	defer c.logoutLock.Unlock()

	if err := c.sessions.Logout(); err != nil {
		c.logger.Error().Err(err).Msg("Failed to clear session")
	}
	c.deleteDefaultHeader(headerAuthorization)

	if c.navigator.CurrentPath() != c.loginPath {
		c.navigator.Navigate(c.loginPath)
	}
	c.logger.Info().Str("reason", reason).Msg("Logged out")
}

func (c *Client) resolve(path string, query url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	u.RawQuery = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}
