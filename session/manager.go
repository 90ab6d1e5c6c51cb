package session

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/jrsteele09/aams-client/internal/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Manager owns the session lifecycle: Login creates it, refresh replaces the
// access token and Logout clears every key.
type Manager struct {
	repo   Repo
	mu     sync.RWMutex
	logger zerolog.Logger
}

// NewManager creates a session manager over repo
func NewManager(repo Repo) *Manager {
	return &Manager{
		repo:   repo,
		logger: log.Logger,
	}
}

// WithLogger replaces the manager's logger
func (m *Manager) WithLogger(logger zerolog.Logger) *Manager {
	m.logger = logger
	return m
}

// Login stores the access token, refresh token and user summary
func (m *Manager) Login(s Session) error {
	if s.AccessToken == "" {
		return errors.Wrapf(errors.ErrInvalidToken, "[session Login] access token is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.repo.Set(KeyAccessToken, s.AccessToken); err != nil {
		return errors.Wrapf(err, "[session Login] failed to store access token")
	}
	if s.RefreshToken != "" {
		if err := m.repo.Set(KeyRefreshToken, s.RefreshToken); err != nil {
			return errors.Wrapf(err, "[session Login] failed to store refresh token")
		}
	} else if err := m.repo.Remove(KeyRefreshToken); err != nil {
		return errors.Wrapf(err, "[session Login] failed to clear refresh token")
	}
	if s.User != nil {
		raw, err := json.Marshal(s.User)
		if err != nil {
			return errors.Wrapf(err, "[session Login] failed to encode user")
		}
		if err := m.repo.Set(KeyUser, string(raw)); err != nil {
			return errors.Wrapf(err, "[session Login] failed to store user")
		}
	}
	return nil
}

// AccessToken returns the stored access token or "" when there is none.
// Read failures are logged and treated as an anonymous session.
func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.get(KeyAccessToken)
}

// RefreshToken returns the stored refresh token or ""
func (m *Manager) RefreshToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.get(KeyRefreshToken)
}

// SetAccessToken replaces the access token after a refresh
func (m *Manager) SetAccessToken(token string) error {
	if token == "" {
		return errors.Wrapf(errors.ErrInvalidToken, "[session SetAccessToken] empty token")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.repo.Set(KeyAccessToken, token)
}

// SetRefreshToken stores a rotated refresh token
func (m *Manager) SetRefreshToken(token string) error {
	if token == "" {
		return errors.Wrapf(errors.ErrInvalidToken, "[session SetRefreshToken] empty token")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.repo.Set(KeyRefreshToken, token)
}

// User returns the cached user summary, errors.ErrNoSession when none is cached
func (m *Manager) User() (*UserSummary, error) {
	m.mu.RLock()
	raw, err := m.repo.Get(KeyUser)
	m.mu.RUnlock()
	if errors.Is(err, errors.ErrKeyNotFound) {
		return nil, errors.ErrNoSession
	}
	if err != nil {
		return nil, errors.Wrapf(err, "[session User] failed to read user")
	}

	var u UserSummary
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, errors.Wrapf(err, "[session User] failed to decode cached user")
	}
	return &u, nil
}

// SetUser replaces the cached user summary
func (m *Manager) SetUser(u *UserSummary) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return errors.Wrapf(err, "[session SetUser] failed to encode user")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.repo.Set(KeyUser, string(raw))
}

// Session returns a snapshot of the whole session
func (m *Manager) Session() (Session, error) {
	m.mu.RLock()
	s := Session{
		AccessToken:  m.get(KeyAccessToken),
		RefreshToken: m.get(KeyRefreshToken),
	}
	m.mu.RUnlock()

	if s.AccessToken == "" && s.RefreshToken == "" {
		return Session{}, errors.ErrNoSession
	}
	u, err := m.User()
	if err != nil && !errors.Is(err, errors.ErrNoSession) {
		return s, err
	}
	s.User = u
	return s, nil
}

// Token returns the token pair as an oauth2 token, nil without an access token
func (m *Manager) Token() *oauth2.Token {
	m.mu.RLock()
	access := m.get(KeyAccessToken)
	refresh := m.get(KeyRefreshToken)
	m.mu.RUnlock()

	if access == "" {
		return nil
	}
	tok := &oauth2.Token{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
	}
	if claims, err := ParseClaims(access); err == nil {
		tok.Expiry = claims.Expiry()
	}
	return tok
}

// AccessTokenExpiry returns the exp claim of the stored access token
func (m *Manager) AccessTokenExpiry() (time.Time, error) {
	access := m.AccessToken()
	if access == "" {
		return time.Time{}, errors.ErrNoSession
	}
	claims, err := ParseClaims(access)
	if err != nil {
		return time.Time{}, err
	}
	return claims.Expiry(), nil
}

// IsAuthenticated reports whether the session can still authorise requests,
// either directly or after a refresh. Only exp claims are inspected.
func (m *Manager) IsAuthenticated() bool {
	now := NowTimeFunc()
	for _, raw := range []string{m.AccessToken(), m.RefreshToken()} {
		if raw == "" {
			continue
		}
		claims, err := ParseClaims(raw)
		if err != nil || !claims.Expired(now) {
			// opaque tokens are left for the server to judge
			return true
		}
	}
	return false
}

// Logout removes every session key. All removals are attempted.
func (m *Manager) Logout() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for _, key := range []string{KeyAccessToken, KeyRefreshToken, KeyUser} {
		if err := m.repo.Remove(key); err != nil {
			errs = append(errs, errors.Wrapf(err, "[session Logout] failed to remove %s", key))
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) get(key string) string {
	v, err := m.repo.Get(key)
	if err != nil {
		if !errors.Is(err, errors.ErrKeyNotFound) {
			m.logger.Warn().Err(err).Str("key", key).Msg("Failed to read session key")
		}
		return ""
	}
	return v
}
