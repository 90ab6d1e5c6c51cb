package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/aams-client/apiclient"
	"github.com/jrsteele09/aams-client/internal/errors"
	"github.com/jrsteele09/aams-client/session"
	"github.com/jrsteele09/aams-client/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// HomePath is where a successful login navigates to
const HomePath = "/dashboard"

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the body of /api/auth/login/
type LoginResponse struct {
	Access  string               `json:"access"`
	Refresh string               `json:"refresh"`
	User    *session.UserSummary `json:"user"`
}

type blacklistRequest struct {
	Refresh string `json:"refresh"`
}

// UserResult is the outcome of CurrentUser. On failure User holds the cached
// summary, if any, and Stale is set; Err is always reported.
type UserResult struct {
	User    *session.UserSummary
	Profile *users.User // only set when the API answered
	Stale   bool
	Err     error
}

// Service logs users in and out of the AAMS API
type Service struct {
	client   *apiclient.Client
	sessions *session.Manager
	users    *users.Service
	logger   zerolog.Logger
}

func NewService(client *apiclient.Client) *Service {
	return &Service{
		client:   client,
		sessions: client.Sessions(),
		users:    users.NewService(client),
		logger:   log.Logger,
	}
}

func (s *Service) WithLogger(logger zerolog.Logger) *Service {
	s.logger = logger
	return s
}

// Login exchanges credentials for a token pair and stores the session. A 401
// is returned as a client error; it never triggers a refresh or a logout.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		return nil, errors.ErrMissingCredentials
	}

	var out LoginResponse
	err := s.client.Do(ctx, http.MethodPost, apiclient.PathLogin,
		loginRequest{Username: username, Password: password}, &out,
		apiclient.Anonymous(), apiclient.SkipAuthRefresh())
	if err != nil {
		s.logger.Warn().Err(err).Str("username", username).Msg("Login failed")
		return nil, err
	}
	if out.Access == "" || out.User == nil {
		return nil, errors.Wrapf(errors.ErrInvalidLogin, "[auth Login] %s", username)
	}

	if err := s.sessions.Login(session.Session{AccessToken: out.Access, RefreshToken: out.Refresh, User: out.User}); err != nil {
		return nil, errors.Wrapf(err, "[auth Login] failed to store session")
	}
	s.logger.Info().Str("username", out.User.Username).Msg("Login successful")
	s.client.Navigator().Navigate(HomePath)
	return &out, nil
}

// Logout blacklists the refresh token when there is one, then clears the
// session and navigates to login. A blacklist failure is only logged.
func (s *Service) Logout(ctx context.Context) error {
	if refresh := s.sessions.RefreshToken(); refresh != "" {
		_, err := s.client.Post(ctx, apiclient.PathTokenBlacklist, blacklistRequest{Refresh: refresh},
			apiclient.SkipAuthRefresh())
		if err != nil {
			s.logger.Warn().Err(err).Msg("Error blacklisting token")
		}
	}
	s.client.ForceLogout("user logout")
	return nil
}

// CurrentUser fetches /api/users/me/ and refreshes the cached summary. When
// the call fails the cached summary is returned marked stale.
func (s *Service) CurrentUser(ctx context.Context) UserResult {
	me, err := s.users.Me(ctx)
	if err != nil {
		cached, cacheErr := s.sessions.User()
		if cacheErr != nil && !errors.Is(cacheErr, errors.ErrNoSession) {
			s.logger.Error().Err(cacheErr).Msg("Failed to read cached user")
		}
		return UserResult{User: cached, Stale: true, Err: err}
	}

	summary := Summarize(me)
	if err := s.sessions.SetUser(summary); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to cache current user")
	}
	return UserResult{User: summary, Profile: me}
}

// Summarize reduces a full user record to the cached session summary
func Summarize(u *users.User) *session.UserSummary {
	return &session.UserSummary{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		EmployeeID:  u.EmployeeID,
		Position:    u.Position,
		Department:  u.Department,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
		DateJoined:  u.DateJoined,
	}
}
