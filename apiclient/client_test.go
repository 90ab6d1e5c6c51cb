package apiclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/aams-client/apiclient"
	"github.com/jrsteele09/aams-client/internal/errors"
	"github.com/jrsteele09/aams-client/session"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	sessions := session.NewManager(session.NewInMemoryRepo())

	_, err := apiclient.New("127.0.0.1:8000", sessions)
	require.ErrorIs(t, err, errors.ErrInvalidBaseURL)

	_, err = apiclient.New("http://127.0.0.1:8000", nil)
	require.Error(t, err)

	c, err := apiclient.New("http://127.0.0.1:8000/", sessions)
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:8000", c.BaseURL())
	require.Equal(t, apiclient.DefaultLoginPath, c.LoginPath())
	require.Same(t, sessions, c.Sessions())
}

func TestBearerAttachedWhenLoggedIn(t *testing.T) {
	f := newFixture(t)
	access, _ := f.login(t)

	resp, err := f.client.Get(context.Background(), "/api/users/me/")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.RequestID)

	reqs := f.server.RequestsTo(http.MethodGet, "/api/users/me/")
	require.Len(t, reqs, 1)
	require.Equal(t, "Bearer "+access, reqs[0].Authorization)
	require.Equal(t, resp.RequestID, reqs[0].RequestID)

	require.Equal(t, []transition{
		{apiclient.StateInitial, apiclient.StateSent},
		{apiclient.StateSent, apiclient.StateSuccess},
	}, f.states.only(t))
}

func TestNoHeaderWithoutToken(t *testing.T) {
	f := newFixture(t)

	health, err := f.client.Health(context.Background())
	require.NoError(t, err)
	require.Equal(t, "healthy", health.Status)

	reqs := f.server.RequestsTo(http.MethodGet, "/api/health/")
	require.Len(t, reqs, 1)
	require.Empty(t, reqs[0].Authorization)
}

func TestAnonymousOmitsStoredToken(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	_, err := f.client.Get(context.Background(), "/api/health/", apiclient.Anonymous())
	require.NoError(t, err)

	reqs := f.server.RequestsTo(http.MethodGet, "/api/health/")
	require.Len(t, reqs, 1)
	require.Empty(t, reqs[0].Authorization)
}

func TestAnonymousUnauthorizedKeepsSession(t *testing.T) {
	f := newFixture(t)
	access, refresh := f.login(t)

	_, err := f.client.Get(context.Background(), "/api/users/me/", apiclient.Anonymous())
	apiErr := requireAPIError(t, err, apiclient.KindClient)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.NotErrorIs(t, err, errors.ErrAuthExpired)

	require.Zero(t, f.server.RefreshCalls())
	require.Len(t, f.server.RequestsTo(http.MethodGet, "/api/users/me/"), 1)
	require.Equal(t, access, f.sessions.AccessToken())
	require.Equal(t, refresh, f.sessions.RefreshToken())
	require.Empty(t, f.navigator.History())
	require.Equal(t, []transition{
		{apiclient.StateInitial, apiclient.StateSent},
		{apiclient.StateSent, apiclient.StateFailedOther},
	}, f.states.only(t))
}

func TestResponseTooLarge(t *testing.T) {
	f := newFixture(t, apiclient.WithMaxResponseBytes(16))

	_, err := f.client.Get(context.Background(), apiclient.PathHealth)
	require.ErrorIs(t, err, errors.ErrResponseTooLarge)
	requireAPIError(t, err, apiclient.KindNetwork)
}

func TestResponseAtLimit(t *testing.T) {
	body := `{"status":"ok"}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()
	c, err := apiclient.New(srv.URL, session.NewManager(session.NewInMemoryRepo()),
		apiclient.WithLogger(zerolog.Nop()),
		apiclient.WithMaxResponseBytes(int64(len(body))))
	require.NoError(t, err)

	resp, err := c.Get(context.Background(), apiclient.PathHealth)
	require.NoError(t, err)
	require.Equal(t, body, string(resp.Body))
}

func TestHTTPClientOptions(t *testing.T) {
	f := newFixture(t)
	sessions := session.NewManager(session.NewInMemoryRepo())

	shared := &http.Client{Timeout: 3 * time.Second}
	c, err := apiclient.New(f.server.URL, sessions,
		apiclient.WithLogger(zerolog.Nop()),
		apiclient.WithHTTPClient(shared),
		apiclient.WithTimeout(50*time.Millisecond))
	require.NoError(t, err)
	require.Equal(t, 3*time.Second, shared.Timeout)
	require.True(t, c.CheckHealth(context.Background()))

	defaultTimeout := http.DefaultClient.Timeout
	c, err = apiclient.New(f.server.URL, sessions,
		apiclient.WithLogger(zerolog.Nop()),
		apiclient.WithHTTPClient(nil),
		apiclient.WithHTTPClient(http.DefaultClient),
		apiclient.WithTimeout(time.Second))
	require.NoError(t, err)
	require.Equal(t, defaultTimeout, http.DefaultClient.Timeout)
	require.True(t, c.CheckHealth(context.Background()))

	c, err = apiclient.New(f.server.URL, sessions,
		apiclient.WithLogger(zerolog.Nop()),
		apiclient.WithHTTPClient(nil))
	require.NoError(t, err)
	require.True(t, c.CheckHealth(context.Background()))
}

func TestDecodeAndQuery(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.server.Seed("projects", map[string]any{"name": "Alpha", "is_active": true})

	var page struct {
		Count   int              `json:"count"`
		Results []map[string]any `json:"results"`
	}
	err := f.client.Do(context.Background(), http.MethodGet, "/api/projects/", nil, &page,
		apiclient.WithQuery(url.Values{"page": {"1"}}))
	require.NoError(t, err)
	require.Equal(t, 1, page.Count)
	require.Equal(t, "Alpha", page.Results[0]["name"])
}

func TestRequestBodies(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	ctx := context.Background()

	_, err := f.client.Post(ctx, "/api/projects/", map[string]any{"name": "Struct"})
	require.NoError(t, err)
	_, err = f.client.Post(ctx, "/api/projects/", []byte(`{"name":"Bytes"}`))
	require.NoError(t, err)
	_, err = f.client.Post(ctx, "/api/projects/", strings.NewReader(`{"name":"Reader"}`))
	require.NoError(t, err)

	reqs := f.server.RequestsTo(http.MethodPost, "/api/projects/")
	require.Len(t, reqs, 3)
	require.JSONEq(t, `{"name":"Struct"}`, string(reqs[0].Body))
	require.JSONEq(t, `{"name":"Bytes"}`, string(reqs[1].Body))
	require.JSONEq(t, `{"name":"Reader"}`, string(reqs[2].Body))

	_, err = f.client.Post(ctx, "/api/projects/", func() {})
	require.Error(t, err)
	_, ok := apiclient.AsError(err)
	require.False(t, ok)

	_, err = f.client.Request(ctx, "", "/api/projects/", nil)
	require.ErrorIs(t, err, errors.ErrInvalidRequest)
}

func TestInterceptorCanAbort(t *testing.T) {
	boom := errors.New("blocked")
	f := newFixture(t, apiclient.WithInterceptor(func(req *http.Request, pr *apiclient.PendingRequest) error {
		if strings.HasPrefix(pr.Path, "/api/users/") {
			return boom
		}
		req.Header.Set("X-Console", "aams")
		return nil
	}))
	f.login(t)

	_, err := f.client.Get(context.Background(), "/api/users/")
	require.ErrorIs(t, err, boom)
	require.Empty(t, f.server.RequestsTo(http.MethodGet, "/api/users/"))

	_, err = f.client.Get(context.Background(), "/api/health/")
	require.NoError(t, err)
	require.Equal(t, []transition{
		{apiclient.StateInitial, apiclient.StateFailedOther},
	}, f.states.byID[firstRequestID(t, f.states, apiclient.StateFailedOther)])
}

func firstRequestID(t *testing.T, l *stateLog, final apiclient.State) string {
	t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, ts := range l.byID {
		if ts[len(ts)-1].to == final {
			return id
		}
	}
	t.Fatalf("no request ended in %s", final)
	return ""
}

func TestForbiddenLeavesSessionAlone(t *testing.T) {
	f := newFixture(t)
	access, refresh := f.login(t)
	f.server.FailNext(http.MethodGet, "/api/users/", http.StatusForbidden, 1)

	_, err := f.client.Get(context.Background(), "/api/users/")
	apiErr := requireAPIError(t, err, apiclient.KindClient)
	require.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	require.ErrorIs(t, err, errors.ErrClientError)
	require.Equal(t, "You do not have permission to access this resource.", (&apiclient.Error{Kind: apiclient.KindClient, StatusCode: 403}).UserMessage())

	require.Equal(t, access, f.sessions.AccessToken())
	require.Equal(t, refresh, f.sessions.RefreshToken())
	require.Zero(t, f.server.RefreshCalls())
	require.Empty(t, f.navigator.History())
	require.Equal(t, []transition{
		{apiclient.StateInitial, apiclient.StateSent},
		{apiclient.StateSent, apiclient.StateFailedOther},
	}, f.states.only(t))
}

func TestNotFoundAndValidationErrors(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	_, err := f.client.Get(context.Background(), "/api/projects/999/")
	apiErr := requireAPIError(t, err, apiclient.KindClient)
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	require.Equal(t, "Not found.", apiErr.Detail)
	require.Equal(t, "Not found.", apiErr.UserMessage())

	_, err = f.client.Post(context.Background(), "/api/users/", map[string]any{"email": "x@example.com"})
	apiErr = requireAPIError(t, err, apiclient.KindClient)
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Equal(t, map[string][]string{"username": {"This field is required."}}, apiErr.FieldErrors())
	require.Equal(t, "The submitted data is invalid.", apiErr.UserMessage())
}

func TestServerError(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.server.FailNext(http.MethodGet, "/api/roles/", http.StatusInternalServerError, 1)

	_, err := f.client.Get(context.Background(), "/api/roles/")
	apiErr := requireAPIError(t, err, apiclient.KindServer)
	require.ErrorIs(t, err, errors.ErrServerError)
	require.Equal(t, "A system error occurred. Please try again later.", apiErr.UserMessage())
	require.NotEmpty(t, f.sessions.AccessToken())
	require.Len(t, f.server.RequestsTo(http.MethodGet, "/api/roles/"), 1)
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	sessions := session.NewManager(session.NewInMemoryRepo())
	require.NoError(t, sessions.Login(session.Session{AccessToken: "a", RefreshToken: "r"}))
	c, err := apiclient.New(baseURL, sessions, apiclient.WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "/api/users/me/")
	apiErr := requireAPIError(t, err, apiclient.KindNetwork)
	require.Zero(t, apiErr.StatusCode)
	require.ErrorIs(t, err, errors.ErrNetwork)
	require.NotErrorIs(t, err, errors.ErrTimeout)
	require.Equal(t, "Cannot reach the server.", apiErr.UserMessage())
	require.Equal(t, "a", sessions.AccessToken())

	require.False(t, c.CheckHealth(context.Background()))
}

func TestTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(slow.Close)
	sessions := session.NewManager(session.NewInMemoryRepo())

	t.Run("client timeout", func(t *testing.T) {
		c, err := apiclient.New(slow.URL, sessions, apiclient.WithLogger(zerolog.Nop()), apiclient.WithTimeout(50*time.Millisecond))
		require.NoError(t, err)

		_, err = c.Get(context.Background(), "/api/health/")
		requireAPIError(t, err, apiclient.KindTimeout)
		require.ErrorIs(t, err, errors.ErrTimeout)
		require.ErrorIs(t, err, errors.ErrNetwork)
	})

	t.Run("context deadline", func(t *testing.T) {
		c, err := apiclient.New(slow.URL, sessions, apiclient.WithLogger(zerolog.Nop()))
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err = c.Get(ctx, "/api/health/")
		requireAPIError(t, err, apiclient.KindTimeout)
	})

	t.Run("context cancelled", func(t *testing.T) {
		c, err := apiclient.New(slow.URL, sessions, apiclient.WithLogger(zerolog.Nop()))
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = c.Get(ctx, "/api/health/")
		requireAPIError(t, err, apiclient.KindNetwork)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t, apiclient.WithRateLimit(0.01, 1))

	_, err := f.client.Get(context.Background(), "/api/health/")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = f.client.Get(ctx, "/api/health/")
	requireAPIError(t, err, apiclient.KindTimeout)
	require.Len(t, f.server.RequestsTo(http.MethodGet, "/api/health/"), 1)
}

func TestCheckHealth(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.client.CheckHealth(context.Background()))

	f.server.FailNext(http.MethodGet, "/api/health/", http.StatusServiceUnavailable, 1)
	require.False(t, f.client.CheckHealth(context.Background()))
}

func TestForceLogoutIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	f.client.ForceLogout("test")
	f.client.ForceLogout("test again")

	f.requireLoggedOut(t)
	require.Equal(t, []string{"/login"}, f.navigator.History())
}

func TestErrorKinds(t *testing.T) {
	require.Equal(t, "auth_expired", apiclient.KindAuthExpired.String())
	require.Equal(t, "timeout", apiclient.KindTimeout.String())
	require.True(t, apiclient.StateLoggedOut.Terminal())
	require.False(t, apiclient.StateFailed401Retrying.Terminal())
	require.Equal(t, "failed_401_retrying", apiclient.StateFailed401Retrying.String())

	err := &apiclient.Error{Kind: apiclient.KindAuthExpired, Method: "GET", Path: "/api/users/me/", StatusCode: 401}
	require.ErrorIs(t, err, errors.ErrAuthExpired)
	require.Contains(t, err.Error(), "GET /api/users/me/")
	require.Equal(t, "Your session has expired. Please log in again.", err.UserMessage())
}
