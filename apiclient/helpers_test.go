package apiclient_test

import (
	"sync"
	"testing"

	"github.com/jrsteele09/aams-client/apiclient"
	"github.com/jrsteele09/aams-client/internal/fakeapi"
	"github.com/jrsteele09/aams-client/session"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	testUsername = "alice"
	testPassword = "Secret123"
)

// testFixture holds a fake API, a session and a client pointed at it
type testFixture struct {
	server    *fakeapi.Server
	userID    int64
	sessions  *session.Manager
	navigator *apiclient.MemoryNavigator
	client    *apiclient.Client
	states    *stateLog
}

type transition struct {
	from, to apiclient.State
}

// stateLog records transitions per request id
type stateLog struct {
	mu   sync.Mutex
	byID map[string][]transition
}

func (l *stateLog) observe(req apiclient.PendingRequest, from, to apiclient.State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.byID[req.ID] = append(l.byID[req.ID], transition{from: from, to: to})
}

// only returns the transitions of the single request observed
func (l *stateLog) only(t *testing.T) []transition {
	t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()
	require.Len(t, l.byID, 1)
	for _, ts := range l.byID {
		return ts
	}
	return nil
}

func newFixture(t *testing.T, opts ...apiclient.Option) *testFixture {
	t.Helper()
	srv := fakeapi.New()
	t.Cleanup(srv.Close)

	f := &testFixture{
		server:    srv,
		userID:    srv.AddUser(testUsername, testPassword, true, false),
		sessions:  session.NewManager(session.NewInMemoryRepo()).WithLogger(zerolog.Nop()),
		navigator: apiclient.NewMemoryNavigator("/dashboard"),
		states:    &stateLog{byID: make(map[string][]transition)},
	}
	base := []apiclient.Option{
		apiclient.WithLogger(zerolog.Nop()),
		apiclient.WithNavigator(f.navigator),
		apiclient.WithStateObserver(f.states.observe),
	}
	client, err := apiclient.New(srv.URL, f.sessions, append(base, opts...)...)
	require.NoError(t, err)
	f.client = client
	return f
}

// login stores a fresh token pair as if the user had signed in
func (f *testFixture) login(t *testing.T) (access, refresh string) {
	t.Helper()
	access = f.server.IssueAccessToken(f.userID)
	refresh = f.server.IssueRefreshToken(f.userID)
	require.NoError(t, f.sessions.Login(session.Session{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         &session.UserSummary{ID: f.userID, Username: testUsername},
	}))
	return access, refresh
}

func (f *testFixture) requireLoggedOut(t *testing.T) {
	t.Helper()
	require.Empty(t, f.sessions.AccessToken())
	require.Empty(t, f.sessions.RefreshToken())
	_, err := f.sessions.User()
	require.Error(t, err)
	require.Empty(t, f.client.DefaultHeader("Authorization"))
	require.Equal(t, "/login", f.navigator.CurrentPath())
}

func requireAPIError(t *testing.T, err error, kind apiclient.Kind) *apiclient.Error {
	t.Helper()
	require.Error(t, err)
	apiErr, ok := apiclient.AsError(err)
	require.True(t, ok, "expected *apiclient.Error, got %T: %v", err, err)
	require.Equal(t, kind, apiErr.Kind, apiErr.Error())
	return apiErr
}
