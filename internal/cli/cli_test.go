package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jrsteele09/aams-client/apiclient"
	"github.com/jrsteele09/aams-client/internal/fakeapi"
	"github.com/stretchr/testify/require"
)

type cliFixture struct {
	server      *fakeapi.Server
	sessionFile string
}

func newCLIFixture(t *testing.T) *cliFixture {
	t.Helper()
	srv := fakeapi.New()
	t.Cleanup(srv.Close)
	srv.AddUser("alice", "Secret123", true, false)

	f := &cliFixture{server: srv, sessionFile: filepath.Join(t.TempDir(), "session.json")}
	t.Setenv("AAMS_CONFIG", "")
	t.Setenv("AAMS_SESSION_FILE", f.sessionFile)
	t.Setenv("AAMS_SESSION_PASSPHRASE", "test-passphrase")
	t.Setenv("AAMS_API_BASE_URL", "")
	t.Setenv("APP_NAME", "")
	t.Setenv("ENV", "TEST")
	t.Setenv("LOG_LEVEL", "disabled")
	return f
}

// run executes one aams invocation against the fake API
func (f *cliFixture) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCommand()
	root.SetArgs(append([]string{"--base-url", f.server.URL}, args...))
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func (f *cliFixture) login(t *testing.T) {
	t.Helper()
	out, _, err := f.run(t, "", "login", "-u", "alice", "-p", "Secret123")
	require.NoError(t, err)
	require.Contains(t, out, "Logged in as alice (Alice Tester)")
}

func TestLoginWhoamiLogout(t *testing.T) {
	f := newCLIFixture(t)
	f.login(t)
	require.FileExists(t, f.sessionFile)

	out, stderr, err := f.run(t, "", "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "alice")
	require.Contains(t, out, "Operations")
	require.Contains(t, out, "token expires")
	require.Empty(t, stderr)

	out, stderr, err = f.run(t, "", "logout")
	require.NoError(t, err)
	require.Contains(t, out, "Logged out.")
	require.NotContains(t, stderr, "Session expired")
	require.Equal(t, 1, f.server.BlacklistCalls())

	_, _, err = f.run(t, "", "whoami")
	require.Error(t, err)
	require.Equal(t, "Your session has expired. Please log in again.", errorMessage(err))
}

func TestLoginPromptsForPassword(t *testing.T) {
	f := newCLIFixture(t)

	out, stderr, err := f.run(t, "Secret123\n", "login", "-u", "alice")
	require.NoError(t, err)
	require.Contains(t, stderr, "Password: ")
	require.Contains(t, out, "Logged in as alice")
}

func TestLoginFailure(t *testing.T) {
	f := newCLIFixture(t)

	_, _, err := f.run(t, "", "login", "-u", "alice", "-p", "wrong")
	require.Error(t, err)
	require.Equal(t, "Invalid username or password.", errorMessage(err))

	_, _, err = f.run(t, "\n", "login", "-u", "alice")
	require.Error(t, err)
	require.Equal(t, "Please enter a username and password.", errorMessage(err))
}

func TestSessionExpiredNotice(t *testing.T) {
	f := newCLIFixture(t)
	f.login(t)
	f.server.ExpireAccessTokens()
	f.server.FailRefresh.Store(true)

	_, stderr, err := f.run(t, "", "users", "list")
	require.Error(t, err)
	require.Contains(t, stderr, "Session expired, run `aams login` to sign in again.")
	require.Equal(t, "Your session has expired. Please log in again.", errorMessage(err))
}

func TestRefreshIsTransparent(t *testing.T) {
	f := newCLIFixture(t)
	f.login(t)
	f.server.ExpireAccessTokens()

	out, stderr, err := f.run(t, "", "users", "list")
	require.NoError(t, err)
	require.Contains(t, out, "alice")
	require.Empty(t, stderr)
	require.Equal(t, 1, f.server.RefreshCalls())

	// the refreshed token was persisted, a second run needs no refresh
	_, _, err = f.run(t, "", "users", "get", "1")
	require.NoError(t, err)
	require.Equal(t, 1, f.server.RefreshCalls())
}

func TestUsersCommands(t *testing.T) {
	f := newCLIFixture(t)
	f.login(t)
	bob := f.server.AddUser("bob", "Passw0rdX", false, false)

	out, _, err := f.run(t, "", "users", "list", "--search", "bo")
	require.NoError(t, err)
	require.Contains(t, out, "USERNAME")
	require.Contains(t, out, "bob")
	lists := f.server.RequestsTo("GET", "/api/users/")
	require.NotEmpty(t, lists)

	out, _, err = f.run(t, "", "users", "get", "2")
	require.NoError(t, err)
	require.Contains(t, out, "EMP-bob")

	out, _, err = f.run(t, "", "users", "delete", "2")
	require.NoError(t, err)
	require.Contains(t, out, "Deleted user 2")
	_, found := f.server.Record("users", bob)
	require.False(t, found)

	_, _, err = f.run(t, "", "users", "get", "2")
	require.Error(t, err)
	require.Equal(t, "Not found.", errorMessage(err))

	_, _, err = f.run(t, "", "users", "get", "abc")
	require.EqualError(t, err, `invalid id "abc"`)
}

func TestProjectsToggle(t *testing.T) {
	f := newCLIFixture(t)
	f.login(t)
	id := f.server.Seed("projects", map[string]any{"name": "Billing", "is_active": true})

	out, _, err := f.run(t, "", "projects", "toggle", "1")
	require.NoError(t, err)
	require.Contains(t, out, `Project 1 "Billing" is now inactive`)

	out, _, err = f.run(t, "", "projects", "toggle", "1", "--active=false")
	require.NoError(t, err)
	require.Contains(t, out, "is now inactive")

	out, _, err = f.run(t, "", "projects", "list")
	require.NoError(t, err)
	require.Contains(t, out, "Billing")

	rec, _ := f.server.Record("projects", id)
	require.Equal(t, false, rec["is_active"])
}

func TestRolesAndPermissions(t *testing.T) {
	f := newCLIFixture(t)
	f.login(t)
	f.server.Seed("roles", map[string]any{"name": "Supervisor", "is_active": true})
	f.server.Seed("permissions", map[string]any{"name": "view_reports", "category": "reports"})
	f.server.Seed("permissions", map[string]any{"name": "manage_users", "category": "users"})

	out, _, err := f.run(t, "", "roles", "list")
	require.NoError(t, err)
	require.Contains(t, out, "Supervisor")

	out, _, err = f.run(t, "", "permissions", "categories")
	require.NoError(t, err)
	require.Equal(t, "reports\nusers\n", out)
}

func TestHealthAndVersion(t *testing.T) {
	f := newCLIFixture(t)

	out, _, err := f.run(t, "", "health")
	require.NoError(t, err)
	require.Contains(t, out, "healthy: AAMS API is running")
	require.Contains(t, out, f.server.URL)

	out, _, err = f.run(t, "", "version")
	require.NoError(t, err)
	require.Contains(t, out, "AAMS "+Version)
}

func TestErrorMessage(t *testing.T) {
	err := &apiclient.Error{
		Kind:       apiclient.KindClient,
		StatusCode: 400,
		Body:       []byte(`{"username":["A user with that username already exists."],"email":["Enter a valid email address."]}`),
	}
	require.Equal(t, "The submitted data is invalid.\n"+
		"  email: Enter a valid email address.\n"+
		"  username: A user with that username already exists.", errorMessage(err))

	require.Equal(t, "A system error occurred. Please try again later.",
		errorMessage(&apiclient.Error{Kind: apiclient.KindServer, StatusCode: 500, Body: []byte(`{"code":"x"}`)}))
}
