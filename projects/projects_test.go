package projects_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/jrsteele09/aams-client/apiclient"
	"github.com/jrsteele09/aams-client/internal/errors"
	"github.com/jrsteele09/aams-client/internal/fakeapi"
	"github.com/jrsteele09/aams-client/internal/utils"
	"github.com/jrsteele09/aams-client/projects"
	"github.com/jrsteele09/aams-client/session"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*fakeapi.Server, *projects.Service) {
	t.Helper()
	srv := fakeapi.New()
	t.Cleanup(srv.Close)
	userID := srv.AddUser("admin", "Secret123", true, true)

	sessions := session.NewManager(session.NewInMemoryRepo())
	require.NoError(t, sessions.Login(session.Session{
		AccessToken:  srv.IssueAccessToken(userID),
		RefreshToken: srv.IssueRefreshToken(userID),
	}))
	client, err := apiclient.New(srv.URL, sessions, apiclient.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	return srv, projects.NewService(client)
}

func TestCreateListUpdate(t *testing.T) {
	_, svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, projects.Input{Name: "Call Centre", Description: "Inbound", IsActive: true})
	require.NoError(t, err)
	require.Equal(t, "Call Centre", created.Name)
	require.False(t, created.CreatedAt.IsZero())

	list, err := svc.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, created.ID, list[0].ID)

	updated, err := svc.Update(ctx, created.ID, projects.Patch{Description: utils.Ptr("Outbound")})
	require.NoError(t, err)
	require.Equal(t, "Outbound", updated.Description)
	require.True(t, updated.IsActive)
}

func TestCreateRequiresName(t *testing.T) {
	_, svc := newService(t)

	_, err := svc.Create(context.Background(), projects.Input{})
	require.ErrorIs(t, err, errors.ErrClientError)
	apiErr, ok := apiclient.AsError(err)
	require.True(t, ok)
	require.Equal(t, []string{"This field is required."}, apiErr.FieldErrors()["name"])
}

func TestToggleStatus(t *testing.T) {
	srv, svc := newService(t)
	ctx := context.Background()
	id := srv.Seed("projects", map[string]any{"name": "Billing", "is_active": true})

	off, err := svc.ToggleStatus(ctx, id, false)
	require.NoError(t, err)
	require.False(t, off.IsActive)
	require.Equal(t, "Billing", off.Name)

	patches := srv.RequestsTo(http.MethodPatch, svc.DetailPath(id))
	require.Len(t, patches, 1)
	var body map[string]any
	require.NoError(t, json.Unmarshal(patches[0].Body, &body))
	require.Equal(t, map[string]any{"is_active": false}, body)

	on, err := svc.ToggleStatus(ctx, id, true)
	require.NoError(t, err)
	require.True(t, on.IsActive)
}

func TestDeleteMissing(t *testing.T) {
	_, svc := newService(t)

	err := svc.Delete(context.Background(), 42)
	apiErr, ok := apiclient.AsError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	require.Equal(t, "Not found.", apiErr.UserMessage())
}
