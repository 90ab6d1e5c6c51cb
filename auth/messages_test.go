package auth_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/jrsteele09/aams-client/apiclient"
	"github.com/jrsteele09/aams-client/auth"
	"github.com/jrsteele09/aams-client/internal/errors"
	"github.com/jrsteele09/aams-client/session"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestLoginErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"missing credentials", errors.ErrMissingCredentials, "Please enter a username and password."},
		{"network", &apiclient.Error{Kind: apiclient.KindNetwork}, "Cannot connect to the server. Please check your connection."},
		{"unauthorized", &apiclient.Error{Kind: apiclient.KindClient, StatusCode: http.StatusUnauthorized}, "Invalid username or password."},
		{"bad request detail", &apiclient.Error{Kind: apiclient.KindClient, StatusCode: http.StatusBadRequest, Detail: "Account disabled"}, "Account disabled"},
		{
			"bad request field",
			&apiclient.Error{Kind: apiclient.KindClient, StatusCode: http.StatusBadRequest, Body: []byte(`{"password":["This field may not be blank."]}`)},
			"This field may not be blank.",
		},
		{
			"bad request non field",
			&apiclient.Error{Kind: apiclient.KindClient, StatusCode: http.StatusBadRequest, Body: []byte(`{"non_field_errors":["Unable to log in."],"username":["x"]}`)},
			"Unable to log in.",
		},
		{"bad request empty", &apiclient.Error{Kind: apiclient.KindClient, StatusCode: http.StatusBadRequest}, "The submitted data is invalid."},
		{"server", &apiclient.Error{Kind: apiclient.KindServer, StatusCode: http.StatusBadGateway}, "A system error occurred. Please try again."},
		{"other status", &apiclient.Error{Kind: apiclient.KindClient, StatusCode: http.StatusTooManyRequests}, "Login failed (429)"},
		{"unexpected", errors.New("boom"), "Unexpected login error: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, auth.LoginErrorMessage(tt.err))
		})
	}
}

func TestLoginErrorMessageUnreachable(t *testing.T) {
	sessions := session.NewManager(session.NewInMemoryRepo())
	client, err := apiclient.New("http://127.0.0.1:1", sessions, apiclient.WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	_, err = auth.NewService(client).WithLogger(zerolog.Nop()).Login(context.Background(), "alice", "Secret123")
	require.ErrorIs(t, err, errors.ErrNetwork)
	require.Equal(t, "Cannot connect to the server. Please check your connection.", auth.LoginErrorMessage(err))
}
