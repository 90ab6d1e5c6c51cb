package auth

import (
	"fmt"
	"net/http"

	"github.com/jrsteele09/aams-client/apiclient"
	"github.com/jrsteele09/aams-client/internal/errors"
)

// LoginErrorMessage turns a Login error into the text shown on the login form
func LoginErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, errors.ErrMissingCredentials) {
		return "Please enter a username and password."
	}
	apiErr, ok := apiclient.AsError(err)
	if !ok {
		return fmt.Sprintf("Unexpected login error: %v", err)
	}

	switch {
	case apiErr.StatusCode == 0:
		return "Cannot connect to the server. Please check your connection."
	case apiErr.StatusCode == http.StatusUnauthorized:
		return "Invalid username or password."
	case apiErr.StatusCode == http.StatusBadRequest:
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
		fields := apiErr.FieldErrors()
		for _, field := range []string{"non_field_errors", "username", "password"} {
			if msgs := fields[field]; len(msgs) > 0 {
				return msgs[0]
			}
		}
		return "The submitted data is invalid."
	case apiErr.StatusCode >= 500:
		return "A system error occurred. Please try again."
	default:
		return fmt.Sprintf("Login failed (%d)", apiErr.StatusCode)
	}
}
