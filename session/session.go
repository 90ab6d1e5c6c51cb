package session

import (
	"strings"
	"time"
)

// Storage keys, shared with the browser console's localStorage layout
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUser         = "user"
)

// UserSummary is the user object returned by /api/auth/login/ and cached with the session
type UserSummary struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email,omitempty"`
	FirstName   string    `json:"first_name,omitempty"`
	LastName    string    `json:"last_name,omitempty"`
	EmployeeID  *string   `json:"employee_id"`
	Position    *string   `json:"position"`
	Department  *string   `json:"department"`
	IsStaff     bool      `json:"is_staff"`
	IsSuperuser bool      `json:"is_superuser"`
	DateJoined  time.Time `json:"date_joined,omitempty"`
}

// DisplayName returns "First Last", falling back to the username
func (u *UserSummary) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// IsAdmin reports whether the user may use the administration screens
func (u *UserSummary) IsAdmin() bool {
	return u.IsStaff || u.IsSuperuser
}

type Session struct {
	AccessToken  string
	RefreshToken string
	User         *UserSummary
}

// Repo is a string key/value store. Get returns errors.ErrKeyNotFound for a missing key.
type Repo interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
}
