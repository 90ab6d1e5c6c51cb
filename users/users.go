package users

import (
	"context"
	"fmt"
	"net/http"
	"time"
	"unicode"

	"github.com/jrsteele09/aams-client/apiclient"
	"github.com/jrsteele09/aams-client/internal/errors"
	"github.com/jrsteele09/aams-client/resource"
)

const Path = "/api/users/"

// RoleSummary is an active role assignment embedded in a user
type RoleSummary struct {
	ID         int64      `json:"id"`
	RoleName   string     `json:"role_name"`
	RoleColor  string     `json:"role_color"`
	AssignedAt time.Time  `json:"assigned_at"`
	ExpiresAt  *time.Time `json:"expires_at"`
	IsExpired  bool       `json:"is_expired"`
}

type User struct {
	ID          int64         `json:"id"`
	Username    string        `json:"username"`
	Email       string        `json:"email"`
	FirstName   string        `json:"first_name"`
	LastName    string        `json:"last_name"`
	EmployeeID  *string       `json:"employee_id"`
	Position    *string       `json:"position"`
	Department  *string       `json:"department"`
	Phone       *string       `json:"phone"`
	Address     *string       `json:"address"`
	DateOfBirth *string       `json:"date_of_birth"` // YYYY-MM-DD
	HireDate    *string       `json:"hire_date"`     // YYYY-MM-DD
	IsActive    bool          `json:"is_active"`
	IsStaff     bool          `json:"is_staff"`
	IsSuperuser bool          `json:"is_superuser"`
	DateJoined  time.Time     `json:"date_joined"`
	Groups      []string      `json:"groups"`
	UserRoles   []RoleSummary `json:"user_roles"`
}

// FullName returns "First Last", falling back to the username
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Username
	}
}

// HasRole reports whether the user holds an unexpired role with name
func (u *User) HasRole(name string) bool {
	for _, r := range u.UserRoles {
		if r.RoleName == name && !r.IsExpired {
			return true
		}
	}
	return false
}

// Input is the body for creating or replacing a user. An empty Password is
// left out so the stored password is kept.
type Input struct {
	Username    string  `json:"username"`
	Email       string  `json:"email"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Password    string  `json:"password,omitempty"`
	EmployeeID  *string `json:"employee_id,omitempty"`
	Position    *string `json:"position,omitempty"`
	Department  *string `json:"department,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Address     *string `json:"address,omitempty"`
	DateOfBirth *string `json:"date_of_birth,omitempty"`
	HireDate    *string `json:"hire_date,omitempty"`
	IsActive    bool    `json:"is_active"`
	IsStaff     bool    `json:"is_staff"`
	IsSuperuser bool    `json:"is_superuser"`
}

// Patch is a partial update, nil fields are not sent
type Patch struct {
	Username    *string `json:"username,omitempty"`
	Email       *string `json:"email,omitempty"`
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	Password    *string `json:"password,omitempty"`
	EmployeeID  *string `json:"employee_id,omitempty"`
	Position    *string `json:"position,omitempty"`
	Department  *string `json:"department,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Address     *string `json:"address,omitempty"`
	DateOfBirth *string `json:"date_of_birth,omitempty"`
	HireDate    *string `json:"hire_date,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
	IsStaff     *bool   `json:"is_staff,omitempty"`
	IsSuperuser *bool   `json:"is_superuser,omitempty"`
}

// Assignment is the user-role link returned by AssignRole
type Assignment struct {
	ID                 int64      `json:"id"`
	User               int64      `json:"user"`
	UserUsername       string     `json:"user_username"`
	Role               int64      `json:"role"`
	RoleName           string     `json:"role_name"`
	RoleColor          string     `json:"role_color"`
	AssignedBy         *int64     `json:"assigned_by"`
	AssignedByUsername string     `json:"assigned_by_username"`
	AssignedAt         time.Time  `json:"assigned_at"`
	ExpiresAt          *time.Time `json:"expires_at"`
	IsActive           bool       `json:"is_active"`
	IsExpired          bool       `json:"is_expired"`
}

type roleRequest struct {
	RoleID int64 `json:"role_id"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Service manages /api/users/
type Service struct {
	*resource.Service[User]
}

func NewService(client *apiclient.Client) *Service {
	return &Service{Service: resource.New[User](client, Path)}
}

// Me returns the authenticated user
func (s *Service) Me(ctx context.Context) (*User, error) {
	var u User
	if err := s.Action(ctx, http.MethodGet, 0, "me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create adds a user. The password is checked locally before anything is sent.
func (s *Service) Create(ctx context.Context, in Input) (*User, error) {
	if err := ValidatePasswordStrength(in.Password); err != nil {
		return nil, errors.Wrapf(err, "[users Create] %s", in.Username)
	}
	return s.Service.Create(ctx, in)
}

func (s *Service) Update(ctx context.Context, id int64, patch Patch) (*User, error) {
	return s.Service.Update(ctx, id, patch)
}

func (s *Service) Replace(ctx context.Context, id int64, in Input) (*User, error) {
	return s.Service.Replace(ctx, id, in)
}

// AssignRole grants roleID to userID, reactivating an earlier assignment
func (s *Service) AssignRole(ctx context.Context, userID, roleID int64) (*Assignment, error) {
	var out Assignment
	if err := s.Action(ctx, http.MethodPost, userID, "assign_role", roleRequest{RoleID: roleID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveRole deactivates the user's assignment of roleID and returns the server message
func (s *Service) RemoveRole(ctx context.Context, userID, roleID int64) (string, error) {
	var out messageResponse
	if err := s.Action(ctx, http.MethodPost, userID, "remove_role", roleRequest{RoleID: roleID}, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: must be at least 8 characters long", errors.ErrWeakPassword)
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("%w: must contain at least one uppercase letter", errors.ErrWeakPassword)
	}
	if !hasLower {
		return fmt.Errorf("%w: must contain at least one lowercase letter", errors.ErrWeakPassword)
	}
	if !hasNumber {
		return fmt.Errorf("%w: must contain at least one number", errors.ErrWeakPassword)
	}

	return nil
}
