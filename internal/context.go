package internal

import (
	"context"
	"time"

	coreuser "github.com/frahmantamala/worktally/internal/core/user"
)

type ctxKey string

const ContextUserKey ctxKey = "user"

// User is the authenticated caller as seen by handlers and services.
type User struct {
	ID             int64
	Email          string
	Username       string
	FirstName      string
	LastName       string
	Role           coreuser.Role
	OrganizationID *string
	SessionID      string
}

func (u *User) IsPrivileged() bool {
	return u != nil && u.Role.IsPrivileged()
}

func (u *User) HasOrganization() bool {
	return u != nil && u.OrganizationID != nil && *u.OrganizationID != ""
}

// SameOrganization reports whether orgID is the caller's organization.
func (u *User) SameOrganization(orgID *string) bool {
	if !u.HasOrganization() || orgID == nil {
		return false
	}
	return *u.OrganizationID == *orgID
}

func (u *User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Email
	}
	return name
}

func UserFromContext(ctx context.Context) (*User, bool) {
	if ctx == nil {
		return nil, false
	}
	u, ok := ctx.Value(ContextUserKey).(*User)
	return u, ok && u != nil
}

func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ContextUserKey, u)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}

// Scope limits which rows a caller may see: a whole organization for
// privileged members, otherwise only the caller's own rows.
type Scope struct {
	UserID         int64
	OrganizationID string
}

func (s Scope) IsOrganization() bool {
	return s.OrganizationID != ""
}

func ScopeFor(u *User) Scope {
	if u.IsPrivileged() && u.HasOrganization() {
		return Scope{UserID: u.ID, OrganizationID: *u.OrganizationID}
	}
	return Scope{UserID: u.ID}
}
