package user

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleOwner    Role = "owner"
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// Roles lists every role from most to least senior.
var Roles = []Role{RoleOwner, RoleAdmin, RoleManager, RoleEmployee}

// ParseRole accepts only the canonical role names.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Roles {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// IsPrivileged reports whether the role may invite members and review time off.
func (r Role) IsPrivileged() bool {
	return r == RoleOwner || r == RoleAdmin
}

// Rank orders roles for rosters; lower is more senior.
func (r Role) Rank() int {
	for i, known := range Roles {
		if r == known {
			return i
		}
	}
	return len(Roles)
}

// CanGrant reports whether r may hand out target through an invitation.
// Ownership is never granted by invitation.
func (r Role) CanGrant(target Role) bool {
	if !r.IsPrivileged() || !target.IsValid() || target == RoleOwner {
		return false
	}
	return r.Rank() <= target.Rank()
}

func PrivilegedRoles() []Role {
	return []Role{RoleOwner, RoleAdmin}
}
