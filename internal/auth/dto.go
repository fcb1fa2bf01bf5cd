package auth

import (
	"github.com/frahmantamala/worktally/internal/core/common/validation"
)

// LoginDTO accepts either an email address or a username in Email.
type LoginDTO struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (d LoginDTO) Validate() error {
	return validation.Struct(d)
}

type UserSummary struct {
	ID             int64   `json:"id"`
	Email          string  `json:"email"`
	Username       string  `json:"username"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	Role           string  `json:"role"`
	OrganizationID *string `json:"organization_id"`
}

type LoginResponse struct {
	Token string      `json:"token"`
	User  UserSummary `json:"user"`
}

type LogoutResponse struct {
	Detail string `json:"detail"`
}
