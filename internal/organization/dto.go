package organization

import (
	"time"

	"github.com/frahmantamala/worktally/internal"
	"github.com/frahmantamala/worktally/internal/core/common/validation"
	"github.com/frahmantamala/worktally/internal/user"
)

type RegisterOrganizationDTO struct {
	OrganizationName        string `json:"organization_name" validate:"required,max=200"`
	OrganizationDescription string `json:"organization_description"`
	OrganizationEmail       string `json:"organization_email" validate:"omitempty,email"`
	OrganizationPhone       string `json:"organization_phone" validate:"omitempty,max=20"`
	OrganizationWebsite     string `json:"organization_website" validate:"omitempty,url"`
	OrganizationAddress     string `json:"organization_address"`

	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"required,max=150"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
}

func (d RegisterOrganizationDTO) Validate() error {
	v := validation.NewValidator().Struct(d)
	user.CheckPasswords(v, "password", d.Password, "password2", d.Password2)
	if d.OrganizationName != "" {
		v.Check("organization_name", Slugify(d.OrganizationName) != "",
			"Organization name must contain letters or digits.", internal.ErrCodeValidationFailed)
	}
	return v.Validate()
}

type OrganizationResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	MaxUsers    int       `json:"max_users"`
	UserCount   int64     `json:"user_count"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Website     string    `json:"website"`
	Address     string    `json:"address"`
	CreatedAt   time.Time `json:"created_at"`
}

type RegisterResponse struct {
	Message      string               `json:"message"`
	User         user.UserResponse    `json:"user"`
	Organization OrganizationResponse `json:"organization"`
	Token        string               `json:"token"`
}

type PendingInvitationResponse struct {
	ID         int64      `json:"id"`
	Email      string     `json:"email"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	Role       string     `json:"role"`
	JobTitle   string     `json:"job_title"`
	Department string     `json:"department"`
	InvitedAt  *time.Time `json:"invited_at"`
	InvitedBy  string     `json:"invited_by"`
}

type TeamResponse struct {
	Organization       OrganizationResponse        `json:"organization"`
	ActiveMembers      []user.UserResponse         `json:"active_members"`
	PendingInvitations []PendingInvitationResponse `json:"pending_invitations"`
}
