package invitation

import (
	"time"

	"github.com/frahmantamala/worktally/internal/core/common/validation"
	"github.com/frahmantamala/worktally/internal/organization"
	"github.com/frahmantamala/worktally/internal/user"
)

type InviteDTO struct {
	Email      string `json:"email" validate:"required,email"`
	FirstName  string `json:"first_name" validate:"required,max=150"`
	LastName   string `json:"last_name" validate:"required,max=150"`
	Role       string `json:"role"`
	JobTitle   string `json:"job_title" validate:"max=100"`
	Department string `json:"department" validate:"max=100"`
}

func (d InviteDTO) Validate() error {
	return validation.Struct(d)
}

type AcceptDTO struct {
	Token     string `json:"token"`
	Username  string `json:"username" validate:"max=150"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

func (d AcceptDTO) Validate() error {
	v := validation.NewValidator().Struct(d)
	v.Field("token", d.Token).Required()
	v.Field("username", d.Username).Required()
	user.CheckPasswords(v, "password", d.Password, "password2", d.Password2)
	return v.Validate()
}

// InvitedUserResponse exposes the token so the inviter can share the link by hand.
type InvitedUserResponse struct {
	user.UserResponse
	InvitationToken string `json:"invitation_token"`
}

type InviteResponse struct {
	Message        string              `json:"message"`
	User           InvitedUserResponse `json:"user"`
	ActivationLink string              `json:"activation_link"`
	EmailSent      bool                `json:"email_sent"`
	Warning        string              `json:"warning,omitempty"`
}

type AcceptResponse struct {
	Message      string                            `json:"message"`
	User         user.UserResponse                 `json:"user"`
	Organization organization.OrganizationResponse `json:"organization"`
	Token        string                            `json:"token"`
}

type PreviewResponse struct {
	Email            string     `json:"email"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	Role             string     `json:"role"`
	OrganizationName string     `json:"organization_name"`
	InvitedBy        string     `json:"invited_by"`
	InvitedAt        *time.Time `json:"invited_at"`
}
