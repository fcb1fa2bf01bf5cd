package user

import (
	"strings"
	"time"

	userDatamodel "github.com/frahmantamala/worktally/internal/core/datamodel/user"
	coreuser "github.com/frahmantamala/worktally/internal/core/user"
)

type User struct {
	ID              int64         `json:"id"`
	Email           string        `json:"email"`
	Username        string        `json:"username"`
	PasswordHash    string        `json:"-"`
	FirstName       string        `json:"first_name"`
	LastName        string        `json:"last_name"`
	JobTitle        string        `json:"job_title"`
	Department      string        `json:"department"`
	PhoneNumber     string        `json:"phone_number"`
	OrganizationID  *string       `json:"organization_id"`
	Role            coreuser.Role `json:"role"`
	IsActive        bool          `json:"is_active"`
	IsInvited       bool          `json:"is_invited"`
	InvitationToken *string       `json:"-"`
	InvitedByID     *int64        `json:"invited_by_id"`
	InvitedAt       *time.Time    `json:"invited_at"`
	DateJoined      time.Time     `json:"date_joined"`
	LastLogin       *time.Time    `json:"last_login"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

type Profile struct {
	UserID      int64      `json:"user_id"`
	Bio         string     `json:"bio"`
	Picture     string     `json:"picture"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	HireDate    *time.Time `json:"hire_date"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// DisplayName falls back to the email when no name is set.
func (u *User) DisplayName() string {
	if name := u.FullName(); name != "" {
		return name
	}
	return u.Email
}

func (u *User) IsPending() bool {
	return u.IsInvited && !u.IsActive && u.InvitationToken != nil
}

func (u *User) ToResponse() UserResponse {
	resp := UserResponse{
		ID:             u.ID,
		Email:          u.Email,
		Username:       u.Username,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		FullName:       u.FullName(),
		JobTitle:       u.JobTitle,
		Department:     u.Department,
		PhoneNumber:    u.PhoneNumber,
		OrganizationID: u.OrganizationID,
		Role:           u.Role.String(),
		IsActive:       u.IsActive,
		IsInvited:      u.IsInvited,
		DateJoined:     u.DateJoined,
		LastLogin:      u.LastLogin,
	}
	return resp
}

// NewActive builds a fully active member.
func NewActive(email, username, firstName, lastName string, role coreuser.Role, orgID *string, now time.Time) *User {
	return &User{
		Email:          NormalizeEmail(email),
		Username:       strings.TrimSpace(username),
		FirstName:      strings.TrimSpace(firstName),
		LastName:       strings.TrimSpace(lastName),
		OrganizationID: orgID,
		Role:           role,
		IsActive:       true,
		DateJoined:     now,
	}
}

// NormalizeEmail lowercases the domain part, keeping the local part as typed.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}

func ToDataModel(u *User) *userDatamodel.User {
	d := &userDatamodel.User{
		ID:              u.ID,
		Email:           u.Email,
		PasswordHash:    u.PasswordHash,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		JobTitle:        u.JobTitle,
		Department:      u.Department,
		PhoneNumber:     u.PhoneNumber,
		OrganizationID:  u.OrganizationID,
		Role:            u.Role.String(),
		IsActive:        u.IsActive,
		IsInvited:       u.IsInvited,
		InvitationToken: u.InvitationToken,
		InvitedByID:     u.InvitedByID,
		InvitedAt:       u.InvitedAt,
		DateJoined:      u.DateJoined,
		LastLogin:       u.LastLogin,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
	if u.Username != "" {
		username := u.Username
		d.Username = &username
	}
	return d
}

func FromDataModel(d *userDatamodel.User) *User {
	u := &User{
		ID:              d.ID,
		Email:           d.Email,
		PasswordHash:    d.PasswordHash,
		FirstName:       d.FirstName,
		LastName:        d.LastName,
		JobTitle:        d.JobTitle,
		Department:      d.Department,
		PhoneNumber:     d.PhoneNumber,
		OrganizationID:  d.OrganizationID,
		Role:            coreuser.Role(d.Role),
		IsActive:        d.IsActive,
		IsInvited:       d.IsInvited,
		InvitationToken: d.InvitationToken,
		InvitedByID:     d.InvitedByID,
		InvitedAt:       d.InvitedAt,
		DateJoined:      d.DateJoined,
		LastLogin:       d.LastLogin,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
	if d.Username != nil {
		u.Username = *d.Username
	}
	return u
}

func ProfileToDataModel(p *Profile) *userDatamodel.UserProfile {
	return &userDatamodel.UserProfile{
		UserID:      p.UserID,
		Bio:         p.Bio,
		Picture:     p.Picture,
		DateOfBirth: p.DateOfBirth,
		HireDate:    p.HireDate,
	}
}

func ProfileFromDataModel(d *userDatamodel.UserProfile) *Profile {
	if d == nil {
		return nil
	}
	return &Profile{
		UserID:      d.UserID,
		Bio:         d.Bio,
		Picture:     d.Picture,
		DateOfBirth: d.DateOfBirth,
		HireDate:    d.HireDate,
	}
}

func (p *Profile) ToResponse() *ProfileResponse {
	if p == nil {
		return nil
	}
	resp := &ProfileResponse{Bio: p.Bio, Picture: p.Picture}
	if p.DateOfBirth != nil {
		resp.DateOfBirth = p.DateOfBirth.Format(DateLayout)
	}
	if p.HireDate != nil {
		resp.HireDate = p.HireDate.Format(DateLayout)
	}
	return resp
}
