package user

import (
	"strings"
	"time"

	"github.com/frahmantamala/worktally/internal"
	"github.com/frahmantamala/worktally/internal/core/common/validation"
)

const (
	DateLayout        = "2006-01-02"
	MinPasswordLength = 8
)

// CheckPasswords records the shared password rules on v.
func CheckPasswords(v *validation.ValidationBuilder, field, password, confirmField, confirm string) {
	v.Field(field, password).Required().MinLength(MinPasswordLength)
	v.Field(confirmField, confirm).Required()
	if password != "" && confirm != "" && password != confirm {
		v.AddError(field, "Password fields didn't match.", internal.ErrCodePasswordMismatch)
	}
}

type RegisterDTO struct {
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"required,max=150"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
}

func (d RegisterDTO) Validate() error {
	v := validation.NewValidator().Struct(d)
	CheckPasswords(v, "password", d.Password, "password2", d.Password2)
	return v.Validate()
}

type UpdateMeDTO struct {
	FirstName   *string `json:"first_name" validate:"omitempty,max=150"`
	LastName    *string `json:"last_name" validate:"omitempty,max=150"`
	JobTitle    *string `json:"job_title" validate:"omitempty,max=100"`
	Department  *string `json:"department" validate:"omitempty,max=100"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=20"`
}

func (d UpdateMeDTO) Validate() error {
	return validation.Struct(d)
}

// Changes lists the columns to update; nil fields are left untouched.
func (d UpdateMeDTO) Changes() map[string]interface{} {
	changes := map[string]interface{}{}
	set := func(col string, v *string) {
		if v != nil {
			changes[col] = strings.TrimSpace(*v)
		}
	}
	set("first_name", d.FirstName)
	set("last_name", d.LastName)
	set("job_title", d.JobTitle)
	set("department", d.Department)
	set("phone_number", d.PhoneNumber)
	return changes
}

type ChangePasswordDTO struct {
	OldPassword        string `json:"old_password" validate:"required"`
	NewPassword        string `json:"new_password"`
	NewPasswordConfirm string `json:"new_password_confirm"`
}

func (d ChangePasswordDTO) Validate() error {
	v := validation.NewValidator().Struct(d)
	CheckPasswords(v, "new_password", d.NewPassword, "new_password_confirm", d.NewPasswordConfirm)
	return v.Validate()
}

type UpdateProfileDTO struct {
	UpdateMeDTO
	Bio         *string `json:"bio" validate:"omitempty,max=2000"`
	Picture     *string `json:"picture" validate:"omitempty,url"`
	DateOfBirth *string `json:"date_of_birth"`
	HireDate    *string `json:"hire_date"`
}

func (d UpdateProfileDTO) Validate() error {
	v := validation.NewValidator().Struct(d)
	for field, raw := range map[string]*string{"date_of_birth": d.DateOfBirth, "hire_date": d.HireDate} {
		if raw == nil || *raw == "" {
			continue
		}
		_, err := time.Parse(DateLayout, *raw)
		v.Check(field, err == nil, "Date has wrong format. Use YYYY-MM-DD.", internal.ErrCodeInvalidDate)
	}
	return v.Validate()
}

// ApplyTo copies the profile fields of d onto p.
func (d UpdateProfileDTO) ApplyTo(p *Profile) {
	if d.Bio != nil {
		p.Bio = *d.Bio
	}
	if d.Picture != nil {
		p.Picture = *d.Picture
	}
	if d.DateOfBirth != nil {
		p.DateOfBirth = parseOptionalDate(*d.DateOfBirth)
	}
	if d.HireDate != nil {
		p.HireDate = parseOptionalDate(*d.HireDate)
	}
}

func parseOptionalDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return nil
	}
	return &t
}

type OrganizationSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type ProfileResponse struct {
	Bio         string `json:"bio"`
	Picture     string `json:"picture"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
	HireDate    string `json:"hire_date,omitempty"`
}

type UserResponse struct {
	ID             int64                `json:"id"`
	Email          string               `json:"email"`
	Username       string               `json:"username"`
	FirstName      string               `json:"first_name"`
	LastName       string               `json:"last_name"`
	FullName       string               `json:"full_name"`
	JobTitle       string               `json:"job_title"`
	Department     string               `json:"department"`
	PhoneNumber    string               `json:"phone_number"`
	OrganizationID *string              `json:"organization_id"`
	Organization   *OrganizationSummary `json:"organization,omitempty"`
	Role           string               `json:"role"`
	IsActive       bool                 `json:"is_active"`
	IsInvited      bool                 `json:"is_invited"`
	DateJoined     time.Time            `json:"date_joined"`
	LastLogin      *time.Time           `json:"last_login"`
	Profile        *ProfileResponse     `json:"profile,omitempty"`
}

type AuthResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

type ChangePasswordResponse struct {
	Detail string `json:"detail"`
	Token  string `json:"token"`
}
