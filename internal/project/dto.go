package project

import (
	"strings"
	"time"

	"github.com/frahmantamala/worktally/internal/core/common/validation"
)

type CreateProjectDTO struct {
	Name        string `json:"name" validate:"max=100"`
	Description string `json:"description" validate:"max=5000"`
	Client      string `json:"client" validate:"max=100"`
	IsActive    *bool  `json:"is_active"`
}

func (d CreateProjectDTO) Validate() error {
	v := validation.NewValidator().Struct(d)
	v.Field("name", d.Name).Required()
	return v.Validate()
}

type UpdateProjectDTO struct {
	Name        *string `json:"name" validate:"omitempty,max=100"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Client      *string `json:"client" validate:"omitempty,max=100"`
	IsActive    *bool   `json:"is_active"`
}

func (d UpdateProjectDTO) Validate() error {
	v := validation.NewValidator().Struct(d)
	if d.Name != nil {
		v.Field("name", *d.Name).Required()
	}
	return v.Validate()
}

func (d UpdateProjectDTO) ApplyTo(p *Project) {
	if d.Name != nil {
		p.Name = strings.TrimSpace(*d.Name)
	}
	if d.Description != nil {
		p.Description = *d.Description
	}
	if d.Client != nil {
		p.Client = *d.Client
	}
	if d.IsActive != nil {
		p.IsActive = *d.IsActive
	}
}

type ProjectResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Client      string    `json:"client"`
	IsActive    bool      `json:"is_active"`
	TotalTime   string    `json:"total_time"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
