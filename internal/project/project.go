package project

import (
	"time"

	projectDatamodel "github.com/frahmantamala/worktally/internal/core/datamodel/project"
	"github.com/frahmantamala/worktally/internal/timeentry"
)

type Project struct {
	ID             int64
	OrganizationID *string
	Name           string
	Description    string
	Client         string
	IsActive       bool
	TotalTime      time.Duration
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (p *Project) ToResponse() ProjectResponse {
	return ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Client:      p.Client,
		IsActive:    p.IsActive,
		TotalTime:   timeentry.FormatDuration(p.TotalTime),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func ToDataModel(p *Project) *projectDatamodel.Project {
	return &projectDatamodel.Project{
		ID:             p.ID,
		OrganizationID: p.OrganizationID,
		Name:           p.Name,
		Description:    p.Description,
		Client:         p.Client,
		IsActive:       p.IsActive,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func FromDataModel(d *projectDatamodel.Project) *Project {
	return &Project{
		ID:             d.ID,
		OrganizationID: d.OrganizationID,
		Name:           d.Name,
		Description:    d.Description,
		Client:         d.Client,
		IsActive:       d.IsActive,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}
