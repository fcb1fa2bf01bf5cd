package project

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/worktally/internal"
	projectDatamodel "github.com/frahmantamala/worktally/internal/core/datamodel/project"
)

var ErrProjectNotFound = internal.NewNotFoundError("Project not found", internal.ErrCodeProjectNotFound)

type RepositoryAPI interface {
	List(ctx context.Context, organizationID *string, activeOnly bool) ([]*projectDatamodel.Project, error)
	GetByID(ctx context.Context, id int64, organizationID *string) (*projectDatamodel.Project, error)
	Create(ctx context.Context, p *projectDatamodel.Project) error
	Update(ctx context.Context, p *projectDatamodel.Project) error
	// Delete detaches linked time entries before removing the project.
	Delete(ctx context.Context, id int64) error
	TotalDurations(ctx context.Context, projectIDs []int64) (map[int64]time.Duration, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// tenant is nil for unaffiliated callers, who only see unaffiliated projects.
func tenant(caller *internal.User) *string {
	if caller.HasOrganization() {
		return caller.OrganizationID
	}
	return nil
}

func (s *Service) List(ctx context.Context, caller *internal.User, activeOnly bool) ([]ProjectResponse, error) {
	rows, err := s.repo.List(ctx, tenant(caller), activeOnly)
	if err != nil {
		s.logger.Error("failed to list projects", "error", err, "user_id", caller.ID)
		return nil, fmt.Errorf("list projects: %w", err)
	}

	projects := make([]*Project, 0, len(rows))
	for _, row := range rows {
		projects = append(projects, FromDataModel(row))
	}
	if err := s.withTotals(ctx, projects...); err != nil {
		return nil, err
	}

	out := make([]ProjectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, p.ToResponse())
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, caller *internal.User, id int64) (*ProjectResponse, error) {
	p, err := s.find(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := s.withTotals(ctx, p); err != nil {
		return nil, err
	}
	resp := p.ToResponse()
	return &resp, nil
}

func (s *Service) Create(ctx context.Context, caller *internal.User, dto CreateProjectDTO) (*ProjectResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	p := &Project{
		OrganizationID: tenant(caller),
		Name:           strings.TrimSpace(dto.Name),
		Description:    dto.Description,
		Client:         dto.Client,
		IsActive:       true,
	}
	if dto.IsActive != nil {
		p.IsActive = *dto.IsActive
	}

	row := ToDataModel(p)
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create project", "error", err, "user_id", caller.ID)
		return nil, fmt.Errorf("create project: %w", err)
	}

	s.logger.Info("project created", "project_id", row.ID, "user_id", caller.ID)
	resp := FromDataModel(row).ToResponse()
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, caller *internal.User, id int64, dto UpdateProjectDTO) (*ProjectResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	p, err := s.find(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	dto.ApplyTo(p)
	row := ToDataModel(p)
	if err := s.repo.Update(ctx, row); err != nil {
		s.logger.Error("failed to update project", "error", err, "project_id", id)
		return nil, fmt.Errorf("update project: %w", err)
	}
	return s.Get(ctx, caller, id)
}

func (s *Service) Delete(ctx context.Context, caller *internal.User, id int64) error {
	if _, err := s.find(ctx, caller, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete project", "error", err, "project_id", id)
		return fmt.Errorf("delete project: %w", err)
	}
	s.logger.Info("project deleted", "project_id", id, "user_id", caller.ID)
	return nil
}

func (s *Service) find(ctx context.Context, caller *internal.User, id int64) (*Project, error) {
	row, err := s.repo.GetByID(ctx, id, tenant(caller))
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	if row == nil {
		return nil, ErrProjectNotFound
	}
	return FromDataModel(row), nil
}

// withTotals fills TotalTime from closed entries; nothing is cached.
func (s *Service) withTotals(ctx context.Context, projects ...*Project) error {
	if len(projects) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	totals, err := s.repo.TotalDurations(ctx, ids)
	if err != nil {
		return fmt.Errorf("sum project time: %w", err)
	}
	for _, p := range projects {
		p.TotalTime = totals[p.ID]
	}
	return nil
}
