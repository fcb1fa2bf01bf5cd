package postgres

import (
	"context"
	"errors"
	"time"

	projectDatamodel "github.com/frahmantamala/worktally/internal/core/datamodel/project"
	timeentryDatamodel "github.com/frahmantamala/worktally/internal/core/datamodel/timeentry"
	"github.com/frahmantamala/worktally/internal/project"
	"gorm.io/gorm"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) project.RepositoryAPI {
	return &ProjectRepository{db: db}
}

func scoped(q *gorm.DB, organizationID *string) *gorm.DB {
	if organizationID == nil {
		return q.Where("organization_id IS NULL")
	}
	return q.Where("organization_id = ?", *organizationID)
}

func (r *ProjectRepository) List(ctx context.Context, organizationID *string, activeOnly bool) ([]*projectDatamodel.Project, error) {
	var projects []*projectDatamodel.Project
	q := scoped(r.db.WithContext(ctx), organizationID)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Order("name ASC").Order("id ASC").Find(&projects).Error
	return projects, err
}

func (r *ProjectRepository) GetByID(ctx context.Context, id int64, organizationID *string) (*projectDatamodel.Project, error) {
	var p projectDatamodel.Project
	err := scoped(r.db.WithContext(ctx), organizationID).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepository) Create(ctx context.Context, p *projectDatamodel.Project) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *ProjectRepository) Update(ctx context.Context, p *projectDatamodel.Project) error {
	p.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&projectDatamodel.Project{ID: p.ID}).
		Select("name", "description", "client", "is_active", "updated_at").
		Updates(p).Error
}

func (r *ProjectRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&timeentryDatamodel.TimeEntry{}).Where("project_id = ?", id).Update("project_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&projectDatamodel.Project{}, id).Error
	})
}

// TotalDurations sums in Go so the query stays portable between postgres and sqlite.
func (r *ProjectRepository) TotalDurations(ctx context.Context, projectIDs []int64) (map[int64]time.Duration, error) {
	var entries []*timeentryDatamodel.TimeEntry
	err := r.db.WithContext(ctx).
		Select("project_id", "clock_in", "clock_out").
		Where("project_id IN ? AND clock_out IS NOT NULL", projectIDs).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	totals := make(map[int64]time.Duration, len(projectIDs))
	for _, e := range entries {
		if e.ProjectID == nil || e.ClockOut == nil {
			continue
		}
		totals[*e.ProjectID] += e.ClockOut.Sub(e.ClockIn)
	}
	return totals, nil
}
