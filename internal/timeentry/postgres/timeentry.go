package postgres

import (
	"context"
	"time"

	"github.com/frahmantamala/worktally/internal"
	"github.com/frahmantamala/worktally/internal/core/datamodel"
	projectDatamodel "github.com/frahmantamala/worktally/internal/core/datamodel/project"
	timeentryDatamodel "github.com/frahmantamala/worktally/internal/core/datamodel/timeentry"
	"github.com/frahmantamala/worktally/internal/timeentry"
	"gorm.io/gorm"
)

const detailColumns = "time_entries.*, users.first_name AS user_first_name, users.last_name AS user_last_name, users.email AS user_email, projects.name AS project_name"

type TimeEntryRepository struct {
	db *gorm.DB
}

func NewTimeEntryRepository(db *gorm.DB) timeentry.RepositoryAPI {
	return &TimeEntryRepository{db: db}
}

func (r *TimeEntryRepository) details(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&timeentryDatamodel.TimeEntry{}).
		Select(detailColumns).
		Joins("JOIN users ON users.id = time_entries.user_id").
		Joins("LEFT JOIN projects ON projects.id = time_entries.project_id")
}

func (r *TimeEntryRepository) first(q *gorm.DB) (*timeentryDatamodel.TimeEntryDetail, error) {
	var rows []*timeentryDatamodel.TimeEntryDetail
	if err := q.Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *TimeEntryRepository) Create(ctx context.Context, e *timeentryDatamodel.TimeEntry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *TimeEntryRepository) GetOpen(ctx context.Context, userID int64) (*timeentryDatamodel.TimeEntryDetail, error) {
	return r.first(r.details(ctx).Where("time_entries.user_id = ? AND time_entries.clock_out IS NULL", userID))
}

func (r *TimeEntryRepository) GetInScope(ctx context.Context, id int64, scope internal.Scope) (*timeentryDatamodel.TimeEntryDetail, error) {
	q := datamodel.InScope(r.details(ctx), scope, "time_entries").Where("time_entries.id = ?", id)
	return r.first(q)
}

func (r *TimeEntryRepository) ListInScope(ctx context.Context, scope internal.Scope, limit, offset int) ([]*timeentryDatamodel.TimeEntryDetail, error) {
	var rows []*timeentryDatamodel.TimeEntryDetail
	err := datamodel.InScope(r.details(ctx), scope, "time_entries").
		Order("time_entries.clock_in DESC").
		Order("time_entries.id DESC").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error
	return rows, err
}

func (r *TimeEntryRepository) Close(ctx context.Context, id int64, clockOut time.Time, notes string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&timeentryDatamodel.TimeEntry{}).
		Where("id = ? AND clock_out IS NULL", id).
		Updates(map[string]interface{}{"clock_out": clockOut, "notes": notes})
	return result.RowsAffected == 1, result.Error
}

func (r *TimeEntryRepository) Update(ctx context.Context, e *timeentryDatamodel.TimeEntry) error {
	e.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&timeentryDatamodel.TimeEntry{ID: e.ID}).
		Select("project_id", "clock_in", "clock_out", "notes", "updated_at").
		Updates(e).Error
}

func (r *TimeEntryRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&timeentryDatamodel.TimeEntry{}, id).Error
}

// ProjectVisible matches projects of the caller's organization, or
// unaffiliated projects for unaffiliated callers.
func (r *TimeEntryRepository) ProjectVisible(ctx context.Context, projectID int64, organizationID *string) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&projectDatamodel.Project{}).Where("id = ?", projectID)
	if organizationID != nil && *organizationID != "" {
		q = q.Where("organization_id = ?", *organizationID)
	} else {
		q = q.Where("organization_id IS NULL")
	}
	err := q.Count(&count).Error
	return count > 0, err
}
