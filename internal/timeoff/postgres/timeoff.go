package postgres

import (
	"context"
	"time"

	"github.com/frahmantamala/worktally/internal"
	"github.com/frahmantamala/worktally/internal/core/datamodel"
	timeoffDatamodel "github.com/frahmantamala/worktally/internal/core/datamodel/timeoff"
	"github.com/frahmantamala/worktally/internal/timeoff"
	"gorm.io/gorm"
)

const (
	detailColumns = "time_off_requests.*, users.first_name AS user_first_name, users.last_name AS user_last_name, users.email AS user_email"
	pendingStatus = "pending"
)

type TimeOffRepository struct {
	db *gorm.DB
}

func NewTimeOffRepository(db *gorm.DB) timeoff.RepositoryAPI {
	return &TimeOffRepository{db: db}
}

func (r *TimeOffRepository) details(ctx context.Context, scope internal.Scope) *gorm.DB {
	q := r.db.WithContext(ctx).
		Model(&timeoffDatamodel.TimeOff{}).
		Select(detailColumns).
		Joins("JOIN users ON users.id = time_off_requests.user_id")
	return datamodel.InScope(q, scope, "time_off_requests")
}

func (r *TimeOffRepository) Create(ctx context.Context, t *timeoffDatamodel.TimeOff) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TimeOffRepository) GetInScope(ctx context.Context, id int64, scope internal.Scope) (*timeoffDatamodel.TimeOffDetail, error) {
	var rows []*timeoffDatamodel.TimeOffDetail
	err := r.details(ctx, scope).Where("time_off_requests.id = ?", id).Limit(1).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *TimeOffRepository) ListInScope(ctx context.Context, scope internal.Scope, status string) ([]*timeoffDatamodel.TimeOffDetail, error) {
	var rows []*timeoffDatamodel.TimeOffDetail
	q := r.details(ctx, scope)
	if status != "" {
		q = q.Where("time_off_requests.status = ?", status)
	}
	err := q.Order("time_off_requests.created_at DESC").Order("time_off_requests.id DESC").Scan(&rows).Error
	return rows, err
}

func (r *TimeOffRepository) Review(ctx context.Context, id int64, status string, reviewerID int64, reviewedAt time.Time, notes string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&timeoffDatamodel.TimeOff{}).
		Where("id = ? AND status = ?", id, pendingStatus).
		Updates(map[string]interface{}{
			"status":         status,
			"reviewed_by_id": reviewerID,
			"reviewed_at":    reviewedAt,
			"review_notes":   notes,
		})
	return result.RowsAffected == 1, result.Error
}

func (r *TimeOffRepository) UpdatePending(ctx context.Context, t *timeoffDatamodel.TimeOff) (bool, error) {
	t.UpdatedAt = time.Now().UTC()
	result := r.db.WithContext(ctx).
		Model(&timeoffDatamodel.TimeOff{}).
		Where("id = ? AND status = ?", t.ID, pendingStatus).
		Select("start_date", "end_date", "request_type", "reason", "updated_at").
		Updates(t)
	return result.RowsAffected == 1, result.Error
}

func (r *TimeOffRepository) DeletePending(ctx context.Context, id int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, pendingStatus).
		Delete(&timeoffDatamodel.TimeOff{})
	return result.RowsAffected == 1, result.Error
}
