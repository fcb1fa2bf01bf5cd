package timeoff

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/worktally/internal"
	timeoffDatamodel "github.com/frahmantamala/worktally/internal/core/datamodel/timeoff"
	"github.com/frahmantamala/worktally/internal/core/events"
)

var (
	ErrTimeOffNotFound  = internal.NewNotFoundError("Time off request not found", internal.ErrCodeTimeOffNotFound)
	ErrNotAllowedReview = internal.NewForbiddenError("Only organization owners and admins can review time off requests.", internal.ErrCodeForbidden)
	ErrNotRequester     = internal.NewForbiddenError("You can only modify your own time off requests.", internal.ErrCodeForbidden)
	ErrCannotModify     = internal.NewConflictError("Only pending time off requests can be modified.", internal.ErrCodeCannotModify)
)

func alreadyReviewed(status string) error {
	return internal.NewConflictError(fmt.Sprintf("Time off request has already been %s", status), internal.ErrCodeAlreadyReviewed)
}

type RepositoryAPI interface {
	Create(ctx context.Context, t *timeoffDatamodel.TimeOff) error
	GetInScope(ctx context.Context, id int64, scope internal.Scope) (*timeoffDatamodel.TimeOffDetail, error)
	ListInScope(ctx context.Context, scope internal.Scope, status string) ([]*timeoffDatamodel.TimeOffDetail, error)
	// Review moves a pending request to status and reports whether it was still pending.
	Review(ctx context.Context, id int64, status string, reviewerID int64, reviewedAt time.Time, notes string) (bool, error)
	UpdatePending(ctx context.Context, t *timeoffDatamodel.TimeOff) (bool, error)
	DeletePending(ctx context.Context, id int64) (bool, error)
}

type Service struct {
	repo      RepositoryAPI
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo RepositoryAPI, publisher events.Publisher, logger *slog.Logger, opts ...Option) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	s := &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Request(ctx context.Context, caller *internal.User, dto CreateTimeOffDTO) (*TimeOffResponse, error) {
	start, end, kind, err := dto.Parse(s.now().UTC())
	if err != nil {
		return nil, err
	}

	row := ToDataModel(&TimeOff{
		UserID:      caller.ID,
		StartDate:   start,
		EndDate:     end,
		RequestType: kind,
		Status:      StatusPending,
		Reason:      dto.Reason,
	})
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create time off request", "error", err, "user_id", caller.ID)
		return nil, fmt.Errorf("create time off: %w", err)
	}

	s.logger.Info("time off requested", "time_off_id", row.ID, "user_id", caller.ID, "days", FromDataModel(row).DaysRequested())
	return s.reload(ctx, caller, row.ID)
}

// Review approves or rejects a pending request. The status change is a
// conditional update, so a request is reviewed at most once.
func (s *Service) Review(ctx context.Context, reviewer *internal.User, id int64, dto ReviewDTO) (*TimeOffResponse, error) {
	if !reviewer.IsPrivileged() {
		s.logger.Warn("time off review denied", "user_id", reviewer.ID, "time_off_id", id)
		return nil, ErrNotAllowedReview
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	current, err := s.find(ctx, reviewer, id)
	if err != nil {
		return nil, err
	}
	if !current.IsPending() {
		return nil, alreadyReviewed(string(current.Status))
	}

	ok, err := s.repo.Review(ctx, id, dto.Status, reviewer.ID, s.now().UTC(), dto.ReviewNotes)
	if err != nil {
		s.logger.Error("failed to review time off", "error", err, "time_off_id", id)
		return nil, fmt.Errorf("review time off: %w", err)
	}

	resp, err := s.reload(ctx, reviewer, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, alreadyReviewed(resp.Status)
	}

	s.logger.Info("time off reviewed", "time_off_id", id, "reviewer_id", reviewer.ID, "status", dto.Status)
	if err := s.publisher.Publish(ctx, events.NewTimeOffReviewedEvent(id, resp.UserID, reviewer.ID, dto.Status)); err != nil {
		s.logger.Warn("failed to publish time off reviewed event", "error", err)
	}
	return resp, nil
}

// List follows the time entry rule: privileged members see their whole
// organization, everyone else their own requests.
func (s *Service) List(ctx context.Context, caller *internal.User) ([]TimeOffResponse, error) {
	return s.list(ctx, caller, internal.ScopeFor(caller), "")
}

// ListPending returns the caller's own pending requests.
func (s *Service) ListPending(ctx context.Context, caller *internal.User) ([]TimeOffResponse, error) {
	return s.list(ctx, caller, internal.Scope{UserID: caller.ID}, string(StatusPending))
}

func (s *Service) list(ctx context.Context, caller *internal.User, scope internal.Scope, status string) ([]TimeOffResponse, error) {
	rows, err := s.repo.ListInScope(ctx, scope, status)
	if err != nil {
		s.logger.Error("failed to list time off", "error", err, "user_id", caller.ID)
		return nil, fmt.Errorf("list time off: %w", err)
	}
	out := make([]TimeOffResponse, 0, len(rows))
	for _, row := range rows {
		t, name := FromDetail(row)
		resp := t.ToResponse()
		resp.UserName = name
		out = append(out, resp)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, caller *internal.User, id int64) (*TimeOffResponse, error) {
	return s.reload(ctx, caller, id)
}

func (s *Service) Update(ctx context.Context, caller *internal.User, id int64, dto UpdateTimeOffDTO) (*TimeOffResponse, error) {
	t, err := s.modifiable(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := dto.ApplyTo(t, s.now().UTC()); err != nil {
		return nil, err
	}

	ok, err := s.repo.UpdatePending(ctx, ToDataModel(t))
	if err != nil {
		s.logger.Error("failed to update time off", "error", err, "time_off_id", id)
		return nil, fmt.Errorf("update time off: %w", err)
	}
	if !ok {
		return nil, ErrCannotModify
	}
	return s.reload(ctx, caller, id)
}

func (s *Service) Delete(ctx context.Context, caller *internal.User, id int64) error {
	if _, err := s.modifiable(ctx, caller, id); err != nil {
		return err
	}
	ok, err := s.repo.DeletePending(ctx, id)
	if err != nil {
		s.logger.Error("failed to delete time off", "error", err, "time_off_id", id)
		return fmt.Errorf("delete time off: %w", err)
	}
	if !ok {
		return ErrCannotModify
	}
	s.logger.Info("time off deleted", "time_off_id", id, "user_id", caller.ID)
	return nil
}

func (s *Service) modifiable(ctx context.Context, caller *internal.User, id int64) (*TimeOff, error) {
	t, err := s.find(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if t.UserID != caller.ID {
		return nil, ErrNotRequester
	}
	if !t.IsPending() {
		return nil, ErrCannotModify
	}
	return t, nil
}

func (s *Service) find(ctx context.Context, caller *internal.User, id int64) (*TimeOff, error) {
	row, err := s.repo.GetInScope(ctx, id, internal.ScopeFor(caller))
	if err != nil {
		return nil, fmt.Errorf("load time off: %w", err)
	}
	if row == nil {
		return nil, ErrTimeOffNotFound
	}
	t, _ := FromDetail(row)
	return t, nil
}

func (s *Service) reload(ctx context.Context, caller *internal.User, id int64) (*TimeOffResponse, error) {
	row, err := s.repo.GetInScope(ctx, id, internal.ScopeFor(caller))
	if err != nil {
		return nil, fmt.Errorf("load time off: %w", err)
	}
	if row == nil {
		return nil, ErrTimeOffNotFound
	}
	t, name := FromDetail(row)
	resp := t.ToResponse()
	resp.UserName = name
	return &resp, nil
}
