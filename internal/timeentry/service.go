package timeentry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/worktally/internal"
	"github.com/frahmantamala/worktally/internal/core/datamodel"
	timeentryDatamodel "github.com/frahmantamala/worktally/internal/core/datamodel/timeentry"
)

var (
	ErrActiveEntryExists = internal.NewConflictError("You already have an active time entry", internal.ErrCodeActiveEntryExists)
	ErrNoActiveEntry     = internal.NewNotFoundError("No active time entry found", internal.ErrCodeNoActiveEntry)
	ErrTimeEntryNotFound = internal.NewNotFoundError("Time entry not found", internal.ErrCodeTimeEntryNotFound)
	ErrInvalidProject    = internal.NewValidationFieldError("project_id", "Invalid project.", internal.ErrCodeProjectNotFound)
)

type RepositoryAPI interface {
	Create(ctx context.Context, e *timeentryDatamodel.TimeEntry) error
	GetOpen(ctx context.Context, userID int64) (*timeentryDatamodel.TimeEntryDetail, error)
	GetInScope(ctx context.Context, id int64, scope internal.Scope) (*timeentryDatamodel.TimeEntryDetail, error)
	ListInScope(ctx context.Context, scope internal.Scope, limit, offset int) ([]*timeentryDatamodel.TimeEntryDetail, error)
	// Close sets clock_out on an open entry and reports whether it was still open.
	Close(ctx context.Context, id int64, clockOut time.Time, notes string) (bool, error)
	Update(ctx context.Context, e *timeentryDatamodel.TimeEntry) error
	Delete(ctx context.Context, id int64) error
	ProjectVisible(ctx context.Context, projectID int64, organizationID *string) (bool, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo RepositoryAPI, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) ClockIn(ctx context.Context, caller *internal.User, dto ClockInDTO) (*TimeEntryResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	open, err := s.repo.GetOpen(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("load open entry: %w", err)
	}
	if open != nil {
		return nil, ErrActiveEntryExists
	}
	if err := s.checkProject(ctx, caller, dto.ProjectID); err != nil {
		return nil, err
	}

	row := &timeentryDatamodel.TimeEntry{
		UserID:    caller.ID,
		ProjectID: dto.ProjectID,
		ClockIn:   s.now().UTC(),
		Notes:     dto.Notes,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		if datamodel.IsUniqueViolation(err) {
			return nil, ErrActiveEntryExists.WithCause(err)
		}
		s.logger.Error("failed to clock in", "error", err, "user_id", caller.ID)
		return nil, fmt.Errorf("clock in: %w", err)
	}

	s.logger.Info("clocked in", "user_id", caller.ID, "time_entry_id", row.ID)
	return s.reload(ctx, row.ID, caller)
}

func (s *Service) ClockOut(ctx context.Context, caller *internal.User, dto ClockOutDTO) (*ClockOutResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	open, err := s.repo.GetOpen(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("load open entry: %w", err)
	}
	if open == nil {
		return nil, ErrNoActiveEntry
	}

	entry := FromDetail(open)
	entry.AppendClockOutNotes(dto.Notes)
	closed, err := s.repo.Close(ctx, entry.ID, s.now().UTC(), entry.Notes)
	if err != nil {
		s.logger.Error("failed to clock out", "error", err, "user_id", caller.ID, "time_entry_id", entry.ID)
		return nil, fmt.Errorf("clock out: %w", err)
	}
	if !closed {
		return nil, ErrNoActiveEntry
	}

	resp, err := s.reload(ctx, entry.ID, caller)
	if err != nil {
		return nil, err
	}
	s.logger.Info("clocked out", "user_id", caller.ID, "time_entry_id", entry.ID, "duration", resp.Duration)
	return &ClockOutResponse{
		Message:   "Successfully clocked out",
		TimeEntry: *resp,
		Duration:  resp.Duration,
	}, nil
}

func (s *Service) Current(ctx context.Context, caller *internal.User) (*TimeEntryResponse, error) {
	open, err := s.repo.GetOpen(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("load open entry: %w", err)
	}
	if open == nil {
		return nil, ErrNoActiveEntry
	}
	resp := FromDetail(open).ToResponse()
	return &resp, nil
}

// List returns entries newest first. Privileged members see their whole
// organization, everyone else only their own entries.
func (s *Service) List(ctx context.Context, caller *internal.User, filter ListFilter) ([]TimeEntryResponse, error) {
	filter = filter.Normalize()
	rows, err := s.repo.ListInScope(ctx, internal.ScopeFor(caller), filter.Limit, filter.Offset)
	if err != nil {
		s.logger.Error("failed to list time entries", "error", err, "user_id", caller.ID)
		return nil, fmt.Errorf("list time entries: %w", err)
	}
	out := make([]TimeEntryResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDetail(row).ToResponse())
	}
	return out, nil
}

// ListOwn ignores the caller's role.
func (s *Service) ListOwn(ctx context.Context, caller *internal.User, limit int) ([]TimeEntryResponse, error) {
	rows, err := s.repo.ListInScope(ctx, internal.Scope{UserID: caller.ID}, limit, 0)
	if err != nil {
		return nil, fmt.Errorf("list own time entries: %w", err)
	}
	out := make([]TimeEntryResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDetail(row).ToResponse())
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, caller *internal.User, id int64) (*TimeEntryResponse, error) {
	entry, err := s.find(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	resp := entry.ToResponse()
	return &resp, nil
}

// Create records a manual entry for the caller. An entry without clock_out
// is open and competes with clock-in for the single open slot.
func (s *Service) Create(ctx context.Context, caller *internal.User, dto CreateTimeEntryDTO) (*TimeEntryResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkProject(ctx, caller, dto.ProjectID); err != nil {
		return nil, err
	}

	row := &timeentryDatamodel.TimeEntry{
		UserID:    caller.ID,
		ProjectID: dto.ProjectID,
		ClockIn:   dto.ClockIn.UTC(),
		Notes:     dto.Notes,
	}
	if dto.ClockOut != nil {
		out := dto.ClockOut.UTC()
		row.ClockOut = &out
	} else {
		open, err := s.repo.GetOpen(ctx, caller.ID)
		if err != nil {
			return nil, fmt.Errorf("load open entry: %w", err)
		}
		if open != nil {
			return nil, ErrActiveEntryExists
		}
	}

	if err := s.repo.Create(ctx, row); err != nil {
		if datamodel.IsUniqueViolation(err) {
			return nil, ErrActiveEntryExists.WithCause(err)
		}
		s.logger.Error("failed to create time entry", "error", err, "user_id", caller.ID)
		return nil, fmt.Errorf("create time entry: %w", err)
	}
	return s.reload(ctx, row.ID, caller)
}

func (s *Service) Update(ctx context.Context, caller *internal.User, id int64, dto UpdateTimeEntryDTO) (*TimeEntryResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	entry, err := s.find(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if dto.ProjectID != nil {
		if err := s.checkProject(ctx, caller, dto.ProjectID); err != nil {
			return nil, err
		}
	}
	if err := dto.ApplyTo(entry); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, ToDataModel(entry)); err != nil {
		if datamodel.IsUniqueViolation(err) {
			return nil, ErrActiveEntryExists.WithCause(err)
		}
		s.logger.Error("failed to update time entry", "error", err, "time_entry_id", id)
		return nil, fmt.Errorf("update time entry: %w", err)
	}
	return s.reload(ctx, id, caller)
}

func (s *Service) Delete(ctx context.Context, caller *internal.User, id int64) error {
	if _, err := s.find(ctx, caller, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete time entry", "error", err, "time_entry_id", id)
		return fmt.Errorf("delete time entry: %w", err)
	}
	s.logger.Info("time entry deleted", "time_entry_id", id, "user_id", caller.ID)
	return nil
}

func (s *Service) find(ctx context.Context, caller *internal.User, id int64) (*TimeEntry, error) {
	row, err := s.repo.GetInScope(ctx, id, internal.ScopeFor(caller))
	if err != nil {
		return nil, fmt.Errorf("load time entry: %w", err)
	}
	if row == nil {
		return nil, ErrTimeEntryNotFound
	}
	return FromDetail(row), nil
}

func (s *Service) reload(ctx context.Context, id int64, caller *internal.User) (*TimeEntryResponse, error) {
	entry, err := s.find(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	resp := entry.ToResponse()
	return &resp, nil
}

func (s *Service) checkProject(ctx context.Context, caller *internal.User, projectID *int64) error {
	if projectID == nil {
		return nil
	}
	ok, err := s.repo.ProjectVisible(ctx, *projectID, caller.OrganizationID)
	if err != nil {
		return fmt.Errorf("check project: %w", err)
	}
	if !ok {
		return ErrInvalidProject
	}
	return nil
}
