// Package dashboard assembles the caller's landing page from the time entry,
// time off and project services.
package dashboard

import (
	"context"
	"errors"
	"net/http"

	"github.com/frahmantamala/worktally/internal"
	"github.com/frahmantamala/worktally/internal/project"
	"github.com/frahmantamala/worktally/internal/timeentry"
	"github.com/frahmantamala/worktally/internal/timeoff"
	"github.com/frahmantamala/worktally/internal/transport"
)

const RecentEntries = 5

type TimeEntries interface {
	Current(ctx context.Context, caller *internal.User) (*timeentry.TimeEntryResponse, error)
	ListOwn(ctx context.Context, caller *internal.User, limit int) ([]timeentry.TimeEntryResponse, error)
}

type TimeOff interface {
	ListPending(ctx context.Context, caller *internal.User) ([]timeoff.TimeOffResponse, error)
}

type Projects interface {
	List(ctx context.Context, caller *internal.User, activeOnly bool) ([]project.ProjectResponse, error)
}

type Response struct {
	ActiveTimeEntry   *timeentry.TimeEntryResponse  `json:"active_time_entry"`
	RecentTimeEntries []timeentry.TimeEntryResponse `json:"recent_time_entries"`
	PendingTimeOff    []timeoff.TimeOffResponse     `json:"pending_time_off"`
	ActiveProjects    []project.ProjectResponse     `json:"active_projects"`
}

type Service struct {
	entries  TimeEntries
	timeOff  TimeOff
	projects Projects
}

func NewService(entries TimeEntries, timeOff TimeOff, projects Projects) *Service {
	return &Service{
		entries:  entries,
		timeOff:  timeOff,
		projects: projects,
	}
}

func (s *Service) Get(ctx context.Context, caller *internal.User) (*Response, error) {
	active, err := s.entries.Current(ctx, caller)
	if err != nil && !errors.Is(err, timeentry.ErrNoActiveEntry) {
		return nil, err
	}

	recent, err := s.entries.ListOwn(ctx, caller, RecentEntries)
	if err != nil {
		return nil, err
	}
	pending, err := s.timeOff.ListPending(ctx, caller)
	if err != nil {
		return nil, err
	}
	projects, err := s.projects.List(ctx, caller, true)
	if err != nil {
		return nil, err
	}

	return &Response{
		ActiveTimeEntry:   active,
		RecentTimeEntries: recent,
		PendingTimeOff:    pending,
		ActiveProjects:    projects,
	}, nil
}

type ServiceAPI interface {
	Get(ctx context.Context, caller *internal.User) (*Response, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// Get handles GET /dashboard
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}

	resp, err := h.Service.Get(r.Context(), caller)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}
