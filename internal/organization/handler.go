package organization

import (
	"context"
	"net/http"

	"github.com/frahmantamala/worktally/internal"
	"github.com/frahmantamala/worktally/internal/transport"
)

type ServiceAPI interface {
	Register(ctx context.Context, dto RegisterOrganizationDTO) (*RegisterResponse, error)
	Get(ctx context.Context, caller *internal.User) (*OrganizationResponse, error)
	GetTeam(ctx context.Context, caller *internal.User) (*TeamResponse, error)
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

// Register handles POST /organization/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var dto RegisterOrganizationDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	resp, err := h.Service.Register(r.Context(), dto)
	if err != nil {
		h.Logger.Warn("Register: organization registration failed", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, resp)
}

// GetOrganization handles GET /organization
func (h *Handler) GetOrganization(w http.ResponseWriter, r *http.Request) {
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

// GetTeam handles GET /organization/team
func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}

	team, err := h.Service.GetTeam(r.Context(), caller)
	if err != nil {
		h.Logger.Error("GetTeam: failed to load team", "error", err, "user_id", caller.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, team)
}
