package invitation

import (
	"context"
	"net/http"

	"github.com/frahmantamala/worktally/internal"
	"github.com/frahmantamala/worktally/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	Invite(ctx context.Context, inviter *internal.User, dto InviteDTO) (*InviteResponse, error)
	Accept(ctx context.Context, dto AcceptDTO) (*AcceptResponse, error)
	Preview(ctx context.Context, token string) (*PreviewResponse, error)
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

// Invite handles POST /organization/invite
func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}

	var dto InviteDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	resp, err := h.Service.Invite(r.Context(), caller, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, resp)
}

// Accept handles POST /invitation/accept
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	var dto AcceptDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	resp, err := h.Service.Accept(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

// Preview handles GET /invitation/{token}
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	preview, err := h.Service.Preview(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, preview)
}
