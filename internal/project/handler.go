package project

import (
	"context"
	"net/http"
	"strconv"

	"github.com/frahmantamala/worktally/internal"
	"github.com/frahmantamala/worktally/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, caller *internal.User, activeOnly bool) ([]ProjectResponse, error)
	Get(ctx context.Context, caller *internal.User, id int64) (*ProjectResponse, error)
	Create(ctx context.Context, caller *internal.User, dto CreateProjectDTO) (*ProjectResponse, error)
	Update(ctx context.Context, caller *internal.User, id int64, dto UpdateProjectDTO) (*ProjectResponse, error)
	Delete(ctx context.Context, caller *internal.User, id int64) error
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

// List handles GET /projects?active_only=true
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}

	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("active_only"))
	projects, err := h.Service.List(r.Context(), caller, activeOnly)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, projects)
}

// Create handles POST /projects
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}

	var dto CreateProjectDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	p, err := h.Service.Create(r.Context(), caller, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, p)
}

// Get handles GET /projects/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	p, err := h.Service.Get(r.Context(), caller, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, p)
}

// Update handles PUT /projects/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto UpdateProjectDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	p, err := h.Service.Update(r.Context(), caller, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, p)
}

// Delete handles DELETE /projects/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.Delete(r.Context(), caller, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
