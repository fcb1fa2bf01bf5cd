package auth

import (
	"context"
	"net/http"

	"github.com/frahmantamala/worktally/internal"
	"github.com/frahmantamala/worktally/internal/transport"
	"github.com/frahmantamala/worktally/pkg/logger"
)

type ServiceAPI interface {
	Login(ctx context.Context, dto LoginDTO) (*LoginResponse, error)
	Logout(ctx context.Context, caller *internal.User) error
	Authenticate(ctx context.Context, token string) (*internal.User, error)
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

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	resp, err := h.Service.Login(r.Context(), dto)
	if err != nil {
		h.Logger.Warn("Login: authentication failed", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}

	if err := h.Service.Logout(r.Context(), caller); err != nil {
		h.Logger.Error("Logout: failed to revoke session", "error", err, "user_id", caller.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, LogoutResponse{Detail: "Successfully logged out"})
}

// AuthMiddleware accepts "Bearer <token>" and "Token <token>" credentials.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.HandleServiceError(w, internal.NewUnauthorizedError("Authentication credentials were not provided", internal.ErrCodeInvalidToken))
			return
		}

		caller, err := h.Service.Authenticate(r.Context(), token)
		if err != nil {
			h.Logger.Warn("auth middleware: token rejected", "error", err)
			h.HandleServiceError(w, err)
			return
		}

		ctx := internal.ContextWithUser(r.Context(), caller)
		ctx = logger.With(ctx, "user_id", caller.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
