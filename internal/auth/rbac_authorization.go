package auth

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/frahmantamala/worktally/internal"
	"github.com/frahmantamala/worktally/internal/transport"
	coreuser "github.com/frahmantamala/worktally/internal/core/user"
)

// RBACAuthorization gates routes on the caller's organization role.
type RBACAuthorization struct {
	*transport.BaseHandler
	logger *slog.Logger
}

func NewRBACAuthorization(logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{
		BaseHandler: transport.NewBaseHandler(logger),
		logger:      logger,
	}
}

func (ra *RBACAuthorization) RequireRoles(roles ...coreuser.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := internal.UserFromContext(r.Context())
			if !ok {
				ra.logger.Warn("authorization check failed: user not found in context")
				ra.HandleServiceError(w, internal.ErrInvalidToken)
				return
			}

			if !slices.Contains(roles, user.Role) {
				ra.logger.WarnContext(r.Context(), "access denied: role not allowed",
					"user_id", user.ID,
					"role", user.Role,
					"required_roles", roles)
				ra.HandleServiceError(w, internal.NewForbiddenError("You do not have permission to perform this action", internal.ErrCodeForbidden))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequirePrivileged admits owners and admins.
func (ra *RBACAuthorization) RequirePrivileged() func(http.Handler) http.Handler {
	return ra.RequireRoles(coreuser.PrivilegedRoles()...)
}

// RequireOrganization rejects callers that do not belong to an organization.
func (ra *RBACAuthorization) RequireOrganization() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := internal.UserFromContext(r.Context())
			if !ok {
				ra.HandleServiceError(w, internal.ErrInvalidToken)
				return
			}
			if !user.HasOrganization() {
				ra.HandleServiceError(w, internal.ErrNoOrganization)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
