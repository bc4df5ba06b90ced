package rbac

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-hrms/internal/auth"
	"github.com/odyssey-erp/odyssey-hrms/internal/authctx"
	"github.com/odyssey-erp/odyssey-hrms/internal/platform/httpx"
)

// PermissionsHandler exposes the caller's effective permissions.
type PermissionsHandler struct{}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler() *PermissionsHandler {
	return &PermissionsHandler{}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Get("/me/permissions", h.listPermissions)
}

type permissionsResponse struct {
	Role        auth.Role `json:"role"`
	Permissions []string  `json:"permissions"`
}

func (h *PermissionsHandler) listPermissions(w http.ResponseWriter, r *http.Request) {
	user := authctx.UserFromContext(r.Context())
	if user == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
		return
	}
	httpx.JSON(w, http.StatusOK, permissionsResponse{Role: user.Role, Permissions: Permissions(user.Role)})
}
