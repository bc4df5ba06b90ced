package rbac

import (
	"sort"

	"github.com/odyssey-erp/odyssey-hrms/internal/auth"
	"github.com/odyssey-erp/odyssey-hrms/internal/shared"
)

// rolePermissions is the static grant table. Admin is resolved separately
// and receives every known scope.
var rolePermissions = map[auth.Role][]string{
	auth.RoleHR: {
		shared.PermUsersView,
		shared.PermUsersEdit,
		shared.PermDashboardHR,
		shared.PermEmployeesPassword,
	},
	auth.RoleEmployee: {
		shared.PermDashboardEmployee,
		shared.PermProfileSelf,
	},
}

// Permissions returns the sorted permissions granted to role.
func Permissions(role auth.Role) []string {
	var granted []string
	if role == auth.RoleAdmin {
		granted = shared.CoreScopes()
	} else {
		granted = append([]string(nil), rolePermissions[role]...)
	}
	sort.Strings(granted)
	return granted
}

// Can reports whether role holds perm.
func Can(role auth.Role, perm string) bool {
	return hasAnyPermission(Permissions(role), normalizePermissions([]string{perm}))
}
