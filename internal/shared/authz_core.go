package shared

// HR permissions granted through roles.
const (
	PermUsersView = "users.view"
	PermUsersEdit = "users.edit"

	PermEmployeesPassword = "employees.password"
	PermProfileSelf       = "profile.self"

	PermDashboardAdmin    = "dashboard.admin"
	PermDashboardHR       = "dashboard.hr"
	PermDashboardEmployee = "dashboard.employee"

	PermSessionsReap = "sessions.reap"

	PermAuditView   = "audit.view"
	PermAuditExport = "audit.export"
)

// CoreScopes lists every permission known to the service.
func CoreScopes() []string {
	return []string{
		PermUsersView,
		PermUsersEdit,
		PermEmployeesPassword,
		PermProfileSelf,
		PermDashboardAdmin,
		PermDashboardHR,
		PermDashboardEmployee,
		PermSessionsReap,
		PermAuditView,
		PermAuditExport,
	}
}
