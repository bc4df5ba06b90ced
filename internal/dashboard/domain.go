// Package dashboard serves the role-specific landing summaries.
package dashboard

import (
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-hrms/internal/auth"
)

// Count is a labelled tally.
type Count struct {
	Label string `json:"label"`
	Total int64  `json:"total"`
}

// Joiner is a recently hired employee.
type Joiner struct {
	ProfileID   uuid.UUID `json:"profileId"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	JoiningDate time.Time `json:"joiningDate"`
}

// Person is the minimal identity shown on the employee dashboard.
type Person struct {
	ProfileID        uuid.UUID  `json:"profileId"`
	Email            string     `json:"email"`
	FirstName        string     `json:"firstName"`
	LastName         string     `json:"lastName"`
	Phone            *string    `json:"phone,omitempty"`
	DepartmentID     *uuid.UUID `json:"departmentId,omitempty"`
	DesignationID    *uuid.UUID `json:"designationId,omitempty"`
	JoiningDate      time.Time  `json:"joiningDate"`
	EmploymentStatus string     `json:"employmentStatus"`
	ManagerID        *uuid.UUID `json:"-"`
}

// AdminSummary backs /dashboard/admin.
type AdminSummary struct {
	ProfilesByRole   []Count `json:"profilesByRole"`
	ActiveSessions   int64   `json:"activeSessions"`
	HeadcountByState []Count `json:"headcountByStatus"`
}

// HRSummary backs /dashboard/hr.
type HRSummary struct {
	HeadcountByState []Count  `json:"headcountByStatus"`
	RecentJoiners    []Joiner `json:"recentJoiners"`
}

// EmployeeSummary backs /dashboard/employee.
type EmployeeSummary struct {
	Profile Person  `json:"profile"`
	Manager *Person `json:"manager,omitempty"`
}

// PathFor returns the dashboard path of a role.
func PathFor(role auth.Role) string {
	switch role {
	case auth.RoleAdmin:
		return "/dashboard/admin"
	case auth.RoleHR:
		return "/dashboard/hr"
	default:
		return "/dashboard/employee"
	}
}
