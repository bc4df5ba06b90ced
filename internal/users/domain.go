package users

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-hrms/internal/auth"
	"github.com/odyssey-erp/odyssey-hrms/internal/platform/httpx"
)

// Employee is a profile joined with its role, as shown to HR.
type Employee struct {
	ProfileID          uuid.UUID  `json:"profileId"`
	UserID             uuid.UUID  `json:"userId"`
	Email              string     `json:"email"`
	FirstName          string     `json:"firstName"`
	LastName           string     `json:"lastName"`
	Role               auth.Role  `json:"role,omitempty"`
	Phone              *string    `json:"phone,omitempty"`
	DepartmentID       *uuid.UUID `json:"departmentId,omitempty"`
	DesignationID      *uuid.UUID `json:"designationId,omitempty"`
	ReportingManagerID *uuid.UUID `json:"reportingManagerId,omitempty"`
	EmployeeID         *string    `json:"employeeId,omitempty"`
	DateOfBirth        *time.Time `json:"dateOfBirth,omitempty"`
	JoiningDate        time.Time  `json:"joiningDate"`
	EmploymentStatus   string     `json:"employmentStatus"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// ListFilter narrows List results.
type ListFilter struct {
	Role   auth.Role
	Status string
	Limit  int
	Offset int
}

// Update holds the editable profile fields; nil leaves a field unchanged.
type Update struct {
	FirstName          *string
	LastName           *string
	Phone              *string
	DepartmentID       *uuid.UUID
	DesignationID      *uuid.UUID
	ReportingManagerID *uuid.UUID
	EmploymentStatus   *string
}

// selfEditable reports whether only contact fields are touched.
func (u Update) selfEditable() bool {
	return u.FirstName == nil && u.LastName == nil && u.DepartmentID == nil &&
		u.DesignationID == nil && u.ReportingManagerID == nil && u.EmploymentStatus == nil
}

func (u Update) empty() bool {
	return u.selfEditable() && u.Phone == nil
}

// Employment statuses accepted on edit.
var employmentStatuses = map[string]struct{}{
	"active":     {},
	"probation":  {},
	"on_leave":   {},
	"suspended":  {},
	"terminated": {},
}

// Domain errors, mapped to HTTP statuses through httpx.
var (
	ErrNotFound   = fmt.Errorf("users: profile %w", httpx.ErrNotFound)
	ErrForbidden  = fmt.Errorf("users: %w", httpx.ErrForbidden)
	ErrNoChanges  = fmt.Errorf("users: no fields to update: %w", httpx.ErrValidation)
	ErrBadStatus  = fmt.Errorf("users: unknown employment status: %w", httpx.ErrValidation)
	ErrBadPayload = fmt.Errorf("users: invalid payload: %w", httpx.ErrValidation)
)
