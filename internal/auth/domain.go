package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role grants access to one of the dashboards.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleHR       Role = "hr"
	RoleEmployee Role = "employee"
)

// ParseRole validates a role name.
func ParseRole(value string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleHR:
		return RoleHR, true
	case RoleEmployee:
		return RoleEmployee, true
	}
	return "", false
}

// DefaultEmploymentStatus is assigned when none is supplied at sign-up.
const DefaultEmploymentStatus = "active"

// Profile is the account record holding identity and HR attributes.
type Profile struct {
	ID                 uuid.UUID
	UserID             uuid.UUID
	Email              string
	FirstName          string
	LastName           string
	PasswordHash       string
	Phone              *string
	DepartmentID       *uuid.UUID
	DesignationID      *uuid.UUID
	DateOfBirth        *time.Time
	JoiningDate        time.Time
	EmployeeID         *string
	ReportingManagerID *uuid.UUID
	EmploymentStatus   string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Session is a server-tracked, token-keyed login.
type Session struct {
	Token     string
	ProfileID uuid.UUID
	ExpiresAt time.Time
	CreatedAt time.Time
}

// User is the authenticated-user view assembled from a profile and its role.
type User struct {
	ID        uuid.UUID `json:"id"`
	ProfileID uuid.UUID `json:"profileId"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      Role      `json:"role"`
}

// NewUser carries sign-up input for CreateUser.
type NewUser struct {
	Email              string
	Password           string
	FirstName          string
	LastName           string
	Role               Role
	Phone              *string
	DepartmentID       *uuid.UUID
	DesignationID      *uuid.UUID
	DateOfBirth        *time.Time
	JoiningDate        *time.Time
	EmployeeID         *string
	ReportingManagerID *uuid.UUID
	EmploymentStatus   string
}

// Created identifies the records produced by CreateUser.
type Created struct {
	UserID    uuid.UUID `json:"userId"`
	ProfileID uuid.UUID `json:"profileId"`
}

// NormalizeEmail lower-cases and trims an email for lookups and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func newUserView(p Profile, role Role) *User {
	return &User{
		ID:        p.UserID,
		ProfileID: p.ID,
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Role:      role,
	}
}
