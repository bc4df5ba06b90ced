package users

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-hrms/internal/auth"
	"github.com/odyssey-erp/odyssey-hrms/internal/rbac"
	"github.com/odyssey-erp/odyssey-hrms/internal/shared"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	List(ctx context.Context, f ListFilter) ([]Employee, error)
	Get(ctx context.Context, profileID uuid.UUID) (Employee, error)
	Update(ctx context.Context, profileID uuid.UUID, upd Update, entry shared.AuditLog) error
}

// Accounts is the slice of auth.Service that users delegates to.
type Accounts interface {
	CreateUser(ctx context.Context, in auth.NewUser) (auth.Created, error)
	UpdatePassword(ctx context.Context, profileID uuid.UUID, newPassword string) error
}

// Service handles user business logic.
type Service struct {
	repo     RepositoryPort
	accounts Accounts
	audit    shared.Auditor
	logger   *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, accounts Accounts, audit shared.Auditor, logger *slog.Logger) *Service {
	if audit == nil {
		audit = shared.NopAuditor{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, accounts: accounts, audit: audit, logger: logger}
}

// List returns a page of employees.
func (s *Service) List(ctx context.Context, f ListFilter) ([]Employee, error) {
	if f.Limit <= 0 {
		f.Limit = defaultPageSize
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.repo.List(ctx, f)
}

// Get returns one employee. Callers without users.view may only read themselves.
func (s *Service) Get(ctx context.Context, actor *auth.User, profileID uuid.UUID) (Employee, error) {
	if actor.ProfileID != profileID && !rbac.Can(actor.Role, shared.PermUsersView) {
		return Employee{}, ErrForbidden
	}
	return s.repo.Get(ctx, profileID)
}

// Create registers a new account. HR may only create employees.
func (s *Service) Create(ctx context.Context, actor *auth.User, in auth.NewUser) (auth.Created, error) {
	if !rbac.Can(actor.Role, shared.PermUsersEdit) {
		return auth.Created{}, ErrForbidden
	}
	if actor.Role == auth.RoleHR && in.Role != auth.RoleEmployee {
		return auth.Created{}, ErrForbidden
	}
	created, err := s.accounts.CreateUser(ctx, in)
	if err != nil {
		return auth.Created{}, err
	}
	s.record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   "user.create",
		Entity:   "profile",
		EntityID: created.ProfileID.String(),
		Meta:     map[string]any{"role": string(in.Role), "email": auth.NormalizeEmail(in.Email)},
	})
	return created, nil
}

// Update edits a profile. Users holding users.edit may change any field;
// everyone else may only change their own phone number.
func (s *Service) Update(ctx context.Context, actor *auth.User, profileID uuid.UUID, upd Update) (Employee, error) {
	if upd.empty() {
		return Employee{}, ErrNoChanges
	}
	canEdit := rbac.Can(actor.Role, shared.PermUsersEdit)
	self := actor.ProfileID == profileID
	if !canEdit && !(self && upd.selfEditable()) {
		return Employee{}, ErrForbidden
	}
	if upd.EmploymentStatus != nil {
		status := strings.ToLower(strings.TrimSpace(*upd.EmploymentStatus))
		if _, ok := employmentStatuses[status]; !ok {
			return Employee{}, ErrBadStatus
		}
		upd.EmploymentStatus = &status
	}
	if blank(upd.FirstName) || blank(upd.LastName) {
		return Employee{}, ErrBadPayload
	}
	if canEdit && !self && actor.Role == auth.RoleHR {
		target, err := s.repo.Get(ctx, profileID)
		if err != nil {
			return Employee{}, err
		}
		if target.Role == auth.RoleAdmin {
			return Employee{}, ErrForbidden
		}
	}

	entry := shared.AuditLog{
		ActorID:  actor.ID,
		Action:   "user.update",
		Entity:   "profile",
		EntityID: profileID.String(),
		Meta:     map[string]any{"fields": upd.fields()},
	}
	if err := s.repo.Update(ctx, profileID, upd, entry); err != nil {
		return Employee{}, err
	}
	return s.repo.Get(ctx, profileID)
}

// ChangePassword sets a new password for the target profile. Allowed for
// the user themselves, admins for anyone and HR for employees.
func (s *Service) ChangePassword(ctx context.Context, actor *auth.User, profileID uuid.UUID, newPassword string) error {
	if actor.ProfileID != profileID {
		switch actor.Role {
		case auth.RoleAdmin:
		case auth.RoleHR:
			target, err := s.repo.Get(ctx, profileID)
			if err != nil {
				return err
			}
			if target.Role != auth.RoleEmployee {
				return ErrForbidden
			}
		default:
			return ErrForbidden
		}
	}
	if err := s.accounts.UpdatePassword(ctx, profileID, newPassword); err != nil {
		return err
	}
	s.record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   "user.password",
		Entity:   "profile",
		EntityID: profileID.String(),
	})
	return nil
}

func (s *Service) record(ctx context.Context, entry shared.AuditLog) {
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("users: audit", slog.String("action", entry.Action), slog.Any("error", err))
	}
}

func (u Update) fields() []string {
	var out []string
	add := func(set bool, name string) {
		if set {
			out = append(out, name)
		}
	}
	add(u.FirstName != nil, "first_name")
	add(u.LastName != nil, "last_name")
	add(u.Phone != nil, "phone")
	add(u.DepartmentID != nil, "department_id")
	add(u.DesignationID != nil, "designation_id")
	add(u.ReportingManagerID != nil, "reporting_manager_id")
	add(u.EmploymentStatus != nil, "employment_status")
	return out
}

func blank(s *string) bool {
	return s != nil && strings.TrimSpace(*s) == ""
}
