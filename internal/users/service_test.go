package users

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-hrms/internal/auth"
	"github.com/odyssey-erp/odyssey-hrms/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-hrms/internal/shared"
)

type memRepo struct {
	mu        sync.Mutex
	employees map[uuid.UUID]Employee
	audits    []shared.AuditLog
	lastList  ListFilter
}

func newMemRepo(employees ...Employee) *memRepo {
	r := &memRepo{employees: make(map[uuid.UUID]Employee)}
	for _, e := range employees {
		r.employees[e.ProfileID] = e
	}
	return r
}

func (r *memRepo) List(ctx context.Context, f ListFilter) ([]Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastList = f
	var out []Employee
	for _, e := range r.employees {
		if f.Role != "" && e.Role != f.Role {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *memRepo) Get(ctx context.Context, id uuid.UUID) (Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.employees[id]
	if !ok {
		return Employee{}, ErrNotFound
	}
	return e, nil
}

func (r *memRepo) Update(ctx context.Context, id uuid.UUID, upd Update, entry shared.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.employees[id]
	if !ok {
		return ErrNotFound
	}
	if upd.FirstName != nil {
		e.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		e.LastName = *upd.LastName
	}
	if upd.Phone != nil {
		e.Phone = upd.Phone
	}
	if upd.EmploymentStatus != nil {
		e.EmploymentStatus = *upd.EmploymentStatus
	}
	r.employees[id] = e
	r.audits = append(r.audits, entry)
	return nil
}

type mockAccounts struct {
	mock.Mock
}

func (m *mockAccounts) CreateUser(ctx context.Context, in auth.NewUser) (auth.Created, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(auth.Created), args.Error(1)
}

func (m *mockAccounts) UpdatePassword(ctx context.Context, profileID uuid.UUID, pw string) error {
	return m.Called(ctx, profileID, pw).Error(0)
}

type memAudit struct {
	mu      sync.Mutex
	entries []shared.AuditLog
}

func (a *memAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, log)
	return nil
}

func employee(role auth.Role) Employee {
	return Employee{ProfileID: uuid.New(), UserID: uuid.New(), Email: string(role) + "@odyssey.test", FirstName: "F", LastName: "L", Role: role, EmploymentStatus: "active"}
}

func actorFor(e Employee) *auth.User {
	return &auth.User{ID: e.UserID, ProfileID: e.ProfileID, Email: e.Email, Role: e.Role}
}

type world struct {
	admin, hr, hr2, emp, emp2 Employee
	repo                      *memRepo
	accounts                  *mockAccounts
	audit                     *memAudit
	svc                       *Service
}

func newWorld() *world {
	w := &world{
		admin: employee(auth.RoleAdmin),
		hr:    employee(auth.RoleHR),
		hr2:   employee(auth.RoleHR),
		emp:   employee(auth.RoleEmployee),
		emp2:  employee(auth.RoleEmployee),
	}
	w.repo = newMemRepo(w.admin, w.hr, w.hr2, w.emp, w.emp2)
	w.accounts = new(mockAccounts)
	w.audit = &memAudit{}
	w.svc = NewService(w.repo, w.accounts, w.audit, nil)
	return w
}

func TestChangePasswordAuthorization(t *testing.T) {
	w := newWorld()
	w.accounts.On("UpdatePassword", mock.Anything, mock.Anything, "new-secret").Return(nil)

	cases := []struct {
		name   string
		actor  Employee
		target Employee
		allow  bool
	}{
		{"self employee", w.emp, w.emp, true},
		{"self hr", w.hr, w.hr, true},
		{"admin on hr", w.admin, w.hr, true},
		{"admin on employee", w.admin, w.emp, true},
		{"hr on employee", w.hr, w.emp, true},
		{"hr on hr", w.hr, w.hr2, false},
		{"hr on admin", w.hr, w.admin, false},
		{"employee on employee", w.emp, w.emp2, false},
		{"employee on admin", w.emp, w.admin, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := w.svc.ChangePassword(context.Background(), actorFor(tc.actor), tc.target.ProfileID, "new-secret")
			if tc.allow {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, httpx.ErrForbidden)
			}
		})
	}
	w.accounts.AssertNumberOfCalls(t, "UpdatePassword", 5)
}

func TestChangePasswordPropagatesAuthErrors(t *testing.T) {
	w := newWorld()
	missing := uuid.New()
	w.accounts.On("UpdatePassword", mock.Anything, missing, "new-secret").Return(auth.ErrProfileNotFound)

	err := w.svc.ChangePassword(context.Background(), actorFor(w.admin), missing, "new-secret")
	require.ErrorIs(t, err, auth.ErrProfileNotFound)
	assert.Empty(t, w.audit.entries)
}

func TestCreateRoleRestrictions(t *testing.T) {
	w := newWorld()
	created := auth.Created{UserID: uuid.New(), ProfileID: uuid.New()}
	w.accounts.On("CreateUser", mock.Anything, mock.Anything).Return(created, nil)

	in := auth.NewUser{Email: "New@Odyssey.test", Password: "long-enough", FirstName: "N", LastName: "U", Role: auth.RoleHR}

	_, err := w.svc.Create(context.Background(), actorFor(w.hr), in)
	require.ErrorIs(t, err, httpx.ErrForbidden)
	_, err = w.svc.Create(context.Background(), actorFor(w.emp), in)
	require.ErrorIs(t, err, httpx.ErrForbidden)

	got, err := w.svc.Create(context.Background(), actorFor(w.admin), in)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	in.Role = auth.RoleEmployee
	_, err = w.svc.Create(context.Background(), actorFor(w.hr), in)
	require.NoError(t, err)

	require.Len(t, w.audit.entries, 2)
	assert.Equal(t, "user.create", w.audit.entries[0].Action)
	assert.Equal(t, "new@odyssey.test", w.audit.entries[0].Meta["email"])
}

func TestGetSelfOrViewer(t *testing.T) {
	w := newWorld()

	_, err := w.svc.Get(context.Background(), actorFor(w.emp), w.emp.ProfileID)
	require.NoError(t, err)
	_, err = w.svc.Get(context.Background(), actorFor(w.emp), w.emp2.ProfileID)
	require.ErrorIs(t, err, httpx.ErrForbidden)
	_, err = w.svc.Get(context.Background(), actorFor(w.hr), w.emp2.ProfileID)
	require.NoError(t, err)
	_, err = w.svc.Get(context.Background(), actorFor(w.hr), uuid.New())
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func strp(s string) *string { return &s }

func TestUpdateRules(t *testing.T) {
	w := newWorld()
	ctx := context.Background()

	_, err := w.svc.Update(ctx, actorFor(w.emp), w.emp.ProfileID, Update{})
	require.ErrorIs(t, err, ErrNoChanges)

	got, err := w.svc.Update(ctx, actorFor(w.emp), w.emp.ProfileID, Update{Phone: strp("+62 811")})
	require.NoError(t, err)
	assert.Equal(t, "+62 811", *got.Phone)

	_, err = w.svc.Update(ctx, actorFor(w.emp), w.emp.ProfileID, Update{EmploymentStatus: strp("terminated")})
	require.ErrorIs(t, err, httpx.ErrForbidden)

	_, err = w.svc.Update(ctx, actorFor(w.emp), w.emp2.ProfileID, Update{Phone: strp("1")})
	require.ErrorIs(t, err, httpx.ErrForbidden)

	got, err = w.svc.Update(ctx, actorFor(w.hr), w.emp.ProfileID, Update{EmploymentStatus: strp(" On_Leave ")})
	require.NoError(t, err)
	assert.Equal(t, "on_leave", got.EmploymentStatus)

	_, err = w.svc.Update(ctx, actorFor(w.hr), w.emp.ProfileID, Update{EmploymentStatus: strp("retired")})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = w.svc.Update(ctx, actorFor(w.hr), w.emp.ProfileID, Update{FirstName: strp("  ")})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = w.svc.Update(ctx, actorFor(w.hr), w.admin.ProfileID, Update{LastName: strp("X")})
	require.ErrorIs(t, err, httpx.ErrForbidden)

	_, err = w.svc.Update(ctx, actorFor(w.admin), w.hr.ProfileID, Update{LastName: strp("X")})
	require.NoError(t, err)

	require.Len(t, w.repo.audits, 3)
	assert.Equal(t, []string{"phone"}, w.repo.audits[0].Meta["fields"])
}

func TestListClampsPaging(t *testing.T) {
	w := newWorld()
	_, err := w.svc.List(context.Background(), ListFilter{Limit: 10000, Offset: -4})
	require.NoError(t, err)
	assert.Equal(t, maxPageSize, w.repo.lastList.Limit)
	assert.Zero(t, w.repo.lastList.Offset)

	got, err := w.svc.List(context.Background(), ListFilter{Role: auth.RoleHR})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, defaultPageSize, w.repo.lastList.Limit)
}
