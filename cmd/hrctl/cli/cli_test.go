package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-hrms/internal/auth"
	"github.com/odyssey-erp/odyssey-hrms/internal/sessionstore"
)

type fakeAuth struct {
	mu       sync.Mutex
	users    map[string]*auth.User
	password string
	sessions map[string]*auth.User
	reaped   int64
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{
		users: map[string]*auth.User{
			"admin@odyssey.test": {ID: uuid.New(), ProfileID: uuid.New(), Email: "admin@odyssey.test", FirstName: "Ayu", LastName: "Lestari", Role: auth.RoleAdmin},
			"emp@odyssey.test":   {ID: uuid.New(), ProfileID: uuid.New(), Email: "emp@odyssey.test", FirstName: "Budi", LastName: "Santoso", Role: auth.RoleEmployee},
		},
		password: "s3cret-pass",
		sessions: map[string]*auth.User{},
		reaped:   3,
	}
}

func (f *fakeAuth) Login(ctx context.Context, store sessionstore.Store, email, password string) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[auth.NormalizeEmail(email)]
	if !ok || password != f.password {
		return nil, auth.ErrInvalidCredentials
	}
	token := "tok-" + user.Email
	f.sessions[token] = user
	if err := store.Save(ctx, sessionstore.Entry{Token: token, UserID: user.ID.String()}); err != nil {
		return nil, err
	}
	return user, nil
}

func (f *fakeAuth) SessionUser(ctx context.Context, store sessionstore.Store) (*auth.User, bool) {
	entry, err := store.Load(ctx)
	if err != nil {
		return nil, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.sessions[entry.Token]
	return user, ok
}

func (f *fakeAuth) Logout(ctx context.Context, store sessionstore.Store) {
	if entry, err := store.Load(ctx); err == nil {
		f.mu.Lock()
		delete(f.sessions, entry.Token)
		f.mu.Unlock()
	}
	_ = store.Clear(ctx)
}

func (f *fakeAuth) ReapExpiredSessions(ctx context.Context) (int64, error) {
	return f.reaped, nil
}

type fakeUsers struct {
	created  []auth.NewUser
	actor    *auth.User
	password map[uuid.UUID]string
	err      error
}

func (u *fakeUsers) Create(ctx context.Context, actor *auth.User, in auth.NewUser) (auth.Created, error) {
	if u.err != nil {
		return auth.Created{}, u.err
	}
	u.actor = actor
	u.created = append(u.created, in)
	return auth.Created{UserID: uuid.New(), ProfileID: uuid.New()}, nil
}

func (u *fakeUsers) ChangePassword(ctx context.Context, actor *auth.User, profileID uuid.UUID, newPassword string) error {
	if u.password == nil {
		u.password = map[uuid.UUID]string{}
	}
	u.actor = actor
	u.password[profileID] = newPassword
	return nil
}

type fakeEnqueuer struct {
	requestedBy string
}

func (e *fakeEnqueuer) EnqueueSessionReap(ctx context.Context, requestedBy string) (*asynq.TaskInfo, error) {
	e.requestedBy = requestedBy
	return &asynq.TaskInfo{ID: "task-1", Queue: "default"}, nil
}

type harness struct {
	auth     *fakeAuth
	users    *fakeUsers
	enqueuer *fakeEnqueuer
	store    *sessionstore.MemoryStore
	closed   int
	opts     GlobalOptions
}

func newHarness() *harness {
	return &harness{
		auth:     newFakeAuth(),
		users:    &fakeUsers{},
		enqueuer: &fakeEnqueuer{},
		store:    sessionstore.NewMemoryStore(),
	}
}

func (h *harness) bootstrap(ctx context.Context, opts GlobalOptions) (*Env, error) {
	h.opts = opts
	return &Env{
		Auth:     h.auth,
		Users:    h.users,
		Store:    h.store,
		Enqueuer: h.enqueuer,
		Close:    func() error { h.closed++; return nil },
	}, nil
}

func (h *harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(h.bootstrap)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) login(t *testing.T, email string) {
	t.Helper()
	_, err := h.run(t, "", "login", "--email", email, "--password", "s3cret-pass")
	require.NoError(t, err)
}

func TestLoginPersistsSession(t *testing.T) {
	h := newHarness()
	out, err := h.run(t, "", "login", "-e", "Admin@Odyssey.test", "-p", "s3cret-pass")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as admin@odyssey.test")
	assert.Contains(t, out, "Role:    admin")
	assert.Equal(t, 1, h.closed)

	entry, err := h.store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-admin@odyssey.test", entry.Token)
}

func TestLoginPromptsForMissingValues(t *testing.T) {
	h := newHarness()
	out, err := h.run(t, "emp@odyssey.test\ns3cret-pass\n", "login")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as emp@odyssey.test")
}

func TestLoginInvalidCredentials(t *testing.T) {
	h := newHarness()
	_, err := h.run(t, "", "login", "-e", "emp@odyssey.test", "-p", "nope")
	require.Error(t, err)
	assert.Equal(t, auth.ErrInvalidCredentials.Message, err.Error())
	_, loadErr := h.store.Load(context.Background())
	assert.ErrorIs(t, loadErr, sessionstore.ErrEmpty)
}

func TestWhoamiAndLogout(t *testing.T) {
	h := newHarness()
	_, err := h.run(t, "", "whoami")
	assert.ErrorIs(t, err, ErrNotSignedIn)

	h.login(t, "emp@odyssey.test")
	out, err := h.run(t, "", "whoami", "-o", "json")
	require.NoError(t, err)
	var user auth.User
	require.NoError(t, json.Unmarshal([]byte(out), &user))
	assert.Equal(t, auth.RoleEmployee, user.Role)

	out, err = h.run(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out")
	_, err = h.run(t, "", "whoami")
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestUnknownOutputFormat(t *testing.T) {
	h := newHarness()
	_, err := h.run(t, "", "whoami", "-o", "yaml")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestClientIDReachesBootstrap(t *testing.T) {
	h := newHarness()
	h.login(t, "emp@odyssey.test")
	_, err := h.run(t, "", "whoami", "--client-id", "kiosk-7")
	require.NoError(t, err)
	assert.Equal(t, "kiosk-7", h.opts.ClientID)
}

func TestUsersCreate(t *testing.T) {
	h := newHarness()
	_, err := h.run(t, "", "users", "create", "--email", "new@odyssey.test", "--password", "p", "--first-name", "N", "--last-name", "E")
	assert.ErrorIs(t, err, ErrNotSignedIn)

	h.login(t, "admin@odyssey.test")
	manager := uuid.New()
	out, err := h.run(t, "", "users", "create",
		"--email", "new@odyssey.test", "--password", "initial-pass",
		"--first-name", "Nina", "--last-name", "Eka", "--role", "hr",
		"--phone", "+62 811", "--manager", manager.String(), "--joining-date", "2026-01-05")
	require.NoError(t, err)
	assert.Contains(t, out, "Created new@odyssey.test (hr)")

	require.Len(t, h.users.created, 1)
	in := h.users.created[0]
	assert.Equal(t, auth.RoleHR, in.Role)
	require.NotNil(t, in.Phone)
	assert.Equal(t, "+62 811", *in.Phone)
	require.NotNil(t, in.ReportingManagerID)
	assert.Equal(t, manager, *in.ReportingManagerID)
	require.NotNil(t, in.JoiningDate)
	assert.Equal(t, "2026-01-05", in.JoiningDate.Format(dateLayout))
	assert.Equal(t, "admin@odyssey.test", h.users.actor.Email)
}

func TestUsersCreateRejectsBadInput(t *testing.T) {
	h := newHarness()
	h.login(t, "admin@odyssey.test")
	base := []string{"users", "create", "--email", "x@odyssey.test", "--password", "p", "--first-name", "X", "--last-name", "Y"}

	_, err := h.run(t, "", append(base, "--manager", "not-a-uuid")...)
	assert.ErrorContains(t, err, "invalid --manager")
	_, err = h.run(t, "", append(base, "--joining-date", "05/01/2026")...)
	assert.ErrorContains(t, err, "invalid --joining-date")

	h.users.err = auth.ErrEmailTaken
	_, err = h.run(t, "", base...)
	require.Error(t, err)
	assert.Equal(t, auth.ErrEmailTaken.Message, err.Error())
}

func TestUsersSetPassword(t *testing.T) {
	h := newHarness()
	h.login(t, "admin@odyssey.test")
	target := uuid.New()

	out, err := h.run(t, "fresh-password\n", "users", "set-password", target.String())
	require.NoError(t, err)
	assert.Contains(t, out, "Password updated")
	assert.Equal(t, "fresh-password", h.users.password[target])

	_, err = h.run(t, "", "users", "set-password", "bogus", "-p", "x")
	assert.ErrorContains(t, err, "invalid profile id")
}

func TestSessionsReapInline(t *testing.T) {
	h := newHarness()
	h.login(t, "admin@odyssey.test")
	out, err := h.run(t, "", "sessions", "reap")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 3 expired sessions")
}

func TestSessionsReapEnqueue(t *testing.T) {
	h := newHarness()
	h.login(t, "admin@odyssey.test")
	out, err := h.run(t, "", "sessions", "reap", "--enqueue", "-o", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"taskId":"task-1","queue":"default"}`, out)
	assert.Equal(t, "admin@odyssey.test", h.enqueuer.requestedBy)
}

func TestSessionsReapNeedsPermission(t *testing.T) {
	h := newHarness()
	h.login(t, "emp@odyssey.test")
	_, err := h.run(t, "", "sessions", "reap")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotSignedIn))
	assert.Contains(t, err.Error(), "may not reap sessions")
}
