package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-hrms/internal/sessionstore"
)

// DefaultSessionTTL is the lifetime of a session issued by Login.
const DefaultSessionTTL = 7 * 24 * time.Hour

// RoleFallback decides what SessionUser does when a user has no role row.
type RoleFallback string

const (
	// FallbackEmployee grants the least privileged role.
	FallbackEmployee RoleFallback = "employee"
	// FallbackNone treats the session as unauthenticated.
	FallbackNone RoleFallback = "none"
)

// Config tunes the Service.
type Config struct {
	SessionTTL   time.Duration
	RoleFallback RoleFallback
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithTokenSource overrides session token generation.
func WithTokenSource(fn func() (string, error)) Option {
	return func(s *Service) { s.newToken = fn }
}

// WithLogger sets the logger used for fault diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// Service implements table-based authentication: every step is a call
// against the profiles, user_roles and sessions tables.
type Service struct {
	repo     Repository
	hasher   PasswordHasher
	ttl      time.Duration
	fallback RoleFallback
	now      func() time.Time
	newToken func() (string, error)
	logger   *slog.Logger
}

// NewService constructs a new Service.
func NewService(repo Repository, hasher PasswordHasher, cfg Config, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		hasher:   hasher,
		ttl:      cfg.SessionTTL,
		fallback: cfg.RoleFallback,
		now:      time.Now,
		newToken: GenerateToken,
		logger:   slog.Default(),
	}
	if s.ttl <= 0 {
		s.ttl = DefaultSessionTTL
	}
	if s.fallback == "" {
		s.fallback = FallbackEmployee
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login verifies credentials, issues a session and persists its token in store.
func (s *Service) Login(ctx context.Context, store sessionstore.Store, email, password string) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	profile, err := s.repo.FindProfileByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, s.fault("login: find profile", ErrLoginFailed, err)
	}
	if profile.PasswordHash == "" {
		s.logger.Warn("login: profile has no password hash", slog.String("profile_id", profile.ID.String()))
		return nil, ErrAccountNotConfigured
	}

	ok, err := s.hasher.Verify(ctx, password, profile.PasswordHash)
	if err != nil {
		return nil, s.fault("login: verify password", ErrVerifyFailed, err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	role, err := s.repo.FindRole(ctx, profile.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.Error("login: profile has no role", slog.String("user_id", profile.UserID.String()))
			return nil, ErrRoleNotFound
		}
		return nil, s.fault("login: find role", ErrLoginFailed, err)
	}

	token, err := s.newToken()
	if err != nil {
		return nil, s.fault("login: generate token", ErrSessionCreateFailed, err)
	}
	now := s.now()
	session := Session{Token: token, ProfileID: profile.ID, ExpiresAt: now.Add(s.ttl), CreatedAt: now}
	if err := s.repo.InsertSession(ctx, session); err != nil {
		return nil, s.fault("login: insert session", ErrSessionCreateFailed, err)
	}

	if err := store.Save(ctx, sessionstore.Entry{Token: token, UserID: profile.UserID.String()}); err != nil {
		if delErr := s.repo.DeleteSession(ctx, token); delErr != nil && !errors.Is(delErr, ErrNotFound) {
			s.logger.Warn("login: discard unsaved session", slog.Any("error", delErr))
		}
		return nil, s.fault("login: persist session", ErrLoginFailed, err)
	}

	return newUserView(profile, role), nil
}

// Logout deletes the stored session (best-effort) and always clears store.
func (s *Service) Logout(ctx context.Context, store sessionstore.Store) {
	entry, err := store.Load(ctx)
	switch {
	case err == nil && entry.Token != "":
		if err := s.repo.DeleteSession(ctx, entry.Token); err != nil && !errors.Is(err, ErrNotFound) {
			s.logger.Warn("logout: delete session", slog.Any("error", err))
		}
	case err != nil && !errors.Is(err, sessionstore.ErrEmpty):
		s.logger.Warn("logout: load session store", slog.Any("error", err))
	}
	s.clearStore(ctx, store)
}

// SessionUser resolves the stored token to a user. Expired sessions are
// deleted on access; any fault yields no user.
func (s *Service) SessionUser(ctx context.Context, store sessionstore.Store) (*User, bool) {
	entry, err := store.Load(ctx)
	if err != nil {
		if !errors.Is(err, sessionstore.ErrEmpty) {
			s.logger.Warn("session: load session store", slog.Any("error", err))
		}
		return nil, false
	}
	if entry.Token == "" {
		return nil, false
	}

	session, err := s.repo.FindSession(ctx, entry.Token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.clearStore(ctx, store)
			return nil, false
		}
		s.logger.Warn("session: find session", slog.Any("error", err))
		return nil, false
	}

	if !session.ExpiresAt.After(s.now()) {
		if err := s.repo.DeleteSession(ctx, session.Token); err != nil && !errors.Is(err, ErrNotFound) {
			s.logger.Warn("session: delete expired session", slog.Any("error", err))
		}
		s.clearStore(ctx, store)
		return nil, false
	}

	profile, err := s.repo.FindProfileByID(ctx, session.ProfileID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("session: find profile", slog.Any("error", err))
		}
		return nil, false
	}

	role, err := s.repo.FindRole(ctx, profile.UserID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("session: find role", slog.Any("error", err))
			return nil, false
		}
		if s.fallback == FallbackNone {
			s.logger.Warn("session: profile has no role, rejecting", slog.String("user_id", profile.UserID.String()))
			return nil, false
		}
		s.logger.Warn("session: profile has no role, defaulting", slog.String("user_id", profile.UserID.String()), slog.String("role", string(RoleEmployee)))
		role = RoleEmployee
	}

	return newUserView(profile, role), true
}

// CreateUser registers an hr or employee account. The profile and role
// inserts are not transactional: a failed role insert deletes the profile.
func (s *Service) CreateUser(ctx context.Context, in NewUser) (Created, error) {
	email := NormalizeEmail(in.Email)
	firstName := strings.TrimSpace(in.FirstName)
	lastName := strings.TrimSpace(in.LastName)
	if email == "" || in.Password == "" || firstName == "" || lastName == "" {
		return Created{}, ErrMissingFields
	}
	if in.Role != RoleHR && in.Role != RoleEmployee {
		return Created{}, ErrInvalidRole
	}

	_, err := s.repo.FindProfileByEmail(ctx, email)
	switch {
	case err == nil:
		return Created{}, ErrEmailTaken
	case !errors.Is(err, ErrNotFound):
		return Created{}, s.fault("create user: find profile", ErrCreateFailed, err)
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return Created{}, s.fault("create user: hash password", ErrHashFailed, err)
	}
	if hash == "" {
		s.logger.Error("create user: hash password returned empty result")
		return Created{}, ErrHashFailed
	}

	joining := s.now()
	if in.JoiningDate != nil {
		joining = *in.JoiningDate
	}
	status := strings.TrimSpace(in.EmploymentStatus)
	if status == "" {
		status = DefaultEmploymentStatus
	}

	userID := uuid.New()
	profile, err := s.repo.InsertProfile(ctx, Profile{
		UserID:             userID,
		Email:              email,
		FirstName:          firstName,
		LastName:           lastName,
		PasswordHash:       hash,
		Phone:              in.Phone,
		DepartmentID:       in.DepartmentID,
		DesignationID:      in.DesignationID,
		DateOfBirth:        in.DateOfBirth,
		JoiningDate:        truncateDay(joining),
		EmployeeID:         in.EmployeeID,
		ReportingManagerID: in.ReportingManagerID,
		EmploymentStatus:   status,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			return Created{}, ErrEmailTaken
		}
		insertErr := &Error{Code: CodeProfileInsertFailed, Message: err.Error()}
		return Created{}, s.fault("create user: insert profile", insertErr, err)
	}

	if err := s.repo.InsertRole(ctx, userID, in.Role); err != nil {
		if delErr := s.repo.DeleteProfile(ctx, profile.ID); delErr != nil {
			s.logger.Error("create user: compensate profile insert",
				slog.String("profile_id", profile.ID.String()), slog.Any("error", delErr))
		}
		return Created{}, s.fault("create user: insert role", ErrRoleAssignFailed, err)
	}

	return Created{UserID: userID, ProfileID: profile.ID}, nil
}

// UpdatePassword replaces a profile's password hash. It performs no
// authorization; callers must decide who may change whose password.
func (s *Service) UpdatePassword(ctx context.Context, profileID uuid.UUID, newPassword string) error {
	if newPassword == "" {
		return ErrMissingFields
	}
	hash, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return s.fault("update password: hash password", ErrHashFailed, err)
	}
	if hash == "" {
		s.logger.Error("update password: hash password returned empty result")
		return ErrHashFailed
	}
	if err := s.repo.UpdatePasswordHash(ctx, profileID, hash); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrProfileNotFound
		}
		return s.fault("update password: update hash", ErrPasswordUpdateFailed, err)
	}
	return nil
}

// ReapExpiredSessions deletes every session that has already expired.
func (s *Service) ReapExpiredSessions(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpiredSessions(ctx, s.now())
}

func (s *Service) clearStore(ctx context.Context, store sessionstore.Store) {
	if err := store.Clear(ctx); err != nil {
		s.logger.Warn("clear session store", slog.Any("error", err))
	}
}

func (s *Service) fault(op string, result *Error, cause error) error {
	s.logger.Error(op, slog.Any("error", cause))
	return result.withCause(cause)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
