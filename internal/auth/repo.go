package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindProfileByEmail(ctx context.Context, email string) (Profile, error)
	FindProfileByID(ctx context.Context, id uuid.UUID) (Profile, error)
	InsertProfile(ctx context.Context, profile Profile) (Profile, error)
	DeleteProfile(ctx context.Context, id uuid.UUID) error
	UpdatePasswordHash(ctx context.Context, profileID uuid.UUID, hash string) error
	FindRole(ctx context.Context, userID uuid.UUID) (Role, error)
	InsertRole(ctx context.Context, userID uuid.UUID, role Role) error
	InsertSession(ctx context.Context, session Session) error
	FindSession(ctx context.Context, token string) (Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error)
}

type dbtx interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	db dbtx
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{db: pool}
}

const profileColumns = `id, user_id, email, first_name, last_name, password_hash, phone,
	department_id, designation_id, date_of_birth, joining_date, employee_id,
	reporting_manager_id, employment_status, created_at, updated_at`

// FindProfileByEmail fetches a profile by its normalized email.
func (r *PGRepository) FindProfileByEmail(ctx context.Context, email string) (Profile, error) {
	row := r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE lower(email) = $1`, email)
	return scanProfile(row)
}

// FindProfileByID fetches a profile by its profile id.
func (r *PGRepository) FindProfileByID(ctx context.Context, id uuid.UUID) (Profile, error) {
	row := r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	return scanProfile(row)
}

// InsertProfile stores a new profile and returns it with generated columns.
func (r *PGRepository) InsertProfile(ctx context.Context, p Profile) (Profile, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO profiles (user_id, email, first_name, last_name, password_hash, phone,
			department_id, designation_id, date_of_birth, joining_date, employee_id,
			reporting_manager_id, employment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at`,
		p.UserID, p.Email, p.FirstName, p.LastName, p.PasswordHash, p.Phone,
		p.DepartmentID, p.DesignationID, p.DateOfBirth, p.JoiningDate, p.EmployeeID,
		p.ReportingManagerID, p.EmploymentStatus,
	)
	if err := row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return Profile{}, ErrDuplicate
		}
		return Profile{}, err
	}
	return p, nil
}

// DeleteProfile removes a profile row.
func (r *PGRepository) DeleteProfile(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePasswordHash replaces the stored hash for a profile.
func (r *PGRepository) UpdatePasswordHash(ctx context.Context, profileID uuid.UUID, hash string) error {
	tag, err := r.db.Exec(ctx, `UPDATE profiles SET password_hash = $2, updated_at = NOW() WHERE id = $1`, profileID, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FindRole returns the role assigned to a user.
func (r *PGRepository) FindRole(ctx context.Context, userID uuid.UUID) (Role, error) {
	var role string
	if err := r.db.QueryRow(ctx, `SELECT role FROM user_roles WHERE user_id = $1`, userID).Scan(&role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return Role(role), nil
}

// InsertRole assigns a role to a user.
func (r *PGRepository) InsertRole(ctx context.Context, userID uuid.UUID, role Role) error {
	_, err := r.db.Exec(ctx, `INSERT INTO user_roles (user_id, role) VALUES ($1, $2)`, userID, string(role))
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// InsertSession persists a new session row.
func (r *PGRepository) InsertSession(ctx context.Context, s Session) error {
	_, err := r.db.Exec(ctx, `INSERT INTO sessions (token, profile_id, expires_at, created_at) VALUES ($1, $2, $3, $4)`,
		s.Token, s.ProfileID, s.ExpiresAt.UTC(), s.CreatedAt.UTC())
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// FindSession looks a session up by token.
func (r *PGRepository) FindSession(ctx context.Context, token string) (Session, error) {
	var s Session
	err := r.db.QueryRow(ctx, `SELECT token, profile_id, expires_at, created_at FROM sessions WHERE token = $1`, token).
		Scan(&s.Token, &s.ProfileID, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	return s, nil
}

// DeleteSession removes a session row.
func (r *PGRepository) DeleteSession(ctx context.Context, token string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpiredSessions removes sessions whose expiry is at or before the cutoff.
func (r *PGRepository) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, before.UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanProfile(row pgx.Row) (Profile, error) {
	var (
		p    Profile
		hash *string
	)
	err := row.Scan(&p.ID, &p.UserID, &p.Email, &p.FirstName, &p.LastName, &hash, &p.Phone,
		&p.DepartmentID, &p.DesignationID, &p.DateOfBirth, &p.JoiningDate, &p.EmployeeID,
		&p.ReportingManagerID, &p.EmploymentStatus, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}
	if hash != nil {
		p.PasswordHash = *hash
	}
	return p, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ Repository = (*PGRepository)(nil)
