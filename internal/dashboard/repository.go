package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the requested profile does not exist.
var ErrNotFound = errors.New("dashboard: not found")

// Repository runs the read-only dashboard queries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ProfilesByRole counts profiles per role; profiles without a role are
// reported under "unassigned".
func (r *Repository) ProfilesByRole(ctx context.Context) ([]Count, error) {
	return r.counts(ctx, `
		SELECT COALESCE(ur.role, 'unassigned'), COUNT(*)
		FROM profiles p LEFT JOIN user_roles ur ON ur.user_id = p.user_id
		GROUP BY 1 ORDER BY 1`)
}

// HeadcountByStatus counts profiles per employment status.
func (r *Repository) HeadcountByStatus(ctx context.Context) ([]Count, error) {
	return r.counts(ctx, `SELECT employment_status, COUNT(*) FROM profiles GROUP BY 1 ORDER BY 1`)
}

// ActiveSessions counts unexpired sessions at now.
func (r *Repository) ActiveSessions(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sessions WHERE expires_at > $1`, now.UTC()).Scan(&n); err != nil {
		return 0, fmt.Errorf("dashboard: active sessions: %w", err)
	}
	return n, nil
}

// RecentJoiners lists profiles that joined on or after since.
func (r *Repository) RecentJoiners(ctx context.Context, since time.Time, limit int) ([]Joiner, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, first_name, last_name, joining_date FROM profiles
		WHERE joining_date >= $1 ORDER BY joining_date DESC, last_name LIMIT $2`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("dashboard: recent joiners: %w", err)
	}
	defer rows.Close()
	var out []Joiner
	for rows.Next() {
		var j Joiner
		if err := rows.Scan(&j.ProfileID, &j.FirstName, &j.LastName, &j.JoiningDate); err != nil {
			return nil, fmt.Errorf("dashboard: recent joiners scan: %w", err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// Person loads the identity of a profile.
func (r *Repository) Person(ctx context.Context, profileID uuid.UUID) (Person, error) {
	var p Person
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, first_name, last_name, phone, department_id, designation_id,
			joining_date, employment_status, reporting_manager_id
		FROM profiles WHERE id = $1`, profileID).
		Scan(&p.ProfileID, &p.Email, &p.FirstName, &p.LastName, &p.Phone, &p.DepartmentID,
			&p.DesignationID, &p.JoiningDate, &p.EmploymentStatus, &p.ManagerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Person{}, ErrNotFound
		}
		return Person{}, fmt.Errorf("dashboard: person: %w", err)
	}
	return p, nil
}

func (r *Repository) counts(ctx context.Context, query string) ([]Count, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("dashboard: counts: %w", err)
	}
	defer rows.Close()
	var out []Count
	for rows.Next() {
		var c Count
		if err := rows.Scan(&c.Label, &c.Total); err != nil {
			return nil, fmt.Errorf("dashboard: counts scan: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

var _ Store = (*Repository)(nil)
