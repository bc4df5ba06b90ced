package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-hrms/internal/auth"
	"github.com/odyssey-erp/odyssey-hrms/internal/platform/db"
	"github.com/odyssey-erp/odyssey-hrms/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const employeeColumns = `p.id, p.user_id, p.email, p.first_name, p.last_name, COALESCE(ur.role, ''),
	p.phone, p.department_id, p.designation_id, p.reporting_manager_id, p.employee_id,
	p.date_of_birth, p.joining_date, p.employment_status, p.created_at, p.updated_at`

// List returns profiles ordered by last name.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]Employee, error) {
	var (
		where []string
		args  []any
	)
	if f.Role != "" {
		args = append(args, string(f.Role))
		where = append(where, fmt.Sprintf("ur.role = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("p.employment_status = $%d", len(args)))
	}
	query := `SELECT ` + employeeColumns + ` FROM profiles p LEFT JOIN user_roles ur ON ur.user_id = p.user_id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf(" ORDER BY p.last_name, p.first_name LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()
	var out []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("users: list scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Get fetches one profile.
func (r *Repository) Get(ctx context.Context, profileID uuid.UUID) (Employee, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+employeeColumns+` FROM profiles p LEFT JOIN user_roles ur ON ur.user_id = p.user_id WHERE p.id = $1`, profileID)
	e, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Employee{}, ErrNotFound
		}
		return Employee{}, fmt.Errorf("users: get: %w", err)
	}
	return e, nil
}

// Update applies upd and writes the audit entry in the same transaction.
func (r *Repository) Update(ctx context.Context, profileID uuid.UUID, upd Update, entry shared.AuditLog) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE profiles SET
				first_name = COALESCE($2, first_name),
				last_name = COALESCE($3, last_name),
				phone = COALESCE($4, phone),
				department_id = COALESCE($5, department_id),
				designation_id = COALESCE($6, designation_id),
				reporting_manager_id = COALESCE($7, reporting_manager_id),
				employment_status = COALESCE($8, employment_status),
				updated_at = NOW()
			WHERE id = $1`,
			profileID, upd.FirstName, upd.LastName, upd.Phone, upd.DepartmentID,
			upd.DesignationID, upd.ReportingManagerID, upd.EmploymentStatus)
		if err != nil {
			return fmt.Errorf("users: update: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return shared.NewAuditLogger(tx).Record(ctx, entry)
	})
}

func scanEmployee(row pgx.Row) (Employee, error) {
	var (
		e    Employee
		role string
	)
	err := row.Scan(&e.ProfileID, &e.UserID, &e.Email, &e.FirstName, &e.LastName, &role,
		&e.Phone, &e.DepartmentID, &e.DesignationID, &e.ReportingManagerID, &e.EmployeeID,
		&e.DateOfBirth, &e.JoiningDate, &e.EmploymentStatus, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return Employee{}, err
	}
	e.Role = auth.Role(role)
	return e, nil
}

var _ RepositoryPort = (*Repository)(nil)
