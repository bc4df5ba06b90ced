package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher produces and checks one-way password hashes.
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password, hash string) (bool, error)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DatabaseHasher delegates hashing to the hash_password and verify_password
// SQL functions so the algorithm and salt policy live with the schema.
type DatabaseHasher struct {
	db rowQuerier
}

// NewDatabaseHasher constructs a DatabaseHasher over a pool or transaction.
func NewDatabaseHasher(db rowQuerier) *DatabaseHasher {
	return &DatabaseHasher{db: db}
}

// Hash calls hash_password($1).
func (h *DatabaseHasher) Hash(ctx context.Context, password string) (string, error) {
	var hash *string
	if err := h.db.QueryRow(ctx, `SELECT hash_password($1)`, password).Scan(&hash); err != nil {
		return "", fmt.Errorf("auth: hash_password: %w", err)
	}
	if hash == nil {
		return "", nil
	}
	return *hash, nil
}

// Verify calls verify_password($1, $2).
func (h *DatabaseHasher) Verify(ctx context.Context, password, hash string) (bool, error) {
	var ok *bool
	if err := h.db.QueryRow(ctx, `SELECT verify_password($1, $2)`, password, hash).Scan(&ok); err != nil {
		return false, fmt.Errorf("auth: verify_password: %w", err)
	}
	return ok != nil && *ok, nil
}

// BcryptHasher hashes locally with bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher using cost, or bcrypt.DefaultCost when cost is zero.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash returns the bcrypt hash of password.
func (h *BcryptHasher) Hash(ctx context.Context, password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("auth: bcrypt hash: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether password matches hash. A mismatch is not an error.
func (h *BcryptHasher) Verify(ctx context.Context, password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("auth: bcrypt compare: %w", err)
	}
}

var (
	_ PasswordHasher = (*DatabaseHasher)(nil)
	_ PasswordHasher = (*BcryptHasher)(nil)
)
