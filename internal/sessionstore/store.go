// Package sessionstore persists the client-side half of a login: the
// session token and the user id it was issued for.
package sessionstore

import (
	"context"
	"errors"
)

// ErrEmpty indicates that nothing is stored.
var ErrEmpty = errors.New("sessionstore: empty")

// Entry is the persisted session pair.
type Entry struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// Store is a small key-value area holding at most one Entry. Implementations
// are not synchronised across processes; the last writer wins.
type Store interface {
	Load(ctx context.Context) (Entry, error)
	Save(ctx context.Context, entry Entry) error
	Clear(ctx context.Context) error
}
