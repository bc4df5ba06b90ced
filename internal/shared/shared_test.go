package shared

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSRFTokenBoundToSession(t *testing.T) {
	m := NewCSRFManager("secret")
	token, err := m.Token("session-a")
	require.NoError(t, err)

	again, _ := m.Token("session-a")
	assert.Equal(t, token, again)
	require.NoError(t, m.VerifyToken("session-a", token))

	assert.ErrorIs(t, m.VerifyToken("session-b", token), ErrCSRFTokenMismatch)
	assert.ErrorIs(t, NewCSRFManager("other").VerifyToken("session-a", token), ErrCSRFTokenMismatch)
	assert.ErrorIs(t, m.VerifyToken("session-a", ""), ErrCSRFTokenMissing)
	assert.ErrorIs(t, m.VerifyToken("", token), ErrCSRFTokenMissing)

	_, err = m.Token("")
	assert.ErrorIs(t, err, ErrCSRFTokenMissing)
}

type recordingExecer struct {
	sql  string
	args []any
}

func (r *recordingExecer) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	r.sql = sql
	r.args = args
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func TestAuditLoggerRecord(t *testing.T) {
	db := &recordingExecer{}
	actor := uuid.New()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	err := NewAuditLogger(db).Record(context.Background(), AuditLog{
		ActorID:  actor,
		Action:   "user.create",
		Entity:   "profile",
		EntityID: "p-1",
		Meta:     map[string]any{"role": "hr"},
		At:       at,
	})
	require.NoError(t, err)
	assert.Contains(t, db.sql, "INSERT INTO audit_logs")
	require.Len(t, db.args, 6)
	assert.Equal(t, &actor, db.args[0])
	var meta map[string]any
	require.NoError(t, json.Unmarshal(db.args[4].([]byte), &meta))
	assert.Equal(t, "hr", meta["role"])
	assert.Equal(t, &at, db.args[5])
}

func TestAuditLoggerValidation(t *testing.T) {
	err := NewAuditLogger(&recordingExecer{}).Record(context.Background(), AuditLog{Action: "x"})
	assert.Error(t, err)

	var nilLogger *AuditLogger
	assert.Error(t, nilLogger.Record(context.Background(), AuditLog{Action: "a", Entity: "b", EntityID: "c"}))
}
