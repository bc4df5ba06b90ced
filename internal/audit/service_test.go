package audit

import (
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTimelineRepo struct {
	rows      []TimelineRow
	lastQuery Query
}

func (s *stubTimelineRepo) Timeline(ctx context.Context, q Query) ([]TimelineRow, error) {
	s.lastQuery = q
	return s.rows, nil
}

func mockRow(ts, actor, action, entity, entityID string) TimelineRow {
	at, _ := time.Parse(time.RFC3339, ts)
	return TimelineRow{At: at, Actor: actor, Action: action, Entity: entity, EntityID: entityID}
}

func TestServiceTimelinePaging(t *testing.T) {
	repo := &stubTimelineRepo{rows: []TimelineRow{
		mockRow("2026-03-10T10:00:00Z", "hr@odyssey.test", "user.create", "profile", "1"),
		mockRow("2026-03-09T09:00:00Z", "hr@odyssey.test", "user.update", "profile", "2"),
		mockRow("2026-03-08T08:00:00Z", "hr@odyssey.test", "auth.login", "profile", "3"),
	}}
	svc := NewService(repo)
	result, err := svc.Timeline(context.Background(), TimelineFilters{
		From:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		Actor:    "  hr@odyssey.test ",
		Page:     2,
		PageSize: 2,
	})
	require.NoError(t, err)
	assert.Len(t, result.Rows, 2)
	assert.Equal(t, PagingInfo{Page: 2, PageSize: 2, HasNext: true, PrevPage: 1, NextPage: 3}, result.Paging)
	assert.Equal(t, pgtype.Int4{Int32: 3, Valid: true}, repo.lastQuery.Limit)
	assert.EqualValues(t, 2, repo.lastQuery.Offset)
	assert.Equal(t, pgtype.Text{String: "hr@odyssey.test", Valid: true}, repo.lastQuery.Actor)
	assert.False(t, repo.lastQuery.Entity.Valid)
	assert.True(t, repo.lastQuery.From.Valid)
}

func TestServiceTimelineClampsPageSize(t *testing.T) {
	repo := &stubTimelineRepo{}
	result, err := NewService(repo).Timeline(context.Background(), TimelineFilters{PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, maxPageSize, result.Paging.PageSize)
	assert.Equal(t, 1, result.Paging.Page)
	assert.NotNil(t, result.Rows)
	assert.False(t, repo.lastQuery.From.Valid)
}

func TestServiceExportReturnsAllRows(t *testing.T) {
	repo := &stubTimelineRepo{rows: []TimelineRow{
		mockRow("2026-03-10T10:00:00Z", "actor", "user.update", "profile", "1"),
		mockRow("2026-03-09T09:00:00Z", "actor", "user.password", "profile", "2"),
	}}
	rows, err := NewService(repo).Export(context.Background(), TimelineFilters{From: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, pgtype.Text{}, repo.lastQuery.Actor)
	assert.EqualValues(t, maxExportRows, repo.lastQuery.Limit.Int32)
}

func TestServiceWithoutRepository(t *testing.T) {
	_, err := NewService(nil).Timeline(context.Background(), TimelineFilters{})
	assert.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	actor := uuid.New()
	row := mockRow("2026-03-10T10:00:00Z", "admin@odyssey.test", "auth.login", "profile", "p-1")
	row.ActorID = &actor
	row.Meta = map[string]any{"ip": "10.0.0.1"}

	out, err := WriteCSV([]TimelineRow{row, mockRow("2026-03-11T00:00:00Z", "", "user.create", "profile", "p-2")})
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, []string{"2026-03-10T10:00:00Z", "admin@odyssey.test", actor.String(), "auth.login", "profile", "p-1", `{"ip":"10.0.0.1"}`}, records[1])
	assert.Equal(t, "", records[2][2])
}
