package db

import (
	"context"
	"fmt"
	"time"
)

const appendEvent = `-- name: AppendEvent :one
INSERT INTO events (id, aggregate_id, aggregate_type, event_type, data, version, created_at)
SELECT ?, ?, ?, ?, ?, COALESCE(MAX(version), 0) + 1, ?
FROM events WHERE aggregate_id = ?
RETURNING version
`

// AppendEventParams はAppendEventの引数。
type AppendEventParams struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Data          string
	CreatedAt     time.Time
}

// AppendEvent はAggregate内の最新バージョンに1を加えてイベントを挿入し、採番したバージョンを返す。
// 採番と挿入は1つの文で行うため、同じAggregateへの同時追記でもバージョンは重複しない。
func (q *Queries) AppendEvent(ctx context.Context, arg AppendEventParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, appendEvent,
		arg.ID,
		arg.AggregateID,
		arg.AggregateType,
		arg.EventType,
		arg.Data,
		arg.CreatedAt.UTC().Format(TimeLayout),
		arg.AggregateID,
	)
	var version int64
	err := row.Scan(&version)
	return version, err
}

const selectEvents = `SELECT id, aggregate_id, aggregate_type, event_type, data, version, created_at FROM events`

const listEvents = `-- name: ListEvents :many
` + selectEvents + `
ORDER BY created_at, rowid
`

// ListEvents は全イベントを記録順に取得する。
func (q *Queries) ListEvents(ctx context.Context) ([]Event, error) {
	return q.queryEvents(ctx, listEvents)
}

const listEventsByAggregateID = `-- name: ListEventsByAggregateID :many
` + selectEvents + `
WHERE aggregate_id = ?
ORDER BY version
`

// ListEventsByAggregateID はAggregateのイベントをバージョン順に取得する。
func (q *Queries) ListEventsByAggregateID(ctx context.Context, aggregateID string) ([]Event, error) {
	return q.queryEvents(ctx, listEventsByAggregateID, aggregateID)
}

const listEventsByType = `-- name: ListEventsByType :many
` + selectEvents + `
WHERE event_type = ?
ORDER BY created_at, rowid
`

// ListEventsByType はイベントタイプに一致するイベントを記録順に取得する。
func (q *Queries) ListEventsByType(ctx context.Context, eventType string) ([]Event, error) {
	return q.queryEvents(ctx, listEventsByType, eventType)
}

const listEventsSince = `-- name: ListEventsSince :many
` + selectEvents + `
WHERE created_at >= ?
ORDER BY created_at, rowid
`

// ListEventsSince は指定日時以降のイベントを記録順に取得する。
func (q *Queries) ListEventsSince(ctx context.Context, since time.Time) ([]Event, error) {
	return q.queryEvents(ctx, listEventsSince, since.UTC().Format(TimeLayout))
}

const getLatestVersion = `-- name: GetLatestVersion :one
SELECT COALESCE(MAX(version), 0) FROM events
WHERE aggregate_id = ?
`

// GetLatestVersion はAggregateの最新バージョンを返す。イベントがない場合は0。
func (q *Queries) GetLatestVersion(ctx context.Context, aggregateID string) (int64, error) {
	row := q.db.QueryRowContext(ctx, getLatestVersion, aggregateID)
	var version int64
	err := row.Scan(&version)
	return version, err
}

func (q *Queries) queryEvents(ctx context.Context, query string, args ...any) ([]Event, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Event{}
	for rows.Next() {
		var (
			i         Event
			createdAt string
		)
		if err := rows.Scan(
			&i.ID,
			&i.AggregateID,
			&i.AggregateType,
			&i.EventType,
			&i.Data,
			&i.Version,
			&createdAt,
		); err != nil {
			return nil, err
		}
		i.CreatedAt, err = time.Parse(TimeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("created_atの解析に失敗: %w", err)
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
