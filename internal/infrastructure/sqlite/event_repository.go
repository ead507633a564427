package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Dominic-Harvey/event-scheduler/internal/domain/event"
	"github.com/Dominic-Harvey/event-scheduler/internal/domain/transaction"
	"github.com/Dominic-Harvey/event-scheduler/internal/infrastructure/database"
)

// timeLayout は文字列比較で時系列順になる固定長のUTC表現
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

type eventRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	StartTime string `db:"start_time"`
	EndTime   string `db:"end_time"`
	CreatedAt string `db:"created_at"`
}

func (r *eventRow) toEntity() (*event.Event, error) {
	start, err := time.Parse(timeLayout, r.StartTime)
	if err != nil {
		return nil, fmt.Errorf("start_time の解析に失敗しました: %w", err)
	}
	end, err := time.Parse(timeLayout, r.EndTime)
	if err != nil {
		return nil, fmt.Errorf("end_time の解析に失敗しました: %w", err)
	}
	created, err := time.Parse(timeLayout, r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("created_at の解析に失敗しました: %w", err)
	}
	return &event.Event{
		ID:        r.ID,
		Name:      r.Name,
		StartTime: start,
		EndTime:   end,
		CreatedAt: created,
	}, nil
}

func toEntities(rows []eventRow) ([]*event.Event, error) {
	events := make([]*event.Event, 0, len(rows))
	for i := range rows {
		e, err := rows[i].toEntity()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", event.ErrPersistence, err)
		}
		events = append(events, e)
	}
	return events, nil
}

// EventRepository はイベントリポジトリのSQLite実装
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository はEventRepositoryを作成する
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create は新しいイベントを作成する
func (r *EventRepository) Create(ctx context.Context, tx transaction.Tx, e *event.Event) error {
	query := `INSERT INTO events (id, name, start_time, end_time, created_at) VALUES (?, ?, ?, ?, ?)`

	id := uuid.NewString()
	_, err := database.Querier(r.db, tx).ExecContext(ctx, query,
		id, e.Name, formatTime(e.StartTime), formatTime(e.EndTime), formatTime(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("イベント作成に失敗しました: %w: %w", event.ErrPersistence, err)
	}
	e.ID = id
	return nil
}

// GetByID はIDからイベントを取得する
func (r *EventRepository) GetByID(ctx context.Context, id string) (*event.Event, error) {
	query := `SELECT id, name, start_time, end_time, created_at FROM events WHERE id = ?`

	var row eventRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, event.ErrEventNotFound
		}
		return nil, fmt.Errorf("イベント取得に失敗しました: %w: %w", event.ErrPersistence, err)
	}
	e, err := row.toEntity()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", event.ErrPersistence, err)
	}
	return e, nil
}

// List は全イベントを開始時刻順に取得する
func (r *EventRepository) List(ctx context.Context) ([]*event.Event, error) {
	query := `SELECT id, name, start_time, end_time, created_at FROM events ORDER BY start_time, id`

	var rows []eventRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("イベント一覧取得に失敗しました: %w: %w", event.ErrPersistence, err)
	}
	return toEntities(rows)
}

// FindOverlappingCandidates は境界を含めて [start, end] と交差するイベントを取得する
func (r *EventRepository) FindOverlappingCandidates(ctx context.Context, tx transaction.Tx, start, end time.Time) ([]*event.Event, error) {
	query := `
		SELECT id, name, start_time, end_time, created_at
		FROM events
		WHERE start_time <= ? AND end_time >= ?
		ORDER BY start_time, id
	`

	var rows []eventRow
	err := sqlx.SelectContext(ctx, database.Querier(r.db, tx), &rows, query, formatTime(end), formatTime(start))
	if err != nil {
		return nil, fmt.Errorf("期間内イベント取得に失敗しました: %w: %w", event.ErrPersistence, err)
	}
	return toEntities(rows)
}

// LockSchedule は何もしない。接続が1本のため、トランザクションは既に直列化されている。
func (r *EventRepository) LockSchedule(ctx context.Context, tx transaction.Tx) error {
	return nil
}

var _ event.Repository = (*EventRepository)(nil)
