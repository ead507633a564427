package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Dominic-Harvey/event-scheduler/internal/domain/event"
	"github.com/Dominic-Harvey/event-scheduler/internal/domain/transaction"
	"github.com/Dominic-Harvey/event-scheduler/internal/infrastructure/database"
)

// scheduleLockKey は pg_advisory_xact_lock に渡すスケジュール全体のロックキー
const scheduleLockKey int64 = 0x6576656e74 // "event"

// PostgreSQL のエラーコード
const (
	codeExclusionViolation = "23P01"
	codeCheckViolation     = "23514"
)

// eventRow はDBの行を表す構造体
type eventRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	StartTime time.Time `db:"start_time"`
	EndTime   time.Time `db:"end_time"`
	CreatedAt time.Time `db:"created_at"`
}

// toEntity はeventRowをEventエンティティに変換する
func (r *eventRow) toEntity() *event.Event {
	return &event.Event{
		ID:        r.ID,
		Name:      r.Name,
		StartTime: r.StartTime.UTC(),
		EndTime:   r.EndTime.UTC(),
		CreatedAt: r.CreatedAt.UTC(),
	}
}

func toEntities(rows []eventRow) []*event.Event {
	events := make([]*event.Event, len(rows))
	for i := range rows {
		events[i] = rows[i].toEntity()
	}
	return events
}

// EventRepository はイベントリポジトリのPostgreSQL実装
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository はEventRepositoryを作成する
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create は新しいイベントを作成する
func (r *EventRepository) Create(ctx context.Context, tx transaction.Tx, e *event.Event) error {
	query := `
		INSERT INTO events (name, start_time, end_time, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	q := database.Querier(r.db, tx)

	var id string
	if err := q.QueryRowxContext(ctx, query, e.Name, e.StartTime, e.EndTime, e.CreatedAt).Scan(&id); err != nil {
		return translateError("イベント作成", err)
	}
	e.ID = id
	return nil
}

// GetByID はIDからイベントを取得する
func (r *EventRepository) GetByID(ctx context.Context, id string) (*event.Event, error) {
	// 標準形式の UUID 以外は存在しないものとして扱う
	if !isCanonicalUUID(id) {
		return nil, event.ErrEventNotFound
	}

	query := `SELECT id, name, start_time, end_time, created_at FROM events WHERE id = $1`

	var row eventRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, event.ErrEventNotFound
		}
		return nil, translateError("イベント取得", err)
	}
	return row.toEntity(), nil
}

// List は全イベントを開始時刻順に取得する
func (r *EventRepository) List(ctx context.Context) ([]*event.Event, error) {
	query := `
		SELECT id, name, start_time, end_time, created_at
		FROM events
		ORDER BY start_time, id
	`

	var rows []eventRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, translateError("イベント一覧取得", err)
	}
	return toEntities(rows), nil
}

// FindOverlappingCandidates は境界を含めて [start, end] と交差するイベントを取得する
func (r *EventRepository) FindOverlappingCandidates(ctx context.Context, tx transaction.Tx, start, end time.Time) ([]*event.Event, error) {
	query := `
		SELECT id, name, start_time, end_time, created_at
		FROM events
		WHERE start_time <= $2 AND end_time >= $1
		ORDER BY start_time, id
	`

	var rows []eventRow
	if err := sqlx.SelectContext(ctx, database.Querier(r.db, tx), &rows, query, start, end); err != nil {
		return nil, translateError("期間内イベント取得", err)
	}
	return toEntities(rows), nil
}

// LockSchedule はトランザクション終了まで有効なアドバイザリロックを取得する
func (r *EventRepository) LockSchedule(ctx context.Context, tx transaction.Tx) error {
	sqlxTx := database.UnwrapTx(tx)
	if sqlxTx == nil {
		return fmt.Errorf("スケジュールロックにはトランザクションが必要です: %w", event.ErrPersistence)
	}
	if _, err := sqlxTx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, scheduleLockKey); err != nil {
		return translateError("スケジュールロック取得", err)
	}
	return nil
}

// isCanonicalUUID は id が 8-4-4-4-12 形式の UUID かを返す
// uuid.Parse は urn:uuid: や波括弧付きも受け付けるため長さも確認する
func isCanonicalUUID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// translateError はドライバーのエラーをドメインエラーに変換する
func translateError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeExclusionViolation:
			return fmt.Errorf("%s: %w", op, event.ErrEventConflict)
		case codeCheckViolation:
			return fmt.Errorf("%s: %w", op, event.ErrInvalidInterval)
		}
	}
	return fmt.Errorf("%sに失敗しました: %w: %w", op, event.ErrPersistence, err)
}

// インターフェースを満たしているか確認
var _ event.Repository = (*EventRepository)(nil)
