package event

import (
	"context"
	"time"

	"github.com/Dominic-Harvey/event-scheduler/internal/domain/transaction"
)

// Repository はイベントストアのインターフェース
// tx を受け取るメソッドは tx が nil の場合トランザクション外で実行する
type Repository interface {
	// Create は新しいイベントを保存し、採番したIDを e に設定する
	Create(ctx context.Context, tx transaction.Tx, e *Event) error

	// GetByID はIDからイベントを取得する（存在しない場合は ErrEventNotFound）
	GetByID(ctx context.Context, id string) (*Event, error)

	// List は全イベントを開始時刻順に取得する
	List(ctx context.Context) ([]*Event, error)

	// FindOverlappingCandidates は start <= 終了時刻 かつ 開始時刻 <= end の
	// イベントを取得する（境界を含む広めの検索）
	FindOverlappingCandidates(ctx context.Context, tx transaction.Tx, start, end time.Time) ([]*Event, error)

	// LockSchedule は tx が終了するまでスケジュールへの書き込みを直列化する
	LockSchedule(ctx context.Context, tx transaction.Tx) error
}
