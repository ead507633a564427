package application

import (
	"context"
	"fmt"

	"github.com/Dominic-Harvey/event-scheduler/internal/domain/event"
	"github.com/Dominic-Harvey/event-scheduler/internal/domain/transaction"
	"github.com/Dominic-Harvey/event-scheduler/internal/pkg/metrics"
)

// ConflictChecker は候補の時間範囲が既存イベントと重なるかを判定する
//
// ストアには境界を含む広めの検索を依頼し、結果を厳密な重複判定で絞り込む。
// 接しているだけのイベントは重複とみなさない。
type ConflictChecker struct {
	eventRepo event.Repository
	metrics   *metrics.Metrics
}

// NewConflictChecker は ConflictChecker を作成する。m は nil でもよい。
func NewConflictChecker(eventRepo event.Repository, m *metrics.Metrics) *ConflictChecker {
	return &ConflictChecker{eventRepo: eventRepo, metrics: m}
}

// FindConflicts は candidate と重なる既存イベントを返す
func (c *ConflictChecker) FindConflicts(ctx context.Context, tx transaction.Tx, candidate event.Interval) ([]*event.Event, error) {
	stored, err := c.eventRepo.FindOverlappingCandidates(ctx, tx, candidate.Start, candidate.End)
	if err != nil {
		return nil, fmt.Errorf("競合候補の取得に失敗しました: %w", err)
	}
	if c.metrics != nil {
		c.metrics.ConflictCandidates.Observe(float64(len(stored)))
	}
	return event.Overlapping(stored, candidate), nil
}

// HasConflict は candidate と重なる既存イベントが1つでもあれば true を返す
func (c *ConflictChecker) HasConflict(ctx context.Context, tx transaction.Tx, candidate event.Interval) (bool, error) {
	conflicts, err := c.FindConflicts(ctx, tx, candidate)
	if err != nil {
		return false, err
	}
	return len(conflicts) > 0, nil
}
