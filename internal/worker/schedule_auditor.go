package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Dominic-Harvey/event-scheduler/internal/domain/event"
	"github.com/Dominic-Harvey/event-scheduler/internal/pkg/logger"
	"github.com/Dominic-Harvey/event-scheduler/internal/pkg/metrics"
)

// EventLister は全イベントを取得する
type EventLister interface {
	List(ctx context.Context) ([]*event.Event, error)
}

// ScheduleAuditor は保存済みイベントに重複がないかを定期的に検査するワーカー
//
// 作成時の競合チェックを経ずに書き込まれたデータ（手動投入や移行）を検出するためのもので、
// 見つけた重複はログとメトリクスで報告するだけで修正はしない。
type ScheduleAuditor struct {
	events   EventLister
	metrics  *metrics.Metrics
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// NewScheduleAuditor は新しい監査ワーカーを作成する。m は nil でもよい。
func NewScheduleAuditor(events EventLister, m *metrics.Metrics, interval time.Duration) *ScheduleAuditor {
	return &ScheduleAuditor{
		events:   events,
		metrics:  m,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start は監査を開始する。起動直後に1回実行し、以降は interval ごとに実行する。
func (a *ScheduleAuditor) Start(ctx context.Context) {
	logger.Info("スケジュール監査開始", zap.Duration("interval", a.interval))

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	defer close(a.doneCh)

	a.run(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Info("スケジュール監査停止（コンテキストキャンセル）")
			return
		case <-a.stopCh:
			logger.Info("スケジュール監査停止（シグナル受信）")
			return
		case <-ticker.C:
			a.run(ctx)
		}
	}
}

// Stop は監査を停止し、実行中の検査の終了を待つ
func (a *ScheduleAuditor) Stop() {
	a.stopOnce.Do(func() { close(a.stopCh) })
	<-a.doneCh
}

// Audit は全イベントを走査し、重複しているペアを返す
func (a *ScheduleAuditor) Audit(ctx context.Context) ([]event.OverlappingPair, error) {
	events, err := a.events.List(ctx)
	if err != nil {
		return nil, err
	}
	pairs := event.FindOverlappingPairs(events)
	if a.metrics != nil {
		a.metrics.ScheduleOverlaps.Set(float64(len(pairs)))
	}
	return pairs, nil
}

func (a *ScheduleAuditor) run(ctx context.Context) {
	log := logger.Get()
	log.Debug("スケジュール監査の実行開始")

	pairs, err := a.Audit(ctx)
	if err != nil {
		log.Error("スケジュール監査に失敗", zap.Error(err))
		return
	}

	if len(pairs) == 0 {
		log.Debug("重複イベントなし")
		return
	}
	for _, p := range pairs {
		log.Warn("重複しているイベントを検出",
			zap.String("first_id", p.First.ID),
			zap.String("second_id", p.Second.ID),
			zap.Time("first_end", p.First.EndTime),
			zap.Time("second_start", p.Second.StartTime),
		)
	}
}
