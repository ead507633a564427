package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Dominic-Harvey/event-scheduler/internal/domain/event"
	"github.com/Dominic-Harvey/event-scheduler/internal/domain/transaction"
	redisinfra "github.com/Dominic-Harvey/event-scheduler/internal/infrastructure/redis"
	"github.com/Dominic-Harvey/event-scheduler/internal/pkg/logger"
	"github.com/Dominic-Harvey/event-scheduler/internal/pkg/metrics"
)

// ErrScheduleBusy はスケジュールロックを取得できなかった場合のエラー
var ErrScheduleBusy = errors.New("スケジュールが他のリクエストによって更新中です")

// ScheduleLocker はプロセスをまたいでイベント作成を直列化する
type ScheduleLocker interface {
	Lock(ctx context.Context) (release func(context.Context) error, err error)
}

// EventCache はIDでイベントを引くキャッシュ
type EventCache interface {
	Get(ctx context.Context, id string) (*event.Event, error)
	Set(ctx context.Context, e *event.Event, ttl time.Duration) error
}

// Option は EventService の任意設定
type Option func(*EventService)

// WithScheduleLocker はトランザクション開始前に取得する分散ロックを設定する
func WithScheduleLocker(l ScheduleLocker) Option {
	return func(s *EventService) { s.locker = l }
}

// WithEventCache は GetEvent の読み取りキャッシュを設定する
func WithEventCache(c EventCache, ttl time.Duration) Option {
	return func(s *EventService) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *EventService) { s.metrics = m }
}

type EventService struct {
	txManager transaction.Manager
	eventRepo event.Repository
	checker   *ConflictChecker
	locker    ScheduleLocker
	cache     EventCache
	cacheTTL  time.Duration
	metrics   *metrics.Metrics
}

func NewEventService(txManager transaction.Manager, eventRepo event.Repository, checker *ConflictChecker, opts ...Option) *EventService {
	s := &EventService{
		txManager: txManager,
		eventRepo: eventRepo,
		checker:   checker,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateEventInput struct {
	Name      string
	StartTime time.Time
	EndTime   time.Time
}

// CreateEvent は既存イベントと重ならない場合に限りイベントを作成する
func (s *EventService) CreateEvent(ctx context.Context, input CreateEventInput) (*event.Event, error) {
	e := event.NewEvent(input.Name, input.StartTime, input.EndTime)
	if err := e.Validate(); err != nil {
		s.recordCreation(metrics.CreationInvalid)
		return nil, fmt.Errorf("バリデーションエラー: %w", err)
	}

	if s.locker != nil {
		release, err := s.acquireScheduleLock(ctx)
		if err != nil {
			s.recordCreation(metrics.CreationLockFailed)
			return nil, err
		}
		defer s.releaseScheduleLock(ctx, release)
	}

	err := transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		if err := s.eventRepo.LockSchedule(ctx, tx); err != nil {
			return fmt.Errorf("スケジュールロックに失敗しました: %w", err)
		}

		conflicts, err := s.checker.FindConflicts(ctx, tx, e.Interval())
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			logger.Info("既存イベントと重複するため作成を拒否しました",
				zap.String("name", e.Name),
				zap.Time("start_time", e.StartTime),
				zap.Time("end_time", e.EndTime),
				zap.Strings("conflicting_ids", eventIDs(conflicts)),
			)
			return event.ErrEventConflict
		}

		if err := s.eventRepo.Create(ctx, tx, e); err != nil {
			return fmt.Errorf("イベント作成に失敗しました: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, event.ErrEventConflict) {
			s.recordCreation(metrics.CreationConflict)
		} else {
			s.recordCreation(metrics.CreationError)
		}
		return nil, err
	}

	s.recordCreation(metrics.CreationSuccess)
	logger.Info("イベントを作成しました",
		zap.String("event_id", e.ID),
		zap.String("name", e.Name),
		zap.Duration("duration", e.Interval().Duration()),
	)
	return e, nil
}

type ListEventsInput struct {
	StartTime *time.Time
	EndTime   *time.Time
}

// ListEvents は両方の境界が指定された場合はその範囲に接するイベントを、
// それ以外は全イベントを開始時刻順に返す
func (s *EventService) ListEvents(ctx context.Context, input ListEventsInput) ([]*event.Event, error) {
	if input.StartTime == nil || input.EndTime == nil {
		events, err := s.eventRepo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("イベント一覧取得に失敗しました: %w", err)
		}
		return events, nil
	}

	if err := event.ValidateInterval(*input.StartTime, *input.EndTime); err != nil {
		return nil, fmt.Errorf("バリデーションエラー: %w", err)
	}
	events, err := s.eventRepo.FindOverlappingCandidates(ctx, nil, *input.StartTime, *input.EndTime)
	if err != nil {
		return nil, fmt.Errorf("期間内イベント取得に失敗しました: %w", err)
	}
	return events, nil
}

// GetEvent はIDからイベントを取得する。存在しない場合は false を返す。
func (s *EventService) GetEvent(ctx context.Context, id string) (*event.Event, bool, error) {
	if e := s.getCached(ctx, id); e != nil {
		return e, true, nil
	}

	e, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("イベント取得に失敗しました: %w", err)
	}

	if s.cache != nil {
		if cacheErr := s.cache.Set(ctx, e, s.cacheTTL); cacheErr != nil {
			logger.Warn("キャッシュ保存エラー", zap.String("event_id", id), zap.Error(cacheErr))
		}
	}
	return e, true, nil
}

func (s *EventService) getCached(ctx context.Context, id string) *event.Event {
	if s.cache == nil {
		return nil
	}
	e, err := s.cache.Get(ctx, id)
	switch {
	case err == nil:
		s.recordCacheLookup("hit")
		logger.Debug("キャッシュヒット", zap.String("event_id", id))
		return e
	case errors.Is(err, redisinfra.ErrCacheMiss):
		s.recordCacheLookup("miss")
	default:
		s.recordCacheLookup("error")
		logger.Warn("キャッシュ取得エラー", zap.String("event_id", id), zap.Error(err))
	}
	return nil
}

func (s *EventService) acquireScheduleLock(ctx context.Context) (func(context.Context) error, error) {
	start := time.Now()
	release, err := s.locker.Lock(ctx)
	s.observeLock("acquire", start, err)
	if err != nil {
		logger.Warn("スケジュールロックを取得できませんでした", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrScheduleBusy, err)
	}
	return release, nil
}

// releaseScheduleLock はロックを解放する。失敗してもTTLで自然に失効する。
func (s *EventService) releaseScheduleLock(ctx context.Context, release func(context.Context) error) {
	start := time.Now()
	err := release(context.WithoutCancel(ctx))
	s.observeLock("release", start, err)
	if err != nil {
		logger.Warn("スケジュールロックの解放に失敗しました", zap.Error(err))
	}
}

func (s *EventService) observeLock(operation string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failed"
	}
	s.metrics.ScheduleLockDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
}

func (s *EventService) recordCreation(status string) {
	if s.metrics != nil {
		s.metrics.EventCreationsTotal.WithLabelValues(status).Inc()
	}
}

func (s *EventService) recordCacheLookup(result string) {
	if s.metrics != nil {
		s.metrics.EventCacheLookups.WithLabelValues(result).Inc()
	}
}

func eventIDs(events []*event.Event) []string {
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	return ids
}
