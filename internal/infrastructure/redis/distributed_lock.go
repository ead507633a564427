package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Dominic-Harvey/event-scheduler/internal/config"
)

var (
	ErrLockNotAcquired = errors.New("ロックを取得できませんでした")
	ErrLockNotOwned    = errors.New("ロックの所有者ではありません")
)

// 所有者確認と削除をアトミックに実行する
var releaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

// DistributedLock は Redis を使用した分散ロック
type DistributedLock struct {
	client *redis.Client
	key    string
	value  string
}

// LockManager は分散ロックを管理する
type LockManager struct {
	client *redis.Client
}

func NewLockManager(client *redis.Client) *LockManager {
	return &LockManager{client: client}
}

// AcquireLock はロックを取得する
func (m *LockManager) AcquireLock(ctx context.Context, key string, ttl time.Duration) (*DistributedLock, error) {
	lockKey := fmt.Sprintf("lock:%s", key)
	lockValue := uuid.NewString()

	// キーが存在しない場合のみ設定
	ok, err := m.client.SetNX(ctx, lockKey, lockValue, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("ロック取得に失敗: %w", err)
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}

	return &DistributedLock{
		client: m.client,
		key:    lockKey,
		value:  lockValue,
	}, nil
}

// AcquireLockWithRetry はリトライ付きでロックを取得する
// maxRetries が1未満の場合も1回は試行する
func (m *LockManager) AcquireLockWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (*DistributedLock, error) {
	attempts := max(maxRetries, 1)
	for i := 0; ; i++ {
		lock, err := m.AcquireLock(ctx, key, ttl)
		if err == nil {
			return lock, nil
		}
		if !errors.Is(err, ErrLockNotAcquired) || i+1 >= attempts {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
}

// Release はロックを解放する
func (l *DistributedLock) Release(ctx context.Context) error {
	result, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.value).Int()
	if err != nil {
		return fmt.Errorf("ロック解放に失敗: %w", err)
	}
	if result == 0 {
		return ErrLockNotOwned
	}
	return nil
}

// scheduleLockKey はスケジュール全体で共有するロックキー
const scheduleLockKey = "schedule"

// ScheduleLock はイベント作成を複数インスタンス間で直列化するロック
type ScheduleLock struct {
	manager    *LockManager
	ttl        time.Duration
	retries    int
	retryDelay time.Duration
}

// NewScheduleLock は設定に従ったスケジュールロックを作成する
func NewScheduleLock(manager *LockManager, cfg config.ScheduleConfig) *ScheduleLock {
	return &ScheduleLock{
		manager:    manager,
		ttl:        cfg.LockTTL,
		retries:    cfg.LockRetries,
		retryDelay: cfg.LockRetryDelay,
	}
}

// Lock はスケジュールロックを取得し、解放関数を返す
func (s *ScheduleLock) Lock(ctx context.Context) (func(context.Context) error, error) {
	lock, err := s.manager.AcquireLockWithRetry(ctx, scheduleLockKey, s.ttl, s.retries, s.retryDelay)
	if err != nil {
		return nil, err
	}
	return lock.Release, nil
}
