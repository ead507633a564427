package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dominic-Harvey/event-scheduler/internal/config"
)

// setupTestClient はテスト用のRedisクライアントを返す（未起動時はスキップ）
func setupTestClient(t *testing.T) *redis.Client {
	t.Helper()
	client, err := NewClient(&config.RedisConfig{Host: "localhost", Port: "6379", DB: 15})
	if err != nil {
		t.Skip("Redis not available")
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestLockManager_AcquireLock(t *testing.T) {
	client := setupTestClient(t)
	ctx := context.Background()
	manager := NewLockManager(client)

	t.Run("ロックを取得できる", func(t *testing.T) {
		lock, err := manager.AcquireLock(ctx, "test-key-1", 5*time.Second)
		require.NoError(t, err)
		require.NotNil(t, lock)
		defer lock.Release(ctx)
	})

	t.Run("同じキーのロックは取得できない", func(t *testing.T) {
		lock1, err := manager.AcquireLock(ctx, "test-key-2", 5*time.Second)
		require.NoError(t, err)
		defer lock1.Release(ctx)

		lock2, err := manager.AcquireLock(ctx, "test-key-2", 5*time.Second)
		assert.ErrorIs(t, err, ErrLockNotAcquired)
		assert.Nil(t, lock2)
	})

	t.Run("解放後は再取得できる", func(t *testing.T) {
		lock1, err := manager.AcquireLock(ctx, "test-key-3", 5*time.Second)
		require.NoError(t, err)
		require.NoError(t, lock1.Release(ctx))

		lock2, err := manager.AcquireLock(ctx, "test-key-3", 5*time.Second)
		require.NoError(t, err)
		defer lock2.Release(ctx)
	})

	t.Run("リトライで取得できる", func(t *testing.T) {
		lock1, err := manager.AcquireLock(ctx, "test-key-4", 5*time.Second)
		require.NoError(t, err)

		go func() {
			time.Sleep(300 * time.Millisecond)
			lock1.Release(ctx)
		}()

		lock2, err := manager.AcquireLockWithRetry(ctx, "test-key-4", 5*time.Second, 10, 100*time.Millisecond)
		require.NoError(t, err)
		defer lock2.Release(ctx)
	})

	t.Run("リトライ回数を使い切るとErrLockNotAcquired", func(t *testing.T) {
		lock1, err := manager.AcquireLock(ctx, "test-key-5", 5*time.Second)
		require.NoError(t, err)
		defer lock1.Release(ctx)

		lock2, err := manager.AcquireLockWithRetry(ctx, "test-key-5", 5*time.Second, 2, 10*time.Millisecond)
		assert.ErrorIs(t, err, ErrLockNotAcquired)
		assert.Nil(t, lock2)
	})

	t.Run("期限切れ後の解放はErrLockNotOwned", func(t *testing.T) {
		lock, err := manager.AcquireLock(ctx, "test-key-expire", 100*time.Millisecond)
		require.NoError(t, err)

		time.Sleep(200 * time.Millisecond)

		assert.ErrorIs(t, lock.Release(ctx), ErrLockNotOwned)
	})
}

func TestScheduleLock(t *testing.T) {
	client := setupTestClient(t)
	ctx := context.Background()
	require.NoError(t, client.Del(ctx, "lock:"+scheduleLockKey).Err())

	lock := NewScheduleLock(NewLockManager(client), config.ScheduleConfig{
		LockTTL:        5 * time.Second,
		LockRetries:    50,
		LockRetryDelay: 10 * time.Millisecond,
	})

	t.Run("同時に保持できるのは1つだけ", func(t *testing.T) {
		var holders, maxHolders int32
		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				release, err := lock.Lock(ctx)
				if !assert.NoError(t, err) {
					return
				}
				n := atomic.AddInt32(&holders, 1)
				for {
					cur := atomic.LoadInt32(&maxHolders)
					if n <= cur || atomic.CompareAndSwapInt32(&maxHolders, cur, n) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				atomic.AddInt32(&holders, -1)
				assert.NoError(t, release(ctx))
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), maxHolders)
	})

	t.Run("保持中はリトライなしで失敗する", func(t *testing.T) {
		release, err := lock.Lock(ctx)
		require.NoError(t, err)
		defer release(ctx)

		impatient := NewScheduleLock(NewLockManager(client), config.ScheduleConfig{LockTTL: time.Second})
		_, err = impatient.Lock(ctx)
		assert.ErrorIs(t, err, ErrLockNotAcquired)
	})
}
