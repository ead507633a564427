package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Dominic-Harvey/event-scheduler/internal/domain/event"
)

var ErrCacheMiss = errors.New("キャッシュが見つかりません")

// cachedEvent はキャッシュに保存するイベントの表現
type cachedEvent struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	CreatedAt time.Time `json:"created_at"`
}

// EventCache はイベントをIDで引けるキャッシュ
// イベントは作成後に変更されないため無効化は不要
type EventCache struct {
	client *redis.Client
}

// NewEventCache は新しいEventCacheインスタンスを作成する
func NewEventCache(client *redis.Client) *EventCache {
	return &EventCache{client: client}
}

// Get はキャッシュからイベントを取得する
func (c *EventCache) Get(ctx context.Context, id string) (*event.Event, error) {
	raw, err := c.client.Get(ctx, eventKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}

	var ce cachedEvent
	if err := json.Unmarshal(raw, &ce); err != nil {
		return nil, fmt.Errorf("キャッシュの復元に失敗: %w", err)
	}
	return &event.Event{
		ID:        ce.ID,
		Name:      ce.Name,
		StartTime: ce.StartTime.UTC(),
		EndTime:   ce.EndTime.UTC(),
		CreatedAt: ce.CreatedAt.UTC(),
	}, nil
}

// Set はイベントをキャッシュに保存する
func (c *EventCache) Set(ctx context.Context, e *event.Event, ttl time.Duration) error {
	raw, err := json.Marshal(cachedEvent{
		ID:        e.ID,
		Name:      e.Name,
		StartTime: e.StartTime,
		EndTime:   e.EndTime,
		CreatedAt: e.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("キャッシュのシリアライズに失敗: %w", err)
	}
	if err := c.client.Set(ctx, eventKey(e.ID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

func eventKey(id string) string {
	return fmt.Sprintf("events:%s", id)
}
