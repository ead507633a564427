package application

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Dominic-Harvey/event-scheduler/internal/domain/event"
	"github.com/Dominic-Harvey/event-scheduler/internal/domain/transaction"
)

// === Mock implementations ===

// MockTxManager implements transaction.Manager
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(transaction.Tx), args.Error(1)
}

// MockTx implements transaction.Tx
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTx) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// MockEventRepository implements event.Repository
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Create(ctx context.Context, tx transaction.Tx, e *event.Event) error {
	args := m.Called(ctx, tx, e)
	return args.Error(0)
}

func (m *MockEventRepository) GetByID(ctx context.Context, id string) (*event.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.Event), args.Error(1)
}

func (m *MockEventRepository) List(ctx context.Context) ([]*event.Event, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*event.Event), args.Error(1)
}

func (m *MockEventRepository) FindOverlappingCandidates(ctx context.Context, tx transaction.Tx, start, end time.Time) ([]*event.Event, error) {
	args := m.Called(ctx, tx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*event.Event), args.Error(1)
}

func (m *MockEventRepository) LockSchedule(ctx context.Context, tx transaction.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

// MockScheduleLocker implements ScheduleLocker
type MockScheduleLocker struct {
	mock.Mock
	released int
}

func (m *MockScheduleLocker) Lock(ctx context.Context) (func(context.Context) error, error) {
	args := m.Called(ctx)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	releaseErr := args.Error(0)
	return func(context.Context) error {
		m.released++
		return releaseErr
	}, nil
}

// MockEventCache implements EventCache
type MockEventCache struct {
	mock.Mock
}

func (m *MockEventCache) Get(ctx context.Context, id string) (*event.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.Event), args.Error(1)
}

func (m *MockEventCache) Set(ctx context.Context, e *event.Event, ttl time.Duration) error {
	args := m.Called(ctx, e, ttl)
	return args.Error(0)
}

// at は 2030-01-01 の指定時刻（UTC）を返す
func at(hour, minute int) time.Time {
	return time.Date(2030, 1, 1, hour, minute, 0, 0, time.UTC)
}

func storedEvent(id, name string, start, end time.Time) *event.Event {
	return &event.Event{ID: id, Name: name, StartTime: start, EndTime: end, CreatedAt: at(0, 0)}
}
