package handler

import (
	"context"

	"github.com/Dominic-Harvey/event-scheduler/internal/application"
	"github.com/Dominic-Harvey/event-scheduler/internal/domain/event"
)

// EventServiceInterface はイベントサービスのインターフェース
type EventServiceInterface interface {
	CreateEvent(ctx context.Context, input application.CreateEventInput) (*event.Event, error)
	GetEvent(ctx context.Context, id string) (*event.Event, bool, error)
	ListEvents(ctx context.Context, input application.ListEventsInput) ([]*event.Event, error)
}

// Pinger はストアの疎通確認を行う
type Pinger interface {
	PingContext(ctx context.Context) error
}
