package event

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxNameLength はイベント名の最大文字数
const MaxNameLength = 255

// Event はスケジュールされたイベントを表す
// 作成後に変更されることはない
type Event struct {
	ID        string
	Name      string
	StartTime time.Time
	EndTime   time.Time
	CreatedAt time.Time
}

// TimePrecision はストアが保持できる時刻の精度（PostgreSQL の TIMESTAMPTZ に合わせる）
const TimePrecision = time.Microsecond

// NewEvent は未永続化のイベントを作成する（IDはストアが採番する）
// 時刻は TimePrecision に切り捨てるため、作成結果と再取得結果は一致する
func NewEvent(name string, startTime, endTime time.Time) *Event {
	return &Event{
		Name:      name,
		StartTime: startTime.Truncate(TimePrecision),
		EndTime:   endTime.Truncate(TimePrecision),
		CreatedAt: time.Now().Truncate(TimePrecision),
	}
}

// Interval はイベントの時間範囲を返す
func (e *Event) Interval() Interval {
	return Interval{Start: e.StartTime, End: e.EndTime}
}

// Validate はイベントの検証を行う
func (e *Event) Validate() error {
	if err := ValidateInterval(e.StartTime, e.EndTime); err != nil {
		return err
	}
	if strings.TrimSpace(e.Name) == "" {
		return ErrEventNameRequired
	}
	if utf8.RuneCountInString(e.Name) > MaxNameLength {
		return ErrEventNameTooLong
	}
	return nil
}

// IsPersisted はストアによってIDが採番済みかを返す
func (e *Event) IsPersisted() bool {
	return e.ID != ""
}
