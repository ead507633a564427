package event

import (
	"fmt"
	"sort"
	"time"
)

// Interval は半開区間 [Start, End) の時間範囲を表す
type Interval struct {
	Start time.Time
	End   time.Time
}

// ValidateInterval は開始・終了時刻の組を検証する
// ゼロ値は未指定として扱う。開始と終了が等しい場合も不正。
func ValidateInterval(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("%w: 開始時刻と終了時刻の両方が必要です", ErrInvalidInterval)
	}
	if !start.Before(end) {
		return fmt.Errorf("%w: 開始時刻は終了時刻より前である必要があります", ErrInvalidInterval)
	}
	return nil
}

// Overlaps は2つの区間が重なるかを判定する
// 一方の終了時刻と他方の開始時刻が等しいだけの場合は重ならない
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && i.End.After(other.Start)
}

func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Overlapping は events のうち interval と重なるものを返す
func Overlapping(events []*Event, interval Interval) []*Event {
	var result []*Event
	for _, e := range events {
		if interval.Overlaps(e.Interval()) {
			result = append(result, e)
		}
	}
	return result
}

// OverlappingPair は重なっているイベントの組
type OverlappingPair struct {
	First  *Event
	Second *Event
}

// FindOverlappingPairs は events 内で互いに重なる組をすべて返す
// 開始時刻順に並べ、各イベントの終了時刻より前に始まる後続だけを走査する
func FindOverlappingPairs(events []*Event) []OverlappingPair {
	sorted := make([]*Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime.Before(sorted[j].StartTime)
	})

	var pairs []OverlappingPair
	for i, a := range sorted {
		for _, b := range sorted[i+1:] {
			if !b.StartTime.Before(a.EndTime) {
				break
			}
			if a.Interval().Overlaps(b.Interval()) {
				pairs = append(pairs, OverlappingPair{First: a, Second: b})
			}
		}
	}
	return pairs
}
