package handler

import (
	"fmt"
	"time"
)

// 受け付ける時刻形式。タイムゾーンのない形式はUTCとして解釈する
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("時刻の形式が不正です: %q", s)
}

// parseOptionalTimestamp は空文字列の場合 nil を返す
func parseOptionalTimestamp(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseTimestamp(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// formatTimestamp は小数秒を保持したままUTCのRFC3339で出力する
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
