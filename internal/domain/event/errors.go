package event

import "errors"

// Event ドメインのエラー定義
var (
	ErrEventNotFound     = errors.New("イベントが見つかりません")
	ErrEventNameRequired = errors.New("イベント名は必須です")
	ErrEventNameTooLong  = errors.New("イベント名は255文字以内である必要があります")
	ErrInvalidInterval   = errors.New("時間範囲が不正です")
	ErrEventConflict     = errors.New("既存のイベントと時間が重複しています")
	ErrPersistence       = errors.New("ストレージエラー")
)

// IsInvalidInput はクライアント入力に起因するエラーかどうかを返す
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInterval) ||
		errors.Is(err, ErrEventNameRequired) ||
		errors.Is(err, ErrEventNameTooLong)
}
