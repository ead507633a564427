// Package sqlite は組み込みSQLiteによるイベントストアを提供する
package sqlite

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const pragmas = "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=journal_mode(WAL)"

// NewConnection はSQLiteデータベースを開く
//
// 接続は1本に制限する。SQLiteの書き込みは元々直列であり、
// トランザクション同士もプールによって直列に実行される。
func NewConnection(path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", path+pragmas)
	if err != nil {
		return nil, fmt.Errorf("データベースのオープンに失敗しました: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("データベース接続に失敗しました: %w", err)
	}
	return db, nil
}
