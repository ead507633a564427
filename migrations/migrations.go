// Package migrations はデータベースごとのスキーマ定義を埋め込む
package migrations

import "embed"

// FS は postgres/ と sqlite/ 配下のマイグレーションSQLを保持する
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS

const (
	PostgresDir = "postgres"
	SQLiteDir   = "sqlite"
)
