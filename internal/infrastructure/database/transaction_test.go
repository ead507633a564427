package database_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dominic-Harvey/event-scheduler/internal/domain/transaction"
	"github.com/Dominic-Harvey/event-scheduler/internal/infrastructure/database"
	"github.com/Dominic-Harvey/event-scheduler/internal/infrastructure/sqlite"
)

func setupDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlite.NewConnection(filepath.Join(t.TempDir(), "tx.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE items (name TEXT NOT NULL)`)
	require.NoError(t, err)
	return db
}

func countItems(t *testing.T, db *sqlx.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM items`))
	return n
}

func TestTxManager(t *testing.T) {
	ctx := context.Background()

	t.Run("コミットした変更は残る", func(t *testing.T) {
		db := setupDB(t)
		m := database.NewTxManager(db)

		err := transaction.Run(ctx, m, func(tx transaction.Tx) error {
			_, err := database.Querier(db, tx).ExecContext(ctx, `INSERT INTO items (name) VALUES (?)`, "a")
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, 1, countItems(t, db))
	})

	t.Run("ロールバックした変更は残らない", func(t *testing.T) {
		db := setupDB(t)
		m := database.NewTxManager(db)
		errAbort := errors.New("abort")

		err := transaction.Run(ctx, m, func(tx transaction.Tx) error {
			if _, err := database.Querier(db, tx).ExecContext(ctx, `INSERT INTO items (name) VALUES (?)`, "a"); err != nil {
				return err
			}
			return errAbort
		})
		require.ErrorIs(t, err, errAbort)
		assert.Equal(t, 0, countItems(t, db))
	})

	t.Run("キャンセル済みのコンテキストでは開始できない", func(t *testing.T) {
		db := setupDB(t)
		m := database.NewTxManager(db)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := m.Begin(cancelled)
		assert.Error(t, err)
	})
}

func TestUnwrapTxAndQuerier(t *testing.T) {
	db := setupDB(t)
	m := database.NewTxManager(db)

	t.Run("nilの場合はDBを返す", func(t *testing.T) {
		assert.Nil(t, database.UnwrapTx(nil))
		assert.Same(t, db, database.Querier(db, nil))
	})

	t.Run("TxWrapperの場合はsqlx.Txを返す", func(t *testing.T) {
		tx, err := m.Begin(context.Background())
		require.NoError(t, err)
		defer tx.Rollback()

		sqlxTx := database.UnwrapTx(tx)
		require.NotNil(t, sqlxTx)
		assert.Same(t, sqlxTx, database.Querier(db, tx))
	})
}
