package e2e

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/Dominic-Harvey/event-scheduler/internal/api/router"
	"github.com/Dominic-Harvey/event-scheduler/internal/application"
	"github.com/Dominic-Harvey/event-scheduler/internal/infrastructure/database"
	"github.com/Dominic-Harvey/event-scheduler/internal/infrastructure/sqlite"
	"github.com/Dominic-Harvey/event-scheduler/internal/pkg/metrics"
)

// TestServer はE2Eテスト用のサーバー
type TestServer struct {
	Echo     *echo.Echo
	Registry *prometheus.Registry
}

// NewTestServer は一時ディレクトリのSQLiteを使ったサーバーを作成する
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	db, err := sqlite.NewConnection(filepath.Join(t.TempDir(), "e2e.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, sqlite.RunMigrations(db.DB))

	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	repo := sqlite.NewEventRepository(db)
	eventService := application.NewEventService(
		database.NewTxManager(db),
		repo,
		application.NewConflictChecker(repo, m),
		application.WithMetrics(m),
	)

	e := router.New(eventService, db, router.Options{
		Metrics:  m,
		Gatherer: reg,
	})

	return &TestServer{Echo: e, Registry: reg}
}

// Request はHTTPリクエストを実行する
func (s *TestServer) Request(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func eventBody(name, start, end string) map[string]string {
	return map[string]string{"name": name, "startTime": start, "endTime": end}
}
