package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Name      string `json:"name" validate:"required,max=5"`
	StartTime string `json:"startTime" validate:"required"`
}

func TestCustomValidator_Validate(t *testing.T) {
	v := NewValidator()

	t.Run("正常な値はエラーなし", func(t *testing.T) {
		assert.NoError(t, v.Validate(&sampleRequest{Name: "abc", StartTime: "x"}))
	})

	t.Run("必須項目の欠落はJSON名で報告される", func(t *testing.T) {
		err := v.Validate(&sampleRequest{})

		var he *echo.HTTPError
		require.ErrorAs(t, err, &he)
		assert.Equal(t, http.StatusBadRequest, he.Code)
		assert.Equal(t, "name は必須です; startTime は必須です", he.Message)
	})

	t.Run("最大長は文字数で判定される", func(t *testing.T) {
		assert.NoError(t, v.Validate(&sampleRequest{Name: "あいうえお", StartTime: "x"}))

		err := v.Validate(&sampleRequest{Name: "あいうえおか", StartTime: "x"})
		var he *echo.HTTPError
		require.ErrorAs(t, err, &he)
		assert.Equal(t, "name は5文字以内である必要があります", he.Message)
	})
}

func TestCustomHTTPErrorHandler(t *testing.T) {
	e := echo.New()

	tests := []struct {
		name            string
		err             error
		expectedCode    int
		expectedMessage string
	}{
		{
			name:            "HTTPErrorのコードとメッセージを使う",
			err:             echo.NewHTTPError(http.StatusConflict, "既存のイベントと時間が重複しています"),
			expectedCode:    http.StatusConflict,
			expectedMessage: "既存のイベントと時間が重複しています",
		},
		{
			name:            "文字列以外のメッセージはステータステキスト",
			err:             echo.NewHTTPError(http.StatusNotFound, map[string]string{"x": "y"}),
			expectedCode:    http.StatusNotFound,
			expectedMessage: "Not Found",
		},
		{
			name:            "通常のエラーは500",
			err:             errors.New("boom"),
			expectedCode:    http.StatusInternalServerError,
			expectedMessage: "内部サーバーエラー",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			CustomHTTPErrorHandler(tt.err, c)

			assert.Equal(t, tt.expectedCode, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.expectedMessage, body.Error)
			assert.Equal(t, tt.expectedCode, body.Code)
		})
	}

	t.Run("デバッグ時は5xxの原因を返す", func(t *testing.T) {
		debug := echo.New()
		debug.Debug = true

		req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
		rec := httptest.NewRecorder()
		CustomHTTPErrorHandler(errors.New("connection refused"), debug.NewContext(req, rec))

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "内部サーバーエラー", body.Error)
		assert.Equal(t, "connection refused", body.Details)

		// 4xx には付けない
		rec = httptest.NewRecorder()
		CustomHTTPErrorHandler(echo.NewHTTPError(http.StatusConflict, "重複"), debug.NewContext(req, rec))
		body = ErrorResponse{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Empty(t, body.Details)
	})

	t.Run("本番では5xxの原因を返さない", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
		rec := httptest.NewRecorder()
		CustomHTTPErrorHandler(errors.New("connection refused"), e.NewContext(req, rec))

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Empty(t, body.Details)
	})

	t.Run("HEADリクエストは本文なし", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodHead, "/health", nil)
		rec := httptest.NewRecorder()

		CustomHTTPErrorHandler(echo.ErrServiceUnavailable, e.NewContext(req, rec))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Empty(t, strings.TrimSpace(rec.Body.String()))
	})

	t.Run("送信済みのレスポンスには書き込まない", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		require.NoError(t, c.String(http.StatusOK, "done"))

		CustomHTTPErrorHandler(errors.New("late"), c)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "done", rec.Body.String())
	})
}
