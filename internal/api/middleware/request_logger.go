package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Dominic-Harvey/event-scheduler/internal/pkg/logger"
)

// RequestLogger はリクエストごとに1行の構造化ログを出力するミドルウェア
// 5xx は Error、4xx は Warn、それ以外は Info で出力する
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := responseStatus(c, err)
			fields := requestFields(c, status, time.Since(start))

			switch {
			case status >= 500:
				if err != nil {
					fields = append(fields, zap.Error(err))
				}
				logger.Error("server error", fields...)
			case status >= 400:
				logger.Warn("client error", fields...)
			default:
				logger.Info("request completed", fields...)
			}
			return err
		}
	}
}

func requestFields(c echo.Context, status int, latency time.Duration) []zap.Field {
	req := c.Request()
	res := c.Response()

	// RequestID ミドルウェアが設定したIDを優先する
	requestID := res.Header().Get(echo.HeaderXRequestID)
	if requestID == "" {
		requestID = req.Header.Get(echo.HeaderXRequestID)
	}

	return []zap.Field{
		zap.String("request_id", requestID),
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.String("route", c.Path()),
		zap.String("query", req.URL.RawQuery),
		zap.Int("status", status),
		zap.Int64("size", res.Size),
		zap.Duration("latency", latency),
		zap.String("remote_ip", c.RealIP()),
		zap.String("user_agent", req.UserAgent()),
	}
}
