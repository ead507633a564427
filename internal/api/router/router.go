package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Dominic-Harvey/event-scheduler/internal/api"
	"github.com/Dominic-Harvey/event-scheduler/internal/api/handler"
	"github.com/Dominic-Harvey/event-scheduler/internal/api/middleware"
	"github.com/Dominic-Harvey/event-scheduler/internal/config"
	"github.com/Dominic-Harvey/event-scheduler/internal/pkg/metrics"
)

// Options はルーター構築時の設定
type Options struct {
	AllowedOrigins []string
	// Debug が true の場合、5xx レスポンスに原因を含める
	Debug bool
	MetricsAuth    config.MetricsConfig
	// Metrics が nil の場合はHTTPメトリクスを収集しない
	Metrics *metrics.Metrics
	// Gatherer が nil の場合は prometheus.DefaultGatherer を公開する
	Gatherer prometheus.Gatherer
}

// New はミドルウェアとルートを設定した Echo インスタンスを返す
func New(eventService handler.EventServiceInterface, store handler.Pinger, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = opts.Debug
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler

	middleware.SetupMiddleware(e, opts.AllowedOrigins)
	if opts.Metrics != nil {
		e.Use(middleware.PrometheusMiddleware(opts.Metrics))
	}

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	eventHandler := handler.NewEventHandler(eventService)
	calendarHandler := handler.NewCalendarHandler(eventService)
	healthHandler := handler.NewHealthHandler(store)

	e.GET("/health", healthHandler.Check)
	e.GET("/metrics",
		echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})),
		middleware.MetricsBasicAuth(opts.MetricsAuth),
	)

	v1 := e.Group("/api/v1")
	v1.POST("/events", eventHandler.Create)
	v1.GET("/events", eventHandler.List)
	v1.GET("/events/:id", eventHandler.GetByID)
	v1.GET("/calendar.ics", calendarHandler.Export)

	return e
}
