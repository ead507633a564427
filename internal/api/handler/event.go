package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Dominic-Harvey/event-scheduler/internal/application"
	"github.com/Dominic-Harvey/event-scheduler/internal/domain/event"
)

type EventHandler struct {
	eventService EventServiceInterface
}

func NewEventHandler(eventService EventServiceInterface) *EventHandler {
	return &EventHandler{eventService: eventService}
}

type CreateEventRequest struct {
	Name      string `json:"name" validate:"required,max=255" example:"Meeting"`
	StartTime string `json:"startTime" validate:"required" example:"2024-11-22T09:00:00Z"`
	EndTime   string `json:"endTime" validate:"required" example:"2024-11-22T11:00:00Z"`
}

type EventResponse struct {
	ID        string `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name      string `json:"name" example:"Meeting"`
	StartTime string `json:"startTime" example:"2024-11-22T09:00:00Z"`
	EndTime   string `json:"endTime" example:"2024-11-22T11:00:00Z"`
	CreatedAt string `json:"createdAt" example:"2024-11-01T10:00:00Z"`
}

func toEventResponse(e *event.Event) *EventResponse {
	return &EventResponse{
		ID:        e.ID,
		Name:      e.Name,
		StartTime: formatTimestamp(e.StartTime),
		EndTime:   formatTimestamp(e.EndTime),
		CreatedAt: formatTimestamp(e.CreatedAt),
	}
}

func toEventResponses(events []*event.Event) []*EventResponse {
	responses := make([]*EventResponse, len(events))
	for i, e := range events {
		responses[i] = toEventResponse(e)
	}
	return responses
}

// Create godoc
// @Summary イベントを作成
// @Description 既存のイベントと時間が重ならない場合にイベントを作成します
// @Tags events
// @Accept json
// @Produce json
// @Param request body CreateEventRequest true "イベント情報"
// @Success 201 {object} EventResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse
// @Failure 503 {object} api.ErrorResponse
// @Router /events [post]
func (h *EventHandler) Create(c echo.Context) error {
	var req CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "リクエストの形式が不正です").SetInternal(err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	startTime, err := parseTimestamp(req.StartTime)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "開始時刻の形式が不正です").SetInternal(err)
	}
	endTime, err := parseTimestamp(req.EndTime)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "終了時刻の形式が不正です").SetInternal(err)
	}

	e, err := h.eventService.CreateEvent(c.Request().Context(), application.CreateEventInput{
		Name:      req.Name,
		StartTime: startTime,
		EndTime:   endTime,
	})
	if err != nil {
		return handleServiceError(err)
	}

	return c.JSON(http.StatusCreated, toEventResponse(e))
}

// GetByID godoc
// @Summary イベントを取得
// @Description 指定IDのイベントを取得します
// @Tags events
// @Produce json
// @Param id path string true "イベントID"
// @Success 200 {object} EventResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /events/{id} [get]
func (h *EventHandler) GetByID(c echo.Context) error {
	e, found, err := h.eventService.GetEvent(c.Request().Context(), c.Param("id"))
	if err != nil {
		return handleServiceError(err)
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, event.ErrEventNotFound.Error())
	}
	return c.JSON(http.StatusOK, toEventResponse(e))
}

// List godoc
// @Summary イベント一覧を取得
// @Description startTime と endTime の両方を指定した場合はその範囲に接するイベントを、それ以外は全イベントを開始時刻順に返します
// @Tags events
// @Produce json
// @Param startTime query string false "範囲の開始時刻"
// @Param endTime query string false "範囲の終了時刻"
// @Success 200 {array} EventResponse
// @Failure 400 {object} api.ErrorResponse
// @Router /events [get]
func (h *EventHandler) List(c echo.Context) error {
	input, err := bindListInput(c)
	if err != nil {
		return err
	}

	events, err := h.eventService.ListEvents(c.Request().Context(), input)
	if err != nil {
		return handleServiceError(err)
	}
	return c.JSON(http.StatusOK, toEventResponses(events))
}

func bindListInput(c echo.Context) (application.ListEventsInput, error) {
	startTime, err := parseOptionalTimestamp(c.QueryParam("startTime"))
	if err != nil {
		return application.ListEventsInput{}, echo.NewHTTPError(http.StatusBadRequest, "開始時刻の形式が不正です").SetInternal(err)
	}
	endTime, err := parseOptionalTimestamp(c.QueryParam("endTime"))
	if err != nil {
		return application.ListEventsInput{}, echo.NewHTTPError(http.StatusBadRequest, "終了時刻の形式が不正です").SetInternal(err)
	}
	return application.ListEventsInput{StartTime: startTime, EndTime: endTime}, nil
}

// handleServiceError はサービス層のエラーをHTTPエラーに変換する
func handleServiceError(err error) error {
	switch {
	case event.IsInvalidInput(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	case errors.Is(err, event.ErrEventConflict):
		return echo.NewHTTPError(http.StatusConflict, event.ErrEventConflict.Error()).SetInternal(err)
	case errors.Is(err, application.ErrScheduleBusy):
		return echo.NewHTTPError(http.StatusServiceUnavailable, application.ErrScheduleBusy.Error()).SetInternal(err)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "内部サーバーエラー").SetInternal(err)
	}
}
