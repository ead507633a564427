package handler

import (
	"bytes"
	"net/http"
	"time"

	"github.com/emersion/go-ical"
	"github.com/labstack/echo/v4"

	"github.com/Dominic-Harvey/event-scheduler/internal/domain/event"
)

const (
	calendarProductID   = "-//event-scheduler//EN"
	calendarContentType = "text/calendar; charset=utf-8"
)

// go-ical はコンポーネントを持たないカレンダーをエンコードできないため、空の場合はこれを返す
const emptyCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + calendarProductID + "\r\nEND:VCALENDAR\r\n"

// CalendarHandler はスケジュールをiCalendar形式で出力する
type CalendarHandler struct {
	eventService EventServiceInterface
}

func NewCalendarHandler(eventService EventServiceInterface) *CalendarHandler {
	return &CalendarHandler{eventService: eventService}
}

// Export godoc
// @Summary スケジュールをiCalendar形式で取得
// @Description 一覧取得と同じ条件でイベントを絞り込み、VCALENDAR として返します
// @Tags calendar
// @Produce text/calendar
// @Param startTime query string false "範囲の開始時刻"
// @Param endTime query string false "範囲の終了時刻"
// @Success 200 {string} string
// @Failure 400 {object} api.ErrorResponse
// @Router /calendar.ics [get]
func (h *CalendarHandler) Export(c echo.Context) error {
	input, err := bindListInput(c)
	if err != nil {
		return err
	}

	events, err := h.eventService.ListEvents(c.Request().Context(), input)
	if err != nil {
		return handleServiceError(err)
	}
	if len(events) == 0 {
		return c.Blob(http.StatusOK, calendarContentType, []byte(emptyCalendar))
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(toCalendar(events)); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "カレンダーの生成に失敗しました").SetInternal(err)
	}
	return c.Blob(http.StatusOK, calendarContentType, buf.Bytes())
}

func toCalendar(events []*event.Event) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, calendarProductID)

	for _, e := range events {
		cal.Children = append(cal.Children, toVEvent(e))
	}
	return cal
}

func toVEvent(e *event.Event) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, e.ID)
	ve.Props.SetText(ical.PropSummary, e.Name)
	stamp := e.CreatedAt
	if stamp.IsZero() {
		stamp = time.Now()
	}
	ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, e.StartTime.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeEnd, e.EndTime.UTC())
	return ve
}
