package services

import (
	"math"
	"time"

	"schedule-viewer/models"
)

// TimeMode режим линии текущего времени
type TimeMode string

const (
	// ModeAutomatic линия следует за часами
	ModeAutomatic TimeMode = "automatic"
	// ModeManual пользователь передвинул линию, тики таймера игнорируются
	ModeManual TimeMode = "manual"
)

// DragState жест перетаскивания: idle -> dragging -> idle
type DragState struct {
	Active         bool
	OriginX        float64
	OriginPosition float64
}

// Timeline линия текущего времени. Переходы возвращают новое значение и не
// меняют старое.
type Timeline struct {
	Window  models.Window
	Minutes float64
	Mode    TimeMode
	Drag    DragState
}

// TimelineView то, что видит пользователь
type TimelineView struct {
	Time     models.ClockTime `json:"time"`
	Position float64          `json:"position"`
	Mode     TimeMode         `json:"mode"`
	Dragging bool             `json:"dragging"`
}

func NewTimeline(window models.Window, now time.Time) Timeline {
	return Timeline{Window: window, Minutes: minutesOf(now), Mode: ModeAutomatic}
}

func minutesOf(t time.Time) float64 {
	return float64(t.Hour()*60 + t.Minute())
}

// Time текущее время линии с точностью до минуты
func (t Timeline) Time() models.ClockTime {
	return models.ClockTime(math.Round(t.Minutes))
}

// Position положение линии в процентах ширины окна
func (t Timeline) Position() float64 {
	span := float64(t.Window.Span())
	if span <= 0 {
		return 0
	}
	m := math.Max(float64(t.Window.Start), math.Min(float64(t.Window.End), t.Minutes))
	return (m - float64(t.Window.Start)) / span * 100
}

func (t Timeline) View() TimelineView {
	return TimelineView{
		Time:     t.Time(),
		Position: t.Position(),
		Mode:     t.Mode,
		Dragging: t.Drag.Active,
	}
}

// Tick ежеминутное обновление. В ручном режиме ничего не меняет.
func (t Timeline) Tick(now time.Time) Timeline {
	if t.Mode == ModeManual {
		return t
	}
	t.Minutes = minutesOf(now)
	return t
}

// ResetToNow кнопка "Сейчас": текущее время и автоматический режим
func (t Timeline) ResetToNow(now time.Time) Timeline {
	t.Minutes = minutesOf(now)
	t.Mode = ModeAutomatic
	t.Drag = DragState{}
	return t
}

// StartDrag начало жеста. Повторное начало без окончания пересинхронизирует
// точку отсчёта по текущему положению линии.
func (t Timeline) StartDrag(x float64) Timeline {
	t.Drag = DragState{Active: true, OriginX: x, OriginPosition: t.Position()}
	t.Mode = ModeManual
	return t
}

// MoveDrag сдвиг на x при ширине области width. Положение зажимается в [0, 100].
// Вне жеста или при нулевой ширине возвращает t без изменений и false.
func (t Timeline) MoveDrag(x, width float64) (Timeline, bool) {
	if !t.Drag.Active || width <= 0 {
		return t, false
	}
	pos := t.Drag.OriginPosition + (x-t.Drag.OriginX)/width*100
	pos = math.Max(0, math.Min(100, pos))
	t.Minutes = float64(t.Window.Start) + pos/100*float64(t.Window.Span())
	return t, true
}

// EndDrag конец жеста. Режим остаётся ручным до "Сейчас".
func (t Timeline) EndDrag() Timeline {
	t.Drag = DragState{}
	return t
}
