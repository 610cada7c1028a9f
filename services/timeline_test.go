package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"schedule-viewer/models"
)

func at(h, m int) time.Time {
	return time.Date(2024, 9, 2, h, m, 0, 0, time.UTC)
}

func TestTimelinePositionClamped(t *testing.T) {
	tests := []struct {
		now  time.Time
		want float64
	}{
		{at(8, 0), 0},
		{at(14, 0), 50},
		{at(20, 0), 100},
		{at(6, 30), 0},
		{at(23, 0), 100},
	}
	for _, tt := range tests {
		tl := NewTimeline(testWindow, tt.now)
		assert.InDelta(t, tt.want, tl.Position(), 1e-9, tt.now.Format("15:04"))
	}
}

func TestTimelineTickSuppressedInManualMode(t *testing.T) {
	tl := NewTimeline(testWindow, at(9, 0))

	tl = tl.Tick(at(9, 1))
	assert.Equal(t, hm(9, 1), tl.Time())

	tl = tl.StartDrag(100)
	assert.Equal(t, ModeManual, tl.Mode)
	tl = tl.EndDrag()

	tl = tl.Tick(at(9, 2))
	assert.Equal(t, hm(9, 1), tl.Time())

	tl = tl.ResetToNow(at(9, 3))
	assert.Equal(t, ModeAutomatic, tl.Mode)
	assert.Equal(t, hm(9, 3), tl.Time())

	tl = tl.Tick(at(9, 4))
	assert.Equal(t, hm(9, 4), tl.Time())
}

func TestTimelineDrag(t *testing.T) {
	tl := NewTimeline(testWindow, at(14, 0)) // 50%

	tl = tl.StartDrag(500)
	assert.True(t, tl.Drag.Active)

	// +100px из 1000px = +10% = +72 минуты
	tl, moved := tl.MoveDrag(600, 1000)
	assert.True(t, moved)
	assert.InDelta(t, 60.0, tl.Position(), 1e-9)
	assert.Equal(t, hm(15, 12), tl.Time())

	// за край области: зажимается
	tl, _ = tl.MoveDrag(5000, 1000)
	assert.InDelta(t, 100.0, tl.Position(), 1e-9)
	assert.Equal(t, testWindow.End, tl.Time())

	tl, _ = tl.MoveDrag(-5000, 1000)
	assert.InDelta(t, 0.0, tl.Position(), 1e-9)
	assert.Equal(t, testWindow.Start, tl.Time())

	tl = tl.EndDrag()
	assert.False(t, tl.Drag.Active)
	assert.Equal(t, ModeManual, tl.Mode)

	// движение без жеста игнорируется
	_, moved = tl.MoveDrag(700, 1000)
	assert.False(t, moved)
}

func TestTimelineDragResync(t *testing.T) {
	tl := NewTimeline(testWindow, at(14, 0))

	tl = tl.StartDrag(500)
	tl, _ = tl.MoveDrag(600, 1000) // 60%
	tl = tl.StartDrag(0)           // повторный старт: новая точка отсчёта
	assert.InDelta(t, 60.0, tl.Drag.OriginPosition, 1e-9)
	assert.InDelta(t, 0.0, tl.Drag.OriginX, 1e-9)

	tl, _ = tl.MoveDrag(100, 1000)
	assert.InDelta(t, 70.0, tl.Position(), 1e-9)
}

func TestTimelineIsValue(t *testing.T) {
	original := NewTimeline(testWindow, at(10, 0))
	_ = original.StartDrag(10)
	assert.Equal(t, ModeAutomatic, original.Mode)
	assert.False(t, original.Drag.Active)

	view := original.View()
	assert.Equal(t, models.ClockTime(600), view.Time)
	assert.InDelta(t, 100.0/6, view.Position, 1e-9)
	assert.Equal(t, ModeAutomatic, view.Mode)
	assert.False(t, view.Dragging)
}
