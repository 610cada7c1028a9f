package models

// Layout положение занятия на сетке. Хранится отдельно от самого занятия.
type Layout struct {
	Column             int `json:"column"`
	Row                int `json:"row"`
	StartOffsetMinutes int `json:"startOffsetMinutes"`
	DurationMinutes    int `json:"durationMinutes"`
}

// DayBlock блок колонок одного дня в режиме "вся неделя"
type DayBlock struct {
	Day       int    `json:"day"`
	DayName   string `json:"dayName"`
	RowOffset int    `json:"rowOffset"`
	Columns   int    `json:"columns"`
}

// Window отображаемый диапазон времени
type Window struct {
	Start ClockTime `json:"start"`
	End   ClockTime `json:"end"`
}

// Span длительность окна в минутах
func (w Window) Span() int {
	return int(w.End - w.Start)
}

// Clamp ограничивает время границами окна
func (w Window) Clamp(t ClockTime) ClockTime {
	if t < w.Start {
		return w.Start
	}
	if t > w.End {
		return w.End
	}
	return t
}

// Rect прямоугольник занятия на canvas в пикселях
type Rect struct {
	ID     EntryID `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Column int     `json:"column"`
}

// Contains границы включительно
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// LaidOutEntry занятие вместе с его положением и флагом конфликта
type LaidOutEntry struct {
	Entry    ScheduleEntry `json:"entry"`
	Layout   Layout        `json:"layout"`
	Rect     *Rect         `json:"rect,omitempty"`
	Conflict bool          `json:"conflict"`
	Hovered  bool          `json:"hovered"`
	Color    string        `json:"color"`
}

// LayoutView результат одного прохода раскладки
type LayoutView struct {
	Day          DaySelection   `json:"day"`
	Window       Window         `json:"window"`
	Rows         int            `json:"rows"`
	CanvasHeight float64        `json:"canvasHeight,omitempty"`
	Blocks       []DayBlock     `json:"blocks,omitempty"`
	Entries      []LaidOutEntry `json:"entries"`
}
