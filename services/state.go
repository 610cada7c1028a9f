package services

import (
	"fmt"

	"schedule-viewer/models"
)

// ViewState состояние просмотра: выбранный день, применённые фильтры,
// отфильтрованные занятия, наведение и линия времени. Операции возвращают
// новое состояние и не трогают занятия.
type ViewState struct {
	Day      models.DaySelection
	Clauses  []models.FilterClause
	Filtered []models.ScheduleEntry
	Hover    map[models.EntryID]bool
	Timeline Timeline
}

func NewViewState(store *EventStore, day models.DaySelection, timeline Timeline) ViewState {
	return ViewState{
		Day:      day,
		Filtered: store.Base(day),
		Hover:    map[models.EntryID]bool{},
		Timeline: timeline,
	}
}

// SelectDay показывает все занятия дня без фильтров
func (s ViewState) SelectDay(store *EventStore, day models.DaySelection) ViewState {
	s.Day = day
	s.Clauses = nil
	s.Filtered = store.Base(day)
	s.Hover = map[models.EntryID]bool{}
	return s
}

// ApplyFilters применяет цепочку к базовому набору текущего дня
func (s ViewState) ApplyFilters(store *EventStore, clauses []models.FilterClause) (ViewState, error) {
	active := ActiveClauses(clauses)
	filtered, err := ApplyFilters(store.Base(s.Day), active)
	if err != nil {
		return s, err
	}
	s.Clauses = active
	s.Filtered = filtered
	s.Hover = map[models.EntryID]bool{}
	return s, nil
}

func (s ViewState) ClearFilters(store *EventStore) ViewState {
	return s.SelectDay(store, s.Day)
}

// WithHover наведено не больше одного занятия; пустой id снимает наведение
func (s ViewState) WithHover(id models.EntryID) ViewState {
	s.Hover = map[models.EntryID]bool{}
	if id != "" {
		s.Hover[id] = true
	}
	return s
}

func (s ViewState) WithTimeline(t Timeline) ViewState {
	s.Timeline = t
	return s
}

// Summary текст под панелью фильтров
func (s ViewState) Summary() string {
	if len(s.Clauses) == 0 {
		return "Фильтры не применены. Показаны все мероприятия текущего дня."
	}
	return fmt.Sprintf("Найдено мероприятий: %d. Применены фильтры: %s",
		len(s.Filtered), models.DescribeClauses(s.Clauses))
}

// BuildLayout раскладка отфильтрованных занятий. При width > 0 считаются
// прямоугольники на canvas.
func BuildLayout(s ViewState, window models.Window, width float64, geom Geometry) models.LayoutView {
	view := models.LayoutView{
		Day:     s.Day,
		Window:  window,
		Entries: make([]models.LaidOutEntry, 0, len(s.Filtered)),
	}

	var layouts map[models.EntryID]models.Layout
	ordered := s.Filtered
	if s.Day.IsAll() {
		week := PackWeek(s.Filtered, window, DayGap)
		layouts, view.Rows, view.Blocks = week.Layouts, week.Rows, week.Blocks
	} else {
		layouts, view.Rows = LayoutDay(s.Filtered, window)
		ordered = SortByStart(s.Filtered)
	}
	flags := Conflicts(s.Filtered, ScopeFor(s.Day))

	for _, e := range ordered {
		l, ok := layouts[e.ID]
		if !ok {
			continue
		}
		item := models.LaidOutEntry{
			Entry:    e,
			Layout:   l,
			Conflict: flags[e.ID],
			Hovered:  s.Hover[e.ID],
			Color:    models.EventColor(e.TypeOfEvent),
		}
		if width > 0 {
			r := geom.Rect(e.ID, l, width, window)
			item.Rect = &r
		}
		view.Entries = append(view.Entries, item)
	}
	if width > 0 {
		view.CanvasHeight = geom.CanvasHeight(view.Rows)
	}
	return view
}

// Rects прямоугольники раскладки для поиска по координатам
func Rects(view models.LayoutView) []models.Rect {
	rects := make([]models.Rect, 0, len(view.Entries))
	for _, e := range view.Entries {
		if e.Rect != nil {
			rects = append(rects, *e.Rect)
		}
	}
	return rects
}

// ActiveEntry строка списка "идёт сейчас"
type ActiveEntry struct {
	Index    int                  `json:"index"`
	Entry    models.ScheduleEntry `json:"entry"`
	Conflict bool                 `json:"conflict"`
}

type NowView struct {
	Timeline TimelineView  `json:"timeline"`
	Entries  []ActiveEntry `json:"entries"`
	Message  string        `json:"message,omitempty"`
}

// BuildNow занятия, пересекающие линию времени. Конфликты ищутся только
// среди идущих сейчас.
func BuildNow(s ViewState) NowView {
	view := NowView{Timeline: s.Timeline.View(), Entries: make([]ActiveEntry, 0)}
	active := ActiveAt(s.Filtered, s.Timeline.Time())
	if len(active) == 0 {
		view.Message = "Нет мероприятий в текущее время"
		return view
	}
	scope := ScopeFor(s.Day)
	for i, e := range active {
		view.Entries = append(view.Entries, ActiveEntry{
			Index:    i + 1,
			Entry:    e,
			Conflict: HasConflict(e, active, scope),
		})
	}
	return view
}
