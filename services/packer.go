package services

import (
	"sort"

	"schedule-viewer/models"
)

// DayGap пустые ряды между блоками дней в режиме "вся неделя"
const DayGap = 1

// Pack раскладывает занятия по колонкам жадным first-fit: занятия в одной
// колонке не пересекаются по [начало, конец). Результат детерминирован.
func Pack(entries []models.ScheduleEntry) map[models.EntryID]int {
	columns, _ := packColumns(entries)
	return columns
}

// SortByStart сортирует по началу, при равенстве по id (стабильно)
func SortByStart(entries []models.ScheduleEntry) []models.ScheduleEntry {
	sorted := append([]models.ScheduleEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Time.Beginning != b.Time.Beginning {
			return a.Time.Beginning < b.Time.Beginning
		}
		return a.ID.Less(b.ID)
	})
	return sorted
}

func packColumns(entries []models.ScheduleEntry) (map[models.EntryID]int, int) {
	assigned := make(map[models.EntryID]int, len(entries))
	var columns [][]models.TimeRange

	for _, e := range SortByStart(entries) {
		// повтор id размещается один раз
		if _, placed := assigned[e.ID]; placed {
			continue
		}

		col := -1
		for i, placed := range columns {
			if fitsColumn(placed, e.Time) {
				col = i
				break
			}
		}
		if col == -1 {
			col = len(columns)
			columns = append(columns, nil)
		}
		columns[col] = append(columns[col], e.Time)
		assigned[e.ID] = col
	}
	return assigned, len(columns)
}

func fitsColumn(placed []models.TimeRange, r models.TimeRange) bool {
	for _, p := range placed {
		if r.Overlaps(p) {
			return false
		}
	}
	return true
}

// LayoutDay раскладка одного дня: колонка, смещение от начала окна и длительность
func LayoutDay(entries []models.ScheduleEntry, window models.Window) (map[models.EntryID]models.Layout, int) {
	columns, count := packColumns(entries)
	layouts := make(map[models.EntryID]models.Layout, len(columns))
	for _, e := range entries {
		col, ok := columns[e.ID]
		if !ok {
			continue
		}
		layouts[e.ID] = models.Layout{
			Column:             col,
			Row:                col,
			StartOffsetMinutes: int(e.Time.Beginning - window.Start),
			DurationMinutes:    e.Time.Duration(),
		}
	}
	return layouts, count
}

// WeekLayout раскладка всей недели: блоки дней друг под другом
type WeekLayout struct {
	Blocks  []models.DayBlock
	Layouts map[models.EntryID]models.Layout
	Rows    int
}

// PackWeek делит занятия по дням, раскладывает каждый день отдельно и
// ставит блоки дней один под другим с промежутком gap рядов.
func PackWeek(entries []models.ScheduleEntry, window models.Window, gap int) WeekLayout {
	byDay := make(map[int][]models.ScheduleEntry)
	var days []int
	for _, e := range entries {
		if _, seen := byDay[e.DayOfWeek]; !seen {
			days = append(days, e.DayOfWeek)
		}
		byDay[e.DayOfWeek] = append(byDay[e.DayOfWeek], e)
	}
	sort.Ints(days)

	week := WeekLayout{Layouts: make(map[models.EntryID]models.Layout, len(entries))}
	offset := 0
	for i, day := range days {
		if i > 0 {
			offset += gap
		}
		layouts, columns := LayoutDay(byDay[day], window)
		for id, l := range layouts {
			if _, dup := week.Layouts[id]; dup {
				continue
			}
			l.Row = offset + l.Column
			week.Layouts[id] = l
		}
		week.Blocks = append(week.Blocks, models.DayBlock{
			Day:       day,
			DayName:   models.DayName(day),
			RowOffset: offset,
			Columns:   columns,
		})
		offset += columns
	}
	week.Rows = offset
	return week
}

// Geometry размеры блока занятия на canvas
type Geometry struct {
	EventHeight  float64
	EventMargin  float64
	EventPadding float64
}

var DefaultGeometry = Geometry{EventHeight: 85, EventMargin: 10, EventPadding: 5}

// Rect прямоугольник занятия при ширине canvas width
func (g Geometry) Rect(id models.EntryID, l models.Layout, width float64, window models.Window) models.Rect {
	ppm := 0.0
	if span := window.Span(); span > 0 {
		ppm = width / float64(span)
	}
	return models.Rect{
		ID:     id,
		X:      float64(l.StartOffsetMinutes) * ppm,
		Y:      float64(l.Row)*(g.EventHeight+g.EventMargin) + g.EventPadding,
		Width:  float64(l.DurationMinutes) * ppm,
		Height: g.EventHeight,
		Column: l.Column,
	}
}

// CanvasHeight высота canvas под rows рядов
func (g Geometry) CanvasHeight(rows int) float64 {
	return float64(rows)*(g.EventHeight+g.EventMargin) + 100*g.EventPadding
}

// HitTest первое занятие, в прямоугольник которого попадает точка
func HitTest(rects []models.Rect, x, y float64) (models.EntryID, bool) {
	for _, r := range rects {
		if r.Contains(x, y) {
			return r.ID, true
		}
	}
	return "", false
}
