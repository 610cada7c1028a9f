package services

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"schedule-viewer/models"
)

// ErrNothingToExport выгрузка пустого набора запрещена
var ErrNothingToExport = errors.New("нет данных для выгрузки")

const (
	SheetAllEvents   = "Все мероприятия"
	SheetStatistics  = "Статистика"
	NoCourseName     = "Без направления"
	maxSheetNameLen  = 31
	sheetNameCutLen  = 28
	invalidSheetRune = "_"
)

var allEventsHeader = []any{
	"№ п/п",
	"ID мероприятия",
	"Название мероприятия",
	"Тип мероприятия",
	"День недели",
	"Время",
	"Продолжительность (часы)",
	"Преподаватель",
	"Куратор",
	"Кабинет",
	"Направление",
	"Количество учеников",
}

var courseHeader = []any{
	"№ п/п",
	"ID мероприятия",
	"Название мероприятия",
	"Кол-во посещающих",
	"Средняя посещаемость",
	"Преподаватели",
	"Расписание",
	"Кол-во часов в неделю",
}

// Workbook готовый файл выгрузки
type Workbook struct {
	FileName string
	Data     []byte
	Entries  int
	Courses  int
}

type ExportService struct {
	now func() time.Time
}

func NewExportService(now func() time.Time) *ExportService {
	if now == nil {
		now = time.Now
	}
	return &ExportService{now: now}
}

// FileName имя файла как в исходной странице
func (s *ExportService) FileName(entries int) string {
	return fmt.Sprintf("Расписание_%s_%d_мероприятий.xlsx", s.now().Format("2006-01-02"), entries)
}

// BuildWorkbook лист со всеми занятиями, лист на каждое направление и лист статистики
func (s *ExportService) BuildWorkbook(entries []models.ScheduleEntry) (*Workbook, error) {
	if len(entries) == 0 {
		return nil, ErrNothingToExport
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	names := newSheetNamer()
	listing := names.next(SheetAllEvents)
	if err := f.SetSheetName(f.GetSheetName(0), listing); err != nil {
		return nil, fmt.Errorf("failed to rename first sheet: %w", err)
	}
	if err := writeSheet(f, listing, allEventsRows(entries), headerStyle); err != nil {
		return nil, err
	}

	courses, byCourse := groupByCourse(entries)
	for _, course := range courses {
		sheet := names.next(course)
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("failed to create sheet %q: %w", sheet, err)
		}
		if err := writeSheet(f, sheet, courseRows(byCourse[course]), headerStyle); err != nil {
			return nil, err
		}
	}

	stats := names.next(SheetStatistics)
	if _, err := f.NewSheet(stats); err != nil {
		return nil, fmt.Errorf("failed to create sheet %q: %w", stats, err)
	}
	if err := writeSheet(f, stats, statisticsRows(BuildSummary(entries)), headerStyle); err != nil {
		return nil, err
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return &Workbook{
		FileName: s.FileName(len(entries)),
		Data:     buf.Bytes(),
		Entries:  len(entries),
		Courses:  len(courses),
	}, nil
}

func allEventsRows(entries []models.ScheduleEntry) [][]any {
	rows := [][]any{allEventsHeader}
	for i, e := range entries {
		rows = append(rows, []any{
			i + 1,
			string(e.ID),
			e.Title,
			e.TypeOfEvent,
			models.DayName(e.DayOfWeek),
			e.Time.String(),
			durationHours(e),
			e.Teacher,
			e.Tutor,
			e.Room.Label(),
			e.Course,
			len(e.Pupils),
		})
	}
	return rows
}

func courseRows(entries []models.ScheduleEntry) [][]any {
	rows := [][]any{courseHeader}
	for i, e := range entries {
		rows = append(rows, []any{
			i + 1,
			string(e.ID),
			e.Title,
			len(e.Pupils),
			"",
			e.Teacher,
			models.DayName(e.DayOfWeek) + " " + e.Time.String(),
			"",
		})
	}
	return rows
}

func statisticsRows(sum Summary) [][]any {
	rows := [][]any{
		{"СТАТИСТИКА ФИЛЬТРА", ""},
		{"Всего мероприятий", sum.Total},
		{"", ""},
		{"Статистика по типам", "Количество"},
	}
	for _, c := range sum.ByType {
		rows = append(rows, []any{c.Name, c.Count})
	}
	rows = append(rows, []any{"", ""}, []any{"Топ преподавателей", "Количество мероприятий"})
	for _, c := range sum.TopTeachers {
		rows = append(rows, []any{c.Name, c.Count})
	}
	return rows
}

func writeSheet(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d of %q: %w", i+1, sheet, err)
		}
	}
	if len(rows) == 0 {
		return nil
	}
	last, err := excelize.ColumnNumberToName(len(rows[0]))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last+"1", headerStyle); err != nil {
		return fmt.Errorf("failed to style header of %q: %w", sheet, err)
	}
	return f.SetColWidth(sheet, "A", last, 20)
}

// durationHours длительность в часах с одним знаком после запятой
func durationHours(e models.ScheduleEntry) float64 {
	hours := float64(e.Time.Ending-e.Time.Beginning) / 60
	return math.Round(hours*10) / 10
}

// groupByCourse направления в порядке первого появления
func groupByCourse(entries []models.ScheduleEntry) ([]string, map[string][]models.ScheduleEntry) {
	var order []string
	groups := make(map[string][]models.ScheduleEntry)
	for _, e := range entries {
		course := e.Course
		if course == "" {
			course = NoCourseName
		}
		if _, seen := groups[course]; !seen {
			order = append(order, course)
		}
		groups[course] = append(groups[course], e)
	}
	return order, groups
}

// SheetName имя листа Excel: не длиннее 31 символа (28 + "..."), без запрещённых символов
func SheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return []rune(invalidSheetRune)[0]
		}
		return r
	}, name)
	name = strings.Trim(name, "'")
	if strings.TrimSpace(name) == "" {
		name = NoCourseName
	}
	if runes := []rune(name); len(runes) > maxSheetNameLen {
		name = string(runes[:sheetNameCutLen]) + "..."
	}
	return name
}

// sheetNamer выдаёт уникальные имена листов (Excel не различает регистр)
type sheetNamer struct {
	used map[string]bool
}

func newSheetNamer() *sheetNamer {
	return &sheetNamer{used: make(map[string]bool)}
}

func (n *sheetNamer) next(name string) string {
	base := SheetName(name)
	candidate := base
	for i := 2; n.used[strings.ToLower(candidate)]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		runes := []rune(base)
		if limit := maxSheetNameLen - len([]rune(suffix)); len(runes) > limit {
			runes = runes[:limit]
		}
		candidate = string(runes) + suffix
	}
	n.used[strings.ToLower(candidate)] = true
	return candidate
}
