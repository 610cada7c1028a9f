package services

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"schedule-viewer/models"
)

type entryPredicate func(models.ScheduleEntry) bool

// ActiveClauses отбрасывает пустые строки фильтра
func ActiveClauses(clauses []models.FilterClause) []models.FilterClause {
	active := make([]models.FilterClause, 0, len(clauses))
	for _, c := range clauses {
		if c.Active() {
			active = append(active, c)
		}
	}
	return active
}

// ValidateClauses проверяет поля и операторы до применения
func ValidateClauses(clauses []models.FilterClause) error {
	for i, c := range clauses {
		if _, err := fieldPredicate(c.Field, c.Value); err != nil {
			return fmt.Errorf("clause %d: %w", i+1, err)
		}
		switch c.Join {
		case models.JoinAnd, models.JoinOr, "":
		default:
			return fmt.Errorf("clause %d: %w: %q", i+1, models.ErrUnknownJoin, c.Join)
		}
	}
	return nil
}

// ApplyFilters отбирает занятия base по цепочке фильтров.
//
// Каждый фильтр проверяется на всём base, а не на промежуточном результате:
// первый задаёт результат, дальше "and" пересекает, "or" объединяет по id.
// Порядок результата совпадает с порядком base. Без активных фильтров
// возвращается base.
func ApplyFilters(base []models.ScheduleEntry, clauses []models.FilterClause) ([]models.ScheduleEntry, error) {
	active := ActiveClauses(clauses)
	if err := ValidateClauses(active); err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return append([]models.ScheduleEntry(nil), base...), nil
	}

	var result map[models.EntryID]bool
	for i, c := range active {
		match, err := clausePredicate(c)
		if err != nil {
			return nil, err
		}
		matched := matchIDs(base, match)
		switch {
		case i == 0:
			result = matched
		case c.Join == models.JoinOr:
			for id := range matched {
				result[id] = true
			}
		default:
			for id := range result {
				if !matched[id] {
					delete(result, id)
				}
			}
		}
	}

	out := make([]models.ScheduleEntry, 0, len(result))
	for _, e := range base {
		if result[e.ID] {
			out = append(out, e)
		}
	}
	return out, nil
}

// MatchClause подходит ли занятие под один фильтр (поле И время)
func MatchClause(e models.ScheduleEntry, c models.FilterClause) (bool, error) {
	match, err := clausePredicate(c)
	if err != nil {
		return false, err
	}
	return match(e), nil
}

func matchIDs(base []models.ScheduleEntry, match entryPredicate) map[models.EntryID]bool {
	ids := make(map[models.EntryID]bool)
	for _, e := range base {
		if match(e) {
			ids[e.ID] = true
		}
	}
	return ids
}

func clausePredicate(c models.FilterClause) (entryPredicate, error) {
	field, err := fieldPredicate(c.Field, c.Value)
	if err != nil {
		return nil, err
	}
	inTime := timePredicate(c.TimeStart, c.TimeEnd)
	return func(e models.ScheduleEntry) bool {
		return field(e) && inTime(e)
	}, nil
}

func fieldPredicate(field models.FilterField, value string) (entryPredicate, error) {
	q := fold(strings.TrimSpace(value))

	var match entryPredicate
	switch field {
	case models.FieldType:
		match = func(e models.ScheduleEntry) bool { return containsFold(e.TypeOfEvent, q) }
	case models.FieldTitle:
		match = func(e models.ScheduleEntry) bool { return containsFold(e.Title, q) }
	case models.FieldTeacher:
		match = func(e models.ScheduleEntry) bool { return containsFold(e.Teacher, q) }
	case models.FieldTutor:
		match = func(e models.ScheduleEntry) bool { return containsFold(e.Tutor, q) }
	case models.FieldCourse:
		match = func(e models.ScheduleEntry) bool { return containsFold(e.Course, q) }
	case models.FieldPupil:
		match = func(e models.ScheduleEntry) bool {
			for _, p := range e.Pupils {
				if containsFold(p, q) {
					return true
				}
			}
			return false
		}
	case models.FieldRoom:
		match = roomPredicate(q)
	default:
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownField, field)
	}
	return match, nil
}

// roomPredicate: "A-112" точное совпадение, "112" часть номера, иначе часть здания
func roomPredicate(q string) entryPredicate {
	switch {
	case q == "":
		return func(models.ScheduleEntry) bool { return true }
	case strings.Contains(q, "-"):
		return func(e models.ScheduleEntry) bool { return fold(e.Room.Label()) == q }
	case isDigits(q):
		return func(e models.ScheduleEntry) bool { return strings.Contains(fold(e.Room.Number), q) }
	default:
		return func(e models.ScheduleEntry) bool { return strings.Contains(fold(e.Room.Building), q) }
	}
}

func timePredicate(start, end *models.ClockTime) entryPredicate {
	switch {
	case start != nil && end != nil:
		window := models.TimeRange{Beginning: *start, Ending: *end}
		return func(e models.ScheduleEntry) bool { return e.Time.Overlaps(window) }
	case start != nil:
		return func(e models.ScheduleEntry) bool { return e.Time.Beginning >= *start }
	case end != nil:
		return func(e models.ScheduleEntry) bool { return e.Time.Ending <= *end }
	default:
		return func(models.ScheduleEntry) bool { return true }
	}
}

func fold(s string) string {
	return cases.Fold().String(s)
}

// containsFold q уже приведён через fold
func containsFold(s, q string) bool {
	return strings.Contains(fold(s), q)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
