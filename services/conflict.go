package services

import "schedule-viewer/models"

// ConflictScope области проверки конфликтов
type ConflictScope int

const (
	// ScopeSingleDay все кандидаты из одного дня, день не сравнивается
	ScopeSingleDay ConflictScope = iota
	// ScopePerDay режим "вся неделя": конфликтуют только занятия одного дня
	ScopePerDay
)

// ScopeFor область проверки для выбранного дня
func ScopeFor(day models.DaySelection) ConflictScope {
	if day.IsAll() {
		return ScopePerDay
	}
	return ScopeSingleDay
}

// HasConflict пересекается ли занятие по времени с другим занятием из candidates
// того же преподавателя или в той же аудитории. Занятие с самим собой не конфликтует.
func HasConflict(entry models.ScheduleEntry, candidates []models.ScheduleEntry, scope ConflictScope) bool {
	for _, other := range candidates {
		if conflicts(entry, other, scope) {
			return true
		}
	}
	return false
}

func conflicts(a, b models.ScheduleEntry, scope ConflictScope) bool {
	if a.ID == b.ID {
		return false
	}
	if scope == ScopePerDay && a.DayOfWeek != b.DayOfWeek {
		return false
	}
	if !a.Time.Overlaps(b.Time) {
		return false
	}
	return a.Teacher == b.Teacher || a.Room == b.Room
}

// Conflicts отмечает все конфликтующие занятия набора
func Conflicts(candidates []models.ScheduleEntry, scope ConflictScope) map[models.EntryID]bool {
	flags := make(map[models.EntryID]bool)
	for i := range candidates {
		for j := i + 1; j < len(candidates); j++ {
			if conflicts(candidates[i], candidates[j], scope) {
				flags[candidates[i].ID] = true
				flags[candidates[j].ID] = true
			}
		}
	}
	return flags
}

// ActiveAt занятия, идущие в момент t (границы включительно)
func ActiveAt(entries []models.ScheduleEntry, t models.ClockTime) []models.ScheduleEntry {
	out := make([]models.ScheduleEntry, 0)
	for _, e := range entries {
		if e.Time.Contains(t) {
			out = append(out, e)
		}
	}
	return out
}
