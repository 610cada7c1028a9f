package services

import (
	"sort"

	"schedule-viewer/models"
)

// EventStore полный список занятий сессии. После создания не меняется.
type EventStore struct {
	entries []models.ScheduleEntry
	byID    map[models.EntryID]int
	week    []models.ScheduleEntry
}

func NewEventStore(entries []models.ScheduleEntry) *EventStore {
	s := &EventStore{
		entries: append([]models.ScheduleEntry(nil), entries...),
		byID:    make(map[models.EntryID]int, len(entries)),
	}
	for i, e := range s.entries {
		if _, dup := s.byID[e.ID]; !dup {
			s.byID[e.ID] = i
		}
	}

	s.week = append([]models.ScheduleEntry(nil), s.entries...)
	sort.SliceStable(s.week, func(i, j int) bool {
		a, b := s.week[i], s.week[j]
		if a.DayOfWeek != b.DayOfWeek {
			return a.DayOfWeek < b.DayOfWeek
		}
		if a.Time.Beginning != b.Time.Beginning {
			return a.Time.Beginning < b.Time.Beginning
		}
		return a.ID.Less(b.ID)
	})
	return s
}

func (s *EventStore) Len() int { return len(s.entries) }

// All все занятия в порядке фида (копия)
func (s *EventStore) All() []models.ScheduleEntry {
	return append([]models.ScheduleEntry(nil), s.entries...)
}

func (s *EventStore) Get(id models.EntryID) (models.ScheduleEntry, bool) {
	i, ok := s.byID[id]
	if !ok {
		return models.ScheduleEntry{}, false
	}
	return s.entries[i], true
}

// ByDay занятия одного дня в порядке фида
func (s *EventStore) ByDay(day int) []models.ScheduleEntry {
	out := make([]models.ScheduleEntry, 0)
	for _, e := range s.entries {
		if e.DayOfWeek == day {
			out = append(out, e)
		}
	}
	return out
}

// Base базовый набор для выбранного дня: вся неделя отсортирована по дню и началу
func (s *EventStore) Base(day models.DaySelection) []models.ScheduleEntry {
	if day.IsAll() {
		return append([]models.ScheduleEntry(nil), s.week...)
	}
	return s.ByDay(int(day))
}

// CountByDay количество занятий по дням недели
func (s *EventStore) CountByDay() map[int]int {
	counts := make(map[int]int, models.DaysInWeek)
	for _, e := range s.entries {
		counts[e.DayOfWeek]++
	}
	return counts
}
