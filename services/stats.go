package services

import (
	"sort"

	"schedule-viewer/models"
)

// Count значение с количеством
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// TeacherHours часы преподавателя за неделю
type TeacherHours struct {
	Teacher string  `json:"teacher"`
	Hours   float64 `json:"hours"`
}

type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
	Color string `json:"color"`
}

// Overview панель статистики по всем занятиям
type Overview struct {
	Total       int            `json:"total"`
	ByDay       map[int]int    `json:"byDay"`
	TopTeachers []TeacherHours `json:"topTeachers"`
	TopRooms    []Count        `json:"topRooms"`
	ByType      []TypeCount    `json:"byType"`
}

// Summary сводка для листа "Статистика" выгрузки
type Summary struct {
	Total       int     `json:"total"`
	ByType      []Count `json:"byType"`
	TopTeachers []Count `json:"topTeachers"`
}

const (
	overviewTop = 5
	summaryTop  = 10
)

func BuildOverview(entries []models.ScheduleEntry) Overview {
	o := Overview{Total: len(entries), ByDay: make(map[int]int)}

	hours := make(map[string]float64)
	var teachers []string
	for _, e := range entries {
		o.ByDay[e.DayOfWeek]++
		if _, seen := hours[e.Teacher]; !seen {
			teachers = append(teachers, e.Teacher)
		}
		hours[e.Teacher] += float64(e.Time.Ending-e.Time.Beginning) / 60
	}
	sort.SliceStable(teachers, func(i, j int) bool { return hours[teachers[i]] > hours[teachers[j]] })
	for i, t := range teachers {
		if i == overviewTop {
			break
		}
		o.TopTeachers = append(o.TopTeachers, TeacherHours{Teacher: t, Hours: hours[t]})
	}

	o.TopRooms = topCounts(entries, func(e models.ScheduleEntry) string { return e.Room.Label() }, overviewTop)
	for _, c := range countBy(entries, func(e models.ScheduleEntry) string { return e.TypeOfEvent }) {
		o.ByType = append(o.ByType, TypeCount{Type: c.Name, Count: c.Count, Color: models.EventColor(c.Name)})
	}
	return o
}

func BuildSummary(entries []models.ScheduleEntry) Summary {
	return Summary{
		Total:       len(entries),
		ByType:      countBy(entries, func(e models.ScheduleEntry) string { return e.TypeOfEvent }),
		TopTeachers: topCounts(entries, func(e models.ScheduleEntry) string { return e.Teacher }, summaryTop),
	}
}

// countBy считает в порядке первого появления
func countBy(entries []models.ScheduleEntry, key func(models.ScheduleEntry) string) []Count {
	index := make(map[string]int)
	var counts []Count
	for _, e := range entries {
		k := key(e)
		i, ok := index[k]
		if !ok {
			i = len(counts)
			index[k] = i
			counts = append(counts, Count{Name: k})
		}
		counts[i].Count++
	}
	return counts
}

// topCounts по убыванию, при равенстве в порядке появления
func topCounts(entries []models.ScheduleEntry, key func(models.ScheduleEntry) string, limit int) []Count {
	counts := countBy(entries, key)
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	if len(counts) > limit {
		counts = counts[:limit]
	}
	return counts
}
