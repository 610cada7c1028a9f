package services

import (
	"schedule-viewer/models"
)

func hm(h, m int) models.ClockTime {
	return models.ClockTime(h*60 + m)
}

func entry(id string, day int, begin, end models.ClockTime, teacher, building, number string) models.ScheduleEntry {
	return models.ScheduleEntry{
		ID:          models.EntryID(id),
		Title:       "Занятие " + id,
		TypeOfEvent: "Лекция",
		DayOfWeek:   day,
		Time:        models.TimeRange{Beginning: begin, Ending: end},
		Teacher:     teacher,
		Room:        models.Room{Building: building, Number: number},
	}
}

func ids(entries []models.ScheduleEntry) []models.EntryID {
	out := make([]models.EntryID, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func clockPtr(t models.ClockTime) *models.ClockTime {
	return &t
}

var testWindow = models.Window{Start: hm(8, 0), End: hm(20, 0)}
