package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"schedule-viewer/models"
)

func TestEventStoreBase(t *testing.T) {
	entries := []models.ScheduleEntry{
		entry("3", 2, hm(9, 0), hm(10, 0), "A", "A", "1"),
		entry("2", 1, hm(11, 0), hm(12, 0), "A", "A", "1"),
		entry("1", 1, hm(9, 0), hm(10, 0), "A", "A", "1"),
		entry("10", 2, hm(9, 0), hm(10, 0), "A", "A", "1"),
	}
	store := NewEventStore(entries)

	assert.Equal(t, 4, store.Len())
	// день: порядок фида
	assert.Equal(t, []models.EntryID{"2", "1"}, ids(store.Base(models.DaySelection(1))))
	// вся неделя: день, начало, id
	assert.Equal(t, []models.EntryID{"1", "2", "3", "10"}, ids(store.Base(models.AllDays)))
	assert.Empty(t, store.Base(models.DaySelection(7)))
	assert.Equal(t, map[int]int{1: 2, 2: 2}, store.CountByDay())

	e, ok := store.Get("10")
	assert.True(t, ok)
	assert.Equal(t, 2, e.DayOfWeek)
	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestEventStoreCopies(t *testing.T) {
	store := NewEventStore([]models.ScheduleEntry{entry("1", 1, hm(9, 0), hm(10, 0), "A", "A", "1")})

	all := store.All()
	all[0].Teacher = "changed"
	base := store.Base(models.AllDays)
	base[0].Teacher = "changed"

	e, _ := store.Get("1")
	assert.Equal(t, "A", e.Teacher)
	assert.Equal(t, "A", store.Base(models.AllDays)[0].Teacher)
}
