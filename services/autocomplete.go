package services

import (
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"schedule-viewer/models"
)

// Autocomplete списки значений для подсказок, строятся один раз при загрузке
type Autocomplete struct {
	values map[models.FilterField][]string
}

func NewAutocomplete(entries []models.ScheduleEntry) *Autocomplete {
	sets := make(map[models.FilterField]map[string]bool)
	add := func(field models.FilterField, v string) {
		if v == "" {
			return
		}
		if sets[field] == nil {
			sets[field] = make(map[string]bool)
		}
		sets[field][v] = true
	}
	for _, e := range entries {
		add(models.FieldType, e.TypeOfEvent)
		add(models.FieldTitle, e.Title)
		add(models.FieldTeacher, e.Teacher)
		add(models.FieldTutor, e.Tutor)
		add(models.FieldCourse, e.Course)
		add(models.FieldRoom, e.Room.Label())
		for _, p := range e.Pupils {
			add(models.FieldPupil, p)
		}
	}

	coll := collate.New(language.Russian)
	a := &Autocomplete{values: make(map[models.FilterField][]string)}
	for _, field := range models.FilterFields() {
		list := make([]string, 0, len(sets[field]))
		for v := range sets[field] {
			list = append(list, v)
		}
		coll.SortStrings(list)
		a.values[field] = list
	}
	return a
}

// Suggest значения поля, содержащие q без учёта регистра; пустой q отдаёт весь список
func (a *Autocomplete) Suggest(field models.FilterField, q string, limit int) []string {
	out := make([]string, 0)
	q = fold(strings.TrimSpace(q))
	for _, v := range a.values[field] {
		if q == "" || containsFold(v, q) {
			out = append(out, v)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out
}
