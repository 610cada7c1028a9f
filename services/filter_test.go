package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schedule-viewer/models"
)

func filterBase() []models.ScheduleEntry {
	e1 := entry("1", 1, hm(9, 0), hm(10, 0), "Smith John", "A", "101")
	e2 := entry("2", 1, hm(10, 0), hm(11, 0), "Smith John", "B", "112")
	e3 := entry("3", 1, hm(13, 0), hm(14, 0), "Brown Anna", "A", "101")
	e4 := entry("4", 1, hm(14, 0), hm(15, 0), "Иванова Мария", "A", "1120")
	e3.TypeOfEvent = "lecture"
	e4.TypeOfEvent = "Lecture"
	e1.TypeOfEvent = "lecture"
	e2.Pupils = []string{"Петров Пётр", "Сидорова Анна"}
	e4.Course = "Робототехника"
	return []models.ScheduleEntry{e1, e2, e3, e4}
}

func TestApplyFiltersAndOr(t *testing.T) {
	base := filterBase()

	and, err := ApplyFilters(base, []models.FilterClause{
		{Field: models.FieldTeacher, Value: "smith"},
		{Field: models.FieldRoom, Value: "A-101", Join: models.JoinAnd},
	})
	require.NoError(t, err)
	assert.Equal(t, []models.EntryID{"1"}, ids(and))

	or, err := ApplyFilters(base, []models.FilterClause{
		{Field: models.FieldTeacher, Value: "smith"},
		{Field: models.FieldRoom, Value: "A-101", Join: models.JoinOr},
	})
	require.NoError(t, err)
	assert.Equal(t, []models.EntryID{"1", "2", "3"}, ids(or))
}

func TestApplyFiltersMixedChainUsesBase(t *testing.T) {
	base := filterBase()

	// (smith AND building B) OR room A-101: "or" возвращает 1 и 3 из полного набора
	got, err := ApplyFilters(base, []models.FilterClause{
		{Field: models.FieldTeacher, Value: "smith"},
		{Field: models.FieldRoom, Value: "B", Join: models.JoinAnd},
		{Field: models.FieldRoom, Value: "A-101", Join: models.JoinOr},
	})
	require.NoError(t, err)
	assert.Equal(t, []models.EntryID{"1", "2", "3"}, ids(got))

	// (smith OR room A-101) AND building B
	got, err = ApplyFilters(base, []models.FilterClause{
		{Field: models.FieldTeacher, Value: "smith"},
		{Field: models.FieldRoom, Value: "A-101", Join: models.JoinOr},
		{Field: models.FieldRoom, Value: "B", Join: models.JoinAnd},
	})
	require.NoError(t, err)
	assert.Equal(t, []models.EntryID{"2"}, ids(got))
}

func TestRoomPredicate(t *testing.T) {
	base := filterBase()

	tests := []struct {
		query string
		want  []models.EntryID
	}{
		{query: "A-101", want: []models.EntryID{"1", "3"}},
		{query: "a-101", want: []models.EntryID{"1", "3"}},
		{query: "B-112", want: []models.EntryID{"2"}},
		{query: "112", want: []models.EntryID{"2", "4"}},
		{query: "A", want: []models.EntryID{"1", "3", "4"}},
		{query: "C", want: []models.EntryID{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := ApplyFilters(base, []models.FilterClause{{Field: models.FieldRoom, Value: tt.query}})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestTimeRangeFilter(t *testing.T) {
	base := filterBase()

	got, err := ApplyFilters(base, []models.FilterClause{
		{Field: models.FieldType, Value: "lecture", TimeStart: clockPtr(hm(13, 0))},
	})
	require.NoError(t, err)
	assert.Equal(t, []models.EntryID{"3", "4"}, ids(got))

	got, err = ApplyFilters(base, []models.FilterClause{
		{Field: models.FieldType, TimeEnd: clockPtr(hm(11, 0))},
	})
	require.NoError(t, err)
	assert.Equal(t, []models.EntryID{"1", "2"}, ids(got))

	// [10:00, 13:00) пересекает только второе занятие
	got, err = ApplyFilters(base, []models.FilterClause{
		{Field: models.FieldTeacher, TimeStart: clockPtr(hm(10, 0)), TimeEnd: clockPtr(hm(13, 0))},
	})
	require.NoError(t, err)
	assert.Equal(t, []models.EntryID{"2"}, ids(got))
}

func TestFieldPredicates(t *testing.T) {
	base := filterBase()

	tests := []struct {
		name   string
		clause models.FilterClause
		want   []models.EntryID
	}{
		{"pupil any", models.FilterClause{Field: models.FieldPupil, Value: "анна"}, []models.EntryID{"2"}},
		{"cyrillic teacher case", models.FilterClause{Field: models.FieldTeacher, Value: "ИВАНОВА"}, []models.EntryID{"4"}},
		{"course", models.FilterClause{Field: models.FieldCourse, Value: "робот"}, []models.EntryID{"4"}},
		{"title", models.FilterClause{Field: models.FieldTitle, Value: "занятие 3"}, []models.EntryID{"3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyFilters(base, []models.FilterClause{tt.clause})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestApplyFiltersEmptyAndInvalid(t *testing.T) {
	base := filterBase()

	got, err := ApplyFilters(base, []models.FilterClause{{Field: models.FieldTeacher, Value: "  "}})
	require.NoError(t, err)
	assert.Equal(t, ids(base), ids(got))

	_, err = ApplyFilters(base, []models.FilterClause{{Field: models.FilterField(99), Value: "x"}})
	assert.ErrorIs(t, err, models.ErrUnknownField)

	_, err = ApplyFilters(base, []models.FilterClause{
		{Field: models.FieldTeacher, Value: "x"},
		{Field: models.FieldTeacher, Value: "y", Join: "xor"},
	})
	assert.ErrorIs(t, err, models.ErrUnknownJoin)
}

func TestEndOnlyClauseFromForm(t *testing.T) {
	var clause models.FilterClause
	require.NoError(t, json.Unmarshal([]byte(`{"field": "teacher", "value": "", "time_start": "", "time_end": "12:00"}`), &clause))

	base := []models.ScheduleEntry{
		entry("1", 1, hm(9, 0), hm(10, 0), "Smith John", "A", "101"),
		entry("2", 1, hm(11, 0), hm(13, 0), "Smith John", "A", "102"),
		entry("3", 1, hm(11, 0), hm(12, 0), "Brown Anna", "B", "1"),
	}
	got, err := ApplyFilters(base, []models.FilterClause{clause})
	require.NoError(t, err)
	assert.Equal(t, []models.EntryID{"1", "3"}, ids(got))

	matched, err := MatchClause(base[1], clause)
	require.NoError(t, err)
	assert.False(t, matched)
}
