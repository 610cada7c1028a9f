package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrUnknownField = errors.New("unknown filter field")
	ErrUnknownJoin  = errors.New("unknown join operator")
	ErrInvalidDay   = errors.New("invalid day of week")
)

// FilterField поле, по которому фильтруются занятия
type FilterField int

const (
	FieldType FilterField = iota + 1
	FieldTitle
	FieldTeacher
	FieldTutor
	FieldCourse
	FieldPupil
	FieldRoom
)

var filterFieldNames = map[FilterField]string{
	FieldType:    "type",
	FieldTitle:   "title",
	FieldTeacher: "teacher",
	FieldTutor:   "tutor",
	FieldCourse:  "course",
	FieldPupil:   "pupil",
	FieldRoom:    "room",
}

// Подписи полей для текста результата фильтрации
var filterFieldLabels = map[FilterField]string{
	FieldType:    "Тип мероприятия",
	FieldTitle:   "Название мероприятия",
	FieldTeacher: "Учитель",
	FieldTutor:   "Куратор",
	FieldCourse:  "Направление",
	FieldPupil:   "Ребенок",
	FieldRoom:    "Кабинет",
}

// FilterFields все поля в порядке меню фильтров
func FilterFields() []FilterField {
	return []FilterField{FieldType, FieldTitle, FieldTeacher, FieldTutor, FieldCourse, FieldPupil, FieldRoom}
}

func ParseFilterField(s string) (FilterField, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for field, n := range filterFieldNames {
		if n == name {
			return field, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownField, s)
}

func (f FilterField) String() string {
	if n, ok := filterFieldNames[f]; ok {
		return n
	}
	return fmt.Sprintf("FilterField(%d)", int(f))
}

func (f FilterField) Label() string {
	return filterFieldLabels[f]
}

func (f FilterField) MarshalText() ([]byte, error) {
	if _, ok := filterFieldNames[f]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownField, int(f))
	}
	return []byte(f.String()), nil
}

func (f *FilterField) UnmarshalText(text []byte) error {
	parsed, err := ParseFilterField(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// JoinOperator связь фильтра с предыдущим
type JoinOperator string

const (
	JoinAnd JoinOperator = "and"
	JoinOr  JoinOperator = "or"
)

func ParseJoinOperator(s string) (JoinOperator, error) {
	switch JoinOperator(strings.ToLower(strings.TrimSpace(s))) {
	case "", JoinAnd:
		return JoinAnd, nil
	case JoinOr:
		return JoinOr, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownJoin, s)
	}
}

func (j *JoinOperator) UnmarshalText(text []byte) error {
	parsed, err := ParseJoinOperator(string(text))
	if err != nil {
		return err
	}
	*j = parsed
	return nil
}

// FilterClause одна строка фильтра. Границы времени необязательны.
type FilterClause struct {
	Field     FilterField  `json:"field"`
	Value     string       `json:"value"`
	TimeStart *ClockTime   `json:"time_start,omitempty"`
	TimeEnd   *ClockTime   `json:"time_end,omitempty"`
	Join      JoinOperator `json:"join"`
}

// UnmarshalJSON пустое поле времени ("" или null) означает, что границы нет
func (c *FilterClause) UnmarshalJSON(data []byte) error {
	type plain FilterClause
	var raw struct {
		plain
		TimeStart json.RawMessage `json:"time_start"`
		TimeEnd   json.RawMessage `json:"time_end"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	start, err := optionalClockTime(raw.TimeStart)
	if err != nil {
		return fmt.Errorf("time_start: %w", err)
	}
	end, err := optionalClockTime(raw.TimeEnd)
	if err != nil {
		return fmt.Errorf("time_end: %w", err)
	}
	*c = FilterClause(raw.plain)
	c.TimeStart, c.TimeEnd = start, end
	return nil
}

func optionalClockTime(data json.RawMessage) (*ClockTime, error) {
	s, err := stringOrNumber(data)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := ParseClockTime(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Active строка без значения и без времени игнорируется
func (c FilterClause) Active() bool {
	return strings.TrimSpace(c.Value) != "" || c.TimeStart != nil || c.TimeEnd != nil
}

// Describe текст вида `Преподаватель: "Иванов"`
func (c FilterClause) Describe() string {
	value := strings.TrimSpace(c.Value)
	if value == "" {
		value = "любой"
	}
	text := fmt.Sprintf("%s: %q", c.Field.Label(), value)
	if c.TimeStart != nil {
		text += " с " + c.TimeStart.String()
	}
	if c.TimeEnd != nil {
		text += " до " + c.TimeEnd.String()
	}
	return text
}

// DescribeClauses склеивает описания с логикой AND/OR между ними
func DescribeClauses(clauses []FilterClause) string {
	var b strings.Builder
	for i, c := range clauses {
		if i > 0 {
			b.WriteString(" " + strings.ToUpper(string(c.Join)) + " ")
		}
		b.WriteString(c.Describe())
	}
	return b.String()
}

// DaySelection выбранный день (1..7) или вся неделя
type DaySelection int

const AllDays DaySelection = 0

func ParseDaySelection(s string) (DaySelection, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "all" {
		return AllDays, nil
	}
	day, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDay, s)
	}
	if day < Monday || day > Sunday {
		return 0, fmt.Errorf("%w: %d", ErrInvalidDay, day)
	}
	return DaySelection(day), nil
}

func (d DaySelection) IsAll() bool { return d == AllDays }

func (d DaySelection) String() string {
	if d.IsAll() {
		return "all"
	}
	return fmt.Sprint(int(d))
}

func (d DaySelection) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalJSON принимает и "all"/"3", и число 3
func (d *DaySelection) UnmarshalJSON(data []byte) error {
	s, err := stringOrNumber(data)
	if err != nil {
		return err
	}
	parsed, err := ParseDaySelection(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
