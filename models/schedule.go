package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Дни недели в фиде: 1 = понедельник ... 7 = воскресенье
const (
	Monday     = 1
	Sunday     = 7
	DaysInWeek = 7
)

var dayNames = [DaysInWeek]string{
	"Понедельник",
	"Вторник",
	"Среда",
	"Четверг",
	"Пятница",
	"Суббота",
	"Воскресенье",
}

// DayName возвращает название дня недели (1 = понедельник)
func DayName(day int) string {
	if day < Monday || day > Sunday {
		return "Неизвестно"
	}
	return dayNames[day-1]
}

// EntryID идентификатор занятия. В фиде встречается и строкой, и числом.
type EntryID string

func (id *EntryID) UnmarshalJSON(data []byte) error {
	s, err := stringOrNumber(data)
	if err != nil {
		return fmt.Errorf("entry id: %w", err)
	}
	*id = EntryID(s)
	return nil
}

// Less сравнивает числовые идентификаторы как числа, остальные как строки
func (id EntryID) Less(other EntryID) bool {
	a, errA := strconv.ParseInt(string(id), 10, 64)
	b, errB := strconv.ParseInt(string(other), 10, 64)
	switch {
	case errA == nil && errB == nil:
		return a < b
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return id < other
	}
}

// ClockTime время суток в минутах от полуночи
type ClockTime int

// ParseClockTime разбирает "HH:MM" (минуты можно опустить: "9" == "09:00")
func ParseClockTime(s string) (ClockTime, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty time")
	}
	hourPart, minutePart, hasMinutes := strings.Cut(s, ":")
	hours, err := strconv.Atoi(hourPart)
	if err != nil || hours < 0 || hours > 24 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	minutes := 0
	if hasMinutes {
		minutes, err = strconv.Atoi(minutePart)
		if err != nil || minutes < 0 || minutes > 59 {
			return 0, fmt.Errorf("invalid minute in %q", s)
		}
	}
	if hours == 24 && minutes != 0 {
		return 0, fmt.Errorf("time %q is past 24:00", s)
	}
	return ClockTime(hours*60 + minutes), nil
}

func (t ClockTime) Hours() int { return int(t) / 60 }
func (t ClockTime) Minutes() int { return int(t) % 60 }

func (t ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hours(), t.Minutes())
}

func (t ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *ClockTime) UnmarshalJSON(data []byte) error {
	s, err := stringOrNumber(data)
	if err != nil {
		return fmt.Errorf("time: %w", err)
	}
	// отсутствующее время не ломает загрузку остальных полей
	if s == "" {
		*t = 0
		return nil
	}
	parsed, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// TimeRange интервал занятия. Написание "begining" сохранено ради совместимости с фидом.
type TimeRange struct {
	Beginning ClockTime `json:"begining"`
	Ending    ClockTime `json:"ending"`
}

// Duration длительность в минутах, отрицательные интервалы дают 0
func (r TimeRange) Duration() int {
	if r.Ending <= r.Beginning {
		return 0
	}
	return int(r.Ending - r.Beginning)
}

// Overlaps открытая проверка пересечения: касание концами не считается
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.Beginning < other.Ending && other.Beginning < r.Ending
}

// Contains включает обе границы
func (r TimeRange) Contains(t ClockTime) bool {
	return r.Beginning <= t && t <= r.Ending
}

func (r TimeRange) String() string {
	return r.Beginning.String() + "-" + r.Ending.String()
}

type Room struct {
	Building string `json:"building"`
	Number   string `json:"number"`
}

func (r *Room) UnmarshalJSON(data []byte) error {
	var raw struct {
		Building json.RawMessage `json:"building"`
		Number   json.RawMessage `json:"number"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	building, err := stringOrNumber(raw.Building)
	if err != nil {
		return fmt.Errorf("room building: %w", err)
	}
	number, err := stringOrNumber(raw.Number)
	if err != nil {
		return fmt.Errorf("room number: %w", err)
	}
	r.Building, r.Number = building, number
	return nil
}

// Label формат "здание-номер"
func (r Room) Label() string {
	return r.Building + "-" + r.Number
}

// ScheduleEntry одно занятие недельного расписания
type ScheduleEntry struct {
	ID          EntryID   `json:"id"`
	Title       string    `json:"title"`
	TypeOfEvent string    `json:"type_of_event"`
	DayOfWeek   int       `json:"day_of_week"`
	Time        TimeRange `json:"time"`
	Teacher     string    `json:"teacher"`
	Tutor       string    `json:"tutor"`
	Course      string    `json:"course"`
	Room        Room      `json:"room"`
	Pupils      []string  `json:"pupils"`
}

// Degenerate занятие с нулевой или отрицательной длительностью
func (e ScheduleEntry) Degenerate() bool {
	return e.Time.Beginning >= e.Time.Ending
}

// TeacherLastName первое слово ФИО
func (e ScheduleEntry) TeacherLastName() string {
	if fields := strings.Fields(e.Teacher); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

func stringOrNumber(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return "", fmt.Errorf("expected string or number, got %s", data)
	}
	return n.String(), nil
}
