package services

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"schedule-viewer/logger"
	"schedule-viewer/models"
)

// CalendarContentType MIME-тип ICS
const CalendarContentType = "text/calendar; charset=utf-8"

const calendarProductID = "-//schedule-viewer//weekly schedule//RU"

var rruleWeekdays = [models.DaysInWeek]rrule.Weekday{
	rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA, rrule.SU,
}

// Calendar готовый ICS-файл
type Calendar struct {
	FileName string
	Data     []byte
	Events   int
	Skipped  int
}

type CalendarService struct {
	loc   *time.Location
	now   func() time.Time
	weeks int
	log   logger.Logger
}

// NewCalendarService weeks ограничивает число повторов (0 = без ограничения)
func NewCalendarService(loc *time.Location, weeks int, now func() time.Time, log logger.Logger) *CalendarService {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &CalendarService{loc: loc, now: now, weeks: weeks, log: log}
}

// WeekStart понедельник 00:00 недели, в которую попадает t
func WeekStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, loc)
}

// ParseWeek дата YYYY-MM-DD в настроенном поясе; пустая строка значит текущую неделю
func (s *CalendarService) ParseWeek(raw string) (time.Time, error) {
	if raw == "" {
		return s.now().In(s.loc), nil
	}
	t, err := time.ParseInLocation(time.DateOnly, raw, s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid week date %q: %w", raw, err)
	}
	return t, nil
}

// FirstOccurrence начало занятия в неделе, начинающейся с weekStart
func (s *CalendarService) FirstOccurrence(e models.ScheduleEntry, weekStart time.Time) (time.Time, error) {
	if e.DayOfWeek < models.Monday || e.DayOfWeek > models.Sunday {
		return time.Time{}, fmt.Errorf("entry %s: %w", e.ID, models.ErrInvalidDay)
	}
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   weekStart,
		Byweekday: []rrule.Weekday{rruleWeekdays[e.DayOfWeek-1]},
		Byhour:    []int{e.Time.Beginning.Hours()},
		Byminute:  []int{e.Time.Beginning.Minutes()},
		Bysecond:  []int{0},
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("entry %s: %w", e.ID, err)
	}
	start := r.After(weekStart, true)
	if start.IsZero() {
		return time.Time{}, fmt.Errorf("entry %s: no occurrence after %s", e.ID, weekStart.Format(time.DateOnly))
	}
	return start, nil
}

// recurrenceRule RRULE без DTSTART: повтор каждую неделю
func (s *CalendarService) recurrenceRule() string {
	opt := rrule.ROption{Freq: rrule.WEEKLY, Count: s.weeks}
	return strings.TrimPrefix(opt.String(), "RRULE:")
}

// BuildCalendar занятия как еженедельные события начиная с недели weekOf.
// Занятия без корректного дня недели пропускаются с предупреждением.
func (s *CalendarService) BuildCalendar(entries []models.ScheduleEntry, weekOf time.Time) (*Calendar, error) {
	if len(entries) == 0 {
		return nil, ErrNothingToExport
	}

	weekStart := WeekStart(weekOf, s.loc)
	stamp := s.now().UTC()
	rule := s.recurrenceRule()

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(calendarProductID)

	count, skipped := 0, 0
	for _, e := range entries {
		start, err := s.FirstOccurrence(e, weekStart)
		if err != nil {
			skipped++
			s.log.Warnf("skipping calendar event: %v", err)
			continue
		}
		end := start.Add(time.Duration(e.Time.Duration()) * time.Minute)

		event := cal.AddEvent(fmt.Sprintf("%s-%s@schedule-viewer", e.ID, weekStart.Format("20060102")))
		event.SetDtStampTime(stamp)
		event.SetStartAt(start)
		event.SetEndAt(end)
		event.SetSummary(e.Title)
		event.SetLocation(e.Room.Label())
		event.SetDescription(eventDescription(e))
		event.SetProperty(ical.ComponentPropertyRrule, rule)
		count++
	}
	if count == 0 {
		return nil, ErrNothingToExport
	}

	return &Calendar{
		FileName: fmt.Sprintf("Расписание_%s.ics", weekStart.Format("2006-01-02")),
		Data:     []byte(cal.Serialize()),
		Events:   count,
		Skipped:  skipped,
	}, nil
}

func eventDescription(e models.ScheduleEntry) string {
	lines := []string{
		"Тип: " + e.TypeOfEvent,
		"Преподаватель: " + e.Teacher,
	}
	if e.Tutor != "" {
		lines = append(lines, "Куратор: "+e.Tutor)
	}
	if e.Course != "" {
		lines = append(lines, "Направление: "+e.Course)
	}
	lines = append(lines, fmt.Sprintf("Учеников: %d", len(e.Pupils)))
	return strings.Join(lines, "\n")
}
