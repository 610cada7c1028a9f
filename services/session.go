package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"schedule-viewer/logger"
	"schedule-viewer/models"
)

var (
	// ErrNotReady фид ещё загружается или загрузка не удалась
	ErrNotReady = errors.New("schedule is not ready")
	// ErrLoading фид ещё загружается (вместе с ErrNotReady)
	ErrLoading = errors.New("schedule is loading")
	// ErrUnknownEntry занятия с таким id нет
	ErrUnknownEntry = errors.New("unknown entry")
	// ErrUnknownDragPhase фаза жеста не start/move/end
	ErrUnknownDragPhase = errors.New("unknown drag phase")
	// ErrLayoutSkipped проход раскладки упал и пропущен
	ErrLayoutSkipped = errors.New("layout pass skipped")
)

// LoadStatus состояние загрузки фида
type LoadStatus string

const (
	StatusLoading LoadStatus = "loading"
	StatusReady   LoadStatus = "ready"
	StatusFailed  LoadStatus = "failed"
)

// Фазы жеста перетаскивания линии времени
const (
	DragStart = "start"
	DragMove  = "move"
	DragEnd   = "end"
)

// MetricsRecorder метрики движка
type MetricsRecorder interface {
	FeedLoaded(source string, entries int)
	FeedFailed(source string)
	LayoutPass(allDays bool)
	LayoutFailed()
	FilterEvaluated(clauses int)
}

type nopMetrics struct{}

func (nopMetrics) FeedLoaded(string, int) {}
func (nopMetrics) FeedFailed(string)      {}
func (nopMetrics) LayoutPass(bool)        {}
func (nopMetrics) LayoutFailed()          {}
func (nopMetrics) FilterEvaluated(int)    {}

type SessionConfig struct {
	Window           models.Window
	Location         *time.Location
	Geometry         Geometry
	RejectDegenerate bool
}

// StatusView ответ /status
type StatusView struct {
	Status   LoadStatus  `json:"status"`
	Message  string      `json:"message,omitempty"`
	Source   string      `json:"source,omitempty"`
	Entries  int         `json:"entries"`
	ByDay    map[int]int `json:"byDay,omitempty"`
	Report   FeedReport  `json:"report"`
	LoadedAt *time.Time  `json:"loadedAt,omitempty"`
	Version  uint64      `json:"version"`
}

// ViewSnapshot текущее состояние просмотра
type ViewSnapshot struct {
	Day      models.DaySelection    `json:"day"`
	DayName  string                 `json:"dayName"`
	Clauses  []models.FilterClause  `json:"clauses"`
	Entries  []models.ScheduleEntry `json:"entries"`
	Count    int                    `json:"count"`
	Summary  string                 `json:"summary"`
	Hovered  models.EntryID         `json:"hovered,omitempty"`
	Timeline TimelineView           `json:"timeline"`
	Version  uint64                 `json:"version"`
}

// Session единственная сессия просмотра. Все переходы выполняются под одним
// мьютексом и заменяют состояние целиком.
type Session struct {
	mu      sync.Mutex
	cfg     SessionConfig
	now     func() time.Time
	log     logger.Logger
	metrics MetricsRecorder

	started  bool
	status   LoadStatus
	loadErr  error
	source   string
	report   FeedReport
	loadedAt time.Time

	layout  func(ViewState, models.Window, float64, Geometry) models.LayoutView
	store   *EventStore
	suggest *Autocomplete
	state   ViewState
	version uint64

	done chan struct{}
}

func NewSession(cfg SessionConfig, now func() time.Time, log logger.Logger, metrics MetricsRecorder) *Session {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Geometry == (Geometry{}) {
		cfg.Geometry = DefaultGeometry
	}
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	s := &Session{
		cfg:     cfg,
		now:     now,
		log:     log,
		metrics: metrics,
		status:  StatusLoading,
		layout:  BuildLayout,
		done:    make(chan struct{}),
	}
	s.state = ViewState{
		Hover:    map[models.EntryID]bool{},
		Timeline: NewTimeline(cfg.Window, s.localNow()),
	}
	return s
}

func (s *Session) localNow() time.Time {
	return s.now().In(s.cfg.Location)
}

// Today день недели "сегодня" в настроенном поясе (воскресенье = 7)
func (s *Session) Today() models.DaySelection {
	wd := int(s.localNow().Weekday())
	if wd == 0 {
		wd = models.Sunday
	}
	return models.DaySelection(wd)
}

// Start запускает загрузку в фоне. До её окончания методы движка отвечают ErrNotReady.
func (s *Session) Start(ctx context.Context, loader FeedLoader) {
	go func() {
		if err := s.Load(ctx, loader); err != nil {
			s.log.Errorf("feed load failed: %v", err)
		}
	}()
}

// Done закрывается после завершения загрузки (успешной или нет)
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Load синхронная загрузка. Повторной загрузки нет.
func (s *Session) Load(ctx context.Context, loader FeedLoader) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("feed is already loaded")
	}
	s.started = true
	s.mu.Unlock()
	defer close(s.done)

	start := time.Now()
	data, err := loader.Load(ctx)
	var (
		entries []models.ScheduleEntry
		report  FeedReport
	)
	if err == nil {
		entries, report, err = DecodeFeed(data, s.cfg.RejectDegenerate, s.log)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = loader.Name()
	if err != nil {
		s.status = StatusFailed
		s.loadErr = err
		s.metrics.FeedFailed(loader.Name())
		return fmt.Errorf("failed to load %s feed: %w", loader.Name(), err)
	}

	s.store = NewEventStore(entries)
	s.suggest = NewAutocomplete(entries)
	s.report = report
	s.loadedAt = s.now()
	s.state = NewViewState(s.store, s.Today(), s.state.Timeline)
	s.status = StatusReady
	s.version++
	s.metrics.FeedLoaded(loader.Name(), len(entries))
	s.log.Infow("feed loaded", map[string]any{
		"source":     loader.Name(),
		"entries":    report.Loaded,
		"malformed":  report.Malformed,
		"degenerate": report.Degenerate,
		"duplicates": report.Duplicates,
		"took":       time.Since(start).String(),
	})
	return nil
}

// readyLocked вызывается под s.mu
func (s *Session) readyLocked() error {
	switch s.status {
	case StatusReady:
		return nil
	case StatusFailed:
		return fmt.Errorf("%w: %v", ErrNotReady, s.loadErr)
	default:
		return fmt.Errorf("%w: %w", ErrNotReady, ErrLoading)
	}
}

func (s *Session) Status() StatusView {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := StatusView{Status: s.status, Source: s.source, Report: s.report, Version: s.version}
	switch s.status {
	case StatusLoading:
		v.Message = ErrLoading.Error()
	case StatusFailed:
		v.Message = s.loadErr.Error()
	case StatusReady:
		v.Entries = s.store.Len()
		v.ByDay = s.store.CountByDay()
		loaded := s.loadedAt
		v.LoadedAt = &loaded
	}
	return v
}

// Version растёт при каждой смене набора или вида (линия времени не считается)
func (s *Session) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Entries базовый набор дня без фильтров
func (s *Session) Entries(day models.DaySelection) ([]models.ScheduleEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return nil, err
	}
	return s.store.Base(day), nil
}

func (s *Session) snapshotLocked() ViewSnapshot {
	snap := ViewSnapshot{
		Day:      s.state.Day,
		DayName:  dayLabel(s.state.Day),
		Clauses:  append([]models.FilterClause{}, s.state.Clauses...),
		Entries:  append([]models.ScheduleEntry{}, s.state.Filtered...),
		Count:    len(s.state.Filtered),
		Summary:  s.state.Summary(),
		Timeline: s.state.Timeline.View(),
		Version:  s.version,
	}
	for id := range s.state.Hover {
		snap.Hovered = id
	}
	return snap
}

func dayLabel(day models.DaySelection) string {
	if day.IsAll() {
		return "Все дни"
	}
	return models.DayName(int(day))
}

func (s *Session) View() (ViewSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return ViewSnapshot{}, err
	}
	return s.snapshotLocked(), nil
}

func (s *Session) SelectDay(day models.DaySelection) (ViewSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return ViewSnapshot{}, err
	}
	s.state = s.state.SelectDay(s.store, day)
	s.version++
	return s.snapshotLocked(), nil
}

// ApplyFilters при ошибке валидации состояние не меняется
func (s *Session) ApplyFilters(clauses []models.FilterClause) (ViewSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return ViewSnapshot{}, err
	}
	next, err := s.state.ApplyFilters(s.store, clauses)
	if err != nil {
		return ViewSnapshot{}, err
	}
	s.state = next
	s.version++
	s.metrics.FilterEvaluated(len(next.Clauses))
	return s.snapshotLocked(), nil
}

func (s *Session) ClearFilters() (ViewSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return ViewSnapshot{}, err
	}
	s.state = s.state.ClearFilters(s.store)
	s.version++
	return s.snapshotLocked(), nil
}

// Hover пустой id снимает наведение
func (s *Session) Hover(id models.EntryID) (ViewSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return ViewSnapshot{}, err
	}
	if id != "" {
		if _, ok := s.store.Get(id); !ok {
			return ViewSnapshot{}, fmt.Errorf("%w: %q", ErrUnknownEntry, id)
		}
	}
	s.state = s.state.WithHover(id)
	s.version++
	return s.snapshotLocked(), nil
}

// Layout раскладка текущего вида. Паника внутри прохода логируется,
// проход пропускается, состояние не меняется.
func (s *Session) Layout(width float64) (view models.LayoutView, version uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return models.LayoutView{}, 0, err
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.Errorf("layout pass panicked: %v", r)
			s.metrics.LayoutFailed()
			view, err = models.LayoutView{}, fmt.Errorf("%w: %v", ErrLayoutSkipped, r)
		}
	}()
	view = s.layout(s.state, s.cfg.Window, width, s.cfg.Geometry)
	s.metrics.LayoutPass(s.state.Day.IsAll())
	return view, s.version, nil
}

// HitTest занятие под точкой (x, y) на canvas ширины width
func (s *Session) HitTest(width, x, y float64) (models.ScheduleEntry, bool, error) {
	view, _, err := s.Layout(width)
	if err != nil {
		return models.ScheduleEntry{}, false, err
	}
	id, ok := HitTest(Rects(view), x, y)
	if !ok {
		return models.ScheduleEntry{}, false, nil
	}
	for _, e := range view.Entries {
		if e.Entry.ID == id {
			return e.Entry, true, nil
		}
	}
	return models.ScheduleEntry{}, false, nil
}

// Now линия времени и занятия, идущие в этот момент
func (s *Session) Now() (NowView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return NowView{}, err
	}
	return BuildNow(s.state), nil
}

// Tick событие таймера. Работает и до загрузки фида.
func (s *Session) Tick() TimelineView {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = s.state.WithTimeline(s.state.Timeline.Tick(s.localNow()))
	return s.state.Timeline.View()
}

func (s *Session) ResetToNow() TimelineView {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = s.state.WithTimeline(s.state.Timeline.ResetToNow(s.localNow()))
	return s.state.Timeline.View()
}

// Drag один шаг жеста перетаскивания линии времени
func (s *Session) Drag(phase string, x, width float64) (TimelineView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tl := s.state.Timeline
	switch phase {
	case DragStart:
		tl = tl.StartDrag(x)
	case DragMove:
		tl, _ = tl.MoveDrag(x, width)
	case DragEnd:
		tl = tl.EndDrag()
	default:
		return tl.View(), fmt.Errorf("%w: %q", ErrUnknownDragPhase, phase)
	}
	s.state = s.state.WithTimeline(tl)
	return tl.View(), nil
}

// Statistics панель статистики по всем занятиям
func (s *Session) Statistics() (Overview, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return Overview{}, 0, err
	}
	return BuildOverview(s.store.All()), s.version, nil
}

func (s *Session) Autocomplete(field models.FilterField, q string, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return nil, err
	}
	return s.suggest.Suggest(field, q, limit), nil
}

// Filtered отфильтрованный набор и применённые фильтры (для выгрузки)
func (s *Session) Filtered() ([]models.ScheduleEntry, []models.FilterClause, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return nil, nil, err
	}
	return append([]models.ScheduleEntry{}, s.state.Filtered...),
		append([]models.FilterClause{}, s.state.Clauses...), nil
}
