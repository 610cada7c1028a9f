package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schedule-viewer/logger"
	"schedule-viewer/models"
	"schedule-viewer/services"
)

const testFeed = `[
  {"id": "1", "title": "Робототехника", "type_of_event": "кружок", "day_of_week": 1,
   "time": {"begining": "09:00", "ending": "10:00"}, "teacher": "Иванов", "course": "Инженерия",
   "room": {"building": "A", "number": "101"}, "pupils": ["Петя"]},
  {"id": "2", "title": "Шахматы", "type_of_event": "кружок", "day_of_week": 1,
   "time": {"begining": "09:30", "ending": "10:30"}, "teacher": "Иванов",
   "room": {"building": "B", "number": "2"}},
  {"id": "3", "title": "Концерт", "type_of_event": "концерт", "day_of_week": 3,
   "time": {"begining": "18:00", "ending": "19:00"}, "teacher": "Петров",
   "room": {"building": "A", "number": "101"}}
]`

type feed struct {
	data string
	gate chan struct{}
}

func (f feed) Name() string { return "test" }

func (f feed) Load(ctx context.Context) ([]byte, error) {
	if f.gate != nil {
		<-f.gate
	}
	return []byte(f.data), nil
}

type exportCounter struct {
	ok, failed int
}

func (e *exportCounter) Exported(format string, err error) {
	if err != nil {
		e.failed++
		return
	}
	e.ok++
}

type memoryStorage struct {
	saved []*services.Workbook
}

func (m *memoryStorage) Save(ctx context.Context, wb *services.Workbook) (*models.PresignedURLResponse, error) {
	m.saved = append(m.saved, wb)
	return &models.PresignedURLResponse{URL: "http://minio.local/" + wb.FileName, FileName: wb.FileName}, nil
}

func (m *memoryStorage) List(ctx context.Context) ([]models.ExportFile, error) {
	files := make([]models.ExportFile, 0, len(m.saved))
	for _, wb := range m.saved {
		files = append(files, models.ExportFile{Name: wb.FileName, Size: int64(len(wb.Data))})
	}
	return files, nil
}

func monday() time.Time {
	return time.Date(2024, 9, 2, 9, 45, 0, 0, time.UTC)
}

type testAPI struct {
	router  *gin.Engine
	session *services.Session
	exports *exportCounter
	storage *memoryStorage
}

func newTestAPI(t *testing.T, loader services.FeedLoader) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	session := services.NewSession(services.SessionConfig{
		Window:   models.Window{Start: 8 * 60, End: 20 * 60},
		Location: time.UTC,
	}, monday, logger.NopLogger{}, nil)
	session.Start(context.Background(), loader)

	cache := services.NewCacheService(time.Minute, time.Minute)
	api := &testAPI{session: session, exports: &exportCounter{}, storage: &memoryStorage{}}

	schedule := NewScheduleHandler(session, cache)
	view := NewViewHandler(session)
	timeline := NewTimelineHandler(session)
	autocomplete := NewAutocompleteHandler(session, cache)
	exports := NewExportHandler(session,
		services.NewExportService(monday),
		services.NewCalendarService(time.UTC, 0, monday, logger.NopLogger{}),
		api.storage, cache, api.exports, logger.NopLogger{})

	r := gin.New()
	r.GET("/status", schedule.GetStatus)
	r.GET("/entries", schedule.GetEntries)
	r.GET("/layout", schedule.GetLayout)
	r.GET("/layout/hit", schedule.HitTest)
	r.GET("/statistics", schedule.GetStatistics)
	r.POST("/cache/invalidate", schedule.InvalidateCache)
	r.GET("/view", view.GetView)
	r.PUT("/view/day", view.SelectDay)
	r.POST("/view/filters", view.ApplyFilters)
	r.DELETE("/view/filters", view.ClearFilters)
	r.PUT("/view/hover", view.Hover)
	r.GET("/now", timeline.GetNow)
	r.POST("/timeline/now", timeline.ResetToNow)
	r.POST("/timeline/drag", timeline.Drag)
	r.GET("/autocomplete", autocomplete.GetFields)
	r.GET("/autocomplete/:field", autocomplete.GetSuggestions)
	r.GET("/export/xlsx", exports.DownloadXLSX)
	r.GET("/export/ics", exports.DownloadICS)
	r.POST("/exports", exports.SaveExport)
	r.GET("/exports", exports.ListExports)
	api.router = r
	return api
}

func readyAPI(t *testing.T) *testAPI {
	t.Helper()
	api := newTestAPI(t, feed{data: testFeed})
	<-api.session.Done()
	return api
}

func (a *testAPI) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestEndpointsGatedWhileLoading(t *testing.T) {
	gate := make(chan struct{})
	api := newTestAPI(t, feed{data: testFeed, gate: gate})
	defer close(gate)

	for _, path := range []string{"/view", "/layout", "/now", "/statistics", "/entries", "/autocomplete/teacher", "/export/xlsx"} {
		w := api.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)

		var resp models.ErrorResponse
		decode(t, w, &resp)
		assert.Equal(t, "schedule is loading", resp.Error, path)
	}

	w := api.do(t, http.MethodGet, "/status", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"loading"`)
}

func TestViewAndFilters(t *testing.T) {
	api := readyAPI(t)

	w := api.do(t, http.MethodGet, "/view", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data services.ViewSnapshot `json:"data"`
	}
	decode(t, w, &resp)
	assert.Equal(t, models.DaySelection(1), resp.Data.Day)
	assert.Equal(t, 2, resp.Data.Count)

	w = api.do(t, http.MethodPost, "/view/filters", `{"clauses": [{"field": "title", "value": "шах"}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &resp)
	require.Len(t, resp.Data.Entries, 1)
	assert.Equal(t, models.EntryID("2"), resp.Data.Entries[0].ID)
	assert.Contains(t, resp.Data.Summary, "Найдено мероприятий: 1")

	w = api.do(t, http.MethodPost, "/view/filters", `{"clauses": [{"field": "color", "value": "x"}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPut, "/view/day", `{"day": "all"}`)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &resp)
	assert.Equal(t, 3, resp.Data.Count)
	assert.Empty(t, resp.Data.Clauses)

	w = api.do(t, http.MethodPut, "/view/day", `{"day": 9}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPut, "/view/hover", `{"id": "3"}`)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &resp)
	assert.Equal(t, models.EntryID("3"), resp.Data.Hovered)

	w = api.do(t, http.MethodPut, "/view/hover", `{"id": "404"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodDelete, "/view/filters", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLayoutCachedByVersion(t *testing.T) {
	api := readyAPI(t)

	var resp struct {
		Data   models.LayoutView `json:"data"`
		Cached bool              `json:"cached"`
	}
	w := api.do(t, http.MethodGet, "/layout?width=720", "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &resp)
	assert.False(t, resp.Cached)
	require.Len(t, resp.Data.Entries, 2)
	assert.True(t, resp.Data.Entries[0].Conflict)
	assert.NotNil(t, resp.Data.Entries[0].Rect)

	w = api.do(t, http.MethodGet, "/layout?width=720", "")
	decode(t, w, &resp)
	assert.True(t, resp.Cached)

	// смена вида меняет версию
	api.do(t, http.MethodPut, "/view/hover", `{"id": "1"}`)
	w = api.do(t, http.MethodGet, "/layout?width=720", "")
	decode(t, w, &resp)
	assert.False(t, resp.Cached)
	assert.True(t, resp.Data.Entries[0].Hovered)

	w = api.do(t, http.MethodGet, "/layout?width=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHitTest(t *testing.T) {
	api := readyAPI(t)

	w := api.do(t, http.MethodGet, "/layout/hit?width=720&x=90&y=50", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Found bool                 `json:"found"`
		Data  models.ScheduleEntry `json:"data"`
	}
	decode(t, w, &resp)
	assert.True(t, resp.Found)
	assert.Equal(t, models.EntryID("1"), resp.Data.ID)

	w = api.do(t, http.MethodGet, "/layout/hit?width=720&x=700&y=50", "")
	decode(t, w, &resp)
	assert.False(t, resp.Found)

	w = api.do(t, http.MethodGet, "/layout/hit?x=1&y=1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimelineEndpoints(t *testing.T) {
	api := readyAPI(t)

	w := api.do(t, http.MethodGet, "/now", "")
	require.Equal(t, http.StatusOK, w.Code)
	var now struct {
		Data services.NowView `json:"data"`
	}
	decode(t, w, &now)
	assert.Len(t, now.Data.Entries, 2)

	w = api.do(t, http.MethodPost, "/timeline/drag", `{"phase": "start", "x": 0}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = api.do(t, http.MethodPost, "/timeline/drag", `{"phase": "move", "x": 1000, "width": 1000}`)
	require.Equal(t, http.StatusOK, w.Code)
	var tl struct {
		Data services.TimelineView `json:"data"`
	}
	decode(t, w, &tl)
	assert.InDelta(t, 100.0, tl.Data.Position, 1e-9)
	assert.Equal(t, services.ModeManual, tl.Data.Mode)

	w = api.do(t, http.MethodPost, "/timeline/drag", `{"phase": "fly"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPost, "/timeline/now", "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &tl)
	assert.Equal(t, services.ModeAutomatic, tl.Data.Mode)
}

func TestAutocompleteAndStatistics(t *testing.T) {
	api := readyAPI(t)

	w := api.do(t, http.MethodGet, "/autocomplete/teacher?q=ив", "")
	require.Equal(t, http.StatusOK, w.Code)
	var values struct {
		Data []string `json:"data"`
	}
	decode(t, w, &values)
	assert.Equal(t, []string{"Иванов"}, values.Data)

	w = api.do(t, http.MethodGet, "/autocomplete/color", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodGet, "/autocomplete", "")
	assert.Contains(t, w.Body.String(), `"label":"Кабинет"`)

	w = api.do(t, http.MethodGet, "/statistics", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats struct {
		Data services.Overview `json:"data"`
	}
	decode(t, w, &stats)
	assert.Equal(t, 3, stats.Data.Total)

	w = api.do(t, http.MethodPost, "/cache/invalidate", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestExports(t *testing.T) {
	api := readyAPI(t)

	w := api.do(t, http.MethodGet, "/export/xlsx", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, services.XLSXContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")

	w = api.do(t, http.MethodGet, "/export/ics?week=2024-09-04", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "BEGIN:VCALENDAR"))

	w = api.do(t, http.MethodGet, "/export/ics?week=tomorrow", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPost, "/exports", "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "Файл успешно сохранен")
	require.Len(t, api.storage.saved, 1)

	w = api.do(t, http.MethodGet, "/exports", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), api.storage.saved[0].FileName)

	// пустой набор: 422 и без файла
	api.do(t, http.MethodPost, "/view/filters", `{"clauses": [{"field": "teacher", "value": "никто"}]}`)
	w = api.do(t, http.MethodGet, "/export/xlsx", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var resp models.ErrorResponse
	decode(t, w, &resp)
	assert.Equal(t, "нет данных для выгрузки", resp.Message)

	assert.Equal(t, 3, api.exports.ok)
	assert.Equal(t, 1, api.exports.failed)
}
