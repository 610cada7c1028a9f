package handlers

import (
	"context"
	"fmt"
	"net/http"

	"schedule-viewer/logger"
	"schedule-viewer/models"
	"schedule-viewer/services"

	"github.com/gin-gonic/gin"
)

// ExportRecorder счётчик выгрузок
type ExportRecorder interface {
	Exported(format string, err error)
}

// ExportStorage хранилище сохранённых выгрузок (бакет MinIO)
type ExportStorage interface {
	Save(ctx context.Context, wb *services.Workbook) (*models.PresignedURLResponse, error)
	List(ctx context.Context) ([]models.ExportFile, error)
}

type ExportHandler struct {
	session      *services.Session
	exporter     *services.ExportService
	calendar     *services.CalendarService
	storage      ExportStorage
	cacheService *services.CacheService
	metrics      ExportRecorder
	log          logger.Logger
}

// NewExportHandler storage может быть nil: тогда сохранение выгрузок выключено
func NewExportHandler(session *services.Session, exporter *services.ExportService, calendar *services.CalendarService,
	storage ExportStorage, cache *services.CacheService, metrics ExportRecorder, log logger.Logger) *ExportHandler {
	return &ExportHandler{
		session:      session,
		exporter:     exporter,
		calendar:     calendar,
		storage:      storage,
		cacheService: cache,
		metrics:      metrics,
		log:          log,
	}
}

const exportsCacheKey = "exports:list"

func (h *ExportHandler) workbook() (*services.Workbook, error) {
	entries, _, err := h.session.Filtered()
	if err != nil {
		return nil, err
	}
	wb, err := h.exporter.BuildWorkbook(entries)
	h.metrics.Exported("xlsx", err)
	return wb, err
}

// DownloadXLSX отфильтрованные занятия одним файлом Excel
func (h *ExportHandler) DownloadXLSX(c *gin.Context) {
	wb, err := h.workbook()
	if err != nil {
		respondError(c, err)
		return
	}
	h.log.Infof("xlsx export %s: %d entries, %d courses", wb.FileName, wb.Entries, wb.Courses)
	c.Header("Content-Disposition", services.ContentDisposition(wb.FileName))
	c.Data(http.StatusOK, services.XLSXContentType, wb.Data)
}

// DownloadICS отфильтрованные занятия как еженедельные события (?week=YYYY-MM-DD)
func (h *ExportHandler) DownloadICS(c *gin.Context) {
	weekOf, err := h.calendar.ParseWeek(c.Query("week"))
	if err != nil {
		badRequest(c, "week must be a date YYYY-MM-DD", err)
		return
	}
	entries, _, err := h.session.Filtered()
	if err != nil {
		respondError(c, err)
		return
	}
	cal, err := h.calendar.BuildCalendar(entries, weekOf)
	h.metrics.Exported("ics", err)
	if err != nil {
		respondError(c, err)
		return
	}
	if cal.Skipped > 0 {
		h.log.Warnf("ics export %s: %d entries without a valid day skipped", cal.FileName, cal.Skipped)
	}
	c.Header("Content-Disposition", services.ContentDisposition(cal.FileName))
	c.Data(http.StatusOK, services.CalendarContentType, cal.Data)
}

// SaveExport кладёт выгрузку в бакет и возвращает ссылку на скачивание
func (h *ExportHandler) SaveExport(c *gin.Context) {
	if h.storage == nil {
		c.JSON(http.StatusNotImplemented, models.ErrorResponse{
			Error: "export storage is disabled",
		})
		return
	}
	wb, err := h.workbook()
	if err != nil {
		respondError(c, err)
		return
	}

	link, err := h.storage.Save(c.Request.Context(), wb)
	if err != nil {
		h.log.Errorf("failed to store export %s: %v", wb.FileName, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to store export",
			Message: err.Error(),
		})
		return
	}

	// Инвалидируем кэш списка выгрузок
	h.cacheService.Delete(exportsCacheKey)

	c.JSON(http.StatusCreated, gin.H{
		"message": fmt.Sprintf("Файл успешно сохранен как %q", wb.FileName),
		"entries": wb.Entries,
		"courses": wb.Courses,
		"data":    link,
	})
}

// ListExports сохранённые выгрузки, новые первыми
func (h *ExportHandler) ListExports(c *gin.Context) {
	if h.storage == nil {
		c.JSON(http.StatusNotImplemented, models.ErrorResponse{
			Error: "export storage is disabled",
		})
		return
	}

	if cached, found := h.cacheService.Get(exportsCacheKey); found {
		c.JSON(http.StatusOK, gin.H{
			"data":   cached,
			"cached": true,
		})
		return
	}

	files, err := h.storage.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list exports",
			Message: err.Error(),
		})
		return
	}
	h.cacheService.Set(exportsCacheKey, files, 0)

	c.JSON(http.StatusOK, gin.H{
		"data":   files,
		"cached": false,
	})
}
