package handlers

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"schedule-viewer/models"
	"schedule-viewer/services"

	"github.com/gin-gonic/gin"
)

type ScheduleHandler struct {
	session      *services.Session
	cacheService *services.CacheService
}

func NewScheduleHandler(session *services.Session, cache *services.CacheService) *ScheduleHandler {
	return &ScheduleHandler{
		session:      session,
		cacheService: cache,
	}
}

// GetStatus состояние загрузки фида. Отвечает и во время загрузки.
func (h *ScheduleHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.Status())
}

// GetEntries базовый набор дня без фильтров (?day=1..7|all, по умолчанию текущий день)
func (h *ScheduleHandler) GetEntries(c *gin.Context) {
	day := h.session.Today()
	if raw := c.Query("day"); raw != "" {
		parsed, err := models.ParseDaySelection(raw)
		if err != nil {
			respondError(c, err)
			return
		}
		day = parsed
	}

	entries, err := h.session.Entries(day)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"day":   day,
		"count": len(entries),
		"data":  entries,
	})
}

// GetLayout раскладка текущего вида (?width= ширина canvas, 0 без прямоугольников)
func (h *ScheduleHandler) GetLayout(c *gin.Context) {
	width, err := floatQuery(c, "width", 0)
	if err != nil || width < 0 {
		badRequest(c, "width must be a non-negative number", err)
		return
	}

	version := h.session.Version()
	cacheKey := services.LayoutCacheKey(version, width)

	// Проверяем кэш
	if cached, found := h.cacheService.Get(cacheKey); found {
		c.JSON(http.StatusOK, gin.H{
			"data":   cached,
			"cached": true,
		})
		return
	}

	view, version, err := h.session.Layout(width)
	if err != nil {
		respondError(c, err)
		return
	}

	// Сохраняем в кэш под версией, для которой раскладка посчитана
	h.cacheService.Set(services.LayoutCacheKey(version, width), view, 0)

	c.JSON(http.StatusOK, gin.H{
		"data":   view,
		"cached": false,
	})
}

// HitTest занятие под точкой canvas (?width=&x=&y=)
func (h *ScheduleHandler) HitTest(c *gin.Context) {
	width, errW := floatQuery(c, "width", 0)
	x, errX := floatQuery(c, "x", 0)
	y, errY := floatQuery(c, "y", 0)
	if errW != nil || errX != nil || errY != nil || width <= 0 {
		badRequest(c, "width, x and y must be numbers, width > 0", nil)
		return
	}

	entry, found, err := h.session.HitTest(width, x, y)
	if err != nil {
		respondError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusOK, gin.H{"found": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"found": true,
		"data":  entry,
		"color": models.EventColor(entry.TypeOfEvent),
	})
}

// GetStatistics панель статистики
func (h *ScheduleHandler) GetStatistics(c *gin.Context) {
	cacheKey := services.StatisticsCacheKey(h.session.Version())
	if cached, found := h.cacheService.Get(cacheKey); found {
		c.JSON(http.StatusOK, gin.H{
			"data":   cached,
			"cached": true,
		})
		return
	}

	overview, version, err := h.session.Statistics()
	if err != nil {
		respondError(c, err)
		return
	}
	h.cacheService.Set(services.StatisticsCacheKey(version), overview, 0)

	c.JSON(http.StatusOK, gin.H{
		"data":   overview,
		"cached": false,
	})
}

// InvalidateCache удаляет кэш
func (h *ScheduleHandler) InvalidateCache(c *gin.Context) {
	h.cacheService.Flush()
	c.JSON(http.StatusOK, gin.H{
		"message": "cache invalidated successfully",
	})
}

func floatQuery(c *gin.Context, key string, def float64) (float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s is not a finite number", key)
	}
	return v, nil
}
