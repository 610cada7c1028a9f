package handlers

import (
	"net/http"
	"strconv"

	"schedule-viewer/models"
	"schedule-viewer/services"

	"github.com/gin-gonic/gin"
)

const defaultSuggestLimit = 20

type AutocompleteHandler struct {
	session      *services.Session
	cacheService *services.CacheService
}

func NewAutocompleteHandler(session *services.Session, cache *services.CacheService) *AutocompleteHandler {
	return &AutocompleteHandler{
		session:      session,
		cacheService: cache,
	}
}

type fieldInfo struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// GetFields поля фильтра в порядке меню
func (h *AutocompleteHandler) GetFields(c *gin.Context) {
	fields := make([]fieldInfo, 0, len(models.FilterFields()))
	for _, f := range models.FilterFields() {
		fields = append(fields, fieldInfo{Name: f.String(), Label: f.Label()})
	}
	c.JSON(http.StatusOK, gin.H{"data": fields})
}

// GetSuggestions подсказки значений поля (?q=&limit=)
func (h *AutocompleteHandler) GetSuggestions(c *gin.Context) {
	field, err := models.ParseFilterField(c.Param("field"))
	if err != nil {
		respondError(c, err)
		return
	}
	limit := defaultSuggestLimit
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			badRequest(c, "limit must be a non-negative integer", err)
			return
		}
	}
	q := c.Query("q")

	cacheKey := services.AutocompleteCacheKey(field.String(), q+":"+strconv.Itoa(limit))

	// Проверяем кэш
	if cached, found := h.cacheService.Get(cacheKey); found {
		c.JSON(http.StatusOK, gin.H{
			"data":   cached,
			"cached": true,
		})
		return
	}

	values, err := h.session.Autocomplete(field, q, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	// Сохраняем в кэш
	h.cacheService.Set(cacheKey, values, 0)

	c.JSON(http.StatusOK, gin.H{
		"data":   values,
		"cached": false,
	})
}
