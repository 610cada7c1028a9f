package handlers

import (
	"net/http"

	"schedule-viewer/models"
	"schedule-viewer/services"

	"github.com/gin-gonic/gin"
)

// ViewHandler выбранный день, фильтры и наведение
type ViewHandler struct {
	session *services.Session
}

func NewViewHandler(session *services.Session) *ViewHandler {
	return &ViewHandler{session: session}
}

type SelectDayRequest struct {
	Day models.DaySelection `json:"day"`
}

type ApplyFiltersRequest struct {
	Clauses []models.FilterClause `json:"clauses"`
}

type HoverRequest struct {
	ID models.EntryID `json:"id"`
}

func (h *ViewHandler) GetView(c *gin.Context) {
	view, err := h.session.View()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": view})
}

// SelectDay смена дня сбрасывает фильтры
func (h *ViewHandler) SelectDay(c *gin.Context) {
	var req SelectDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	view, err := h.session.SelectDay(req.Day)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": view})
}

func (h *ViewHandler) ApplyFilters(c *gin.Context) {
	var req ApplyFiltersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	view, err := h.session.ApplyFilters(req.Clauses)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": view})
}

func (h *ViewHandler) ClearFilters(c *gin.Context) {
	view, err := h.session.ClearFilters()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": view})
}

// Hover пустой id снимает подсветку
func (h *ViewHandler) Hover(c *gin.Context) {
	var req HoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	view, err := h.session.Hover(req.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": view})
}

// respondBindError ошибки разбора полей фильтра отдаются как 400 с понятным текстом
func respondBindError(c *gin.Context, err error) {
	if errorsIsDomain(err) {
		respondError(c, err)
		return
	}
	badRequest(c, "invalid request body", err)
}
