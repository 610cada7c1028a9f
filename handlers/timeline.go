package handlers

import (
	"net/http"

	"schedule-viewer/services"

	"github.com/gin-gonic/gin"
)

// TimelineHandler линия текущего времени и список "идёт сейчас"
type TimelineHandler struct {
	session *services.Session
}

func NewTimelineHandler(session *services.Session) *TimelineHandler {
	return &TimelineHandler{session: session}
}

type DragRequest struct {
	Phase string  `json:"phase" binding:"required,oneof=start move end"`
	X     float64 `json:"x"`
	Width float64 `json:"width"`
}

// GetNow положение линии и занятия под ней
func (h *TimelineHandler) GetNow(c *gin.Context) {
	now, err := h.session.Now()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": now})
}

// ResetToNow кнопка "Сейчас"
func (h *TimelineHandler) ResetToNow(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.session.ResetToNow()})
}

// Drag шаг жеста: start, move, end
func (h *TimelineHandler) Drag(c *gin.Context) {
	var req DragRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}
	view, err := h.session.Drag(req.Phase, req.X, req.Width)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": view})
}
