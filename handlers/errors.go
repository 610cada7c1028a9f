package handlers

import (
	"errors"
	"net/http"

	"schedule-viewer/models"
	"schedule-viewer/services"

	"github.com/gin-gonic/gin"
)

// respondError переводит ошибки сервисов в HTTP-ответы
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrLoading):
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error: services.ErrLoading.Error(),
		})
	case errors.Is(err, services.ErrNotReady):
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error:   "schedule failed to load",
			Message: err.Error(),
		})
	case errors.Is(err, models.ErrUnknownField),
		errors.Is(err, models.ErrUnknownJoin),
		errors.Is(err, models.ErrInvalidDay),
		errors.Is(err, services.ErrUnknownDragPhase):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request",
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrUnknownEntry):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "entry not found",
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrNothingToExport):
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
			Error:   "nothing to export",
			Message: services.ErrNothingToExport.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal error",
			Message: err.Error(),
		})
	}
}

func badRequest(c *gin.Context, msg string, err error) {
	resp := models.ErrorResponse{Error: msg}
	if err != nil {
		resp.Message = err.Error()
	}
	c.JSON(http.StatusBadRequest, resp)
}

func errorsIsDomain(err error) bool {
	return errors.Is(err, models.ErrUnknownField) ||
		errors.Is(err, models.ErrUnknownJoin) ||
		errors.Is(err, models.ErrInvalidDay)
}
