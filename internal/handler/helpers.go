package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"papir/backend/internal/service"
	"papir/backend/pkg/response"
)

// respondServiceError maps service sentinel errors to the HTTP envelope.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrCardNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrCardAlreadyExists):
		response.Conflict(c, err.Error())
	case errors.Is(err, service.ErrCardNotActivated):
		response.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrCardAlreadyActivated):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrBatchInsertFailed):
		response.Conflict(c, err.Error())
	case errors.Is(err, service.ErrStoreUnavailable):
		response.ServiceUnavailable(c, "card store unavailable")
	case errors.Is(err, service.ErrUpstream):
		response.InternalError(c, err.Error())
	default:
		response.InternalError(c, "internal server error")
	}
}
