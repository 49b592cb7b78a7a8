package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/scholardist/internal/engine"
	"github.com/stemsi/scholardist/internal/response"
)

// failDomain translates an engine error into the API envelope.
func failDomain(c *gin.Context, log zerolog.Logger, err error) {
	var ve *engine.ValidationError
	var ie *engine.IneligibleError

	switch {
	case errors.As(err, &ve):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, ve.Fields)
	case errors.As(err, &ie):
		response.FailWithReasons(c, http.StatusUnprocessableEntity, response.ErrIneligible, ie.Reasons)
	case errors.Is(err, engine.ErrInvalidIdentity):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidIdentity)
	case errors.Is(err, engine.ErrInvalidAmount):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidAmount)
	case errors.Is(err, engine.ErrUnauthorized):
		response.Fail(c, http.StatusForbidden, response.ErrNotAdministrator)
	case errors.Is(err, engine.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrProgramNotFound)
	case errors.Is(err, engine.ErrProgramInactive):
		response.Fail(c, http.StatusConflict, response.ErrProgramInactive)
	case errors.Is(err, engine.ErrDuplicateApplication):
		response.Fail(c, http.StatusConflict, response.ErrDuplicateApplication)
	case errors.Is(err, engine.ErrInsufficientFunds):
		response.Fail(c, http.StatusConflict, response.ErrInsufficientFunds)
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// programID parses the :id path parameter. Ids are dense and start at 1.
func programID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}
