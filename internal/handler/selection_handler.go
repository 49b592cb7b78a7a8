package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/scholardist/internal/middleware"
	"github.com/stemsi/scholardist/internal/model"
	"github.com/stemsi/scholardist/internal/response"
	"github.com/stemsi/scholardist/internal/service"
	"github.com/stemsi/scholardist/internal/validator"
)

// SelectionHandler triggers selection runs and serves their history.
type SelectionHandler struct {
	scholarships *service.ScholarshipService
	log          zerolog.Logger
}

// NewSelectionHandler creates a new SelectionHandler.
func NewSelectionHandler(scholarships *service.ScholarshipService, log zerolog.Logger) *SelectionHandler {
	return &SelectionHandler{
		scholarships: scholarships,
		log:          log.With().Str("component", "selection_handler").Logger(),
	}
}

// RunSelection godoc
// POST /api/v1/programs/:id/selection
// A PARTIAL outcome is still a 200: the payouts it reports are committed.
func (h *SelectionHandler) RunSelection(c *gin.Context) {
	id, ok := programID(c)
	if !ok {
		return
	}

	rep, err := h.scholarships.RunSelection(c.Request.Context(), middleware.GetIdentity(c), id)
	if err != nil {
		failDomain(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"report": rep})
}

// ListRuns godoc
// GET /api/v1/programs/:id/runs?page=1&per_page=20
func (h *SelectionHandler) ListRuns(c *gin.Context) {
	id, ok := programID(c)
	if !ok {
		return
	}

	var q model.RunListQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	runs, pagination, err := h.scholarships.ListRuns(c.Request.Context(), id, q.Page, q.PerPage)
	if err != nil {
		failDomain(c, h.log, err)
		return
	}
	if runs == nil {
		runs = []model.Report{}
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"runs": runs}, pagination)
}
