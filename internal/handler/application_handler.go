package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/scholardist/internal/identity"
	"github.com/stemsi/scholardist/internal/middleware"
	"github.com/stemsi/scholardist/internal/model"
	"github.com/stemsi/scholardist/internal/response"
	"github.com/stemsi/scholardist/internal/service"
	"github.com/stemsi/scholardist/internal/validator"
)

// ApplicationHandler handles applicant submissions and the public pool.
type ApplicationHandler struct {
	scholarships *service.ScholarshipService
	log          zerolog.Logger
}

// NewApplicationHandler creates a new ApplicationHandler.
func NewApplicationHandler(scholarships *service.ScholarshipService, log zerolog.Logger) *ApplicationHandler {
	return &ApplicationHandler{
		scholarships: scholarships,
		log:          log.With().Str("component", "application_handler").Logger(),
	}
}

// Apply godoc
// POST /api/v1/programs/:id/applications
// The applicant is the token holder; the body only carries eligibility data.
func (h *ApplicationHandler) Apply(c *gin.Context) {
	id, ok := programID(c)
	if !ok {
		return
	}

	var req model.ApplicationDetails
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	app, err := h.scholarships.Apply(c.Request.Context(), id, middleware.GetIdentity(c), req)
	if err != nil {
		failDomain(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"application": app})
}

// ListApplications godoc
// GET /api/v1/programs/:id/applications[?identity=0x...]
func (h *ApplicationHandler) ListApplications(c *gin.Context) {
	id, ok := programID(c)
	if !ok {
		return
	}

	var q model.ApplicationListQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	apps, err := h.scholarships.ListApplications(c.Request.Context(), id)
	if err != nil {
		failDomain(c, h.log, err)
		return
	}

	if q.Identity != "" {
		filtered := make([]model.Application, 0, 1)
		for _, a := range apps {
			if identity.Equal(a.Identity, q.Identity) {
				filtered = append(filtered, a)
			}
		}
		apps = filtered
	}
	if apps == nil {
		apps = []model.Application{}
	}
	response.Success(c, http.StatusOK, gin.H{"applications": apps})
}

// ListWinners godoc
// GET /api/v1/programs/:id/winners
func (h *ApplicationHandler) ListWinners(c *gin.Context) {
	id, ok := programID(c)
	if !ok {
		return
	}

	winners, err := h.scholarships.ListWinners(c.Request.Context(), id)
	if err != nil {
		failDomain(c, h.log, err)
		return
	}
	if winners == nil {
		winners = []model.Application{}
	}
	response.Success(c, http.StatusOK, gin.H{"winners": winners})
}
