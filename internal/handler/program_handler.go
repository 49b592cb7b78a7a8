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

// ProgramHandler handles scholarship program endpoints.
type ProgramHandler struct {
	scholarships *service.ScholarshipService
	log          zerolog.Logger
}

// NewProgramHandler creates a new ProgramHandler.
func NewProgramHandler(scholarships *service.ScholarshipService, log zerolog.Logger) *ProgramHandler {
	return &ProgramHandler{
		scholarships: scholarships,
		log:          log.With().Str("component", "program_handler").Logger(),
	}
}

// ListPrograms godoc
// GET /api/v1/programs
func (h *ProgramHandler) ListPrograms(c *gin.Context) {
	programs, err := h.scholarships.ListPrograms(c.Request.Context())
	if err != nil {
		failDomain(c, h.log, err)
		return
	}
	if programs == nil {
		programs = []model.Program{}
	}
	response.Success(c, http.StatusOK, gin.H{"programs": programs})
}

// GetProgram godoc
// GET /api/v1/programs/:id
func (h *ProgramHandler) GetProgram(c *gin.Context) {
	id, ok := programID(c)
	if !ok {
		return
	}

	p, err := h.scholarships.GetProgram(c.Request.Context(), id)
	if err != nil {
		failDomain(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"program": p})
}

// CreateProgram godoc
// POST /api/v1/programs
// Administrator only. Registers a program and escrows the optional deposit.
func (h *ProgramHandler) CreateProgram(c *gin.Context) {
	var req model.ProgramSpec
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	p, err := h.scholarships.AddProgram(c.Request.Context(), middleware.GetIdentity(c), req)
	if err != nil {
		failDomain(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"program": p})
}

// FundProgram godoc
// POST /api/v1/programs/:id/fund
func (h *ProgramHandler) FundProgram(c *gin.Context) {
	id, ok := programID(c)
	if !ok {
		return
	}

	var req model.FundProgramRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	p, err := h.scholarships.FundProgram(c.Request.Context(), middleware.GetIdentity(c), id, req.Amount)
	if err != nil {
		failDomain(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"program": p})
}

// DeactivateProgram godoc
// POST /api/v1/programs/:id/deactivate
// Closes the program to new applications. Calling it twice is harmless.
func (h *ProgramHandler) DeactivateProgram(c *gin.Context) {
	id, ok := programID(c)
	if !ok {
		return
	}

	p, err := h.scholarships.DeactivateProgram(c.Request.Context(), middleware.GetIdentity(c), id)
	if err != nil {
		failDomain(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"program": p})
}
