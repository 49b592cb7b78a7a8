package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/scholardist/internal/middleware"
	"github.com/stemsi/scholardist/internal/response"
	"github.com/stemsi/scholardist/internal/service"
)

// AuthHandler reports who the caller is.
type AuthHandler struct {
	scholarships *service.ScholarshipService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(scholarships *service.ScholarshipService) *AuthHandler {
	return &AuthHandler{scholarships: scholarships}
}

// Me godoc
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	if identity == "" {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"identity": identity,
		"is_admin": h.scholarships.IsAdmin(identity),
	})
}
