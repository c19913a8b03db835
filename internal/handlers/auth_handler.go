package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/munificent-school/backoffice/internal/services"
	"github.com/munificent-school/backoffice/internal/utils"
)

type AuthHandler struct {
	BaseHandler
	service services.AuthService
}

func NewAuthHandler(service services.AuthService, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// Login exchanges credentials for a token pair
// @Summary Obtain tokens
// @Description Log in with username or email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body services.LoginRequest true "Credentials"
// @Success 200 {object} services.TokenPair
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Router /token [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Logging in")

	pair, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, pair)
}

// Refresh issues a new access token
// @Summary Refresh access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body services.RefreshRequest true "Refresh token"
// @Success 200 {object} services.AccessToken
// @Failure 401 {object} ErrorResponse "Invalid refresh token"
// @Router /token/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req services.RefreshRequest
	if !h.bindJSON(c, &req) {
		return
	}

	token, err := h.service.Refresh(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, token)
}
