package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parking_manager/internal/domain"
	"parking_manager/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(as *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var dto domain.RegisterUserDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authService.Register(c.Request.Context(), dto)
	if err != nil {
		respondError(c, err, "could not register user")
		return
	}
	c.JSON(http.StatusCreated, user)
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var dto domain.LoginUserDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	authResponse, err := h.authService.Login(c.Request.Context(), dto)
	if err != nil {
		respondError(c, err, "login failed")
		return
	}
	c.JSON(http.StatusOK, authResponse)
}
