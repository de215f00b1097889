package handler

//go:generate mockgen -source=auth_handler.go -destination=mock_auth_handler.go -package=handler

import (
	"context"
	"net/http"

	"auction-marketplace/internal/accessgate"
	model "auction-marketplace/internal/models"
	"auction-marketplace/services/helpers"
	"auction-marketplace/utils"

	"github.com/gin-gonic/gin"
)

type AuthServiceInterface interface {
	Register(ctx context.Context, in accessgate.RegisterInput) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
}

type AuthHandler struct {
	service AuthServiceInterface
}

func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// RegisterHandler handles POST /auth/register
func (h *AuthHandler) RegisterHandler(c *gin.Context) {
	var req helpers.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "RegisterHandler", err)
		return
	}

	token, err := h.service.Register(c.Request.Context(), accessgate.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     model.Role(req.Role),
	})
	if err != nil {
		helpers.HandleServiceError(c, "RegisterHandler", err, map[string]any{"email": req.Email})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.TokenResponse{Token: token}, "user registered successfully")
	helpers.LogSuccess("RegisterHandler", "user registered successfully", map[string]any{"email": req.Email})
}

// LoginHandler handles POST /auth/login
func (h *AuthHandler) LoginHandler(c *gin.Context) {
	var req helpers.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "LoginHandler", err)
		return
	}

	token, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		helpers.HandleServiceError(c, "LoginHandler", err, map[string]any{"email": req.Email})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.TokenResponse{Token: token}, "login successful")
	helpers.LogSuccess("LoginHandler", "login successful", map[string]any{"email": req.Email})
}
