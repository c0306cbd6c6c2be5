package http

import (
	"net/http"

	apperrors "membership-backend/internal/common/errors"
	commonmw "membership-backend/internal/common/middleware"
	authmw "membership-backend/internal/features/auth/middleware"
	"membership-backend/internal/features/auth/models"
	"membership-backend/internal/features/auth/service"
	usermodels "membership-backend/internal/features/user/models"
	userservice "membership-backend/internal/features/user/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	auth  service.AuthService
	users userservice.UserService
}

func NewAuthHandler(auth service.AuthService, users userservice.UserService) *AuthHandler {
	return &AuthHandler{
		auth:  auth,
		users: users,
	}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
	}

	me := router.Group("/auth")
	me.Use(authmw.RequireAuth())
	{
		me.GET("/me", h.Me)
	}
}

// @Summary Register a new user
// @Description Create an account with an optional referral code and profile
// @Tags auth
// @Accept json
// @Produce json
// @Param user body models.RegisterRequest true "Registration data"
// @Success 201 {object} models.UserResponse "Created user"
// @Failure 400 {object} middleware.ErrorResponse "Invalid request"
// @Failure 409 {object} middleware.ErrorResponse "Email already registered"
// @Failure 503 {object} middleware.ErrorResponse "Could not allocate referral code"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req usermodels.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		commonmw.RespondError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	user, err := h.users.Register(c.Request.Context(), &req)
	if err != nil {
		commonmw.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// @Summary Log in
// @Description Exchange email and password for a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body models.LoginRequest true "Login credentials"
// @Success 200 {object} models.AuthResponse "Token and user data"
// @Failure 401 {object} middleware.ErrorResponse "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		commonmw.RespondError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	user, token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		commonmw.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.AuthResponse{
		Message: "Login successful",
		User:    user,
		Token:   token,
	})
}

// @Summary Current user
// @Description Get the user identified by the bearer token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserResponse "User data"
// @Failure 401 {object} middleware.ErrorResponse "Missing or invalid token"
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	email, _ := authmw.ActingEmail(c)

	user, err := h.users.GetByEmail(c.Request.Context(), email)
	if err != nil {
		commonmw.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
