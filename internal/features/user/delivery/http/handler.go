package http

import (
	"net/http"
	"strconv"

	apperrors "membership-backend/internal/common/errors"
	commonmw "membership-backend/internal/common/middleware"
	authmw "membership-backend/internal/features/auth/middleware"
	"membership-backend/internal/features/user/models"
	"membership-backend/internal/features/user/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	service service.UserService
}

func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.GET("/:id", h.GetUser)
	}

	authed := router.Group("/users")
	authed.Use(authmw.RequireAuth())
	{
		authed.PUT("/:id", h.UpdateUser)
		authed.DELETE("/:id", h.DeleteUser)
		authed.POST("/:id/profile", h.UpdateProfile)
	}
}

// @Summary List users
// @Description Get a page of users
// @Tags users
// @Produce json
// @Param page query int false "Page number (0-based)"
// @Param size query int false "Page size"
// @Success 200 {object} models.PagedUsers "Page of users"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	users, err := h.service.List(c.Request.Context(), page, size)
	if err != nil {
		commonmw.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

// @Summary Get user by ID
// @Description Get a user's public projection by ID
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.UserResponse "User data"
// @Failure 400 {object} middleware.ErrorResponse "Invalid user ID"
// @Failure 404 {object} middleware.ErrorResponse "User not found"
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	user, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		commonmw.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// @Summary Update user
// @Description Update a user's email, password and profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param user body models.UpdateUserRequest true "Updated user data"
// @Success 200 {object} models.UserResponse "Updated user"
// @Failure 400 {object} middleware.ErrorResponse "Invalid request"
// @Failure 404 {object} middleware.ErrorResponse "User not found"
// @Failure 409 {object} middleware.ErrorResponse "Email already registered"
// @Router /users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		commonmw.RespondError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	user, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		commonmw.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// @Summary Update profile
// @Description Update a user's profile. Self-service only: the token's email must match the target user.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param profile body models.ProfileRequest true "Profile data"
// @Success 200 {object} models.UserResponse "Updated user"
// @Failure 400 {object} middleware.ErrorResponse "Invalid profile data"
// @Failure 403 {object} middleware.ErrorResponse "Not your profile"
// @Failure 404 {object} middleware.ErrorResponse "User not found"
// @Router /users/{id}/profile [post]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req models.ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		commonmw.RespondError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	actingEmail, _ := authmw.ActingEmail(c)
	user, err := h.service.UpdateProfile(c.Request.Context(), id, &req, actingEmail)
	if err != nil {
		commonmw.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// @Summary Delete user
// @Description Delete a user and all owned records
// @Tags users
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 204 "Deleted"
// @Failure 404 {object} middleware.ErrorResponse "User not found"
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		commonmw.RespondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		commonmw.RespondError(c, apperrors.NewValidationError("id", "invalid user ID format"))
		return 0, false
	}
	return id, true
}
