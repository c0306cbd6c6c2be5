package http

import (
	"net/http"
	"strconv"

	apperrors "membership-backend/internal/common/errors"
	commonmw "membership-backend/internal/common/middleware"
	authmw "membership-backend/internal/features/auth/middleware"
	"membership-backend/internal/features/leveling/service"

	"github.com/gin-gonic/gin"
)

type AddXPRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

type LevelingHandler struct {
	service  service.LevelingService
	resolver Resolver
}

// Resolver looks up the acting user's ID by email.
type Resolver func(c *gin.Context, email string) (int64, error)

func NewLevelingHandler(service service.LevelingService, resolver Resolver) *LevelingHandler {
	return &LevelingHandler{
		service:  service,
		resolver: resolver,
	}
}

func (h *LevelingHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/users/:id/level", h.GetLevel)

	authed := router.Group("/users/me")
	authed.Use(authmw.RequireAuth())
	{
		authed.POST("/xp", h.AddXP)
	}
}

// @Summary Get user level
// @Description Get a user's level snapshot with progress toward the next level
// @Tags leveling
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.Snapshot "Level snapshot"
// @Failure 404 {object} middleware.ErrorResponse "User not found"
// @Router /users/{id}/level [get]
func (h *LevelingHandler) GetLevel(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		commonmw.RespondError(c, apperrors.NewValidationError("id", "invalid user ID format"))
		return
	}

	snapshot, err := h.service.GetLevel(c.Request.Context(), id)
	if err != nil {
		commonmw.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// @Summary Award XP to the acting user
// @Description Add experience points to the authenticated user, applying level-ups
// @Tags leveling
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body AddXPRequest true "XP amount"
// @Success 200 {object} models.Snapshot "Updated level snapshot"
// @Failure 400 {object} middleware.ErrorResponse "Invalid amount"
// @Failure 401 {object} middleware.ErrorResponse "Missing or invalid token"
// @Router /users/me/xp [post]
func (h *LevelingHandler) AddXP(c *gin.Context) {
	var req AddXPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		commonmw.RespondError(c, apperrors.NewValidationError("amount", "amount must be a positive integer"))
		return
	}

	email, _ := authmw.ActingEmail(c)
	userID, err := h.resolver(c, email)
	if err != nil {
		commonmw.RespondError(c, err)
		return
	}

	snapshot, err := h.service.AddXP(c.Request.Context(), userID, req.Amount)
	if err != nil {
		commonmw.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}
