package http

import (
	"net/http"
	"strconv"

	apperrors "membership-backend/internal/common/errors"
	commonmw "membership-backend/internal/common/middleware"
	authmw "membership-backend/internal/features/auth/middleware"
	"membership-backend/internal/features/news/models"
	"membership-backend/internal/features/news/service"

	"github.com/gin-gonic/gin"
)

type NewsHandler struct {
	service service.NewsService
}

func NewNewsHandler(service service.NewsService) *NewsHandler {
	return &NewsHandler{service: service}
}

func (h *NewsHandler) RegisterRoutes(router *gin.RouterGroup) {
	news := router.Group("/news")
	{
		news.GET("", h.ListNews)
		news.GET("/:id", h.GetNews)
	}

	authed := router.Group("/news")
	authed.Use(authmw.RequireAuth())
	{
		authed.POST("", h.CreateNews)
	}
}

// @Summary List news
// @Description Get a page of news items, newest first
// @Tags news
// @Produce json
// @Param page query int false "Page number (0-based)"
// @Param size query int false "Page size"
// @Success 200 {object} models.PagedNews "Page of news"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /news [get]
func (h *NewsHandler) ListNews(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	news, err := h.service.List(c.Request.Context(), page, size)
	if err != nil {
		commonmw.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, news)
}

// @Summary Get news by ID
// @Tags news
// @Produce json
// @Param id path int true "News ID"
// @Success 200 {object} models.News "News item"
// @Failure 404 {object} middleware.ErrorResponse "News not found"
// @Router /news/{id} [get]
func (h *NewsHandler) GetNews(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		commonmw.RespondError(c, apperrors.NewValidationError("id", "invalid news ID format"))
		return
	}

	news, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		commonmw.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, news)
}

// @Summary Create news
// @Tags news
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param news body models.CreateNewsRequest true "News data"
// @Success 201 {object} models.News "Created news item"
// @Failure 400 {object} middleware.ErrorResponse "Invalid news data"
// @Router /news [post]
func (h *NewsHandler) CreateNews(c *gin.Context) {
	var req models.CreateNewsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		commonmw.RespondError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	news, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		commonmw.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, news)
}
