package http

import (
	"net/http"
	"strconv"

	apperrors "membership-backend/internal/common/errors"
	commonmw "membership-backend/internal/common/middleware"
	authmw "membership-backend/internal/features/auth/middleware"
	"membership-backend/internal/features/event/models"
	"membership-backend/internal/features/event/service"

	"github.com/gin-gonic/gin"
)

// Resolver looks up the acting user's ID by email.
type Resolver func(c *gin.Context, email string) (int64, error)

type EventHandler struct {
	service  service.EventService
	resolver Resolver
}

func NewEventHandler(service service.EventService, resolver Resolver) *EventHandler {
	return &EventHandler{
		service:  service,
		resolver: resolver,
	}
}

func (h *EventHandler) RegisterRoutes(router *gin.RouterGroup) {
	events := router.Group("/events")
	{
		events.GET("", h.ListEvents)
		events.GET("/:id", h.GetEvent)
	}

	authed := router.Group("/events")
	authed.Use(authmw.RequireAuth())
	{
		authed.POST("", h.CreateEvent)
		authed.POST("/:id/join", h.JoinEvent)
	}
}

// @Summary List upcoming events
// @Description Get a page of events that have not ended yet, ordered by start time
// @Tags events
// @Produce json
// @Param page query int false "Page number (0-based)"
// @Param size query int false "Page size"
// @Success 200 {object} models.PagedEvents "Page of events"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /events [get]
func (h *EventHandler) ListEvents(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	events, err := h.service.ListUpcoming(c.Request.Context(), page, size)
	if err != nil {
		commonmw.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, events)
}

// @Summary Get event by ID
// @Tags events
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} models.Event "Event data"
// @Failure 404 {object} middleware.ErrorResponse "Event not found"
// @Router /events/{id} [get]
func (h *EventHandler) GetEvent(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	event, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		commonmw.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

// @Summary Create event
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body models.CreateEventRequest true "Event data"
// @Success 201 {object} models.Event "Created event"
// @Failure 400 {object} middleware.ErrorResponse "Invalid event data"
// @Router /events [post]
func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		commonmw.RespondError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	event, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		commonmw.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, event)
}

// @Summary Join event
// @Description Join the authenticated user to an event. Joining twice is rejected.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Success 200 {object} models.JoinEventResponse "Join confirmation"
// @Failure 404 {object} middleware.ErrorResponse "Event not found"
// @Failure 409 {object} middleware.ErrorResponse "Already joined"
// @Router /events/{id}/join [post]
func (h *EventHandler) JoinEvent(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	email, _ := authmw.ActingEmail(c)
	userID, err := h.resolver(c, email)
	if err != nil {
		commonmw.RespondError(c, err)
		return
	}

	result, err := h.service.Join(c.Request.Context(), id, userID)
	if err != nil {
		commonmw.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		commonmw.RespondError(c, apperrors.NewValidationError("id", "invalid event ID format"))
		return 0, false
	}
	return id, true
}
