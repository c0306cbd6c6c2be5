package service

import (
	"context"
	"errors"
	"fmt"

	apperrors "membership-backend/internal/common/errors"
	"membership-backend/internal/common/logger"
	"membership-backend/internal/features/event/models"
	"membership-backend/internal/features/event/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type EventService interface {
	Create(ctx context.Context, req *models.CreateEventRequest) (*models.Event, error)
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	ListUpcoming(ctx context.Context, page, size int) (*models.PagedEvents, error)
	Join(ctx context.Context, eventID, userID int64) (*models.JoinEventResponse, error)
}

type eventService struct {
	repo repository.EventRepository
}

func NewEventService(repo repository.EventRepository) EventService {
	return &eventService{repo: repo}
}

func (s *eventService) Create(ctx context.Context, req *models.CreateEventRequest) (*models.Event, error) {
	if !req.EndTime.After(req.StartTime) {
		return nil, apperrors.NewValidationError("endTime", "end time must be after start time")
	}

	event := &models.Event{
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, apperrors.NewDatabaseError("create event", err)
	}

	logger.Info().Int64("event_id", event.ID).Str("name", event.Name).Msg("event created")
	return event, nil
}

func (s *eventService) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	event, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrEventNotFound) {
		return nil, apperrors.NewEventNotFoundError(id)
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("get event", err)
	}
	return event, nil
}

func (s *eventService) ListUpcoming(ctx context.Context, page, size int) (*models.PagedEvents, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	events, total, err := s.repo.ListUpcoming(ctx, page*size, size)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list events", err)
	}

	return &models.PagedEvents{
		Items: events,
		Total: total,
		Page:  page,
		Size:  size,
	}, nil
}

func (s *eventService) Join(ctx context.Context, eventID, userID int64) (*models.JoinEventResponse, error) {
	if _, err := s.GetByID(ctx, eventID); err != nil {
		return nil, err
	}

	_, err := s.repo.Join(ctx, eventID, userID)
	if errors.Is(err, repository.ErrAlreadyJoined) {
		return nil, apperrors.New(apperrors.ErrCodeAlreadyJoined,
			fmt.Sprintf("user %d already joined event %d", userID, eventID))
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("join event", err)
	}

	logger.Info().Int64("event_id", eventID).Int64("user_id", userID).Msg("user joined event")
	return &models.JoinEventResponse{
		Message: "successfully joined event",
		EventID: eventID,
		UserID:  userID,
	}, nil
}
