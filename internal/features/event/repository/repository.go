package repository

import (
	"context"
	"errors"

	"membership-backend/internal/features/event/models"
)

var (
	ErrEventNotFound = errors.New("event not found")
	ErrAlreadyJoined = errors.New("user already joined event")
)

type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	ListUpcoming(ctx context.Context, offset, limit int) ([]*models.Event, int64, error)
	Join(ctx context.Context, eventID, userID int64) (*models.Participation, error)
	HasJoined(ctx context.Context, eventID, userID int64) (bool, error)
}
