package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"membership-backend/internal/features/event/models"
	"membership-backend/internal/features/event/repository"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type eventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) repository.EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (name, description, location, start_time, end_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		event.Name, event.Description, event.Location, event.StartTime, event.EndTime,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	query := `
		SELECT id, name, description, location, start_time, end_time, created_at, updated_at
		FROM events
		WHERE id = $1`

	event := &models.Event{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&event.ID, &event.Name, &event.Description, &event.Location,
		&event.StartTime, &event.EndTime, &event.CreatedAt, &event.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

func (r *eventRepository) ListUpcoming(ctx context.Context, offset, limit int) ([]*models.Event, int64, error) {
	var total int64
	countQuery := `SELECT COUNT(*) FROM events WHERE end_time >= NOW()`
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	query := `
		SELECT id, name, description, location, start_time, end_time, created_at, updated_at
		FROM events
		WHERE end_time >= NOW()
		ORDER BY start_time ASC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := make([]*models.Event, 0, limit)
	for rows.Next() {
		event := &models.Event{}
		err := rows.Scan(
			&event.ID, &event.Name, &event.Description, &event.Location,
			&event.StartTime, &event.EndTime, &event.CreatedAt, &event.UpdatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, total, nil
}

func (r *eventRepository) Join(ctx context.Context, eventID, userID int64) (*models.Participation, error) {
	query := `
		INSERT INTO event_participations (event_id, user_id, joined_at)
		VALUES ($1, $2, NOW())
		RETURNING id, joined_at`

	participation := &models.Participation{
		EventID: eventID,
		UserID:  userID,
	}
	err := r.db.QueryRowContext(ctx, query, eventID, userID).Scan(
		&participation.ID, &participation.JoinedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return nil, repository.ErrAlreadyJoined
		}
		return nil, fmt.Errorf("failed to join event: %w", err)
	}
	return participation, nil
}

func (r *eventRepository) HasJoined(ctx context.Context, eventID, userID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM event_participations WHERE event_id = $1 AND user_id = $2)`

	var joined bool
	if err := r.db.QueryRowContext(ctx, query, eventID, userID).Scan(&joined); err != nil {
		return false, fmt.Errorf("failed to check participation: %w", err)
	}
	return joined, nil
}
