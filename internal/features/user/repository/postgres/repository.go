package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	levelmodels "membership-backend/internal/features/leveling/models"
	"membership-backend/internal/features/user/models"
	"membership-backend/internal/features/user/repository"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type postgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) repository.UserRepository {
	return &postgresRepository{db: db}
}

const userColumns = `
	u.id, u.email, u.password_hash, u.code, u.referred_by, u.created_at, u.updated_at,
	l.current_level, l.current_xp, l.next_level_xp,
	p.user_id, p.first_name, p.last_name, p.sex, p.date_of_birth,
	p.phone, p.address, p.avatar_url, p.bio, p.cnp, p.created_at, p.updated_at
`

const userJoins = `
	FROM users u
	JOIN levels l ON l.user_id = u.id
	LEFT JOIN user_profiles p ON p.user_id = u.id
`

// Create inserts the user together with its level and optional profile in a
// single transaction. Unique violations on email or code surface as the
// package sentinel errors so the orchestrator can react.
func (r *postgresRepository) Create(ctx context.Context, user *models.User) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insertUser := `
		INSERT INTO users (email, password_hash, code, referred_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err = tx.QueryRowContext(ctx, insertUser,
		user.Email, user.PasswordHash, user.Code, user.ReferredBy).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return translateUniqueViolation(err)
	}

	if user.Level == nil {
		user.Level = levelmodels.NewLevel(user.ID)
	}
	user.Level.UserID = user.ID
	user.Level.Normalize()

	insertLevel := `
		INSERT INTO levels (user_id, current_level, current_xp, next_level_xp)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.ExecContext(ctx, insertLevel,
		user.ID, user.Level.CurrentLevel, user.Level.CurrentXP, user.Level.NextLevelXP); err != nil {
		return fmt.Errorf("failed to create level: %w", err)
	}

	if user.Profile != nil {
		user.Profile.UserID = user.ID
		if err := upsertProfile(ctx, tx, user.Profile); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT` + userColumns + userJoins + `WHERE u.id = $1`
	return r.getOne(ctx, query, id)
}

func (r *postgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT` + userColumns + userJoins + `WHERE LOWER(u.email) = LOWER($1)`
	return r.getOne(ctx, query, email)
}

func (r *postgresRepository) GetByCode(ctx context.Context, code string) (*models.User, error) {
	query := `SELECT` + userColumns + userJoins + `WHERE u.code = $1`
	return r.getOne(ctx, query, code)
}

func (r *postgresRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check code: %w", err)
	}
	return exists, nil
}

func (r *postgresRepository) List(ctx context.Context, offset, limit int) ([]*models.User, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query := `SELECT` + userColumns + userJoins + `ORDER BY u.id LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}

	return users, total, rows.Err()
}

// Update rewrites the user row and its profile. A nil profile removes the
// profile record.
func (r *postgresRepository) Update(ctx context.Context, user *models.User) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	update := `
		UPDATE users
		SET email = $2, password_hash = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err = tx.QueryRowContext(ctx, update, user.ID, user.Email, user.PasswordHash).
		Scan(&user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrUserNotFound
		}
		return translateUniqueViolation(err)
	}

	if user.Profile == nil {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM user_profiles WHERE user_id = $1`, user.ID); err != nil {
			return fmt.Errorf("failed to remove profile: %w", err)
		}
	} else {
		user.Profile.UserID = user.ID
		if err := upsertProfile(ctx, tx, user.Profile); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *postgresRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if affected == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}

func (r *postgresRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		user    models.User
		level   levelmodels.Level
		profile models.Profile

		profileUserID sql.NullInt64
		firstName     sql.NullString
		lastName      sql.NullString
		sex           sql.NullString
		dateOfBirth   sql.NullTime
		phone         sql.NullString
		address       sql.NullString
		avatarURL     sql.NullString
		bio           sql.NullString
		cnp           sql.NullString
		pCreatedAt    sql.NullTime
		pUpdatedAt    sql.NullTime
	)

	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Code, &user.ReferredBy,
		&user.CreatedAt, &user.UpdatedAt,
		&level.CurrentLevel, &level.CurrentXP, &level.NextLevelXP,
		&profileUserID, &firstName, &lastName, &sex, &dateOfBirth,
		&phone, &address, &avatarURL, &bio, &cnp, &pCreatedAt, &pUpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	level.UserID = user.ID
	level.Normalize()
	user.Level = &level

	if profileUserID.Valid {
		profile.UserID = profileUserID.Int64
		profile.FirstName = firstName.String
		profile.LastName = lastName.String
		profile.Sex = sex.String
		if dateOfBirth.Valid {
			dob := dateOfBirth.Time
			profile.DateOfBirth = &dob
		}
		profile.Phone = phone.String
		profile.Address = address.String
		profile.AvatarURL = avatarURL.String
		profile.Bio = bio.String
		profile.CNP = cnp.String
		profile.CreatedAt = pCreatedAt.Time
		profile.UpdatedAt = pUpdatedAt.Time
		user.Profile = &profile
	}

	return &user, nil
}

func upsertProfile(ctx context.Context, tx *sql.Tx, profile *models.Profile) error {
	query := `
		INSERT INTO user_profiles (
			user_id, first_name, last_name, sex, date_of_birth,
			phone, address, avatar_url, bio, cnp, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			sex = EXCLUDED.sex,
			date_of_birth = EXCLUDED.date_of_birth,
			phone = EXCLUDED.phone,
			address = EXCLUDED.address,
			avatar_url = EXCLUDED.avatar_url,
			bio = EXCLUDED.bio,
			cnp = EXCLUDED.cnp,
			updated_at = EXCLUDED.updated_at
	`

	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	var dob interface{}
	if profile.DateOfBirth != nil {
		dob = *profile.DateOfBirth
	}

	if _, err := tx.ExecContext(ctx, query,
		profile.UserID, profile.FirstName, profile.LastName, profile.Sex, dob,
		profile.Phone, profile.Address, profile.AvatarURL, profile.Bio, profile.CNP,
		profile.CreatedAt, profile.UpdatedAt); err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	return nil
}

func translateUniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		switch pqErr.Constraint {
		case "users_email_key":
			return repository.ErrEmailTaken
		case "users_code_key":
			return repository.ErrCodeTaken
		}
	}
	return fmt.Errorf("failed to write user: %w", err)
}
