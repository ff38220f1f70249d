package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/beanbook/beanbook/internal/model"
)

// Common errors for user repository operations.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already exists")
)

const userColumns = `id, email, password_hash, display_name, photo_url, bio, favorites,
	push_token, reminders_enabled, is_deleted, created_at, updated_at`

// ProfilePatch holds a merge write to a profile. Nil fields are left untouched.
type ProfilePatch struct {
	DisplayName *string
	PhotoURL    *string
	Bio         *string
}

// PushRecipient is a user that can be reached by push.
type PushRecipient struct {
	UserID    string
	PushToken string
}

// CreateUser inserts a new user profile.
func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, display_name, photo_url, bio, favorites, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	favorites := user.Favorites
	if favorites == nil {
		favorites = []string{}
	}

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.DisplayName,
		user.PhotoURL,
		user.Bio,
		pq.Array(favorites),
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by their ID.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return user, nil
}

// GetUserByEmail retrieves a user by their email address.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// UpdateProfile merges the patch into the profile and stamps updated_at.
// A deleted profile is reported as ErrUserNotFound.
func (r *Repository) UpdateProfile(ctx context.Context, id string, patch ProfilePatch) (*model.User, error) {
	query := `
		UPDATE users
		SET display_name = COALESCE($2, display_name),
		    photo_url = COALESCE($3, photo_url),
		    bio = COALESCE($4, bio),
		    updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted
		RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query, id, patch.DisplayName, patch.PhotoURL, patch.Bio))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return user, nil
}

// AddFavorite appends brewID to the user's favorites.
// Returns false if it was already present or the user does not exist or is deleted.
func (r *Repository) AddFavorite(ctx context.Context, userID, brewID string) (bool, error) {
	query := `
		UPDATE users
		SET favorites = array_append(favorites, $2::text), updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted AND NOT ($2::text = ANY(favorites))
	`

	result, err := r.pool.Exec(ctx, query, userID, brewID)
	if err != nil {
		return false, fmt.Errorf("failed to add favorite: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// RemoveFavorite removes brewID from the user's favorites.
// Returns false if it was not present or the user does not exist or is deleted.
func (r *Repository) RemoveFavorite(ctx context.Context, userID, brewID string) (bool, error) {
	query := `
		UPDATE users
		SET favorites = array_remove(favorites, $2::text), updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted AND $2::text = ANY(favorites)
	`

	result, err := r.pool.Exec(ctx, query, userID, brewID)
	if err != nil {
		return false, fmt.Errorf("failed to remove favorite: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// SetPushToken stores the device token, or clears it when token is nil.
func (r *Repository) SetPushToken(ctx context.Context, userID string, token *string) error {
	return r.execUserUpdate(ctx, `UPDATE users SET push_token = $2, updated_at = NOW() WHERE id = $1 AND NOT is_deleted`, userID, token)
}

// SetRemindersEnabled toggles the daily reminder for a user.
func (r *Repository) SetRemindersEnabled(ctx context.Context, userID string, enabled bool) error {
	return r.execUserUpdate(ctx, `UPDATE users SET reminders_enabled = $2, updated_at = NOW() WHERE id = $1 AND NOT is_deleted`, userID, enabled)
}

// SoftDeleteUser flags the account as deleted and drops its push token.
func (r *Repository) SoftDeleteUser(ctx context.Context, userID string) error {
	return r.execUserUpdate(ctx, `
		UPDATE users
		SET is_deleted = TRUE, push_token = NULL, reminders_enabled = FALSE, updated_at = NOW()
		WHERE id = $1
	`, userID)
}

// ListReminderRecipients returns every live user that opted into reminders and has a push token.
func (r *Repository) ListReminderRecipients(ctx context.Context) ([]PushRecipient, error) {
	query := `
		SELECT id, push_token
		FROM users
		WHERE reminders_enabled AND NOT is_deleted AND push_token IS NOT NULL AND push_token <> ''
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminder recipients: %w", err)
	}
	defer rows.Close()

	var recipients []PushRecipient
	for rows.Next() {
		var rcpt PushRecipient
		if err := rows.Scan(&rcpt.UserID, &rcpt.PushToken); err != nil {
			return nil, fmt.Errorf("failed to scan recipient: %w", err)
		}
		recipients = append(recipients, rcpt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipients: %w", err)
	}

	return recipients, nil
}

func (r *Repository) execUserUpdate(ctx context.Context, query string, args ...any) error {
	result, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// scanUser scans a single row into a User model.
func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		&user.PhotoURL,
		&user.Bio,
		pq.Array(&user.Favorites),
		&user.PushToken,
		&user.RemindersEnabled,
		&user.IsDeleted,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if user.Favorites == nil {
		user.Favorites = []string{}
	}
	return &user, nil
}
