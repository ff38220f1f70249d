package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/beanbook/beanbook/internal/model"
)

// Common errors for brew repository operations.
var (
	ErrBrewNotFound  = errors.New("brew not found")
	ErrUnknownBagRef = errors.New("referenced bag does not exist")
)

const brewColumns = `id, title, method, coffee_amount, water_amount, brew_time, grind_size,
	notes, image_url, creator_id, creator_name, created_at, save_count, bag_id`

// BrewFilter narrows brew listings. Zero value lists every brew.
type BrewFilter struct {
	CreatorID string
}

// CreateBrew inserts a new brew.
func (r *Repository) CreateBrew(ctx context.Context, brew *model.Brew) error {
	query := `
		INSERT INTO brews (` + brewColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.pool.Exec(ctx, query,
		brew.ID,
		brew.Title,
		brew.Method,
		brew.CoffeeAmount,
		brew.WaterAmount,
		brew.BrewTime,
		brew.GrindSize,
		brew.Notes,
		brew.ImageURL,
		brew.CreatorID,
		brew.CreatorName,
		brew.CreatedAt,
		brew.SaveCount,
		brew.BagID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUnknownBagRef
		}
		return fmt.Errorf("failed to create brew: %w", err)
	}

	return nil
}

// GetBrewByID retrieves a brew by its ID.
func (r *Repository) GetBrewByID(ctx context.Context, id string) (*model.Brew, error) {
	query := `SELECT ` + brewColumns + ` FROM brews WHERE id = $1`

	brew, err := scanBrew(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBrewNotFound
		}
		return nil, fmt.Errorf("failed to get brew by ID: %w", err)
	}

	return brew, nil
}

// ListBrews returns brews newest first with keyset pagination.
func (r *Repository) ListBrews(ctx context.Context, filter BrewFilter, cursor string, limit int) ([]*model.Brew, string, error) {
	cursorData, err := decodeCursor(cursor)
	if err != nil {
		return nil, "", err
	}
	limit = clampLimit(limit)

	query := `SELECT ` + brewColumns + ` FROM brews WHERE TRUE`
	var args []any
	if filter.CreatorID != "" {
		args = append(args, filter.CreatorID)
		query += fmt.Sprintf(" AND creator_id = $%d", len(args))
	}
	query, args = pageQuery(query, args, cursorData, limit)

	brews, err := r.queryBrews(ctx, query, args...)
	if err != nil {
		return nil, "", err
	}

	page, next := trimPage(brews, limit, func(b *model.Brew) PaginationCursor {
		return PaginationCursor{ID: b.ID, CreatedAt: b.CreatedAt}
	})
	return page, next, nil
}

// ListBrewsByIDs returns the brews whose IDs are in ids, newest first.
// Unknown IDs are skipped.
func (r *Repository) ListBrewsByIDs(ctx context.Context, ids []string) ([]*model.Brew, error) {
	if len(ids) == 0 {
		return []*model.Brew{}, nil
	}

	query := `
		SELECT ` + brewColumns + `
		FROM brews
		WHERE id = ANY($1)
		ORDER BY created_at DESC, id DESC
	`
	return r.queryBrews(ctx, query, pq.Array(ids))
}

// UpdateBrew overwrites the editable fields of a brew.
func (r *Repository) UpdateBrew(ctx context.Context, brew *model.Brew) error {
	query := `
		UPDATE brews
		SET title = $2, method = $3, coffee_amount = $4, water_amount = $5, brew_time = $6,
		    grind_size = $7, notes = $8, image_url = $9, bag_id = $10
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		brew.ID,
		brew.Title,
		brew.Method,
		brew.CoffeeAmount,
		brew.WaterAmount,
		brew.BrewTime,
		brew.GrindSize,
		brew.Notes,
		brew.ImageURL,
		brew.BagID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUnknownBagRef
		}
		return fmt.Errorf("failed to update brew: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrBrewNotFound
	}

	return nil
}

// DeleteBrew removes a brew. Favorites lists that reference it are not touched.
func (r *Repository) DeleteBrew(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM brews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete brew: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrBrewNotFound
	}

	return nil
}

// IncrementSaveCount adds delta to the save count in one statement and
// returns the brew as written.
func (r *Repository) IncrementSaveCount(ctx context.Context, id string, delta int) (*model.Brew, error) {
	query := `
		UPDATE brews
		SET save_count = save_count + $2
		WHERE id = $1
		RETURNING ` + brewColumns

	brew, err := scanBrew(r.pool.QueryRow(ctx, query, id, delta))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBrewNotFound
		}
		return nil, fmt.Errorf("failed to increment save count: %w", err)
	}

	return brew, nil
}

// CountBrewsByDay returns per-day brew counts for a creator in [from, to), by UTC day.
func (r *Repository) CountBrewsByDay(ctx context.Context, creatorID string, from, to time.Time) ([]model.BrewDayCount, error) {
	query := `
		SELECT (created_at AT TIME ZONE 'UTC')::date AS day, COUNT(*)
		FROM brews
		WHERE creator_id = $1 AND created_at >= $2 AND created_at < $3
		GROUP BY day
		ORDER BY day
	`

	rows, err := r.pool.Query(ctx, query, creatorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to count brews by day: %w", err)
	}
	defer rows.Close()

	counts := []model.BrewDayCount{}
	for rows.Next() {
		var c model.BrewDayCount
		if err := rows.Scan(&c.Day, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan day count: %w", err)
		}
		counts = append(counts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating day counts: %w", err)
	}

	return counts, nil
}

func (r *Repository) queryBrews(ctx context.Context, query string, args ...any) ([]*model.Brew, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list brews: %w", err)
	}
	defer rows.Close()

	brews := []*model.Brew{}
	for rows.Next() {
		brew, err := scanBrew(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan brew: %w", err)
		}
		brews = append(brews, brew)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating brews: %w", err)
	}

	return brews, nil
}

// scanBrew scans a single row into a Brew model.
func scanBrew(row pgx.Row) (*model.Brew, error) {
	var brew model.Brew
	err := row.Scan(
		&brew.ID,
		&brew.Title,
		&brew.Method,
		&brew.CoffeeAmount,
		&brew.WaterAmount,
		&brew.BrewTime,
		&brew.GrindSize,
		&brew.Notes,
		&brew.ImageURL,
		&brew.CreatorID,
		&brew.CreatorName,
		&brew.CreatedAt,
		&brew.SaveCount,
		&brew.BagID,
	)
	if err != nil {
		return nil, err
	}
	return &brew, nil
}
