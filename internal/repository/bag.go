package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/beanbook/beanbook/internal/model"
)

// ErrBagNotFound is returned when a bag does not exist.
var ErrBagNotFound = errors.New("bag not found")

const bagColumns = `id, brand_name, roast_level, origin, location, user_id, user_name, image_url, created_at`

// BagFilter narrows bag listings. Zero value lists every bag.
type BagFilter struct {
	UserID string
}

// BagPatch is a merge write to a bag. Nil fields are left untouched.
type BagPatch struct {
	BrandName  *string
	RoastLevel *string
	Origin     *string
	Location   *string
	ImageURL   *string
}

// CreateBag inserts a new bag.
func (r *Repository) CreateBag(ctx context.Context, bag *model.Bag) error {
	query := `
		INSERT INTO bags (` + bagColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		bag.ID,
		bag.BrandName,
		bag.RoastLevel,
		bag.Origin,
		bag.Location,
		bag.UserID,
		bag.UserName,
		bag.ImageURL,
		bag.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create bag: %w", err)
	}

	return nil
}

// GetBagByID retrieves a bag by its ID.
func (r *Repository) GetBagByID(ctx context.Context, id string) (*model.Bag, error) {
	query := `SELECT ` + bagColumns + ` FROM bags WHERE id = $1`

	bag, err := scanBag(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBagNotFound
		}
		return nil, fmt.Errorf("failed to get bag by ID: %w", err)
	}

	return bag, nil
}

// ListBags returns bags newest first with keyset pagination.
func (r *Repository) ListBags(ctx context.Context, filter BagFilter, cursor string, limit int) ([]*model.Bag, string, error) {
	cursorData, err := decodeCursor(cursor)
	if err != nil {
		return nil, "", err
	}
	limit = clampLimit(limit)

	query := `SELECT ` + bagColumns + ` FROM bags WHERE TRUE`
	var args []any
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	query, args = pageQuery(query, args, cursorData, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list bags: %w", err)
	}
	defer rows.Close()

	bags := []*model.Bag{}
	for rows.Next() {
		bag, err := scanBag(rows)
		if err != nil {
			return nil, "", fmt.Errorf("failed to scan bag: %w", err)
		}
		bags = append(bags, bag)
	}

	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("error iterating bags: %w", err)
	}

	page, next := trimPage(bags, limit, func(b *model.Bag) PaginationCursor {
		return PaginationCursor{ID: b.ID, CreatedAt: b.CreatedAt}
	})
	return page, next, nil
}

// UpdateBag merges the patch into the bag and returns the result.
func (r *Repository) UpdateBag(ctx context.Context, id string, patch BagPatch) (*model.Bag, error) {
	query := `
		UPDATE bags
		SET brand_name = COALESCE($2, brand_name),
		    roast_level = COALESCE($3, roast_level),
		    origin = COALESCE($4, origin),
		    location = COALESCE($5, location),
		    image_url = COALESCE($6, image_url)
		WHERE id = $1
		RETURNING ` + bagColumns

	bag, err := scanBag(r.pool.QueryRow(ctx, query,
		id,
		patch.BrandName,
		patch.RoastLevel,
		patch.Origin,
		patch.Location,
		patch.ImageURL,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBagNotFound
		}
		return nil, fmt.Errorf("failed to update bag: %w", err)
	}

	return bag, nil
}

// DeleteBag removes a bag. Brews that referenced it keep existing with no bag.
func (r *Repository) DeleteBag(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM bags WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete bag: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrBagNotFound
	}

	return nil
}

// scanBag scans a single row into a Bag model.
func scanBag(row pgx.Row) (*model.Bag, error) {
	var bag model.Bag
	err := row.Scan(
		&bag.ID,
		&bag.BrandName,
		&bag.RoastLevel,
		&bag.Origin,
		&bag.Location,
		&bag.UserID,
		&bag.UserName,
		&bag.ImageURL,
		&bag.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &bag, nil
}
