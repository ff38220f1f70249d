package repository

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// DefaultPageSize and MaxPageSize bound list queries.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PaginationCursor is the decoded position of the last row on a page.
type PaginationCursor struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// encodeCursor encodes pagination cursor to base64.
func encodeCursor(cursor *PaginationCursor) string {
	data, _ := json.Marshal(cursor)
	return base64.URLEncoding.EncodeToString(data)
}

// decodeCursor decodes base64 pagination cursor.
// An empty string decodes to nil (first page).
func decodeCursor(s string) (*PaginationCursor, error) {
	if s == "" {
		return nil, nil
	}

	data, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	var cursor PaginationCursor
	if err := json.Unmarshal(data, &cursor); err != nil || cursor.ID == "" {
		return nil, ErrInvalidCursor
	}

	return &cursor, nil
}

// clampLimit normalizes a requested page size.
func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

// pageQuery appends keyset pagination to a query that already has a WHERE clause.
func pageQuery(query string, args []any, cursor *PaginationCursor, limit int) (string, []any) {
	next := len(args) + 1
	if cursor != nil {
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", next, next+1)
		args = append(args, cursor.CreatedAt, cursor.ID)
		next += 2
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", next)
	args = append(args, limit+1) // one extra row tells us if there is another page
	return query, args
}

// trimPage drops the look-ahead row and returns the cursor for the next page,
// or "" when this is the last page.
func trimPage[T any](items []T, limit int, position func(T) PaginationCursor) ([]T, string) {
	if len(items) <= limit {
		return items, ""
	}
	items = items[:limit]
	last := position(items[len(items)-1])
	return items, encodeCursor(&last)
}
