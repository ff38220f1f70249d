// Package testutil holds helpers shared by integration tests.
package testutil

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/beanbook/beanbook/internal/model"
	"github.com/beanbook/beanbook/migrations"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 731731

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema runs every embedded down migration newest first, then every up migration.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	files := migrations.Files()

	ups, err := fs.Glob(files, "*.up.sql")
	if err != nil {
		return fmt.Errorf("list up migrations: %w", err)
	}
	downs, err := fs.Glob(files, "*.down.sql")
	if err != nil {
		return fmt.Errorf("list down migrations: %w", err)
	}
	sort.Strings(ups)
	sort.Sort(sort.Reverse(sort.StringSlice(downs)))

	// Tables created by golang-migrate are dropped too so a later migrations.Up starts clean.
	if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS schema_migrations"); err != nil {
		return fmt.Errorf("drop schema_migrations: %w", err)
	}

	for _, name := range append(downs, ups...) {
		sql, err := fs.ReadFile(files, name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
	}

	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestUser creates a user profile with a unique email.
func NewTestUser(t testing.TB, displayName string) *model.User {
	t.Helper()
	id := UniqueID("user")
	return &model.User{
		ID:           id,
		Email:        strings.ToLower(id) + "@example.com",
		DisplayName:  displayName,
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		Favorites:    []string{},
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

// NewTestBrew creates a brew owned by creatorID.
func NewTestBrew(t testing.TB, creatorID, title string) *model.Brew {
	t.Helper()
	return &model.Brew{
		ID:           UniqueID("brew"),
		Title:        title,
		Method:       "Pourover",
		CoffeeAmount: "18.0g",
		WaterAmount:  "300g",
		BrewTime:     "180s",
		GrindSize:    "Medium",
		CreatorID:    creatorID,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

// NewTestBag creates a bag owned by userID.
func NewTestBag(t testing.TB, userID, brand string) *model.Bag {
	t.Helper()
	return &model.Bag{
		ID:         UniqueID("bag"),
		BrandName:  brand,
		RoastLevel: "Medium",
		Origin:     "Ethiopia",
		UserID:     userID,
		UserName:   "Tester",
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
