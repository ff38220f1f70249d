package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/beanbook/beanbook/internal/model"
	"github.com/beanbook/beanbook/internal/repository"
)

// UserStore persists user profiles.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateProfile(ctx context.Context, id string, patch repository.ProfilePatch) (*model.User, error)
	AddFavorite(ctx context.Context, userID, brewID string) (bool, error)
	RemoveFavorite(ctx context.Context, userID, brewID string) (bool, error)
	SetPushToken(ctx context.Context, userID string, token *string) error
	SetRemindersEnabled(ctx context.Context, userID string, enabled bool) error
	SoftDeleteUser(ctx context.Context, userID string) error
}

// BrewStore persists brews.
type BrewStore interface {
	CreateBrew(ctx context.Context, brew *model.Brew) error
	GetBrewByID(ctx context.Context, id string) (*model.Brew, error)
	ListBrews(ctx context.Context, filter repository.BrewFilter, cursor string, limit int) ([]*model.Brew, string, error)
	ListBrewsByIDs(ctx context.Context, ids []string) ([]*model.Brew, error)
	UpdateBrew(ctx context.Context, brew *model.Brew) error
	DeleteBrew(ctx context.Context, id string) error
	IncrementSaveCount(ctx context.Context, id string, delta int) (*model.Brew, error)
	CountBrewsByDay(ctx context.Context, creatorID string, from, to time.Time) ([]model.BrewDayCount, error)
}

// BagStore persists bags.
type BagStore interface {
	CreateBag(ctx context.Context, bag *model.Bag) error
	GetBagByID(ctx context.Context, id string) (*model.Bag, error)
	ListBags(ctx context.Context, filter repository.BagFilter, cursor string, limit int) ([]*model.Bag, string, error)
	UpdateBag(ctx context.Context, id string, patch repository.BagPatch) (*model.Bag, error)
	DeleteBag(ctx context.Context, id string) error
}

// CreatorNameCache caches display names shown on brews.
type CreatorNameCache interface {
	GetCreatorName(ctx context.Context, userID string) (string, bool, error)
	SetCreatorName(ctx context.Context, userID, name string) error
	DeleteCreatorName(ctx context.Context, userID string) error
}

// TokenRevoker records signed-out sessions.
type TokenRevoker interface {
	RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

// ChangePublisher announces document writes to live listeners.
type ChangePublisher interface {
	PublishChange(ctx context.Context, change model.Change) error
}

// BrewEventPublisher emits brew before/after events to the change feed.
type BrewEventPublisher interface {
	PublishAsync(update model.BrewUpdate)
}

// ObjectStore holds uploaded images.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	List(ctx context.Context, prefix string) ([]string, error)
	URL(key string) string
}

// Page is one page of a newest-first listing.
type Page[T any] struct {
	Items      []T
	NextCursor string
}

// ListInput selects a page.
type ListInput struct {
	Cursor string
	Limit  int
}

func generateULID() string {
	return ulid.Make().String()
}

// announce publishes a change notice and logs failures.
func announce(ctx context.Context, pub ChangePublisher, logger *slog.Logger, change model.Change) {
	if pub == nil {
		return
	}
	if err := pub.PublishChange(ctx, change); err != nil {
		logger.Warn("change notice not published",
			"collection", change.Collection,
			"id", change.DocumentID,
			"error", err,
		)
	}
}
