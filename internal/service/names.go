package service

import (
	"context"
	"log/slog"

	"github.com/beanbook/beanbook/internal/metrics"
	"github.com/beanbook/beanbook/internal/model"
)

// UnknownCreator is shown when a creator's profile has no display name.
const UnknownCreator = "Unknown"

// CreatorNames resolves user IDs to display names through the cache.
type CreatorNames struct {
	users   UserStore
	cache   CreatorNameCache
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewCreatorNames creates a new CreatorNames resolver.
func NewCreatorNames(users UserStore, cache CreatorNameCache, logger *slog.Logger, recorder metrics.Recorder) *CreatorNames {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &CreatorNames{
		users:   users,
		cache:   cache,
		logger:  logger.With("component", "service.names"),
		metrics: recorder,
	}
}

// Resolve returns the display name of userID, or UnknownCreator.
// Cache errors fall through to the profile lookup.
func (n *CreatorNames) Resolve(ctx context.Context, userID string) string {
	if userID == "" {
		return UnknownCreator
	}

	name, ok, err := n.cache.GetCreatorName(ctx, userID)
	if err != nil {
		n.logger.Warn("creator name cache read failed", "user_id", userID, "error", err)
	}
	if ok && name != "" {
		n.metrics.IncCreatorCacheHit()
		return name
	}
	n.metrics.IncCreatorCacheMiss()

	user, err := n.users.GetUserByID(ctx, userID)
	if err != nil || user.DisplayName == "" {
		return UnknownCreator
	}

	if err := n.cache.SetCreatorName(ctx, userID, user.DisplayName); err != nil {
		n.logger.Warn("creator name cache write failed", "user_id", userID, "error", err)
	}
	return user.DisplayName
}

// fill sets the creator name on each brew, resolving each creator once.
func (n *CreatorNames) fill(ctx context.Context, brews []*model.Brew) {
	seen := make(map[string]string)
	for _, b := range brews {
		name, ok := seen[b.CreatorID]
		if !ok {
			name = n.Resolve(ctx, b.CreatorID)
			seen[b.CreatorID] = name
		}
		b.CreatorName = name
	}
}
