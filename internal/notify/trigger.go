package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/beanbook/beanbook/internal/metrics"
	"github.com/beanbook/beanbook/internal/model"
	"github.com/beanbook/beanbook/internal/repository"
)

// Favorite notification copy.
const (
	FavoriteTitle = "Someone favorited your brew!"
	favoriteBody  = `Your brew "%s" got a new favorite.`
)

// UserLookup loads user profiles.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// Trigger notifies a brew's creator when the brew gains a favorite.
type Trigger struct {
	users   UserLookup
	sender  Sender
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewTrigger creates a favorite trigger.
func NewTrigger(users UserLookup, sender Sender, logger *slog.Logger, recorder metrics.Recorder) *Trigger {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Trigger{
		users:   users,
		sender:  sender,
		logger:  logger.With("component", "notify.trigger"),
		metrics: recorder,
	}
}

// FavoriteMessage builds the notification for a brew that gained a favorite.
func FavoriteMessage(token string, brew *model.BrewSnapshot) Message {
	return Message{
		To:    token,
		Title: FavoriteTitle,
		Body:  fmt.Sprintf(favoriteBody, brew.Title),
		Data:  map[string]string{"brewId": brew.ID},
	}
}

// HandleEvent adapts HandleBrewUpdate to the change feed worker.
func (t *Trigger) HandleEvent(ctx context.Context, update model.BrewUpdate) error {
	t.HandleBrewUpdate(ctx, update.Before, update.After)
	return nil
}

// HandleBrewUpdate sends one notification when the save count went up.
// Every failure is logged and dropped.
func (t *Trigger) HandleBrewUpdate(ctx context.Context, before, after *model.BrewSnapshot) {
	if before == nil || after == nil {
		t.logger.InfoContext(ctx, "brew update is missing a snapshot")
		return
	}

	if after.SaveCount-before.SaveCount <= 0 {
		return
	}

	log := t.logger.With("brew_id", after.ID, "creator_id", after.CreatorID)

	user, err := t.users.GetUserByID(ctx, after.CreatorID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			log.InfoContext(ctx, "creator not found")
		} else {
			log.ErrorContext(ctx, "failed to load creator", "error", err)
		}
		t.metrics.IncNotification(metrics.NotificationFavorite, metrics.StatusSkipped)
		return
	}

	if user.IsDeleted {
		log.InfoContext(ctx, "creator account is deleted")
		t.metrics.IncNotification(metrics.NotificationFavorite, metrics.StatusSkipped)
		return
	}

	if !user.HasPushToken() {
		log.InfoContext(ctx, "creator has no push token")
		t.metrics.IncNotification(metrics.NotificationFavorite, metrics.StatusSkipped)
		return
	}

	if err := t.sender.Send(ctx, FavoriteMessage(*user.PushToken, after)); err != nil {
		log.ErrorContext(ctx, "failed to send favorite notification", "error", err)
		t.metrics.IncNotification(metrics.NotificationFavorite, metrics.StatusFailed)
		return
	}

	log.InfoContext(ctx, "favorite notification sent")
	t.metrics.IncNotification(metrics.NotificationFavorite, metrics.StatusSuccess)
}
