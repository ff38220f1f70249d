package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/beanbook/beanbook/internal/metrics"
	"github.com/beanbook/beanbook/internal/model"
	"github.com/beanbook/beanbook/internal/repository"
)

// SaveCounter applies favorite deltas to a brew.
type SaveCounter interface {
	UpdateSaveCount(ctx context.Context, brewID string, delta int) (*model.Brew, error)
}

// ProfileService manages user profile documents.
type ProfileService struct {
	users   UserStore
	brews   BrewStore
	counter SaveCounter
	names   CreatorNameCache
	changes ChangePublisher
	auth    *AuthService
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewProfileService creates a new ProfileService.
func NewProfileService(
	users UserStore,
	brews BrewStore,
	counter SaveCounter,
	names CreatorNameCache,
	changes ChangePublisher,
	authService *AuthService,
	logger *slog.Logger,
	recorder metrics.Recorder,
) *ProfileService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ProfileService{
		users:   users,
		brews:   brews,
		counter: counter,
		names:   names,
		changes: changes,
		auth:    authService,
		logger:  logger.With("component", "service.profile"),
		metrics: recorder,
	}
}

// ProfileInput is a merge write to a profile. Nil fields are left untouched.
type ProfileInput struct {
	DisplayName *string
	PhotoURL    *string
	Bio         *string
}

// FetchProfile returns the profile of a user.
func (s *ProfileService) FetchProfile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return user, nil
}

// UpdateProfile merges input into the profile and returns the refreshed document.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, input ProfileInput) (*model.User, error) {
	var patch repository.ProfilePatch
	var err error

	if patch.DisplayName, err = optionalText("display_name", input.DisplayName, MaxDisplayNameLength, false); err != nil {
		return nil, err
	}
	if patch.Bio, err = optionalText("bio", input.Bio, MaxBioLength, true); err != nil {
		return nil, err
	}
	if input.PhotoURL != nil {
		photo, err := cleanImageURL("photo_url", *input.PhotoURL)
		if err != nil {
			return nil, err
		}
		patch.PhotoURL = &photo
	}

	user, err := s.users.UpdateProfile(ctx, userID, patch)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	if patch.DisplayName != nil {
		if err := s.names.DeleteCreatorName(ctx, userID); err != nil {
			s.logger.Warn("creator name not invalidated", "user_id", userID, "error", err)
		}
	}

	announce(ctx, s.changes, s.logger, model.Change{
		Collection: model.CollectionUsers,
		DocumentID: userID,
		OwnerID:    userID,
	})
	return user, nil
}

// IsFavorite reports whether brewID is in the user's favorites.
func (s *ProfileService) IsFavorite(ctx context.Context, userID, brewID string) (bool, error) {
	user, err := s.FetchProfile(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.HasFavorite(brewID), nil
}

// ToggleFavorite flips brewID in the user's favorites, then moves the brew's
// save count by one in the same direction. The second write is independent:
// its failure is logged and the favorites change stands.
// It returns whether the brew is a favorite afterwards.
func (s *ProfileService) ToggleFavorite(ctx context.Context, userID, brewID string) (bool, error) {
	user, err := s.FetchProfile(ctx, userID)
	if err != nil {
		return false, err
	}

	var changed bool
	var delta int
	favorited := !user.HasFavorite(brewID)

	if favorited {
		if _, err := s.brews.GetBrewByID(ctx, brewID); err != nil {
			if errors.Is(err, repository.ErrBrewNotFound) {
				return false, ErrBrewNotFound
			}
			return false, fmt.Errorf("failed to get brew: %w", err)
		}
		changed, err = s.users.AddFavorite(ctx, userID, brewID)
		delta = 1
	} else {
		changed, err = s.users.RemoveFavorite(ctx, userID, brewID)
		delta = -1
	}
	if err != nil {
		return false, fmt.Errorf("failed to update favorites: %w", err)
	}

	// Another request won the race; the count was already adjusted there.
	if !changed {
		return favorited, nil
	}

	s.metrics.IncFavoriteToggled(favorited)
	announce(ctx, s.changes, s.logger, model.Change{
		Collection: model.CollectionUsers,
		DocumentID: userID,
		OwnerID:    userID,
	})

	if _, err := s.counter.UpdateSaveCount(ctx, brewID, delta); err != nil {
		s.logger.Error("save count not updated",
			"user_id", userID,
			"brew_id", brewID,
			"delta", delta,
			"error", err,
		)
	}

	return favorited, nil
}

// SetPushToken registers the device token used for push delivery.
// An empty token clears it.
func (s *ProfileService) SetPushToken(ctx context.Context, userID, token string) error {
	token = strings.TrimSpace(token)
	if len(token) > MaxPushTokenLength {
		return invalidField("token", "is too long")
	}

	var value *string
	if token != "" {
		value = &token
	}

	if err := s.users.SetPushToken(ctx, userID, value); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to set push token: %w", err)
	}
	return nil
}

// SetReminders turns the daily reminder on or off.
func (s *ProfileService) SetReminders(ctx context.Context, userID string, enabled bool) error {
	if err := s.users.SetRemindersEnabled(ctx, userID, enabled); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to set reminders: %w", err)
	}
	return nil
}

// DeleteAccount soft-deletes the profile and signs the session out.
func (s *ProfileService) DeleteAccount(ctx context.Context, session *model.AuthContext) error {
	if err := s.users.SoftDeleteUser(ctx, session.UserID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete account: %w", err)
	}

	if err := s.names.DeleteCreatorName(ctx, session.UserID); err != nil {
		s.logger.Warn("creator name not invalidated", "user_id", session.UserID, "error", err)
	}

	if s.auth != nil {
		if err := s.auth.SignOut(ctx, session); err != nil {
			s.logger.Warn("session not revoked after account deletion", "user_id", session.UserID, "error", err)
		}
	}

	announce(ctx, s.changes, s.logger, model.Change{
		Collection: model.CollectionUsers,
		DocumentID: session.UserID,
		OwnerID:    session.UserID,
	})

	s.logger.Info("account deleted", "user_id", session.UserID)
	return nil
}
