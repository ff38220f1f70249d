package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/beanbook/beanbook/internal/metrics"
	"github.com/beanbook/beanbook/internal/model"
	"github.com/beanbook/beanbook/internal/repository"
)

const (
	// favoritesChunkSize bounds the IDs sent in one lookup query.
	favoritesChunkSize = 100

	// maxCalendarRange is the longest window Calendar accepts.
	maxCalendarRange = 366 * 24 * time.Hour
)

// BrewService handles brew business logic.
type BrewService struct {
	brews   BrewStore
	users   UserStore
	bags    *BagService
	names   *CreatorNames
	events  BrewEventPublisher
	changes ChangePublisher
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time
}

// NewBrewService creates a new BrewService.
func NewBrewService(
	brews BrewStore,
	users UserStore,
	bags *BagService,
	names *CreatorNames,
	events BrewEventPublisher,
	changes ChangePublisher,
	logger *slog.Logger,
	recorder metrics.Recorder,
) *BrewService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &BrewService{
		brews:   brews,
		users:   users,
		bags:    bags,
		names:   names,
		events:  events,
		changes: changes,
		logger:  logger.With("component", "service.brew"),
		metrics: recorder,
		now:     time.Now,
	}
}

// BrewInput defines the editable fields of a brew.
type BrewInput struct {
	Title        string
	Method       string
	CoffeeAmount string
	WaterAmount  string
	BrewTime     string
	GrindSize    string
	Notes        string
	ImageURL     string
	BagID        *string

	// NewBag is created first and attached when set. It takes precedence over BagID.
	NewBag *BagInput
}

// FetchBrews returns every brew newest first with creator names filled in.
func (s *BrewService) FetchBrews(ctx context.Context, input ListInput) (*Page[*model.Brew], error) {
	return s.list(ctx, repository.BrewFilter{}, input)
}

// FetchUserBrews returns the brews created by userID, newest first.
func (s *BrewService) FetchUserBrews(ctx context.Context, userID string, input ListInput) (*Page[*model.Brew], error) {
	return s.list(ctx, repository.BrewFilter{CreatorID: userID}, input)
}

func (s *BrewService) list(ctx context.Context, filter repository.BrewFilter, input ListInput) (*Page[*model.Brew], error) {
	brews, next, err := s.brews.ListBrews(ctx, filter, input.Cursor, input.Limit)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCursor) {
			return nil, ErrInvalidCursor
		}
		return nil, fmt.Errorf("failed to list brews: %w", err)
	}

	s.names.fill(ctx, brews)
	return &Page[*model.Brew]{Items: brews, NextCursor: next}, nil
}

// FetchFavoriteBrews returns the brews whose IDs are in ids, newest first.
// IDs of deleted brews are skipped.
func (s *BrewService) FetchFavoriteBrews(ctx context.Context, ids []string) ([]*model.Brew, error) {
	brews := []*model.Brew{}
	if len(ids) == 0 {
		return brews, nil
	}

	for start := 0; start < len(ids); start += favoritesChunkSize {
		end := min(start+favoritesChunkSize, len(ids))
		chunk, err := s.brews.ListBrewsByIDs(ctx, ids[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to list favorite brews: %w", err)
		}
		brews = append(brews, chunk...)
	}

	sort.SliceStable(brews, func(i, j int) bool {
		if brews[i].CreatedAt.Equal(brews[j].CreatedAt) {
			return brews[i].ID > brews[j].ID
		}
		return brews[i].CreatedAt.After(brews[j].CreatedAt)
	})

	s.names.fill(ctx, brews)
	return brews, nil
}

// FetchUserFavorites loads a user's favorites list and returns those brews.
func (s *BrewService) FetchUserFavorites(ctx context.Context, userID string) ([]*model.Brew, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return s.FetchFavoriteBrews(ctx, user.Favorites)
}

// GetBrew returns a brew by ID with its creator name filled in.
func (s *BrewService) GetBrew(ctx context.Context, id string) (*model.Brew, error) {
	brew, err := s.brews.GetBrewByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBrewNotFound) {
			return nil, ErrBrewNotFound
		}
		return nil, fmt.Errorf("failed to get brew: %w", err)
	}
	brew.CreatorName = s.names.Resolve(ctx, brew.CreatorID)
	return brew, nil
}

// GetCreatorName returns the display name of a brew creator.
func (s *BrewService) GetCreatorName(ctx context.Context, userID string) string {
	return s.names.Resolve(ctx, userID)
}

// AddBrew logs a new brew for userID.
func (s *BrewService) AddBrew(ctx context.Context, userID string, input BrewInput) (*model.Brew, error) {
	brew := &model.Brew{
		ID:        generateULID(),
		CreatorID: userID,
		CreatedAt: s.now().UTC(),
	}
	if err := applyBrewInput(brew, input); err != nil {
		return nil, err
	}
	brew.CreatorName = s.names.Resolve(ctx, userID)

	if input.NewBag != nil {
		bag, err := s.bags.AddBag(ctx, userID, *input.NewBag)
		if err != nil {
			return nil, err
		}
		brew.BagID = &bag.ID
	}

	if err := s.brews.CreateBrew(ctx, brew); err != nil {
		if errors.Is(err, repository.ErrUnknownBagRef) {
			return nil, ErrBagNotFound
		}
		return nil, fmt.Errorf("failed to create brew: %w", err)
	}

	s.metrics.IncBrewCreated()
	s.announce(ctx, brew)
	s.logger.Debug("brew created", "brew_id", brew.ID, "user_id", userID)
	return brew, nil
}

// UpdateBrew overwrites the editable fields of a brew created by userID.
func (s *BrewService) UpdateBrew(ctx context.Context, userID, id string, input BrewInput) (*model.Brew, error) {
	brew, err := s.ownedBrew(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	before := brew.Snapshot()

	if err := applyBrewInput(brew, input); err != nil {
		return nil, err
	}
	if input.NewBag != nil {
		bag, err := s.bags.AddBag(ctx, userID, *input.NewBag)
		if err != nil {
			return nil, err
		}
		brew.BagID = &bag.ID
	}

	if err := s.brews.UpdateBrew(ctx, brew); err != nil {
		switch {
		case errors.Is(err, repository.ErrUnknownBagRef):
			return nil, ErrBagNotFound
		case errors.Is(err, repository.ErrBrewNotFound):
			return nil, ErrBrewNotFound
		}
		return nil, fmt.Errorf("failed to update brew: %w", err)
	}

	s.publishUpdate(before, brew.Snapshot())
	s.announce(ctx, brew)
	brew.CreatorName = s.names.Resolve(ctx, brew.CreatorID)
	return brew, nil
}

// DeleteBrew removes a brew created by userID.
func (s *BrewService) DeleteBrew(ctx context.Context, userID, id string) error {
	brew, err := s.ownedBrew(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.brews.DeleteBrew(ctx, id); err != nil {
		if errors.Is(err, repository.ErrBrewNotFound) {
			return ErrBrewNotFound
		}
		return fmt.Errorf("failed to delete brew: %w", err)
	}

	s.metrics.IncBrewDeleted()
	s.announce(ctx, brew)
	return nil
}

// UpdateSaveCount moves a brew's save count by delta in one statement and
// publishes the before/after pair to the change feed.
func (s *BrewService) UpdateSaveCount(ctx context.Context, id string, delta int) (*model.Brew, error) {
	after, err := s.brews.IncrementSaveCount(ctx, id, delta)
	if err != nil {
		if errors.Is(err, repository.ErrBrewNotFound) {
			return nil, ErrBrewNotFound
		}
		return nil, fmt.Errorf("failed to update save count: %w", err)
	}

	afterSnap := after.Snapshot()
	beforeSnap := *afterSnap
	beforeSnap.SaveCount = afterSnap.SaveCount - delta

	s.publishUpdate(&beforeSnap, afterSnap)
	s.announce(ctx, after)
	return after, nil
}

// Calendar returns per-day brew counts for userID in [from, to).
func (s *BrewService) Calendar(ctx context.Context, userID string, from, to time.Time) ([]model.BrewDayCount, error) {
	if !to.After(from) || to.Sub(from) > maxCalendarRange {
		return nil, ErrInvalidRange
	}

	counts, err := s.brews.CountBrewsByDay(ctx, userID, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to load calendar: %w", err)
	}
	return counts, nil
}

func (s *BrewService) ownedBrew(ctx context.Context, userID, id string) (*model.Brew, error) {
	brew, err := s.brews.GetBrewByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBrewNotFound) {
			return nil, ErrBrewNotFound
		}
		return nil, fmt.Errorf("failed to get brew: %w", err)
	}
	if brew.CreatorID != userID {
		return nil, ErrForbidden
	}
	return brew, nil
}

func (s *BrewService) publishUpdate(before, after *model.BrewSnapshot) {
	if s.events == nil {
		return
	}
	s.events.PublishAsync(model.BrewUpdate{
		Before:     before,
		After:      after,
		OccurredAt: s.now().UTC(),
	})
}

func (s *BrewService) announce(ctx context.Context, brew *model.Brew) {
	announce(ctx, s.changes, s.logger, model.Change{
		Collection: model.CollectionBrews,
		DocumentID: brew.ID,
		OwnerID:    brew.CreatorID,
	})
}

// applyBrewInput validates input and copies it onto brew.
func applyBrewInput(brew *model.Brew, input BrewInput) error {
	title, err := cleanText("title", input.Title, MaxTitleLength, true, false)
	if err != nil {
		return err
	}
	method, err := cleanText("method", input.Method, MaxChoiceLength, true, false)
	if err != nil {
		return err
	}
	grind, err := cleanText("grind_size", input.GrindSize, MaxChoiceLength, true, false)
	if err != nil {
		return err
	}
	coffee, err := cleanText("coffee_amount", input.CoffeeAmount, MaxAmountLength, true, false)
	if err != nil {
		return err
	}
	water, err := cleanText("water_amount", input.WaterAmount, MaxAmountLength, true, false)
	if err != nil {
		return err
	}
	brewTime, err := cleanText("brew_time", input.BrewTime, MaxAmountLength, true, false)
	if err != nil {
		return err
	}
	notes, err := cleanText("notes", input.Notes, MaxNotesLength, false, true)
	if err != nil {
		return err
	}
	image, err := cleanImageURL("image_url", input.ImageURL)
	if err != nil {
		return err
	}

	var bagID *string
	if input.BagID != nil && *input.BagID != "" {
		id := *input.BagID
		bagID = &id
	}

	brew.Title = title
	brew.Method = method
	brew.GrindSize = grind
	brew.CoffeeAmount = coffee
	brew.WaterAmount = water
	brew.BrewTime = brewTime
	brew.Notes = notes
	brew.ImageURL = image
	brew.BagID = bagID
	return nil
}
