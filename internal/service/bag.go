package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/beanbook/beanbook/internal/metrics"
	"github.com/beanbook/beanbook/internal/model"
	"github.com/beanbook/beanbook/internal/repository"
)

// BagService handles coffee bag business logic.
type BagService struct {
	bags    BagStore
	names   *CreatorNames
	changes ChangePublisher
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time
}

// NewBagService creates a new BagService.
func NewBagService(bags BagStore, names *CreatorNames, changes ChangePublisher, logger *slog.Logger, recorder metrics.Recorder) *BagService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &BagService{
		bags:    bags,
		names:   names,
		changes: changes,
		logger:  logger.With("component", "service.bag"),
		metrics: recorder,
		now:     time.Now,
	}
}

// BagInput defines input for creating a bag.
type BagInput struct {
	BrandName  string
	RoastLevel string
	Origin     string
	Location   string
	ImageURL   string
}

// BagUpdateInput is a merge write to a bag. Nil fields are left untouched.
type BagUpdateInput struct {
	BrandName  *string
	RoastLevel *string
	Origin     *string
	Location   *string
	ImageURL   *string
}

// ListBags returns bags newest first. An empty ownerID lists every bag.
func (s *BagService) ListBags(ctx context.Context, ownerID string, input ListInput) (*Page[*model.Bag], error) {
	bags, next, err := s.bags.ListBags(ctx, repository.BagFilter{UserID: ownerID}, input.Cursor, input.Limit)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCursor) {
			return nil, ErrInvalidCursor
		}
		return nil, fmt.Errorf("failed to list bags: %w", err)
	}
	return &Page[*model.Bag]{Items: bags, NextCursor: next}, nil
}

// GetBag returns a bag by ID.
func (s *BagService) GetBag(ctx context.Context, id string) (*model.Bag, error) {
	bag, err := s.bags.GetBagByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBagNotFound) {
			return nil, ErrBagNotFound
		}
		return nil, fmt.Errorf("failed to get bag: %w", err)
	}
	return bag, nil
}

// AddBag creates a bag owned by userID.
func (s *BagService) AddBag(ctx context.Context, userID string, input BagInput) (*model.Bag, error) {
	bag, err := s.newBag(userID, input)
	if err != nil {
		return nil, err
	}
	bag.UserName = s.names.Resolve(ctx, userID)

	if err := s.bags.CreateBag(ctx, bag); err != nil {
		return nil, fmt.Errorf("failed to create bag: %w", err)
	}

	s.metrics.IncBagCreated()
	s.announce(ctx, bag)
	return bag, nil
}

// UpdateBag merges input into a bag owned by userID.
func (s *BagService) UpdateBag(ctx context.Context, userID, id string, input BagUpdateInput) (*model.Bag, error) {
	if _, err := s.ownedBag(ctx, userID, id); err != nil {
		return nil, err
	}

	var patch repository.BagPatch
	var err error

	if input.BrandName != nil {
		brand, err := cleanText("brand_name", *input.BrandName, MaxBrandLength, true, false)
		if err != nil {
			return nil, err
		}
		patch.BrandName = &brand
	}
	if input.RoastLevel != nil {
		roast, err := cleanText("roast_level", *input.RoastLevel, MaxChoiceLength, true, false)
		if err != nil {
			return nil, err
		}
		patch.RoastLevel = &roast
	}
	if input.Origin != nil {
		origin, err := cleanText("origin", *input.Origin, MaxOriginLength, true, false)
		if err != nil {
			return nil, err
		}
		patch.Origin = &origin
	}
	if patch.Location, err = optionalText("location", input.Location, MaxLocationLength, false); err != nil {
		return nil, err
	}
	if input.ImageURL != nil {
		image, err := cleanImageURL("image_url", *input.ImageURL)
		if err != nil {
			return nil, err
		}
		patch.ImageURL = &image
	}

	bag, err := s.bags.UpdateBag(ctx, id, patch)
	if err != nil {
		if errors.Is(err, repository.ErrBagNotFound) {
			return nil, ErrBagNotFound
		}
		return nil, fmt.Errorf("failed to update bag: %w", err)
	}

	s.announce(ctx, bag)
	return bag, nil
}

// DeleteBag removes a bag owned by userID.
func (s *BagService) DeleteBag(ctx context.Context, userID, id string) error {
	bag, err := s.ownedBag(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.bags.DeleteBag(ctx, id); err != nil {
		if errors.Is(err, repository.ErrBagNotFound) {
			return ErrBagNotFound
		}
		return fmt.Errorf("failed to delete bag: %w", err)
	}

	s.announce(ctx, bag)
	return nil
}

func (s *BagService) ownedBag(ctx context.Context, userID, id string) (*model.Bag, error) {
	bag, err := s.GetBag(ctx, id)
	if err != nil {
		return nil, err
	}
	if bag.UserID != userID {
		return nil, ErrForbidden
	}
	return bag, nil
}

func (s *BagService) newBag(userID string, input BagInput) (*model.Bag, error) {
	brand, err := cleanText("brand_name", input.BrandName, MaxBrandLength, true, false)
	if err != nil {
		return nil, err
	}
	roast, err := cleanText("roast_level", input.RoastLevel, MaxChoiceLength, true, false)
	if err != nil {
		return nil, err
	}
	origin, err := cleanText("origin", input.Origin, MaxOriginLength, true, false)
	if err != nil {
		return nil, err
	}
	location, err := cleanText("location", input.Location, MaxLocationLength, false, false)
	if err != nil {
		return nil, err
	}
	image, err := cleanImageURL("image_url", input.ImageURL)
	if err != nil {
		return nil, err
	}

	return &model.Bag{
		ID:         generateULID(),
		BrandName:  brand,
		RoastLevel: roast,
		Origin:     origin,
		Location:   location,
		UserID:     userID,
		ImageURL:   image,
		CreatedAt:  s.now().UTC(),
	}, nil
}

func (s *BagService) announce(ctx context.Context, bag *model.Bag) {
	announce(ctx, s.changes, s.logger, model.Change{
		Collection: model.CollectionBags,
		DocumentID: bag.ID,
		OwnerID:    bag.UserID,
	})
}
