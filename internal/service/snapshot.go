package service

import (
	"context"
	"fmt"

	"github.com/beanbook/beanbook/internal/realtime"
	"github.com/beanbook/beanbook/internal/repository"
)

// SnapshotLoader builds the lists pushed to live listeners.
// Shared lists are capped at one full page, newest first.
type SnapshotLoader struct {
	brews    *BrewService
	bags     *BagService
	profiles *ProfileService
}

// NewSnapshotLoader creates a new SnapshotLoader.
func NewSnapshotLoader(brews *BrewService, bags *BagService, profiles *ProfileService) *SnapshotLoader {
	return &SnapshotLoader{brews: brews, bags: bags, profiles: profiles}
}

// LoadSnapshot implements realtime.Loader.
func (l *SnapshotLoader) LoadSnapshot(ctx context.Context, topic realtime.Topic, userID string) (any, error) {
	page := ListInput{Limit: repository.MaxPageSize}

	switch topic {
	case realtime.TopicBrews:
		brews, err := l.brews.FetchBrews(ctx, page)
		if err != nil {
			return nil, err
		}
		return brews.Items, nil
	case realtime.TopicMyBrews:
		brews, err := l.brews.FetchUserBrews(ctx, userID, page)
		if err != nil {
			return nil, err
		}
		return brews.Items, nil
	case realtime.TopicBags:
		bags, err := l.bags.ListBags(ctx, "", page)
		if err != nil {
			return nil, err
		}
		return bags.Items, nil
	case realtime.TopicProfile:
		return l.profiles.FetchProfile(ctx, userID)
	}
	return nil, fmt.Errorf("unknown topic %q", topic)
}
