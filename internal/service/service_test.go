package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/beanbook/beanbook/internal/auth"
	"github.com/beanbook/beanbook/internal/metrics"
	"github.com/beanbook/beanbook/internal/model"
)

type testEnv struct {
	users    *fakeUsers
	brews    *fakeBrews
	bags     *fakeBags
	cache    *fakeNameCache
	revoker  *fakeRevoker
	changes  *fakeChanges
	events   *fakeEvents
	objects  *fakeObjects
	recorder *metrics.InMemoryRecorder

	auth     *AuthService
	profiles *ProfileService
	brewSvc  *BrewService
	bagSvc   *BagService
	images   *ImageService
	names    *CreatorNames
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		users:    newFakeUsers(),
		bags:     newFakeBags(),
		cache:    newFakeNameCache(),
		revoker:  newFakeRevoker(),
		changes:  &fakeChanges{},
		events:   &fakeEvents{},
		objects:  newFakeObjects(),
		recorder: metrics.NewInMemory(),
	}
	env.brews = newFakeBrews(env.bags)

	logger := discardLogger()
	hasher := auth.NewPasswordHasher(auth.HashParams{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32, SaltLen: 16})
	tokens, err := auth.NewTokenManager("test-secret", "beanbook-test", time.Hour)
	require.NoError(t, err)

	env.auth, err = NewAuthService(env.users, env.revoker, hasher, tokens, logger)
	require.NoError(t, err)

	env.names = NewCreatorNames(env.users, env.cache, logger, env.recorder)
	env.bagSvc = NewBagService(env.bags, env.names, env.changes, logger, env.recorder)
	env.brewSvc = NewBrewService(env.brews, env.users, env.bagSvc, env.names, env.events, env.changes, logger, env.recorder)
	env.profiles = NewProfileService(env.users, env.brews, env.brewSvc, env.cache, env.changes, env.auth, logger, env.recorder)
	env.images = NewImageService(env.objects, 1024, logger, env.recorder)

	return env
}

func (e *testEnv) addUser(id, name string) *model.User {
	u := &model.User{
		ID:          id,
		Email:       id + "@example.com",
		DisplayName: name,
		Favorites:   []string{},
		CreatedAt:   time.Now().UTC(),
	}
	e.users.byID[id] = u
	return u
}

func (e *testEnv) addBrew(id, creatorID string, saveCount int, createdAt time.Time) *model.Brew {
	b := &model.Brew{
		ID:           id,
		Title:        "Brew " + id,
		Method:       "Pourover",
		CoffeeAmount: "18g",
		WaterAmount:  "300g",
		BrewTime:     "180s",
		GrindSize:    "Medium",
		CreatorID:    creatorID,
		CreatedAt:    createdAt,
		SaveCount:    saveCount,
	}
	e.brews.byID[id] = b
	return b
}

func validBrewInput() BrewInput {
	return BrewInput{
		Title:        "Morning V60",
		Method:       "Pourover",
		CoffeeAmount: "18.0g",
		WaterAmount:  "300g",
		BrewTime:     "180s",
		GrindSize:    "Medium",
		Notes:        "bright\nfloral",
	}
}
