package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/beanbook/beanbook/internal/model"
	"github.com/beanbook/beanbook/internal/repository"
)

var errBoom = errors.New("boom")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeUsers struct {
	mu      sync.Mutex
	byID    map[string]*model.User
	lookups int
}

func newFakeUsers(users ...*model.User) *fakeUsers {
	f := &fakeUsers{byID: make(map[string]*model.User)}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) CreateUser(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == user.Email {
			return repository.ErrEmailExists
		}
	}
	cp := *user
	f.byID[user.ID] = &cp
	return nil
}

func (f *fakeUsers) GetUserByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	u, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	cp.Favorites = slices.Clone(u.Favorites)
	return &cp, nil
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id string, patch repository.ProfilePatch) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok || u.IsDeleted {
		return nil, repository.ErrUserNotFound
	}
	if patch.DisplayName != nil {
		u.DisplayName = *patch.DisplayName
	}
	if patch.PhotoURL != nil {
		u.PhotoURL = *patch.PhotoURL
	}
	if patch.Bio != nil {
		u.Bio = *patch.Bio
	}
	now := time.Now().UTC()
	u.UpdatedAt = &now
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) AddFavorite(_ context.Context, userID, brewID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok || u.IsDeleted || u.HasFavorite(brewID) {
		return false, nil
	}
	u.Favorites = append(u.Favorites, brewID)
	return true, nil
}

func (f *fakeUsers) RemoveFavorite(_ context.Context, userID, brewID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok || u.IsDeleted || !u.HasFavorite(brewID) {
		return false, nil
	}
	u.Favorites = slices.DeleteFunc(u.Favorites, func(id string) bool { return id == brewID })
	return true, nil
}

func (f *fakeUsers) SetPushToken(_ context.Context, userID string, token *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok || u.IsDeleted {
		return repository.ErrUserNotFound
	}
	u.PushToken = token
	return nil
}

func (f *fakeUsers) SetRemindersEnabled(_ context.Context, userID string, enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok || u.IsDeleted {
		return repository.ErrUserNotFound
	}
	u.RemindersEnabled = enabled
	return nil
}

func (f *fakeUsers) SoftDeleteUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.IsDeleted = true
	u.PushToken = nil
	return nil
}

type fakeBrews struct {
	mu           sync.Mutex
	byID         map[string]*model.Brew
	bags         *fakeBags
	incrementErr error
	byIDsCalls   [][]string
}

func newFakeBrews(bags *fakeBags, brews ...*model.Brew) *fakeBrews {
	f := &fakeBrews{byID: make(map[string]*model.Brew), bags: bags}
	for _, b := range brews {
		f.byID[b.ID] = b
	}
	return f
}

func (f *fakeBrews) CreateBrew(_ context.Context, brew *model.Brew) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if brew.BagID != nil && f.bags != nil && !f.bags.has(*brew.BagID) {
		return repository.ErrUnknownBagRef
	}
	cp := *brew
	f.byID[brew.ID] = &cp
	return nil
}

func (f *fakeBrews) GetBrewByID(_ context.Context, id string) (*model.Brew, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrBrewNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBrews) ListBrews(_ context.Context, filter repository.BrewFilter, cursor string, limit int) ([]*model.Brew, string, error) {
	if cursor == "bad" {
		return nil, "", repository.ErrInvalidCursor
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*model.Brew{}
	for _, b := range f.byID {
		if filter.CreatorID == "" || b.CreatorID == filter.CreatorID {
			cp := *b
			out = append(out, &cp)
		}
	}
	sortNewestFirst(out)
	return out, "", nil
}

func (f *fakeBrews) ListBrewsByIDs(_ context.Context, ids []string) ([]*model.Brew, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byIDsCalls = append(f.byIDsCalls, slices.Clone(ids))
	out := []*model.Brew{}
	for _, id := range ids {
		if b, ok := f.byID[id]; ok {
			cp := *b
			out = append(out, &cp)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (f *fakeBrews) UpdateBrew(_ context.Context, brew *model.Brew) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[brew.ID]; !ok {
		return repository.ErrBrewNotFound
	}
	if brew.BagID != nil && f.bags != nil && !f.bags.has(*brew.BagID) {
		return repository.ErrUnknownBagRef
	}
	cp := *brew
	f.byID[brew.ID] = &cp
	return nil
}

func (f *fakeBrews) DeleteBrew(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return repository.ErrBrewNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeBrews) IncrementSaveCount(_ context.Context, id string, delta int) (*model.Brew, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.incrementErr != nil {
		return nil, f.incrementErr
	}
	b, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrBrewNotFound
	}
	b.SaveCount += delta
	cp := *b
	return &cp, nil
}

func (f *fakeBrews) CountBrewsByDay(_ context.Context, creatorID string, from, to time.Time) ([]model.BrewDayCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[time.Time]int{}
	for _, b := range f.byID {
		if b.CreatorID == creatorID && !b.CreatedAt.Before(from) && b.CreatedAt.Before(to) {
			day := b.CreatedAt.UTC().Truncate(24 * time.Hour)
			counts[day]++
		}
	}
	out := []model.BrewDayCount{}
	for day, n := range counts {
		out = append(out, model.BrewDayCount{Day: day, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, nil
}

func sortNewestFirst(brews []*model.Brew) {
	sort.Slice(brews, func(i, j int) bool { return brews[i].CreatedAt.After(brews[j].CreatedAt) })
}

type fakeBags struct {
	mu   sync.Mutex
	byID map[string]*model.Bag
}

func newFakeBags(bags ...*model.Bag) *fakeBags {
	f := &fakeBags{byID: make(map[string]*model.Bag)}
	for _, b := range bags {
		f.byID[b.ID] = b
	}
	return f
}

func (f *fakeBags) has(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.byID[id]
	return ok
}

func (f *fakeBags) CreateBag(_ context.Context, bag *model.Bag) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *bag
	f.byID[bag.ID] = &cp
	return nil
}

func (f *fakeBags) GetBagByID(_ context.Context, id string) (*model.Bag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrBagNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBags) ListBags(_ context.Context, filter repository.BagFilter, cursor string, limit int) ([]*model.Bag, string, error) {
	if cursor == "bad" {
		return nil, "", repository.ErrInvalidCursor
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*model.Bag{}
	for _, b := range f.byID {
		if filter.UserID == "" || b.UserID == filter.UserID {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, "", nil
}

func (f *fakeBags) UpdateBag(_ context.Context, id string, patch repository.BagPatch) (*model.Bag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrBagNotFound
	}
	if patch.BrandName != nil {
		b.BrandName = *patch.BrandName
	}
	if patch.RoastLevel != nil {
		b.RoastLevel = *patch.RoastLevel
	}
	if patch.Origin != nil {
		b.Origin = *patch.Origin
	}
	if patch.Location != nil {
		b.Location = *patch.Location
	}
	if patch.ImageURL != nil {
		b.ImageURL = *patch.ImageURL
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBags) DeleteBag(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return repository.ErrBagNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeNameCache struct {
	mu     sync.Mutex
	names  map[string]string
	getErr error
}

func newFakeNameCache() *fakeNameCache {
	return &fakeNameCache{names: make(map[string]string)}
}

func (f *fakeNameCache) GetCreatorName(_ context.Context, userID string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", false, f.getErr
	}
	name, ok := f.names[userID]
	return name, ok, nil
}

func (f *fakeNameCache) SetCreatorName(_ context.Context, userID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names[userID] = name
	return nil
}

func (f *fakeNameCache) DeleteCreatorName(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.names, userID)
	return nil
}

type fakeRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	err     error
}

func newFakeRevoker() *fakeRevoker {
	return &fakeRevoker{revoked: make(map[string]time.Time)}
}

func (f *fakeRevoker) RevokeToken(_ context.Context, tokenID string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.revoked[tokenID] = expiresAt
	return nil
}

func (f *fakeRevoker) IsTokenRevoked(_ context.Context, tokenID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.revoked[tokenID]
	return ok, nil
}

type fakeChanges struct {
	mu      sync.Mutex
	changes []model.Change
}

func (f *fakeChanges) PublishChange(_ context.Context, change model.Change) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changes = append(f.changes, change)
	return nil
}

func (f *fakeChanges) collections() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.changes))
	for _, c := range f.changes {
		out = append(out, c.Collection)
	}
	return out
}

type fakeEvents struct {
	mu      sync.Mutex
	updates []model.BrewUpdate
}

func (f *fakeEvents) PublishAsync(update model.BrewUpdate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, update)
}

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newFakeObjects(keys ...string) *fakeObjects {
	f := &fakeObjects{objects: make(map[string][]byte), types: make(map[string]string)}
	for _, k := range keys {
		f.objects[k] = nil
	}
	return f
}

func (f *fakeObjects) Put(_ context.Context, key, contentType string, body io.Reader, _ int64) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	f.types[key] = contentType
	return nil
}

func (f *fakeObjects) List(_ context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := []string{}
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (f *fakeObjects) URL(key string) string {
	return "https://cdn.test/" + key
}
