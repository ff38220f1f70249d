package handler

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/beanbook/beanbook/internal/model"
	"github.com/beanbook/beanbook/internal/service"
)

type fakeAccounts struct {
	signUpInput service.SignUpInput
	signedOut   *model.AuthContext
	err         error
}

func (f *fakeAccounts) SignUp(ctx context.Context, input service.SignUpInput) (*model.Session, *model.User, error) {
	f.signUpInput = input
	if f.err != nil {
		return nil, nil, f.err
	}
	user := &model.User{ID: "u1", Email: input.Email, DisplayName: input.DisplayName}
	return &model.Session{Token: "jwt", UserID: user.ID, ExpiresAt: time.Now().Add(time.Hour)}, user, nil
}

func (f *fakeAccounts) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.Session{Token: "jwt", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (f *fakeAccounts) SignOut(ctx context.Context, session *model.AuthContext) error {
	f.signedOut = session
	return f.err
}

type fakeProfiles struct {
	user      *model.User
	input     service.ProfileInput
	pushToken *string
	reminders *bool
	deleted   bool
	favorites map[string]bool
	err       error
}

func (f *fakeProfiles) FetchProfile(ctx context.Context, userID string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.user == nil {
		return nil, service.ErrUserNotFound
	}
	return f.user, nil
}

func (f *fakeProfiles) UpdateProfile(ctx context.Context, userID string, input service.ProfileInput) (*model.User, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	u := *f.user
	if input.DisplayName != nil {
		u.DisplayName = *input.DisplayName
	}
	if input.Bio != nil {
		u.Bio = *input.Bio
	}
	return &u, nil
}

func (f *fakeProfiles) DeleteAccount(ctx context.Context, session *model.AuthContext) error {
	f.deleted = true
	return f.err
}

func (f *fakeProfiles) SetPushToken(ctx context.Context, userID, token string) error {
	f.pushToken = &token
	return f.err
}

func (f *fakeProfiles) SetReminders(ctx context.Context, userID string, enabled bool) error {
	f.reminders = &enabled
	return f.err
}

func (f *fakeProfiles) IsFavorite(ctx context.Context, userID, brewID string) (bool, error) {
	return f.favorites[brewID], f.err
}

func (f *fakeProfiles) ToggleFavorite(ctx context.Context, userID, brewID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.favorites == nil {
		f.favorites = make(map[string]bool)
	}
	f.favorites[brewID] = !f.favorites[brewID]
	return f.favorites[brewID], nil
}

type fakeBrews struct {
	brews     []*model.Brew
	next      string
	lastList  service.ListInput
	lastUser  string
	lastInput service.BrewInput
	from, to  time.Time
	days      []model.BrewDayCount
	err       error
}

func (f *fakeBrews) FetchBrews(ctx context.Context, input service.ListInput) (*service.Page[*model.Brew], error) {
	f.lastList = input
	if f.err != nil {
		return nil, f.err
	}
	return &service.Page[*model.Brew]{Items: f.brews, NextCursor: f.next}, nil
}

func (f *fakeBrews) FetchUserBrews(ctx context.Context, userID string, input service.ListInput) (*service.Page[*model.Brew], error) {
	f.lastUser = userID
	return f.FetchBrews(ctx, input)
}

func (f *fakeBrews) FetchUserFavorites(ctx context.Context, userID string) ([]*model.Brew, error) {
	f.lastUser = userID
	return f.brews, f.err
}

func (f *fakeBrews) GetBrew(ctx context.Context, id string) (*model.Brew, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, b := range f.brews {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, service.ErrBrewNotFound
}

func (f *fakeBrews) AddBrew(ctx context.Context, userID string, input service.BrewInput) (*model.Brew, error) {
	f.lastUser = userID
	f.lastInput = input
	if f.err != nil {
		return nil, f.err
	}
	return &model.Brew{
		ID:          "b-new",
		Title:       input.Title,
		Method:      input.Method,
		CreatorID:   userID,
		CreatorName: "Ada",
		CreatedAt:   time.Now(),
	}, nil
}

func (f *fakeBrews) UpdateBrew(ctx context.Context, userID, id string, input service.BrewInput) (*model.Brew, error) {
	f.lastUser = userID
	f.lastInput = input
	if f.err != nil {
		return nil, f.err
	}
	return &model.Brew{ID: id, Title: input.Title, CreatorID: userID}, nil
}

func (f *fakeBrews) DeleteBrew(ctx context.Context, userID, id string) error {
	f.lastUser = userID
	return f.err
}

func (f *fakeBrews) Calendar(ctx context.Context, userID string, from, to time.Time) ([]model.BrewDayCount, error) {
	f.from, f.to = from, to
	return f.days, f.err
}

type fakeBags struct {
	bags      []*model.Bag
	lastOwner string
	lastPatch service.BagUpdateInput
	err       error
}

func (f *fakeBags) ListBags(ctx context.Context, ownerID string, input service.ListInput) (*service.Page[*model.Bag], error) {
	f.lastOwner = ownerID
	if f.err != nil {
		return nil, f.err
	}
	return &service.Page[*model.Bag]{Items: f.bags}, nil
}

func (f *fakeBags) GetBag(ctx context.Context, id string) (*model.Bag, error) {
	for _, b := range f.bags {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, service.ErrBagNotFound
}

func (f *fakeBags) AddBag(ctx context.Context, userID string, input service.BagInput) (*model.Bag, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.Bag{
		ID:         "bag-new",
		BrandName:  input.BrandName,
		RoastLevel: input.RoastLevel,
		Origin:     input.Origin,
		UserID:     userID,
		UserName:   "Ada",
	}, nil
}

func (f *fakeBags) UpdateBag(ctx context.Context, userID, id string, input service.BagUpdateInput) (*model.Bag, error) {
	f.lastPatch = input
	if f.err != nil {
		return nil, f.err
	}
	return &model.Bag{ID: id, BrandName: "Onyx", UserID: userID}, nil
}

func (f *fakeBags) DeleteBag(ctx context.Context, userID, id string) error {
	return f.err
}

type fakeImages struct {
	mu      sync.Mutex
	kind    string
	body    []byte
	avatars []string
	err     error
}

func (f *fakeImages) Upload(ctx context.Context, userID, kind string, body io.Reader) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.kind, f.body = kind, data
	return "https://cdn.test/users/" + userID + "/" + kind + "/x.png", nil
}

func (f *fakeImages) StockAvatars(ctx context.Context) ([]string, error) {
	return f.avatars, f.err
}
