package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_SignUp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, user, err := env.auth.SignUp(ctx, SignUpInput{
		Email:       "  Ada@Example.COM ",
		Password:    "secret1",
		DisplayName: "Ada",
	})
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, user.ID, session.UserID)
	assert.NotEmpty(t, session.Token)
	assert.Empty(t, user.Favorites)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "secret1", user.PasswordHash)
	assert.False(t, user.CreatedAt.IsZero())
}

func TestAuthService_SignUpValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, _, err := env.auth.SignUp(ctx, SignUpInput{Email: "not-an-email", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, _, err = env.auth.SignUp(ctx, SignUpInput{Email: "a@b.co", Password: "12345"})
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, _, err = env.auth.SignUp(ctx, SignUpInput{Email: "a@b.co", Password: "123456"})
	require.NoError(t, err)

	_, _, err = env.auth.SignUp(ctx, SignUpInput{Email: "A@B.co", Password: "123456"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthService_SignIn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, user, err := env.auth.SignUp(ctx, SignUpInput{Email: "bo@example.com", Password: "hunter22"})
	require.NoError(t, err)

	session, err := env.auth.SignIn(ctx, "BO@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.UserID)

	_, err = env.auth.SignIn(ctx, "bo@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.auth.SignIn(ctx, "nobody@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	env.users.byID[user.ID].IsDeleted = true
	_, err = env.auth.SignIn(ctx, "bo@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_SignOutRevokesSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, _, err := env.auth.SignUp(ctx, SignUpInput{Email: "cy@example.com", Password: "espresso"})
	require.NoError(t, err)

	authCtx, err := env.auth.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.UserID, authCtx.UserID)

	require.NoError(t, env.auth.SignOut(ctx, authCtx))

	_, err = env.auth.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, ErrSessionRevoked)
}

func TestAuthService_AuthenticateFailsOpenOnRevocationError(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, _, err := env.auth.SignUp(ctx, SignUpInput{Email: "di@example.com", Password: "espresso"})
	require.NoError(t, err)

	env.revoker.err = errBoom
	authCtx, err := env.auth.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.UserID, authCtx.UserID)
}

func TestAuthService_AuthenticateRejectsGarbage(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.Authenticate(context.Background(), "not-a-token")
	assert.Error(t, err)
}

func TestAuthService_AuthenticateRejectsUnknownAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	session, user, err := env.auth.SignUp(ctx, SignUpInput{Email: "ev@example.com", Password: "espresso"})
	require.NoError(t, err)

	delete(env.users.byID, user.ID)
	_, err = env.auth.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, ErrSessionRevoked)
}
