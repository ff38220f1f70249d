package auth

import (
	"context"

	"github.com/beanbook/beanbook/internal/model"
)

type sessionKey struct{}

// ContextWithAuth attaches a verified session to ctx.
func ContextWithAuth(ctx context.Context, session *model.AuthContext) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// AuthFromContext returns the session attached by RequireSession, or nil.
func AuthFromContext(ctx context.Context) *model.AuthContext {
	session, _ := ctx.Value(sessionKey{}).(*model.AuthContext)
	return session
}

// UserIDFromContext returns the signed-in user's ID, or "" when the request is anonymous.
func UserIDFromContext(ctx context.Context) string {
	if session := AuthFromContext(ctx); session != nil {
		return session.UserID
	}
	return ""
}
