package server

import (
	"context"

	"schedr/internal/models"
)

type actorContextKey struct{}

func contextWithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, actorContextKey{}, user)
}

func userFromContext(ctx context.Context) (*models.User, bool) {
	if ctx == nil {
		return nil, false
	}
	user, ok := ctx.Value(actorContextKey{}).(*models.User)
	return user, ok && user != nil
}

// actorFromContext returns the authenticated caller. The zero Actor is
// returned outside withAuth.
func actorFromContext(ctx context.Context) (models.Actor, bool) {
	user, ok := userFromContext(ctx)
	if !ok {
		return models.Actor{}, false
	}
	return user.Actor(), true
}
