package http

import (
	"context"
)

type actorKey struct{}

func withActor(ctx context.Context, userID int32) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorFromContext returns the authenticated user id injected by AuthMiddleware
func ActorFromContext(ctx context.Context) (int32, bool) {
	id, ok := ctx.Value(actorKey{}).(int32)
	return id, ok
}

// requireActor is for handlers behind SecurityAccess routes
func requireActor(ctx context.Context) (int32, error) {
	id, ok := ActorFromContext(ctx)
	if !ok {
		return 0, errUnauthenticated
	}
	return id, nil
}

// optionalActor is for SecurityOptional routes; nil means anonymous
func optionalActor(ctx context.Context) *int32 {
	if id, ok := ActorFromContext(ctx); ok {
		return &id
	}
	return nil
}
