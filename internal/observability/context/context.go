package obscontext

import (
	"context"
	"strings"
)

type requestIDKey struct{}
type actorKey struct{}

type actor struct {
	typ  string
	id   string
	role string
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithActor records who is acting: a user (with role) or the system.
func WithActor(ctx context.Context, actorType, actorID, role string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor{
		typ:  strings.TrimSpace(actorType),
		id:   strings.TrimSpace(actorID),
		role: strings.TrimSpace(role),
	})
}

func ActorFromContext(ctx context.Context) (actorType, actorID string) {
	if ctx == nil {
		return "", ""
	}
	if a, ok := ctx.Value(actorKey{}).(actor); ok {
		return a.typ, a.id
	}
	return "", ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if a, ok := ctx.Value(actorKey{}).(actor); ok {
		return a.role
	}
	return ""
}
