package domain

import "context"

// SystemActor identifies internal callers (the scheduled syncer) that are
// not subject to the per-property ownership check.
const SystemActor = "system"

type actorKey struct{}

// WithActor attaches the acting operator id to the context. The HTTP layer
// sets it from the authenticated request; the syncer uses SystemActor.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the acting operator id, or "" when anonymous.
func ActorFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(actorKey{}).(string); ok {
		return v
	}
	return ""
}
