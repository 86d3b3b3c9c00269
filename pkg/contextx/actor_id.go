package contextx

import (
	"context"
	"fmt"
)

// ActorID is the chat user that triggered the current update.
type ActorID int64

type contextKeyActorID struct{}

func WithActorID(ctx context.Context, actorID ActorID) context.Context {
	return context.WithValue(ctx, contextKeyActorID{}, actorID)
}

func ActorIDFromContext(ctx context.Context) (ActorID, error) {
	actorID, ok := ctx.Value(contextKeyActorID{}).(ActorID)
	if !ok {
		return 0, fmt.Errorf("actor id: %w", ErrNoValue)
	}

	return actorID, nil
}
