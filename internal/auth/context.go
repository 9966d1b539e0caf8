package auth

import (
	"context"

	"github.com/dogwatchapp/dogwatch/internal/model"
)

type contextKey struct{}

// Actor is the resolved caller for the lifetime of one request.
type Actor struct {
	Member    *model.Member
	Household *model.Household
}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(contextKey{}).(Actor)
	return a, ok
}

func MemberID(ctx context.Context) int64 {
	a, ok := ActorFromContext(ctx)
	if !ok || a.Member == nil {
		return 0
	}
	return a.Member.ID
}

func HouseholdID(ctx context.Context) int64 {
	a, ok := ActorFromContext(ctx)
	if !ok || a.Household == nil {
		return 0
	}
	return a.Household.ID
}
