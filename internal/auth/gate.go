package auth

import (
	"errors"

	"github.com/dogwatchapp/dogwatch/internal/identity"
	"github.com/dogwatchapp/dogwatch/internal/model"
	"github.com/dogwatchapp/dogwatch/internal/store"
)

var (
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrMemberNotFound    = errors.New("member not found")
	ErrNoHousehold       = errors.New("member has no household")
	ErrHouseholdNotFound = errors.New("household not found")

	// ErrUnauthorized covers every cross-household access attempt. It is
	// deliberately the only error such attempts can produce, so callers
	// cannot distinguish "exists elsewhere" from "does not exist".
	ErrUnauthorized = errors.New("unauthorized")
)

// Gate resolves caller identities to household-scoped actors and checks
// record ownership before any mutation.
type Gate struct {
	members    *store.MemberStore
	households *store.HouseholdStore
}

func NewGate(members *store.MemberStore, households *store.HouseholdStore) *Gate {
	return &Gate{members: members, households: households}
}

// ResolveActor maps a verified identity onto a member row.
func (g *Gate) ResolveActor(id identity.Identity) (*model.Member, error) {
	if id.Subject == "" {
		return nil, ErrNotAuthenticated
	}
	member, err := g.members.GetBySubject(id.Subject)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}
	return member, nil
}

// RequireHousehold resolves the member's household reference.
func (g *Gate) RequireHousehold(member *model.Member) (*model.Household, error) {
	if member.HouseholdID == nil {
		return nil, ErrNoHousehold
	}
	household, err := g.households.GetByID(*member.HouseholdID)
	if err != nil {
		return nil, err
	}
	if household == nil {
		return nil, ErrHouseholdNotFound
	}
	return household, nil
}

// Authorize checks that a record belongs to the actor's household.
func (g *Gate) Authorize(actor Actor, recordHouseholdID int64) error {
	if actor.Household == nil || actor.Household.ID != recordHouseholdID {
		return ErrUnauthorized
	}
	return nil
}
