package auth

import (
	"errors"
	"testing"

	"github.com/dogwatchapp/dogwatch/internal/database"
	"github.com/dogwatchapp/dogwatch/internal/identity"
	"github.com/dogwatchapp/dogwatch/internal/model"
	"github.com/dogwatchapp/dogwatch/internal/store"
)

func setupGate(t *testing.T) (*Gate, *store.MemberStore, *store.HouseholdStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ms := store.NewMemberStore(db)
	hs := store.NewHouseholdStore(db)
	return NewGate(ms, hs), ms, hs
}

func TestResolveActor(t *testing.T) {
	gate, ms, _ := setupGate(t)

	if _, err := gate.ResolveActor(identity.Identity{}); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("empty subject: err = %v, want ErrNotAuthenticated", err)
	}

	if _, err := gate.ResolveActor(identity.Identity{Subject: "sub-ghost"}); !errors.Is(err, ErrMemberNotFound) {
		t.Errorf("unknown subject: err = %v, want ErrMemberNotFound", err)
	}

	created, err := ms.Create("Dana", "dana@example.com", "sub-dana")
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	member, err := gate.ResolveActor(identity.Identity{Subject: "sub-dana"})
	if err != nil {
		t.Fatalf("resolve actor: %v", err)
	}
	if member.ID != created.ID {
		t.Errorf("resolved member %d, want %d", member.ID, created.ID)
	}
}

func TestRequireHousehold(t *testing.T) {
	gate, ms, hs := setupGate(t)

	member, err := ms.Create("Dana", "dana@example.com", "sub-dana")
	if err != nil {
		t.Fatalf("create member: %v", err)
	}

	if _, err := gate.RequireHousehold(member); !errors.Is(err, ErrNoHousehold) {
		t.Errorf("no household: err = %v, want ErrNoHousehold", err)
	}

	h, err := hs.Create("The Parkers", "Biscuit", "A1B2C3D4")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	member, err = ms.SetHousehold(member.ID, h.ID)
	if err != nil {
		t.Fatalf("set household: %v", err)
	}

	got, err := gate.RequireHousehold(member)
	if err != nil {
		t.Fatalf("require household: %v", err)
	}
	if got.ID != h.ID {
		t.Errorf("household %d, want %d", got.ID, h.ID)
	}

	// Dangling reference
	stale := int64(9999)
	member.HouseholdID = &stale
	if _, err := gate.RequireHousehold(member); !errors.Is(err, ErrHouseholdNotFound) {
		t.Errorf("dangling household: err = %v, want ErrHouseholdNotFound", err)
	}
}

func TestAuthorize(t *testing.T) {
	gate, _, _ := setupGate(t)

	actor := Actor{
		Member:    &model.Member{ID: 1},
		Household: &model.Household{ID: 7},
	}

	if err := gate.Authorize(actor, 7); err != nil {
		t.Errorf("same household: err = %v, want nil", err)
	}
	if err := gate.Authorize(actor, 8); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("other household: err = %v, want ErrUnauthorized", err)
	}
	if err := gate.Authorize(Actor{}, 7); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("empty actor: err = %v, want ErrUnauthorized", err)
	}
}
