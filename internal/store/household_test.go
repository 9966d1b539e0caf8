package store

import (
	"testing"

	"github.com/dogwatchapp/dogwatch/internal/database"
)

func setupHouseholdTestDB(t *testing.T) (*HouseholdStore, *MemberStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewHouseholdStore(db), NewMemberStore(db)
}

func TestHouseholdCRUD(t *testing.T) {
	hs, _ := setupHouseholdTestDB(t)

	h, err := hs.Create("The Parkers", "Biscuit", "A1B2C3D4")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	if h.Name != "The Parkers" || h.DogName != "Biscuit" {
		t.Errorf("created = %q/%q, want The Parkers/Biscuit", h.Name, h.DogName)
	}

	got, err := hs.GetByID(h.ID)
	if err != nil {
		t.Fatalf("get household: %v", err)
	}
	if got.InviteCode != "A1B2C3D4" {
		t.Errorf("invite code = %q, want A1B2C3D4", got.InviteCode)
	}

	updated, err := hs.Update(h.ID, "The Parker Family", "Biscuit Jr")
	if err != nil {
		t.Fatalf("update household: %v", err)
	}
	if updated.Name != "The Parker Family" || updated.DogName != "Biscuit Jr" {
		t.Errorf("updated = %q/%q", updated.Name, updated.DogName)
	}

	if err := hs.Delete(h.ID); err != nil {
		t.Fatalf("delete household: %v", err)
	}
	got, err = hs.GetByID(h.ID)
	if err != nil {
		t.Fatalf("get deleted household: %v", err)
	}
	if got != nil {
		t.Error("expected nil for deleted household")
	}
}

func TestHouseholdGetByInviteCode(t *testing.T) {
	hs, _ := setupHouseholdTestDB(t)

	h, err := hs.Create("The Parkers", "Biscuit", "A1B2C3D4")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}

	// Codes match case-insensitively
	got, err := hs.GetByInviteCode("a1b2c3d4")
	if err != nil {
		t.Fatalf("get by invite code: %v", err)
	}
	if got == nil || got.ID != h.ID {
		t.Fatal("expected case-insensitive invite code match")
	}

	got, err = hs.GetByInviteCode("NOPE1234")
	if err != nil {
		t.Fatalf("get by unknown code: %v", err)
	}
	if got != nil {
		t.Error("expected nil for unknown invite code")
	}
}

func TestMemberLifecycle(t *testing.T) {
	hs, ms := setupHouseholdTestDB(t)

	m, err := ms.Create("Dana", "dana@example.com", "sub-dana")
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	if m.HouseholdID != nil {
		t.Error("new member should have no household")
	}

	got, err := ms.GetBySubject("sub-dana")
	if err != nil {
		t.Fatalf("get by subject: %v", err)
	}
	if got == nil || got.ID != m.ID {
		t.Fatal("expected member by subject")
	}

	if got, _ := ms.GetBySubject("sub-unknown"); got != nil {
		t.Error("expected nil for unknown subject")
	}

	h, err := hs.Create("The Parkers", "Biscuit", "A1B2C3D4")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	joined, err := ms.SetHousehold(m.ID, h.ID)
	if err != nil {
		t.Fatalf("set household: %v", err)
	}
	if joined.HouseholdID == nil || *joined.HouseholdID != h.ID {
		t.Error("expected member attached to household")
	}

	members, err := ms.ListByHousehold(h.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 1 || members[0].ID != m.ID {
		t.Fatalf("list = %v, want the one joined member", members)
	}

	updated, err := ms.UpdateProfile(m.ID, "Dana P", "dana.p@example.com")
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.Name != "Dana P" || updated.Email != "dana.p@example.com" {
		t.Errorf("updated profile = %q/%q", updated.Name, updated.Email)
	}
}
