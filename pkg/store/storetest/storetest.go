// Package storetest is a conformance suite run against every RecordStore
// implementation.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vanderheijden86/pedigree/pkg/model"
	"github.com/vanderheijden86/pedigree/pkg/store"
)

// Opener returns a fresh, empty store using the given delete policy. The
// suite closes it.
type Opener func(t *testing.T, policy store.DeletePolicy) store.RecordStore

// Run exercises the full RecordStore contract.
func Run(t *testing.T, open Opener) {
	t.Run("TreeGenerations", func(t *testing.T) { testTreeGenerations(t, open) })
	t.Run("TreeErrors", func(t *testing.T) { testTreeErrors(t, open) })
	t.Run("DeleteDetach", func(t *testing.T) { testDeleteDetach(t, open) })
	t.Run("DeleteRestrict", func(t *testing.T) { testDeleteRestrict(t, open) })
	t.Run("DeleteMissing", func(t *testing.T) { testDeleteMissing(t, open) })
	t.Run("CreateValidation", func(t *testing.T) { testCreateValidation(t, open) })
	t.Run("Update", func(t *testing.T) { testUpdate(t, open) })
	t.Run("SearchHorses", func(t *testing.T) { testSearchHorses(t, open) })
	t.Run("Owners", func(t *testing.T) { testOwners(t, open) })
}

func seeded(t *testing.T, open Opener, policy store.DeletePolicy) (store.RecordStore, store.SeedResult) {
	t.Helper()
	s := open(t, policy)
	t.Cleanup(func() { _ = s.Close() })
	res, err := store.Seed(context.Background(), s)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return s, res
}

func wantKind(t *testing.T, err, kind error) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("err = %v, want %v", err, kind)
	}
}

func testTreeGenerations(t *testing.T, open Opener) {
	s, res := seeded(t, open, store.DeleteDetach)
	ctx := context.Background()
	bob := res.Horses["Bob"]

	tests := []struct {
		generations int
		wantDepth   int
		wantCount   int
	}{
		{1, 1, 1},
		{2, 2, 3},
		{3, 3, 7},
		{10, 3, 7},
	}
	for _, tt := range tests {
		tree, err := s.Tree(ctx, bob.ID, tt.generations)
		if err != nil {
			t.Fatalf("Tree(%d): %v", tt.generations, err)
		}
		if tree.ID != bob.ID || tree.Name != "Bob" || tree.Sex != model.SexMale {
			t.Errorf("root = %+v", tree)
		}
		if got := tree.Depth(); got != tt.wantDepth {
			t.Errorf("generations %d: depth = %d, want %d", tt.generations, got, tt.wantDepth)
		}
		if got := tree.Count(); got != tt.wantCount {
			t.Errorf("generations %d: count = %d, want %d", tt.generations, got, tt.wantCount)
		}
	}

	tree, err := s.Tree(ctx, bob.ID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if tree.Father == nil || tree.Father.Name != "Storm Warden" {
		t.Errorf("father = %+v", tree.Father)
	}
	if tree.Mother == nil || tree.Mother.Name != "Alice" {
		t.Errorf("mother = %+v", tree.Mother)
	}
	if !tree.Father.IsLeaf() || !tree.Mother.IsLeaf() {
		t.Error("second generation should be cut off")
	}
	if !tree.Mother.DateOfBirth.Equal(res.Horses["Alice"].DateOfBirth.Time) {
		t.Errorf("mother birth = %v", tree.Mother.DateOfBirth)
	}
}

func testTreeErrors(t *testing.T, open Opener) {
	s, res := seeded(t, open, store.DeleteDetach)
	ctx := context.Background()

	_, err := s.Tree(ctx, 999999, 2)
	wantKind(t, err, model.ErrNotFound)

	_, err = s.Tree(ctx, res.Horses["Bob"].ID, 0)
	wantKind(t, err, model.ErrInvalidInput)

	_, err = s.Tree(ctx, 0, 1)
	wantKind(t, err, model.ErrInvalidInput)
}

func testDeleteDetach(t *testing.T, open Opener) {
	s, res := seeded(t, open, store.DeleteDetach)
	ctx := context.Background()
	bob, alice := res.Horses["Bob"], res.Horses["Alice"]

	if err := s.DeleteHorse(ctx, alice.ID); err != nil {
		t.Fatalf("DeleteHorse: %v", err)
	}
	tree, err := s.Tree(ctx, bob.ID, 3)
	if err != nil {
		t.Fatal(err)
	}
	if tree.Contains(alice.ID) {
		t.Error("deleted horse still in tree")
	}
	if tree.Mother != nil {
		t.Errorf("mother = %+v, want nil", tree.Mother)
	}
	if tree.Father == nil {
		t.Error("father should be untouched")
	}

	_, err = s.GetHorse(ctx, alice.ID)
	wantKind(t, err, model.ErrNotFound)

	got, err := s.GetHorse(ctx, bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.MotherID != nil {
		t.Errorf("MotherID = %d, want nil", *got.MotherID)
	}
}

func testDeleteRestrict(t *testing.T, open Opener) {
	s, res := seeded(t, open, store.DeleteRestrict)
	ctx := context.Background()

	err := s.DeleteHorse(ctx, res.Horses["Alice"].ID)
	wantKind(t, err, model.ErrConflict)

	if _, err := s.GetHorse(ctx, res.Horses["Alice"].ID); err != nil {
		t.Errorf("conflicting delete removed the horse: %v", err)
	}
	if err := s.DeleteHorse(ctx, res.Horses["Bob"].ID); err != nil {
		t.Errorf("deleting a leaf: %v", err)
	}
}

func testDeleteMissing(t *testing.T, open Opener) {
	s, _ := seeded(t, open, store.DeleteDetach)
	wantKind(t, s.DeleteHorse(context.Background(), 424242), model.ErrNotFound)
}

func testCreateValidation(t *testing.T, open Opener) {
	s, res := seeded(t, open, store.DeleteDetach)
	ctx := context.Background()
	born := model.NewDate(2020, time.January, 1)

	_, err := s.CreateHorse(ctx, model.Horse{Name: "", Sex: model.SexMale, DateOfBirth: born})
	wantKind(t, err, model.ErrInvalidInput)

	_, err = s.CreateHorse(ctx, model.Horse{Name: "Wrong", Sex: model.SexMale, DateOfBirth: born,
		FatherID: model.Ref(res.Horses["Alice"].ID)})
	wantKind(t, err, model.ErrConflict)

	_, err = s.CreateHorse(ctx, model.Horse{Name: "Orphan", Sex: model.SexMale, DateOfBirth: born,
		MotherID: model.Ref(777777)})
	wantKind(t, err, model.ErrNotFound)

	_, err = s.CreateHorse(ctx, model.Horse{Name: "Lost", Sex: model.SexMale, DateOfBirth: born,
		OwnerID: model.Ref(777777)})
	wantKind(t, err, model.ErrNotFound)

	created, err := s.CreateHorse(ctx, model.Horse{Name: "Foal", Sex: model.SexFemale, DateOfBirth: born,
		FatherID: model.Ref(res.Horses["Bob"].ID)})
	if err != nil {
		t.Fatalf("CreateHorse: %v", err)
	}
	if created.ID == 0 {
		t.Error("created horse has no id")
	}
	tree, err := s.Tree(ctx, created.ID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if tree.Father == nil || tree.Father.ID != res.Horses["Bob"].ID || tree.Mother != nil {
		t.Errorf("tree = %+v", tree)
	}
}

func testUpdate(t *testing.T, open Opener) {
	s, res := seeded(t, open, store.DeleteDetach)
	ctx := context.Background()

	bob := res.Horses["Bob"]
	bob.Description = "Retired."
	updated, err := s.UpdateHorse(ctx, bob)
	if err != nil {
		t.Fatalf("UpdateHorse: %v", err)
	}
	got, err := s.GetHorse(ctx, bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Description != "Retired." || updated.Description != "Retired." {
		t.Errorf("description = %q", got.Description)
	}

	alice := res.Horses["Alice"]
	alice.Sex = model.SexMale
	_, err = s.UpdateHorse(ctx, alice)
	wantKind(t, err, model.ErrConflict)

	self := res.Horses["Bob"]
	self.FatherID = model.Ref(self.ID)
	_, err = s.UpdateHorse(ctx, self)
	wantKind(t, err, model.ErrConflict)

	ghost := res.Horses["Bob"]
	ghost.ID = 555555
	_, err = s.UpdateHorse(ctx, ghost)
	wantKind(t, err, model.ErrNotFound)

	// a stallion born the same day cannot be the father
	twin, err := s.CreateHorse(ctx, model.Horse{Name: "Twin", Sex: model.SexMale, DateOfBirth: bob.DateOfBirth})
	if err != nil {
		t.Fatal(err)
	}
	sameDay := res.Horses["Bob"]
	sameDay.FatherID = model.Ref(twin.ID)
	_, err = s.UpdateHorse(ctx, sameDay)
	wantKind(t, err, model.ErrConflict)
}

func testSearchHorses(t *testing.T, open Opener) {
	s, _ := seeded(t, open, store.DeleteDetach)
	ctx := context.Background()

	names := func(hs []model.Horse) map[string]bool {
		m := make(map[string]bool, len(hs))
		for _, h := range hs {
			m[h.Name] = true
		}
		return m
	}

	all, err := s.SearchHorses(ctx, model.HorseSearch{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 7 {
		t.Errorf("all = %d horses, want 7", len(all))
	}

	got, err := s.SearchHorses(ctx, model.HorseSearch{Name: "STORM"})
	if err != nil {
		t.Fatal(err)
	}
	if n := names(got); len(n) != 1 || !n["Storm Warden"] {
		t.Errorf("name search = %v", n)
	}

	before := model.NewDate(2006, time.January, 1)
	got, err = s.SearchHorses(ctx, model.HorseSearch{BornBefore: &before, Sex: model.SexFemale})
	if err != nil {
		t.Fatal(err)
	}
	if n := names(got); len(n) != 1 || !n["Silver Fern"] {
		t.Errorf("bornBefore+sex search = %v", n)
	}

	got, err = s.SearchHorses(ctx, model.HorseSearch{OwnerName: "huber"})
	if err != nil {
		t.Fatal(err)
	}
	if n := names(got); len(n) != 3 || !n["Alice"] || !n["Bob"] || !n["Moonlit Bay"] {
		t.Errorf("owner search = %v", n)
	}

	got, err = s.SearchHorses(ctx, model.HorseSearch{Description: "mare"})
	if err != nil {
		t.Fatal(err)
	}
	if n := names(got); len(n) != 1 || !n["Alice"] {
		t.Errorf("description search = %v", n)
	}

	got, err = s.SearchHorses(ctx, model.HorseSearch{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("limit = %d horses, want 2", len(got))
	}
}

func testOwners(t *testing.T, open Opener) {
	s, _ := seeded(t, open, store.DeleteDetach)
	ctx := context.Background()

	got, err := s.SearchOwners(ctx, "anna hu", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Email != "anna.huber@example.org" {
		t.Errorf("owners = %+v", got)
	}

	_, err = s.CreateOwner(ctx, model.Owner{FirstName: "No", LastName: "Mail", Email: "nope"})
	wantKind(t, err, model.ErrInvalidInput)

	created, err := s.CreateOwner(ctx, model.Owner{FirstName: "Greta", LastName: "Vogel"})
	if err != nil {
		t.Fatalf("CreateOwner: %v", err)
	}
	if created.ID == 0 {
		t.Error("created owner has no id")
	}
	all, err := s.SearchOwners(ctx, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("owners = %d, want 3", len(all))
	}
}
