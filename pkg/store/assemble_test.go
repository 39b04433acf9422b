package store

import (
	"errors"
	"strings"
	"testing"

	"github.com/vanderheijden86/pedigree/pkg/model"
	"pgregory.net/rapid"
)

func horse(id int64, sex model.Sex, father, mother int64) model.Horse {
	h := model.Horse{ID: id, Name: "h", Sex: sex}
	if father != 0 {
		h.FatherID = model.Ref(father)
	}
	if mother != 0 {
		h.MotherID = model.Ref(mother)
	}
	return h
}

func TestAssembleTree_CutsOffAtGenerations(t *testing.T) {
	rows := []model.Horse{
		horse(4, model.SexMale, 0, 0),
		horse(1, model.SexMale, 2, 3),
		horse(2, model.SexMale, 4, 0),
		horse(3, model.SexFemale, 0, 0),
	}
	tree, err := AssembleTree(1, rows, 2)
	if err != nil {
		t.Fatal(err)
	}
	if tree.Depth() != 2 {
		t.Errorf("Depth = %d, want 2", tree.Depth())
	}
	if tree.Father.ID != 2 || tree.Mother.ID != 3 {
		t.Errorf("parents = %d, %d", tree.Father.ID, tree.Mother.ID)
	}
	if tree.Father.Father != nil {
		t.Error("grandfather should be cut off")
	}
}

func TestAssembleTree_MissingParentIsAbsent(t *testing.T) {
	tree, err := AssembleTree(1, []model.Horse{horse(1, model.SexMale, 2, 3)}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if !tree.IsLeaf() {
		t.Error("parents not in rows should be absent")
	}
}

func TestAssembleTree_BreaksCycles(t *testing.T) {
	rows := []model.Horse{
		horse(1, model.SexMale, 2, 0),
		horse(2, model.SexMale, 1, 0),
	}
	tree, err := AssembleTree(1, rows, 10)
	if err != nil {
		t.Fatal(err)
	}
	if got := tree.Count(); got != 2 {
		t.Errorf("Count = %d, want 2", got)
	}
}

func TestAssembleTree_PedigreeCollapse(t *testing.T) {
	// 2 and 3 share sire 4.
	rows := []model.Horse{
		horse(1, model.SexMale, 2, 3),
		horse(2, model.SexMale, 4, 0),
		horse(3, model.SexFemale, 4, 0),
		horse(4, model.SexMale, 0, 0),
		horse(4, model.SexMale, 0, 0),
	}
	tree, err := AssembleTree(1, rows, 3)
	if err != nil {
		t.Fatal(err)
	}
	if tree.Father.Father.ID != 4 || tree.Mother.Father.ID != 4 {
		t.Error("shared ancestor should appear on both lines")
	}
	if tree.Father.Father == tree.Mother.Father {
		t.Error("shared ancestor nodes should be distinct values")
	}
}

func TestAssembleTree_Errors(t *testing.T) {
	if _, err := AssembleTree(1, nil, 0); err == nil {
		t.Error("expected error for generations 0")
	}
	_, err := AssembleTree(9, []model.Horse{horse(1, model.SexMale, 0, 0)}, 1)
	if err == nil || !strings.Contains(err.Error(), "root 9") {
		t.Errorf("err = %v", err)
	}
}

func TestAssembleTree_DepthNeverExceedsGenerations(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 40).Draw(t, "horses")
		rows := make([]model.Horse, n)
		for i := range rows {
			id := int64(i + 1)
			pick := func(label string) int64 {
				// any id including self, unknown ids and 0 (none)
				return rapid.Int64Range(0, int64(n)+2).Draw(t, label)
			}
			rows[i] = horse(id, model.SexMale, pick("father"), pick("mother"))
		}
		generations := rapid.IntRange(1, 8).Draw(t, "generations")

		tree, err := AssembleTree(1, rows, generations)
		if err != nil {
			t.Fatal(err)
		}
		if tree.ID != 1 {
			t.Fatalf("root id = %d", tree.ID)
		}
		if tree.Depth() > generations {
			t.Fatalf("depth %d > generations %d", tree.Depth(), generations)
		}
		// a node never repeats on its own path
		var check func(node *model.TreeNode, path map[int64]bool)
		check = func(node *model.TreeNode, path map[int64]bool) {
			if node == nil {
				return
			}
			if path[node.ID] {
				t.Fatalf("id %d repeats on its own path", node.ID)
			}
			path[node.ID] = true
			check(node.Father, path)
			check(node.Mother, path)
			delete(path, node.ID)
		}
		check(tree, map[int64]bool{})
	})
}

func TestParseDeletePolicy(t *testing.T) {
	for in, want := range map[string]DeletePolicy{"": DeleteDetach, "detach": DeleteDetach, "RESTRICT": DeleteRestrict} {
		got, err := ParseDeletePolicy(in)
		if err != nil || got != want {
			t.Errorf("ParseDeletePolicy(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseDeletePolicy("cascade"); err == nil {
		t.Error("expected error for cascade")
	}
}

func TestNotFound(t *testing.T) {
	err := NotFound("get horse", 3, "horse")
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
	if msgs := model.MessagesOf(err); len(msgs) != 1 || msgs[0] != "Could not find horse with id 3" {
		t.Errorf("messages = %v", msgs)
	}
}

func TestSearchLimit(t *testing.T) {
	if SearchLimit(0) != DefaultSearchLimit || SearchLimit(1000) != DefaultSearchLimit || SearchLimit(5) != 5 {
		t.Error("SearchLimit mismatch")
	}
}
