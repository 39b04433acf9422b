package ui

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vanderheijden86/pedigree/pkg/model"
	"github.com/vanderheijden86/pedigree/pkg/store"
)

type treeCall struct {
	id          int64
	generations int
}

// fakeStore is an in-memory RecordStore that records every tree and delete
// call. Trees are assembled with the same code the real stores use.
type fakeStore struct {
	mu          sync.Mutex
	horses      map[int64]model.Horse
	owners      []model.Owner
	nextID      int64
	treeCalls   []treeCall
	deleteCalls []int64
	deleteErr   map[int64]error
	treeErr     error
	searches    []model.HorseSearch
	created     []model.Horse
}

func newFakeStore(horses ...model.Horse) *fakeStore {
	f := &fakeStore{horses: make(map[int64]model.Horse), deleteErr: make(map[int64]error), nextID: 100}
	for _, h := range horses {
		f.horses[h.ID] = h
	}
	return f
}

func (f *fakeStore) Tree(ctx context.Context, id int64, generations int) (*model.TreeNode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.treeCalls = append(f.treeCalls, treeCall{id, generations})
	if err := ctx.Err(); err != nil {
		return nil, model.Wrap("tree", id, model.ErrTransport, err)
	}
	if f.treeErr != nil {
		return nil, f.treeErr
	}
	if _, ok := f.horses[id]; !ok {
		return nil, store.NotFound("tree", id, "horse")
	}
	rows := make([]model.Horse, 0, len(f.horses))
	for _, h := range f.horses {
		rows = append(rows, h)
	}
	return store.AssembleTree(id, rows, generations)
}

func (f *fakeStore) DeleteHorse(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls = append(f.deleteCalls, id)
	if err := ctx.Err(); err != nil {
		return model.Wrap("delete horse", id, model.ErrTransport, err)
	}
	if err := f.deleteErr[id]; err != nil {
		return err
	}
	if _, ok := f.horses[id]; !ok {
		return store.NotFound("delete horse", id, "horse")
	}
	delete(f.horses, id)
	for cid, h := range f.horses {
		if h.FatherID != nil && *h.FatherID == id {
			h.FatherID = nil
		}
		if h.MotherID != nil && *h.MotherID == id {
			h.MotherID = nil
		}
		f.horses[cid] = h
	}
	return nil
}

func (f *fakeStore) GetHorse(ctx context.Context, id int64) (model.Horse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.horses[id]
	if !ok {
		return model.Horse{}, store.NotFound("get horse", id, "horse")
	}
	return h, nil
}

func (f *fakeStore) SearchHorses(ctx context.Context, s model.HorseSearch) ([]model.Horse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, s)
	var out []model.Horse
	for _, h := range f.horses {
		if s.Name != "" && !strings.Contains(strings.ToLower(h.Name), strings.ToLower(s.Name)) {
			continue
		}
		if s.Sex != "" && h.Sex != s.Sex {
			continue
		}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) CreateHorse(ctx context.Context, h model.Horse) (model.Horse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := h.Validate(time.Now()); err != nil {
		return model.Horse{}, err
	}
	f.nextID++
	h.ID = f.nextID
	f.horses[h.ID] = h
	f.created = append(f.created, h)
	return h, nil
}

func (f *fakeStore) UpdateHorse(ctx context.Context, h model.Horse) (model.Horse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.horses[h.ID]; !ok {
		return model.Horse{}, store.NotFound("update horse", h.ID, "horse")
	}
	f.horses[h.ID] = h
	return h, nil
}

func (f *fakeStore) SearchOwners(ctx context.Context, name string, limit int) ([]model.Owner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Owner
	for _, o := range f.owners {
		if strings.Contains(strings.ToLower(o.FullName()), strings.ToLower(name)) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateOwner(ctx context.Context, o model.Owner) (model.Owner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	o.ID = f.nextID
	f.owners = append(f.owners, o)
	return o, nil
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) treeCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.treeCalls)
}

func (f *fakeStore) lastTreeCall() treeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.treeCalls) == 0 {
		return treeCall{}
	}
	return f.treeCalls[len(f.treeCalls)-1]
}

// aliceAndBob is the pedigree from the classic example: Alice (42) whose
// father Bob (10) has no recorded parents and whose mother is unknown.
func aliceAndBob() *fakeStore {
	return newFakeStore(
		model.Horse{ID: 42, Name: "Alice", Sex: model.SexFemale, DateOfBirth: model.NewDate(2010, time.January, 1), FatherID: model.Ref(10)},
		model.Horse{ID: 10, Name: "Bob", Sex: model.SexMale, DateOfBirth: model.NewDate(2001, time.March, 3)},
	)
}

// threeGenerations has a full grandparent line on the sire side.
func threeGenerations() *fakeStore {
	return newFakeStore(
		model.Horse{ID: 1, Name: "Foal", Sex: model.SexMale, DateOfBirth: model.NewDate(2020, time.April, 1), FatherID: model.Ref(2), MotherID: model.Ref(3)},
		model.Horse{ID: 2, Name: "Sire", Sex: model.SexMale, DateOfBirth: model.NewDate(2010, time.April, 1), FatherID: model.Ref(4), MotherID: model.Ref(5)},
		model.Horse{ID: 3, Name: "Dam", Sex: model.SexFemale, DateOfBirth: model.NewDate(2011, time.April, 1)},
		model.Horse{ID: 4, Name: "Grandsire", Sex: model.SexMale, DateOfBirth: model.NewDate(2000, time.April, 1)},
		model.Horse{ID: 5, Name: "Granddam", Sex: model.SexFemale, DateOfBirth: model.NewDate(2001, time.April, 1)},
	)
}
