// Package store defines the record store contract shared by the sqlite,
// postgres and remote HTTP implementations.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/vanderheijden86/pedigree/pkg/model"
)

// RecordStore is the backing store for horses and owners. Every failure is
// classified with one of the model.Err* kinds.
type RecordStore interface {
	// Tree returns the horse with the given id and its ancestors, at most
	// generations levels deep counting the root.
	Tree(ctx context.Context, id int64, generations int) (*model.TreeNode, error)
	DeleteHorse(ctx context.Context, id int64) error
	GetHorse(ctx context.Context, id int64) (model.Horse, error)
	SearchHorses(ctx context.Context, search model.HorseSearch) ([]model.Horse, error)
	CreateHorse(ctx context.Context, h model.Horse) (model.Horse, error)
	UpdateHorse(ctx context.Context, h model.Horse) (model.Horse, error)
	SearchOwners(ctx context.Context, name string, limit int) ([]model.Owner, error)
	CreateOwner(ctx context.Context, o model.Owner) (model.Owner, error)
	Close() error
}

// DeletePolicy decides what happens to the offspring of a deleted horse.
type DeletePolicy string

const (
	// DeleteDetach clears the parent reference of every child in the same
	// transaction as the delete.
	DeleteDetach DeletePolicy = "detach"
	// DeleteRestrict refuses to delete a horse that is a parent.
	DeleteRestrict DeletePolicy = "restrict"
)

// ParseDeletePolicy accepts "" as the default policy.
func ParseDeletePolicy(s string) (DeletePolicy, error) {
	switch DeletePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", DeleteDetach:
		return DeleteDetach, nil
	case DeleteRestrict:
		return DeleteRestrict, nil
	}
	return "", fmt.Errorf("unknown delete policy %q (want detach or restrict)", s)
}

// DefaultSearchLimit caps listings when the caller does not.
const DefaultSearchLimit = 100

// SearchLimit normalizes a caller-supplied limit.
func SearchLimit(limit int) int {
	if limit <= 0 || limit > DefaultSearchLimit {
		return DefaultSearchLimit
	}
	return limit
}

// HasChildrenMessage is reported when DeleteRestrict blocks a delete.
const HasChildrenMessage = "Horse is a parent of other horses"

// NotFound builds the classified error for a missing record.
func NotFound(op string, id int64, what string) error {
	return &model.Error{Op: op, ID: id, Kind: model.ErrNotFound,
		Messages: []string{fmt.Sprintf("Could not find %s with id %d", what, id)}}
}
