// Package sqlstore implements store.RecordStore on database/sql. The sqlite
// and postgres packages provide the dialects.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/vanderheijden86/pedigree/pkg/model"
	"github.com/vanderheijden86/pedigree/pkg/store"
)

// Dialect captures the differences between SQL engines.
type Dialect interface {
	Name() string
	// Schema returns the DDL statements, each safe to re-run.
	Schema() []string
	// Rebind rewrites '?' placeholders into the engine's form.
	Rebind(query string) string
	// DateArg converts a date into a bind argument for a DATE column.
	DateArg(d model.Date) any
	// IsConstraint reports whether err is a unique or foreign key violation.
	IsConstraint(err error) bool
}

// Options configures a Store.
type Options struct {
	DeletePolicy store.DeletePolicy
	// Now is used for birth date validation. Defaults to time.Now.
	Now func() time.Time
}

// Store is a RecordStore backed by a *sql.DB.
type Store struct {
	db      *sql.DB
	dialect Dialect
	policy  store.DeletePolicy
	now     func() time.Time
}

var _ store.RecordStore = (*Store)(nil)

// New applies the schema and returns a ready store. The store takes
// ownership of db.
func New(ctx context.Context, db *sql.DB, dialect Dialect, opts Options) (*Store, error) {
	for _, stmt := range dialect.Schema() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("apply %s schema: %w", dialect.Name(), err)
		}
	}
	if opts.DeletePolicy == "" {
		opts.DeletePolicy = store.DeleteDetach
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{db: db, dialect: dialect, policy: opts.DeletePolicy, now: opts.Now}, nil
}

// DB exposes the underlying handle for tests.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

const horseColumns = "id, name, description, date_of_birth, sex, owner_id, father_id, mother_id"

// ancestorsQuery walks father_id/mother_id up to a bounded number of levels.
// Generation 1 is the root itself.
const ancestorsQuery = `WITH RECURSIVE ancestors(id, father_id, mother_id, generation) AS (
	SELECT id, father_id, mother_id, 1 FROM horse WHERE id = ?
	UNION ALL
	SELECT h.id, h.father_id, h.mother_id, a.generation + 1
	FROM ancestors a JOIN horse h ON h.id = a.father_id OR h.id = a.mother_id
	WHERE a.generation < ?
)
SELECT ` + horseColumns + ` FROM horse WHERE id IN (SELECT id FROM ancestors)`

func (s *Store) q(query string) string {
	return s.dialect.Rebind(query)
}

// Tree implements store.RecordStore.
func (s *Store) Tree(ctx context.Context, id int64, generations int) (*model.TreeNode, error) {
	if err := model.ValidateTreeRequest(id, generations); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.q(ancestorsQuery), id, generations)
	if err != nil {
		return nil, model.Wrap("tree", id, model.ErrTransport, err)
	}
	horses, err := scanHorses(rows)
	if err != nil {
		return nil, model.Wrap("tree", id, model.ErrTransport, err)
	}
	if len(horses) == 0 {
		return nil, store.NotFound("tree", id, "horse")
	}
	tree, err := store.AssembleTree(id, horses, generations)
	if err != nil {
		return nil, model.Wrap("tree", id, model.ErrTransport, err)
	}
	return tree, nil
}

// GetHorse implements store.RecordStore.
func (s *Store) GetHorse(ctx context.Context, id int64) (model.Horse, error) {
	return s.getHorse(ctx, s.db, "get horse", id)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) getHorse(ctx context.Context, db queryer, op string, id int64) (model.Horse, error) {
	row := db.QueryRowContext(ctx, s.q("SELECT "+horseColumns+" FROM horse WHERE id = ?"), id)
	h, err := scanHorse(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Horse{}, store.NotFound(op, id, "horse")
	}
	if err != nil {
		return model.Horse{}, model.Wrap(op, id, model.ErrTransport, err)
	}
	return h, nil
}

// SearchHorses implements store.RecordStore.
func (s *Store) SearchHorses(ctx context.Context, search model.HorseSearch) ([]model.Horse, error) {
	var (
		where []string
		args  []any
	)
	like := func(v string) string { return "%" + strings.ToLower(v) + "%" }
	if search.Name != "" {
		where = append(where, "LOWER(name) LIKE ?")
		args = append(args, like(search.Name))
	}
	if search.Description != "" {
		where = append(where, "LOWER(description) LIKE ?")
		args = append(args, like(search.Description))
	}
	if search.Sex != "" {
		where = append(where, "sex = ?")
		args = append(args, sexValue(search.Sex))
	}
	if search.BornBefore != nil {
		where = append(where, "date_of_birth < ?")
		args = append(args, s.dialect.DateArg(*search.BornBefore))
	}
	if search.OwnerName != "" {
		where = append(where, "owner_id IN (SELECT id FROM owner WHERE LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?)")
		args = append(args, like(search.OwnerName), like(search.OwnerName))
	}

	query := "SELECT " + horseColumns + " FROM horse"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id LIMIT ?"
	args = append(args, store.SearchLimit(search.Limit))

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, model.Wrap("search horses", 0, model.ErrTransport, err)
	}
	horses, err := scanHorses(rows)
	if err != nil {
		return nil, model.Wrap("search horses", 0, model.ErrTransport, err)
	}
	return horses, nil
}

// CreateHorse implements store.RecordStore.
func (s *Store) CreateHorse(ctx context.Context, h model.Horse) (model.Horse, error) {
	const op = "create horse"
	h.ID = 0
	if err := h.Validate(s.now()); err != nil {
		return model.Horse{}, err
	}
	if err := s.checkReferences(ctx, s.db, op, h); err != nil {
		return model.Horse{}, err
	}

	var id int64
	err := s.db.QueryRowContext(ctx, s.q(`INSERT INTO horse
		(name, description, date_of_birth, sex, owner_id, father_id, mother_id)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		h.Name, nullString(h.Description), s.dialect.DateArg(h.DateOfBirth), sexValue(h.Sex),
		nullID(h.OwnerID), nullID(h.FatherID), nullID(h.MotherID),
	).Scan(&id)
	if err != nil {
		return model.Horse{}, s.classify(op, 0, err)
	}
	h.ID = id
	return h, nil
}

// UpdateHorse implements store.RecordStore.
func (s *Store) UpdateHorse(ctx context.Context, h model.Horse) (model.Horse, error) {
	const op = "update horse"
	if h.ID <= 0 {
		return model.Horse{}, model.Newf(op, model.ErrInvalidInput, "No ID given")
	}
	if err := h.Validate(s.now()); err != nil {
		return model.Horse{}, err
	}

	err := s.inTx(ctx, op, h.ID, func(tx *sql.Tx) error {
		old, err := s.getHorse(ctx, tx, op, h.ID)
		if err != nil {
			return err
		}
		if err := s.checkReferences(ctx, tx, op, h); err != nil {
			return err
		}
		hasChildren, err := s.isParent(ctx, tx, h.ID)
		if err != nil {
			return model.Wrap(op, h.ID, model.ErrTransport, err)
		}
		if err := model.ValidateSexChange(old, h, hasChildren); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, s.q(`UPDATE horse SET name = ?, description = ?, date_of_birth = ?,
			sex = ?, owner_id = ?, father_id = ?, mother_id = ? WHERE id = ?`),
			h.Name, nullString(h.Description), s.dialect.DateArg(h.DateOfBirth), sexValue(h.Sex),
			nullID(h.OwnerID), nullID(h.FatherID), nullID(h.MotherID), h.ID)
		if err != nil {
			return s.classify(op, h.ID, err)
		}
		return nil
	})
	if err != nil {
		return model.Horse{}, err
	}
	return h, nil
}

// DeleteHorse implements store.RecordStore. Offspring of the deleted horse
// are handled according to the store's delete policy.
func (s *Store) DeleteHorse(ctx context.Context, id int64) error {
	const op = "delete horse"
	if id <= 0 {
		return model.Newf(op, model.ErrInvalidInput, "No valid ID given")
	}
	return s.inTx(ctx, op, id, func(tx *sql.Tx) error {
		if _, err := s.getHorse(ctx, tx, op, id); err != nil {
			return err
		}
		switch s.policy {
		case store.DeleteRestrict:
			parent, err := s.isParent(ctx, tx, id)
			if err != nil {
				return model.Wrap(op, id, model.ErrTransport, err)
			}
			if parent {
				return &model.Error{Op: op, ID: id, Kind: model.ErrConflict, Messages: []string{store.HasChildrenMessage}}
			}
		default:
			for _, col := range []string{"father_id", "mother_id"} {
				if _, err := tx.ExecContext(ctx, s.q("UPDATE horse SET "+col+" = NULL WHERE "+col+" = ?"), id); err != nil {
					return s.classify(op, id, err)
				}
			}
		}
		res, err := tx.ExecContext(ctx, s.q("DELETE FROM horse WHERE id = ?"), id)
		if err != nil {
			return s.classify(op, id, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return store.NotFound(op, id, "horse")
		}
		return nil
	})
}

// SearchOwners implements store.RecordStore. name matches "first last".
func (s *Store) SearchOwners(ctx context.Context, name string, limit int) ([]model.Owner, error) {
	query := "SELECT id, first_name, last_name, email FROM owner"
	var args []any
	if name != "" {
		query += " WHERE LOWER(first_name || ' ' || last_name) LIKE ?"
		args = append(args, "%"+strings.ToLower(name)+"%")
	}
	query += " ORDER BY id LIMIT ?"
	args = append(args, store.SearchLimit(limit))

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, model.Wrap("search owners", 0, model.ErrTransport, err)
	}
	defer func() { _ = rows.Close() }()

	var owners []model.Owner
	for rows.Next() {
		var (
			o     model.Owner
			email sql.NullString
		)
		if err := rows.Scan(&o.ID, &o.FirstName, &o.LastName, &email); err != nil {
			return nil, model.Wrap("search owners", 0, model.ErrTransport, err)
		}
		o.Email = email.String
		owners = append(owners, o)
	}
	if err := rows.Err(); err != nil {
		return nil, model.Wrap("search owners", 0, model.ErrTransport, err)
	}
	return owners, nil
}

// CreateOwner implements store.RecordStore.
func (s *Store) CreateOwner(ctx context.Context, o model.Owner) (model.Owner, error) {
	o.ID = 0
	if err := o.Validate(); err != nil {
		return model.Owner{}, err
	}
	err := s.db.QueryRowContext(ctx,
		s.q("INSERT INTO owner (first_name, last_name, email) VALUES (?, ?, ?) RETURNING id"),
		o.FirstName, o.LastName, nullString(o.Email),
	).Scan(&o.ID)
	if err != nil {
		return model.Owner{}, s.classify("create owner", 0, err)
	}
	return o, nil
}

// checkReferences loads the owner and parents referenced by h and checks
// the parent constellation.
func (s *Store) checkReferences(ctx context.Context, db queryer, op string, h model.Horse) error {
	if h.OwnerID != nil {
		var exists bool
		err := db.QueryRowContext(ctx, s.q("SELECT EXISTS (SELECT 1 FROM owner WHERE id = ?)"), *h.OwnerID).Scan(&exists)
		if err != nil {
			return model.Wrap(op, h.ID, model.ErrTransport, err)
		}
		if !exists {
			return store.NotFound(op, *h.OwnerID, "owner")
		}
	}
	var father, mother *model.Horse
	for _, ref := range []struct {
		id   *int64
		dest **model.Horse
	}{{h.FatherID, &father}, {h.MotherID, &mother}} {
		if ref.id == nil {
			continue
		}
		parent, err := s.getHorse(ctx, db, op, *ref.id)
		if err != nil {
			return err
		}
		*ref.dest = &parent
	}
	return model.ValidateParents(h, father, mother)
}

func (s *Store) isParent(ctx context.Context, db queryer, id int64) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx,
		s.q("SELECT EXISTS (SELECT 1 FROM horse WHERE father_id = ? OR mother_id = ?)"), id, id,
	).Scan(&exists)
	return exists, err
}

func (s *Store) inTx(ctx context.Context, op string, id int64, fn func(tx *sql.Tx) error) (retErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Wrap(op, id, model.ErrTransport, err)
	}
	defer func() {
		if retErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				log.Printf("warning: %s %d: rollback failed: %v", op, id, rbErr)
			}
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return s.classify(op, id, err)
	}
	return nil
}

func (s *Store) classify(op string, id int64, err error) error {
	if s.dialect.IsConstraint(err) {
		return &model.Error{Op: op, ID: id, Kind: model.ErrConflict,
			Messages: []string{"The change violates a data constraint"}, Err: err}
	}
	return model.Wrap(op, id, model.ErrTransport, err)
}
