// Package postgres opens a RecordStore on PostgreSQL through the pgx
// database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"github.com/vanderheijden86/pedigree/pkg/model"
	"github.com/vanderheijden86/pedigree/pkg/store/sqlstore"
)

// DefaultDSN is used when no DSN is configured.
const DefaultDSN = "postgres://localhost/pedigree?sslmode=disable"

// Open connects to dsn, applies the schema and returns the store.
func Open(ctx context.Context, dsn string, opts sqlstore.Options) (*sqlstore.Store, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s, err := sqlstore.New(ctx, db, Dialect{}, opts)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Dialect is the PostgreSQL flavour of sqlstore.Dialect.
type Dialect struct{}

var _ sqlstore.Dialect = Dialect{}

func (Dialect) Name() string { return "postgres" }

func (Dialect) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS owner (
			id BIGSERIAL PRIMARY KEY,
			first_name VARCHAR(255) NOT NULL,
			last_name VARCHAR(255) NOT NULL,
			email VARCHAR(255)
		)`,
		`CREATE TABLE IF NOT EXISTS horse (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description VARCHAR(4095),
			date_of_birth DATE NOT NULL,
			sex VARCHAR(6) NOT NULL CHECK (sex IN ('FEMALE', 'MALE')),
			owner_id BIGINT REFERENCES owner(id),
			father_id BIGINT REFERENCES horse(id),
			mother_id BIGINT REFERENCES horse(id)
		)`,
		`CREATE INDEX IF NOT EXISTS horse_father_idx ON horse(father_id)`,
		`CREATE INDEX IF NOT EXISTS horse_mother_idx ON horse(mother_id)`,
	}
}

// Rebind turns each '?' into $1, $2, ...
func (Dialect) Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (Dialect) DateArg(d model.Date) any { return d.Time }

// IsConstraint matches the integrity constraint violation class (23xxx).
func (Dialect) IsConstraint(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return strings.HasPrefix(pgErr.Code, "23")
}
