package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// ChangeDetector reports commits made through other connections to the
// database, such as another pv process. It relies on PRAGMA data_version,
// which is per connection and ignores the connection's own commits, so the
// store must run on a single connection (Open configures that).
type ChangeDetector struct {
	db *sql.DB

	mu   sync.Mutex
	last int64
}

// NewChangeDetector records the current data version of db.
func NewChangeDetector(ctx context.Context, db *sql.DB) (*ChangeDetector, error) {
	d := &ChangeDetector{db: db}
	v, err := d.version(ctx)
	if err != nil {
		return nil, err
	}
	d.last = v
	return d, nil
}

// Changed reports whether another connection committed since the last call.
func (d *ChangeDetector) Changed(ctx context.Context) (bool, error) {
	v, err := d.version(ctx)
	if err != nil {
		return false, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	changed := v != d.last
	d.last = v
	return changed, nil
}

func (d *ChangeDetector) version(ctx context.Context) (int64, error) {
	var v int64
	if err := d.db.QueryRowContext(ctx, "PRAGMA data_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read data_version: %w", err)
	}
	return v, nil
}
