package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no site is registered for a tenant key.
// It is an expected state (unregistered subdomain), not a fault.
var ErrNotFound = errors.New("site not found")

// SQLiteDirectory is a read-mostly Directory backed by sites.db.
type SQLiteDirectory struct {
	db *sqlx.DB
}

var _ Directory = (*SQLiteDirectory)(nil)

// OpenDirectory opens the sites database and ensures the schema exists.
func OpenDirectory(path string) (*SQLiteDirectory, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sites database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	d := &SQLiteDirectory{db: db}
	if err := d.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return d, nil
}

func (d *SQLiteDirectory) initSchema() error {
	_, err := d.db.Exec(`CREATE TABLE IF NOT EXISTS sites (
		subdomain TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		state TEXT NOT NULL,
		last_updated TEXT NOT NULL
	)`)
	return err
}

// Lookup returns the site for a tenant key, ErrNotFound when the key is
// unregistered, or the underlying error when the database itself fails.
func (d *SQLiteDirectory) Lookup(ctx context.Context, key string) (*Site, error) {
	var s Site
	err := d.db.GetContext(ctx, &s,
		`SELECT subdomain, name, state, last_updated FROM sites WHERE subdomain = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sites lookup: %w", err)
	}
	return &s, nil
}

// Upsert inserts or replaces a site record. Used by sitectl; the gateway
// itself never writes.
func (d *SQLiteDirectory) Upsert(ctx context.Context, s *Site) error {
	_, err := d.db.NamedExecContext(ctx,
		`INSERT INTO sites (subdomain, name, state, last_updated)
		 VALUES (:subdomain, :name, :state, :last_updated)
		 ON CONFLICT(subdomain) DO UPDATE SET
		   name = excluded.name,
		   state = excluded.state,
		   last_updated = excluded.last_updated`, s)
	if err != nil {
		return fmt.Errorf("sites upsert: %w", err)
	}
	return nil
}

// All returns every registered site ordered by subdomain.
func (d *SQLiteDirectory) All(ctx context.Context) ([]Site, error) {
	var sites []Site
	if err := d.db.SelectContext(ctx, &sites,
		`SELECT subdomain, name, state, last_updated FROM sites ORDER BY subdomain`); err != nil {
		return nil, fmt.Errorf("sites list: %w", err)
	}
	return sites, nil
}

func (d *SQLiteDirectory) Close() error {
	return d.db.Close()
}
