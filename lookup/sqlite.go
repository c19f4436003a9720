package lookup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/hashicorp/go-multierror"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/hupe1980/minsketch/model"
)

// DriverName is the database/sql driver used by SQLite.
const DriverName = "sqlite"

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ErrInvalidIdentifier is returned for table or column names that are not
// plain SQL identifiers.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// SQLiteConfig names the table and columns holding the lookup.
type SQLiteConfig struct {
	Table       string
	KeyColumn   string
	ValueColumn string
}

func (c SQLiteConfig) validate() error {
	for _, id := range []string{c.Table, c.KeyColumn, c.ValueColumn} {
		if !identRe.MatchString(id) {
			return fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
		}
	}
	return nil
}

// SQLite looks keys up in a SQLite table one query at a time.
//
// The Resolver and Vocabulary methods cannot return errors; the first query
// failure is kept and reported by Err.
type SQLite struct {
	db     *sql.DB
	lookup *sql.Stmt
	all    string

	mu  sync.Mutex
	err error
}

// OpenSQLite opens the database at path read-only.
func OpenSQLite(ctx context.Context, path string, cfg SQLiteConfig) (*SQLite, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open(DriverName, "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("lookup: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("lookup: open %s: %w", path, err)
	}

	q := fmt.Sprintf(`SELECT "%s" FROM "%s" WHERE "%s" = ?`, cfg.ValueColumn, cfg.Table, cfg.KeyColumn)
	stmt, err := db.PrepareContext(ctx, q)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("lookup: prepare: %w", err)
	}

	return &SQLite{
		db:     db,
		lookup: stmt,
		all:    fmt.Sprintf(`SELECT "%s", "%s" FROM "%s"`, cfg.KeyColumn, cfg.ValueColumn, cfg.Table),
	}, nil
}

// Lookup returns the value stored for key.
func (s *SQLite) Lookup(ctx context.Context, key int64) (string, bool, error) {
	var v string
	err := s.lookup.QueryRowContext(ctx, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// DocumentID implements minsketch.Resolver.
func (s *SQLite) DocumentID(key model.DocumentKey) (string, bool) {
	return s.get(int64(key))
}

// Token implements minhash.Vocabulary.
func (s *SQLite) Token(id model.TokenID) (string, bool) {
	return s.get(int64(id))
}

func (s *SQLite) get(key int64) (string, bool) {
	v, ok, err := s.Lookup(context.Background(), key)
	if err != nil {
		s.mu.Lock()
		if s.err == nil {
			s.err = err
		}
		s.mu.Unlock()
	}
	return v, ok
}

// Err returns the first error hit by DocumentID or Token.
func (s *SQLite) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Load reads the whole table into memory.
func (s *SQLite) Load(ctx context.Context) (Map, error) {
	rows, err := s.db.QueryContext(ctx, s.all)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	m := make(Map)
	for rows.Next() {
		var (
			k int64
			v string
		)
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		m[k] = v
	}
	return m, rows.Err()
}

// Close releases the statement and the database.
func (s *SQLite) Close() error {
	return multierror.Append(nil, s.lookup.Close(), s.db.Close()).ErrorOrNil()
}

// WriteSQLite creates the table described by cfg in the database at path
// and stores m in it.
func WriteSQLite(ctx context.Context, path string, cfg SQLiteConfig, m Map) error {
	if err := cfg.validate(); err != nil {
		return err
	}

	db, err := sql.Open(DriverName, path)
	if err != nil {
		return fmt.Errorf("lookup: open %s: %w", path, err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	create := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS "%s" ("%s" INTEGER PRIMARY KEY, "%s" TEXT NOT NULL)`,
		cfg.Table, cfg.KeyColumn, cfg.ValueColumn)
	if _, err := db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("lookup: create table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT OR REPLACE INTO "%s" ("%s", "%s") VALUES (?, ?)`,
		cfg.Table, cfg.KeyColumn, cfg.ValueColumn))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for k, v := range m {
		if _, err := stmt.ExecContext(ctx, k, v); err != nil {
			return fmt.Errorf("lookup: insert %d: %w", k, err)
		}
	}
	return tx.Commit()
}
