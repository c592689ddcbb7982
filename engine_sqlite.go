package main

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// artifactTable is the fixed name tables carry inside engine artifacts, so
// access operations need no catalog knowledge.
const artifactTable = "data"

// EngineSQLite benchmarks SQLite's native storage format as one engine
// variant. It doubles as the campaign baseline.
type EngineSQLite struct {
	Variant         string
	RequiredVersion string
}

func (e *EngineSQLite) Version() string { return e.Variant }

// Verify is the fatal precondition check before any measurement: numbers
// produced by a different library version are not comparable across
// campaigns.
func (e *EngineSQLite) Verify() error {
	version, _, _ := sqlite3.Version()
	if !strings.HasPrefix(version, e.RequiredVersion) {
		return fmt.Errorf("sqlite library version %v required, found %v", e.RequiredVersion, version)
	}
	Logger.Infof("engine %v verified, sqlite library %v", e.Variant, version)
	return nil
}

func (e *EngineSQLite) Compress(table *LiveTable, out string) (CompressOp, error) {
	return &sqliteCompress{source: table, out: out}, nil
}

func (e *EngineSQLite) FullScan(path string) Operation {
	return &sqliteScan{path: path, query: fmt.Sprintf("SELECT * FROM %v", artifactTable)}
}

func (e *EngineSQLite) RandomAccess(path string, offset int) Operation {
	return &sqliteScan{path: path, query: fmt.Sprintf("SELECT * FROM %v LIMIT 1 OFFSET %v", artifactTable, offset)}
}

type sqliteCompress struct {
	source *LiveTable
	out    string
}

func (c *sqliteCompress) Name() string { return fmt.Sprintf("compress %v into %v", c.source.Name, c.out) }

// Prepare starts from a clean slate: every repetition rebuilds the artifact
// from scratch, leftovers would shrink the measured work.
func (c *sqliteCompress) Prepare() (Session, error) {
	if err := os.Remove(c.out); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	db, err := sql.Open("sqlite3", c.out)
	if err != nil {
		return nil, err
	}
	// ATTACH is per-connection state.
	db.SetMaxOpenConns(1)
	return &sqliteCompressSession{db: db, source: c.source}, nil
}

func (c *sqliteCompress) FileSize() (int64, error) {
	stat, err := os.Stat(c.out)
	if err != nil {
		return 0, err
	}
	return stat.Size(), nil
}

func (c *sqliteCompress) Cleanup() error {
	if err := os.Remove(c.out); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

type sqliteCompressSession struct {
	db     *sql.DB
	source *LiveTable
}

func (s *sqliteCompressSession) Run() error {
	if _, err := s.db.Exec("ATTACH DATABASE ? AS source", s.source.Path); err != nil {
		return err
	}
	_, err := s.db.Exec(fmt.Sprintf(
		"CREATE TABLE %v AS SELECT * FROM source.%v", artifactTable, quoteIdent(s.source.Name),
	))
	if err != nil {
		return err
	}
	_, err = s.db.Exec("DETACH DATABASE source")
	return err
}

func (s *sqliteCompressSession) Close() error { return s.db.Close() }

// sqliteScan serves both full scans and single-row random access: the query
// runs and its rows drain inside the timed region, connection setup stays
// outside it.
type sqliteScan struct {
	path  string
	query string
}

func (s *sqliteScan) Name() string { return fmt.Sprintf("%v on %v", s.query, s.path) }

func (s *sqliteScan) Prepare() (Session, error) {
	db, err := sql.Open("sqlite3", s.path)
	if err != nil {
		return nil, err
	}
	// Force the connection open outside the timed region.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return &sqliteScanSession{db: db, query: s.query}, nil
}

type sqliteScanSession struct {
	db    *sql.DB
	query string
}

func (s *sqliteScanSession) Run() error {
	rows, err := s.db.Query(s.query)
	if err != nil {
		return err
	}
	defer rows.Close()
	columns, err := rows.Columns()
	if err != nil {
		return err
	}
	values := make([]any, len(columns))
	pointers := make([]any, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *sqliteScanSession) Close() error { return s.db.Close() }
