package main

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	_ "github.com/mattn/go-sqlite3"
)

// LiveTable is a loaded table growing in place during replication, backed by
// its own SQLite database file.
type LiveTable struct {
	Name string
	Path string
	db   *sql.DB
}

// OpenTable creates a fresh database file for the table, removing any
// leftover from a previous campaign.
func OpenTable(name string, path string) (*LiveTable, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// Temp tables used by replication are per-connection state.
	db.SetMaxOpenConns(1)
	return &LiveTable{Name: name, Path: path, db: db}, nil
}

func (t *LiveTable) Close() error { return t.db.Close() }

// sourceReader opens the descriptor's source file, transparently
// decompressing gzip-packed corpora.
func sourceReader(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return file, nil
	}
	unzipped, err := gzip.NewReader(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	return struct {
		io.Reader
		io.Closer
	}{unzipped, file}, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// createSQL builds the table DDL from the declared schema, or from the first
// data row with TEXT columns when no schema mapping exists for the table.
func (t *LiveTable) createSQL(desc TableDescriptor, firstRow []string) string {
	columns := make([]string, 0)
	if len(desc.Schema) > 0 {
		for _, col := range desc.Schema {
			columns = append(columns, fmt.Sprintf("%v %v", quoteIdent(col.Name), col.Type))
		}
	} else {
		for i := range firstRow {
			columns = append(columns, fmt.Sprintf("c%v TEXT", i))
		}
	}
	return fmt.Sprintf("CREATE TABLE %v (%v)", quoteIdent(t.Name), strings.Join(columns, ", "))
}

// LoadCSV reads the pipe-delimited source into the live table. The literal
// "null" becomes NULL, matching the corpus encoding.
func (t *LiveTable) LoadCSV(desc TableDescriptor) error {
	source, err := sourceReader(desc.SourcePath)
	if err != nil {
		return fmt.Errorf("failed to open source for table %v: %w", t.Name, err)
	}
	defer source.Close()

	reader := csv.NewReader(source)
	reader.Comma = '|'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	first, err := reader.Read()
	if err == io.EOF {
		return fmt.Errorf("source for table %v is empty", t.Name)
	}
	if err != nil {
		return fmt.Errorf("failed to parse source for table %v: %w", t.Name, err)
	}
	if _, err := t.db.Exec(t.createSQL(desc, first)); err != nil {
		return fmt.Errorf("failed to create table %v: %w", t.Name, err)
	}

	tx, err := t.db.Begin()
	if err != nil {
		return err
	}
	placeholders := strings.Repeat(", ?", len(first))[2:]
	insert, err := tx.Prepare(fmt.Sprintf("INSERT INTO %v VALUES (%v)", quoteIdent(t.Name), placeholders))
	if err != nil {
		tx.Rollback()
		return err
	}
	row := first
	for {
		values := make([]any, len(row))
		for i, field := range row {
			if field == "null" {
				values[i] = nil
			} else {
				values[i] = field
			}
		}
		if _, err := insert.Exec(values...); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert row into table %v: %w", t.Name, err)
		}
		row, err = reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to parse source for table %v: %w", t.Name, err)
		}
	}
	return tx.Commit()
}

func (t *LiveTable) RowCount() (int, error) {
	var count int
	err := t.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %v", quoteIdent(t.Name))).Scan(&count)
	return count, err
}

// AppendCopies snapshots the original row set into a temp table and appends
// it the given number of times.
func (t *LiveTable) AppendCopies(copies int) error {
	if copies <= 0 {
		return nil
	}
	_, err := t.db.Exec(fmt.Sprintf("CREATE TEMP TABLE original_data AS SELECT * FROM %v", quoteIdent(t.Name)))
	if err != nil {
		return err
	}
	defer t.db.Exec("DROP TABLE IF EXISTS temp.original_data")
	for i := 0; i < copies; i++ {
		if _, err := t.db.Exec(fmt.Sprintf("INSERT INTO %v SELECT * FROM original_data", quoteIdent(t.Name))); err != nil {
			return err
		}
	}
	return nil
}

// ColumnTypes reports the declared type per column of the live table, used
// for the per-column storage breakdown.
func (t *LiveTable) ColumnTypes() ([]ColumnType, error) {
	rows, err := t.db.Query(fmt.Sprintf("PRAGMA table_info(%v)", quoteIdent(t.Name)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	columns := make([]ColumnType, 0)
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return nil, err
		}
		columns = append(columns, ColumnType{Name: name, Type: typ})
	}
	return columns, rows.Err()
}

// CountLines counts source lines independently of any parser, the reference
// the loaded row count is checked against.
func CountLines(path string) (int, error) {
	source, err := sourceReader(path)
	if err != nil {
		return 0, err
	}
	defer source.Close()
	count := 0
	buf := make([]byte, 256*1024)
	trailing := false
	for {
		n, err := source.Read(buf)
		for _, b := range buf[:n] {
			if b == '\n' {
				count++
				trailing = false
			} else {
				trailing = true
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
	}
	if trailing {
		count++
	}
	return count, nil
}
