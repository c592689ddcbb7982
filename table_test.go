package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCSVAutoSchema(t *testing.T) {
	table := loadTestTable(t, "plain", []string{"a|1|x", "b|2|null", "c|3|z"})
	rows, err := table.RowCount()
	require.Nil(t, err)
	require.Equal(t, 3, rows)

	columns, err := table.ColumnTypes()
	require.Nil(t, err)
	require.Equal(t, []ColumnType{
		{Name: "c0", Type: "TEXT"},
		{Name: "c1", Type: "TEXT"},
		{Name: "c2", Type: "TEXT"},
	}, columns)
}

func TestLoadCSVExplicitSchema(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "typed.csv")
	require.Nil(t, os.WriteFile(source, []byte("a|1\nb|2\n"), 0o644))

	table, err := OpenTable("typed", filepath.Join(dir, "typed.db"))
	require.Nil(t, err)
	defer table.Close()

	desc := TableDescriptor{
		Name:       "typed",
		SourcePath: source,
		RowCount:   2,
		Schema: []ColumnType{
			{Name: "label", Type: "TEXT"},
			{Name: "amount", Type: "INTEGER"},
		},
	}
	require.Nil(t, table.LoadCSV(desc))

	columns, err := table.ColumnTypes()
	require.Nil(t, err)
	require.Equal(t, desc.Schema, columns)
}

func TestLoadCSVNullLiteral(t *testing.T) {
	table := loadTestTable(t, "nully", []string{"a|null", "null|2"})
	var count int
	err := table.db.QueryRow(`SELECT COUNT(*) FROM nully WHERE c1 IS NULL`).Scan(&count)
	require.Nil(t, err)
	require.Equal(t, 1, count)
}

func TestLoadCSVGzipSource(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "packed.csv.gz")
	writeGzipFile(t, source, "a|1\nb|2\n")

	table, err := OpenTable("packed", filepath.Join(dir, "packed.db"))
	require.Nil(t, err)
	defer table.Close()
	require.Nil(t, table.LoadCSV(TableDescriptor{Name: "packed", SourcePath: source, RowCount: 2}))

	rows, err := table.RowCount()
	require.Nil(t, err)
	require.Equal(t, 2, rows)
}

func TestLoadCSVEmptySource(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "empty.csv")
	require.Nil(t, os.WriteFile(source, nil, 0o644))

	table, err := OpenTable("empty", filepath.Join(dir, "empty.db"))
	require.Nil(t, err)
	defer table.Close()
	require.NotNil(t, table.LoadCSV(TableDescriptor{Name: "empty", SourcePath: source}))
}

func TestAppendCopiesPreservesRowOrderWithinCopy(t *testing.T) {
	table := loadTestTable(t, "ordered", []string{"a|1", "b|2"})
	require.Nil(t, table.AppendCopies(2))

	rows, err := table.RowCount()
	require.Nil(t, err)
	require.Equal(t, 6, rows)

	result, err := table.db.Query(`SELECT c0 FROM ordered`)
	require.Nil(t, err)
	defer result.Close()
	values := make([]string, 0)
	for result.Next() {
		var value string
		require.Nil(t, result.Scan(&value))
		values = append(values, value)
	}
	require.Nil(t, result.Err())
	require.Equal(t, []string{"a", "b", "a", "b", "a", "b"}, values)
}

func TestAppendCopiesZeroIsNoop(t *testing.T) {
	table := loadTestTable(t, "noop", []string{"a|1"})
	require.Nil(t, table.AppendCopies(0))
	rows, err := table.RowCount()
	require.Nil(t, err)
	require.Equal(t, 1, rows)
}
