package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMultiplierAlreadyAligned(t *testing.T) {
	m, err := ReplicationMultiplier(122880, 122880, 10)
	require.Nil(t, err)
	require.Equal(t, 10, m)
}

func TestMultiplierSearch(t *testing.T) {
	n, b := 100000, 122880
	m, err := ReplicationMultiplier(n, b, 10)
	require.Nil(t, err)
	require.Equal(t, 0, (m*n)%b)
	// Verify minimality against direct modulo computation, not just that
	// some multiplier came back.
	for candidate := 10; candidate < m; candidate++ {
		require.NotEqual(t, 0, (candidate*n)%b, "smaller multiplier %v also aligns", candidate)
	}
}

func TestMultiplierSmallestAboveMinimum(t *testing.T) {
	for _, tc := range []struct {
		n, b, m0, want int
	}{
		{n: 4, b: 6, m0: 2, want: 3},
		{n: 3, b: 7, m0: 2, want: 7},
		{n: 1024, b: 120 * 1024, m0: 10, want: 120},
		{n: 120 * 1024, b: 120 * 1024, m0: 1, want: 1},
	} {
		m, err := ReplicationMultiplier(tc.n, tc.b, tc.m0)
		require.Nil(t, err)
		require.Equal(t, tc.want, m, "n=%v b=%v m0=%v", tc.n, tc.b, tc.m0)
	}
}

func TestMultiplierRejectsNonPositive(t *testing.T) {
	_, err := ReplicationMultiplier(0, 10, 1)
	require.NotNil(t, err)
	_, err = ReplicationMultiplier(10, 0, 1)
	require.NotNil(t, err)
	_, err = ReplicationMultiplier(10, 10, 0)
	require.NotNil(t, err)
}

func loadTestTable(t *testing.T, name string, rows []string) *LiveTable {
	t.Helper()
	dir := t.TempDir()
	source := filepath.Join(dir, name+".csv")
	content := ""
	for _, row := range rows {
		content += row + "\n"
	}
	require.Nil(t, os.WriteFile(source, []byte(content), 0o644))

	table, err := OpenTable(name, filepath.Join(dir, name+".db"))
	require.Nil(t, err)
	t.Cleanup(func() { table.Close() })
	require.Nil(t, table.LoadCSV(TableDescriptor{Name: name, SourcePath: source, RowCount: len(rows)}))
	return table
}

func TestReplicateGrowsToMultiplier(t *testing.T) {
	table := loadTestTable(t, "aligned", []string{"a|1", "b|2", "c|3", "d|4"})

	multiplier, status, err := Replicate(table, 6, 2, 2)
	require.Nil(t, err)
	require.Equal(t, ReplicationDone, status)
	require.Equal(t, 3, multiplier)

	rows, err := table.RowCount()
	require.Nil(t, err)
	require.Equal(t, 12, rows)
}

func TestReplicateSkipsMisaligned(t *testing.T) {
	table := loadTestTable(t, "misaligned", []string{"a|1", "b|2", "c|3"})

	// 3 rows is not a multiple of the granule: skipped, not an error.
	multiplier, status, err := Replicate(table, 6, 2, 2)
	require.Nil(t, err)
	require.Equal(t, ReplicationSkipped, status)
	require.Equal(t, 0, multiplier)

	rows, err := table.RowCount()
	require.Nil(t, err)
	require.Equal(t, 3, rows)
}

func TestReplicationStatusString(t *testing.T) {
	require.Equal(t, "done", ReplicationDone.String())
	require.Equal(t, "skipped, misaligned", ReplicationSkipped.String())
}
