package main

import "fmt"

// ReplicationStatus reports what happened to a table during replication.
type ReplicationStatus int

const (
	ReplicationDone ReplicationStatus = iota
	// ReplicationSkipped marks a table whose row count is not aligned to the
	// row granule. Expected for irregular source tables, not a defect.
	ReplicationSkipped
)

func (s ReplicationStatus) String() string {
	switch s {
	case ReplicationDone:
		return "done"
	case ReplicationSkipped:
		return "skipped, misaligned"
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}

// ReplicationMultiplier finds the smallest integer m >= minMultiplier such
// that (m * rowCount) is a multiple of blockSize. The search terminates within
// blockSize / gcd(rowCount, blockSize) increments because m*rowCount mod
// blockSize cycles with that period.
func ReplicationMultiplier(rowCount, blockSize, minMultiplier int) (int, error) {
	if rowCount <= 0 {
		return 0, fmt.Errorf("row count must be positive, got %v", rowCount)
	}
	if blockSize <= 0 {
		return 0, fmt.Errorf("block size must be positive, got %v", blockSize)
	}
	if minMultiplier <= 0 {
		return 0, fmt.Errorf("min multiplier must be positive, got %v", minMultiplier)
	}
	m := minMultiplier
	for (m*rowCount)%blockSize != 0 {
		m++
	}
	return m, nil
}

// Replicate grows the live table to multiplier times its original size by
// appending the original row set multiplier-1 additional times. Row order is
// preserved within each copy; order across copies is not meaningful. Tables
// whose row count is not a multiple of the row granule are left untouched.
// Replicate does not time itself, timing belongs to the harness wrapping it.
func Replicate(table *LiveTable, blockSize, minMultiplier, rowGranule int) (int, ReplicationStatus, error) {
	rows, err := table.RowCount()
	if err != nil {
		return 0, ReplicationSkipped, err
	}
	if rows%rowGranule != 0 {
		Logger.Warnf("table %v has %v rows, not a multiple of %v: %v", table.Name, rows, rowGranule, ReplicationSkipped)
		return 0, ReplicationSkipped, nil
	}
	multiplier, err := ReplicationMultiplier(rows, blockSize, minMultiplier)
	if err != nil {
		return 0, ReplicationSkipped, err
	}
	if err := table.AppendCopies(multiplier - 1); err != nil {
		return 0, ReplicationSkipped, fmt.Errorf("failed to replicate table %v: %w", table.Name, err)
	}
	final, err := table.RowCount()
	if err != nil {
		return 0, ReplicationSkipped, err
	}
	if final != rows*multiplier {
		return 0, ReplicationSkipped, fmt.Errorf("table %v has %v rows after replication, want %v", table.Name, final, rows*multiplier)
	}
	Logger.Infof("replicated table %v to %vx rows (%v total)", table.Name, multiplier, final)
	return multiplier, ReplicationDone, nil
}
