package main

import (
	"database/sql"
	"fmt"
)

// ValueField selects which measured quantity an aggregation runs over.
type ValueField string

const (
	FieldFileSize            ValueField = "file_size"
	FieldCompressionTimeMs   ValueField = "compression_time_ms"
	FieldDecompressionTimeMs ValueField = "decompression_time_ms"
	FieldRandomAccessTimeMs  ValueField = "random_access_time_ms"
)

// ResultRecord is the normalized row every producer must emit. Optional
// quantities use database/sql null types so that absence stays distinguishable
// from a measured zero. A record is append-only once emitted.
type ResultRecord struct {
	TableName string
	Version   string

	FileSize            sql.NullInt64
	CompressionTimeMs   sql.NullFloat64
	DecompressionTimeMs sql.NullFloat64
	RandomAccessTimeMs  sql.NullFloat64

	Repetitions             sql.NullInt64
	RepetitionsFullScan     sql.NullInt64
	RepetitionsRandomAccess sql.NullInt64
	ReplicationMultiplier   sql.NullInt64
}

// ResultSet is one producer's ordered output, discarded after aggregation.
type ResultSet struct {
	Producer string
	Records  []ResultRecord
}

// Column-name aliases observed across producers, mapped onto the canonical
// spelling before any arithmetic happens.
var fieldAliases = map[string]string{
	"random_access_ms":     string(FieldRandomAccessTimeMs),
	"compression_time":     string(FieldCompressionTimeMs),
	"decompression_time":   string(FieldDecompressionTimeMs),
	"times_data_repeated":  "replication_multiplier",
	"duckdb_file_size_1x":  string(FieldFileSize),
	"n_repetition":         "n_repetition",
	"n_repetition_scan":    "n_repetition_full_scan",
	"iterations":           "n_repetition",
	"size":                 string(FieldFileSize),
	"file_size_bytes":      string(FieldFileSize),
	"random_access_offset": "random_access_offset",
}

// CanonicalField resolves producer column names to canonical ones. Unknown
// names pass through unchanged so richer producers stay loadable.
func CanonicalField(name string) string {
	if canonical, ok := fieldAliases[name]; ok {
		return canonical
	}
	return name
}

// Validate checks the minimal schema {table_name, version, file_size} every
// producer must satisfy before its records participate in aggregation.
func (r ResultRecord) Validate() error {
	if r.TableName == "" {
		return fmt.Errorf("record misses table_name")
	}
	if r.Version == "" {
		return fmt.Errorf("record for table %v misses version", r.TableName)
	}
	if !r.FileSize.Valid {
		return fmt.Errorf("record for table %v version %v misses file_size", r.TableName, r.Version)
	}
	if r.FileSize.Int64 < 0 {
		return fmt.Errorf("record for table %v version %v has negative file_size %v", r.TableName, r.Version, r.FileSize.Int64)
	}
	return nil
}

// Validate reports whether the whole set conforms to the minimal schema. A
// failing set contributes nothing to aggregation, it never blocks the others.
func (s ResultSet) Validate() error {
	for i, record := range s.Records {
		if err := record.Validate(); err != nil {
			return fmt.Errorf("producer %v record #%v: %w", s.Producer, i, err)
		}
	}
	return nil
}

// repetitionsFor returns the repetition count that normalizes the given
// timing field, resolving the per-field convention: every specific count wins
// over the generic n_repetition one.
func (r ResultRecord) repetitionsFor(field ValueField) (int64, bool) {
	switch field {
	case FieldCompressionTimeMs:
		if r.Repetitions.Valid {
			return r.Repetitions.Int64, true
		}
	case FieldDecompressionTimeMs:
		if r.RepetitionsFullScan.Valid {
			return r.RepetitionsFullScan.Int64, true
		}
		if r.Repetitions.Valid {
			return r.Repetitions.Int64, true
		}
	case FieldRandomAccessTimeMs:
		if r.RepetitionsRandomAccess.Valid {
			return r.RepetitionsRandomAccess.Int64, true
		}
		if r.Repetitions.Valid {
			return r.Repetitions.Int64, true
		}
	}
	return 0, false
}

// Value extracts the chosen quantity normalized to a single measurement: a
// timing field carrying its own repetition count is divided by that count
// before it is handed to the aggregation sum. Producers using batched timing
// would otherwise be misrepresented against per-repetition ones.
func (r ResultRecord) Value(field ValueField) (float64, bool) {
	var value float64
	switch field {
	case FieldFileSize:
		if !r.FileSize.Valid {
			return 0, false
		}
		return float64(r.FileSize.Int64), true
	case FieldCompressionTimeMs:
		if !r.CompressionTimeMs.Valid {
			return 0, false
		}
		value = r.CompressionTimeMs.Float64
	case FieldDecompressionTimeMs:
		if !r.DecompressionTimeMs.Valid {
			return 0, false
		}
		value = r.DecompressionTimeMs.Float64
	case FieldRandomAccessTimeMs:
		if !r.RandomAccessTimeMs.Valid {
			return 0, false
		}
		value = r.RandomAccessTimeMs.Float64
	default:
		return 0, false
	}
	if reps, ok := r.repetitionsFor(field); ok && reps != 0 {
		value /= float64(reps)
	}
	return value, true
}
