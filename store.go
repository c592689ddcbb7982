package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

var csvHeader = []string{
	"table_name",
	"version",
	"file_size",
	"compression_time_ms",
	"decompression_time_ms",
	"random_access_time_ms",
	"n_repetition",
	"n_repetition_full_scan",
	"n_repetition_random_access",
	"replication_multiplier",
}

// CSVStore persists each producer's result set as one CSV file under Dir,
// the wire format between independent producers and the aggregation pipeline.
type CSVStore struct {
	Dir string
}

func (s *CSVStore) path(producer string) string {
	return filepath.Join(s.Dir, fmt.Sprintf("%v.csv", producer))
}

func (s *CSVStore) Write(producer string, records []ResultRecord) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	file, err := os.Create(s.path(producer))
	if err != nil {
		return err
	}
	defer file.Close()
	writer := csv.NewWriter(file)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, record := range records {
		row := []string{
			record.TableName,
			record.Version,
			formatNullInt(record.FileSize),
			formatNullFloat(record.CompressionTimeMs),
			formatNullFloat(record.DecompressionTimeMs),
			formatNullFloat(record.RandomAccessTimeMs),
			formatNullInt(record.Repetitions),
			formatNullInt(record.RepetitionsFullScan),
			formatNullInt(record.RepetitionsRandomAccess),
			formatNullInt(record.ReplicationMultiplier),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// Read loads one producer's persisted records, mapping known column-name
// aliases onto canonical fields and ignoring columns it does not know.
func (s *CSVStore) Read(producer string) (ResultSet, error) {
	file, err := os.Open(s.path(producer))
	if err != nil {
		return ResultSet{}, err
	}
	defer file.Close()
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return ResultSet{}, fmt.Errorf("producer %v output has no header: %w", producer, err)
	}
	for i, name := range header {
		header[i] = CanonicalField(strings.TrimSpace(name))
	}
	set := ResultSet{Producer: producer}
	for {
		row, err := reader.Read()
		if err != nil {
			break
		}
		var record ResultRecord
		for i, field := range row {
			if i >= len(header) {
				break
			}
			assignField(&record, header[i], strings.TrimSpace(field))
		}
		set.Records = append(set.Records, record)
	}
	return set, nil
}

func assignField(record *ResultRecord, column string, value string) {
	if value == "" {
		return
	}
	switch column {
	case "table_name":
		record.TableName = value
	case "version":
		record.Version = value
	case string(FieldFileSize):
		record.FileSize = parseNullInt(value)
	case string(FieldCompressionTimeMs):
		record.CompressionTimeMs = parseNullFloat(value)
	case string(FieldDecompressionTimeMs):
		record.DecompressionTimeMs = parseNullFloat(value)
	case string(FieldRandomAccessTimeMs):
		record.RandomAccessTimeMs = parseNullFloat(value)
	case "n_repetition":
		record.Repetitions = parseNullInt(value)
	case "n_repetition_full_scan":
		record.RepetitionsFullScan = parseNullInt(value)
	case "n_repetition_random_access":
		record.RepetitionsRandomAccess = parseNullInt(value)
	case "replication_multiplier":
		record.ReplicationMultiplier = parseNullInt(value)
	}
}

func parseNullFloat(value string) sql.NullFloat64 {
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: parsed, Valid: true}
}

func parseNullInt(value string) sql.NullInt64 {
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(parsed), Valid: true}
}

func formatNullFloat(value sql.NullFloat64) string {
	if !value.Valid {
		return ""
	}
	return strconv.FormatFloat(value.Float64, 'f', -1, 64)
}

func formatNullInt(value sql.NullInt64) string {
	if !value.Valid {
		return ""
	}
	return strconv.FormatInt(value.Int64, 10)
}

// SQLiteStore keeps campaign results in one local results database, the
// system of record a campaign can be inspected from afterwards.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) init() error {
	_, err := s.db.Exec("CREATE TABLE IF NOT EXISTS parameters (name TEXT PRIMARY KEY, value)")
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`CREATE TABLE IF NOT EXISTS measurements (
		producer TEXT,
		table_name TEXT,
		version TEXT,
		file_size INTEGER,
		compression_time_ms REAL,
		decompression_time_ms REAL,
		random_access_time_ms REAL,
		n_repetition INTEGER,
		n_repetition_full_scan INTEGER,
		n_repetition_random_access INTEGER,
		replication_multiplier INTEGER
	)`)
	return err
}

// SaveParameters records campaign metadata (host info, engine versions) as
// one name/value row per parameter.
func (s *SQLiteStore) SaveParameters(meta map[string]any) error {
	if len(meta) == 0 {
		return nil
	}
	parameters := make([]any, 0)
	parameters = append(parameters, "time", time.Now().Format("2006-01-02 15:04:05"))
	for key, value := range meta {
		parameters = append(parameters, key, fmt.Sprintf("%v", value))
	}
	placeholders := strings.Join(slices.Repeat([]string{"(?, ?)"}, len(parameters)/2), ", ")
	_, err := s.db.Exec(
		fmt.Sprintf("INSERT INTO parameters VALUES %v ON CONFLICT DO NOTHING", placeholders),
		parameters...,
	)
	return err
}

func (s *SQLiteStore) Parameters() (map[string]string, error) {
	rows, err := s.db.Query("SELECT name, value FROM parameters")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	results := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		results[name] = value
	}
	return results, rows.Err()
}

func (s *SQLiteStore) Write(producer string, records []ResultRecord) error {
	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	for _, record := range records {
		_, err = tx.Exec(
			"INSERT INTO measurements VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			producer,
			record.TableName,
			record.Version,
			record.FileSize,
			record.CompressionTimeMs,
			record.DecompressionTimeMs,
			record.RandomAccessTimeMs,
			record.Repetitions,
			record.RepetitionsFullScan,
			record.RepetitionsRandomAccess,
			record.ReplicationMultiplier,
		)
		if err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Read(producer string) (ResultSet, error) {
	rows, err := s.db.Query(`SELECT
		table_name, version, file_size,
		compression_time_ms, decompression_time_ms, random_access_time_ms,
		n_repetition, n_repetition_full_scan, n_repetition_random_access,
		replication_multiplier
		FROM measurements WHERE producer = ?`, producer)
	if err != nil {
		return ResultSet{}, err
	}
	defer rows.Close()
	set := ResultSet{Producer: producer}
	for rows.Next() {
		var record ResultRecord
		err = rows.Scan(
			&record.TableName,
			&record.Version,
			&record.FileSize,
			&record.CompressionTimeMs,
			&record.DecompressionTimeMs,
			&record.RandomAccessTimeMs,
			&record.Repetitions,
			&record.RepetitionsFullScan,
			&record.RepetitionsRandomAccess,
			&record.ReplicationMultiplier,
		)
		if err != nil {
			return ResultSet{}, err
		}
		set.Records = append(set.Records, record)
	}
	return set, rows.Err()
}
