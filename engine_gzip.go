package main

import (
	"bufio"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// EngineGzip benchmarks whole-file gzip of the pipe-delimited row encoding,
// the cheapest possible codec baseline for the corpus.
type EngineGzip struct {
	Variant string
	Level   int
}

func (e *EngineGzip) Version() string { return e.Variant }

func (e *EngineGzip) Verify() error {
	if e.Level < gzip.HuffmanOnly || e.Level > gzip.BestCompression {
		return fmt.Errorf("invalid gzip level %v", e.Level)
	}
	return nil
}

func (e *EngineGzip) Compress(table *LiveTable, out string) (CompressOp, error) {
	return &gzipCompress{source: table, out: out, level: e.Level}, nil
}

func (e *EngineGzip) FullScan(path string) Operation {
	return &gzipScan{path: path, limit: -1}
}

func (e *EngineGzip) RandomAccess(path string, offset int) Operation {
	return &gzipScan{path: path, limit: offset + 1}
}

type gzipCompress struct {
	source *LiveTable
	out    string
	level  int
}

func (c *gzipCompress) Name() string { return fmt.Sprintf("gzip %v into %v", c.source.Name, c.out) }

func (c *gzipCompress) Prepare() (Session, error) {
	if err := os.Remove(c.out); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	// Fresh connection to the source per repetition, opened inside Prepare:
	// load benchmarks time setup as part of the work.
	db, err := sql.Open("sqlite3", c.source.Path)
	if err != nil {
		return nil, err
	}
	return &gzipCompressSession{db: db, table: c.source.Name, out: c.out, level: c.level}, nil
}

func (c *gzipCompress) FileSize() (int64, error) {
	stat, err := os.Stat(c.out)
	if err != nil {
		return 0, err
	}
	return stat.Size(), nil
}

func (c *gzipCompress) Cleanup() error {
	if err := os.Remove(c.out); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

type gzipCompressSession struct {
	db    *sql.DB
	table string
	out   string
	level int
}

func (s *gzipCompressSession) Run() error {
	file, err := os.Create(s.out)
	if err != nil {
		return err
	}
	defer file.Close()
	packed, err := gzip.NewWriterLevel(file, s.level)
	if err != nil {
		return err
	}

	rows, err := s.db.Query(fmt.Sprintf("SELECT * FROM %v", quoteIdent(s.table)))
	if err != nil {
		return err
	}
	defer rows.Close()
	columns, err := rows.Columns()
	if err != nil {
		return err
	}
	writer := csv.NewWriter(packed)
	writer.Comma = '|'
	values := make([]any, len(columns))
	pointers := make([]any, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}
	record := make([]string, len(columns))
	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return err
		}
		for i, value := range values {
			switch typed := value.(type) {
			case nil:
				record[i] = "null"
			case []byte:
				record[i] = string(typed)
			default:
				record[i] = fmt.Sprintf("%v", typed)
			}
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return packed.Close()
}

func (s *gzipCompressSession) Close() error { return s.db.Close() }

// gzipScan decompresses and parses rows up to limit, or the whole file when
// limit < 0. Random access over a stream codec has to decode its prefix, that
// cost is exactly what the benchmark wants visible.
type gzipScan struct {
	path  string
	limit int
}

func (s *gzipScan) Name() string { return fmt.Sprintf("gzip scan of %v", s.path) }

func (s *gzipScan) Prepare() (Session, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	return &gzipScanSession{file: file, limit: s.limit}, nil
}

type gzipScanSession struct {
	file  *os.File
	limit int
}

func (s *gzipScanSession) Run() error {
	packed, err := gzip.NewReader(bufio.NewReader(s.file))
	if err != nil {
		return err
	}
	defer packed.Close()
	reader := csv.NewReader(packed)
	reader.Comma = '|'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	read := 0
	for s.limit < 0 || read < s.limit {
		_, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		read++
	}
	return nil
}

func (s *gzipScanSession) Close() error { return s.file.Close() }
