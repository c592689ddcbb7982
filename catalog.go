package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// ColumnType is one declared column of a forced table schema. Order matters
// for the generated DDL.
type ColumnType struct {
	Name string
	Type string
}

// TableDescriptor identifies one table of the benchmarked corpus. Immutable
// once the catalog is built.
type TableDescriptor struct {
	Name       string
	SourcePath string
	RowCount   int
	Schema     []ColumnType
}

// Catalog is the static registry of benchmarkable tables.
type Catalog struct {
	Tables []TableDescriptor
}

// SchemaMappings is the external type-mapping document: table name -> column
// name -> declared type. Used to force an explicit schema instead of
// auto-detection.
type SchemaMappings map[string]map[string]string

// LoadSchemaMappings reads the mapping document if present. A missing file is
// not an error, loading proceeds without schema enforcement.
func LoadSchemaMappings(path string) (SchemaMappings, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		Logger.Warnf("schema mapping file %v not found, proceeding without schema enforcement", path)
		return SchemaMappings{}, nil
	}
	if err != nil {
		return nil, err
	}
	var mappings SchemaMappings
	if err := json.Unmarshal(data, &mappings); err != nil {
		return nil, fmt.Errorf("failed to parse schema mappings %v: %w", path, err)
	}
	return mappings, nil
}

// columnsFor flattens one table's mapping into an ordered column list. JSON
// objects carry no order, so columns sort by name for determinism.
func (m SchemaMappings) columnsFor(table string) []ColumnType {
	mapping, ok := m[table]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(mapping))
	for name := range mapping {
		names = append(names, name)
	}
	sort.Strings(names)
	columns := make([]ColumnType, 0, len(names))
	for _, name := range names {
		columns = append(columns, ColumnType{Name: name, Type: mapping[name]})
	}
	return columns
}

func tableNameFor(filename string) string {
	name := filepath.Base(filename)
	name = strings.TrimSuffix(name, ".gz")
	name = strings.TrimSuffix(name, ".csv")
	return name
}

// BuildCatalog discovers corpus files under dataDir and counts their lines
// up front. The count is the independent reference the loaded row count is
// later checked against.
func BuildCatalog(dataDir string, mappings SchemaMappings) (Catalog, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return Catalog{}, fmt.Errorf("failed to read corpus directory %v: %w", dataDir, err)
	}
	tables := make([]TableDescriptor, 0)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.HasSuffix(entry.Name(), ".csv") && !strings.HasSuffix(entry.Name(), ".csv.gz") {
			continue
		}
		path := filepath.Join(dataDir, entry.Name())
		lines, err := CountLines(path)
		if err != nil {
			return Catalog{}, fmt.Errorf("failed to count lines of %v: %w", path, err)
		}
		name := tableNameFor(entry.Name())
		tables = append(tables, TableDescriptor{
			Name:       name,
			SourcePath: path,
			RowCount:   lines,
			Schema:     mappings.columnsFor(name),
		})
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].Name < tables[j].Name })
	Logger.Infof("catalog built with %v tables from %v", len(tables), dataDir)
	return Catalog{Tables: tables}, nil
}
