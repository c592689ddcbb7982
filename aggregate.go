package main

import "sort"

// TotalRow is the synthetic column-wise sum row. A presentation convenience,
// not a statistical quantity: it stays flagged as synthetic so no output can
// confuse it with a genuine table.
const TotalRow = "Total"

// OverallAverageRow is the synthetic column-wise mean row of ratio tables.
const OverallAverageRow = "Overall Average"

type cellKey struct {
	table   string
	version string
}

// Matrix is the table-by-version grid one aggregation produces. A missing
// (table, version) pair is defined to be zero, not absent. Derived and
// transient, rebuilt per report.
type Matrix struct {
	Field     ValueField
	Tables    []string
	Versions  []string
	Synthetic []string
	cells     map[cellKey]float64
}

func NewMatrix(field ValueField) *Matrix {
	return &Matrix{Field: field, cells: make(map[cellKey]float64)}
}

func (m *Matrix) Value(table, version string) float64 {
	return m.cells[cellKey{table: table, version: version}]
}

func (m *Matrix) Set(table, version string, value float64) {
	m.cells[cellKey{table: table, version: version}] = value
}

func (m *Matrix) add(table, version string, value float64) {
	m.cells[cellKey{table: table, version: version}] += value
}

func (m *Matrix) IsSynthetic(table string) bool {
	for _, name := range m.Synthetic {
		if name == table {
			return true
		}
	}
	return false
}

// AllRows returns genuine rows followed by synthetic ones, the layout order
// every renderer uses.
func (m *Matrix) AllRows() []string {
	rows := make([]string, 0, len(m.Tables)+len(m.Synthetic))
	rows = append(rows, m.Tables...)
	rows = append(rows, m.Synthetic...)
	return rows
}

// relayout rebuilds the sorted row and column index from the cell keys.
func (m *Matrix) relayout() {
	tables := make(map[string]bool)
	versions := make(map[string]bool)
	for key := range m.cells {
		tables[key.table] = true
		versions[key.version] = true
	}
	m.Tables = m.Tables[:0]
	for table := range tables {
		m.Tables = append(m.Tables, table)
	}
	m.Versions = m.Versions[:0]
	for version := range versions {
		m.Versions = append(m.Versions, version)
	}
	sort.Strings(m.Tables)
	sort.Strings(m.Versions)
}

// FilterVersions drops every column outside the include set. An empty include
// set keeps everything.
func (m *Matrix) FilterVersions(include []string) {
	if len(include) == 0 {
		return
	}
	keep := make(map[string]bool, len(include))
	for _, version := range include {
		keep[version] = true
	}
	for key := range m.cells {
		if !keep[key.version] {
			delete(m.cells, key)
		}
	}
	m.relayout()
}

// AddTotalRow appends the column-wise sum over all genuine rows.
func (m *Matrix) AddTotalRow() {
	for _, version := range m.Versions {
		total := 0.0
		for _, table := range m.Tables {
			total += m.Value(table, version)
		}
		m.Set(TotalRow, version, total)
	}
	m.Synthetic = append(m.Synthetic, TotalRow)
}

// AddOverallAverageRow appends the column-wise mean over all genuine rows.
func (m *Matrix) AddOverallAverageRow() {
	if len(m.Tables) == 0 {
		return
	}
	for _, version := range m.Versions {
		total := 0.0
		for _, table := range m.Tables {
			total += m.Value(table, version)
		}
		m.Set(OverallAverageRow, version, total/float64(len(m.Tables)))
	}
	m.Synthetic = append(m.Synthetic, OverallAverageRow)
}

// Aggregate unions heterogeneous producer result sets into one matrix for the
// chosen value field: concatenate valid records, group by (table, version),
// sum with absent values as zero. Records carrying their own repetition count
// are normalized to a single measurement before the sum (see
// ResultRecord.Value). A producer failing schema validation contributes
// nothing, with a warning, so one malformed producer never blocks a report
// assembled from the others.
func Aggregate(sets []ResultSet, field ValueField) *Matrix {
	matrix := NewMatrix(field)
	for _, set := range sets {
		if err := set.Validate(); err != nil {
			Logger.Warnf("skipping producer %v: %v", set.Producer, err)
			continue
		}
		for _, record := range set.Records {
			value, ok := record.Value(field)
			if !ok {
				value = 0
			}
			matrix.add(record.TableName, record.Version, value)
		}
	}
	matrix.relayout()
	return matrix
}

// VersionTotal is one row of the per-version grand total report.
type VersionTotal struct {
	Version string
	Total   float64
}

// AggregateVersionTotals folds every valid record into one total per version,
// sorted ascending.
func AggregateVersionTotals(sets []ResultSet, field ValueField) []VersionTotal {
	totals := make(map[string]float64)
	for _, set := range sets {
		if err := set.Validate(); err != nil {
			Logger.Warnf("skipping producer %v: %v", set.Producer, err)
			continue
		}
		for _, record := range set.Records {
			if value, ok := record.Value(field); ok {
				totals[record.Version] += value
			}
		}
	}
	result := make([]VersionTotal, 0, len(totals))
	for version, total := range totals {
		result = append(result, VersionTotal{Version: version, Total: total})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Total != result[j].Total {
			return result[i].Total < result[j].Total
		}
		return result[i].Version < result[j].Version
	})
	return result
}
