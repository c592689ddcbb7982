package main

// Cell is one normalized value. Valid == false is the explicit
// "not applicable" sentinel for undefined ratios: a zero or missing baseline
// is never silently rounded into a number.
type Cell struct {
	Value float64
	Valid bool
}

// NormalizedMatrix compares every column of a matrix against one designated
// baseline column. The baseline column keeps its original numeric values.
type NormalizedMatrix struct {
	Field     ValueField
	Baseline  string
	Tables    []string
	Versions  []string
	Synthetic []string
	cells     map[cellKey]Cell
}

func (n *NormalizedMatrix) Cell(table, version string) Cell {
	return n.cells[cellKey{table: table, version: version}]
}

func (n *NormalizedMatrix) IsSynthetic(table string) bool {
	for _, name := range n.Synthetic {
		if name == table {
			return true
		}
	}
	return false
}

func (n *NormalizedMatrix) AllRows() []string {
	rows := make([]string, 0, len(n.Tables)+len(n.Synthetic))
	rows = append(rows, n.Tables...)
	rows = append(rows, n.Synthetic...)
	return rows
}

// NormalizeRatios derives per-row ratios value/baseline for every column
// except the baseline itself, rounded to two decimals. Returns false when the
// baseline column does not exist in the matrix; normalization is then skipped
// with a warning rather than producing numbers nothing can be compared to.
func NormalizeRatios(m *Matrix, baseline string) (*NormalizedMatrix, bool) {
	found := false
	for _, version := range m.Versions {
		if version == baseline {
			found = true
			break
		}
	}
	if !found {
		Logger.Warnf("baseline version %v not found in matrix, skipping normalization", baseline)
		return nil, false
	}
	normalized := &NormalizedMatrix{
		Field:     m.Field,
		Baseline:  baseline,
		Tables:    append([]string(nil), m.Tables...),
		Versions:  append([]string(nil), m.Versions...),
		Synthetic: append([]string(nil), m.Synthetic...),
		cells:     make(map[cellKey]Cell),
	}
	for _, table := range m.AllRows() {
		base := m.Value(table, baseline)
		for _, version := range m.Versions {
			key := cellKey{table: table, version: version}
			if version == baseline {
				normalized.cells[key] = Cell{Value: base, Valid: true}
				continue
			}
			if base == 0 {
				normalized.cells[key] = Cell{}
				continue
			}
			normalized.cells[key] = Cell{Value: round2(m.Value(table, version) / base), Valid: true}
		}
	}
	return normalized, true
}

// Improvement converts a comparison cell's ratio into the signed percentage
// difference against the baseline: (1 - ratio) * 100. Non-negative means
// smaller/faster than baseline. The baseline column and undefined ratios pass
// through as not applicable.
func (n *NormalizedMatrix) Improvement(table, version string) Cell {
	if version == n.Baseline {
		return Cell{}
	}
	ratio := n.Cell(table, version)
	if !ratio.Valid {
		return Cell{}
	}
	return Cell{Value: round2((1 - ratio.Value) * 100), Valid: true}
}

// ScaleBaseline applies a uniform display unit conversion (bytes to
// megabytes, say) to the baseline column. Not a comparative transform: every
// row scales by the same factor.
func (n *NormalizedMatrix) ScaleBaseline(factor float64) {
	for _, table := range n.AllRows() {
		key := cellKey{table: table, version: n.Baseline}
		cell := n.cells[key]
		if cell.Valid {
			n.cells[key] = Cell{Value: cell.Value * factor, Valid: true}
		}
	}
}

// InverseRatios derives baseline/value per cell, the compression-ratio view
// against an uncompressed reference, with an Overall Average row over the
// genuine rows. A zero divisor yields the not-applicable sentinel.
func InverseRatios(m *Matrix, baseline string) (*NormalizedMatrix, bool) {
	found := false
	for _, version := range m.Versions {
		if version == baseline {
			found = true
			break
		}
	}
	if !found {
		Logger.Warnf("baseline version %v not found in matrix, skipping ratio computation", baseline)
		return nil, false
	}
	ratios := &NormalizedMatrix{
		Field:    m.Field,
		Baseline: baseline,
		Tables:   append([]string(nil), m.Tables...),
		Versions: append([]string(nil), m.Versions...),
		cells:    make(map[cellKey]Cell),
	}
	for _, table := range m.Tables {
		base := m.Value(table, baseline)
		for _, version := range m.Versions {
			value := m.Value(table, version)
			key := cellKey{table: table, version: version}
			if value == 0 {
				ratios.cells[key] = Cell{}
				continue
			}
			ratios.cells[key] = Cell{Value: round2(base / value), Valid: true}
		}
	}
	ratios.addOverallAverage()
	return ratios, true
}

// addOverallAverage appends the column-wise mean over the genuine rows whose
// cells are defined.
func (n *NormalizedMatrix) addOverallAverage() {
	for _, version := range n.Versions {
		total, count := 0.0, 0
		for _, table := range n.Tables {
			if cell := n.Cell(table, version); cell.Valid {
				total += cell.Value
				count++
			}
		}
		key := cellKey{table: OverallAverageRow, version: version}
		if count == 0 {
			n.cells[key] = Cell{}
		} else {
			n.cells[key] = Cell{Value: round2(total / float64(count)), Valid: true}
		}
	}
	n.Synthetic = append(n.Synthetic, OverallAverageRow)
}
