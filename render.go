package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// NotApplicable is how undefined ratio cells render. Every cell handed to the
// renderers is a final typed value or this sentinel, never a partially
// computed expression.
const NotApplicable = "n/a"

// FormatImprovement renders the signed percentage difference against the
// baseline. A non-negative improvement gets a leading '-' (that many percent
// smaller/faster than baseline), a negative one a leading '+' (larger/slower).
func FormatImprovement(cell Cell) string {
	if !cell.Valid {
		return NotApplicable
	}
	sign := "-"
	if cell.Value < 0 {
		sign = "+"
	}
	value := cell.Value
	if value < 0 {
		value = -value
	}
	return fmt.Sprintf("%v%.2f%%", sign, value)
}

// FormatRatio renders a comparison ratio as a factor, "1.50x".
func FormatRatio(cell Cell) string {
	if !cell.Valid {
		return NotApplicable
	}
	return fmt.Sprintf("%.2fx", cell.Value)
}

func formatNumber(value float64, decimals int) string {
	return strconv.FormatFloat(value, 'f', decimals, 64)
}

// TruncateLabel shortens a table name for typeset output.
func TruncateLabel(name string, max int) string {
	if len(name) <= max {
		return name
	}
	return name[:max]
}

// Grid is a fully formatted table ready for a text renderer.
type Grid struct {
	Header []string
	Rows   [][]string
}

// MatrixGrid formats a raw matrix with fixed decimals.
func MatrixGrid(m *Matrix, decimals int) Grid {
	grid := Grid{Header: append([]string{"table_name"}, m.Versions...)}
	for _, table := range m.AllRows() {
		row := []string{table}
		for _, version := range m.Versions {
			row = append(row, formatNumber(m.Value(table, version), decimals))
		}
		grid.Rows = append(grid.Rows, row)
	}
	return grid
}

// RatioGrid formats a normalized matrix as factors against the baseline,
// keeping the baseline column numeric.
func RatioGrid(n *NormalizedMatrix, baselineDecimals int) Grid {
	grid := Grid{Header: append([]string{"table_name"}, n.Versions...)}
	for _, table := range n.AllRows() {
		row := []string{table}
		for _, version := range n.Versions {
			cell := n.Cell(table, version)
			if version == n.Baseline {
				row = append(row, formatNumber(cell.Value, baselineDecimals))
				continue
			}
			row = append(row, FormatRatio(cell))
		}
		grid.Rows = append(grid.Rows, row)
	}
	return grid
}

// ImprovementGrid formats a normalized matrix as signed percentage
// differences, keeping the baseline column numeric.
func ImprovementGrid(n *NormalizedMatrix, baselineDecimals int) Grid {
	grid := Grid{Header: append([]string{"table_name"}, n.Versions...)}
	for _, table := range n.AllRows() {
		row := []string{table}
		for _, version := range n.Versions {
			if version == n.Baseline {
				row = append(row, formatNumber(n.Cell(table, version).Value, baselineDecimals))
				continue
			}
			row = append(row, FormatImprovement(n.Improvement(table, version)))
		}
		grid.Rows = append(grid.Rows, row)
	}
	return grid
}

// Markdown renders the grid as a GitHub-style table.
func (g Grid) Markdown() string {
	var builder strings.Builder
	builder.WriteString("| " + strings.Join(g.Header, " | ") + " |\n")
	separators := make([]string, len(g.Header))
	for i := range separators {
		separators[i] = "---"
	}
	builder.WriteString("| " + strings.Join(separators, " | ") + " |\n")
	for _, row := range g.Rows {
		builder.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
	return builder.String()
}

func latexEscape(value string) string {
	value = strings.ReplaceAll(value, `_`, `\_`)
	value = strings.ReplaceAll(value, `%`, `\%`)
	return value
}

// Latex renders the grid as a typeset table, labels truncated and
// underscores escaped.
func (g Grid) Latex(caption, label string) string {
	var builder strings.Builder
	builder.WriteString("\\begin{table}\n\\centering\n")
	builder.WriteString(fmt.Sprintf("\\caption{%v}\n", latexEscape(caption)))
	builder.WriteString(fmt.Sprintf("\\label{%v}\n", label))
	builder.WriteString(fmt.Sprintf("\\begin{tabular}{|l|%v}\n\\hline\n", strings.Repeat("c|", len(g.Header)-1)))
	header := make([]string, len(g.Header))
	for i, name := range g.Header {
		header[i] = latexEscape(name)
	}
	builder.WriteString(strings.Join(header, " & ") + " \\\\\n\\hline\n")
	for _, row := range g.Rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			if i == 0 {
				cell = TruncateLabel(cell, 5)
			}
			cells[i] = latexEscape(cell)
		}
		builder.WriteString(strings.Join(cells, " & ") + " \\\\\n")
	}
	builder.WriteString("\\hline\n\\end{tabular}\n\\end{table}\n")
	return builder.String()
}

// WriteMatrixCSV persists a raw matrix as a table-by-version numeric grid,
// readable back by ReadMatrixCSV for a second normalization pass.
func WriteMatrixCSV(m *Matrix, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	writer := csv.NewWriter(file)
	if err := writer.Write(append([]string{"table_name"}, m.Versions...)); err != nil {
		return err
	}
	for _, table := range m.AllRows() {
		row := []string{table}
		for _, version := range m.Versions {
			row = append(row, strconv.FormatFloat(m.Value(table, version), 'f', -1, 64))
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadMatrixCSV loads a persisted matrix. Rows named like the synthetic ones
// are flagged synthetic again so they keep rendering distinguishably.
func ReadMatrixCSV(path string, field ValueField) (*Matrix, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("matrix file %v has no header: %w", path, err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("matrix file %v has no version columns", path)
	}
	matrix := NewMatrix(field)
	versions := header[1:]
	for {
		row, err := reader.Read()
		if err != nil {
			break
		}
		table := row[0]
		for i, version := range versions {
			if i+1 >= len(row) {
				break
			}
			value, err := strconv.ParseFloat(row[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("matrix file %v has non-numeric cell %q for table %v", path, row[i+1], table)
			}
			matrix.Set(table, version, value)
		}
	}
	matrix.relayout()
	synthetic := make([]string, 0)
	tables := matrix.Tables[:0]
	for _, table := range matrix.Tables {
		if table == TotalRow || table == OverallAverageRow {
			synthetic = append(synthetic, table)
		} else {
			tables = append(tables, table)
		}
	}
	matrix.Tables = tables
	matrix.Synthetic = synthetic
	return matrix, nil
}
