package main

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"
)

const Version = "v1"

// ToolStep is one named external precondition step run before measurements.
type ToolStep struct {
	Name string
	Args []string
}

// Campaign sequences one full measurement run: catalog, replication, timed
// harness, result records, stores. Strictly sequential, measurements never
// overlap.
type Campaign struct {
	Config  Config
	Catalog Catalog
	Engines []Engine
	Stores  []ResultStore
	Tools   ToolRunner
	Steps   []ToolStep
}

type SysInfo struct {
	Arch     string
	Hostname string
	Platform string
	CPUCount int
	CPUFreq  float64
	RAM      float64
}

func HostStat() SysInfo {
	hostStat, _ := host.Info()
	cpuStat, _ := cpu.Info()
	vmStat, _ := mem.VirtualMemory()
	totalFreq := 0.0
	for _, cpu := range cpuStat {
		totalFreq += cpu.Mhz
	}
	info := SysInfo{
		Arch:     runtime.GOARCH,
		Hostname: hostStat.Hostname,
		Platform: hostStat.Platform,
		CPUCount: len(cpuStat),
		CPUFreq:  totalFreq / float64(len(cpuStat)) * 1000,
		RAM:      float64(vmStat.Total) / 1024 / 1024 / 1024,
	}
	return info
}

func (c SysInfo) Parameters() map[string]any {
	return map[string]any{
		"arch":      c.Arch,
		"hostname":  c.Hostname,
		"platform":  c.Platform,
		"cpu":       c.CPUCount,
		"freq":      c.CPUFreq,
		"ram":       c.RAM,
		"benchmark": Version,
	}
}

// ColumnDetail is one row of the per-column storage breakdown.
type ColumnDetail struct {
	TableName string
	Version   string
	Column    string
	DataType  string
}

// Run executes the whole campaign: precondition steps, engine verification,
// then per table and per engine the load, full-scan and random-access
// measurements. A campaign that fails partway aborts entirely rather than
// resuming, partial runs are not comparable.
func (c *Campaign) Run() error {
	Logger.Infof("start campaign")
	info := HostStat()
	Logger.Infof("host stat: %+v", info)

	for _, step := range c.Steps {
		if err := c.Tools.Run(step.Name, step.Args); err != nil {
			return fmt.Errorf("precondition step %v failed: %w", step.Name, err)
		}
	}
	for _, engine := range c.Engines {
		if err := engine.Verify(); err != nil {
			return fmt.Errorf("engine %v failed verification: %w", engine.Version(), err)
		}
	}
	if err := os.MkdirAll(c.Config.OutputDir, 0o755); err != nil {
		return err
	}

	records := make(map[string][]ResultRecord)
	details := make([]ColumnDetail, 0)
	for _, desc := range c.Catalog.Tables {
		tableRecords, tableDetails, err := c.measureTable(desc)
		if err != nil {
			return fmt.Errorf("failed to measure table %v: %w", desc.Name, err)
		}
		for version, record := range tableRecords {
			records[version] = append(records[version], record)
		}
		details = append(details, tableDetails...)
	}

	for _, engine := range c.Engines {
		version := engine.Version()
		for _, store := range c.Stores {
			if err := store.Write(version, records[version]); err != nil {
				return fmt.Errorf("failed to persist results of %v: %w", version, err)
			}
		}
	}
	if err := c.writeColumnDetails(details); err != nil {
		return err
	}
	Logger.Infof("campaign finished, %v engines over %v tables", len(c.Engines), len(c.Catalog.Tables))
	return nil
}

// measureTable loads and replicates one table, then measures every engine
// against it. A misaligned table is skipped whole: excluded from size and
// time results, no error.
func (c *Campaign) measureTable(desc TableDescriptor) (map[string]ResultRecord, []ColumnDetail, error) {
	table, err := OpenTable(desc.Name, filepath.Join(c.Config.OutputDir, fmt.Sprintf("%v.db", desc.Name)))
	if err != nil {
		return nil, nil, err
	}
	defer table.Close()

	if err := table.LoadCSV(desc); err != nil {
		return nil, nil, err
	}
	rows, err := table.RowCount()
	if err != nil {
		return nil, nil, err
	}
	// A diverging count signals silent parsing divergence that would
	// invalidate every downstream number.
	if rows != desc.RowCount {
		return nil, nil, fmt.Errorf("table %v loaded %v rows, independent count is %v", desc.Name, rows, desc.RowCount)
	}
	Logger.Infof("loaded table %v with %v rows", desc.Name, rows)

	multiplier, status, err := Replicate(table, c.Config.BlockSize, c.Config.MinMultiplier, c.Config.RowGranule)
	if err != nil {
		return nil, nil, err
	}
	if status == ReplicationSkipped {
		return nil, nil, nil
	}

	columns, err := table.ColumnTypes()
	if err != nil {
		return nil, nil, err
	}

	records := make(map[string]ResultRecord)
	details := make([]ColumnDetail, 0)
	for _, engine := range c.Engines {
		record, err := c.measureEngine(engine, table, multiplier)
		if err != nil {
			return nil, nil, err
		}
		records[engine.Version()] = record
		for _, column := range columns {
			details = append(details, ColumnDetail{
				TableName: desc.Name,
				Version:   engine.Version(),
				Column:    column.Name,
				DataType:  column.Type,
			})
		}
	}
	return records, details, nil
}

// measureEngine runs the three measurements of one engine variant over a
// replicated table. Compression times include session setup, access times do
// not. Costs scaling with the replicated size divide by the multiplier so
// tables of different multipliers stay comparable.
func (c *Campaign) measureEngine(engine Engine, table *LiveTable, multiplier int) (ResultRecord, error) {
	version := engine.Version()
	artifact := filepath.Join(c.Config.OutputDir, fmt.Sprintf("%v-%v.bin", table.Name, version))
	compress, err := engine.Compress(table, artifact)
	if err != nil {
		return ResultRecord{}, err
	}
	defer compress.Cleanup()

	Logger.Infof("compressing table %v with engine %v", table.Name, version)
	load, err := Harness{Repetitions: 1, MeasureSetup: true}.Measure(compress)
	if err != nil {
		return ResultRecord{}, err
	}
	size, err := compress.FileSize()
	if err != nil {
		return ResultRecord{}, err
	}

	Logger.Infof("scanning table %v with engine %v", table.Name, version)
	scan, err := Harness{Repetitions: c.Config.FullScanRepetitions}.Measure(engine.FullScan(artifact))
	if err != nil {
		return ResultRecord{}, err
	}
	Logger.Infof("random access on table %v with engine %v", table.Name, version)
	random, err := Harness{Repetitions: c.Config.RandomAccessRepetitions}.Measure(engine.RandomAccess(artifact, c.Config.RandomAccessOffset))
	if err != nil {
		return ResultRecord{}, err
	}

	m := float64(multiplier)
	return ResultRecord{
		TableName:           table.Name,
		Version:             version,
		FileSize:            sql.NullInt64{Int64: int64(float64(size)/m + 0.5), Valid: true},
		CompressionTimeMs:   sql.NullFloat64{Float64: round2(load.MeanMs / m), Valid: true},
		DecompressionTimeMs: sql.NullFloat64{Float64: round2(scan.TotalMs / m), Valid: true},
		RandomAccessTimeMs:  sql.NullFloat64{Float64: random.TotalMs, Valid: true},
		RepetitionsFullScan: sql.NullInt64{
			Int64: int64(scan.Repetitions), Valid: true,
		},
		RepetitionsRandomAccess: sql.NullInt64{
			Int64: int64(random.Repetitions), Valid: true,
		},
		ReplicationMultiplier: sql.NullInt64{Int64: int64(multiplier), Valid: true},
	}, nil
}

func (c *Campaign) writeColumnDetails(details []ColumnDetail) error {
	if err := os.MkdirAll(c.Config.ResultDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(c.Config.ResultDir, "column_types.csv")
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"table_name", "version", "name", "data_type"}); err != nil {
		return err
	}
	for _, detail := range details {
		if err := writer.Write([]string{detail.TableName, detail.Version, detail.Column, detail.DataType}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
