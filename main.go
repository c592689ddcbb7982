package main

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/klauspost/compress/gzip"
)

// generatedFiles are outputs of the pipeline itself, never read back as
// producer result sets.
var generatedFiles = map[string]bool{
	"column_types.csv":          true,
	"aggregated_file_sizes.csv": true,
	"table_1_raw_data.csv":      true,
	"table_2_raw_data.csv":      true,
	"random_access_raw.csv":     true,
}

// loadProducers reads every producer result file under the result directory,
// the campaign's own engines plus whatever external producers dropped there.
// A missing or malformed file is an empty contribution with a warning.
func loadProducers(store *CSVStore) []ResultSet {
	entries, err := os.ReadDir(store.Dir)
	if err != nil {
		Logger.Warnf("failed to read result directory %v: %v", store.Dir, err)
		return nil
	}
	sets := make([]ResultSet, 0)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".csv") || generatedFiles[name] {
			continue
		}
		producer := strings.TrimSuffix(name, ".csv")
		set, err := store.Read(producer)
		if err != nil {
			Logger.Warnf("skipping producer %v: %v", producer, err)
			continue
		}
		sets = append(sets, set)
	}
	return sets
}

func includeVersions() []string {
	raw := StringEnv("BENCHMARK_INCLUDE_VERSIONS", "")
	if raw == "" {
		return nil
	}
	versions := make([]string, 0)
	for _, version := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(version); trimmed != "" {
			versions = append(versions, trimmed)
		}
	}
	return versions
}

func saveText(path string, content string) {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		Logger.Fatalf("failed to write %v: %v", path, err)
	}
	Logger.Infof("saved %v", path)
}

// reportFileSizes builds the file-size comparison: raw matrix, a second
// normalization pass over the persisted grid, and the typeset table with
// signed percentage differences against the baseline (baseline shown in
// megabytes).
func reportFileSizes(config Config, sets []ResultSet) {
	matrix := Aggregate(sets, FieldFileSize)
	matrix.FilterVersions(includeVersions())
	matrix.AddTotalRow()

	rawPath := filepath.Join(config.ResultDir, "table_1_raw_data.csv")
	if err := WriteMatrixCSV(matrix, rawPath); err != nil {
		Logger.Fatalf("failed to persist file size matrix: %v", err)
	}
	Logger.Infof("saved %v", rawPath)

	reloaded, err := ReadMatrixCSV(rawPath, FieldFileSize)
	if err != nil {
		Logger.Fatalf("failed to reload file size matrix: %v", err)
	}
	normalized, ok := NormalizeRatios(reloaded, config.BaselineVersion)
	if !ok {
		return
	}
	normalized.ScaleBaseline(1.0 / (1024 * 1024))
	Logger.Infof("file sizes against %v:\n%v", config.BaselineVersion, ImprovementGrid(normalized, 1).Markdown())
	saveText(
		filepath.Join(config.ResultDir, "table_1.tex"),
		ImprovementGrid(normalized, 1).Latex("File size against "+config.BaselineVersion+" (baseline in MB)", "tab:table_1"),
	)
}

// reportCompressionRatios compares every version against an uncompressed
// reference producer when one exists.
func reportCompressionRatios(config Config, sets []ResultSet) {
	matrix := Aggregate(sets, FieldFileSize)
	rawPath := filepath.Join(config.ResultDir, "table_2_raw_data.csv")
	if err := WriteMatrixCSV(matrix, rawPath); err != nil {
		Logger.Fatalf("failed to persist compression ratio matrix: %v", err)
	}
	Logger.Infof("saved %v", rawPath)

	ratios, ok := InverseRatios(matrix, "uncompressed")
	if !ok {
		return
	}
	Logger.Infof("compression ratios:\n%v", RatioGrid(ratios, 2).Markdown())
	saveText(
		filepath.Join(config.ResultDir, "table_2.tex"),
		RatioGrid(ratios, 2).Latex("Compression ratios", "tab:table_2"),
	)
}

// reportRandomAccess builds the random-access comparison as factors against
// the baseline.
func reportRandomAccess(config Config, sets []ResultSet) {
	matrix := Aggregate(sets, FieldRandomAccessTimeMs)
	matrix.AddTotalRow()
	rawPath := filepath.Join(config.ResultDir, "random_access_raw.csv")
	if err := WriteMatrixCSV(matrix, rawPath); err != nil {
		Logger.Fatalf("failed to persist random access matrix: %v", err)
	}
	Logger.Infof("saved %v", rawPath)

	normalized, ok := NormalizeRatios(matrix, config.BaselineVersion)
	if !ok {
		return
	}
	Logger.Infof("random access times against %v:\n%v", config.BaselineVersion, RatioGrid(normalized, 5).Markdown())
	saveText(
		filepath.Join(config.ResultDir, "random_access.tex"),
		RatioGrid(normalized, 5).Latex("Random access time (ms)", "tab:random_access"),
	)
}

func reportVersionTotals(config Config, sets []ResultSet) {
	totals := AggregateVersionTotals(sets, FieldFileSize)
	path := filepath.Join(config.ResultDir, "aggregated_file_sizes.csv")
	file, err := os.Create(path)
	if err != nil {
		Logger.Fatalf("failed to write %v: %v", path, err)
	}
	defer file.Close()
	writer := csv.NewWriter(file)
	writer.Write([]string{"version", "file_size"})
	for _, total := range totals {
		writer.Write([]string{total.Version, strconv.FormatFloat(total.Total, 'f', -1, 64)})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		Logger.Fatalf("failed to write %v: %v", path, err)
	}
	Logger.Infof("saved %v", path)
}

func campaignSteps() []ToolStep {
	steps := make([]ToolStep, 0)
	if sync := StringEnv("BENCHMARK_SYNC_CMD", ""); sync != "" {
		steps = append(steps, ToolStep{Name: "sync-data", Args: strings.Fields(sync)})
	}
	if build := StringEnv("BENCHMARK_BUILD_CMD", ""); build != "" {
		steps = append(steps, ToolStep{Name: "build-engine", Args: strings.Fields(build)})
	}
	return steps
}

func main() {
	if err := godotenv.Load(); err != nil {
		Logger.Debugf("no .env file loaded: %v", err)
	}
	config := ConfigFromEnv()

	mappings, err := LoadSchemaMappings(config.SchemaMapping)
	if err != nil {
		Logger.Fatalf("failed to load schema mappings: %v", err)
	}
	catalog, err := BuildCatalog(config.DataDir, mappings)
	if err != nil {
		Logger.Fatalf("failed to build catalog: %v", err)
	}

	if err := os.MkdirAll(config.OutputDir, 0o755); err != nil {
		Logger.Fatalf("failed to create output directory: %v", err)
	}
	csvStore := &CSVStore{Dir: config.ResultDir}
	sqliteStore, err := OpenSQLiteStore(filepath.Join(config.OutputDir, "results.db"))
	if err != nil {
		Logger.Fatalf("failed to open results database: %v", err)
	}
	defer sqliteStore.Close()
	if err := sqliteStore.SaveParameters(HostStat().Parameters()); err != nil {
		Logger.Fatalf("failed to save campaign parameters: %v", err)
	}

	campaign := &Campaign{
		Config:  config,
		Catalog: catalog,
		Engines: []Engine{
			&EngineSQLite{Variant: config.BaselineVersion, RequiredVersion: config.EngineVersion},
			&EngineGzip{Variant: "gzip_best", Level: gzip.BestCompression},
			&EngineGzip{Variant: "gzip_fast", Level: gzip.BestSpeed},
		},
		Stores: []ResultStore{csvStore, sqliteStore},
		Tools:  &ExecToolRunner{LogDir: config.LogDir},
		Steps:  campaignSteps(),
	}
	if err := campaign.Run(); err != nil {
		Logger.Fatalf("campaign failed: %v", err)
	}

	sets := loadProducers(csvStore)
	reportFileSizes(config, sets)
	reportCompressionRatios(config, sets)
	reportRandomAccess(config, sets)
	reportVersionTotals(config, sets)
}
