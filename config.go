package main

import (
	"os"
	"strconv"
)

// Config carries every knob of one benchmark campaign. Campaigns receive it
// explicitly so runs stay composable and testable in isolation.
type Config struct {
	DataDir       string
	OutputDir     string
	ResultDir     string
	SchemaMapping string
	LogDir        string

	BlockSize     int
	MinMultiplier int
	RowGranule    int

	FullScanRepetitions     int
	RandomAccessRepetitions int
	RandomAccessOffset      int

	BaselineVersion string
	EngineVersion   string
}

func StringEnv(key string, def string) string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	return value
}

func IntEnv(key string, def int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func ConfigFromEnv() Config {
	return Config{
		DataDir:       StringEnv("BENCHMARK_DATA_DIR", "data"),
		OutputDir:     StringEnv("BENCHMARK_OUTPUT_DIR", "output"),
		ResultDir:     StringEnv("BENCHMARK_RESULT_DIR", "result"),
		SchemaMapping: StringEnv("BENCHMARK_SCHEMA_MAPPING", "schema_mappings.json"),
		LogDir:        StringEnv("BENCHMARK_LOG_DIR", "logs"),

		BlockSize:     IntEnv("BENCHMARK_BLOCK_SIZE", 120*1024),
		MinMultiplier: IntEnv("BENCHMARK_MIN_MULTIPLIER", 10),
		RowGranule:    IntEnv("BENCHMARK_ROW_GRANULE", 1024),

		FullScanRepetitions:     IntEnv("BENCHMARK_FULL_SCAN_REPETITIONS", 10),
		RandomAccessRepetitions: IntEnv("BENCHMARK_RANDOM_ACCESS_REPETITIONS", 10),
		RandomAccessOffset:      IntEnv("BENCHMARK_RANDOM_ACCESS_OFFSET", 0),

		BaselineVersion: StringEnv("BENCHMARK_BASELINE_VERSION", "sqlite_native"),
		EngineVersion:   StringEnv("BENCHMARK_ENGINE_VERSION", "3."),
	}
}
