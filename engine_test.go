package main

import (
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

func measureEngineOnce(t *testing.T, engine Engine, table *LiveTable) int64 {
	t.Helper()
	artifact := filepath.Join(t.TempDir(), "artifact.bin")
	compress, err := engine.Compress(table, artifact)
	require.Nil(t, err)
	defer compress.Cleanup()

	_, err = Harness{Repetitions: 2, MeasureSetup: true}.Measure(compress)
	require.Nil(t, err)
	size, err := compress.FileSize()
	require.Nil(t, err)
	require.Greater(t, size, int64(0))

	_, err = Harness{Repetitions: 3}.Measure(engine.FullScan(artifact))
	require.Nil(t, err)
	_, err = Harness{Repetitions: 3}.Measure(engine.RandomAccess(artifact, 1))
	require.Nil(t, err)
	return size
}

func TestEngineSQLiteEndToEnd(t *testing.T) {
	table := loadTestTable(t, "corpus", []string{"a|1", "b|2", "c|3", "d|null"})
	engine := &EngineSQLite{Variant: "sqlite_native", RequiredVersion: "3."}
	require.Nil(t, engine.Verify())
	measureEngineOnce(t, engine, table)
}

func TestEngineGzipEndToEnd(t *testing.T) {
	table := loadTestTable(t, "corpus", []string{"a|1", "b|2", "c|3", "d|null"})
	engine := &EngineGzip{Variant: "gzip_best", Level: gzip.BestCompression}
	require.Nil(t, engine.Verify())
	measureEngineOnce(t, engine, table)
}

func TestEngineSQLiteVerifyRejectsWrongVersion(t *testing.T) {
	engine := &EngineSQLite{Variant: "sqlite_native", RequiredVersion: "99."}
	require.NotNil(t, engine.Verify())
}

func TestEngineGzipVerifyRejectsBadLevel(t *testing.T) {
	engine := &EngineGzip{Variant: "gzip", Level: 42}
	require.NotNil(t, engine.Verify())
}

func TestEngineScanFailsOnMissingArtifact(t *testing.T) {
	engine := &EngineGzip{Variant: "gzip_best", Level: gzip.BestCompression}
	_, err := Harness{Repetitions: 1}.Measure(engine.FullScan(filepath.Join(t.TempDir(), "absent.bin")))
	require.NotNil(t, err)
}
