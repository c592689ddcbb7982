package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	root := t.TempDir()
	config := Config{
		DataDir:                 filepath.Join(root, "data"),
		OutputDir:               filepath.Join(root, "output"),
		ResultDir:               filepath.Join(root, "result"),
		LogDir:                  filepath.Join(root, "logs"),
		BlockSize:               6,
		MinMultiplier:           2,
		RowGranule:              2,
		FullScanRepetitions:     2,
		RandomAccessRepetitions: 2,
		RandomAccessOffset:      0,
		BaselineVersion:         "sqlite_native",
		EngineVersion:           "3.",
	}
	require.Nil(t, os.MkdirAll(config.DataDir, 0o755))
	return config
}

func testCampaign(t *testing.T, config Config) *Campaign {
	t.Helper()
	catalog, err := BuildCatalog(config.DataDir, SchemaMappings{})
	require.Nil(t, err)
	return &Campaign{
		Config:  config,
		Catalog: catalog,
		Engines: []Engine{
			&EngineSQLite{Variant: config.BaselineVersion, RequiredVersion: config.EngineVersion},
			&EngineGzip{Variant: "gzip_best", Level: gzip.BestCompression},
		},
		Stores: []ResultStore{&CSVStore{Dir: config.ResultDir}},
		Tools:  &ExecToolRunner{LogDir: config.LogDir},
	}
}

func TestCampaignEndToEnd(t *testing.T) {
	config := testConfig(t)
	require.Nil(t, os.WriteFile(
		filepath.Join(config.DataDir, "Arade_1.csv"),
		[]byte("a|1\nb|2\nc|3\nd|4\n"),
		0o644,
	))

	campaign := testCampaign(t, config)
	require.Nil(t, campaign.Run())

	store := &CSVStore{Dir: config.ResultDir}
	for _, version := range []string{"sqlite_native", "gzip_best"} {
		set, err := store.Read(version)
		require.Nil(t, err)
		require.Len(t, set.Records, 1)
		require.Nil(t, set.Validate())

		record := set.Records[0]
		require.Equal(t, "Arade_1", record.TableName)
		require.Equal(t, version, record.Version)
		// 4 rows, block 6, m0 2: multiplier 3.
		require.Equal(t, nullInt(3), record.ReplicationMultiplier)
		require.True(t, record.CompressionTimeMs.Valid)
		require.True(t, record.DecompressionTimeMs.Valid)
		require.True(t, record.RandomAccessTimeMs.Valid)
		require.Equal(t, nullInt(2), record.RepetitionsFullScan)
		require.Equal(t, nullInt(2), record.RepetitionsRandomAccess)
	}

	details, err := os.ReadFile(filepath.Join(config.ResultDir, "column_types.csv"))
	require.Nil(t, err)
	require.Contains(t, string(details), "Arade_1,sqlite_native,c0,TEXT")
}

func TestCampaignSkipsMisalignedTable(t *testing.T) {
	config := testConfig(t)
	// 3 rows is not a multiple of the 2-row granule.
	require.Nil(t, os.WriteFile(
		filepath.Join(config.DataDir, "Odd_1.csv"),
		[]byte("a|1\nb|2\nc|3\n"),
		0o644,
	))

	campaign := testCampaign(t, config)
	require.Nil(t, campaign.Run())

	store := &CSVStore{Dir: config.ResultDir}
	set, err := store.Read("sqlite_native")
	require.Nil(t, err)
	require.Empty(t, set.Records)
}

func TestCampaignFatalOnRowCountMismatch(t *testing.T) {
	config := testConfig(t)
	require.Nil(t, os.WriteFile(
		filepath.Join(config.DataDir, "Tampered_1.csv"),
		[]byte("a|1\nb|2\n"),
		0o644,
	))

	campaign := testCampaign(t, config)
	// Simulate parsing divergence between the independent count and the load.
	campaign.Catalog.Tables[0].RowCount = 3
	err := campaign.Run()
	require.NotNil(t, err)
	require.ErrorContains(t, err, "independent count")
}

func TestCampaignFatalOnFailedVerification(t *testing.T) {
	config := testConfig(t)
	campaign := testCampaign(t, config)
	campaign.Engines = append(campaign.Engines, &EngineSQLite{Variant: "future", RequiredVersion: "99."})
	err := campaign.Run()
	require.NotNil(t, err)
	require.ErrorContains(t, err, "verification")
}

func TestCampaignFatalOnFailedToolStep(t *testing.T) {
	config := testConfig(t)
	campaign := testCampaign(t, config)
	campaign.Steps = []ToolStep{{Name: "sync-data", Args: []string{"false"}}}
	err := campaign.Run()
	require.NotNil(t, err)
	require.ErrorContains(t, err, "precondition step")
}

func TestHostStatParameters(t *testing.T) {
	parameters := HostStat().Parameters()
	require.Contains(t, parameters, "arch")
	require.Contains(t, parameters, "hostname")
	require.Contains(t, parameters, "cpu")
}
