package main

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
)

func nullFloat(value float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: value, Valid: true}
}

func nullInt(value int64) sql.NullInt64 {
	return sql.NullInt64{Int64: value, Valid: true}
}

func TestRecordValidation(t *testing.T) {
	valid := ResultRecord{TableName: "A", Version: "X", FileSize: nullInt(100)}
	require.Nil(t, valid.Validate())

	require.NotNil(t, ResultRecord{Version: "X", FileSize: nullInt(100)}.Validate())
	require.NotNil(t, ResultRecord{TableName: "A", FileSize: nullInt(100)}.Validate())
	require.NotNil(t, ResultRecord{TableName: "A", Version: "X"}.Validate())
	require.NotNil(t, ResultRecord{TableName: "A", Version: "X", FileSize: nullInt(-1)}.Validate())
}

func TestResultSetValidation(t *testing.T) {
	set := ResultSet{Producer: "p", Records: []ResultRecord{
		{TableName: "A", Version: "X", FileSize: nullInt(1)},
		{TableName: "B", Version: "X"},
	}}
	err := set.Validate()
	require.NotNil(t, err)
	require.ErrorContains(t, err, "file_size")
}

func TestCanonicalFieldAliases(t *testing.T) {
	require.Equal(t, "random_access_time_ms", CanonicalField("random_access_ms"))
	require.Equal(t, "compression_time_ms", CanonicalField("compression_time"))
	require.Equal(t, "replication_multiplier", CanonicalField("times_data_repeated"))
	require.Equal(t, "file_size", CanonicalField("duckdb_file_size_1x"))
	// Unknown names pass through.
	require.Equal(t, "whatever", CanonicalField("whatever"))
}

func TestValueDividesByOwnRepetitionCount(t *testing.T) {
	record := ResultRecord{
		TableName:               "A",
		Version:                 "X",
		RandomAccessTimeMs:      nullFloat(100),
		RepetitionsRandomAccess: nullInt(10),
	}
	value, ok := record.Value(FieldRandomAccessTimeMs)
	require.True(t, ok)
	require.Equal(t, 10.0, value)
}

func TestValueFallsBackToGenericRepetition(t *testing.T) {
	record := ResultRecord{
		RandomAccessTimeMs: nullFloat(100),
		Repetitions:        nullInt(4),
	}
	value, ok := record.Value(FieldRandomAccessTimeMs)
	require.True(t, ok)
	require.Equal(t, 25.0, value)

	record = ResultRecord{
		DecompressionTimeMs: nullFloat(60),
		Repetitions:         nullInt(3),
	}
	value, ok = record.Value(FieldDecompressionTimeMs)
	require.True(t, ok)
	require.Equal(t, 20.0, value)
}

func TestValueSpecificCountWinsOverGeneric(t *testing.T) {
	record := ResultRecord{
		RandomAccessTimeMs:      nullFloat(100),
		Repetitions:             nullInt(2),
		RepetitionsRandomAccess: nullInt(5),
	}
	value, ok := record.Value(FieldRandomAccessTimeMs)
	require.True(t, ok)
	require.Equal(t, 20.0, value)
}

func TestValueWithoutRepetitionStaysRaw(t *testing.T) {
	record := ResultRecord{CompressionTimeMs: nullFloat(42.5)}
	value, ok := record.Value(FieldCompressionTimeMs)
	require.True(t, ok)
	require.Equal(t, 42.5, value)
}

func TestValueZeroRepetitionCountIsIgnored(t *testing.T) {
	record := ResultRecord{
		RandomAccessTimeMs:      nullFloat(100),
		RepetitionsRandomAccess: nullInt(0),
	}
	value, ok := record.Value(FieldRandomAccessTimeMs)
	require.True(t, ok)
	require.Equal(t, 100.0, value)
}

func TestValueAbsentField(t *testing.T) {
	record := ResultRecord{TableName: "A", Version: "X", FileSize: nullInt(5)}
	_, ok := record.Value(FieldRandomAccessTimeMs)
	require.False(t, ok)

	value, ok := record.Value(FieldFileSize)
	require.True(t, ok)
	require.Equal(t, 5.0, value)
}

func TestFileSizeNeverDividedByRepetitions(t *testing.T) {
	record := ResultRecord{FileSize: nullInt(1000), Repetitions: nullInt(10)}
	value, ok := record.Value(FieldFileSize)
	require.True(t, ok)
	require.Equal(t, 1000.0, value)
}
