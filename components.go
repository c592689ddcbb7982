package main

// Session is one scoped resource context (connection, file handle) acquired
// fresh for a single timed repetition and released before the next one starts.
type Session interface {
	Run() error
	Close() error
}

// Operation is a zero-argument unit of work under test.
type Operation interface {
	Name() string
	Prepare() (Session, error)
}

// Engine is one compression engine/codec variant under comparison. Version
// identifies the matrix column its records are tagged with.
type Engine interface {
	Version() string
	Verify() error
	Compress(table *LiveTable, out string) (CompressOp, error)
	FullScan(path string) Operation
	RandomAccess(path string, offset int) Operation
}

// CompressOp is an engine's timed "load" operation plus access to the
// artifact it produced. Session setup cost is part of what it measures.
type CompressOp interface {
	Operation
	FileSize() (int64, error)
	Cleanup() error
}

// ResultStore persists and reloads ResultRecord collections keyed by the
// producer that emitted them.
type ResultStore interface {
	Write(producer string, records []ResultRecord) error
	Read(producer string) (ResultSet, error)
}

// ToolRunner executes a named external step (repository sync, engine build)
// outside the measurement path.
type ToolRunner interface {
	Run(step string, args []string) error
}
