package stats

import (
	"database/sql"
	"fmt"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// SQLiteExporter writes metric snapshots into a SQLite database. Every
// exporter tags its rows with a unique run id so that several runs can share
// one file.
type SQLiteExporter struct {
	*sql.DB
	statement *sql.Stmt

	dbName    string
	runID     string
	pending   []Sample
	batchSize int
}

// NewSQLiteExporter opens (or creates) the database at path. An empty path
// creates a fresh file named after the run id.
func NewSQLiteExporter(path string) (*SQLiteExporter, error) {
	runID := xid.New().String()
	if path == "" {
		path = runID + ".sqlite3"
	}

	e := &SQLiteExporter{
		dbName:    path,
		runID:     runID,
		batchSize: 10000,
	}

	if err := e.init(); err != nil {
		return nil, err
	}

	atexit.Register(func() { _ = e.Flush() })

	return e, nil
}

func (e *SQLiteExporter) init() error {
	db, err := sql.Open("sqlite3", e.dbName)
	if err != nil {
		return fmt.Errorf("failed to open stats database %s: %w", e.dbName, err)
	}
	e.DB = db

	_, err = e.Exec(`
		CREATE TABLE IF NOT EXISTS metrics (
			run_id TEXT NOT NULL,
			object TEXT NOT NULL,
			idx    INTEGER NOT NULL,
			name   TEXT NOT NULL,
			value  REAL NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to create metrics table: %w", err)
	}

	e.statement, err = e.Prepare(
		"INSERT INTO metrics (run_id, object, idx, name, value) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare metrics insert: %w", err)
	}

	return nil
}

// Name returns the database file path.
func (e *SQLiteExporter) Name() string {
	return e.dbName
}

// RunID returns the id attached to every row this exporter writes.
func (e *SQLiteExporter) RunID() string {
	return e.runID
}

// Record buffers samples, flushing when the batch is full.
func (e *SQLiteExporter) Record(samples []Sample) error {
	e.pending = append(e.pending, samples...)
	if len(e.pending) >= e.batchSize {
		return e.Flush()
	}
	return nil
}

// Export buffers a full snapshot of the registry.
func (e *SQLiteExporter) Export(r *Registry) error {
	return e.Record(r.Snapshot())
}

// Flush writes all buffered samples in a single transaction.
func (e *SQLiteExporter) Flush() error {
	if len(e.pending) == 0 {
		return nil
	}

	tx, err := e.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin stats transaction: %w", err)
	}

	stmt := tx.Stmt(e.statement)
	for _, s := range e.pending {
		_, err := stmt.Exec(e.runID, s.Object, s.Index, s.Name, s.Value)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert metric %s/%d/%s: %w",
				s.Object, s.Index, s.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit stats: %w", err)
	}

	e.pending = nil

	return nil
}

// Close flushes pending samples and closes the database.
func (e *SQLiteExporter) Close() error {
	if err := e.Flush(); err != nil {
		return err
	}

	if err := e.statement.Close(); err != nil {
		return err
	}

	return e.DB.Close()
}
