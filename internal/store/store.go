// Package store implements the Trestle workspace store. The schema catalog
// lives in fixed meta tables managed through GORM; each logical table's
// records live in a dedicated data_<id> table whose column set grows as
// fields are added and never shrinks. Catalog and records share a single
// SQLite connection, and the store assumes one caller mutates it at a time.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mesh-intelligence/trestle/pkg/types"

	_ "modernc.org/sqlite" // pure Go SQLite driver, no CGO required
)

// DBFileName is the SQLite database file created inside the data directory.
const DBFileName = "trestle.db"

// Store owns the catalog and record storage for one workspace.
type Store struct {
	mu      sync.RWMutex
	open    bool
	dataDir string
	dbPath  string
	gdb     *gorm.DB
	db      *sql.DB
}

// Open creates the data directory if needed, opens the workspace database,
// applies the SQLite session settings, and migrates the catalog schema.
// Catalog migration is additive only, so databases written by older
// versions open cleanly and gain any missing columns.
func Open(dataDir string) (*Store, error) {
	if dataDir == "" {
		return nil, types.ErrDataDirEmpty
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, DBFileName)
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_time_format=sqlite"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	gdb, err := gorm.Open(sqlite.Dialector{Conn: sqlDB}, &gorm.Config{
		Logger:      logger.Default.LogMode(logger.Silent),
		PrepareStmt: true,
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("initializing gorm: %w", err)
	}

	// WAL with NORMAL sync is safe and fast for a single local writer.
	if err := gdb.Exec("PRAGMA journal_mode = WAL;").Error; err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if err := gdb.Exec("PRAGMA synchronous = NORMAL;").Error; err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("setting synchronous mode: %w", err)
	}

	// SQLite supports one writer; a second connection would only block.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := gdb.AutoMigrate(
		&types.Project{},
		&types.Table{},
		&types.Field{},
		&types.View{},
		&types.TablePrefs{},
	); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrating catalog schema: %w", err)
	}

	// Rows written before explicit ordering existed carry NULL positions;
	// backfilling with the row id preserves their creation order.
	if err := gdb.Exec("UPDATE meta_fields SET position = id WHERE position IS NULL;").Error; err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("backfilling field positions: %w", err)
	}
	if err := gdb.Exec("UPDATE meta_views SET position = id WHERE position IS NULL;").Error; err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("backfilling view positions: %w", err)
	}

	return &Store{
		open:    true,
		dataDir: dataDir,
		dbPath:  dbPath,
		gdb:     gdb,
		db:      sqlDB,
	}, nil
}

// DataDir returns the directory this store was opened against.
func (s *Store) DataDir() string { return s.dataDir }

// DBPath returns the path of the SQLite database file.
func (s *Store) DBPath() string { return s.dbPath }

// Flush forces a WAL checkpoint so the main database file alone contains
// every committed write. Called before snapshotting the file for backup.
func (s *Store) Flush() error {
	_, db, err := s.handles()
	if err != nil {
		return err
	}
	if _, err := db.Exec("PRAGMA wal_checkpoint(TRUNCATE);"); err != nil {
		return fmt.Errorf("checkpointing WAL: %w", err)
	}
	return nil
}

// Close flushes and releases the database. Operations on a closed store
// return ErrStoreClosed. Close is idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return nil
	}
	s.open = false
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE);")
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// handles returns the database handles, or ErrStoreClosed after Close.
func (s *Store) handles() (*gorm.DB, *sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.open {
		return nil, nil, types.ErrStoreClosed
	}
	return s.gdb, s.db, nil
}

// nowStamp returns the record timestamp format: RFC 3339 in UTC. The form
// sorts lexicographically in chronological order, which the updated_at
// index relies on.
func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
