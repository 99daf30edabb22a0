package database

import (
	"database/sql"
	"fmt"
	"log"
	"sync"

	_ "modernc.org/sqlite"
)

var (
	db   *sql.DB
	once sync.Once
)

// Config holds database configuration
type Config struct {
	Path string
}

// pragmas applied to every handle. WAL keeps readers off the writers'
// backs; busy_timeout matters because verification timers and HTTP
// handlers share the pool and must wait for locks instead of failing.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA foreign_keys=ON",
	"PRAGMA busy_timeout=5000",
}

// Init opens the process-wide database handle. Subsequent calls are no-ops.
func Init(cfg Config) error {
	var err error
	once.Do(func() {
		db, err = Open(cfg.Path)
		if err != nil {
			return
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		log.Printf("[Database] initialized: %s", cfg.Path)
	})
	return err
}

// Open opens a standalone database handle outside the package singleton.
// Tests and the CLI use this form so they never share the server's pool.
func Open(path string) (*sql.DB, error) {
	dbh, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	for _, pragma := range pragmas {
		if _, err := dbh.Exec(pragma); err != nil {
			dbh.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if err := dbh.Ping(); err != nil {
		dbh.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbh, nil
}

// GetDB returns the database instance
func GetDB() *sql.DB {
	if db == nil {
		log.Fatal("Database not initialized. Call Init() first.")
	}
	return db
}

// Close closes the database connection
func Close() error {
	if db != nil {
		return db.Close()
	}
	return nil
}

// Transaction executes a function within a transaction on the package
// handle.
func Transaction(fn func(*sql.Tx) error) error {
	return TransactionOn(db, fn)
}

// TransactionOn executes a function within a transaction on the given
// handle, rolling back on error or panic.
func TransactionOn(dbh *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := dbh.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
