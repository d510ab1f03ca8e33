package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLite keeps every blob as a row of a single table.
type SQLite struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenSQLite opens or creates the database at dsn. Use ":memory:" for a
// private in-memory database.
func OpenSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// An in-memory database lives as long as its connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS shared_objects (
		name TEXT PRIMARY KEY,
		data BLOB NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Get(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var data []byte
	err := s.db.QueryRow("SELECT data FROM shared_objects WHERE name = ?", name).Scan(&data)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Errorf("reading %q: %s", name, err)
		}
		return nil, false
	}
	return data, true
}

func (s *SQLite) Put(name string, data []byte) bool {
	if !ValidKey(name) {
		log.Warningf("refusing to store invalid key %q", name)
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec("INSERT OR REPLACE INTO shared_objects (name, data) VALUES (?, ?)", name, data)
	if err != nil {
		log.Errorf("writing %q: %s", name, err)
		return false
	}
	return true
}

func (s *SQLite) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec("DELETE FROM shared_objects WHERE name = ?", name); err != nil {
		log.Warningf("removing %q: %s", name, err)
	}
}
