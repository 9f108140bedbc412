package corpus

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store is a local sqlite cache of fetched corpora keyed by source URL, so a
// second run against the same source works offline.
type Store struct {
	db *sql.DB
}

func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("corpus: open store %s: %w", path, err)
	}
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS corpus_lines(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL,
			pos INTEGER NOT NULL,
			line TEXT NOT NULL
		)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("corpus: create corpus_lines: %w", err)
	}
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS fetch_events(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ts REAL NOT NULL,
			source TEXT NOT NULL,
			line_count INTEGER NOT NULL
		)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("corpus: create fetch_events: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveLines replaces the cached lines for a source.
func (s *Store) SaveLines(source string, lines []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("corpus: begin save: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM corpus_lines WHERE source = ?", source); err != nil {
		tx.Rollback()
		return fmt.Errorf("corpus: clear cache: %w", err)
	}
	for i, line := range lines {
		if _, err := tx.Exec("INSERT INTO corpus_lines(source, pos, line) VALUES(?,?,?)", source, i, line); err != nil {
			tx.Rollback()
			return fmt.Errorf("corpus: insert line %d: %w", i, err)
		}
	}
	if _, err := tx.Exec("INSERT INTO fetch_events(ts, source, line_count) VALUES(?,?,?)",
		float64(time.Now().UnixMilli())/1000.0, source, len(lines)); err != nil {
		tx.Rollback()
		return fmt.Errorf("corpus: record fetch event: %w", err)
	}
	return tx.Commit()
}

// LoadLines returns the cached lines for a source in original order, or nil
// when the source has never been cached.
func (s *Store) LoadLines(source string) ([]string, error) {
	rows, err := s.db.Query("SELECT line FROM corpus_lines WHERE source = ? ORDER BY pos ASC", source)
	if err != nil {
		return nil, fmt.Errorf("corpus: load cache: %w", err)
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, fmt.Errorf("corpus: scan line: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}
