// Package store persists the tracker collection. Trackers cross this
// boundary as plain records, never as live objects; the whole
// collection commits atomically in one transaction.
package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	_ "modernc.org/sqlite"
)

// ErrStore marks open, commit and close failures.
var ErrStore = errors.New("store error")

//go:embed schema.sql
var schemaFS embed.FS

// Event is one persisted completion.
type Event struct {
	At        time.Time
	Deviation time.Duration
}

// Record is the serializable shape of one tracker.
type Record struct {
	ID         int
	Name       string
	CreatedAt  time.Time
	ModifiedAt time.Time
	History    []Event
}

// Store is the persistence contract consumed by the tracker manager.
type Store interface {
	// Load reads the whole collection and the id counter. Absent
	// state initializes to an empty collection and counter 1.
	Load() (map[int]Record, int, error)
	// Commit durably replaces the collection and counter; either all
	// changes land or none do.
	Commit(records map[int]Record, nextID int) error
	Close() error
}

// SQLite is the Store implementation backed by modernc.org/sqlite.
type SQLite struct {
	db *sql.DB
}

func appDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	base := filepath.Join(home, ".local", "share", "cadence")
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", err
	}
	return base, nil
}

// DefaultPath returns the standard database location under the user's
// data directory.
func DefaultPath() (string, error) {
	dir, err := appDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cadence.db"), nil
}

// Open opens (creating if needed) the tracker database at path.
func Open(path string) (*SQLite, error) {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)",
		path,
	)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrStore, path, err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func migrate(db *sql.DB) error {
	b, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	if _, err := db.Exec(string(b)); err != nil {
		return fmt.Errorf("%w: schema apply failed: %v", ErrStore, err)
	}
	return nil
}

func (s *SQLite) Load() (map[int]Record, int, error) {
	records := make(map[int]Record)

	rows, err := s.db.Query(`SELECT id, name, created_at, modified_at FROM trackers`)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: load trackers: %v", ErrStore, err)
	}
	defer rows.Close()

	for rows.Next() {
		var r Record
		var created, modified string
		if err := rows.Scan(&r.ID, &r.Name, &created, &modified); err != nil {
			return nil, 0, fmt.Errorf("%w: scan tracker: %v", ErrStore, err)
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
			return nil, 0, fmt.Errorf("%w: bad created_at for %d: %v", ErrStore, r.ID, err)
		}
		if r.ModifiedAt, err = time.Parse(time.RFC3339, modified); err != nil {
			return nil, 0, fmt.Errorf("%w: bad modified_at for %d: %v", ErrStore, r.ID, err)
		}
		records[r.ID] = r
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: load trackers: %v", ErrStore, err)
	}

	crows, err := s.db.Query(`SELECT tracker_id, occurred_at, deviation_seconds FROM completions ORDER BY occurred_at`)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: load completions: %v", ErrStore, err)
	}
	defer crows.Close()

	for crows.Next() {
		var id int
		var occurred string
		var devSeconds int64
		if err := crows.Scan(&id, &occurred, &devSeconds); err != nil {
			return nil, 0, fmt.Errorf("%w: scan completion: %v", ErrStore, err)
		}
		at, err := time.Parse(time.RFC3339, occurred)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: bad occurred_at for %d: %v", ErrStore, id, err)
		}
		r, ok := records[id]
		if !ok {
			continue // orphan row, skip
		}
		r.History = append(r.History, Event{At: at, Deviation: time.Duration(devSeconds) * time.Second})
		records[id] = r
	}
	if err := crows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: load completions: %v", ErrStore, err)
	}

	for id, r := range records {
		sort.Slice(r.History, func(i, j int) bool { return r.History[i].At.Before(r.History[j].At) })
		records[id] = r
	}

	nextID := 1
	var raw string
	err = s.db.QueryRow(`SELECT value FROM meta WHERE key = 'next_id'`).Scan(&raw)
	switch {
	case err == sql.ErrNoRows:
		// first use
	case err != nil:
		return nil, 0, fmt.Errorf("%w: load next_id: %v", ErrStore, err)
	default:
		if nextID, err = strconv.Atoi(raw); err != nil {
			return nil, 0, fmt.Errorf("%w: bad next_id %q: %v", ErrStore, raw, err)
		}
	}

	// The counter must stay ahead of every allocated id.
	for id := range records {
		if id >= nextID {
			nextID = id + 1
		}
	}

	return records, nextID, nil
}

func (s *SQLite) Commit(records map[int]Record, nextID int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrStore, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM completions`); err != nil {
		return fmt.Errorf("%w: clear completions: %v", ErrStore, err)
	}
	if _, err := tx.Exec(`DELETE FROM trackers`); err != nil {
		return fmt.Errorf("%w: clear trackers: %v", ErrStore, err)
	}

	for _, r := range records {
		_, err := tx.Exec(
			`INSERT INTO trackers(id, name, created_at, modified_at) VALUES(?,?,?,?)`,
			r.ID, r.Name, r.CreatedAt.Format(time.RFC3339), r.ModifiedAt.Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("%w: insert tracker %d: %v", ErrStore, r.ID, err)
		}
		for _, e := range r.History {
			_, err := tx.Exec(
				`INSERT INTO completions(tracker_id, occurred_at, deviation_seconds) VALUES(?,?,?)`,
				r.ID, e.At.Format(time.RFC3339), int64(e.Deviation/time.Second),
			)
			if err != nil {
				return fmt.Errorf("%w: insert completion for %d: %v", ErrStore, r.ID, err)
			}
		}
	}

	_, err = tx.Exec(
		`INSERT INTO meta(key, value) VALUES('next_id', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		strconv.Itoa(nextID),
	)
	if err != nil {
		return fmt.Errorf("%w: save next_id: %v", ErrStore, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrStore, err)
	}
	return nil
}

func (s *SQLite) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("%w: close: %v", ErrStore, err)
	}
	return nil
}
