// Package persistence archives the community chronicle in SQLite: yearly
// statistics, events, and the latest census of persons, bonds and tribes.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/kindred/internal/community"
	"github.com/talgya/kindred/internal/engine"
)

// DB wraps a SQLite connection for the chronicle.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS years (
		year INTEGER PRIMARY KEY,
		population INTEGER NOT NULL,
		tribes INTEGER NOT NULL,
		families INTEGER NOT NULL,
		births INTEGER NOT NULL,
		deaths INTEGER NOT NULL,
		avg_age REAL NOT NULL,
		hardship REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		year INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS persons (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		age INTEGER NOT NULL,
		gender TEXT NOT NULL,
		job TEXT NOT NULL,
		born INTEGER NOT NULL,
		traits_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS relations (
		from_id TEXT NOT NULL,
		to_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		PRIMARY KEY (from_id, to_id, kind)
	);

	CREATE TABLE IF NOT EXISTS tribes (
		leader_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		size INTEGER NOT NULL,
		strength REAL NOT NULL,
		wisdom REAL NOT NULL,
		members_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chronicle_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_year ON events(year);
	CREATE INDEX IF NOT EXISTS idx_events_category ON events(category);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveYear records one year's statistics, replacing any earlier row for
// the same year.
func (db *DB) SaveYear(s engine.Stats) error {
	_, err := db.conn.NamedExec(`INSERT OR REPLACE INTO years
		(year, population, tribes, families, births, deaths, avg_age, hardship)
		VALUES (:year, :population, :tribes, :families, :births, :deaths, :avg_age, :hardship)`, s)
	if err != nil {
		return fmt.Errorf("save year %d: %w", s.Year, err)
	}
	return nil
}

// SaveEvents appends events to the database.
func (db *DB) SaveEvents(events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO events (year, description, category) VALUES (?, ?, ?)",
			e.Year, e.Description, e.Category,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveTribes writes the current tribes (full replace).
func (db *DB) SaveTribes(tribes []community.TribeView) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM tribes"); err != nil {
		return err
	}
	for _, t := range tribes {
		membersJSON, _ := json.Marshal(t.Members)
		_, err := tx.Exec(`INSERT INTO tribes
			(leader_id, name, size, strength, wisdom, members_json)
			VALUES (?, ?, ?, ?, ?, ?)`,
			t.Leader.String(), t.Name, t.Size, t.Strength, t.Wisdom, string(membersJSON),
		)
		if err != nil {
			return fmt.Errorf("insert tribe %s: %w", t.Name, err)
		}
	}

	return tx.Commit()
}

// SaveCensus writes persons, bonds and tribes from a snapshot (full
// replace) in one transaction.
func (db *DB) SaveCensus(snap community.Snapshot) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM persons"); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM relations"); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO persons
		(id, name, age, gender, job, born, traits_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range snap.Persons {
		traitsJSON, _ := json.Marshal(p.Traits)
		_, err := stmt.Exec(p.ID.String(), p.Name, p.Age, p.Gender.String(), p.Job, p.Born, string(traitsJSON))
		if err != nil {
			return fmt.Errorf("insert person %s: %w", p.ID, err)
		}
	}

	for _, e := range snap.Edges {
		_, err := tx.Exec("INSERT INTO relations (from_id, to_id, kind) VALUES (?, ?, ?)",
			e.From.String(), e.To.String(), e.Kind.String())
		if err != nil {
			return fmt.Errorf("insert relation %s-%s: %w", e.From, e.To, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	if err := db.SaveTribes(snap.Tribes); err != nil {
		return fmt.Errorf("save tribes: %w", err)
	}
	return db.SaveMeta("last_year", fmt.Sprintf("%d", snap.Year))
}

// SaveMeta stores a key-value pair in chronicle metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO chronicle_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM chronicle_meta WHERE key = ?", key)
	return value, err
}

// Archive is an engine year-end hook: it saves the year's stats and
// events.
func (db *DB) Archive(stats engine.Stats, events []engine.Event) error {
	if err := db.SaveYear(stats); err != nil {
		return err
	}
	if err := db.SaveEvents(events); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	slog.Debug("year archived", "year", stats.Year, "events", len(events))
	return nil
}

// History returns up to limit of the latest yearly rows, oldest first.
func (db *DB) History(limit int) ([]engine.Stats, error) {
	var rows []engine.Stats
	err := db.conn.Select(&rows, `SELECT * FROM (
		SELECT year, population, tribes, families, births, deaths, avg_age, hardship
		FROM years ORDER BY year DESC LIMIT ?) ORDER BY year ASC`, limit)
	return rows, err
}

// RecentEvents returns the most recent N events, newest first.
func (db *DB) RecentEvents(limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		"SELECT year, description, category FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	return events, err
}

// CountPersons returns the number of persons in the last saved census.
func (db *DB) CountPersons() (int, error) {
	var n int
	err := db.conn.Get(&n, "SELECT COUNT(*) FROM persons")
	return n, err
}
