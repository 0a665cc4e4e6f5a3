package savegame

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/zurustar/sputm/pkg/fileutil"
)

// ErrSlotNotFound is returned by Get and Delete for an empty slot.
var ErrSlotNotFound = errors.New("save slot not found")

// Store keeps snapshots in a SQLite database, one row per (target, slot).
type Store struct {
	db *sql.DB
}

// Info describes a stored slot without decoding it.
type Info struct {
	Target  string
	Slot    int
	Name    string
	Size    int
	SavedAt time.Time
}

// Open creates or opens the database at path. A leading ~ expands to the
// home directory and missing parent directories are created.
func Open(path string) (*Store, error) {
	path, err := fileutil.ExpandHome(path)
	if err != nil {
		return nil, fmt.Errorf("savegame: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("savegame: cannot create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("savegame: cannot open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("savegame: cannot connect to database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("savegame: migration failed: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	const schema = `
		CREATE TABLE IF NOT EXISTS saves (
			target TEXT NOT NULL,
			slot INTEGER NOT NULL,
			name TEXT NOT NULL,
			data BLOB NOT NULL,
			saved_at INTEGER NOT NULL,
			PRIMARY KEY (target, slot)
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Put encodes snap and stores it in the slot, replacing any previous save.
// Nothing is written when encoding fails.
func (s *Store) Put(target string, slot int, snap *Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return fmt.Errorf("savegame: slot %d: %w", slot, err)
	}
	_, err = s.db.Exec(
		`INSERT INTO saves (target, slot, name, data, saved_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(target, slot) DO UPDATE SET name = excluded.name, data = excluded.data, saved_at = excluded.saved_at`,
		target, slot, snap.Name, data, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("savegame: cannot write slot %d: %w", slot, err)
	}
	return nil
}

// Get loads and decodes the snapshot in a slot.
func (s *Store) Get(target string, slot int) (*Snapshot, error) {
	var data []byte
	err := s.db.QueryRow(`SELECT data FROM saves WHERE target = ? AND slot = ?`, target, slot).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("savegame: %s slot %d: %w", target, slot, ErrSlotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("savegame: cannot read slot %d: %w", slot, err)
	}
	snap, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("savegame: slot %d: %w", slot, err)
	}
	return snap, nil
}

// List returns the target's occupied slots in slot order.
func (s *Store) List(target string) ([]Info, error) {
	rows, err := s.db.Query(
		`SELECT target, slot, name, length(data), saved_at FROM saves WHERE target = ? ORDER BY slot`,
		target,
	)
	if err != nil {
		return nil, fmt.Errorf("savegame: cannot query slots: %w", err)
	}
	defer rows.Close()

	var out []Info
	for rows.Next() {
		var in Info
		var savedAt int64
		if err := rows.Scan(&in.Target, &in.Slot, &in.Name, &in.Size, &savedAt); err != nil {
			return nil, fmt.Errorf("savegame: cannot scan row: %w", err)
		}
		in.SavedAt = time.UnixMilli(savedAt)
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("savegame: row iteration error: %w", err)
	}
	return out, nil
}

// Delete removes a slot.
func (s *Store) Delete(target string, slot int) error {
	res, err := s.db.Exec(`DELETE FROM saves WHERE target = ? AND slot = ?`, target, slot)
	if err != nil {
		return fmt.Errorf("savegame: cannot delete slot %d: %w", slot, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("savegame: cannot delete slot %d: %w", slot, err)
	}
	if n == 0 {
		return fmt.Errorf("savegame: %s slot %d: %w", target, slot, ErrSlotNotFound)
	}
	return nil
}
