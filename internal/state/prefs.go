package state

import (
	"database/sql"
	"errors"
)

// Preferences is the persisted session volume and loop mode.
type Preferences struct {
	Volume float64
	Loop   bool
	Saved  bool // loaded from the database rather than defaulted
}

// DefaultPreferences is returned when nothing has been saved yet.
var DefaultPreferences = Preferences{Volume: 0.5}

func getPreferences(db *sql.DB) (*Preferences, error) {
	var p Preferences
	row := db.QueryRow(`SELECT volume, loop FROM session_prefs WHERE id = 1`)
	err := row.Scan(&p.Volume, &p.Loop)
	if errors.Is(err, sql.ErrNoRows) {
		d := DefaultPreferences
		return &d, nil
	}
	if err != nil {
		return nil, err
	}
	p.Saved = true
	return &p, nil
}

func savePreferences(db *sql.DB, p Preferences) error {
	_, err := db.Exec(`
		INSERT INTO session_prefs (id, volume, loop)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			volume = excluded.volume,
			loop = excluded.loop
	`, p.Volume, p.Loop)
	return err
}
