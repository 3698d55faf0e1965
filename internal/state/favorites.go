package state

import (
	"database/sql"
)

// Favorite is a stored favorite row.
type Favorite struct {
	Title    string
	URL      string
	Duration int // seconds
}

func loadFavorites(db *sql.DB) ([]Favorite, error) {
	rows, err := db.Query(`
		SELECT title, url, duration
		FROM favorites
		ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var favs []Favorite
	for rows.Next() {
		var f Favorite
		if err := rows.Scan(&f.Title, &f.URL, &f.Duration); err != nil {
			return nil, err
		}
		favs = append(favs, f)
	}
	return favs, rows.Err()
}

// saveFavorites rewrites the whole table so a failed write leaves the
// previous list intact.
func saveFavorites(sqlDB *sql.DB, favs []Favorite) error {
	return withTx(sqlDB, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM favorites`); err != nil {
			return err
		}

		stmt, err := tx.Prepare(`
			INSERT INTO favorites (position, title, url, duration)
			VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, f := range favs {
			if _, err := stmt.Exec(i, f.Title, f.URL, f.Duration); err != nil {
				return err
			}
		}
		return nil
	})
}

// withTx executes fn within a transaction.
// It handles Begin, Rollback on error, and Commit on success.
func withTx(db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
