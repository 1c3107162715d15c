package state

import (
	"database/sql"
)

const currentSchemaVersion = 2

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS preferences (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			volume REAL NOT NULL DEFAULT 0.8,
			normalize INTEGER NOT NULL DEFAULT 1,
			crossfade_ms INTEGER NOT NULL DEFAULT 2000,
			silence_ms INTEGER NOT NULL DEFAULT 0,
			eq_preset TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS eq_bands (
			band INTEGER PRIMARY KEY CHECK (band >= 0 AND band < 5),
			gain_db REAL NOT NULL DEFAULT 0
		);
	`)
	if err != nil {
		return err
	}

	var version int
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version); err != nil {
		return err
	}
	if version == 0 {
		// fresh database, tables above are current
		return setVersion(db, currentSchemaVersion)
	}
	if version < 2 {
		if _, err := db.Exec(`ALTER TABLE preferences ADD COLUMN eq_preset TEXT NOT NULL DEFAULT ''`); err != nil {
			return err
		}
		if err := setVersion(db, 2); err != nil {
			return err
		}
	}
	return nil
}

func setVersion(db *sql.DB, v int) error {
	_, err := db.Exec(`INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, v)
	return err
}
