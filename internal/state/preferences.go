package state

import (
	"database/sql"
	"errors"
	"time"
)

// Preferences are the playback settings restored at startup.
type Preferences struct {
	Volume    float64
	Normalize bool
	Crossfade time.Duration
	Silence   time.Duration
	EQ        []float64 // band gains in dB, indexed by band
	EQPreset  string    // name of the applied preset, empty for custom gains
}

func getPreferences(db *sql.DB) (*Preferences, error) {
	row := db.QueryRow(`
		SELECT volume, normalize, crossfade_ms, silence_ms, eq_preset
		FROM preferences WHERE id = 1
	`)

	var p Preferences
	var crossfadeMs, silenceMs int64
	err := row.Scan(&p.Volume, &p.Normalize, &crossfadeMs, &silenceMs, &p.EQPreset)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // no saved preferences is valid on first run
	}
	if err != nil {
		return nil, err
	}
	p.Crossfade = time.Duration(crossfadeMs) * time.Millisecond
	p.Silence = time.Duration(silenceMs) * time.Millisecond

	p.EQ, err = getEQ(db)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func getEQ(db *sql.DB) ([]float64, error) {
	rows, err := db.Query(`SELECT band, gain_db FROM eq_bands ORDER BY band`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	eq := make([]float64, bandCount)
	for rows.Next() {
		var band int
		var gain float64
		if err := rows.Scan(&band, &gain); err != nil {
			return nil, err
		}
		if band >= 0 && band < bandCount {
			eq[band] = gain
		}
	}
	return eq, rows.Err()
}

const bandCount = 5

func savePreferences(db *sql.DB, p Preferences) error {
	return withTx(db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO preferences (id, volume, normalize, crossfade_ms, silence_ms, eq_preset)
			VALUES (1, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				volume = excluded.volume,
				normalize = excluded.normalize,
				crossfade_ms = excluded.crossfade_ms,
				silence_ms = excluded.silence_ms,
				eq_preset = excluded.eq_preset
		`, p.Volume, p.Normalize, p.Crossfade.Milliseconds(), p.Silence.Milliseconds(), p.EQPreset)
		if err != nil {
			return err
		}

		for i, gain := range p.EQ {
			if i >= bandCount {
				break
			}
			_, err := tx.Exec(`
				INSERT INTO eq_bands (band, gain_db) VALUES (?, ?)
				ON CONFLICT(band) DO UPDATE SET gain_db = excluded.gain_db
			`, i, gain)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// withTx runs fn in a transaction, rolling back if it fails.
func withTx(db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
