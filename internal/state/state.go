package state

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	appName      = "wavelane"
	dbFileName   = "wavelane.db"
	saveDebounce = 500 * time.Millisecond
)

type Manager struct {
	db        *sql.DB
	saveMu    sync.Mutex
	saveTimer *time.Timer
	pending   *Preferences
	onError   func(error)
}

func Open() (*Manager, error) {
	dbPath, err := getDBPath()
	if err != nil {
		return nil, err
	}
	return OpenPath(dbPath)
}

// OpenPath opens the database at path, creating it if needed.
func OpenPath(dbPath string) (*Manager, error) {
	// Ensure directory exists
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// :memory: databases are per connection
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Manager{db: db}, nil
}

// OnSaveError sets a handler for errors from debounced saves.
func (m *Manager) OnSaveError(fn func(error)) {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()
	m.onError = fn
}

// Close writes any pending save and closes the database. A failed final
// save is reported to the OnSaveError handler and returned.
func (m *Manager) Close() error {
	m.saveMu.Lock()
	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}
	pending := m.pending
	m.pending = nil
	onError := m.onError
	m.saveMu.Unlock()

	var saveErr error
	if pending != nil {
		saveErr = savePreferences(m.db, *pending)
		if saveErr != nil && onError != nil {
			onError(saveErr)
		}
	}

	return errors.Join(saveErr, m.db.Close())
}

func (m *Manager) GetPreferences() (*Preferences, error) {
	return getPreferences(m.db)
}

// SavePreferences stores p after a short quiet period. Rapid calls, such as
// volume changes while a key is held, collapse into one write.
func (m *Manager) SavePreferences(p Preferences) {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	p.EQ = append([]float64(nil), p.EQ...)
	m.pending = &p

	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}

	m.saveTimer = time.AfterFunc(saveDebounce, func() {
		m.saveMu.Lock()
		pending := m.pending
		m.pending = nil
		onError := m.onError
		m.saveMu.Unlock()

		if pending == nil {
			return
		}
		if err := savePreferences(m.db, *pending); err != nil && onError != nil {
			onError(err)
		}
	})
}

func getDBPath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}
