package localstore

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// Marker file names. Markers are transient cross-context state; each one is
// stamped and ignored once its TTL has passed.
const (
	reloadMarkerFile      = "reload_marker"
	migrationFlagFile     = "migration_in_progress"
	migrationAttemptsFile = "migration_attempts"
	createLockFile        = "creating_document"
	editLockFile          = "editing_document"
)

// Marker TTLs.
const (
	ReloadMarkerTTL  = 10 * time.Second
	CreateLockTTL    = 30 * time.Second
	EditLockTTL      = 5 * time.Minute
	MigrationFlagTTL = 2 * time.Minute
)

type markerStamp struct {
	At    time.Time `json:"at"`
	Value string    `json:"value,omitempty"`
}

// Markers manages the transient session markers stored next to the document
// slot, and fans out identity-marker changes to subscribers so consumers
// react to events instead of polling.
type Markers struct {
	store *Store

	mu          sync.Mutex
	subscribers map[int]func(id string)
	nextSub     int
}

func newMarkers(s *Store) *Markers {
	return &Markers{store: s, subscribers: map[int]func(string){}}
}

// SubscribeIdentity registers fn to run whenever the shared identity marker
// changes. The returned function unsubscribes.
func (m *Markers) SubscribeIdentity(fn func(id string)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := m.nextSub
	m.nextSub++
	m.subscribers[key] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subscribers, key)
	}
}

func (m *Markers) notifyIdentity(id string) {
	m.mu.Lock()
	fns := make([]func(string), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		fns = append(fns, fn)
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn(id)
	}
}

// WriteReloadMarker stamps the reload marker. Called immediately before an
// orderly shutdown so the next start can tell a reload from a fresh session.
func (m *Markers) WriteReloadMarker() error {
	return m.writeStamp(reloadMarkerFile, "")
}

// ConsumeReloadMarker reports whether a recent reload marker exists and
// clears it either way. Stale markers count as absent.
func (m *Markers) ConsumeReloadMarker() bool {
	stamp, ok := m.readStamp(reloadMarkerFile)
	m.clear(reloadMarkerFile)
	return ok && time.Since(stamp.At) <= ReloadMarkerTTL
}

// AcquireCreateLock takes the "creating new document" lock. It fails when a
// live lock is already held, which is what keeps a double-invoked
// initialization from minting two documents across contexts.
func (m *Markers) AcquireCreateLock() bool {
	if stamp, ok := m.readStamp(createLockFile); ok && time.Since(stamp.At) <= CreateLockTTL {
		return false
	}
	return m.writeStamp(createLockFile, "") == nil
}

// ReleaseCreateLock drops the creation lock.
func (m *Markers) ReleaseCreateLock() {
	m.clear(createLockFile)
}

// SetEditingTarget marks which document id this session is editing. The
// target doubles as the shared identity marker, so subscribers are notified.
func (m *Markers) SetEditingTarget(id string) error {
	previous, had := m.EditingTarget()
	if err := m.writeStamp(editLockFile, id); err != nil {
		return err
	}
	if !had || previous != id {
		m.notifyIdentity(id)
	}
	return nil
}

// EditingTarget returns the live editing-lock target, if any.
func (m *Markers) EditingTarget() (string, bool) {
	stamp, ok := m.readStamp(editLockFile)
	if !ok || time.Since(stamp.At) > EditLockTTL {
		return "", false
	}
	return stamp.Value, true
}

// ClearEditingTarget drops the editing lock.
func (m *Markers) ClearEditingTarget() {
	m.clear(editLockFile)
}

// SetMigrationInProgress stamps the migration flag.
func (m *Markers) SetMigrationInProgress() error {
	return m.writeStamp(migrationFlagFile, "")
}

// MigrationInProgress reports whether a live migration flag is set.
func (m *Markers) MigrationInProgress() bool {
	stamp, ok := m.readStamp(migrationFlagFile)
	return ok && time.Since(stamp.At) <= MigrationFlagTTL
}

// ClearMigrationInProgress drops the migration flag.
func (m *Markers) ClearMigrationInProgress() {
	m.clear(migrationFlagFile)
}

// MigrationAttempts returns the persisted consecutive-failure counter.
func (m *Markers) MigrationAttempts() int {
	stamp, ok := m.readStamp(migrationAttemptsFile)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(stamp.Value)
	if err != nil {
		return 0
	}
	return n
}

// IncrementMigrationAttempts bumps the counter and returns the new value.
func (m *Markers) IncrementMigrationAttempts() int {
	n := m.MigrationAttempts() + 1
	_ = m.writeStamp(migrationAttemptsFile, strconv.Itoa(n))
	return n
}

// ResetMigrationAttempts clears the counter.
func (m *Markers) ResetMigrationAttempts() {
	m.clear(migrationAttemptsFile)
}

// ClearAll removes every marker. Used when a session starts over.
func (m *Markers) ClearAll() {
	for _, name := range []string{
		reloadMarkerFile,
		migrationFlagFile,
		migrationAttemptsFile,
		createLockFile,
		editLockFile,
	} {
		m.clear(name)
	}
}

func (m *Markers) writeStamp(name, value string) error {
	stamp := markerStamp{At: time.Now().UTC(), Value: value}
	data, err := json.Marshal(stamp)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(m.store.dir, name), data, 0o644)
}

func (m *Markers) readStamp(name string) (markerStamp, bool) {
	data, err := os.ReadFile(filepath.Join(m.store.dir, name))
	if errors.Is(err, fs.ErrNotExist) || err != nil {
		return markerStamp{}, false
	}
	var stamp markerStamp
	if err := json.Unmarshal(data, &stamp); err != nil {
		return markerStamp{}, false
	}
	return stamp, true
}

func (m *Markers) clear(name string) {
	_ = os.Remove(filepath.Join(m.store.dir, name))
}
