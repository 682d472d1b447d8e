package prefs

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"prefstore/internal/logging"
	"prefstore/internal/store"

	"github.com/google/uuid"
)

var ErrClosed = errors.New("data store is closed")

var logger = logging.For("prefs")

var (
	metaBucket = []byte("_meta")
	metaIDKey  = []byte("id")
)

func migrationMarker(name string) []byte {
	return []byte("migrated:" + name)
}

// Migration imports data into a DataStore the first time it is read.
// A migration whose ShouldMigrate reports true is applied and recorded in
// the same transaction, so it never runs twice for the same store.
type Migration interface {
	Name() string
	ShouldMigrate(current *Preferences) (bool, error)
	Migrate(current *MutablePreferences) error
	// CleanUp runs after a successful (or previously recorded) migration.
	CleanUp() error
}

// Options configures a DataStore.
type Options struct {
	Name       string
	Migrations []Migration
	OnClose    func()
}

// DataStore is the handle to one persistent preference file. Reads come
// from an in-memory snapshot; edits are serialized and written in a single
// storage transaction before the snapshot is swapped.
type DataStore struct {
	name       string
	st         store.Store
	migrations []Migration
	onClose    func()

	mu     sync.Mutex // serializes the first load and every edit
	id     string
	cur    atomic.Pointer[Preferences]
	closed atomic.Bool
}

// New wraps an open store. Nothing is read until the first Data or Edit.
func New(st store.Store, opts Options) *DataStore {
	return &DataStore{
		name:       opts.Name,
		st:         st,
		migrations: opts.Migrations,
		onClose:    opts.OnClose,
	}
}

func (d *DataStore) Name() string {
	return d.name
}

// Path returns the file backing the store.
func (d *DataStore) Path() string {
	return d.st.Path()
}

// ID returns the identifier generated when the file was first loaded.
func (d *DataStore) ID() (string, error) {
	if _, err := d.Data(); err != nil {
		return "", err
	}
	return d.id, nil
}

// Data returns the latest snapshot, loading it on first use.
func (d *DataStore) Data() (*Preferences, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}
	if p := d.cur.Load(); p != nil {
		return p, nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loadLocked()
}

// Edit applies fn to a mutable copy of the current snapshot and commits the
// difference atomically. If fn or the commit fails, nothing changes.
func (d *DataStore) Edit(fn func(*MutablePreferences) error) (*Preferences, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	cur, err := d.loadLocked()
	if err != nil {
		return nil, err
	}
	mp := cur.ToMutable()
	if err := fn(mp); err != nil {
		return nil, err
	}
	next := mp.freeze()
	if err := d.st.Update(func(tx store.Tx) error {
		return writeDiff(tx, cur, next)
	}); err != nil {
		return nil, fmt.Errorf("committing edit to %s: %w", d.name, err)
	}
	d.cur.Store(next)
	return next, nil
}

// Close releases the backing file. Later calls return ErrClosed.
func (d *DataStore) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	err := d.st.Close()
	if d.onClose != nil {
		d.onClose()
	}
	logger.Debug("data store closed", "store", d.name)
	return err
}

func (d *DataStore) loadLocked() (*Preferences, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}
	if p := d.cur.Load(); p != nil {
		return p, nil
	}
	if err := d.ensureID(); err != nil {
		return nil, fmt.Errorf("loading %s: %w", d.name, err)
	}
	for _, m := range d.migrations {
		if err := d.migrate(m); err != nil {
			logger.Warn("migration failed, continuing without it",
				"store", d.name, "migration", m.Name(), "err", err)
		}
	}

	var p *Preferences
	err := d.st.View(func(tx store.Tx) error {
		var err error
		p, err = d.readAll(tx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", d.name, err)
	}
	d.cur.Store(p)
	logger.Debug("data store loaded", "store", d.name, "id", d.id, "entries", p.Len())
	return p, nil
}

func (d *DataStore) ensureID() error {
	return d.st.Update(func(tx store.Tx) error {
		if id := tx.Get(metaBucket, metaIDKey); id != nil {
			d.id = string(id)
			return nil
		}
		d.id = uuid.NewString()
		return tx.Set(metaBucket, metaIDKey, []byte(d.id))
	})
}

func (d *DataStore) migrate(m Migration) error {
	marker := migrationMarker(m.Name())
	done, err := d.st.Get(metaBucket, marker)
	if err != nil {
		return err
	}
	if done == nil {
		var cur *Preferences
		if err := d.st.View(func(tx store.Tx) error {
			var err error
			cur, err = d.readAll(tx)
			return err
		}); err != nil {
			return err
		}
		should, err := m.ShouldMigrate(cur)
		if err != nil {
			return fmt.Errorf("checking migration: %w", err)
		}
		if !should {
			return nil
		}
		mp := cur.ToMutable()
		if err := m.Migrate(mp); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}
		next := mp.freeze()
		if err := d.st.Update(func(tx store.Tx) error {
			if err := writeDiff(tx, cur, next); err != nil {
				return err
			}
			return tx.Set(metaBucket, marker, []byte(time.Now().UTC().Format(time.RFC3339)))
		}); err != nil {
			return fmt.Errorf("committing migration: %w", err)
		}
		logger.Info("migration applied", "store", d.name, "migration", m.Name(),
			"imported", next.Len()-cur.Len())
	}
	if err := m.CleanUp(); err != nil {
		logger.Warn("migration cleanup failed", "store", d.name, "migration", m.Name(), "err", err)
	}
	return nil
}

// readAll decodes every kind bucket. Entries that fail to decode are
// skipped and read as absent.
func (d *DataStore) readAll(tx store.Tx) (*Preferences, error) {
	entries := make(map[Key]any)
	for _, kind := range Kinds {
		err := tx.ForEach(kind.bucket(), func(k, v []byte) error {
			val, err := decodeValue(kind, v)
			if err != nil {
				logger.Warn("skipping corrupt preference entry",
					"store", d.name, "key", string(k), "kind", kind.String(), "err", err)
				return nil
			}
			entries[Key{Name: string(k), Kind: kind}] = val
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return newPreferences(entries), nil
}

// writeDiff persists the entries of next that differ from prev and deletes
// the ones next no longer holds.
func writeDiff(tx store.Tx, prev, next *Preferences) error {
	for k, v := range next.entries {
		if old, ok := prev.entries[k]; ok && old == v {
			continue
		}
		data, err := encodeValue(k, v)
		if err != nil {
			return err
		}
		if err := tx.Set(k.Kind.bucket(), []byte(k.Name), data); err != nil {
			return fmt.Errorf("writing %s: %w", k, err)
		}
	}
	for k := range prev.entries {
		if _, ok := next.entries[k]; ok {
			continue
		}
		if err := tx.Delete(k.Kind.bucket(), []byte(k.Name)); err != nil {
			return fmt.Errorf("deleting %s: %w", k, err)
		}
	}
	return nil
}
