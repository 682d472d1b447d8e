package helper

import (
	"errors"
	"io"
	"sync/atomic"

	"prefstore/internal/async"
	"prefstore/internal/logging"
	"prefstore/pkg/prefs"
)

var ErrNotInitialized = errors.New("helper: data store not initialized")

var logger = logging.For("helper")

// Helper exposes typed accessors over one DataStore. Blocking methods return
// storage errors to the caller. Asynchronous methods (PutInt, Remove, ...)
// return as soon as the write is scheduled; a failed write is logged and
// does not affect any other write.
//
// Two asynchronous writes are not ordered with respect to each other, and a
// read issued right after an asynchronous write may or may not observe it.
// Call Wait to drain pending writes.
type Helper struct {
	ds   atomic.Pointer[prefs.DataStore]
	pool *async.Dispatcher
}

// New returns an uninitialized helper with its own dispatcher.
func New() *Helper {
	return &Helper{pool: async.NewDispatcher("helper")}
}

var shared = New()

// Shared returns the process-wide helper.
func Shared() *Helper {
	return shared
}

// Initialize initializes the process-wide helper. See Helper.Initialize.
func Initialize(ds *prefs.DataStore) bool {
	return shared.Initialize(ds)
}

// Initialize binds the helper to ds. Only the first non-nil store is kept;
// later calls are ignored and return false.
func (h *Helper) Initialize(ds *prefs.DataStore) bool {
	if ds == nil {
		return false
	}
	if !h.ds.CompareAndSwap(nil, ds) {
		logger.Debug("helper already initialized, ignoring store", "store", ds.Name())
		return false
	}
	logger.Debug("helper initialized", "store", ds.Name())
	return true
}

// Wait blocks until every asynchronous write issued so far has finished.
func (h *Helper) Wait() {
	h.pool.Wait()
}

// Close drains pending asynchronous writes and stops the dispatcher. The
// data store itself stays open.
func (h *Helper) Close() {
	h.pool.Close()
}

// WriteMetrics writes the asynchronous write counters in Prometheus format.
func (h *Helper) WriteMetrics(w io.Writer) {
	h.pool.WritePrometheus(w)
}

func (h *Helper) store() (*prefs.DataStore, error) {
	ds := h.ds.Load()
	if ds == nil {
		return nil, ErrNotInitialized
	}
	return ds, nil
}

func (h *Helper) snapshot() (*prefs.Preferences, error) {
	ds, err := h.store()
	if err != nil {
		return nil, err
	}
	return ds.Data()
}

func set(ds *prefs.DataStore, k prefs.Key, v any) error {
	_, err := ds.Edit(func(mp *prefs.MutablePreferences) error {
		return mp.Set(k, v)
	})
	return err
}

func remove(ds *prefs.DataStore, k prefs.Key) error {
	_, err := ds.Edit(func(mp *prefs.MutablePreferences) error {
		mp.Remove(k)
		return nil
	})
	return err
}

func (h *Helper) putSync(k prefs.Key, v any) error {
	ds, err := h.store()
	if err != nil {
		return err
	}
	return set(ds, k, v)
}

func (h *Helper) putAsync(k prefs.Key, v any) error {
	ds, err := h.store()
	if err != nil {
		return err
	}
	return h.pool.Go("put "+k.String(), func() error {
		return set(ds, k, v)
	})
}

func (h *Helper) contains(k prefs.Key) (bool, error) {
	p, err := h.snapshot()
	if err != nil {
		return false, err
	}
	return p.Contains(k), nil
}

// Contains reports whether key exists under any kind. It scans every entry;
// prefer the kind-specific ContainsInt, ContainsString, ... when the kind is
// known.
func (h *Helper) Contains(key string) (bool, error) {
	p, err := h.snapshot()
	if err != nil {
		return false, err
	}
	return p.ContainsName(key), nil
}

// GetAll returns a copy of every entry. Changing the map does not change
// the store.
func (h *Helper) GetAll() (map[prefs.Key]any, error) {
	p, err := h.snapshot()
	if err != nil {
		return nil, err
	}
	return p.AsMap(), nil
}

// Dump returns a diagnostic rendering of every entry.
func (h *Helper) Dump() (string, error) {
	p, err := h.snapshot()
	if err != nil {
		return "", err
	}
	return p.Dump(), nil
}

// Remove schedules deletion of the string-kind key.
func (h *Helper) Remove(key string) error {
	ds, err := h.store()
	if err != nil {
		return err
	}
	k := prefs.StringKey(key)
	return h.pool.Go("remove "+k.String(), func() error {
		return remove(ds, k)
	})
}

// RemoveSync deletes the string-kind key.
func (h *Helper) RemoveSync(key string) error {
	ds, err := h.store()
	if err != nil {
		return err
	}
	return remove(ds, prefs.StringKey(key))
}
