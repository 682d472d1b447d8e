package legacy

import (
	"errors"
	"os"

	"prefstore/pkg/prefs"
)

// Migration imports a legacy preference file into a DataStore. Keys already
// present in the store keep their value. Once the import is committed the
// legacy file and its backup are removed.
type Migration struct {
	name    string
	path    string
	entries []Entry
}

var _ prefs.Migration = (*Migration)(nil)

// NewMigration returns a migration for the legacy store called name,
// stored at path.
func NewMigration(name, path string) *Migration {
	return &Migration{name: name, path: path}
}

func (m *Migration) Name() string {
	return "shared_prefs:" + m.name
}

// ShouldMigrate reports whether the legacy file exists and holds at least
// one usable entry.
func (m *Migration) ShouldMigrate(*prefs.Preferences) (bool, error) {
	entries, err := ReadFile(m.path)
	if err != nil {
		return false, err
	}
	m.entries = entries
	return len(entries) > 0, nil
}

func (m *Migration) Migrate(mp *prefs.MutablePreferences) error {
	imported := 0
	for _, e := range m.entries {
		if mp.Contains(e.Key) {
			continue
		}
		if err := mp.Set(e.Key, e.Value); err != nil {
			logger.Warn("skipping legacy entry", "key", e.Key.String(), "err", err)
			continue
		}
		imported++
	}
	logger.Debug("legacy entries staged", "legacy", m.name, "read", len(m.entries), "imported", imported)
	m.entries = nil
	return nil
}

func (m *Migration) CleanUp() error {
	var errs []error
	for _, p := range []string{m.path, m.path + ".bak"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
