package prefs

import (
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"prefstore/internal/logging"
)

type fakeMigration struct {
	name       string
	values     map[Key]any
	should     bool
	migrateErr error
	checks     int
	migrations int
	cleanups   int
}

func (f *fakeMigration) Name() string { return f.name }

func (f *fakeMigration) ShouldMigrate(*Preferences) (bool, error) {
	f.checks++
	return f.should, nil
}

func (f *fakeMigration) Migrate(mp *MutablePreferences) error {
	f.migrations++
	if f.migrateErr != nil {
		return f.migrateErr
	}
	for k, v := range f.values {
		if mp.Contains(k) {
			continue
		}
		if err := mp.Set(k, v); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeMigration) CleanUp() error {
	f.cleanups++
	return nil
}

func TestMigrationAppliedOnFirstAccess(t *testing.T) {
	m := &fakeMigration{name: "legacy", should: true, values: map[Key]any{
		StringKey("lang"): "it",
		IntKey("count"):   int32(4),
	}}
	ds := openStore(t, filepath.Join(t.TempDir(), "test.preferences_db"), m)
	if m.migrations != 0 {
		t.Fatal("migration should wait for first access")
	}

	p, err := ds.Data()
	if err != nil {
		t.Fatal(err)
	}
	if m.migrations != 1 || m.cleanups != 1 {
		t.Fatalf("migrations=%d cleanups=%d, want 1/1", m.migrations, m.cleanups)
	}
	if v, _ := p.LookupString("lang"); v != "it" {
		t.Errorf("lang = %q", v)
	}
	if v, _ := p.LookupInt("count"); v != 4 {
		t.Errorf("count = %d", v)
	}
}

func TestMigrationRunsOncePerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.preferences_db")
	m := &fakeMigration{name: "legacy", should: true, values: map[Key]any{StringKey("lang"): "it"}}
	ds := openStore(t, path, m)
	if _, err := ds.Data(); err != nil {
		t.Fatal(err)
	}
	_ = ds.Close()

	again := &fakeMigration{name: "legacy", should: true, values: map[Key]any{StringKey("lang"): "fr"}}
	if _, err := openStore(t, path, again).Data(); err != nil {
		t.Fatal(err)
	}
	if again.checks != 0 || again.migrations != 0 {
		t.Fatalf("recorded migration ran again: checks=%d migrations=%d", again.checks, again.migrations)
	}
	if again.cleanups != 1 {
		t.Fatalf("cleanup should still run, got %d", again.cleanups)
	}
}

func TestMigrationSkippedWhenNotNeeded(t *testing.T) {
	m := &fakeMigration{name: "legacy", should: false}
	ds := tempDataStore(t)
	ds.migrations = []Migration{m}
	if _, err := ds.Data(); err != nil {
		t.Fatal(err)
	}
	if m.migrations != 0 || m.cleanups != 0 {
		t.Fatalf("migrations=%d cleanups=%d, want 0/0", m.migrations, m.cleanups)
	}
}

func TestMigrationFailureIsBestEffort(t *testing.T) {
	c := logging.CaptureForTest()
	defer c.Restore()

	m := &fakeMigration{name: "legacy", should: true, migrateErr: errors.New("unreadable")}
	ds := openStore(t, filepath.Join(t.TempDir(), "test.preferences_db"), m)
	p, err := ds.Data()
	if err != nil {
		t.Fatalf("store should open despite migration failure: %v", err)
	}
	if p.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", p.Len())
	}
	if m.cleanups != 0 {
		t.Error("cleanup must not run after a failed migration")
	}
	if !c.Has(slog.LevelWarn, "migration failed") {
		t.Error("expected a warning for the failed migration")
	}
}

func TestMigrationKeepsExistingValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.preferences_db")
	ds := openStore(t, path)
	setAll(t, ds, map[Key]any{StringKey("lang"): "en"})
	_ = ds.Close()

	m := &fakeMigration{name: "legacy", should: true, values: map[Key]any{
		StringKey("lang"):  "it",
		BooleanKey("beta"): true,
	}}
	p, err := openStore(t, path, m).Data()
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := p.LookupString("lang"); v != "en" {
		t.Errorf("lang = %q, existing value should win", v)
	}
	if v, ok := p.LookupBoolean("beta"); !ok || !v {
		t.Error("new legacy key should be imported")
	}
}
