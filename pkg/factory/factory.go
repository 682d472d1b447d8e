package factory

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"prefstore/internal/config"
	"prefstore/internal/legacy"
	"prefstore/internal/logging"
	boltstore "prefstore/internal/store/bolt"
	"prefstore/pkg/prefs"

	"github.com/puzpuzpuz/xsync/v3"
)

var (
	ErrNilContext    = errors.New("factory: application context is nil")
	ErrEmptyName     = errors.New("factory: data store name is empty")
	ErrInvalidName   = errors.New("factory: name must be a plain file name")
	ErrAlreadyActive = errors.New("factory: a data store for this file is already active")
)

const (
	dataStoreDir    = "datastore"
	dataStoreSuffix = ".preferences_db"
	legacyDir       = "shared_prefs"
	legacySuffix    = ".xml"
)

var logger = logging.For("factory")

// active maps a data store file to its open handle. A nil value reserves
// the path while the file is being opened.
var active = xsync.NewMapOf[string, *prefs.DataStore]()

// AppContext is the application-scoped context a data store belongs to.
// It owns the private directory every store file lives under.
type AppContext struct {
	dataDir string
}

// NewAppContext returns a context rooted at dataDir.
func NewAppContext(dataDir string) (*AppContext, error) {
	if strings.TrimSpace(dataDir) == "" {
		return nil, errors.New("factory: data directory is empty")
	}
	abs, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("factory: resolving data directory: %w", err)
	}
	return &AppContext{dataDir: abs}, nil
}

func (a *AppContext) DataDir() string {
	return a.dataDir
}

// DataStoreFile is the file backing the data store called name.
func (a *AppContext) DataStoreFile(name string) string {
	return filepath.Join(a.dataDir, dataStoreDir, name+dataStoreSuffix)
}

// LegacyFile is the legacy preference file called name.
func (a *AppContext) LegacyFile(name string) string {
	return filepath.Join(a.dataDir, legacyDir, name+legacySuffix)
}

type options struct {
	legacyName string
	migrations []prefs.Migration
}

// Option customizes Create.
type Option func(*options)

// WithLegacyMigration imports the legacy preference file called name the
// first time the data store is read. The import is best-effort and runs at
// most once.
func WithLegacyMigration(name string) Option {
	return func(o *options) {
		o.legacyName = name
	}
}

// WithMigrations adds custom migrations, run after the legacy import.
func WithMigrations(m ...prefs.Migration) Option {
	return func(o *options) {
		o.migrations = append(o.migrations, m...)
	}
}

// Create opens the data store called name inside app. Argument errors are
// reported before any file is touched. Only one handle per file may be
// open at a time; Close the previous one first.
func Create(app *AppContext, name string, opts ...Option) (*prefs.DataStore, error) {
	if app == nil {
		return nil, ErrNilContext
	}
	if err := checkName(name); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.legacyName != "" {
		if err := checkName(o.legacyName); err != nil {
			return nil, fmt.Errorf("legacy migration: %w", err)
		}
	}

	path := app.DataStoreFile(name)
	if _, loaded := active.LoadOrStore(path, nil); loaded {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyActive, path)
	}

	ds, err := open(app, name, path, o)
	if err != nil {
		active.Delete(path)
		return nil, err
	}
	active.Store(path, ds)
	logger.Info("data store created", "name", name, "path", path, "legacy", o.legacyName)
	return ds, nil
}

func open(app *AppContext, name, path string, o options) (*prefs.DataStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating data store dir: %w", err)
	}
	st, err := boltstore.Open(path)
	if err != nil {
		return nil, err
	}

	var migrations []prefs.Migration
	if o.legacyName != "" {
		migrations = append(migrations, legacy.NewMigration(o.legacyName, app.LegacyFile(o.legacyName)))
	}
	migrations = append(migrations, o.migrations...)

	return prefs.New(st, prefs.Options{
		Name:       name,
		Migrations: migrations,
		OnClose:    func() { active.Delete(path) },
	}), nil
}

// FromConfig creates the data store described by cfg, along with the
// application context it lives in.
func FromConfig(cfg *config.Config) (*AppContext, *prefs.DataStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	app, err := NewAppContext(config.ExpandHome(cfg.Store.DataDir))
	if err != nil {
		return nil, nil, err
	}
	var opts []Option
	if cfg.Store.LegacyMigration != "" {
		opts = append(opts, WithLegacyMigration(cfg.Store.LegacyMigration))
	}
	ds, err := Create(app, cfg.Store.Name, opts...)
	if err != nil {
		return nil, nil, err
	}
	return app, ds, nil
}

func checkName(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
