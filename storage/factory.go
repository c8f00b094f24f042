package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// Backend names resolvable through a Factory.
const (
	BackendLocal    = "local"
	BackendBadger   = "badger"
	BackendDatabase = "database"
)

// EnvStorageBackend overrides the configured backend name at startup.
const EnvStorageBackend = "STORAGE_BACKEND"

// Config selects and parameterizes a storage backend.
type Config struct {
	// Backend is the backend name ("local", "badger", "database").
	Backend string

	// DataDirectory is the root directory for the file backend; it is
	// also the mirror target in dual-write mode.
	DataDirectory string

	// BadgerPath is the database directory for the badger backend.
	BadgerPath string

	// BadgerInMemory runs badger without touching disk. Used by tests.
	BadgerInMemory bool

	// ConnStringEnv names the environment variable holding the
	// relational backend's connection string.
	ConnStringEnv string

	// PoolSize caps the relational backend's connection pool.
	PoolSize int

	// DualWrite mirrors every write of a non-file backend to the file
	// backend rooted at DataDirectory.
	DualWrite bool

	// DualWriteStrict surfaces mirror-write failures to the caller
	// instead of logging and continuing.
	DualWriteStrict bool
}

// DefaultConfig returns a Config with production defaults: the file
// backend rooted at ./data.
func DefaultConfig() Config {
	return Config{
		Backend:       BackendLocal,
		DataDirectory: "data",
		BadgerPath:    "data/badger",
		ConnStringEnv: "DATABASE_CONNECTION_STRING",
		PoolSize:      5,
	}
}

// Constructor builds a Provider from a Config.
type Constructor func(ctx context.Context, cfg Config) (Provider, error)

// Factory resolves backend names to constructors. The registration map is
// built explicitly at startup; Register keeps it open for extension.
type Factory struct {
	constructors map[string]Constructor
	logger       *slog.Logger
}

// NewFactory returns an empty factory. Backend packages are registered by
// the caller so this package never imports its own implementations.
func NewFactory() *Factory {
	return &Factory{
		constructors: make(map[string]Constructor),
		logger:       slog.Default().With("component", "storage"),
	}
}

// Register adds or replaces the constructor for a backend name.
func (f *Factory) Register(name string, ctor Constructor) {
	f.constructors[name] = ctor
}

// Create builds the backend named by cfg.Backend. When dual-write mode is
// enabled for a non-file backend, the result is wrapped in a Mirror whose
// secondary is the file backend rooted at cfg.DataDirectory.
func (f *Factory) Create(ctx context.Context, cfg Config) (Provider, error) {
	ctor, ok := f.constructors[cfg.Backend]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Backend)
	}

	primary, err := ctor(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if !cfg.DualWrite || cfg.Backend == BackendLocal {
		return primary, nil
	}

	fileCtor, ok := f.constructors[BackendLocal]
	if !ok {
		f.logger.Warn("dual write requested but no local backend registered", "backend", cfg.Backend)
		return primary, nil
	}

	secondary, err := fileCtor(ctx, cfg)
	if err != nil {
		primary.Close()
		return nil, fmt.Errorf("dual write mirror: %w", err)
	}

	f.logger.Info("dual write enabled", "primary", cfg.Backend, "mirror", BackendLocal, "strict", cfg.DualWriteStrict)
	return NewMirror(primary, secondary, cfg.DualWriteStrict), nil
}

// CreateFromEnv builds a backend like Create, with the STORAGE_BACKEND
// environment variable overriding cfg.Backend when set.
func (f *Factory) CreateFromEnv(ctx context.Context, cfg Config) (Provider, error) {
	if backend := os.Getenv(EnvStorageBackend); backend != "" {
		f.logger.Info("storage backend overridden from environment", "backend", backend)
		cfg.Backend = backend
	}
	return f.Create(ctx, cfg)
}
