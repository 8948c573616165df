package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/sortinghat/internal/catalog"
	"github.com/mcoot/sortinghat/internal/dependencies/clock"
	"github.com/mcoot/sortinghat/internal/dependencies/groups"
	"github.com/mcoot/sortinghat/internal/dependencies/random"
	"github.com/mcoot/sortinghat/internal/services/progression"
	"github.com/mcoot/sortinghat/internal/services/selection"
	"github.com/mcoot/sortinghat/internal/storage"
	"github.com/mcoot/sortinghat/internal/storage/memory"
	redisstorage "github.com/mcoot/sortinghat/internal/storage/redis"
	sqlitestorage "github.com/mcoot/sortinghat/internal/storage/sqlite"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeSQLite = "sqlite"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock     clock.Clock
	Random    random.Random
	Directory groups.Directory

	// Services
	Catalog     *catalog.Catalog
	Progression *progression.Controller
	Selection   *selection.Manager

	closer io.Closer
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "sqlite")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLitePath is the database file (required if StorageType is "sqlite")
	SQLitePath string
	// Catalog overrides the embedded catalog (optional)
	Catalog *catalog.Catalog
	// Directory performs house group changes (optional)
	// If nil, group changes are accepted and ignored
	Directory groups.Directory
	// WorkflowTimeout is the picker inactivity timeout (optional)
	WorkflowTimeout time.Duration
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var (
		store  storage.Storage
		closer io.Closer
	)
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		store, closer = redisStore, redisStore
	case StorageTypeSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("SQLitePath required when StorageType is sqlite")
		}
		sqliteStore, err := sqlitestorage.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		store, closer = sqliteStore, sqliteStore
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be 'memory', 'redis' or 'sqlite'", storageType)
	}

	cat := cfg.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	directory := cfg.Directory
	if directory == nil {
		directory = groups.NopDirectory{}
	}

	app := newWithDependencies(store, cat, clock.New(), random.New(), directory, cfg.WorkflowTimeout, logger)
	app.closer = closer
	logger.Info("application wired", slog.String("storage", storageType))
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	cat *catalog.Catalog,
	clk clock.Clock,
	rnd random.Random,
	directory groups.Directory,
	timeout time.Duration,
	logger *slog.Logger,
) *App {
	controller := progression.NewController(store, cat, clk, rnd, logger)
	manager := selection.NewManager(controller, directory, cat, clk, rnd, timeout, logger)

	return &App{
		Storage:     store,
		Clock:       clk,
		Random:      rnd,
		Directory:   directory,
		Catalog:     cat,
		Progression: controller,
		Selection:   manager,
	}
}

// Close releases the storage connection, if any
func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
