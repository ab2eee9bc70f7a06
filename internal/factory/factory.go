package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/enzo-projet/zogames/internal/dependencies/clock"
	"github.com/enzo-projet/zogames/internal/dependencies/random"
	"github.com/enzo-projet/zogames/internal/fanout"
	"github.com/enzo-projet/zogames/internal/services/game"
	"github.com/enzo-projet/zogames/internal/services/identity"
	"github.com/enzo-projet/zogames/internal/services/registry"
	"github.com/enzo-projet/zogames/internal/services/submission"
	"github.com/enzo-projet/zogames/internal/storage"
	"github.com/enzo-projet/zogames/internal/storage/memory"
	redisstorage "github.com/enzo-projet/zogames/internal/storage/redis"
	"github.com/enzo-projet/zogames/internal/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Store storage.Store

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	IdentityService      *identity.Service
	RegistryController   *registry.Controller
	GameController       *game.Controller
	SubmissionController *submission.Controller
	Fanout               *fanout.Fanout
	Gateway              *ws.Gateway
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// IdentityConfig holds credential settings (optional)
	IdentityConfig identity.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Store
	var feed storage.ChangeFeed

	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		memStore := memory.New()
		store, feed = memStore, memStore
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store, feed = redisStore, redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	clk := clock.New()
	rnd := random.New()

	identityCfg := cfg.IdentityConfig
	if identityCfg.TokenDuration == 0 {
		identityCfg = identity.DefaultConfig()
	}

	return newWithDependencies(store, feed, clk, rnd, identityCfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Store,
	feed storage.ChangeFeed,
	clk clock.Clock,
	rnd random.Random,
	identityCfg identity.Config,
	logger *slog.Logger,
) *App {
	identityService := identity.New(store, clk, identityCfg, logger)
	registryController := registry.NewController(store, clk, rnd, logger)
	gameController := game.NewController(store, logger)
	submissionController := submission.NewController(store, gameController, logger)
	fan := fanout.New(store, identityService, logger)
	gateway := ws.New(identityService, registryController, gameController, submissionController, fan, logger)

	// External writes surface through the change feed as re-fetch notices
	fan.Register(feed)

	return &App{
		Store:                store,
		Clock:                clk,
		Random:               rnd,
		IdentityService:      identityService,
		RegistryController:   registryController,
		GameController:       gameController,
		SubmissionController: submissionController,
		Fanout:               fan,
		Gateway:              gateway,
	}
}
