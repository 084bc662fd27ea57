package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/drawphone/internal/dependencies/clock"
	"github.com/mcoot/drawphone/internal/dependencies/httpfetch"
	"github.com/mcoot/drawphone/internal/dependencies/random"
	"github.com/mcoot/drawphone/internal/services/avatar"
	"github.com/mcoot/drawphone/internal/services/chat"
	"github.com/mcoot/drawphone/internal/services/escalator"
	"github.com/mcoot/drawphone/internal/services/game"
	"github.com/mcoot/drawphone/internal/services/imaging"
	"github.com/mcoot/drawphone/internal/services/naming"
	"github.com/mcoot/drawphone/internal/services/notify"
	"github.com/mcoot/drawphone/internal/services/objectstore"
	"github.com/mcoot/drawphone/internal/services/resolver"
	"github.com/mcoot/drawphone/internal/services/tasks"
	"github.com/mcoot/drawphone/internal/services/title"
	"github.com/mcoot/drawphone/internal/storage"
	"github.com/mcoot/drawphone/internal/storage/memory"
	redisstorage "github.com/mcoot/drawphone/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// Object store type constants
const (
	ObjectStoreLocal = "local"
	ObjectStoreS3    = "s3"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage
	Objects objectstore.Store

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Resolver   *resolver.Resolver
	Dispatcher *notify.Dispatcher
	Queue      *tasks.Queue
	Images     *imaging.Processor
	Avatars    *avatar.Cache
	Titles     *title.Composer
	Games      *game.Controller
	Escalator  *escalator.Escalator
	Chat       *chat.Handler

	Logger *slog.Logger

	closers []func() error
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

	// ObjectStoreType selects where images live ("local" or "s3")
	// If empty, defaults to "local"
	ObjectStoreType string
	LocalStoreDir   string
	LocalStoreURL   string
	// S3Config is required if ObjectStoreType is "s3"
	S3Config *objectstore.S3Config

	// Bots deliver messages to chat platforms; each platform needs one
	Bots []notify.Bot

	// FetchTimeout bounds avatar downloads
	FetchTimeout time.Duration

	// Component settings; zero values fall back to each component's defaults
	Game      game.Config
	Notify    notify.Config
	Tasks     tasks.Config
	Avatar    avatar.Config
	Escalator escalator.Config
	Imaging   imaging.Config
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var closers []func() error

	// Create storage based on type
	var store storage.Storage
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
			return nil, err
		}
		store = redisStore
		closers = append(closers, redisStore.Close)
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	var objects objectstore.Store
	switch cfg.ObjectStoreType {
	case "", ObjectStoreLocal:
		dir := cfg.LocalStoreDir
		if dir == "" {
			dir = "data/objects"
		}
		local, err := objectstore.NewLocal(dir, cfg.LocalStoreURL)
		if err != nil {
			return nil, err
		}
		objects = local
	case ObjectStoreS3:
		if cfg.S3Config == nil {
			return nil, errors.New("S3Config required when ObjectStoreType is s3")
		}
		s3store, err := objectstore.NewS3(ctx, *cfg.S3Config)
		if err != nil {
			return nil, fmt.Errorf("creating s3 store: %w", err)
		}
		objects = s3store
	default:
		return nil, errors.New("invalid ObjectStoreType: must be 'local' or 's3'")
	}

	bots := cfg.Bots
	if len(bots) == 0 {
		return nil, errors.New("at least one bot is required")
	}

	fetchTimeout := cfg.FetchTimeout
	if fetchTimeout == 0 {
		fetchTimeout = 30 * time.Second
	}

	if cfg.Notify == (notify.Config{}) {
		cfg.Notify = notify.DefaultConfig()
	}
	if cfg.Game.BaseURL == "" {
		cfg.Game.BaseURL = game.DefaultConfig().BaseURL
	}

	clk := clock.New()
	rnd := random.New()
	queue := tasks.New(cfg.Tasks, logger)
	closers = append(closers, func() error {
		queue.Close()
		return nil
	})

	app := newWithDependencies(dependencies{
		storage: store,
		objects: objects,
		clock:   clk,
		random:  rnd,
		queue:   queue,
		fetcher: httpfetch.New(fetchTimeout),
		namer:   naming.New(rnd),
		bots:    bots,
	}, cfg, logger)
	app.closers = closers
	return app, nil
}

// dependencies are the externally provided pieces an App is built from
type dependencies struct {
	storage storage.Storage
	objects objectstore.Store
	clock   clock.Clock
	random  random.Random
	queue   *tasks.Queue
	fetcher httpfetch.Fetcher
	namer   game.Namer
	bots    []notify.Bot
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(deps dependencies, cfg Config, logger *slog.Logger) *App {
	if cfg.Avatar == (avatar.Config{}) {
		cfg.Avatar = avatar.DefaultConfig()
	}
	if cfg.Imaging == (imaging.Config{}) {
		cfg.Imaging = imaging.DefaultConfig()
	}

	res := resolver.New(deps.storage, deps.clock, logger)
	dispatcher := notify.NewDispatcher(deps.storage, res, cfg.Notify, logger, deps.bots...)
	images := imaging.New(cfg.Imaging)
	avatars := avatar.New(deps.storage, dispatcher, deps.fetcher, deps.objects, deps.clock, cfg.Avatar, logger)
	titles := title.New(deps.storage, deps.objects, images, deps.clock, deps.random, logger)
	games := game.NewController(
		deps.storage, res, dispatcher, deps.queue, images, deps.objects,
		avatars, titles, deps.namer, deps.clock, deps.random, cfg.Game, logger,
	)
	esc := escalator.New(deps.storage, games, dispatcher, cfg.Escalator, logger)
	prefix := cfg.Escalator.CommandPrefix
	if prefix == "" {
		prefix = escalator.DefaultConfig().CommandPrefix
	}
	chatHandler := chat.New(games, dispatcher, prefix, logger)

	return &App{
		Storage:    deps.storage,
		Objects:    deps.objects,
		Clock:      deps.clock,
		Random:     deps.random,
		Resolver:   res,
		Dispatcher: dispatcher,
		Queue:      deps.queue,
		Images:     images,
		Avatars:    avatars,
		Titles:     titles,
		Games:      games,
		Escalator:  esc,
		Chat:       chatHandler,
		Logger:     logger,
	}
}

// Close drains background work and releases connections
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
