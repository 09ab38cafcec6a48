package di

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"

	postscmd "github.com/goliatone/go-blog/internal/commands/posts"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/logging/gologger"
	"github.com/goliatone/go-blog/internal/posts"
	"github.com/goliatone/go-blog/internal/render"
	"github.com/goliatone/go-blog/internal/runtimeconfig"
	"github.com/goliatone/go-blog/internal/staticfile"
	"github.com/goliatone/go-blog/internal/storage"
	"github.com/goliatone/go-blog/internal/validation"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// Container wires the ingestion pipeline from a runtime configuration.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider

	bunDB         *bun.DB
	ownsDB        bool
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	contentFS fs.FS
	clock     func() time.Time

	store     posts.Store
	parser    *staticfile.Parser
	loader    *staticfile.Loader
	manager   *posts.Manager
	converter *render.Converter
	ingester  *postscmd.Ingester

	confirm       postscmd.Confirmer
	confirmSlug   postscmd.Confirmer
	confirmByline posts.BylineConfirmer
	reporter      postscmd.Reporter
	previewSink   postscmd.PreviewSink
	registry      postscmd.CommandRegistry

	handlers *postscmd.HandlerSet
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the provider built from the logging config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithBunDB uses an existing database instead of opening one. The caller
// keeps ownership of db.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithStore bypasses the database entirely, e.g. with posts.NewMemoryStore.
func WithStore(store posts.Store) Option {
	return func(c *Container) {
		c.store = store
	}
}

// WithCache overrides the cache service used when caching is enabled.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithContentFS reads content files from fsys rooted at the content
// directory instead of the host filesystem.
func WithContentFS(fsys fs.FS) Option {
	return func(c *Container) {
		c.contentFS = fsys
	}
}

// WithClock overrides the clock used to stamp updates.
func WithClock(clock func() time.Time) Option {
	return func(c *Container) {
		c.clock = clock
	}
}

func WithConfirmer(confirm postscmd.Confirmer) Option {
	return func(c *Container) {
		c.confirm = confirm
	}
}

func WithSlugChangeConfirmer(confirm postscmd.Confirmer) Option {
	return func(c *Container) {
		c.confirmSlug = confirm
	}
}

func WithBylineConfirmer(confirm posts.BylineConfirmer) Option {
	return func(c *Container) {
		c.confirmByline = confirm
	}
}

func WithReporter(reporter postscmd.Reporter) Option {
	return func(c *Container) {
		c.reporter = reporter
	}
}

func WithPreviewSink(sink postscmd.PreviewSink) Option {
	return func(c *Container) {
		c.previewSink = sink
	}
}

// WithCommandRegistry registers every post handler with reg.
func WithCommandRegistry(reg postscmd.CommandRegistry) Option {
	return func(c *Container) {
		c.registry = reg
	}
}

// NewContainer validates cfg and builds every collaborator of the ingest
// commands. Close releases the database when the container opened it.
func NewContainer(ctx context.Context, cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Container{Config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	steps := []func(context.Context) error{
		c.configureLoggerProvider,
		c.configureCacheDefaults,
		c.configureStore,
		c.configureParsing,
		c.configureCommands,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	return c, nil
}

func (c *Container) configureLoggerProvider(context.Context) error {
	if c.loggerProvider != nil {
		return nil
	}
	if strings.EqualFold(strings.TrimSpace(c.Config.Logging.Provider), "noop") {
		return nil
	}
	provider, err := gologger.NewProvider(gologger.Config{
		Level:     c.Config.Logging.Level,
		Format:    c.Config.Logging.Format,
		AddSource: c.Config.Logging.AddSource,
		Focus:     c.Config.Logging.Focus,
	})
	if err != nil {
		return err
	}
	c.loggerProvider = provider
	return nil
}

func (c *Container) configureCacheDefaults(context.Context) error {
	if !c.Config.Cache.Enabled {
		return nil
	}
	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if c.Config.Cache.TTL > 0 {
			cfg.TTL = c.Config.Cache.TTL
		}
		service, err := repocache.NewCacheService(cfg)
		if err != nil {
			return fmt.Errorf("di: cache service: %w", err)
		}
		c.cacheService = service
	}
	if c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
	return nil
}

func (c *Container) configureStore(ctx context.Context) error {
	if c.store != nil {
		return nil
	}
	if c.bunDB == nil {
		db, err := storage.Open(ctx, storage.Config{
			Driver:      c.Config.Storage.Driver,
			DSN:         c.Config.Storage.DSN,
			Debug:       c.Config.Storage.Debug,
			PingTimeout: 5 * time.Second,
		}, storage.WithLogger(logging.StorageLogger(c.loggerProvider)))
		if err != nil {
			return err
		}
		c.bunDB = db
		c.ownsDB = true
	}
	if err := storage.EnsureSchema(ctx, c.bunDB); err != nil {
		return err
	}

	if c.cacheService != nil {
		c.store = posts.NewBunStoreWithCache(c.bunDB, c.cacheService, c.keySerializer)
	} else {
		c.store = posts.NewBunStore(c.bunDB)
	}
	return nil
}

func (c *Container) configureParsing(context.Context) error {
	parserOpts := []staticfile.Option{
		staticfile.WithLogger(logging.StaticFileLogger(c.loggerProvider)),
	}
	if c.contentFS != nil {
		parserOpts = append(parserOpts, staticfile.WithFS(c.contentFS, c.Config.ContentDir))
	}

	authors, err := staticfile.ParseAuthorList(c.Config.Ingest.DefaultAuthors)
	if err != nil {
		return fmt.Errorf("di: default authors: %w", err)
	}
	if len(authors) > 0 {
		parserOpts = append(parserOpts, staticfile.WithDefaultAuthors(authors...))
	}

	if path := strings.TrimSpace(c.Config.Ingest.SchemaPath); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("di: read front matter schema: %w", err)
		}
		schema, err := validation.Compile(raw)
		if err != nil {
			return fmt.Errorf("di: compile front matter schema %s: %w", path, err)
		}
		parserOpts = append(parserOpts, staticfile.WithSchema(schema))
	}

	c.parser = staticfile.NewParser(parserOpts...)
	if c.contentFS != nil {
		c.loader = staticfile.NewLoader(c.contentFS, c.Config.ContentDir, c.Config.Ingest.Patterns...)
	} else {
		c.loader = staticfile.NewLoader(nil, "", c.Config.Ingest.Patterns...)
	}
	c.converter = render.NewConverter(c.Config.MarkdownOptions())
	return nil
}

func (c *Container) configureCommands(context.Context) error {
	postsLogger := logging.PostsLogger(c.loggerProvider)

	managerOpts := []posts.ManagerOption{
		posts.WithManagerLogger(postsLogger),
		posts.WithBylineConfirmer(c.confirmByline),
	}
	if c.clock != nil {
		managerOpts = append(managerOpts, posts.WithClock(c.clock))
	}
	manager, err := posts.NewManager(c.store.Authors(), c.store.Tags(), c.store.ShortURLs(), managerOpts...)
	if err != nil {
		return err
	}
	c.manager = manager

	ingester, err := postscmd.NewIngester(c.parser, c.store, manager,
		postscmd.WithDiscoverer(c.loader),
		postscmd.WithConfirmer(c.confirm),
		postscmd.WithSlugChangeConfirmer(c.confirmSlug),
		postscmd.WithReporter(c.reporter),
		postscmd.WithIngesterLogger(postsLogger),
	)
	if err != nil {
		return err
	}
	c.ingester = ingester

	handlers, err := postscmd.RegisterPostCommands(c.registry, postscmd.Dependencies{
		Ingester:  ingester,
		Parser:    c.parser,
		Converter: c.converter,
		Preview:   c.previewSink,
	}, c.loggerProvider)
	if err != nil {
		return err
	}
	c.handlers = handlers
	return nil
}

// LoggerProvider exposes the configured provider; nil means no-op logging.
func (c *Container) LoggerProvider() interfaces.LoggerProvider { return c.loggerProvider }

// Store exposes the post repositories.
func (c *Container) Store() posts.Store { return c.store }

// Converter exposes the body to HTML converter.
func (c *Container) Converter() *render.Converter { return c.converter }

// Ingester exposes the parse, reconcile and save pipeline.
func (c *Container) Ingester() *postscmd.Ingester { return c.ingester }

// Handlers exposes the command handlers.
func (c *Container) Handlers() *postscmd.HandlerSet { return c.handlers }

// Close releases the database opened by the container.
func (c *Container) Close() error {
	if c == nil || !c.ownsDB || c.bunDB == nil {
		return nil
	}
	err := c.bunDB.Close()
	c.bunDB = nil
	return err
}
