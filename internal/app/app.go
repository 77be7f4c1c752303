// Package app wires the tagger features together: configuration, format
// maps, the activation policy, the shared tagger cache and the feature
// factories.
package app

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/metric"

	"github.com/dshills/tagsource/internal/config"
	"github.com/dshills/tagsource/internal/feature/chardisplay"
	"github.com/dshills/tagsource/internal/feature/directory"
	"github.com/dshills/tagsource/internal/feature/script"
	"github.com/dshills/tagsource/internal/feature/syntax"
	"github.com/dshills/tagsource/internal/format"
	"github.com/dshills/tagsource/internal/host"
	"github.com/dshills/tagsource/internal/logging"
	"github.com/dshills/tagsource/internal/notify"
	"github.com/dshills/tagsource/internal/policy"
	"github.com/dshills/tagsource/internal/tagger/cache"
)

// Options configures the application.
type Options struct {
	// ConfigPath is the path to the configuration file.
	ConfigPath string

	// Watch reloads the configuration file when it changes.
	Watch bool

	// LogLevel overrides the configured log level when set.
	LogLevel string

	// Debug forces debug logging.
	Debug bool

	// LogOutput receives log output. Defaults to os.Stderr.
	LogOutput io.Writer

	// Meter records cache metrics. Defaults to the global meter provider.
	Meter metric.Meter

	// Roles are given to the views of opened documents.
	// Empty means host.DefaultRoles().
	Roles []host.Role
}

// Application is the central coordinator for all tagger components.
type Application struct {
	mu     sync.Mutex
	closed bool

	opts   Options
	logger *logging.Logger

	store     *config.Store
	watcher   *config.Watcher
	configSub *notify.Subscription

	registry *format.Registry
	formats  *format.Service
	display  *chardisplay.Display
	policy   *policy.Dynamic
	cache    *cache.Cache

	charDisplay *chardisplay.Factory
	directory   *directory.Factory
	syntax      *syntax.Factory
	script      *script.Factory

	directoryEnabled atomic.Bool
	syntaxEnabled    atomic.Bool

	documents *DocumentManager
}

// New creates a new Application with the given options.
func New(opts Options) (*Application, error) {
	app := &Application{
		opts:      opts,
		documents: NewDocumentManager(),
	}

	if err := app.bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// bootstrap initializes all components in dependency order.
func (app *Application) bootstrap() error {
	// 1. Configuration and logging
	cfg, err := config.Load(app.opts.ConfigPath)
	if err != nil {
		return &InitError{Component: "config", Err: err}
	}
	app.logger = logging.New(logging.Config{
		Level:  app.logLevel(cfg),
		Output: app.opts.LogOutput,
		Prefix: "tagsource",
	})
	app.store = config.NewStore(cfg)

	// 2. Host registries
	app.registry = format.DefaultRegistry()
	theme := cfg.Theme
	app.formats = format.NewService(&theme)
	app.display = chardisplay.NewDisplay()

	act, err := compilePolicy(cfg.Activation.Expr, app.logger)
	if err != nil {
		return &InitError{Component: "policy", Err: err}
	}
	app.policy = policy.NewDynamic(act)

	// 3. Shared source cache
	cacheOpts := []cache.Option{cache.WithLogger(app.logger.WithComponent("cache"))}
	if app.opts.Meter != nil {
		cacheOpts = append(cacheOpts, cache.WithMeter(app.opts.Meter))
	}
	app.cache = cache.New(cacheOpts...)

	// 4. Feature factories
	app.charDisplay = chardisplay.NewFactory(app.cache, app.formats, app.display,
		chardisplay.WithPolicy(app.policy),
		chardisplay.WithLogger(app.logger.WithComponent("chardisplay")),
	)
	app.directory = directory.NewFactory(app.cache, app.registry,
		directory.WithEnabled(app.directoryEnabled.Load),
		directory.WithLogger(app.logger.WithComponent("directory")),
	)
	app.syntax = syntax.NewFactory(app.cache, app.registry,
		syntax.WithEnabled(app.syntaxEnabled.Load),
		syntax.WithLogger(app.logger.WithComponent("syntax")),
	)
	app.script = script.NewFactory(app.cache, app.registry, app.logger.WithComponent("script"))

	app.applyConfig(cfg)
	app.configSub = app.store.OnChanged(app.applyConfig)

	// 5. Live reload
	if app.opts.Watch && app.opts.ConfigPath != "" {
		w, err := config.NewWatcher(app.opts.ConfigPath, app.store,
			config.WithWatcherLogger(app.logger.WithComponent("config")))
		if err != nil {
			return &InitError{Component: "config watcher", Err: err}
		}
		if err := w.Start(context.Background()); err != nil {
			return &InitError{Component: "config watcher", Err: err}
		}
		app.watcher = w
	}

	return nil
}

// applyConfig pushes cfg into every live component.
func (app *Application) applyConfig(cfg *config.Config) {
	app.logger.SetLevel(app.logLevel(cfg))

	app.display.Apply(cfg.CharDisplay)
	theme := cfg.Theme
	app.formats.SetTheme(&theme)
	app.directoryEnabled.Store(cfg.Directory.Enabled)
	app.syntaxEnabled.Store(cfg.Syntax.Enabled)
	app.script.Configure(app.resolvePath(cfg.Script.Path), cfg.Script.ContentTypes)

	act, err := compilePolicy(cfg.Activation.Expr, app.logger)
	if err != nil {
		app.logger.Warn("keeping previous activation policy: %v", err)
		return
	}
	app.policy.Set(act)
}

func (app *Application) logLevel(cfg *config.Config) logging.Level {
	switch {
	case app.opts.Debug:
		return logging.LevelDebug
	case app.opts.LogLevel != "":
		return logging.ParseLevel(app.opts.LogLevel)
	}
	return cfg.LogLevel()
}

// resolvePath makes a script path relative to the config file's directory.
func (app *Application) resolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) || app.opts.ConfigPath == "" {
		return path
	}
	return filepath.Join(filepath.Dir(app.opts.ConfigPath), path)
}

func compilePolicy(src string, logger *logging.Logger) (policy.Policy, error) {
	if src == "" {
		return policy.Always, nil
	}
	return policy.Compile(src, logger)
}

// Logger returns the application logger.
func (app *Application) Logger() *logging.Logger {
	return app.logger
}

// Config returns a copy of the active configuration.
func (app *Application) Config() *config.Config {
	return app.store.Current()
}

// SetConfig replaces the active configuration.
func (app *Application) SetConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	app.store.Set(cfg)
	return nil
}

// Cache returns the shared source cache.
func (app *Application) Cache() *cache.Cache {
	return app.cache
}

// Display returns the control character display settings.
func (app *Application) Display() *chardisplay.Display {
	return app.display
}

// Documents returns the open documents in opening order.
func (app *Application) Documents() []*Document {
	return app.documents.All()
}

// OpenFile opens a file or directory as a document.
func (app *Application) OpenFile(path string) (*Document, error) {
	if app.isClosed() {
		return nil, ErrClosed
	}
	doc, err := app.documents.Open(path, app.opts.Roles...)
	if err != nil {
		return nil, NewOperationError("open", path, err)
	}
	app.logger.Debug("opened %s (%s)", doc.Path, doc.Buffer.ContentType())
	return doc, nil
}

// OpenText opens an in-memory text document.
func (app *Application) OpenText(name, content string) (*Document, error) {
	if app.isClosed() {
		return nil, ErrClosed
	}
	return app.documents.Create(name, content, app.opts.Roles...), nil
}

// CloseDocument closes doc. Every source cached for its view and buffer
// is disposed.
func (app *Application) CloseDocument(doc *Document) error {
	return app.documents.Close(doc)
}

// Shutdown closes every document, the watcher and the cache.
// It is safe to call Shutdown multiple times.
func (app *Application) Shutdown() error {
	app.mu.Lock()
	if app.closed {
		app.mu.Unlock()
		return nil
	}
	app.closed = true
	app.mu.Unlock()

	errs := &ErrorList{}
	if app.watcher != nil {
		errs.Add(app.watcher.Close())
	}
	app.configSub.Unsubscribe()
	app.documents.CloseAll()
	app.cache.Close()

	app.logger.Debug("shutdown complete")
	return errs.AsError()
}

func (app *Application) isClosed() bool {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.closed
}
