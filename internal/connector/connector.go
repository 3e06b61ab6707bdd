// Package connector wires configuration, stores, seeding, the catalog matcher
// and the management API into one runnable control plane.
package connector

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"dataspace-connector/internal/config"
	"dataspace-connector/internal/engine"
	"dataspace-connector/internal/instrument"
	"dataspace-connector/internal/seed"
	"dataspace-connector/internal/store"
)

const shutdownTimeout = 10 * time.Second

type Connector struct {
	cfg     *config.Config
	monitor instrument.Monitor
	stores  *store.Stores
	matcher *engine.CatalogMatcher
	app     *fiber.App
}

// New opens the configured stores, seeds them and builds the HTTP app.
// The caller owns the returned connector and must Close it.
func New(ctx context.Context, cfg *config.Config, m instrument.Monitor) (*Connector, error) {
	m = instrument.OrNoop(m)

	stores, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, errors.Wrap(err, "open stores")
	}
	m.Info("stores ready", "driver", stores.Driver())

	if _, err := Seed(ctx, stores, cfg.Seed, m); err != nil {
		stores.Close()
		return nil, err
	}

	matcher := engine.NewCatalogMatcher(stores.ContractDefinitions, stores.Policies,
		engine.WithMonitor(m),
		engine.WithSortByID(cfg.Catalog.SortByID),
	)

	return &Connector{
		cfg:     cfg,
		monitor: m,
		stores:  stores,
		matcher: matcher,
		app:     NewApp(cfg.Server, stores, matcher, m),
	}, nil
}

// NewApp builds the fiber app serving the management API over stores.
func NewApp(cfg config.ServerConfig, stores *store.Stores, matcher *engine.CatalogMatcher, m instrument.Monitor) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          engine.NewErrorHandler(m),
		DisableStartupMessage: true,
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(instrument.Middleware(m))

	h := engine.NewHandler(stores, matcher, m)
	engine.RegisterManagementRoutes(app, cfg.ManagementPath, h)
	return app
}

// Seed registers the sample data set and/or the configured seed file.
func Seed(ctx context.Context, stores *store.Stores, cfg config.SeedConfig, m instrument.Monitor) (seed.Result, error) {
	var doc seed.Document
	if cfg.Samples {
		doc = doc.Merge(seed.Samples())
	}
	if cfg.File != "" {
		fromFile, err := seed.LoadFile(cfg.File)
		if err != nil {
			return seed.Result{}, err
		}
		doc = doc.Merge(fromFile)
	}
	return seed.Apply(ctx, stores, doc, m)
}

func (c *Connector) App() *fiber.App { return c.app }

func (c *Connector) Stores() *store.Stores { return c.stores }

// Run serves until ctx is cancelled, then drains in-flight requests.
func (c *Connector) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", c.cfg.Server.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", addr)
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- c.app.Listener(ln)
	}()
	c.monitor.Info("management API listening", "addr", ln.Addr().String(), "path", c.cfg.Server.ManagementPath)

	select {
	case err := <-errCh:
		return errors.Wrap(err, "serve")
	case <-ctx.Done():
	}

	c.monitor.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err = c.app.ShutdownWithContext(sctx)
	_ = ln.Close()
	<-errCh
	return errors.Wrap(err, "shutdown")
}

func (c *Connector) Close() error {
	return c.stores.Close()
}
