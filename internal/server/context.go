package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teemow/sessionbill/internal/billing"
	"github.com/teemow/sessionbill/internal/instrumentation"
	"github.com/teemow/sessionbill/internal/invoicing"
)

// Runner executes billing runs. *invoicing.Service implements it.
type Runner interface {
	Run(ctx context.Context, opts invoicing.RunOptions) (*invoicing.Report, error)
}

// RunnerFactory builds the Runner on first use.
type RunnerFactory func(ctx context.Context) (Runner, error)

// Options configure a ServerContext.
type Options struct {
	Factory  RunnerFactory
	Location *time.Location
	OnError  billing.ErrorPolicy
	Logger   *slog.Logger
	Metrics  *instrumentation.Metrics
}

// ServerContext holds the state shared by the MCP tools
type ServerContext struct {
	ctx      context.Context
	cancel   context.CancelFunc
	factory  RunnerFactory
	runner   Runner
	location *time.Location
	onError  billing.ErrorPolicy
	logger   *slog.Logger
	metrics  *instrumentation.Metrics
	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a new server context
func NewServerContext(ctx context.Context, opts Options) (*ServerContext, error) {
	if opts.Factory == nil {
		return nil, fmt.Errorf("runner factory cannot be nil")
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:      shutdownCtx,
		cancel:   cancel,
		factory:  opts.Factory,
		location: opts.Location,
		onError:  opts.OnError,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Runner returns the billing runner, creating and caching it on first use.
// A failed creation is not cached so that a later call can retry, e.g. after
// the user ran the auth command.
func (sc *ServerContext) Runner() (Runner, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil, fmt.Errorf("server is shutting down")
	}
	if sc.runner != nil {
		return sc.runner, nil
	}

	runner, err := sc.factory(sc.ctx)
	if err != nil {
		return nil, err
	}
	sc.runner = runner
	return runner, nil
}

// Location returns the time zone tool arguments are interpreted in.
func (sc *ServerContext) Location() *time.Location {
	return sc.location
}

// ErrorPolicy returns the default policy for ambiguous events.
func (sc *ServerContext) ErrorPolicy() billing.ErrorPolicy {
	return sc.onError
}

// Logger returns the server logger
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// Metrics returns the metrics recorder, nil when instrumentation is disabled.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
