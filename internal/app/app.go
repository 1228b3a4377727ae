// Copyright (c) 2026 Vecinity Team
// Vecinity - community reporting API
// This source code is licensed under the MIT license found in the LICENSE file.

// Package app owns the process lifecycle: it prepares the database, binds
// the listener, supervises background work and decides the exit code.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	clog "github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/vecinity/vecinity-api/internal/config"
	"github.com/vecinity/vecinity-api/internal/logging"
)

const (
	defaultShutdownTimeout = 10 * time.Second
	readHeaderTimeout      = 10 * time.Second
)

// Initializer readies the backing store. A non-nil error aborts startup
// before the listener is bound.
type Initializer func(ctx context.Context) error

// Task is a supervised background job. It must return when ctx is done.
type Task func(ctx context.Context) error

// ListenFunc binds the server socket.
type ListenFunc func(network, address string) (net.Listener, error)

// Fault describes an unhandled failure that brings the process down.
type Fault struct {
	Source  string
	Message string
	Stack   []byte
}

// Orchestrator runs the server through its lifecycle states.
type Orchestrator struct {
	cfg         *config.ServerConfig
	handler     http.Handler
	init        Initializer
	listen      ListenFunc
	signals     <-chan os.Signal
	storageKind string
	log         *clog.Logger

	state  atomic.Int32
	faults chan Fault
	tasks  []Task
	ready  chan struct{}

	mu   sync.Mutex
	addr net.Addr
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithListen replaces net.Listen.
func WithListen(fn ListenFunc) Option {
	return func(o *Orchestrator) { o.listen = fn }
}

// WithSignals supplies the shutdown signal channel. By default SIGINT and
// SIGTERM are subscribed when Run starts.
func WithSignals(ch <-chan os.Signal) Option {
	return func(o *Orchestrator) { o.signals = ch }
}

// WithStorageKind sets the storage label shown in the startup banner.
func WithStorageKind(kind string) Option {
	return func(o *Orchestrator) { o.storageKind = kind }
}

// New returns an orchestrator serving handler once init succeeds.
func New(cfg *config.ServerConfig, init Initializer, handler http.Handler, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:     cfg,
		handler: handler,
		init:    init,
		listen:  net.Listen,
		log:     logging.Named("app"),
		faults:  make(chan Fault, 1),
		ready:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State { return State(o.state.Load()) }

// Ready is closed once the listener is bound.
func (o *Orchestrator) Ready() <-chan struct{} { return o.ready }

// Addr returns the bound address, or nil before Listening.
func (o *Orchestrator) Addr() net.Addr {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.addr
}

// Go registers a background task started once the server listens. A task
// that panics or returns an error while the server is running is treated
// as an unhandled fault. Go must be called before Run.
//
// Only handlers, Go tasks and Spawn goroutines are supervised. A panic in a
// goroutine started with a bare go statement still kills the process with
// the runtime's exit status 2.
func (o *Orchestrator) Go(t Task) {
	o.tasks = append(o.tasks, t)
}

func (o *Orchestrator) setState(s State) {
	prev := State(o.state.Swap(int32(s)))
	if prev != s {
		o.log.Info("state change", "from", prev, "to", s)
	}
}

// reportFault records f unless a fault is already pending.
func (o *Orchestrator) reportFault(f Fault) {
	select {
	case o.faults <- f:
	default:
	}
}

// Run drives the lifecycle and returns the process exit code.
func (o *Orchestrator) Run(ctx context.Context) int {
	o.setState(StateStarting)

	if o.init != nil {
		if err := o.init(ctx); err != nil {
			o.log.Error("initialization failed, not starting server", "err", err)
			o.setState(StateAborted)
			return StateAborted.ExitCode()
		}
	}

	ln, err := o.listen("tcp", o.cfg.Addr())
	if err != nil {
		o.log.Error("failed to bind listener", "addr", o.cfg.Addr(), "err", err)
		o.setState(StateAborted)
		return StateAborted.ExitCode()
	}

	signals := o.signals
	if signals == nil {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(ch)
		signals = ch
	}

	srv := &http.Server{
		Handler:           o.guard(o.handler),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext: func(net.Listener) context.Context {
			return context.WithValue(context.Background(), orchestratorKey{}, o)
		},
	}

	o.mu.Lock()
	o.addr = ln.Addr()
	o.mu.Unlock()
	o.setState(StateListening)
	o.banner()
	close(o.ready)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	serveErr := make(chan error, 1)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return err
		}
		return nil
	})
	for _, t := range o.tasks {
		g.Go(o.supervise(gctx, t))
	}

	var final State
	select {
	case sig := <-signals:
		o.log.Info("received shutdown signal", "signal", sig)
		final = StateGracefulShutdown
	case <-ctx.Done():
		o.log.Info("context cancelled, shutting down")
		final = StateGracefulShutdown
	case f := <-o.faults:
		o.log.Error("unhandled fault", "source", f.Source, "err", f.Message, "stack", string(f.Stack))
		final = StateFatalShutdown
	case err := <-serveErr:
		o.log.Error("server stopped", "err", err)
		final = StateAborted
	}
	o.setState(final)

	switch final {
	case StateGracefulShutdown:
		o.drain(srv)
	default:
		_ = srv.Close()
	}
	cancel()
	_ = g.Wait()

	o.log.Info("shutdown complete", "exit_code", final.ExitCode())
	return final.ExitCode()
}

// drain stops accepting connections and waits for in-flight requests up to
// the configured timeout.
func (o *Orchestrator) drain(srv *http.Server) {
	timeout := o.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		o.log.Warn("graceful shutdown timed out, closing remaining connections", "timeout", timeout, "err", err)
		_ = srv.Close()
	}
}

// supervise wraps t so panics and errors become faults. Errors returned
// after the server started shutting down are ignored.
func (o *Orchestrator) supervise(ctx context.Context, t Task) func() error {
	return func() error {
		defer func() {
			if v := recover(); v != nil {
				o.reportFault(Fault{Source: "background task", Message: fmt.Sprint(v), Stack: debug.Stack()})
			}
		}()
		if err := t(ctx); err != nil && ctx.Err() == nil {
			o.reportFault(Fault{Source: "background task", Message: err.Error()})
		}
		return nil
	}
}

type orchestratorKey struct{}

// Spawn runs fn on a new goroutine detached from ctx's cancellation. When
// ctx comes from a request served by an Orchestrator, a panic in fn is
// reported as an unhandled fault and the process exits 1. Outside a served
// request the panic propagates as usual.
func Spawn(ctx context.Context, fn func(ctx context.Context)) {
	o, _ := ctx.Value(orchestratorKey{}).(*Orchestrator)
	go func() {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if o == nil {
				panic(v)
			}
			o.reportFault(Fault{Source: "spawned goroutine", Message: fmt.Sprint(v), Stack: debug.Stack()})
		}()
		fn(context.WithoutCancel(ctx))
	}()
}

// guard turns a handler panic into a process fault. The client connection
// is dropped.
func (o *Orchestrator) guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v != http.ErrAbortHandler {
				o.reportFault(Fault{
					Source:  r.Method + " " + r.URL.Path,
					Message: fmt.Sprint(v),
					Stack:   debug.Stack(),
				})
			}
			panic(http.ErrAbortHandler)
		}()
		next.ServeHTTP(w, r)
	})
}

func (o *Orchestrator) banner() {
	o.log.Info("server listening",
		"port", o.cfg.Port,
		"environment", o.cfg.Environment,
		"database", o.storageKind,
		"url", o.cfg.PublicURL,
		"health", o.cfg.HealthURL(),
	)
}
