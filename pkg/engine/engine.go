// Package engine implements the container that owns an executor and hands
// out fibers bound to it.
package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/fiberline/fiberline/pkg/fiber"
	"github.com/fiberline/fiberline/pkg/interceptor"
)

// defaultPoolSize is the fixed worker count of the daemon pool an Engine
// creates for itself when none is configured, matching the "small
// fixed-size daemon thread pool" spec.md §4.7 calls for.
const defaultPoolSize = 8

// Executor runs submitted work. *Pool (below) is the engine's own small
// fixed-size implementation; engines may instead be handed any Executor
// that satisfies this — a process-wide worker pool shared across engines,
// for instance.
type Executor interface {
	Submit(work func())
}

// serializeExecution is the process-wide flag from spec.md §5/§6 that
// forces the driving passes engines submit to their executors (Start, and
// Resume of an asynchronous fiber), across every fiber of every engine, to
// run one at a time. A pass that RunSync drives on the caller's own
// goroutine does not take the lock and is not serialized by this flag.
var (
	serializeMu  sync.Mutex
	serializeSet bool
)

// SetSerializeExecution enables or disables process-wide serialization of
// driving passes.
func SetSerializeExecution(enabled bool) {
	serializeMu.Lock()
	serializeSet = enabled
	serializeMu.Unlock()
}

// SerializeExecution reports the current process-wide setting.
func SerializeExecution() bool {
	serializeMu.Lock()
	defer serializeMu.Unlock()
	return serializeSet
}

// globalRunLock is held for the duration of an executor-submitted driving
// pass whenever SerializeExecution is enabled.
var globalRunLock sync.Mutex

// Engine[P] owns an Executor and creates fibers bound to it. It has no
// other responsibility — per spec.md §4.7 it does not track live fibers.
type Engine[P any] struct {
	id       string
	mu       sync.Mutex
	executor Executor
	pool     *Pool // non-nil only if this engine lazily created its own pool
}

// New creates an engine identified by id, with no executor configured; a
// small daemon pool is lazily created on first use of CreateFiber unless
// SetExecutor is called first.
func New[P any](id string) *Engine[P] {
	return &Engine[P]{id: id}
}

// NewWithExecutor creates an engine identified by id, bound to executor
// from the start.
func NewWithExecutor[P any](id string, executor Executor) *Engine[P] {
	return &Engine[P]{id: id, executor: executor}
}

// ID returns this engine's identity, as given to New/NewWithExecutor.
func (e *Engine[P]) ID() string { return e.id }

// SetExecutor installs an executor, replacing any lazily-created default
// pool. Safe to call before the engine has created any fibers.
func (e *Engine[P]) SetExecutor(executor Executor) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pool != nil {
		e.pool.Shutdown()
		e.pool = nil
	}
	e.executor = executor
}

func (e *Engine[P]) executorLocked() Executor {
	if e.executor == nil {
		e.pool = NewPool(defaultPoolSize)
		e.executor = e.pool
	}
	return e.executor
}

// CreateFiber returns a new fiber bound to this engine's executor, with an
// initial interceptor set.
func (e *Engine[P]) CreateFiber(interceptors ...interceptor.Interceptor) *fiber.Fiber[P] {
	e.mu.Lock()
	submitter := fiberSubmitter[P]{e}
	_ = e.executorLocked()
	e.mu.Unlock()
	return fiber.New[P](submitter, interceptors...)
}

// submit posts work (a fiber's driving pass) to this engine's
// executor, honoring the process-wide serialization flag if enabled. This
// is the mechanism backing Fiber.Start and Fiber.Resume — both reach it
// indirectly through the fiber.Submitter each fiber is bound to at
// creation, per spec.md §4.7 ("posts runnable fibers to the executor").
func (e *Engine[P]) submit(work func()) {
	e.mu.Lock()
	executor := e.executorLocked()
	e.mu.Unlock()

	executor.Submit(func() {
		if SerializeExecution() {
			globalRunLock.Lock()
			defer globalRunLock.Unlock()
		}
		work()
	})
}

// fiberSubmitter adapts Engine to fiber.Submitter so pkg/fiber never needs
// to import pkg/engine.
type fiberSubmitter[P any] struct{ e *Engine[P] }

func (s fiberSubmitter[P]) Submit(work func()) { s.e.submit(work) }

// Shutdown stops this engine's own lazily-created pool, if any, waiting up
// to ctx's deadline for in-flight work to drain. Engines configured with an
// externally-owned Executor (via SetExecutor) are not shut down here — the
// caller owns that executor's lifecycle.
func (e *Engine[P]) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	pool := e.pool
	e.mu.Unlock()
	if pool == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		pool.Shutdown()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		slog.Warn("engine: shutdown deadline exceeded waiting for pool drain", "engine", e.id)
		return ctx.Err()
	}
}
