// Package fiber implements the cooperative, continuation-based execution
// context that drives one request/response through a tubeline.
package fiber

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	uuid "github.com/satori/go.uuid"

	"github.com/fiberline/fiberline/pkg/action"
	"github.com/fiberline/fiberline/pkg/interceptor"
	"github.com/fiberline/fiberline/pkg/tube"
)

// Submitter posts a runnable onto an executor. Engine implements this; the
// fiber package only needs the ability to hand itself back to whatever is
// driving it asynchronously, so it depends on this narrow interface rather
// than on the engine package (which in turn depends on fiber, to create
// fibers bound to itself).
type Submitter interface {
	Submit(func())
}

// CompletionCallback is invoked at most once when a fiber reaches a
// terminal state: packet holds the final response on success, err holds
// the unconverted throwable on failure (mutually exclusive).
type CompletionCallback[P any] func(packet P, err error)

// Snapshot is a read-only view of a fiber's scheduling state, useful for
// diagnostics and tests without reaching past the fiber's monitor.
type Snapshot[P any] struct {
	HasNext        bool
	Packet         P
	Throwable      error
	SuspendedCount int
	Completed      bool
	Synchronous    bool
}

// Fiber[P] is the cooperative task described by spec.md §3-§5: it owns the
// continuation stack, the in-flight packet, the pending throwable, the
// suspend/resume race counter, the interceptor chain and the completion
// callback, and drives exactly one tubeline run at a time. A Fiber is
// executed by at most one goroutine at any instant; all mutation of its
// scheduling state happens either on that single driving goroutine or
// under fiber.mu (Resume, RunSync's wait, completion).
type Fiber[P any] struct {
	id uuid.UUID

	submitter    Submitter
	interceptors *interceptor.Handler

	mu   sync.Mutex
	cond *sync.Cond

	// Scheduling state — guarded by mu except while a single goroutine is
	// actively stepping the loop (the driving goroutine owns it exclusively
	// between steps; Resume/RunSync touch it only under mu).
	next           tube.Tube[P]
	continuations  []tube.Tube[P]
	packet         P
	throwable      error
	suspendedCount int
	completed      bool
	synchronous    bool
	started        bool

	interruptPending bool
	interruptErr     error

	ambient            any
	completionCallback CompletionCallback[P]
}

// New creates a fiber bound to submitter (normally an Engine), with an
// initial interceptor set. The fiber starts suspended: nothing runs until
// Start or RunSync.
func New[P any](submitter Submitter, interceptors ...interceptor.Interceptor) *Fiber[P] {
	id, err := uuid.NewV4()
	if err != nil {
		// satori/go.uuid only fails to read the system's random source; a
		// process that can't do that can't run anything else either.
		panic(fmt.Sprintf("fiber: failed to mint fiber id: %v", err))
	}
	f := &Fiber[P]{
		id:           id,
		submitter:    submitter,
		interceptors: interceptor.NewHandler(interceptors...),
	}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// ID returns this fiber's stable identity, used for log/trace correlation.
func (f *Fiber[P]) ID() uuid.UUID { return f.id }

// AddInterceptor appends an interceptor to this fiber's chain. Effective
// starting at the next tube boundary (see pkg/interceptor).
func (f *Fiber[P]) AddInterceptor(i interceptor.Interceptor) { f.interceptors.Add(i) }

// RemoveInterceptor removes i from this fiber's chain, reporting whether
// it was present.
func (f *Fiber[P]) RemoveInterceptor(i interceptor.Interceptor) bool {
	return f.interceptors.Remove(i)
}

// IsAlive reports whether the fiber has not yet reached a terminal state.
func (f *Fiber[P]) IsAlive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.completed
}

// Packet returns the fiber's current in-flight packet and whether the
// fiber has one (a completed fiber with an unconverted throwable does
// not).
func (f *Fiber[P]) Packet() (P, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.packet, f.throwable == nil
}

// Ambient returns the ambient value installed on this fiber (the
// equivalent of a context class loader: whatever a tube or interceptor
// wants threaded through without touching every signature).
func (f *Fiber[P]) Ambient() any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ambient
}

// SetAmbient installs the ambient value.
func (f *Fiber[P]) SetAmbient(v any) {
	f.mu.Lock()
	f.ambient = v
	f.mu.Unlock()
}

// Snapshot takes a consistent read of the fiber's scheduling state.
func (f *Fiber[P]) Snapshot() Snapshot[P] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Snapshot[P]{
		HasNext:        f.next != nil,
		Packet:         f.packet,
		Throwable:      f.throwable,
		SuspendedCount: f.suspendedCount,
		Completed:      f.completed,
		Synchronous:    f.synchronous,
	}
}

// Current returns the fiber driving the calling goroutine, if any. Valid
// only when called from within a tube's ProcessRequest/ProcessResponse/
// ProcessException or from within an interceptor wrapping one of those.
func Current[P any]() (*Fiber[P], bool) {
	v, ok := currentAny()
	if !ok {
		return nil, false
	}
	f, ok := v.(*Fiber[P])
	return f, ok
}

// IsSynchronous reports whether the calling goroutine's current fiber
// activation is a RunSync driving the loop on the caller's own goroutine,
// as opposed to an asynchronous pass driven from the engine's executor.
// Valid only from within a tube or interceptor.
func IsSynchronous() bool {
	v, ok := currentAny()
	if !ok {
		return false
	}
	type synchronousReporter interface{ isSynchronousNow() bool }
	sr, ok := v.(synchronousReporter)
	return ok && sr.isSynchronousNow()
}

func (f *Fiber[P]) isSynchronousNow() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.synchronous
}

// Start launches the tubeline asynchronously: the fiber is submitted to
// its Submitter's executor, which drives it on some other goroutine.
// callback is invoked exactly once, on whatever goroutine happens to drive
// the fiber to completion.
func (f *Fiber[P]) Start(root tube.Tube[P], request P, callback CompletionCallback[P]) {
	f.mu.Lock()
	f.next = root
	f.packet = request
	f.throwable = nil
	f.continuations = nil
	f.completed = false
	f.synchronous = false
	f.started = true
	f.completionCallback = callback
	f.mu.Unlock()

	f.submitter.Submit(f.doRun)
}

// RunSync drives the tubeline on the caller's own goroutine, blocking
// until the fiber completes or ctx is done. A fiber that suspends mid-run
// parks the calling goroutine on the fiber's condition variable; a later
// Resume (from any goroutine) wakes it.
//
// If the fiber is re-entered synchronously from within one of its own
// tubes (a tube calls RunSync on the same *Fiber* it is itself executing
// inside of), the outer continuation stack is saved and isolated for the
// duration of the inner run, matching spec.md §4.5.
//
// ctx cancellation does not cancel the fiber — it only unparks this
// particular RunSync call's wait and is surfaced as the returned error
// once the fiber eventually reaches a terminal state through a genuine
// Resume; the fiber itself keeps running for whoever else may be driving
// it.
func (f *Fiber[P]) RunSync(ctx context.Context, root tube.Tube[P], request P) (P, error) {
	f.mu.Lock()
	savedNext := f.next
	savedContinuations := f.continuations
	savedPacket := f.packet
	savedThrowable := f.throwable
	savedCompleted := f.completed
	savedSynchronous := f.synchronous

	f.next = root
	f.packet = request
	f.throwable = nil
	f.continuations = nil
	f.completed = false
	f.synchronous = true
	f.mu.Unlock()

	restore := bindCurrent(f)
	defer restore()

	var stop chan struct{}
	if ctx != nil && ctx.Done() != nil {
		stop = make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				f.mu.Lock()
				f.interruptPending = true
				f.interruptErr = ctx.Err()
				f.cond.Broadcast()
				f.mu.Unlock()
			case <-stop:
			}
		}()
		defer close(stop)
	}

	for {
		f.doRun()

		f.mu.Lock()
		if f.completed {
			packet := f.packet
			err := f.throwable
			interruptErr := f.interruptErr
			f.interruptPending = false
			f.interruptErr = nil

			// Restore the outer activation's state for a re-entrant call.
			f.next = savedNext
			f.continuations = savedContinuations
			f.packet = savedPacket
			f.throwable = savedThrowable
			f.completed = savedCompleted
			f.synchronous = savedSynchronous
			f.mu.Unlock()

			if err != nil {
				return packet, err
			}
			if interruptErr != nil {
				return packet, fmt.Errorf("fiber: synchronous wait interrupted: %w", interruptErr)
			}
			return packet, nil
		}
		// Suspended: wait for Resume to bring suspendedCount back to zero.
		for f.suspendedCount == 1 && !f.completed {
			f.cond.Wait()
		}
		f.mu.Unlock()
	}
}

// Resume delivers a response packet to a suspended fiber. It is race-free
// with respect to a tube that is still in the middle of returning a
// Suspend action: see spec.md §5 for the -1/0/1 counter argument.
func (f *Fiber[P]) Resume(response P) {
	f.mu.Lock()
	f.packet = response
	f.suspendedCount--
	reachedZero := f.suspendedCount == 0
	synchronous := f.synchronous
	f.mu.Unlock()

	if !reachedZero {
		return
	}
	if synchronous {
		f.mu.Lock()
		f.cond.Broadcast()
		f.mu.Unlock()
		return
	}
	f.submitter.Submit(f.doRun)
}

// markSuspended increments suspendedCount and reports whether the fiber
// should actually park (true) or whether a racing Resume already brought
// the count back to zero, in which case the fiber must proceed immediately
// without parking and without losing the packet Resume already delivered.
func (f *Fiber[P]) markSuspended() (parked bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.suspendedCount++
	return f.suspendedCount != 0
}

type stepOutcome int

const (
	outcomeContinue stepOutcome = iota
	outcomeSuspended
	outcomeCompleted
)

// doRun is one driving pass: it assembles the current interceptor chain
// and runs the step loop inside it, re-wrapping whenever a tube mutates
// the interceptor list mid-pass (see pkg/interceptor's doc comment), until
// the fiber suspends or completes.
func (f *Fiber[P]) doRun() {
	restore := bindCurrent(f)
	defer restore()

	for {
		f.interceptors.ClearReenter()
		var outcome stepOutcome
		err := f.interceptors.Run(context.Background(), f, func() error {
			outcome = f.runUntilBlockedOrReentryNeeded()
			return nil
		})
		if err != nil {
			// An interceptor's own prelude/cleanup failed outside of any
			// tube call; this is an assertion failure in the interceptor,
			// not a protocol error the tubeline can convert.
			slog.Error("fiber: interceptor chain returned an error", "fiber", f.id, "error", err)
		}
		if outcome == outcomeCompleted {
			f.completionCheck()
			return
		}
		if outcome == outcomeSuspended {
			return
		}
		// outcomeContinue: a tube changed the interceptor set mid-pass;
		// loop around to rebuild the chain before the next tube boundary.
	}
}

// runUntilBlockedOrReentryNeeded runs spec.md §4.4's step loop until the
// fiber suspends, completes, or the interceptor list became dirty and
// needs to be rewrapped before the next step.
func (f *Fiber[P]) runUntilBlockedOrReentryNeeded() stepOutcome {
	for {
		outcome, stepped := f.step()
		if !stepped || outcome == outcomeSuspended {
			return outcome
		}
		if f.interceptors.NeedsToReenter() {
			return outcomeContinue
		}
	}
}

// step performs exactly one tube invocation and interprets its action,
// per spec.md §4.4. stepped is false when no tube call happened because
// the fiber has reached a terminal state (outcome is then outcomeCompleted).
func (f *Fiber[P]) step() (outcome stepOutcome, stepped bool) {
	if f.throwable != nil {
		if len(f.continuations) == 0 {
			return outcomeCompleted, false
		}
		last := f.pop()
		act := f.callTube(func() action.Action[P] { return last.ProcessException(f.throwable) })
		return f.interpretOutcome(last, act), true
	}
	if f.next != nil {
		last := f.next
		act := f.callTube(func() action.Action[P] { return last.ProcessRequest(f.packet) })
		return f.interpretOutcome(last, act), true
	}
	if len(f.continuations) == 0 {
		return outcomeCompleted, false
	}
	last := f.pop()
	act := f.callTube(func() action.Action[P] { return last.ProcessResponse(f.packet) })
	return f.interpretOutcome(last, act), true
}

// interpretOutcome wraps interpret with the stepOutcome the driving loop
// needs: outcomeSuspended only when this step genuinely parked the fiber,
// outcomeContinue otherwise (including the racing-Suspend case, where the
// fiber must keep driving immediately).
func (f *Fiber[P]) interpretOutcome(last tube.Tube[P], act action.Action[P]) stepOutcome {
	if f.interpret(last, act) {
		return outcomeSuspended
	}
	return outcomeContinue
}

// callTube invokes a tube method and converts a panic into a Throw action,
// so a raw runtime error escaping a tube unwinds exactly like a returned
// THROW action (spec.md §7, error class 2). Only runtime/programming
// errors are in contract here; a tube that panics with something that
// isn't an error is a contract violation and is wrapped accordingly rather
// than silently swallowed.
func (f *Fiber[P]) callTube(call func() action.Action[P]) (act action.Action[P]) {
	defer func() {
		if r := recover(); r != nil {
			if err, ok := r.(error); ok {
				act = action.ThrowException[P](err)
			} else {
				act = action.ThrowException[P](fmt.Errorf("fiber: tube panicked: %v", r))
			}
		}
	}()
	return call()
}

func (f *Fiber[P]) pop() tube.Tube[P] {
	n := len(f.continuations)
	last := f.continuations[n-1]
	f.continuations = f.continuations[:n-1]
	return last
}

func (f *Fiber[P]) push(t tube.Tube[P]) {
	f.continuations = append(f.continuations, t)
}

// interpret applies one returned Action to the fiber's state, per
// spec.md §4.4. It runs entirely on the driving goroutine; no lock is
// held except where Suspend must touch suspendedCount.
func (f *Fiber[P]) interpret(last tube.Tube[P], act action.Action[P]) (parked bool) {
	if act.Kind() != action.KindSuspend {
		f.packet = act.Packet()
		f.throwable = act.Throwable()
	}

	switch act.Kind() {
	case action.KindInvoke:
		f.push(last)
		f.next = asTube[P](act.Next())
	case action.KindInvokeAndForget:
		f.next = asTube[P](act.Next())
	case action.KindReturn:
		f.next = nil
	case action.KindThrow:
		f.next = nil
	case action.KindSuspend:
		f.push(last)
		f.next = nil
		if !f.markSuspended() {
			// Racing resume already happened; proceed immediately using
			// the packet Resume delivered, without parking.
			return false
		}
		return true
	default:
		panic(fmt.Sprintf("fiber: unknown action kind %v", act.Kind()))
	}
	return false
}

func asTube[P any](n action.Next) tube.Tube[P] {
	if n == nil {
		return nil
	}
	t, ok := n.(tube.Tube[P])
	if !ok {
		panic(fmt.Sprintf("fiber: action.Next held %T, not a tube.Tube", n))
	}
	return t
}

// completionCheck marks the fiber completed, wakes any synchronous
// waiter, and invokes the completion callback exactly once. Guarded by
// the completed flag so a second call (which should not happen, since
// doRun only calls this once per terminal transition) is a no-op.
func (f *Fiber[P]) completionCheck() {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		return
	}
	f.completed = true
	packet := f.packet
	err := f.throwable
	callback := f.completionCallback
	synchronous := f.synchronous
	f.mu.Unlock()

	if synchronous {
		f.mu.Lock()
		f.cond.Broadcast()
		f.mu.Unlock()
	}
	if callback != nil {
		callback(packet, err)
	}
}
