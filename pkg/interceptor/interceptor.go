// Package interceptor implements the wrapper chain a fiber's driving loop
// runs inside, used to install ambient thread-bound state (a security
// context, a transaction, a tracing span) around each scheduling quantum.
package interceptor

import "context"

// Work is the opaque continuation an Interceptor must invoke exactly once,
// between its prelude and its cleanup. It runs the next interceptor in the
// chain, or the raw driving pass once the chain is exhausted.
type Work func() error

// Interceptor wraps one entry into a fiber's execution loop. fiber is
// passed as `any` to avoid an import cycle with the fiber package (which
// depends on this one); concrete interceptors type-assert it back to
// *fiber.Fiber[P] if they need fiber-specific state.
//
// A typical shape: acquire a scoped resource, call work(), release the
// resource in a defer so it runs even if work panics (the execution loop
// itself never lets a tube's panic escape past ProcessRequest/Response/
// Exception, but an interceptor's own prelude/cleanup code is not
// protected the same way and must clean up defensively).
type Interceptor interface {
	Intercept(ctx context.Context, fiber any, work Work) error
}

// Handler holds an ordered list of interceptors and assembles them into a
// single nested call chain on demand. Interceptor 0 wraps interceptor 1
// wraps ... wraps the raw driving call, matching the order interceptors
// were added in.
//
// Handler additionally tracks a dirty flag: any call to Add or Remove marks
// the handler as needing re-entry. The fiber's execution loop checks this
// flag after every tube step and, if set, exits the current interceptor
// stack and re-enters it before the next tube boundary — never mid-step.
// This is what gives interceptor changes made by tube X effect starting at
// tube Y's invocation rather than retroactively inside X's own call.
type Handler struct {
	interceptors   []Interceptor
	needsToReenter bool
}

// NewHandler builds a Handler from an initial, possibly empty, list.
func NewHandler(interceptors ...Interceptor) *Handler {
	return &Handler{interceptors: append([]Interceptor(nil), interceptors...)}
}

// Add appends an interceptor and marks the handler dirty.
func (h *Handler) Add(i Interceptor) {
	h.interceptors = append(h.interceptors, i)
	h.needsToReenter = true
}

// Remove removes the first occurrence of i and marks the handler dirty if
// found. Reports whether an interceptor was removed.
func (h *Handler) Remove(i Interceptor) bool {
	for idx, existing := range h.interceptors {
		if existing == i {
			h.interceptors = append(h.interceptors[:idx], h.interceptors[idx+1:]...)
			h.needsToReenter = true
			return true
		}
	}
	return false
}

// NeedsToReenter reports whether the interceptor list changed since the
// flag was last cleared.
func (h *Handler) NeedsToReenter() bool { return h.needsToReenter }

// ClearReenter clears the dirty flag; called by the fiber loop once it has
// honored a pending re-entry.
func (h *Handler) ClearReenter() { h.needsToReenter = false }

// Len reports the current interceptor count.
func (h *Handler) Len() int { return len(h.interceptors) }

// Run assembles the current interceptor list into a nested chain around
// core and executes it. It snapshots the list at call time, so mutations
// made by core itself (a tube adding an interceptor mid-step) are observed
// on the next Run, not this one — exactly the deferred-effect rule the
// dirty flag exists to implement.
func (h *Handler) Run(ctx context.Context, fiber any, core Work) error {
	chain := core
	snapshot := h.interceptors
	for i := len(snapshot) - 1; i >= 0; i-- {
		ic := snapshot[i]
		next := chain
		chain = func() error { return ic.Intercept(ctx, fiber, next) }
	}
	return chain()
}
