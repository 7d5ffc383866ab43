// Package tube defines the Tube contract stages implement, and the cloner
// used to duplicate a tubeline graph for concurrent use.
package tube

import (
	"fmt"

	"github.com/fiberline/fiberline/pkg/action"
)

// Tube[P] is the contract every stage in a tubeline implements. A tube may
// hold a reference to a "next" tube, forming the forward direction of the
// tubeline; tubelines built from tubes that hold such references may be
// cyclic and may share sub-tubes, so implementations must route duplication
// through Cloner rather than copying fields by hand.
//
// A tube instance is non-reentrant: the fiber scheduler never calls two of
// these methods concurrently on the same instance. Tubes need not be safe
// for concurrent use across instances either — concurrent flows are meant
// to run against independent clones.
//
// None of the five operations may escape an error by panicking except with
// a genuine runtime/programming error (see the comment on pkg/fiber's
// callTube); anything recoverable is reported via ThrowException.
type Tube[P any] interface {
	// ProcessRequest consumes a forward-flowing packet and produces the
	// next action.
	ProcessRequest(p P) action.Action[P]
	// ProcessResponse consumes a backward-flowing packet and produces the
	// next action. Called only on a tube that earlier returned an Invoke
	// or Suspend action, which pushed it onto the continuation stack.
	ProcessResponse(p P) action.Action[P]
	// ProcessException consumes the fiber's pending error and produces the
	// next action — typically Throw to keep unwinding, or Return/Invoke to
	// convert the error back into a normal value.
	ProcessException(err error) action.Action[P]
	// PreDestroy is called once on one copy of the tubeline when that copy
	// is being retired. It must not block indefinitely.
	PreDestroy()
	// Copy produces an isomorphic deep copy of this tube for use by
	// Cloner.Clone. Implementations MUST call cloner.Add(self, copy) with
	// the copy they are about to return *before* recursively cloning any
	// tube references they own — see Cloner's doc comment for why.
	Copy(cloner *Cloner[P]) Tube[P]
}

// Cloner[P] is a one-shot graph-isomorphism map used while duplicating a
// tubeline. A single Cloner instance is created per top-level Clone call
// and discarded once that call returns.
//
// Clone walks the tubeline depth-first. Because tubelines may be cyclic and
// may share sub-tubes (the canonical diamond: A references B and C, both B
// and C reference D), a naive recursive copy would either loop forever on
// a cycle or produce two distinct copies of a shared D. Cloner breaks both
// problems the same way: Copy(t) must register t's copy in the map *before*
// it recurses into t's own tube references, so a cycle or a shared
// reference encountered during that recursion finds the copy already on
// file and reuses it instead of cloning again.
type Cloner[P any] struct {
	copies map[Tube[P]]Tube[P]
}

// Clone is the entry point: it creates a fresh Cloner and clones root.
func Clone[P any](root Tube[P]) Tube[P] {
	c := &Cloner[P]{copies: make(map[Tube[P]]Tube[P])}
	return c.Copy(root)
}

// Copy returns t's clone, creating it via t.Copy(c) on first encounter and
// returning the previously recorded clone on every subsequent encounter
// (including encounters that occur because t is part of a cycle reachable
// from itself).
func (c *Cloner[P]) Copy(t Tube[P]) Tube[P] {
	if t == nil {
		var zero Tube[P]
		return zero
	}
	if existing, ok := c.copies[t]; ok {
		return existing
	}
	clone := t.Copy(c)
	recorded, ok := c.copies[t]
	if !ok || recorded != clone {
		panic(fmt.Sprintf("tube: %T.Copy did not call cloner.Add(self, copy) before returning", t))
	}
	return clone
}

// Add registers original's clone. Tube.Copy implementations must call this
// with the value they are about to return before recursing into any tube
// references they own; calling it twice for the same original is a
// programming error and panics, since that would mean two different copies
// were minted for one original — breaking the isomorphism guarantee.
func (c *Cloner[P]) Add(original, clone Tube[P]) {
	if _, exists := c.copies[original]; exists {
		panic(fmt.Sprintf("tube: %T already registered with this Cloner", original))
	}
	c.copies[original] = clone
}

// Validate reports whether root's tubeline can be cloned without violating
// the Cloner contract — a Tube.Copy that forgets to call Add before
// recursing, or that registers two different copies for the same original,
// surfaces here as an error instead of as a panic the first time the
// tubeline is actually duplicated for concurrent use. It does this by
// performing a throwaway Clone and discarding the result.
func Validate[P any](root Tube[P]) (err error) {
	if root == nil {
		return fmt.Errorf("tube: root is nil")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tube: invalid tubeline: %v", r)
		}
	}()
	Clone(root)
	return nil
}
