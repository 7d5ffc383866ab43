package fiber

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// goroutineLocal tracks which fiber is currently driving which goroutine,
// so Current and IsSynchronous can be called from inside a tube without
// threading a context.Context through the Tube interface (the Java source
// this engine follows exposes Fiber.current() as a plain static accessor,
// valid only from within a tube call).
//
// Go deliberately has no supported goroutine-local storage, and none of
// the example repos in this codebase's lineage carry a dependency that
// provides it — the idiomatic Go answer to "ambient value reachable from
// anywhere in this call stack" is context.Context threaded explicitly, but
// the interface this package implements is fixed by spec.md to match the
// static accessor shape. Parsing the goroutine ID out of runtime.Stack is
// the standard (if inelegant) workaround; it is only ever read while the
// goroutine in question is synchronously inside a tube call, so there is
// no staleness window to worry about.
var (
	glMu    sync.Mutex
	current = make(map[uint64]any)
)

func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	const prefix = "goroutine "
	if i := bytes.Index(b, []byte(prefix)); i >= 0 {
		b = b[i+len(prefix):]
	}
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, _ := strconv.ParseUint(string(b), 10, 64)
	return id
}

func bindCurrent(f any) (restore func()) {
	id := goroutineID()
	glMu.Lock()
	prev, had := current[id]
	current[id] = f
	glMu.Unlock()
	return func() {
		glMu.Lock()
		if had {
			current[id] = prev
		} else {
			delete(current, id)
		}
		glMu.Unlock()
	}
}

func currentAny() (any, bool) {
	glMu.Lock()
	defer glMu.Unlock()
	v, ok := current[goroutineID()]
	return v, ok
}
