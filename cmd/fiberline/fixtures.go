package main

import (
	"fmt"
	"strings"

	"github.com/fiberline/fiberline/pkg/action"
	"github.com/fiberline/fiberline/pkg/tube"
)

// registry maps a topology node name to a constructor for the demo tube it
// names. fiberline run/validate only understand these built-in stages —
// they exist to exercise the scheduler end to end, the same role the
// teacher's otus-packet demo capture source plays for its own CLI.
var registry = map[string]func(next tube.Tube[string]) tube.Tube[string]{
	"echo":      func(next tube.Tube[string]) tube.Tube[string] { return &echoTube{Next: next} },
	"uppercase": func(next tube.Tube[string]) tube.Tube[string] { return &upperTube{Next: next} },
	"reject":    func(next tube.Tube[string]) tube.Tube[string] { return &rejectTube{Next: next} },
}

// echoTube invokes its next stage unchanged, or returns the packet as-is
// when it is the last stage in the chain.
type echoTube struct {
	Next tube.Tube[string]
}

func (e *echoTube) ProcessRequest(p string) action.Action[string] {
	if e.Next == nil {
		return action.ReturnWith(p)
	}
	return action.Invoke[string](e.Next, p)
}

func (e *echoTube) ProcessResponse(p string) action.Action[string] { return action.ReturnWith(p) }

func (e *echoTube) ProcessException(err error) action.Action[string] {
	return action.ThrowException[string](err)
}

func (e *echoTube) PreDestroy() {}

func (e *echoTube) Copy(c *tube.Cloner[string]) tube.Tube[string] {
	clone := &echoTube{}
	c.Add(e, clone)
	clone.Next = c.Copy(e.Next)
	return clone
}

// upperTube uppercases the packet on the way in and passes the response
// back unchanged.
type upperTube struct {
	Next tube.Tube[string]
}

func (u *upperTube) ProcessRequest(p string) action.Action[string] {
	upper := strings.ToUpper(p)
	if u.Next == nil {
		return action.ReturnWith(upper)
	}
	return action.Invoke[string](u.Next, upper)
}

func (u *upperTube) ProcessResponse(p string) action.Action[string] { return action.ReturnWith(p) }

func (u *upperTube) ProcessException(err error) action.Action[string] {
	return action.ThrowException[string](err)
}

func (u *upperTube) PreDestroy() {}

func (u *upperTube) Copy(c *tube.Cloner[string]) tube.Tube[string] {
	clone := &upperTube{}
	c.Add(u, clone)
	clone.Next = c.Copy(u.Next)
	return clone
}

// rejectTube always throws, for exercising the exception-unwind path from
// `fiberline run`.
type rejectTube struct {
	Next tube.Tube[string]
}

func (r *rejectTube) ProcessRequest(p string) action.Action[string] {
	return action.ThrowException[string](fmt.Errorf("fiberline: reject stage rejected %q", p))
}

func (r *rejectTube) ProcessResponse(p string) action.Action[string] { return action.ReturnWith(p) }

func (r *rejectTube) ProcessException(err error) action.Action[string] {
	return action.ThrowException[string](err)
}

func (r *rejectTube) PreDestroy() {}

func (r *rejectTube) Copy(c *tube.Cloner[string]) tube.Tube[string] {
	clone := &rejectTube{}
	c.Add(r, clone)
	clone.Next = c.Copy(r.Next)
	return clone
}
