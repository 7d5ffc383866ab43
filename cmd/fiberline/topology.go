package main

import (
	"fmt"

	"github.com/fiberline/fiberline/pkg/tube"
	"github.com/fiberline/fiberline/tubes/graphdump"
)

// buildTubeline turns a loaded topology into a linear tubeline: each node
// invokes its first child, ignoring any further children. graphdump's tree
// shape can express branching for display purposes, but a tubeline is
// fundamentally a single forward chain — additional children in a
// topology file document alternative routes a real tube's ProcessRequest
// might choose between, not stages fiberline run wires up automatically.
func buildTubeline(topo graphdump.Topology) (tube.Tube[string], error) {
	return buildNode(topo.Root)
}

func buildNode(n graphdump.Node) (tube.Tube[string], error) {
	ctor, ok := registry[n.Name]
	if !ok {
		return nil, fmt.Errorf("fiberline: unknown tube %q (known: %s)", n.Name, knownNames())
	}
	var next tube.Tube[string]
	if len(n.Children) > 0 {
		var err error
		next, err = buildNode(n.Children[0])
		if err != nil {
			return nil, err
		}
	}
	return ctor(next), nil
}

func knownNames() string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return fmt.Sprint(names)
}
