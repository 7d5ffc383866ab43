// Package graphdump renders a declarative tubeline topology as an ASCII
// tree, the same leaf/branch split the npillmayer-fp example's printTree
// uses over github.com/xlab/treeprint: a childless node is a leaf, anything
// else becomes a branch that recurses into its children.
//
// It does not walk a live tube.Tube[P] graph — Tube[P] exposes no generic
// "children" accessor, and adding one only for this demo would widen the
// core contract for a CLI convenience. Instead cmd/fiberline's graph
// subcommand loads the YAML shape a tubeline was built from and renders
// that.
package graphdump

import (
	"fmt"
	"os"

	"github.com/xlab/treeprint"
	"gopkg.in/yaml.v3"
)

// Node is one stage in a tubeline topology file: a tube name and the
// stages it forwards to via Invoke.
type Node struct {
	Name     string `yaml:"name"`
	Children []Node `yaml:"children,omitempty"`
}

// Topology is the top-level shape of a `fiberline graph` input file.
type Topology struct {
	Root Node `yaml:"root"`
}

// Load reads and parses a topology file at path.
func Load(path string) (Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Topology{}, fmt.Errorf("graphdump: read %s: %w", path, err)
	}
	var t Topology
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Topology{}, fmt.Errorf("graphdump: parse %s: %w", path, err)
	}
	if t.Root.Name == "" {
		return Topology{}, fmt.Errorf("graphdump: %s: root node has no name", path)
	}
	return t, nil
}

// Render returns an ASCII tree for t, rooted at t.Root.
func Render(t Topology) string {
	tree := treeprint.New()
	tree.SetValue(t.Root.Name)
	for _, child := range t.Root.Children {
		addNode(tree, child)
	}
	return tree.String()
}

func addNode(parent treeprint.Tree, n Node) {
	if len(n.Children) == 0 {
		parent.AddNode(n.Name)
		return
	}
	branch := parent.AddBranch(n.Name)
	for _, child := range n.Children {
		addNode(branch, child)
	}
}
