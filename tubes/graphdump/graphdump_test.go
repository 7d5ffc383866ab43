package graphdump_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiberline/fiberline/tubes/graphdump"
)

func TestRenderLeafOnlyTree(t *testing.T) {
	topo := graphdump.Topology{Root: graphdump.Node{Name: "source"}}
	out := graphdump.Render(topo)
	assert.Contains(t, out, "source")
}

func TestRenderBranchesIntoChildren(t *testing.T) {
	topo := graphdump.Topology{
		Root: graphdump.Node{
			Name: "capture",
			Children: []graphdump.Node{
				{Name: "sip-parse", Children: []graphdump.Node{
					{Name: "tracing-span"},
					{Name: "kafka-report"},
				}},
			},
		},
	}
	out := graphdump.Render(topo)
	assert.Contains(t, out, "capture")
	assert.Contains(t, out, "sip-parse")
	assert.Contains(t, out, "tracing-span")
	assert.Contains(t, out, "kafka-report")
}

func TestLoadParsesYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "topology.yaml")
	contents := `
root:
  name: capture
  children:
    - name: sip-parse
      children:
        - name: kafka-report
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	topo, err := graphdump.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "capture", topo.Root.Name)
	require.Len(t, topo.Root.Children, 1)
	assert.Equal(t, "sip-parse", topo.Root.Children[0].Name)
	require.Len(t, topo.Root.Children[0].Children, 1)
	assert.Equal(t, "kafka-report", topo.Root.Children[0].Children[0].Name)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := graphdump.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsMissingRootName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "topology.yaml")
	require.NoError(t, os.WriteFile(path, []byte("root:\n  children: []\n"), 0o644))

	_, err := graphdump.Load(path)
	assert.Error(t, err)
}
