package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTopology(t *testing.T, yaml string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "topology.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}

func TestRunRunEchoesThroughUppercase(t *testing.T) {
	path := writeTopology(t, "root:\n  name: uppercase\n")
	var buf bytes.Buffer

	err := runRun(context.Background(), path, "hello", &buf)
	require.NoError(t, err)
	assert.Equal(t, "RETURN: HELLO\n", buf.String())
}

func TestRunRunChainsThroughChildren(t *testing.T) {
	path := writeTopology(t, "root:\n  name: echo\n  children:\n    - name: uppercase\n")
	var buf bytes.Buffer

	err := runRun(context.Background(), path, "hi", &buf)
	require.NoError(t, err)
	assert.Equal(t, "RETURN: HI\n", buf.String())
}

func TestRunRunReportsThrownException(t *testing.T) {
	path := writeTopology(t, "root:\n  name: reject\n")
	var buf bytes.Buffer

	err := runRun(context.Background(), path, "hi", &buf)
	assert.Error(t, err)
	assert.Contains(t, buf.String(), "THROW:")
}

func TestRunValidateAcceptsKnownTubes(t *testing.T) {
	path := writeTopology(t, "root:\n  name: echo\n  children:\n    - name: uppercase\n")
	var buf bytes.Buffer

	err := runValidate(path, &buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "VALID")
}

func TestRunValidateRejectsUnknownTube(t *testing.T) {
	path := writeTopology(t, "root:\n  name: nonexistent\n")
	var buf bytes.Buffer

	err := runValidate(path, &buf)
	assert.Error(t, err)
}

func TestRunGraphRendersTree(t *testing.T) {
	path := writeTopology(t, "root:\n  name: capture\n  children:\n    - name: sip-parse\n")
	var buf bytes.Buffer

	err := runGraph(path, &buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "capture")
	assert.Contains(t, buf.String(), "sip-parse")
}
