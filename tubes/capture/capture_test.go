package capture_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiberline/fiberline/pkg/action"
	"github.com/fiberline/fiberline/pkg/tube"
	"github.com/fiberline/fiberline/tubes/capture"
)

func writeEmptyCapture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "empty.pcap")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := pcapgo.NewWriter(f)
	require.NoError(t, w.WriteFileHeader(65536, layers.LinkTypeEthernet))
	return path
}

func TestSourceTubeThrowsEndOfCaptureOnEmptyFile(t *testing.T) {
	st := &capture.SourceTube{Path: writeEmptyCapture(t)}

	act := st.ProcessRequest(capture.Frame{})
	assert.Equal(t, action.KindThrow, act.Kind())
	assert.ErrorIs(t, act.Throwable(), capture.ErrEndOfCapture)
}

func TestSourceTubeThrowsOnMissingFile(t *testing.T) {
	st := &capture.SourceTube{Path: filepath.Join(t.TempDir(), "missing.pcap")}

	act := st.ProcessRequest(capture.Frame{})
	assert.Equal(t, action.KindThrow, act.Kind())
	assert.Error(t, act.Throwable())
}

func TestSourceTubeCopyDuplicatesPathNotHandle(t *testing.T) {
	path := writeEmptyCapture(t)
	st := &capture.SourceTube{Path: path}
	// Force the handle open before copying; the clone must not inherit it.
	_ = st.ProcessRequest(capture.Frame{})

	clonedAny := tube.Clone[capture.Frame](st)
	cloned, ok := clonedAny.(*capture.SourceTube)
	require.True(t, ok)
	assert.Equal(t, path, cloned.Path)

	act := cloned.ProcessRequest(capture.Frame{})
	assert.Equal(t, action.KindThrow, act.Kind())
	assert.ErrorIs(t, act.Throwable(), capture.ErrEndOfCapture)
}
