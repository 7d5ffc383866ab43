// Package capture provides a demonstration Tube that reads frames from an
// offline pcap capture file, one per ProcessRequest call.
package capture

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"github.com/fiberline/fiberline/pkg/action"
	"github.com/fiberline/fiberline/pkg/tube"
)

// ErrEndOfCapture is the sentinel thrown once the file source has no more
// packets; a terminal tube or an interceptor downstream decides whether
// that is a normal completion or a real failure.
var ErrEndOfCapture = errors.New("capture: end of capture file")

// Frame is the packet type this tube and its downstream stages pass
// through the tubeline.
type Frame struct {
	Data        []byte
	CaptureInfo gopacket.CaptureInfo
	LinkType    layers.LinkType
}

// SourceTube reads one frame per call from an offline pcap file and hands
// it to Next, grounded on the teacher's file-backed Source
// (internal/source/file) adapted from a pull-based Source interface into
// this engine's push-style ProcessRequest contract.
type SourceTube struct {
	Path string
	Next tube.Tube[Frame]

	handle *pcap.Handle
}

func (s *SourceTube) ensureOpen() error {
	if s.handle != nil {
		return nil
	}
	handle, err := pcap.OpenOffline(s.Path)
	if err != nil {
		return fmt.Errorf("capture: failed to open pcap file %s: %w", s.Path, err)
	}
	s.handle = handle
	return nil
}

func (s *SourceTube) ProcessRequest(p Frame) action.Action[Frame] {
	if err := s.ensureOpen(); err != nil {
		return action.ThrowException[Frame](err)
	}

	data, ci, err := s.handle.ReadPacketData()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return action.ThrowException[Frame](ErrEndOfCapture)
		}
		return action.ThrowException[Frame](fmt.Errorf("capture: failed to read packet: %w", err))
	}

	frame := Frame{Data: data, CaptureInfo: ci, LinkType: s.handle.LinkType()}
	if s.Next == nil {
		return action.ReturnWith(frame)
	}
	return action.Invoke[Frame](s.Next, frame)
}

func (s *SourceTube) ProcessResponse(p Frame) action.Action[Frame] {
	return action.ReturnWith(p)
}

func (s *SourceTube) ProcessException(err error) action.Action[Frame] {
	return action.ThrowException[Frame](err)
}

func (s *SourceTube) PreDestroy() {
	if s.handle != nil {
		s.handle.Close()
		s.handle = nil
	}
}

// Copy duplicates this tube for a concurrent clone. The clone opens its own
// handle lazily on first use rather than sharing the original's *pcap.Handle,
// since a pcap.Handle is not safe for concurrent readers.
func (s *SourceTube) Copy(c *tube.Cloner[Frame]) tube.Tube[Frame] {
	cp := &SourceTube{Path: s.Path}
	c.Add(s, cp)
	if s.Next != nil {
		cp.Next = c.Copy(s.Next)
	}
	return cp
}
