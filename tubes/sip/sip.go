// Package sip provides a demonstration Tube that parses a raw SIP datagram
// into a gosip sip.Message and forwards it to the next stage.
package sip

import (
	"fmt"

	"github.com/ghettovoice/gosip/sip"
	"github.com/ghettovoice/gosip/sip/parser"

	"github.com/fiberline/fiberline/pkg/action"
	"github.com/fiberline/fiberline/pkg/tube"
	"github.com/fiberline/fiberline/tubes/capture"
)

// Packet carries a captured frame alongside the SIP message parsed from it,
// once this tube has run.
type Packet struct {
	Frame   capture.Frame
	Message sip.Message
}

// ParseTube parses Packet.Frame.Data as a SIP message, grounded on the
// teacher's skywalkingtracing.SipParser wrapper around
// github.com/ghettovoice/gosip/sip/parser.PacketParser.
type ParseTube struct {
	Next tube.Tube[Packet]

	delegate *parser.PacketParser
}

func (s *ParseTube) ensureParser() *parser.PacketParser {
	if s.delegate == nil {
		s.delegate = parser.NewPacketParser(newLogrusAdapter())
	}
	return s.delegate
}

func (s *ParseTube) ProcessRequest(p Packet) action.Action[Packet] {
	msg, err := s.ensureParser().ParseMessage(p.Frame.Data)
	if err != nil {
		return action.ThrowException[Packet](fmt.Errorf("sip: failed to parse message: %w", err))
	}
	p.Message = msg
	if s.Next == nil {
		return action.ReturnWith(p)
	}
	return action.Invoke[Packet](s.Next, p)
}

func (s *ParseTube) ProcessResponse(p Packet) action.Action[Packet] {
	return action.ReturnWith(p)
}

func (s *ParseTube) ProcessException(err error) action.Action[Packet] {
	return action.ThrowException[Packet](err)
}

func (s *ParseTube) PreDestroy() {}

func (s *ParseTube) Copy(c *tube.Cloner[Packet]) tube.Tube[Packet] {
	cp := &ParseTube{}
	c.Add(s, cp)
	if s.Next != nil {
		cp.Next = c.Copy(s.Next)
	}
	return cp
}

// IsRequest reports whether msg is a SIP request rather than a response,
// by checking whether it implements gosip's sip.Request interface.
func IsRequest(msg sip.Message) bool {
	_, ok := msg.(sip.Request)
	return ok
}
