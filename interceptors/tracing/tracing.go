// Package tracing provides a fiber-context-switch interceptor that emits
// one skywalking span per driving pass.
package tracing

import (
	"context"
	"time"

	uuid "github.com/satori/go.uuid"
	agent "skywalking.apache.org/repo/goapi/collect/language/agent/v3"

	"github.com/fiberline/fiberline/pkg/interceptor"
)

// Reporter accepts a finished segment for upstream delivery (to a
// skywalking OAP collector, a local file, a test spy). Grounded on the
// teacher's sniffdata.WrapWithSniffData + reporter.Report pairing in
// plugins/reporter/skywalkingtracing.
type Reporter interface {
	Report(segment *agent.SegmentObject) error
}

// hasID is the narrow surface this interceptor needs from the fiber
// passed to Intercept as `any`; *fiber.Fiber[P] satisfies it for every P.
type hasID interface {
	ID() uuid.UUID
}

// SpanInterceptor wraps every driving pass in one local span and reports
// the containing segment, the same "one segment per context switch" shape
// the teacher's skywalking plugin wraps packet handling in.
type SpanInterceptor struct {
	ServiceName     string
	ServiceInstance string
	Reporter        Reporter

	spanIDSeq int32
}

func (s *SpanInterceptor) Intercept(ctx context.Context, fiber any, work interceptor.Work) error {
	traceID := "unknown"
	if id, ok := fiber.(hasID); ok {
		traceID = id.ID().String()
	}

	start := time.Now().UnixMilli()
	err := work()
	end := time.Now().UnixMilli()

	s.spanIDSeq++
	span := &agent.SpanObject{
		SpanId:        s.spanIDSeq,
		ParentSpanId:  -1,
		StartTime:     start,
		EndTime:       end,
		OperationName: "fiber.drive",
		SpanType:      agent.SpanType_Local,
		SpanLayer:     agent.SpanLayer_Unknown,
		IsError:       err != nil,
	}

	segment := &agent.SegmentObject{
		TraceId:         "SNIFFER-" + traceID,
		TraceSegmentId:  traceID,
		Spans:           []*agent.SpanObject{span},
		Service:         s.ServiceName,
		ServiceInstance: s.ServiceInstance,
		IsSizeLimited:   true,
	}

	if s.Reporter != nil {
		if repErr := s.Reporter.Report(segment); repErr != nil && err == nil {
			return repErr
		}
	}
	return err
}
