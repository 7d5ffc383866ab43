package tracing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	uuid "github.com/satori/go.uuid"
	agent "skywalking.apache.org/repo/goapi/collect/language/agent/v3"

	"github.com/fiberline/fiberline/interceptors/tracing"
)

type recordingReporter struct {
	segments []*agent.SegmentObject
}

func (r *recordingReporter) Report(segment *agent.SegmentObject) error {
	r.segments = append(r.segments, segment)
	return nil
}

type fakeFiber struct{ id uuid.UUID }

func (f fakeFiber) ID() uuid.UUID { return f.id }

func TestSpanInterceptorReportsOneSegmentPerPass(t *testing.T) {
	rep := &recordingReporter{}
	si := &tracing.SpanInterceptor{ServiceName: "fiberline", ServiceInstance: "test-1", Reporter: rep}

	id, err := uuid.NewV4()
	require.NoError(t, err)
	fiber := fakeFiber{id: id}

	err = si.Intercept(context.Background(), fiber, func() error { return nil })
	require.NoError(t, err)
	require.Len(t, rep.segments, 1)
	assert.Equal(t, "fiberline", rep.segments[0].Service)
	assert.Equal(t, "SNIFFER-"+id.String(), rep.segments[0].TraceId)
	assert.Len(t, rep.segments[0].Spans, 1)
	assert.False(t, rep.segments[0].Spans[0].IsError)
}

func TestSpanInterceptorMarksErrorSpans(t *testing.T) {
	rep := &recordingReporter{}
	si := &tracing.SpanInterceptor{ServiceName: "fiberline", Reporter: rep}
	boom := errors.New("boom")

	err := si.Intercept(context.Background(), nil, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	require.Len(t, rep.segments, 1)
	assert.True(t, rep.segments[0].Spans[0].IsError)
}

func TestSpanInterceptorIncrementsSpanIDs(t *testing.T) {
	rep := &recordingReporter{}
	si := &tracing.SpanInterceptor{Reporter: rep}

	_ = si.Intercept(context.Background(), nil, func() error { return nil })
	_ = si.Intercept(context.Background(), nil, func() error { return nil })

	require.Len(t, rep.segments, 2)
	assert.Equal(t, int32(1), rep.segments[0].Spans[0].SpanId)
	assert.Equal(t, int32(2), rep.segments[1].Spans[0].SpanId)
}
