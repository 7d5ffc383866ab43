// Package kafka provides a terminal demonstration Tube that publishes the
// fiber's final packet to a message-broker-shaped sink over gRPC, wire
// framing via google.golang.org/protobuf's structpb.
package kafka

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/fiberline/fiberline/pkg/action"
	"github.com/fiberline/fiberline/pkg/tube"
)

// publishMethod is the fully-qualified gRPC method this sink invokes. There
// is no generated client stub — Invoke is called directly with
// structpb.Struct as both request and response message, the same
// low-level style the teacher's internal/rpc.Client uses against its own
// generated pb.DaemonServiceClient, minus the codegen.
const publishMethod = "/fiberline.reporter.v1.Reporter/Publish"

// Report is the packet this tube consumes: a topic/key/value triple ready
// to hand to a broker, mirroring the teacher's KafkaReporter.Report shape
// (plugins/reporter/kafka.go) without the batching layer, since one
// fiber drives exactly one packet at a time.
type Report struct {
	Topic string
	Key   string
	Value map[string]any
}

// Sink abstracts the broker write, the same role messageWriter plays in
// the teacher's internal/command/kafka.go (a narrow interface wrapping the
// concrete client for testability).
type Sink interface {
	Publish(ctx context.Context, topic, key string, value *structpb.Struct) error
}

// GRPCSink publishes via a raw gRPC unary call, grounded on
// internal/rpc.Client's grpc.DialContext + generated-client-call pattern.
type GRPCSink struct {
	Conn *grpc.ClientConn
}

func (g *GRPCSink) Publish(ctx context.Context, topic, key string, value *structpb.Struct) error {
	// There is no generated PublishRequest type, so topic/key/value are
	// packed into the single structpb.Struct message the wire call carries.
	req, err := structpb.NewStruct(map[string]any{
		"topic": topic,
		"key":   key,
		"value": value.AsMap(),
	})
	if err != nil {
		return fmt.Errorf("kafka: envelope not representable as structpb.Struct: %w", err)
	}
	resp := &structpb.Struct{}
	return g.Conn.Invoke(ctx, publishMethod, req, resp)
}

// ReportTube is a terminal tube: it never invokes a next stage, it
// publishes and returns the same packet back up the continuation stack.
type ReportTube struct {
	Sink Sink
}

func (r *ReportTube) ProcessRequest(p Report) action.Action[Report] {
	value, err := structpb.NewStruct(p.Value)
	if err != nil {
		return action.ThrowException[Report](fmt.Errorf("kafka: packet value not representable: %w", err))
	}
	if err := r.Sink.Publish(context.Background(), p.Topic, p.Key, value); err != nil {
		return action.ThrowException[Report](fmt.Errorf("kafka: publish failed: %w", err))
	}
	return action.ReturnWith(p)
}

func (r *ReportTube) ProcessResponse(p Report) action.Action[Report] {
	return action.ReturnWith(p)
}

func (r *ReportTube) ProcessException(err error) action.Action[Report] {
	return action.ThrowException[Report](err)
}

func (r *ReportTube) PreDestroy() {}

func (r *ReportTube) Copy(c *tube.Cloner[Report]) tube.Tube[Report] {
	cp := &ReportTube{Sink: r.Sink}
	c.Add(r, cp)
	return cp
}
