package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiberline/fiberline/pkg/action"
	"github.com/fiberline/fiberline/pkg/engine"
	"github.com/fiberline/fiberline/pkg/tube"
)

type echoTube struct{}

func (echoTube) ProcessRequest(p string) action.Action[string]  { return action.ReturnWith(p) }
func (echoTube) ProcessResponse(p string) action.Action[string] { return action.ReturnWith(p) }
func (echoTube) ProcessException(err error) action.Action[string] {
	return action.ThrowException[string](err)
}
func (echoTube) PreDestroy() {}
func (e echoTube) Copy(c *tube.Cloner[string]) tube.Tube[string] {
	c.Add(e, e)
	return e
}

func TestEngineIDRoundTrips(t *testing.T) {
	e := engine.New[string]("checkout-engine")
	assert.Equal(t, "checkout-engine", e.ID())
}

func TestCreateFiberRunsOnLazyPool(t *testing.T) {
	e := engine.New[string]("lazy-pool-engine")
	f := e.CreateFiber()

	done := make(chan struct{})
	var result string
	f.Start(echoTube{}, "Howdy", func(packet string, err error) {
		result = packet
		require.NoError(t, err)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("fiber never completed")
	}
	assert.Equal(t, "Howdy", result)

	require.NoError(t, e.Shutdown(context.Background()))
}

type inlineExecutor struct{ calls int }

func (e *inlineExecutor) Submit(work func()) { e.calls++; work() }

func TestEngineUsesConfiguredExecutor(t *testing.T) {
	exec := &inlineExecutor{}
	e := engine.NewWithExecutor[string]("custom-executor-engine", exec)
	f := e.CreateFiber()

	done := make(chan struct{})
	f.Start(echoTube{}, "Howdy", func(packet string, err error) { close(done) })
	<-done

	assert.Greater(t, exec.calls, 0)
}

func TestSerializeExecutionFlagRoundTrips(t *testing.T) {
	engine.SetSerializeExecution(true)
	assert.True(t, engine.SerializeExecution())
	engine.SetSerializeExecution(false)
	assert.False(t, engine.SerializeExecution())
}

func TestShutdownOnEngineWithExternalExecutorIsNoop(t *testing.T) {
	exec := &inlineExecutor{}
	e := engine.NewWithExecutor[string]("external-exec-engine", exec)
	require.NoError(t, e.Shutdown(context.Background()))
}
