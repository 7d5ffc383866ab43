package engine_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fiberline/fiberline/pkg/engine"
)

func TestPoolRunsSubmittedWork(t *testing.T) {
	p := engine.NewPool(4)
	defer p.Shutdown()

	var n int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		p.Submit(func() {
			atomic.AddInt64(&n, 1)
			wg.Done()
		})
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("not all submitted work ran")
	}
	assert.EqualValues(t, 20, atomic.LoadInt64(&n))
}

func TestPoolShutdownStopsAcceptingWork(t *testing.T) {
	p := engine.NewPool(2)
	p.Shutdown()

	var ran bool
	p.Submit(func() { ran = true })
	time.Sleep(10 * time.Millisecond)
	assert.False(t, ran, "work submitted after shutdown must not run")
}
