package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestSubmitRuns(t *testing.T) {
	p := New(1)
	defer p.Close()

	done := make(chan struct{})
	if !p.Submit(context.Background(), func(ctx context.Context) { close(done) }) {
		t.Fatalf("Submit returned false on an idle pool")
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("job never ran")
	}
}

func TestBackpressureDropsWhenBusy(t *testing.T) {
	p := New(1)
	defer p.Close()

	block := make(chan struct{})
	started := make(chan struct{})
	p.Submit(context.Background(), func(ctx context.Context) {
		close(started)
		<-block
	})
	<-started

	// fill the single queue slot
	if !p.Submit(context.Background(), func(ctx context.Context) {}) {
		t.Fatalf("expected the queue slot to accept one pending job")
	}
	// worker busy, slot full: further submits are dropped
	var dropped atomic.Bool
	if p.Submit(context.Background(), func(ctx context.Context) { dropped.Store(true) }) {
		t.Errorf("expected Submit to report a drop while saturated")
	}
	close(block)

	time.Sleep(50 * time.Millisecond)
	if dropped.Load() {
		t.Errorf("dropped job must never run")
	}
}

func TestCloseDrainsPendingWork(t *testing.T) {
	p := New(1)
	var ran atomic.Int32
	p.Submit(context.Background(), func(ctx context.Context) { ran.Add(1) })
	p.Close()
	if ran.Load() != 1 {
		t.Errorf("expected pending job to finish before Close returns")
	}
}
