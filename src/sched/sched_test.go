package sched

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestAfterFires(t *testing.T) {
	q := NewQueue()
	fired := make(chan struct{})
	q.After(10*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatalf("task never fired")
	}

	// the fired task is removed from the pending set
	deadline := time.Now().Add(time.Second)
	for q.Pending() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected 0 pending after fire, got %d", q.Pending())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestCancelPreventsRun(t *testing.T) {
	q := NewQueue()
	var ran atomic.Bool
	task := q.After(50*time.Millisecond, func() { ran.Store(true) })

	if !task.Cancel() {
		t.Fatalf("expected Cancel to succeed before firing")
	}
	time.Sleep(100 * time.Millisecond)
	if ran.Load() {
		t.Errorf("cancelled task still ran")
	}
	if task.Cancel() {
		t.Errorf("second Cancel should report false")
	}
}

func TestDelayRecorded(t *testing.T) {
	q := NewQueue()
	task := q.After(4*time.Second, func() {})
	defer task.Cancel()
	if task.Delay() != 4*time.Second {
		t.Errorf("expected recorded delay 4s, got %v", task.Delay())
	}
}

func TestNegativeDelayClamped(t *testing.T) {
	q := NewQueue()
	fired := make(chan struct{})
	task := q.After(-time.Second, func() { close(fired) })
	if task.Delay() != 0 {
		t.Errorf("expected clamped delay 0, got %v", task.Delay())
	}
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatalf("immediate task never fired")
	}
}

func TestCancelAll(t *testing.T) {
	q := NewQueue()
	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		q.After(50*time.Millisecond, func() { ran.Add(1) })
	}
	if q.Pending() != 5 {
		t.Fatalf("expected 5 pending, got %d", q.Pending())
	}

	q.CancelAll()
	if q.Pending() != 0 {
		t.Errorf("expected 0 pending after CancelAll, got %d", q.Pending())
	}
	time.Sleep(100 * time.Millisecond)
	if got := ran.Load(); got != 0 {
		t.Errorf("expected no callbacks to run, got %d", got)
	}
}
