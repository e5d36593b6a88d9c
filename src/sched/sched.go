package sched

import (
	"sync"
	"time"
)

// Task is one scheduled callback. It records its requested delay so ordering
// behavior stays observable in tests.
type Task struct {
	delay time.Duration
	timer *time.Timer

	mu   sync.Mutex
	done bool
}

// Delay returns the delay the task was scheduled with.
func (t *Task) Delay() time.Duration { return t.delay }

// Cancel stops the task if it has not fired yet. Returns true when the
// callback will not run.
func (t *Task) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return t.timer.Stop()
}

// Queue schedules fire-and-forget delayed callbacks. Tasks run on their own
// goroutines; the queue only tracks them so pending work can be counted and
// cancelled in bulk.
type Queue struct {
	mu    sync.Mutex
	tasks map[*Task]struct{}
}

// NewQueue creates an empty timer queue.
func NewQueue() *Queue {
	return &Queue{tasks: make(map[*Task]struct{})}
}

// After schedules fn to run once after d. A non-positive delay fires
// immediately (still asynchronously).
func (q *Queue) After(d time.Duration, fn func()) *Task {
	if d < 0 {
		d = 0
	}
	t := &Task{delay: d}
	t.timer = time.AfterFunc(d, func() {
		t.mu.Lock()
		if t.done {
			t.mu.Unlock()
			return
		}
		t.done = true
		t.mu.Unlock()

		q.remove(t)
		fn()
	})

	q.mu.Lock()
	q.tasks[t] = struct{}{}
	q.mu.Unlock()
	return t
}

func (q *Queue) remove(t *Task) {
	q.mu.Lock()
	delete(q.tasks, t)
	q.mu.Unlock()
}

// Pending returns the number of tasks that have not fired or been cancelled.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// CancelAll cancels every pending task. Already-running callbacks are not
// interrupted.
func (q *Queue) CancelAll() {
	q.mu.Lock()
	tasks := make([]*Task, 0, len(q.tasks))
	for t := range q.tasks {
		tasks = append(tasks, t)
	}
	q.tasks = make(map[*Task]struct{})
	q.mu.Unlock()

	for _, t := range tasks {
		t.Cancel()
	}
}
