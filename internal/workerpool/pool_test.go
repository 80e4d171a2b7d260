package workerpool

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestPoolRunsSubmittedTasks(t *testing.T) {
	p := New(4, 16, zerolog.Nop())
	defer p.Stop()

	var count int64
	const n = 100
	for i := 0; i < n; i++ {
		if err := p.Submit(func() { atomic.AddInt64(&count, 1) }); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt64(&count) != n {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for tasks, got %d/%d", atomic.LoadInt64(&count), n)
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func TestSubmitAfterStopFails(t *testing.T) {
	p := New(2, 4, zerolog.Nop())
	p.Stop()

	if err := p.Submit(func() {}); err != ErrStopped {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	p := New(2, 4, zerolog.Nop())
	p.Stop()
	p.Stop()
}

func TestPanickingTaskDoesNotKillWorker(t *testing.T) {
	p := New(1, 4, zerolog.Nop())
	defer p.Stop()

	done := make(chan struct{})
	if err := p.Submit(func() { panic("boom") }); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := p.Submit(func() { close(done) }); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive a panicking task")
	}
}
