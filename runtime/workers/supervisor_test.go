package workers

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingWorker struct {
	runs    atomic.Int32
	result  error
	panics  bool
	blocked bool
}

func (w *countingWorker) Run(ctx context.Context) error {
	w.runs.Add(1)
	if w.panics {
		panic("worker exploded")
	}
	if w.blocked {
		<-ctx.Done()
		return nil
	}
	return w.result
}

func TestSupervisor_Worker_Finishing_Cleanly_Is_Not_Restarted(t *testing.T) {
	req := require.New(t)
	sup := NewSupervisor(slog.Default(), time.Millisecond)
	worker := &countingWorker{}
	sup.Add(worker)

	sup.Run(context.Background())

	req.Equal(int32(1), worker.runs.Load())
}

func TestSupervisor_Panicking_Worker_Is_Restarted(t *testing.T) {
	req := require.New(t)
	sup := NewSupervisor(slog.Default(), time.Millisecond)
	worker := &countingWorker{panics: true}
	sup.Add(worker)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(done)
	}()

	// The worker keeps panicking, so the supervisor keeps restarting it
	req.Eventually(func() bool { return worker.runs.Load() >= 3 },
		time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("supervisor never stopped")
	}
}

func TestSupervisor_Stop_Racing_Run_Startup_Is_Safe(t *testing.T) {
	req := require.New(t)
	sup := NewSupervisor(slog.Default(), time.Millisecond)
	worker := &countingWorker{blocked: true}
	sup.Add(worker)

	done := make(chan struct{})
	go func() {
		sup.Run(context.Background())
		close(done)
	}()

	// Stop may land before Run assigned its cancel; it must be a safe
	// no-op then, and a later Stop still tears everything down.
	sup.Stop()
	sup.Stop()

	req.Eventually(func() bool { return worker.runs.Load() == 1 },
		time.Second, 5*time.Millisecond)

	sup.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("supervisor never stopped")
	}
}

func TestSupervisor_Stop_Cancels_Blocked_Workers(t *testing.T) {
	req := require.New(t)
	sup := NewSupervisor(slog.Default(), time.Millisecond)
	worker := &countingWorker{blocked: true}
	sup.Add(worker)

	done := make(chan struct{})
	go func() {
		sup.Run(context.Background())
		close(done)
	}()

	req.Eventually(func() bool { return worker.runs.Load() == 1 },
		time.Second, 5*time.Millisecond)

	sup.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("supervisor never stopped")
	}
}
