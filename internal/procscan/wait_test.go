package procscan

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/runguard/runguard/internal/testutil"
)

// flippingTable reports a running duplicate for the first n scans, then an
// empty table.
type flippingTable struct {
	mu        sync.Mutex
	remaining int
}

func (f *flippingTable) Processes(ctx context.Context) ([]Process, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.remaining > 0 {
		f.remaining--
		return []Process{
			fakeProcess{pid: 200, name: "python", cmdline: []string{"python", "worker.py"}},
		}, nil
	}
	return nil, nil
}

func (f *flippingTable) SelfPid() int32 { return 100 }

func TestWaitUntilClear_AlreadyClear(t *testing.T) {
	checker := newTestChecker(&fakeTable{selfPid: 100})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := checker.WaitUntilClear(ctx, "worker.py", 5*time.Millisecond); err != nil {
		t.Fatalf("WaitUntilClear failed on an empty table: %v", err)
	}
}

func TestWaitUntilClear_ClearsAfterPolls(t *testing.T) {
	checker := NewChecker(&flippingTable{remaining: 3})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var done atomic.Bool
	errCh := make(chan error, 1)
	go func() {
		errCh <- checker.WaitUntilClear(ctx, "worker.py", 5*time.Millisecond)
		done.Store(true)
	}()

	testutil.AssertEventually(t, time.Second, done.Load, "wait did not clear")
	if err := <-errCh; err != nil {
		t.Fatalf("WaitUntilClear should return once the duplicate exits: %v", err)
	}
}

func TestWaitUntilClear_ContextCancelled(t *testing.T) {
	table := &fakeTable{
		selfPid: 100,
		procs: []Process{
			fakeProcess{pid: 200, name: "python", cmdline: []string{"python", "worker.py"}},
		},
	}
	checker := newTestChecker(table)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := checker.WaitUntilClear(ctx, "worker.py", 5*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got: %v", err)
	}
}

func TestWaitUntilClear_InvalidInterval(t *testing.T) {
	checker := newTestChecker(&fakeTable{selfPid: 100})

	if err := checker.WaitUntilClear(context.Background(), "worker.py", 0); err == nil {
		t.Fatal("expected error for non-positive interval")
	}
}

func TestWaitUntilClear_ScanErrorAborts(t *testing.T) {
	listErr := errors.New("process table unavailable")
	checker := newTestChecker(&fakeTable{selfPid: 100, listErr: listErr})

	err := checker.WaitUntilClear(context.Background(), "worker.py", 5*time.Millisecond)
	if !errors.Is(err, listErr) {
		t.Fatalf("expected enumeration error, got: %v", err)
	}
}
