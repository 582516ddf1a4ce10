package asynclock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestTryAcquireRelease(t *testing.T) {
	var l Lock

	if !l.TryAcquire() {
		t.Fatal("expected first acquire to succeed")
	}
	if l.TryAcquire() {
		t.Fatal("expected second acquire to fail while held")
	}
	l.Release()
	if !l.TryAcquire() {
		t.Fatal("expected acquire to succeed after release")
	}
}

func TestRunExclusiveReleasesOnError(t *testing.T) {
	var l Lock

	ran, err := l.RunExclusive(context.Background(), func(ctx context.Context) error {
		return errors.New("boom")
	})
	if !ran {
		t.Fatal("expected fn to run")
	}
	if err == nil {
		t.Fatal("expected error to propagate")
	}
	if l.IsLocked() {
		t.Fatal("expected lock released after failing fn")
	}
}

func TestRunExclusiveDropsConcurrentAttempt(t *testing.T) {
	var l Lock
	var entered, dropped atomic.Int32

	hold := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		l.RunExclusive(context.Background(), func(ctx context.Context) error {
			entered.Add(1)
			<-hold
			return nil
		})
	}()

	go func() {
		defer wg.Done()
		// Wait until the first goroutine holds the lock.
		for !l.IsLocked() {
		}
		ran, _ := l.RunExclusive(context.Background(), func(ctx context.Context) error {
			entered.Add(1)
			return nil
		})
		if !ran {
			dropped.Add(1)
		}
		close(hold)
	}()

	wg.Wait()

	if entered.Load() != 1 {
		t.Fatalf("expected exactly one execution, got %d", entered.Load())
	}
	if dropped.Load() != 1 {
		t.Fatalf("expected the concurrent attempt to be dropped")
	}
}
