// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package async

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aristanetworks/tophits/counter"
	"github.com/aristanetworks/tophits/errs"
)

func TestAddThenTopCount(t *testing.T) {
	c := counter.New()
	a := New(c, 0, nil)
	defer a.Stop()

	ctx := context.Background()
	for _, d := range []string{"a", "b", "a"} {
		f, err := a.Add(d)
		if err != nil {
			t.Fatalf("Add(%s) submit error: %v", d, err)
		}
		if _, err := f.Wait(ctx); err != nil {
			t.Fatalf("Add(%s) wait error: %v", d, err)
		}
	}

	f, err := a.TopCount(2)
	if err != nil {
		t.Fatalf("TopCount submit error: %v", err)
	}
	hits, err := f.Wait(ctx)
	if err != nil {
		t.Fatalf("TopCount wait error: %v", err)
	}
	if len(hits) != 2 || hits[0].Domain != "a" || hits[0].Count != 2 {
		t.Fatalf("TopCount(2) = %v, want a first with count 2", hits)
	}
}

func TestWaitRespectsContextCancellation(t *testing.T) {
	f := newFuture[struct{}]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Wait(ctx)
	if err == nil {
		t.Fatal("expected Wait to return an error once the context expires")
	}
}

func TestQueueFullReturnsAllocationFailure(t *testing.T) {
	c := counter.New()
	a := New(c, 1, nil)
	defer a.Stop()

	// Fill the single queue slot with a task blocked on a gate so the next
	// submission has no room left.
	gate := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	err := a.submit(func() {
		defer wg.Done()
		<-gate
	})
	if err != nil {
		t.Fatalf("expected the first submission to succeed, got %v", err)
	}

	if _, err := a.Add("overflow.com"); err == nil {
		t.Fatal("expected the second submission to be rejected")
	} else if kind, ok := errs.KindOf(err); !ok || kind != errs.KindAllocationFailure {
		t.Fatalf("expected KindAllocationFailure, got %v", err)
	}

	close(gate)
	wg.Wait()
}

func TestStopPreventsFurtherSubmission(t *testing.T) {
	c := counter.New()
	a := New(c, 4, nil)
	a.Stop()

	if _, err := a.Add("x"); err == nil {
		t.Fatal("expected submission after Stop to fail")
	}
}

func TestConcurrentSubmitters(t *testing.T) {
	c := counter.New()
	a := New(c, 0, nil)
	defer a.Stop()

	ctx := context.Background()
	const submitters = 10
	var wg sync.WaitGroup
	wg.Add(submitters)
	for i := 0; i < submitters; i++ {
		go func() {
			defer wg.Done()
			f, err := a.Add("shared.com")
			if err != nil {
				return
			}
			f.Wait(ctx)
		}()
	}
	wg.Wait()

	f, err := a.TopCount(1)
	if err != nil {
		t.Fatalf("TopCount submit error: %v", err)
	}
	hits, err := f.Wait(ctx)
	if err != nil {
		t.Fatalf("TopCount wait error: %v", err)
	}
	if len(hits) != 1 || hits[0].Count != submitters {
		t.Fatalf("got %v, want a single entry with count %d", hits, submitters)
	}
}
