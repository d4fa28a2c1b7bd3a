// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package async wraps a *counter.Counter so that Add/Top/TopCount calls can
// be submitted from any goroutine to a fixed worker pool and awaited through
// a completion handle, instead of running synchronously on the caller's
// goroutine. It adds no synchronization of its own beyond what Counter
// already provides; it is a pure submission/scheduling layer.
package async

import (
	"context"
	"runtime"

	"github.com/aristanetworks/tophits/counter"
	"github.com/aristanetworks/tophits/errs"
	tophitsglog "github.com/aristanetworks/tophits/glog"
	"github.com/aristanetworks/tophits/logger"
	"github.com/aristanetworks/tophits/sync/semaphore"
)

// Future is a handle to the result of a submitted operation. It is safe to
// abandon: the underlying operation runs to completion regardless.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) complete(val T, err error) {
	f.val = val
	f.err = err
	close(f.done)
}

// Wait blocks until the operation completes or ctx is done, whichever comes
// first. Waiting does not cancel the operation.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Adapter submits Counter operations to a fixed-size worker pool sized to
// GOMAXPROCS, queuing at most queueSize pending tasks. A submit beyond that
// capacity fails fast with an errs.KindAllocationFailure error rather than
// blocking the caller, mirroring the produce-side pipeline's bounded queue
// in this codebase family (kafka producer's notifsChan) but made explicit
// and non-blocking instead of an unbounded channel send.
type Adapter struct {
	counter *counter.Counter
	tasks   chan func()
	slots   *semaphore.Weighted
	done    chan struct{}
	log     logger.Logger
}

// New starts an Adapter wrapping c. queueSize bounds how many submitted
// operations may be pending at once; 0 picks a default proportional to the
// worker pool size. log is used to report submit failures; nil picks the
// glog-backed default.
func New(c *counter.Counter, queueSize int, log logger.Logger) *Adapter {
	workers := runtime.GOMAXPROCS(0)
	if queueSize <= 0 {
		queueSize = workers * 4
	}
	if log == nil {
		log = &tophitsglog.Glog{}
	}
	a := &Adapter{
		counter: c,
		tasks:   make(chan func(), queueSize),
		slots:   semaphore.NewWeighted(int64(queueSize)),
		done:    make(chan struct{}),
		log:     log,
	}
	for i := 0; i < workers; i++ {
		go a.run()
	}
	return a
}

func (a *Adapter) run() {
	for {
		select {
		case task, ok := <-a.tasks:
			if !ok {
				return
			}
			task()
		case <-a.done:
			for {
				select {
				case task := <-a.tasks:
					task()
				default:
					return
				}
			}
		}
	}
}

// Stop signals the workers to exit; each worker first runs the tasks still
// queued, so futures that were already submitted still complete. Submissions
// made after Stop are rejected.
func (a *Adapter) Stop() {
	close(a.done)
}

func (a *Adapter) submit(task func()) error {
	select {
	case <-a.done:
		return errs.NewNotFound("adapter stopped")
	default:
	}
	if !a.slots.TryAcquire(1) {
		a.log.Errorf("tophits: async adapter queue full, rejecting submission")
		return errs.NewAllocationFailure("async task slot")
	}
	select {
	case a.tasks <- task:
		return nil
	case <-a.done:
		a.slots.Release(1)
		return errs.NewNotFound("adapter stopped")
	}
}

// Add submits an Add(domain) call and returns a Future that completes once
// it has run.
func (a *Adapter) Add(domain string) (*Future[struct{}], error) {
	f := newFuture[struct{}]()
	err := a.submit(func() {
		defer a.slots.Release(1)
		a.counter.Add(domain)
		f.complete(struct{}{}, nil)
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Top submits a Top(n) call and returns a Future for its result.
func (a *Adapter) Top(n int) (*Future[[]string], error) {
	f := newFuture[[]string]()
	err := a.submit(func() {
		defer a.slots.Release(1)
		domains, err := a.counter.Top(n)
		f.complete(domains, err)
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// TopCount submits a TopCount(n) call and returns a Future for its result.
func (a *Adapter) TopCount(n int) (*Future[[]counter.Hit], error) {
	f := newFuture[[]counter.Hit]()
	err := a.submit(func() {
		defer a.slots.Release(1)
		hits, err := a.counter.TopCount(n)
		f.complete(hits, err)
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}
