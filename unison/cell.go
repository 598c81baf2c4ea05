// Licensed to Elasticsearch B.V. under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. Elasticsearch B.V. licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

// Package unison provides single-writer-many-reader primitives that are safe
// to share between goroutines without the caller managing locks directly:
// Mutex, SafeWaitGroup, MultiErrGroup, Waitlist, LockManager -- and Cell, an
// asynchronous single-assignment reference cell that can be read before it
// is written, assigned unconditionally (SetAsync/SetSync) or under optimistic
// concurrency control (Access/Modify), and filled by the first of two racing
// computations (Race).
package unison

import (
	"context"
	"fmt"

	"github.com/urso/sderr"

	"github.com/bfil/fs2-cell/atomic"
	"github.com/bfil/fs2-cell/ctxtool"
	"github.com/bfil/fs2-cell/executor"
)

// Cell is an asynchronous reference that starts empty and can be assigned
// any number of times. SetAsync and SetSync assign unconditionally; the
// Setter returned by Access (and so TryModify/Modify) commits only if no
// other assignment has happened since the version it was read at. Reads
// issued while a Cell is empty park until the first value arrives (spec.md
// §1-§4).
//
// All mutable Cell state (value, version, waiters) is owned by a single
// goroutine running mailbox.run -- the serializer -- and is touched nowhere
// else (I4). Every public method is a thin wrapper that builds a cellMsg and
// sends it to the mailbox. SetAsync and SetAsyncPure return without waiting
// for it to be applied; the others wait for the reply on a private channel
// (CancellableGet through the handles it returns).
type Cell[A any] struct {
	mailbox *mailbox[A]
	waiters *waiterSet[A]

	// value and version are owned exclusively by the mailbox goroutine.
	value   *Result[A]
	version uint64

	exec executor.Executor

	nextWaiterID atomic.Uint64
}

// Option configures a Cell at construction time.
type Option[A any] func(*cellConfig[A])

type cellConfig[A any] struct {
	exec executor.Executor
}

// WithExecutor overrides the Executor a Cell uses to deliver results to
// waiters and to run the computations passed to SetAsync/Race/etc. The
// default is executor.Go{}.
func WithExecutor[A any](exec executor.Executor) Option[A] {
	return func(c *cellConfig[A]) { c.exec = exec }
}

// NewCell returns an empty Cell: reads issued before the first Set park.
func NewCell[A any](opts ...Option[A]) *Cell[A] {
	cfg := cellConfig[A]{exec: executor.Go{}}
	for _, o := range opts {
		o(&cfg)
	}

	c := &Cell[A]{
		mailbox: newMailbox[A](),
		waiters: newWaiterSet[A](),
		exec:    cfg.exec,
	}
	go c.mailbox.run(c)
	return c
}

// NewCellOf returns a Cell already holding a, equivalent to NewCell followed
// by SetSyncPure(a) before the Cell is published to any other goroutine.
func NewCellOf[A any](a A, opts ...Option[A]) *Cell[A] {
	c := NewCell(opts...)
	c.SetSyncPure(a)
	return c
}

// Close stops the Cell's mailbox goroutine. It does not touch the Cell's
// value; it only releases the one background goroutine every Cell owns.
// Operations sent after Close are silently dropped -- Close is for
// releasing a Cell that is provably no longer reachable from any reader,
// not a way to signal completion to them.
func (c *Cell[A]) Close() {
	c.mailbox.closed.Trigger()
}

// ReadHandle resolves to the Cell's value once available, or to ctx's error
// if ctx is done first.
type ReadHandle[A any] func(ctx context.Context) (A, error)

// CancelHandle releases the waiter slot a CancellableGet registered. It
// reports whether the read was still parked (false if it had already been
// delivered or cancelled) and is idempotent and safe to call more than once.
type CancelHandle func(ctx context.Context) (bool, error)

// CancellableGet registers a read against the Cell's current or future value
// and returns a handle to block on it plus a handle to cancel the
// registration. Calling cancel after read has already resolved is harmless
// (spec.md §4.4 Nevermind).
//
// read and cancel both merge the caller's ctx with the Cell's own closed
// signal via ctxtool.WithChannel, so a reader parked here is released if the
// Cell is Close'd out from under it -- the mailbox goroutine that would
// otherwise deliver resultCh/foundCh has by then already exited.
func (c *Cell[A]) CancellableGet() (ReadHandle[A], CancelHandle) {
	id := WaiterID(c.nextWaiterID.Inc())
	resultCh := make(chan Result[A], 1)

	c.mailbox.send(&readMsg[A]{
		id: id,
		cb: func(r Result[A], _ uint64) { resultCh <- r },
	})

	read := func(ctx context.Context) (A, error) {
		waitCtx := ctxtool.WithChannel(ctx, c.mailbox.closed.Done())
		select {
		case r := <-resultCh:
			return r.Unwrap()
		case <-waitCtx.Done():
			var zero A
			return zero, waitCtx.Err()
		}
	}

	cancel := func(ctx context.Context) (bool, error) {
		foundCh := make(chan bool, 1)
		c.mailbox.send(&nevermindMsg[A]{
			id: id,
			cb: func(found bool) { foundCh <- found },
		})

		waitCtx := ctxtool.WithChannel(ctx, c.mailbox.closed.Done())
		select {
		case found := <-foundCh:
			return found, nil
		case <-waitCtx.Done():
			return false, waitCtx.Err()
		}
	}

	return read, cancel
}

// Get blocks until the Cell has a value or ctx is done, whichever comes
// first. It is CancellableGet followed by an unconditional cancel, so a
// caller that walks away on ctx never leaks a parked waiter.
func (c *Cell[A]) Get(ctx context.Context) (A, error) {
	read, cancel := c.CancellableGet()
	v, err := read(ctx)
	if _, cancelErr := cancel(context.Background()); cancelErr != nil {
		// context.Background() never cancels, but cancel also gives up once
		// the Cell has been Closed; that error is reported, not swallowed.
		return v, cancelErr
	}
	return v, err
}

// Setter commits a new value on behalf of the Access that produced it, but
// only if nothing else has set the Cell in between (spec.md §4.5 Access).
// It reports false, not an error, on a losing compare-and-set.
type Setter[A any] func(ctx context.Context, r Result[A]) (bool, error)

// Access reads the current value together with a Setter bound to the
// version it was read at, for building read-modify-write operations like
// Modify. If ctx is done before a value is available -- including the Cell
// itself being Close'd out from under the caller -- Access dispatches a
// Nevermind via ctxtool.WithFunc and waits for it to be enqueued before
// returning, rather than firing it and walking away.
func (c *Cell[A]) Access(ctx context.Context) (A, Setter[A], error) {
	id := WaiterID(c.nextWaiterID.Inc())

	type reading struct {
		val Result[A]
		ver uint64
	}
	readCh := make(chan reading, 1)

	c.mailbox.send(&readMsg[A]{
		id: id,
		cb: func(r Result[A], ver uint64) { readCh <- reading{r, ver} },
	})

	waitCtx := ctxtool.WithChannel(ctx, c.mailbox.closed.Done())

	select {
	case rd := <-readCh:
		v, err := rd.val.Unwrap()
		if err != nil {
			var zero A
			return zero, nil, err
		}

		setter := func(ctx context.Context, r Result[A]) (bool, error) {
			okCh := make(chan bool, 1)
			c.mailbox.send(&trySetMsg[A]{
				expected: rd.ver,
				r:        r,
				cb:       func(ok bool) { okCh <- ok },
			})

			select {
			case ok := <-okCh:
				return ok, nil
			case <-ctx.Done():
				return false, ctx.Err()
			}
		}

		return v, setter, nil
	case <-waitCtx.Done():
		var zero A
		cleanupCtx, _ := ctxtool.WithFunc(waitCtx, func() {
			c.mailbox.send(&nevermindMsg[A]{id: id})
		})
		<-cleanupCtx.Done()
		return zero, nil, waitCtx.Err()
	}
}

// SetAsync submits fa to the Cell's executor and assigns its outcome --
// success or failure alike -- once fa completes. It returns as soon as the
// computation is submitted, without waiting for it to run.
func (c *Cell[A]) SetAsync(ctx context.Context, fa func(context.Context) (A, error)) {
	c.exec.Submit(func() {
		v, err := fa(ctx)
		c.mailbox.send(&setMsg[A]{r: resultOf(v, err)})
	})
}

// SetAsyncPure is SetAsync for a computation that cannot fail.
func (c *Cell[A]) SetAsyncPure(a A) {
	c.SetAsync(context.Background(), func(context.Context) (A, error) { return a, nil })
}

// SetSync runs fa on the calling goroutine and blocks until its outcome has
// been committed to the Cell. There is no cancellation of an in-flight
// SetSync: once fa returns, the assignment always takes effect.
func (c *Cell[A]) SetSync(ctx context.Context, fa func(context.Context) (A, error)) {
	v, err := fa(ctx)
	ack := make(chan struct{})
	c.mailbox.send(&setMsg[A]{r: resultOf(v, err), ack: func() { close(ack) }})
	<-ack
}

// SetSyncPure is SetSync for a computation that cannot fail.
func (c *Cell[A]) SetSyncPure(a A) {
	c.SetSync(context.Background(), func(context.Context) (A, error) { return a, nil })
}

func resultOf[A any](v A, err error) Result[A] {
	if err != nil {
		return Err[A](err)
	}
	return Ok(v)
}

// panicToErr converts a recovered panic value into an error, wrapping it so
// the cause of the panic is still visible in the message.
func panicToErr(r interface{}) error {
	if err, ok := r.(error); ok {
		return sderr.Wrap(err, "cell: computation panicked")
	}
	return sderr.Wrap(fmt.Errorf("%v", r), "cell: computation panicked")
}
