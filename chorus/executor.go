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

package chorus

import (
	"context"

	concert "github.com/bfil/fs2-cell"
	"github.com/bfil/fs2-cell/unison"
)

// BoundedExecutor is an executor.Executor that caps concurrency like
// executor.Bounded, but additionally owns the lifecycle of everything it has
// submitted: Close shuts the executor to further Submit calls, and Wait
// blocks until every fn submitted so far has returned.
//
// Close runs through a concert.Closer wrapping the TaskGroup's own Stop, so
// a BoundedExecutor shut down twice reports concert.ErrClosed from the
// second call instead of just returning the first call's (always-nil)
// result again.
type BoundedExecutor struct {
	sem    *concert.Semaphore
	tg     unison.TaskGroup
	closer *concert.Closer
}

// NewBoundedExecutor creates a BoundedExecutor that runs at most n fns
// concurrently.
func NewBoundedExecutor(n int) *BoundedExecutor {
	b := &BoundedExecutor{sem: concert.NewSemaphore(n)}
	b.closer = concert.NewCloser(func() { b.tg.Stop() })
	return b
}

// Submit implements executor.Executor. It blocks the caller until a slot is
// free, then runs fn in a goroutine owned by the executor's TaskGroup. If
// the executor has already been Closed, Submit releases the slot it
// acquired and returns without running fn, rather than leaking the permit
// when TaskGroup.Go refuses the call with ErrGroupClosed.
func (b *BoundedExecutor) Submit(fn func()) {
	b.sem.Acquire()
	err := b.tg.Go(func(context.Context) error {
		defer b.sem.Release()
		fn()
		return nil
	})
	if err != nil {
		b.sem.Release()
	}
}

// Close marks the executor closed to further Submit calls; fns already
// running are unaffected, since Submit's signature gives them no context to
// observe.
func (b *BoundedExecutor) Close() error { return b.closer.Close() }

// Wait blocks until every fn submitted so far has returned.
func (b *BoundedExecutor) Wait() { b.tg.Wait() }
