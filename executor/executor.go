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

// Package executor provides the "user-supplied executor" collaborator
// spec.md leaves external: something that can run a callback off of
// whatever goroutine submitted it. unison.Cell and chorus's combinators
// accept any Executor; this package supplies the two simplest ones.
package executor

import concert "github.com/bfil/fs2-cell"

// Executor runs fn asynchronously. Submit must not run fn on the calling
// goroutine: Cell relies on that to break the call stack and keep its
// mailbox goroutine free of arbitrary user code (spec.md §4.3).
type Executor interface {
	Submit(fn func())
}

// Go is the default Executor: one goroutine per Submit, no bound on
// concurrency.
type Go struct{}

// Submit implements Executor.
func (Go) Submit(fn func()) { go fn() }

// Bounded is an Executor that caps the number of fn's running
// concurrently, using a counting semaphore. Submissions beyond the cap
// block the submitting goroutine until a slot frees up.
type Bounded struct {
	sem *concert.Semaphore
}

// NewBounded creates a Bounded executor that allows at most n concurrent
// callbacks in flight.
func NewBounded(n int) *Bounded {
	return &Bounded{sem: concert.NewSemaphore(n)}
}

// Submit implements Executor.
func (b *Bounded) Submit(fn func()) {
	b.sem.Acquire()
	go func() {
		defer b.sem.Release()
		fn()
	}()
}
