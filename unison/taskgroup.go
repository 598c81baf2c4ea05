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

package unison

import (
	"context"
	"sync"
)

// QuitSignal controls what a TaskGroup does when one of its goroutines
// returns.
type QuitSignal uint8

const (
	// ContinueOnErrors lets every goroutine run to completion on its own;
	// the group only stops when Stop is called or its context is cancelled.
	ContinueOnErrors QuitSignal = iota

	// StopOnError stops the whole group once a goroutine returns an error
	// other than context.Canceled.
	StopOnError

	// StopOnErrorOrCancel stops the whole group once a goroutine returns
	// any non-nil error, context.Canceled included.
	StopOnErrorOrCancel

	// StopAll stops the whole group as soon as any one goroutine returns,
	// for any reason.
	StopAll

	// RestartOnError re-invokes a goroutine's function in place whenever it
	// returns a non-nil error, without touching the rest of the group.
	RestartOnError
)

// TaskGroup runs a set of goroutines sharing one cancellable context and one
// WaitGroup, with a policy for what a goroutine's return means for the rest
// of the group. The zero value is a usable, never-auto-stopping group.
type TaskGroup struct {
	// MaxErrors bounds how many past errors the group keeps for waitErrors;
	// 0 (the zero value) means unbounded.
	MaxErrors int

	// OnQuit selects the group's reaction to a goroutine returning. The
	// zero value is ContinueOnErrors.
	OnQuit QuitSignal

	mu     sync.Mutex
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	closed bool
	errs   []error
}

// TaskGroupWithCancel returns a TaskGroup whose context is a child of
// parent: cancelling parent or calling Stop cancels every goroutine in the
// group.
func TaskGroupWithCancel(parent context.Context) TaskGroup {
	var tg TaskGroup
	tg.ctx, tg.cancel = context.WithCancel(parent)
	return tg
}

// Context returns the context passed to every goroutine in the group,
// creating one from context.Background the first time it's needed.
func (tg *TaskGroup) Context() context.Context {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	tg.ensureContext()
	return tg.ctx
}

func (tg *TaskGroup) ensureContext() {
	if tg.ctx == nil {
		tg.ctx, tg.cancel = context.WithCancel(context.Background())
	}
}

// Go starts fn in a new goroutine with the group's context, applying OnQuit
// when fn returns. It reports ErrGroupClosed if Stop has already been
// called.
func (tg *TaskGroup) Go(fn func(context.Context) error) error {
	tg.mu.Lock()
	if tg.closed {
		tg.mu.Unlock()
		return ErrGroupClosed
	}
	tg.ensureContext()
	ctx := tg.ctx
	tg.wg.Add(1)
	tg.mu.Unlock()

	go tg.run(ctx, fn)
	return nil
}

func (tg *TaskGroup) run(ctx context.Context, fn func(context.Context) error) {
	defer tg.wg.Done()

	for {
		err := fn(ctx)
		if err != nil {
			tg.recordError(err)
		}

		switch tg.OnQuit {
		case RestartOnError:
			if err != nil {
				continue
			}
			return
		case StopAll:
			tg.Stop()
			return
		case StopOnErrorOrCancel:
			if err != nil {
				tg.Stop()
			}
			return
		case StopOnError:
			if err != nil && err != context.Canceled {
				tg.Stop()
			}
			return
		default: // ContinueOnErrors
			return
		}
	}
}

func (tg *TaskGroup) recordError(err error) {
	tg.mu.Lock()
	defer tg.mu.Unlock()

	tg.errs = append(tg.errs, err)
	if tg.MaxErrors > 0 && len(tg.errs) > tg.MaxErrors {
		tg.errs = tg.errs[len(tg.errs)-tg.MaxErrors:]
	}
}

// Stop cancels the group's context, signalling every running goroutine, and
// marks the group closed so no further Go succeeds. It always returns nil;
// the return value exists so Stop can be handed to things that expect an
// io.Closer-shaped func() error.
func (tg *TaskGroup) Stop() error {
	tg.mu.Lock()
	tg.closed = true
	tg.ensureContext()
	cancel := tg.cancel
	tg.mu.Unlock()

	cancel()
	return nil
}

// Wait blocks until every goroutine the group has started has returned.
func (tg *TaskGroup) Wait() {
	tg.wg.Wait()
}

// waitErrors waits for the group to drain, then returns the errors
// goroutines have returned, trimmed to MaxErrors if set.
func (tg *TaskGroup) waitErrors() []error {
	tg.wg.Wait()

	tg.mu.Lock()
	defer tg.mu.Unlock()
	return append([]error(nil), tg.errs...)
}
