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

package ctxtool

import (
	"context"
	"sync"
	"time"
)

type funcCtx struct {
	parent context.Context
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// WithFunc creates a context derived from parent that is cancelled once fn
// has finished running. fn runs exactly once, in its own goroutine, as soon
// as either parent is cancelled or the returned cancel function is called --
// whichever happens first. The returned context's Done channel only closes
// after fn returns, so a slow cleanup function delays propagation of
// cancellation to anything waiting on the returned context.
func WithFunc(parent context.Context, fn func()) (context.Context, context.CancelFunc) {
	done := make(chan struct{})
	trigger := make(chan struct{})
	var once sync.Once
	cancel := func() { once.Do(func() { close(trigger) }) }

	ctx := &funcCtx{parent: parent, done: done}
	go ctx.run(done, trigger, fn)

	return ctx, cancel
}

func (c *funcCtx) run(done, trigger chan struct{}, fn func()) {
	var err error
	select {
	case <-c.parent.Done():
		err = c.parent.Err()
	case <-trigger:
		err = context.Canceled
	}

	fn()

	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
	close(done)
}

func (c *funcCtx) Deadline() (deadline time.Time, ok bool) {
	return c.parent.Deadline()
}

func (c *funcCtx) Done() <-chan struct{} {
	return c.done
}

func (c *funcCtx) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *funcCtx) Value(key interface{}) interface{} {
	return c.parent.Value(key)
}
