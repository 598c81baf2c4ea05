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

package concert

import (
	"errors"
	"sync"
)

// ErrClosed is returned by Closer.Err once the closer has been closed.
var ErrClosed = errors.New("closed")

// Closer is a cascading close tree: closing a parent closes every child that
// is still attached to it, but closing a child never closes its parent, and
// a child that closes itself detaches from the parent so it isn't closed a
// second time.
type Closer struct {
	mu       sync.Mutex
	closed   bool
	onClose  func()
	parent   *Closer
	children map[*Closer]struct{}
}

// NewCloser creates a root closer. onClose may be nil.
func NewCloser(onClose func()) *Closer {
	return &Closer{onClose: onClose, children: map[*Closer]struct{}{}}
}

// WithCloser creates a closer that is closed whenever parent is closed.
func WithCloser(parent *Closer, onClose func()) *Closer {
	child := NewCloser(onClose)
	child.parent = parent

	parent.mu.Lock()
	if parent.closed {
		parent.mu.Unlock()
		child.Close()
		return child
	}
	parent.children[child] = struct{}{}
	parent.mu.Unlock()

	return child
}

// Close closes c and, if c is a parent, every attached child. Close is
// idempotent: calling it again does nothing further and returns ErrClosed.
func (c *Closer) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.closed = true
	children := c.children
	c.children = nil
	onClose := c.onClose
	parent := c.parent
	c.mu.Unlock()

	if parent != nil {
		parent.detach(c)
	}
	if onClose != nil {
		onClose()
	}
	for child := range children {
		child.Close()
	}
	return nil
}

func (c *Closer) detach(child *Closer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.children != nil {
		delete(c.children, child)
	}
}

// Err returns nil until Close has been called, and ErrClosed afterwards.
func (c *Closer) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return nil
}
