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
	"sync"

	concert "github.com/bfil/fs2-cell"
)

// cellMsg is the tagged variant of spec.md §3: exactly four shapes, each
// applied only on the mailbox goroutine.
type cellMsg[A any] interface {
	apply(c *Cell[A])
}

// mailbox is a single-consumer, multi-producer, unbounded queue. Send never
// blocks the caller on the queue itself (spec.md §4.1: "Enqueue is
// non-blocking and wait-free from the producer's viewpoint"); it only holds
// mu for the duration of an append. Ordering among messages sent by one
// producer is preserved because send() appends under mu in call order --
// there is deliberately no "go send()" anywhere in this package.
type mailbox[A any] struct {
	mu     sync.Mutex
	q      []cellMsg[A]
	signal chan struct{}
	closed *concert.OnceSignaler
}

func newMailbox[A any]() *mailbox[A] {
	return &mailbox[A]{signal: make(chan struct{}, 1), closed: concert.NewOnceSignaler()}
}

func (m *mailbox[A]) send(msg cellMsg[A]) {
	m.mu.Lock()
	m.q = append(m.q, msg)
	m.mu.Unlock()

	select {
	case m.signal <- struct{}{}:
	default:
	}
}

// run is the serializer: it pops messages one at a time and applies them to
// c, blocking for more work when the queue drains, until closed fires. A
// goroutine blocked on a channel is never garbage collected just because
// nothing else references that channel, so the mailbox goroutine this
// rewrite introduces -- unlike the teacher's original channel-based Cell,
// which held no background goroutine at all -- needs an explicit way to
// stop; see Cell.Close.
func (m *mailbox[A]) run(c *Cell[A]) {
	for {
		msg, ok := m.pop()
		if !ok {
			select {
			case <-m.signal:
			case <-m.closed.Done():
				return
			}
			continue
		}
		msg.apply(c)
	}
}

func (m *mailbox[A]) pop() (cellMsg[A], bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.q) == 0 {
		return nil, false
	}
	msg := m.q[0]
	m.q[0] = nil
	m.q = m.q[1:]
	return msg, true
}
