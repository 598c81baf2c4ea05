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

// readMsg requests the current value. If the Cell is empty, cb is parked
// under id until the first Set/TrySet; otherwise cb is scheduled on the
// executor with the current value and version (spec.md §4.3 Read).
type readMsg[A any] struct {
	id WaiterID
	cb func(Result[A], uint64)
}

func (m *readMsg[A]) apply(c *Cell[A]) {
	if c.value == nil {
		c.waiters.insert(m.id, m.cb)
		return
	}

	v, ver, cb := *c.value, c.version, m.cb
	c.exec.Submit(func() { cb(v, ver) })
}

// setMsg unconditionally assigns a new value, bumping the version and
// waking every parked waiter if this is the first value (spec.md §4.3 Set).
type setMsg[A any] struct {
	r   Result[A]
	ack func()
}

func (m *setMsg[A]) apply(c *Cell[A]) {
	c.commit(m.r)
	if m.ack != nil {
		m.ack()
	}
}

// trySetMsg assigns conditionally: it only takes effect if the Cell's
// version still matches expected (spec.md §4.3 TrySet).
type trySetMsg[A any] struct {
	expected uint64
	r        Result[A]
	cb       func(bool)
}

func (m *trySetMsg[A]) apply(c *Cell[A]) {
	if c.version != m.expected {
		if m.cb != nil {
			m.cb(false)
		}
		return
	}

	c.commit(m.r)
	if m.cb != nil {
		m.cb(true)
	}
}

// nevermindMsg cancels a previously parked read (spec.md §4.3 Nevermind).
type nevermindMsg[A any] struct {
	id WaiterID
	cb func(bool)
}

func (m *nevermindMsg[A]) apply(c *Cell[A]) {
	found := c.waiters.remove(m.id)
	if m.cb != nil {
		m.cb(found)
	}
}

// commit is the shared tail of Set and a successful TrySet: bump the
// version, assign the value, and -- only on the empty-to-non-empty
// transition -- wake every parked waiter with the new value, in the order
// they registered (I2, O2).
func (c *Cell[A]) commit(r Result[A]) {
	c.version++
	wasEmpty := c.value == nil
	c.value = &r

	if wasEmpty {
		ver := c.version
		for _, n := range c.waiters.drain() {
			cb := n.cb
			c.exec.Submit(func() { cb(r, ver) })
		}
	}
}
