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

// Package atomic provides small typed wrappers around sync/atomic,
// used throughout the module wherever a field is read or written
// outside of a single serializing goroutine.
package atomic

import "sync/atomic"

// Bool is an atomic boolean.
type Bool struct {
	v atomic.Uint32
}

// MakeBool creates a new Bool with the given initial value.
func MakeBool(v bool) Bool {
	var b Bool
	b.Store(v)
	return b
}

func (b *Bool) Load() bool {
	return b.v.Load() != 0
}

func (b *Bool) Store(v bool) {
	if v {
		b.v.Store(1)
	} else {
		b.v.Store(0)
	}
}

// CAS sets the value to new if and only if the current value equals old.
// It reports whether the swap took place.
func (b *Bool) CAS(old, new bool) bool {
	var oldU, newU uint32
	if old {
		oldU = 1
	}
	if new {
		newU = 1
	}
	return b.v.CompareAndSwap(oldU, newU)
}

// Uint64 is an atomic monotonic counter.
type Uint64 struct {
	v atomic.Uint64
}

func (c *Uint64) Load() uint64 { return c.v.Load() }

func (c *Uint64) Store(v uint64) { c.v.Store(v) }

// Add adds delta and returns the new value.
func (c *Uint64) Add(delta uint64) uint64 { return c.v.Add(delta) }

// Inc increments the counter by one and returns the new value.
func (c *Uint64) Inc() uint64 { return c.v.Add(1) }

// CAS sets the value to new if and only if the current value equals old.
func (c *Uint64) CAS(old, new uint64) bool {
	return c.v.CompareAndSwap(old, new)
}

// Value is an atomically updatable reference to a T. The zero value holds
// a nil/zero T.
type Value[T any] struct {
	v atomic.Pointer[T]
}

// Load returns the current value, or the zero value of T if none was ever
// stored.
func (r *Value[T]) Load() T {
	p := r.v.Load()
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// Store atomically sets the value.
func (r *Value[T]) Store(val T) {
	r.v.Store(&val)
}

// Swap atomically replaces the stored value with new and returns the
// previous one.
func (r *Value[T]) Swap(new T) T {
	old := r.v.Swap(&new)
	if old == nil {
		var zero T
		return zero
	}
	return *old
}

// Clear stores the zero value of T, releasing any reference the previous
// value held. Used by the race combinator to sever the loser's reference to
// a shared Cell once the winner has committed its result (spec.md §4.6/§9).
func (r *Value[T]) Clear() {
	var zero T
	r.v.Store(&zero)
}
