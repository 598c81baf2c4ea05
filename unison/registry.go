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

	concert "github.com/bfil/fs2-cell"
	"github.com/bfil/fs2-cell/executor"
)

type cellRegistryEntry[A any] struct {
	cell *Cell[A]
	ref  concert.RefCount
}

// CellRegistry hands out one shared Cell per key, the way LockManager hands
// out one shared lock per key: first access creates it, every further
// access retains it, and the Cell is dropped from the registry once the
// last caller releases it.
//
// The table itself is guarded by a context-aware concert.CHMutex rather
// than sync.Mutex, so a caller waiting on GetOrCreate can still be
// interrupted by ctx. Constructing a new Cell happens outside that lock,
// under a LockManager-issued lock scoped to key alone, so GetOrCreate for
// distinct keys never contends with each other even while one of them is
// busy building its Cell.
type CellRegistry[A any] struct {
	mu      concert.CHMutex
	locks   *LockManager
	entries map[string]*cellRegistryEntry[A]
	exec    executor.Executor
}

// NewCellRegistry returns an empty registry. Options configure the executor
// used by every Cell the registry creates.
func NewCellRegistry[A any](opts ...Option[A]) *CellRegistry[A] {
	cfg := cellConfig[A]{exec: executor.Go{}}
	for _, o := range opts {
		o(&cfg)
	}
	return &CellRegistry[A]{
		mu:      concert.MakeCHMutex(),
		locks:   NewLockManager(),
		entries: map[string]*cellRegistryEntry[A]{},
		exec:    cfg.exec,
	}
}

// GetOrCreate returns the Cell registered under key, creating an empty one
// on first access. Every call that returns a Cell here must be paired with
// exactly one call to Release. It reports ctx's error if ctx is done before
// the table lock, or the per-key construction lock, can be acquired.
func (r *CellRegistry[A]) GetOrCreate(ctx context.Context, key string) (*Cell[A], error) {
	if e, ok, err := r.lookup(ctx, key); ok || err != nil {
		return e, err
	}

	// Miss: build outside the table lock, under a lock scoped to key alone,
	// so GetOrCreate on an unrelated key never waits behind this one.
	lock := r.locks.Access(key)
	if _, err := lock.LockContext(ctx); err != nil {
		return nil, err
	}
	defer lock.Unlock()

	// Re-check: another caller may have built key while we were waiting for
	// the per-key lock above.
	if e, ok, err := r.lookup(ctx, key); ok || err != nil {
		return e, err
	}

	if err := r.mu.LockContext(ctx); err != nil {
		return nil, err
	}
	defer r.mu.Unlock()

	e := &cellRegistryEntry[A]{cell: NewCell[A](WithExecutor[A](r.exec))}
	r.entries[key] = e
	return e.cell, nil
}

func (r *CellRegistry[A]) lookup(ctx context.Context, key string) (*Cell[A], bool, error) {
	if err := r.mu.LockContext(ctx); err != nil {
		return nil, false, err
	}
	defer r.mu.Unlock()

	e, ok := r.entries[key]
	if !ok {
		return nil, false, nil
	}
	e.ref.Retain()
	return e.cell, true, nil
}

// Release drops one reference to the Cell registered under key, removing
// the entry once nothing else holds it. Releasing a key that isn't
// registered is a no-op.
func (r *CellRegistry[A]) Release(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[key]
	if !ok {
		return
	}
	if e.ref.Release() {
		delete(r.entries, key)
		e.cell.Close()
	}
}

// Len reports how many keys are currently registered.
func (r *CellRegistry[A]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
