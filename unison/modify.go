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

import "context"

// TryModify reads the Cell, applies f, and attempts to commit the result
// under optimistic concurrency control. It returns nil, nil if another
// writer got there first -- that is not an error, just a losing
// compare-and-set -- and the caller is expected to retry (see Modify).
func (c *Cell[A]) TryModify(ctx context.Context, f func(A) A) (*Change[A], error) {
	prev, setter, err := c.Access(ctx)
	if err != nil {
		return nil, err
	}

	now, perr := safeApply(f, prev)
	if perr != nil {
		return nil, perr
	}

	ok, err := setter(ctx, Ok(now))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	return &Change[A]{Previous: prev, Now: now}, nil
}

// Modify retries TryModify until it commits. f must be safe to invoke more
// than once: under contention it may run several times before one of its
// results wins the compare-and-set. Each attempt re-reads the Cell, so no
// attempt ever applies f to a value older than the one it was read against.
func (c *Cell[A]) Modify(ctx context.Context, f func(A) A) (Change[A], error) {
	for {
		if err := ctx.Err(); err != nil {
			return Change[A]{}, err
		}

		chg, err := c.TryModify(ctx, f)
		if err != nil {
			return Change[A]{}, err
		}
		if chg != nil {
			return *chg, nil
		}
	}
}

// TryModify2 is TryModify for an f that also returns an auxiliary value to
// hand back to the caller when its result is committed. aux is the zero
// value of B on any error path, and also on a losing compare-and-set.
//
// This cannot be a method on Cell[A]: Go does not allow a generic type's
// method to introduce an additional type parameter.
func TryModify2[A, B any](ctx context.Context, c *Cell[A], f func(A) (A, B)) (*Change[A], B, error) {
	var zero B

	prev, setter, err := c.Access(ctx)
	if err != nil {
		return nil, zero, err
	}

	now, aux, perr := safeApply2(f, prev)
	if perr != nil {
		return nil, zero, perr
	}

	ok, err := setter(ctx, Ok(now))
	if err != nil {
		return nil, zero, err
	}
	if !ok {
		return nil, zero, nil
	}

	return &Change[A]{Previous: prev, Now: now}, aux, nil
}

// Modify2 retries TryModify2 until it commits, returning the auxiliary
// value produced by the winning attempt.
func Modify2[A, B any](ctx context.Context, c *Cell[A], f func(A) (A, B)) (Change[A], B, error) {
	for {
		if err := ctx.Err(); err != nil {
			var zero B
			return Change[A]{}, zero, err
		}

		chg, aux, err := TryModify2(ctx, c, f)
		if err != nil {
			var zero B
			return Change[A]{}, zero, err
		}
		if chg != nil {
			return *chg, aux, nil
		}
	}
}

// safeApply runs f, converting a panic into an error rather than letting it
// propagate out of the Cell's caller-facing API (spec.md §7
// UserComputationFailure's sibling: a failure in the modify function itself
// leaves the Cell untouched).
func safeApply[A any](f func(A) A, prev A) (now A, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicToErr(r)
		}
	}()
	return f(prev), nil
}

func safeApply2[A, B any](f func(A) (A, B), prev A) (now A, aux B, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicToErr(r)
		}
	}()
	now, aux = f(prev)
	return now, aux, nil
}
