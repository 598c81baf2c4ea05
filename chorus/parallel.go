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
	"errors"

	"github.com/bfil/fs2-cell/executor"
	"github.com/bfil/fs2-cell/unison"
)

// ParallelTraverse runs f over every item concurrently on exec and collects
// the results in input order. It is built on unison.MultiErrGroup the same
// way the teacher builds fan-out operations: one Go per item, one Wait at
// the end, errors aggregated rather than the first one short-circuiting the
// rest. A branch that fails with context.Canceled itself is not reported:
// MultiErrGroup drops that error.
func ParallelTraverse[T, R any](ctx context.Context, exec executor.Executor, items []T, f func(context.Context, T) (R, error)) ([]R, error) {
	results := make([]R, len(items))

	var grp unison.MultiErrGroup
	for i, item := range items {
		i, item := i, item
		grp.Go(func() error {
			done := make(chan error, 1)
			exec.Submit(func() {
				v, err := f(ctx, item)
				results[i] = v
				done <- err
			})
			return <-done
		})
	}

	if errs := grp.Wait(); len(errs) > 0 {
		return results, errors.Join(errs...)
	}
	return results, nil
}

// ParallelSequence runs every fn concurrently on exec and collects the
// results in the order the functions were given, regardless of completion
// order.
func ParallelSequence[R any](ctx context.Context, exec executor.Executor, fns ...func(context.Context) (R, error)) ([]R, error) {
	return ParallelTraverse(ctx, exec, fns, func(ctx context.Context, fn func(context.Context) (R, error)) (R, error) {
		return fn(ctx)
	})
}
