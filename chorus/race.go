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

	"github.com/bfil/fs2-cell/executor"
	"github.com/bfil/fs2-cell/unison"
)

// Race runs fa and fb concurrently on exec and returns whichever completes
// first, wrapped as Left or Right. The loser keeps running to completion;
// its result is dropped (spec.md §4.6).
func Race[A, B any](ctx context.Context, exec executor.Executor, fa func(context.Context) (A, error), fb func(context.Context) (B, error)) (Either[A, B], error) {
	c := unison.Race[Either[A, B]](ctx, exec,
		func(ctx context.Context) (Either[A, B], error) {
			a, err := fa(ctx)
			return Left[A, B](a), err
		},
		func(ctx context.Context) (Either[A, B], error) {
			b, err := fb(ctx)
			return Right[A, B](b), err
		},
	)
	defer c.Close()

	return c.Get(ctx)
}
