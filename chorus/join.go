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
)

// Join runs a single action on exec and waits for it to finish.
//
// Deprecated: use ParallelSequence, which Join is now a trivial case of.
func Join[R any](ctx context.Context, exec executor.Executor, fn func(context.Context) (R, error)) (R, error) {
	results, err := ParallelSequence(ctx, exec, fn)
	if err != nil {
		var zero R
		return zero, err
	}
	return results[0], nil
}
