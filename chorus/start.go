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

	concert "github.com/bfil/fs2-cell"
	"github.com/bfil/fs2-cell/executor"
	"github.com/bfil/fs2-cell/unison"
)

// Start launches f on exec and returns a function any number of callers may
// invoke to await its single result, plus a Closer that releases the Cell
// backing that memoisation. f runs exactly once; callers that ask after it
// has finished get the memoised value immediately (spec.md §4.7). The
// returned Closer is opt-in: nothing calls it on the caller's behalf, since
// the whole point of Start is that the result may be asked for by callers
// that arrive well after the first one -- only close it once nothing will
// call get again.
func Start[R any](exec executor.Executor, f func(context.Context) (R, error)) (get func(context.Context) (R, error), closer *concert.Closer) {
	c := unison.Start[R](exec, f)
	return c.Get, concert.NewCloser(c.Close)
}

// RefOf wraps a already-known value a as a Cell, for composing with
// combinators that expect one -- e.g. seeding ParallelSequence with a
// constant alongside genuinely asynchronous actions.
func RefOf[A any](a A) *unison.Cell[A] {
	return unison.NewCellOf(a)
}
