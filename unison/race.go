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

	"github.com/bfil/fs2-cell/atomic"
	"github.com/bfil/fs2-cell/executor"
)

// Race runs f1 and f2 on exec and returns a private Cell that receives
// whichever one completes first -- success or failure alike. The loser keeps
// running to completion; its result is discarded (spec.md §4.6).
//
// The losing branch's closure still captures the Cell by way of ref, which
// is exactly why ref -- not c -- is what the closures hold onto: the winner
// loads ref and clears it before sending its Set, so that the only remaining
// path to the Cell is through whatever external readers still hold it, not
// through the loser's still-running goroutine.
func Race[R any](ctx context.Context, exec executor.Executor, f1, f2 func(context.Context) (R, error)) *Cell[R] {
	c := NewCell[R](WithExecutor[R](exec))

	var won atomic.Bool
	ref := &atomic.Value[*Cell[R]]{}
	ref.Store(c)

	run := func(f func(context.Context) (R, error)) {
		v, err := f(ctx)
		if !won.CAS(false, true) {
			return
		}

		target := ref.Load()
		ref.Clear()
		if target != nil {
			target.mailbox.send(&setMsg[R]{r: resultOf(v, err)})
		}
	}

	exec.Submit(func() { run(f1) })
	exec.Submit(func() { run(f2) })

	return c
}
