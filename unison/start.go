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

	"github.com/bfil/fs2-cell/executor"
)

// Start submits f to exec once and returns a Cell that every later reader
// can Get from: the computation itself runs exactly once, its result is
// broadcast, and readers that arrive after completion observe the value
// immediately rather than re-running f (spec.md §4.7).
func Start[R any](exec executor.Executor, f func(context.Context) (R, error)) *Cell[R] {
	c := NewCell[R](WithExecutor[R](exec))
	c.SetAsync(context.Background(), f)
	return c
}
