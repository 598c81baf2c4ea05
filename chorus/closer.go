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

// Package chorus hosts the combinators that coordinate several
// concurrent computations at once (Race, Start, ParallelTraverse,
// ParallelSequence) -- the counterpart to unison's single Cell.
package chorus

import concert "github.com/bfil/fs2-cell"

// Closer, ErrClosed, NewCloser and WithCloser are the same cascading
// close tree as concert.Closer. chorus re-exports them under its own
// name rather than re-implementing them: the two packages' close
// semantics never diverged, only their retrieval did.
type Closer = concert.Closer

var (
	ErrClosed  = concert.ErrClosed
	NewCloser  = concert.NewCloser
	WithCloser = concert.WithCloser
)
