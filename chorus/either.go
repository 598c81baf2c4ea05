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

// Either holds a value from one of two computations competing in Race: Left
// if fa won, Right if fb won. Exactly one of IsLeft/IsRight is true.
type Either[A, B any] struct {
	left    A
	right   B
	isRight bool
}

// Left wraps a value from the first branch.
func Left[A, B any](a A) Either[A, B] { return Either[A, B]{left: a} }

// Right wraps a value from the second branch.
func Right[A, B any](b B) Either[A, B] { return Either[A, B]{right: b, isRight: true} }

// IsRight reports whether the value came from the second branch.
func (e Either[A, B]) IsRight() bool { return e.isRight }

// Left returns the first branch's value and true, or the zero value of A and
// false if the second branch won.
func (e Either[A, B]) Left() (A, bool) { return e.left, !e.isRight }

// Right returns the second branch's value and true, or the zero value of B
// and false if the first branch won.
func (e Either[A, B]) Right() (B, bool) { return e.right, e.isRight }
