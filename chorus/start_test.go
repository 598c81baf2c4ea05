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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/bfil/fs2-cell/executor"
)

func TestStart_MemoizesAcrossCallers(t *testing.T) {
	defer goleak.VerifyNone(t)

	var calls int
	get, closer := Start[int](executor.Go{}, func(context.Context) (int, error) {
		calls++
		return 13, nil
	})
	defer closer.Close()

	v1, err := get(context.Background())
	require.NoError(t, err)
	v2, err := get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 13, v1)
	assert.Equal(t, 13, v2)
	assert.Equal(t, 1, calls)
}

func TestRefOf_ResolvesImmediately(t *testing.T) {
	c := RefOf(5)
	defer c.Close()

	v, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}
