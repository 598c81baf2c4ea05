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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/bfil/fs2-cell/executor"
)

func TestParallelTraverse_PreservesInputOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	items := []int{5, 1, 4, 2, 3}
	got, err := ParallelTraverse(context.Background(), executor.Go{}, items, func(_ context.Context, n int) (int, error) {
		time.Sleep(time.Duration(n) * time.Millisecond)
		return n * 10, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{50, 10, 40, 20, 30}, got)
}

func TestParallelTraverse_AggregatesAllErrors(t *testing.T) {
	defer goleak.VerifyNone(t)

	errA := errors.New("a failed")
	errB := errors.New("b failed")

	_, err := ParallelTraverse(context.Background(), executor.Go{}, []string{"a", "b", "c"}, func(_ context.Context, s string) (int, error) {
		switch s {
		case "a":
			return 0, errA
		case "b":
			return 0, errB
		default:
			return 1, nil
		}
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}

func TestParallelSequence_RunsEveryFn(t *testing.T) {
	defer goleak.VerifyNone(t)

	got, err := ParallelSequence[int](context.Background(), executor.Go{},
		func(context.Context) (int, error) { return 1, nil },
		func(context.Context) (int, error) { return 2, nil },
		func(context.Context) (int, error) { return 3, nil },
	)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestJoin_ReturnsSingleResult(t *testing.T) {
	defer goleak.VerifyNone(t)

	v, err := Join[string](context.Background(), executor.Go{}, func(context.Context) (string, error) {
		return "done", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "done", v)
}

func TestJoin_PropagatesError(t *testing.T) {
	defer goleak.VerifyNone(t)

	wantErr := errors.New("join failed")
	_, err := Join[int](context.Background(), executor.Go{}, func(context.Context) (int, error) {
		return 0, wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}
