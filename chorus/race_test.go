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

func TestRace_LeftWins(t *testing.T) {
	defer goleak.VerifyNone(t)

	got, err := Race[string, int](context.Background(), executor.Go{},
		func(context.Context) (string, error) {
			return "fast", nil
		},
		func(context.Context) (int, error) {
			time.Sleep(50 * time.Millisecond)
			return 1, nil
		},
	)
	require.NoError(t, err)
	assert.False(t, got.IsRight())

	v, ok := got.Left()
	require.True(t, ok)
	assert.Equal(t, "fast", v)

	_, ok = got.Right()
	assert.False(t, ok)
}

func TestRace_RightWins(t *testing.T) {
	defer goleak.VerifyNone(t)

	got, err := Race[string, int](context.Background(), executor.Go{},
		func(context.Context) (string, error) {
			time.Sleep(50 * time.Millisecond)
			return "slow", nil
		},
		func(context.Context) (int, error) {
			return 7, nil
		},
	)
	require.NoError(t, err)
	assert.True(t, got.IsRight())

	v, ok := got.Right()
	require.True(t, ok)
	assert.Equal(t, 7, v)
}

func TestRace_WinnerErrorIsReturned(t *testing.T) {
	defer goleak.VerifyNone(t)

	wantErr := errors.New("boom")
	_, err := Race[string, int](context.Background(), executor.Go{},
		func(context.Context) (string, error) {
			return "", wantErr
		},
		func(context.Context) (int, error) {
			time.Sleep(50 * time.Millisecond)
			return 1, nil
		},
	)
	assert.ErrorIs(t, err, wantErr)
}
