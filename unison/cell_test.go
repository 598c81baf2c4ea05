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
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/bfil/fs2-cell/executor"
)

func TestCell_SetThenGet(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := NewCell[int]()
	defer c.Close()
	c.SetAsyncPure(42)

	v, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	// repeated gets all observe the same value
	for i := 0; i < 3; i++ {
		v, err := c.Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	}
}

func TestCell_NewCellOf(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := NewCellOf(7)
	defer c.Close()
	v, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestCell_WaiterBroadcastToAll(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := NewCell[string]()
	defer c.Close()

	const n = 3
	order := make(chan int, n)
	var started sync.WaitGroup
	started.Add(n)

	for i := 0; i < n; i++ {
		i := i
		go func() {
			read, _ := c.CancellableGet()
			started.Done()
			v, err := read(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "x", v)
			order <- i
		}()
	}

	started.Wait()
	time.Sleep(10 * time.Millisecond) // give the parks a chance to register
	c.SetAsyncPure("x")

	got := make([]int, 0, n)
	for i := 0; i < n; i++ {
		got = append(got, <-order)
	}
	assert.ElementsMatch(t, []int{0, 1, 2}, got)
}

func TestCell_Cancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := NewCell[int]()
	defer c.Close()
	read, cancel := c.CancellableGet()

	found, err := cancel(context.Background())
	require.NoError(t, err)
	assert.True(t, found)

	c.SetAsyncPure(7)

	// the cancelled read must not observe the later set
	ctx, done := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer done()
	_, err = read(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	v, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestCell_CancelIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := NewCell[int]()
	defer c.Close()
	_, cancel := c.CancellableGet()

	found1, err := cancel(context.Background())
	require.NoError(t, err)
	assert.True(t, found1)

	found2, err := cancel(context.Background())
	require.NoError(t, err)
	assert.False(t, found2)
}

func TestCell_AccessModifyContention(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := NewCellOf(0)
	defer c.Close()

	const n = 200
	var wg sync.WaitGroup
	changes := make([]Change[int], n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			chg, err := c.Modify(context.Background(), func(v int) int { return v + 1 })
			require.NoError(t, err)
			changes[i] = chg
		}()
	}
	wg.Wait()

	v, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, n, v)

	seen := map[int]bool{}
	for _, chg := range changes {
		assert.Equal(t, chg.Previous+1, chg.Now)
		assert.False(t, seen[chg.Now], "duplicate Change.Now observed")
		seen[chg.Now] = true
	}
}

func TestCell_AccessSetterLosesOnContention(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := NewCellOf(0)
	defer c.Close()

	prev, setter, err := c.Access(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, prev)

	// a concurrent writer beats our setter
	c.SetSyncPure(99)

	ok, err := setter(context.Background(), Ok(1))
	require.NoError(t, err)
	assert.False(t, ok)

	v, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 99, v)
}

func TestCell_ModifyPanicLeavesCellUntouched(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := NewCellOf(5)
	defer c.Close()

	_, err := c.TryModify(context.Background(), func(int) int {
		panic("boom")
	})
	require.Error(t, err)

	v, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}

func TestCell_SetAsyncFailureDeliveredToReaders(t *testing.T) {
	defer goleak.VerifyNone(t)

	wantErr := errors.New("boom")
	c := NewCell[int]()
	defer c.Close()
	c.SetAsync(context.Background(), func(context.Context) (int, error) {
		return 0, wantErr
	})

	_, err := c.Get(context.Background())
	assert.ErrorIs(t, err, wantErr)
}

func TestRace_FasterWins(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := Race[string](context.Background(), executor.Go{},
		func(context.Context) (string, error) {
			time.Sleep(10 * time.Millisecond)
			return "a", nil
		},
		func(context.Context) (string, error) {
			time.Sleep(50 * time.Millisecond)
			return "b", nil
		},
	)
	defer c.Close()

	v, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", v)

	// the loser must not overwrite: give it time to finish and check again
	time.Sleep(80 * time.Millisecond)
	v, err = c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", v)
}

func TestRace_FailureCanWin(t *testing.T) {
	defer goleak.VerifyNone(t)

	wantErr := errors.New("fail fast")
	c := Race[int](context.Background(), executor.Go{},
		func(context.Context) (int, error) {
			return 0, wantErr
		},
		func(context.Context) (int, error) {
			time.Sleep(50 * time.Millisecond)
			return 1, nil
		},
	)
	defer c.Close()

	_, err := c.Get(context.Background())
	assert.ErrorIs(t, err, wantErr)
}

func TestStart_MemoizesAndBroadcasts(t *testing.T) {
	defer goleak.VerifyNone(t)

	var calls int
	c := Start[int](executor.Go{}, func(context.Context) (int, error) {
		calls++
		return 99, nil
	})
	defer c.Close()

	v1, err := c.Get(context.Background())
	require.NoError(t, err)
	v2, err := c.Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 99, v1)
	assert.Equal(t, 99, v2)
	assert.Equal(t, 1, calls)
}
