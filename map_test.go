// Copyright 2024 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package chaintable

import (
	"fmt"
	"hash/maphash"
	"math"
	"strconv"
	"testing"

	"github.com/cockroachdb/chaintable/internal/invariants"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

// toBuiltinMap returns the elements as a map[K]V. Useful for testing.
func (m *Map[K, V]) toBuiltinMap() map[K]V {
	r := make(map[K]V)
	for k, v := range m.All() {
		r[k] = v
	}
	return r
}

// randElement returns an element chosen uniformly by rng. It is O(n) as it
// materializes the keys.
func (m *Map[K, V]) randElement(rng *rand.Rand) (key K, value V, ok bool) {
	if m.used == 0 {
		return key, value, false
	}
	keys := m.Keys()
	k, err := keys.Get(rng.Intn(keys.Len()))
	if err != nil {
		panic(err)
	}
	v, _ := m.Get(k)
	return k, v, true
}

func intMap(t *testing.T, buckets int, limit float64) *Map[int, int] {
	t.Helper()
	m, err := New[int, int](buckets,
		WithLoadFactorLimit[int, int](limit),
		WithHash[int, int](IntegerHash[int]))
	require.NoError(t, err)
	return m
}

func mustPut[K comparable, V any](t *testing.T, m *Map[K, V], k K, v V) {
	t.Helper()
	_, _, err := m.Put(k, v)
	require.NoError(t, err)
}

func TestNew(t *testing.T) {
	m, err := New[string, int](DefaultBuckets)
	require.NoError(t, err)
	require.EqualValues(t, DefaultBuckets, m.BucketCount())
	require.EqualValues(t, 0, m.Len())
	require.True(t, m.IsEmpty())
	require.EqualValues(t, DefaultLoadFactorLimit, m.loadFactorLimit)

	testCases := []struct {
		buckets int
		limit   float64
	}{
		{0, 0.75},
		{-1, 0.75},
		{4, 0},
		{4, -0.5},
		{4, math.NaN()},
		{4, math.Inf(1)},
	}
	for _, c := range testCases {
		t.Run(fmt.Sprintf("buckets=%d,limit=%v", c.buckets, c.limit), func(t *testing.T) {
			_, err := New[int, int](c.buckets, WithLoadFactorLimit[int, int](c.limit))
			require.ErrorIs(t, err, ErrInvalidArgument)
		})
	}

	_, err = New[int, int](4, WithHash[int, int](nil))
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestBasic(t *testing.T) {
	test := func(t *testing.T, m *Map[int, int]) {
		const count = 100

		e := make(map[int]int)
		require.EqualValues(t, 0, m.Len())

		// Non-existent.
		for i := 0; i < count; i++ {
			_, ok := m.Get(i)
			require.False(t, ok)
			require.False(t, m.ContainsKey(i))
		}

		// Insert.
		for i := 0; i < count; i++ {
			prev, replaced, err := m.Put(i, i+count)
			require.NoError(t, err)
			require.False(t, replaced)
			require.EqualValues(t, 0, prev)
			e[i] = i + count
			v, ok := m.Get(i)
			require.True(t, ok)
			require.EqualValues(t, i+count, v)
			require.EqualValues(t, i+1, m.Len())
			require.Equal(t, e, m.toBuiltinMap())
		}

		// Update.
		for i := 0; i < count; i++ {
			prev, replaced, err := m.Put(i, i+2*count)
			require.NoError(t, err)
			require.True(t, replaced)
			require.EqualValues(t, i+count, prev)
			e[i] = i + 2*count
			v, ok := m.Get(i)
			require.True(t, ok)
			require.EqualValues(t, i+2*count, v)
			require.EqualValues(t, count, m.Len())
			require.Equal(t, e, m.toBuiltinMap())
		}

		// Delete.
		for i := 0; i < count; i++ {
			v, err := m.RemoveKey(i)
			require.NoError(t, err)
			require.EqualValues(t, i+2*count, v)
			delete(e, i)
			require.EqualValues(t, count-i-1, m.Len())
			_, ok := m.Get(i)
			require.False(t, ok)
			require.Equal(t, e, m.toBuiltinMap())

			_, err = m.RemoveKey(i)
			require.ErrorIs(t, err, ErrKeyNotFound)
		}
	}

	t.Run("normal", func(t *testing.T) {
		m, err := New[int, int](1)
		require.NoError(t, err)
		test(t, m)
	})

	t.Run("degenerate", func(t *testing.T) {
		testDegenerate := func(t *testing.T, h uint64) {
			m, err := New[int, int](1,
				WithHash[int, int](func(seed maphash.Seed, key int) uint64 {
					return h
				}))
			require.NoError(t, err)
			test(t, m)
		}

		for _, v := range []uint64{0, ^uint64(0)} {
			t.Run(fmt.Sprintf("%016x", v), func(t *testing.T) {
				testDegenerate(t, v)
			})
		}
		for i := 0; i < 10; i++ {
			v := rand.Uint64()
			t.Run(fmt.Sprintf("%016x", v), func(t *testing.T) {
				testDegenerate(t, v)
			})
		}
	})
}

func TestGrowthTiming(t *testing.T) {
	m := intMap(t, 4, 0.75)

	expected := []int{4, 4, 4, 8, 8}
	for k := 1; k <= 5; k++ {
		mustPut(t, m, k, k*10)
		require.EqualValues(t, expected[k-1], m.BucketCount(), "after put %d", k)
	}
	require.EqualValues(t, 5, m.Len())
	for k := 1; k <= 5; k++ {
		v, ok := m.Get(k)
		require.True(t, ok)
		require.EqualValues(t, k*10, v)
	}
}

func TestGrowthOnOverwrite(t *testing.T) {
	m := intMap(t, 4, 0.75)
	for k := 0; k < 3; k++ {
		mustPut(t, m, k, k)
	}
	require.EqualValues(t, 4, m.BucketCount())

	// The table sits at the limit. Even an overwrite grows it.
	prev, replaced, err := m.Put(0, 100)
	require.NoError(t, err)
	require.True(t, replaced)
	require.EqualValues(t, 0, prev)
	require.EqualValues(t, 8, m.BucketCount())
	require.EqualValues(t, 3, m.Len())
}

func TestRehashDoubles(t *testing.T) {
	m, err := New[string, int](3, WithLoadFactorLimit[string, int](0.5))
	require.NoError(t, err)
	e := make(map[string]int)
	for i := 0; i < 1000; i++ {
		before := m.BucketCount()
		k := strconv.Itoa(i)
		mustPut(t, m, k, i)
		e[k] = i

		if after := m.BucketCount(); after != before {
			require.EqualValues(t, 2*before, after)
			require.Equal(t, e, m.toBuiltinMap())
		}
		// The limit holds once the new key has been counted, except for the
		// single insertion that follows a rehash.
		require.LessOrEqual(t, float64(m.Len()-1)/float64(m.BucketCount()), 0.5)
	}
	require.EqualValues(t, 3*1024, m.BucketCount())
	for k, v := range e {
		got, ok := m.Get(k)
		require.True(t, ok)
		require.EqualValues(t, v, got)
	}
}

func TestBucketPlacement(t *testing.T) {
	m := intMap(t, 4, 10)
	for _, k := range []int{5, 1, 2, 4, -3} {
		mustPut(t, m, k, k)
	}
	// IntegerHash places keys by magnitude: 4 -> 0, 5 and 1 -> 1, 2 -> 2,
	// -3 -> 3. Within a bucket keys are in insertion order.
	require.Equal(t, []int{4, 5, 1, 2, -3}, m.Keys().ToSlice())
	require.Equal(t, []int{4, 5, 1, 2, -3}, m.Values().ToSlice())
	require.Equal(t, "{4 = 4, 5 = 5, 1 = 1, 2 = 2, -3 = -3}", m.String())

	for i := 0; i < m.BucketCount(); i++ {
		b, err := m.buckets.Get(i)
		require.NoError(t, err)
		for e := range b.All() {
			require.EqualValues(t, i, reduce(IntegerHash(m.seed, e.key), m.BucketCount()))
		}
	}

	// Keys returns an independent copy.
	keys := m.Keys()
	_, err := keys.RemoveFront()
	require.NoError(t, err)
	require.EqualValues(t, 5, m.Len())
	require.Equal(t, []int{4, 5, 1, 2, -3}, m.Keys().ToSlice())
}

func TestGetIfAbsentPut(t *testing.T) {
	m, err := New[string, int](DefaultBuckets)
	require.NoError(t, err)

	var calls int
	supplier := func(key string) int {
		calls++
		return len(key)
	}

	v, err := m.GetIfAbsentPut("hello", supplier)
	require.NoError(t, err)
	require.EqualValues(t, 5, v)
	require.EqualValues(t, 1, calls)

	v, err = m.GetIfAbsentPut("hello", supplier)
	require.NoError(t, err)
	require.EqualValues(t, 5, v)
	require.EqualValues(t, 1, calls)

	mustPut(t, m, "zero", 0)
	v, err = m.GetIfAbsentPut("zero", supplier)
	require.NoError(t, err)
	require.EqualValues(t, 0, v)
	require.EqualValues(t, 1, calls)
	require.EqualValues(t, 2, m.Len())
}

func TestRemoveKeyIfAbsent(t *testing.T) {
	m := intMap(t, 8, 0.75)
	mustPut(t, m, 1, 100)

	v := m.RemoveKeyIfAbsent(1, func() int {
		require.Fail(t, "supplier called for a present key")
		return 0
	})
	require.EqualValues(t, 100, v)
	require.True(t, m.IsEmpty())

	v = m.RemoveKeyIfAbsent(1, func() int { return -1 })
	require.EqualValues(t, -1, v)
	require.True(t, m.IsEmpty())
}

func TestRemoveKeyNotFound(t *testing.T) {
	m := intMap(t, 4, 0.75)
	mustPut(t, m, 1, 1)
	_, err := m.RemoveKey(5)
	require.ErrorIs(t, err, ErrKeyNotFound)
	require.Contains(t, err.Error(), "key 5")
	require.EqualValues(t, 1, m.Len())
}

func TestEmptyGet(t *testing.T) {
	m, err := New[string, string](1)
	require.NoError(t, err)
	for _, k := range []string{"", "a", "missing"} {
		_, ok := m.Get(k)
		require.False(t, ok)
	}
	require.EqualValues(t, 0, m.Keys().Len())
	require.Equal(t, "{}", m.String())
	require.EqualValues(t, 0, m.LoadFactor())
}

func TestNilKeysAndValues(t *testing.T) {
	m, err := New[any, *int](4)
	require.NoError(t, err)

	_, _, err = m.Put(nil, nil)
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = m.GetIfAbsentPut(nil, func(any) *int {
		require.Fail(t, "supplier called for a nil key")
		return nil
	})
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.EqualValues(t, 0, m.Len())

	// A nil value is a present value.
	mustPut(t, m, "k", nil)
	v, ok := m.Get("k")
	require.True(t, ok)
	require.Nil(t, v)
	require.True(t, m.ContainsKey("k"))
	_, ok = m.Get("other")
	require.False(t, ok)
}

func TestClear(t *testing.T) {
	m := intMap(t, 2, 0.75)
	for i := 0; i < 100; i++ {
		mustPut(t, m, i, i)
	}
	buckets := m.BucketCount()
	m.Clear()
	require.EqualValues(t, 0, m.Len())
	require.EqualValues(t, buckets, m.BucketCount())
	for range m.All() {
		require.Fail(t, "should not iterate")
	}
	mustPut(t, m, 1, 1)
	require.EqualValues(t, 1, m.Len())
}

func TestAllEarlyExit(t *testing.T) {
	m := intMap(t, 16, 0.75)
	for i := 0; i < 10; i++ {
		mustPut(t, m, i, i)
	}
	var n int
	for range m.All() {
		n++
		if n == 3 {
			break
		}
	}
	require.EqualValues(t, 3, n)
}

func TestSeed(t *testing.T) {
	seed := maphash.MakeSeed()
	newMap := func(options ...option[string, int]) *Map[string, int] {
		m, err := New[string, int](8, append(options, WithSeed[string, int](seed))...)
		require.NoError(t, err)
		for i := 0; i < 50; i++ {
			mustPut(t, m, strconv.Itoa(i), i)
		}
		return m
	}

	// Identically seeded maps lay out keys identically.
	a, b := newMap(), newMap()
	require.Equal(t, a.Keys().ToSlice(), b.Keys().ToSlice())

	c, d := newMap(WithHash[string, int](StringHash)), newMap(WithHash[string, int](StringHash))
	require.Equal(t, c.Keys().ToSlice(), d.Keys().ToSlice())
	require.Equal(t, a.toBuiltinMap(), c.toBuiltinMap())
}

func TestIntegerHash(t *testing.T) {
	var seed maphash.Seed
	require.EqualValues(t, 7, IntegerHash(seed, 7))
	require.EqualValues(t, 7, IntegerHash(seed, -7))
	require.EqualValues(t, 7, IntegerHash(seed, uint8(7)))
	require.EqualValues(t, uint64(1)<<63, IntegerHash(seed, int64(math.MinInt64)))
	for _, n := range []int{1, 3, 16} {
		for _, k := range []int{math.MinInt, -1, 0, 1, math.MaxInt} {
			i := reduce(IntegerHash(seed, k), n)
			require.GreaterOrEqual(t, i, 0)
			require.Less(t, i, n)
		}
	}
}

func TestDebugString(t *testing.T) {
	m, err := New[int, string](4, WithHash[int, string](IntegerHash[int]))
	require.NoError(t, err)
	mustPut(t, m, 1, "one")
	mustPut(t, m, 5, "five")
	s := m.debugString()
	require.Contains(t, s, "buckets=4  used=2")
	require.Contains(t, s, "   1: 1=one 5=five\n")
}

func TestCheckInvariants(t *testing.T) {
	if !invariants.Enabled {
		t.Skip("requires -tags invariants")
	}
	m := intMap(t, 4, 0.75)
	mustPut(t, m, 1, 1)
	m.checkInvariants()
	m.used++
	require.Panics(t, m.checkInvariants)
}

func TestRandom(t *testing.T) {
	test := func(t *testing.T, m *Map[int, int], seed uint64) {
		rng := rand.New(rand.NewSource(seed))
		e := make(map[int]int)
		for i := 0; i < 10000; i++ {
			switch r := rng.Float64(); {
			case r < 0.5: // 50% inserts
				k, v := rng.Intn(5000), rng.Int()
				mustPut(t, m, k, v)
				e[k] = v
			case r < 0.65: // 15% updates
				if k, _, ok := m.randElement(rng); !ok {
					require.EqualValues(t, 0, m.Len(), e)
				} else {
					v := rng.Int()
					prev, replaced, err := m.Put(k, v)
					require.NoError(t, err)
					require.True(t, replaced)
					require.EqualValues(t, e[k], prev)
					e[k] = v
				}
			case r < 0.80: // 15% deletes
				if k, _, ok := m.randElement(rng); !ok {
					require.EqualValues(t, 0, m.Len(), e)
				} else {
					v, err := m.RemoveKey(k)
					require.NoError(t, err)
					require.EqualValues(t, e[k], v)
					delete(e, k)
				}
			case r < 0.95: // 15% lookups
				k := rng.Intn(5000)
				v, ok := m.Get(k)
				ev, eok := e[k]
				require.Equal(t, eok, ok)
				require.EqualValues(t, ev, v)
			default: // 5% iterate
				require.Equal(t, e, m.toBuiltinMap())
			}
			require.EqualValues(t, len(e), m.Len())
		}
	}

	t.Run("normal", func(t *testing.T) {
		m, err := New[int, int](1)
		require.NoError(t, err)
		test(t, m, 1)
	})

	t.Run("integer", func(t *testing.T) {
		test(t, intMap(t, 7, 2.5), 2)
	})

	t.Run("degenerate", func(t *testing.T) {
		m, err := New[int, int](4,
			WithHash[int, int](func(seed maphash.Seed, key int) uint64 {
				return 0
			}))
		require.NoError(t, err)
		test(t, m, 3)
	})
}
