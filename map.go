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

// Package chaintable is a hash table that resolves collisions by separate
// chaining. See https://en.wikipedia.org/wiki/Hash_table#Separate_chaining.
//
// # Layout
//
// A Map owns a dynarray.Array of buckets. Each bucket is a
// linkedlist.List of entries whose keys reduce to that bucket's index:
//
//	index(key) = hash(seed, key) mod bucketCount
//
// Put, Get and RemoveKey compute the index, then scan the bucket's list
// for an entry with an equal key. No two entries in a bucket share a key,
// and the entry count of the Map is the sum of the bucket lengths.
//
// # Growth
//
// Before placing a key, Put compares count/bucketCount against the load
// factor limit. If the ratio has reached the limit the table is rehashed: a
// fresh bucket array of twice the size is allocated, the count is reset and
// every entry of the old array is re-inserted through the same insertion
// path Put uses, which recomputes its index against the new bucket count.
// The old array is then dropped. Because the check happens before the new
// entry is counted, a table can sit exactly at the limit until the next Put
// grows it. For example, with 4 buckets and a limit of 0.75 the 4th Put
// sees 3/4 and grows the table to 8 buckets before placing its key. The
// table never shrinks.
//
// The bucket array's own append-driven doubling is never used by the Map;
// its size is driven solely by the load factor policy above.
//
// # Sequences
//
// The dynarray and linkedlist packages are general purpose sequence
// containers in their own right. Both implement Sequence.
package chaintable

import (
	"fmt"
	"hash/maphash"
	"iter"
	"math"
	"strings"

	"github.com/cockroachdb/chaintable/dynarray"
	"github.com/cockroachdb/chaintable/internal/errs"
	"github.com/cockroachdb/chaintable/internal/invariants"
	"github.com/cockroachdb/chaintable/linkedlist"
	"github.com/davecgh/go-spew/spew"
)

const (
	debug = false

	// DefaultBuckets is a reasonable initial bucket count for New.
	DefaultBuckets = 16
	// DefaultLoadFactorLimit is the load factor limit used when
	// WithLoadFactorLimit is not specified.
	DefaultLoadFactorLimit = 0.75
)

// dumper renders keys and values in debug output. Pointer addresses are
// omitted so the output is stable across runs.
var dumper = spew.ConfigState{
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// entry holds a key and value. Entries are shared by pointer between a
// bucket and its scans so Put can overwrite the value in place.
type entry[K comparable, V any] struct {
	key   K
	value V
}

type bucket[K comparable, V any] = linkedlist.List[*entry[K, V]]

// Map is an unordered map from keys to values implemented as a chained
// hash table. By default a Map[K,V] hashes keys with ComparableHash, though
// a different hash function can be specified using the WithHash option.
//
// A Map is NOT goroutine-safe. A rehash replaces every bucket at once, so
// concurrent use must be guarded by a lock covering the whole Map.
type Map[K comparable, V any] struct {
	hash func(seed maphash.Seed, key K) uint64
	seed maphash.Seed
	// The ratio of used to bucket count at which Put rehashes.
	loadFactorLimit float64
	// buckets is replaced wholesale by rehash and never resized in place.
	buckets *dynarray.Array[*bucket[K, V]]
	// The number of entries across all buckets.
	used int
}

// New constructs a new Map with the specified number of buckets, which
// must be positive. It returns an error wrapping ErrInvalidArgument if the
// bucket count or the configured load factor limit is invalid.
func New[K comparable, V any](initialBuckets int, options ...option[K, V]) (*Map[K, V], error) {
	m := &Map[K, V]{
		hash:            ComparableHash[K],
		seed:            maphash.MakeSeed(),
		loadFactorLimit: DefaultLoadFactorLimit,
	}
	for _, op := range options {
		op.apply(m)
	}

	if initialBuckets <= 0 {
		return nil, errs.Invalid("bucket count %d must be positive", initialBuckets)
	}
	if !(m.loadFactorLimit > 0) || math.IsInf(m.loadFactorLimit, 0) {
		return nil, errs.Invalid("load factor limit %v must be a positive number", m.loadFactorLimit)
	}
	if m.hash == nil {
		return nil, errs.Invalid("nil hash function")
	}

	m.buckets = makeBuckets[K, V](initialBuckets)
	m.checkInvariants()
	return m, nil
}

// Put inserts an entry into the map, overwriting the value of an existing
// entry with the same key. If an entry was overwritten its previous value
// is returned with replaced=true. Put fails with ErrInvalidArgument, before
// any mutation, if key is a nil interface value.
func (m *Map[K, V]) Put(key K, value V) (prev V, replaced bool, err error) {
	if isNilKey(key) {
		return prev, false, errs.Invalid("put: nil key")
	}

	// The load factor is checked before the key is located, so the table
	// grows even if this Put only overwrites an existing entry.
	if ratio := float64(m.used) / float64(m.buckets.Len()); ratio >= m.loadFactorLimit {
		if debug {
			fmt.Printf("put(%v): ratio=%.3f >= %.3f, rehashing\n", key, ratio, m.loadFactorLimit)
		}
		m.rehash()
	}

	prev, replaced = m.insert(key, value)
	m.checkInvariants()
	return prev, replaced, nil
}

// Get retrieves the value from the map for the specified key, returning
// ok=false if the key is not present. Get never resizes the map.
func (m *Map[K, V]) Get(key K) (value V, ok bool) {
	if e := m.find(key); e != nil {
		return e.value, true
	}
	return value, false
}

// ContainsKey reports whether key is present.
func (m *Map[K, V]) ContainsKey(key K) bool {
	return m.find(key) != nil
}

// GetIfAbsentPut returns the value for key if present. Otherwise it calls
// supplier with key, puts the result and returns it. The supplier is only
// called on a miss, and at most once.
func (m *Map[K, V]) GetIfAbsentPut(key K, supplier func(key K) V) (V, error) {
	if isNilKey(key) {
		var zero V
		return zero, errs.Invalid("getIfAbsentPut: nil key")
	}
	if v, ok := m.Get(key); ok {
		return v, nil
	}
	v := supplier(key)
	if _, _, err := m.Put(key, v); err != nil {
		var zero V
		return zero, err
	}
	return v, nil
}

// RemoveKey deletes the entry for key and returns its value. It returns an
// error wrapping ErrKeyNotFound if the key is not present.
func (m *Map[K, V]) RemoveKey(key K) (V, error) {
	if v, ok := m.remove(key); ok {
		return v, nil
	}
	var zero V
	return zero, errs.NotFound("removeKey", key)
}

// RemoveKeyIfAbsent deletes the entry for key and returns its value. If the
// key is not present the value produced by supplier is returned instead.
func (m *Map[K, V]) RemoveKeyIfAbsent(key K, supplier func() V) V {
	if v, ok := m.remove(key); ok {
		return v
	}
	return supplier()
}

// Keys returns a new array holding every key, ordered by bucket index and
// then by position within the bucket. The order is unspecified but
// deterministic for a given table state.
func (m *Map[K, V]) Keys() *dynarray.Array[K] {
	keys := dynarray.WithCapacity[K](m.used)
	for k := range m.All() {
		keys.AppendBack(k)
	}
	return keys
}

// Values returns a new array holding every value, in the same order as
// Keys.
func (m *Map[K, V]) Values() *dynarray.Array[V] {
	values := dynarray.WithCapacity[V](m.used)
	for _, v := range m.All() {
		values.AppendBack(v)
	}
	return values
}

// All yields every key and value present in the map, in the same order as
// Keys. Mutating the map during iteration is not supported.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(key K, value V) bool) {
		for b := range m.buckets.All() {
			for e := range b.All() {
				if !yield(e.key, e.value) {
					return
				}
			}
		}
	}
}

// Len returns the number of entries in the map.
func (m *Map[K, V]) Len() int {
	return m.used
}

// IsEmpty reports whether the map has no entries.
func (m *Map[K, V]) IsEmpty() bool {
	return m.used == 0
}

// BucketCount returns the current number of buckets.
func (m *Map[K, V]) BucketCount() int {
	return m.buckets.Len()
}

// LoadFactor returns the current ratio of entries to buckets.
func (m *Map[K, V]) LoadFactor() float64 {
	return float64(m.used) / float64(m.buckets.Len())
}

// Clear deletes every entry. The bucket count is retained.
func (m *Map[K, V]) Clear() {
	for b := range m.buckets.All() {
		b.Clear()
	}
	m.used = 0
	m.checkInvariants()
}

// String renders the entries in iteration order:
//
//	{1 = one, 2 = two}
func (m *Map[K, V]) String() string {
	var buf strings.Builder
	buf.WriteByte('{')
	sep := ""
	for k, v := range m.All() {
		fmt.Fprintf(&buf, "%s%v = %v", sep, k, v)
		sep = ", "
	}
	buf.WriteByte('}')
	return buf.String()
}

// bucket returns the bucket that key belongs in, and its index.
func (m *Map[K, V]) bucket(key K) (*bucket[K, V], int) {
	i := reduce(m.hash(m.seed, key), m.buckets.Len())
	b, err := m.buckets.Get(i)
	if err != nil {
		// reduce always returns an index in [0, BucketCount()).
		panic(err)
	}
	return b, i
}

func (m *Map[K, V]) find(key K) *entry[K, V] {
	b, i := m.bucket(key)
	if debug {
		fmt.Printf("find(%v): bucket=%d len=%d\n", key, i, b.Len())
	}
	for e := range b.All() {
		if e.key == key {
			return e
		}
	}
	return nil
}

// insert places key in its bucket, overwriting the value of an existing
// entry. It does not consult the load factor. Both Put and rehash go
// through here.
func (m *Map[K, V]) insert(key K, value V) (prev V, replaced bool) {
	b, i := m.bucket(key)
	for e := range b.All() {
		if e.key == key {
			if debug {
				fmt.Printf("insert(updating): bucket=%d key=%v\n", i, key)
			}
			prev, e.value = e.value, value
			return prev, true
		}
	}
	if debug {
		fmt.Printf("insert(appending): bucket=%d key=%v\n", i, key)
	}
	b.AddLast(&entry[K, V]{key: key, value: value})
	m.used++
	return prev, false
}

func (m *Map[K, V]) remove(key K) (value V, ok bool) {
	b, i := m.bucket(key)
	e, ok := b.RemoveFirstMatching(func(e *entry[K, V]) bool {
		return e.key == key
	})
	if !ok {
		if debug {
			fmt.Printf("remove(not-found): bucket=%d key=%v\n", i, key)
		}
		return value, false
	}
	if debug {
		fmt.Printf("remove(%v): bucket=%d used=%d\n", key, i, m.used-1)
	}
	m.used--
	m.checkInvariants()
	return e.value, true
}

// rehash doubles the bucket count. It allocates a new bucket array and
// re-inserts each entry of the old one, then discards the old array.
func (m *Map[K, V]) rehash() {
	old := m.buckets
	newCount := 2 * old.Len()
	if debug {
		fmt.Printf("rehash: buckets %d -> %d used=%d\n", old.Len(), newCount, m.used)
	}

	m.buckets = makeBuckets[K, V](newCount)
	m.used = 0
	for b := range old.All() {
		for e := range b.All() {
			m.insert(e.key, e.value)
		}
	}
	m.checkInvariants()
}

func makeBuckets[K comparable, V any](n int) *dynarray.Array[*bucket[K, V]] {
	buckets := dynarray.WithCapacity[*bucket[K, V]](n)
	for i := 0; i < n; i++ {
		buckets.AppendBack(linkedlist.New[*entry[K, V]]())
	}
	return buckets
}

// isNilKey reports whether key is a nil interface value, which stands in
// for an absent key.
func isNilKey[K comparable](key K) bool {
	return any(key) == nil
}

func (m *Map[K, V]) checkInvariants() {
	if invariants.Enabled {
		var used int
		i := 0
		for b := range m.buckets.All() {
			seen := make(map[K]struct{}, b.Len())
			for e := range b.All() {
				if _, dup := seen[e.key]; dup {
					panic(fmt.Sprintf("invariant failed: bucket(%d): duplicate key %v\n%s",
						i, e.key, m.debugString()))
				}
				seen[e.key] = struct{}{}
				if j := reduce(m.hash(m.seed, e.key), m.buckets.Len()); j != i {
					panic(fmt.Sprintf("invariant failed: bucket(%d): key %v belongs in bucket %d\n%s",
						i, e.key, j, m.debugString()))
				}
			}
			used += b.Len()
			i++
		}
		if used != m.used {
			panic(fmt.Sprintf("invariant failed: found %d entries, but used count is %d\n%s",
				used, m.used, m.debugString()))
		}
	}
}

func (m *Map[K, V]) debugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "buckets=%d  used=%d  load-factor-limit=%.3f\n",
		m.buckets.Len(), m.used, m.loadFactorLimit)
	i := 0
	for b := range m.buckets.All() {
		fmt.Fprintf(&buf, "  %4d:", i)
		for e := range b.All() {
			fmt.Fprintf(&buf, " %s=%s", dumper.Sprintf("%v", e.key), dumper.Sprintf("%v", e.value))
		}
		buf.WriteByte('\n')
		i++
	}
	return buf.String()
}
