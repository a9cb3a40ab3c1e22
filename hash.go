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
	"hash/maphash"

	"golang.org/x/exp/constraints"
)

// ComparableHash is the default hash function. It hashes keys the same way
// Go's builtin map does, so it accepts any comparable K and panics for an
// interface key whose dynamic type is not comparable.
func ComparableHash[K comparable](seed maphash.Seed, key K) uint64 {
	return maphash.Comparable(seed, key)
}

// StringHash hashes string keys.
func StringHash(seed maphash.Seed, key string) uint64 {
	return maphash.String(seed, key)
}

// IntegerHash hashes an integer to its magnitude and ignores the seed. The
// resulting bucket layout is fully determined by the keys and the bucket
// count, which makes it useful for tests and for dense integer key spaces.
func IntegerHash[K constraints.Integer](_ maphash.Seed, key K) uint64 {
	if key < 0 {
		// Two's complement negation. For the minimum value this yields
		// 1<<(bits-1), which is the correct magnitude as an unsigned.
		return -uint64(int64(key))
	}
	return uint64(key)
}

// reduce maps hash h to a bucket index in [0, n). n must be positive.
func reduce(h uint64, n int) int {
	return int(h % uint64(n))
}
