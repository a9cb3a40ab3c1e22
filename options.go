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

import "hash/maphash"

// option provide an interface to do work on Map while it is being created.
type option[K comparable, V any] interface {
	apply(m *Map[K, V])
}

type hashOption[K comparable, V any] struct {
	hash func(seed maphash.Seed, key K) uint64
}

func (op hashOption[K, V]) apply(m *Map[K, V]) {
	m.hash = op.hash
}

// WithHash is an option to specify the hash function to use for a Map[K,V].
// Keys that compare equal must hash to the same value for every seed.
func WithHash[K comparable, V any](hash func(seed maphash.Seed, key K) uint64) option[K, V] {
	return hashOption[K, V]{hash}
}

type seedOption[K comparable, V any] struct {
	seed maphash.Seed
}

func (op seedOption[K, V]) apply(m *Map[K, V]) {
	m.seed = op.seed
}

// WithSeed is an option to specify the seed passed to the hash function.
// Two maps with the same seed, hash function and bucket count place keys in
// the same buckets. By default every Map gets a fresh random seed.
func WithSeed[K comparable, V any](seed maphash.Seed) option[K, V] {
	return seedOption[K, V]{seed}
}

type loadFactorOption[K comparable, V any] struct {
	limit float64
}

func (op loadFactorOption[K, V]) apply(m *Map[K, V]) {
	m.loadFactorLimit = op.limit
}

// WithLoadFactorLimit is an option to specify the ratio of entries to
// buckets at which a Map doubles its bucket count. The limit must be
// positive. The default is DefaultLoadFactorLimit.
func WithLoadFactorLimit[K comparable, V any](limit float64) option[K, V] {
	return loadFactorOption[K, V]{limit}
}
