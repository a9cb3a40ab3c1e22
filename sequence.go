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
	"iter"

	"github.com/cockroachdb/chaintable/dynarray"
	"github.com/cockroachdb/chaintable/linkedlist"
)

// Sequence is the indexed contract shared by dynarray.Array and
// linkedlist.List. Indexes are zero based. Get, Set and RemoveAt accept
// [0, Len()) and InsertAt accepts [0, Len()]; anything else fails with an
// *IndexError wrapping ErrOutOfRange. First and Last fail with ErrEmpty on
// an empty sequence.
type Sequence[T any] interface {
	Len() int
	IsEmpty() bool
	Get(index int) (T, error)
	Set(index int, value T) (T, error)
	First() (T, error)
	Last() (T, error)
	InsertAt(index int, value T) error
	RemoveAt(index int) (T, error)
	FindFirst(pred func(T) bool) (int, bool)
	RemoveFirstMatching(pred func(T) bool) (T, bool)
	AppendAll(seq iter.Seq[T])
	Clear()
	All() iter.Seq[T]
	ToSlice() []T
	String() string
}

var (
	_ Sequence[int] = (*dynarray.Array[int])(nil)
	_ Sequence[int] = (*linkedlist.List[int])(nil)
)
