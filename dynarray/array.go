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

// Package dynarray provides Array, a growable contiguous array.
//
// An Array owns a fixed size backing store of cap elements of which the
// first len are live. Appending to a full Array allocates a store twice as
// large and copies the live elements across, so n appends cost O(n) in
// total. The store is never shrunk. Slots that become unused because an
// element was removed are zeroed so the Array does not retain references to
// removed values.
//
// The backing store is never exposed. Every access goes through the
// operations below, which validate their index arguments and report
// failures as errors rather than panicking.
package dynarray

import (
	"fmt"
	"iter"
	"strings"

	"github.com/cockroachdb/chaintable/internal/errs"
	"github.com/cockroachdb/chaintable/internal/invariants"
)

// DefaultCapacity is the capacity of an Array created by New.
const DefaultCapacity = 20

// maxPrinted is the number of elements String renders before eliding the
// rest.
const maxPrinted = 4

var (
	// ErrOutOfRange is the kind of error returned for bad index arguments.
	// The concrete error is an *IndexError.
	ErrOutOfRange = errs.OutOfRange
	// ErrEmpty is returned by operations that need at least one element.
	ErrEmpty = errs.Empty
)

// IndexError describes the offending index of a failed operation.
type IndexError = errs.IndexError

// Array is a growable array of T. The zero value is an empty Array ready to
// use; its first append allocates DefaultCapacity slots.
//
// An Array is NOT goroutine-safe.
type Array[T any] struct {
	// store is the backing storage. len(store) is the capacity. Slots
	// [length, len(store)) hold the zero value and are never read.
	store  []T
	length int
}

// New returns an empty Array with DefaultCapacity slots.
func New[T any]() *Array[T] {
	return WithCapacity[T](DefaultCapacity)
}

// WithCapacity returns an empty Array with room for capacity elements before
// the first growth. A non-positive capacity defers allocation until the
// first append.
func WithCapacity[T any](capacity int) *Array[T] {
	a := &Array[T]{}
	if capacity > 0 {
		a.store = make([]T, capacity)
	}
	return a
}

// From returns an Array holding values in order.
func From[T any](values ...T) *Array[T] {
	capacity := len(values)
	if capacity < DefaultCapacity {
		capacity = DefaultCapacity
	}
	a := WithCapacity[T](capacity)
	a.length = copy(a.store, values)
	return a
}

// Len returns the number of elements in the array.
func (a *Array[T]) Len() int {
	return a.length
}

// Cap returns the number of elements the array can hold before it grows.
func (a *Array[T]) Cap() int {
	return len(a.store)
}

// IsEmpty reports whether the array has no elements.
func (a *Array[T]) IsEmpty() bool {
	return a.length == 0
}

// Get returns the element at index.
func (a *Array[T]) Get(index int) (T, error) {
	if err := a.checkIndex("get", index); err != nil {
		var zero T
		return zero, err
	}
	return a.store[index], nil
}

// Set replaces the element at index with value and returns the element it
// replaced.
func (a *Array[T]) Set(index int, value T) (T, error) {
	if err := a.checkIndex("set", index); err != nil {
		var zero T
		return zero, err
	}
	old := a.store[index]
	a.store[index] = value
	return old, nil
}

// First returns the first element.
func (a *Array[T]) First() (T, error) {
	if a.length == 0 {
		var zero T
		return zero, errs.EmptyContainer("first")
	}
	return a.store[0], nil
}

// Last returns the last element.
func (a *Array[T]) Last() (T, error) {
	if a.length == 0 {
		var zero T
		return zero, errs.EmptyContainer("last")
	}
	return a.store[a.length-1], nil
}

// InsertAt inserts value at index, shifting the element currently at index
// and everything after it one slot to the right. Valid indexes are
// [0, Len()]; inserting at Len() appends.
func (a *Array[T]) InsertAt(index int, value T) error {
	if index < 0 || index > a.length {
		return errs.Index("insertAt", index, a.length)
	}
	a.grow()
	copy(a.store[index+1:a.length+1], a.store[index:a.length])
	a.store[index] = value
	a.length++
	a.checkInvariants()
	return nil
}

// AppendFront inserts value before the first element.
func (a *Array[T]) AppendFront(value T) {
	// Index 0 is always valid for InsertAt.
	_ = a.InsertAt(0, value)
}

// AppendBack adds value after the last element. It is amortized O(1).
func (a *Array[T]) AppendBack(value T) {
	a.grow()
	a.store[a.length] = value
	a.length++
	a.checkInvariants()
}

// AppendAll appends every element produced by seq, in order.
func (a *Array[T]) AppendAll(seq iter.Seq[T]) {
	for v := range seq {
		a.AppendBack(v)
	}
}

// RemoveAt removes and returns the element at index, shifting everything
// after it one slot to the left.
func (a *Array[T]) RemoveAt(index int) (T, error) {
	if err := a.checkIndex("removeAt", index); err != nil {
		var zero T
		return zero, err
	}
	return a.removeAt(index), nil
}

// RemoveFront removes and returns the first element.
func (a *Array[T]) RemoveFront() (T, error) {
	if a.length == 0 {
		var zero T
		return zero, errs.EmptyContainer("removeFront")
	}
	return a.removeAt(0), nil
}

// RemoveBack removes and returns the last element.
func (a *Array[T]) RemoveBack() (T, error) {
	if a.length == 0 {
		var zero T
		return zero, errs.EmptyContainer("removeBack")
	}
	return a.removeAt(a.length - 1), nil
}

// FindFirst returns the index of the first element satisfying pred, or
// ok=false if there is none.
func (a *Array[T]) FindFirst(pred func(T) bool) (index int, ok bool) {
	for i := 0; i < a.length; i++ {
		if pred(a.store[i]) {
			return i, true
		}
	}
	return -1, false
}

// RemoveFirstMatching removes and returns the first element satisfying
// pred, or ok=false if there is none.
func (a *Array[T]) RemoveFirstMatching(pred func(T) bool) (value T, ok bool) {
	i, ok := a.FindFirst(pred)
	if !ok {
		return value, false
	}
	return a.removeAt(i), true
}

// Slice returns a new Array holding the elements in [start, stop). The
// result shares no storage with a.
func (a *Array[T]) Slice(start, stop int) (*Array[T], error) {
	if start < 0 || start > a.length {
		return nil, errs.Index("slice", start, a.length)
	}
	if stop < start || stop > a.length {
		return nil, errs.Index("slice", stop, a.length)
	}
	return From(a.store[start:stop]...), nil
}

// Clear removes every element. The capacity is retained.
func (a *Array[T]) Clear() {
	clear(a.store[:a.length])
	a.length = 0
}

// All yields the elements from first to last.
func (a *Array[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := 0; i < a.length; i++ {
			if !yield(a.store[i]) {
				return
			}
		}
	}
}

// ToSlice returns a copy of the elements as a Go slice.
func (a *Array[T]) ToSlice() []T {
	r := make([]T, a.length)
	copy(r, a.store[:a.length])
	return r
}

// String renders the first few elements, eliding the rest:
//
//	[10 20 30 40 50]... (size=8)
func (a *Array[T]) String() string {
	if a.length <= maxPrinted {
		return fmt.Sprint(a.store[:a.length])
	}
	var buf strings.Builder
	fmt.Fprint(&buf, a.store[:maxPrinted+1])
	fmt.Fprintf(&buf, "... (size=%d)", a.length)
	return buf.String()
}

func (a *Array[T]) checkIndex(op string, index int) error {
	if index < 0 || index >= a.length {
		return errs.Index(op, index, a.length)
	}
	return nil
}

// grow makes room for one more element, doubling the store if it is full.
func (a *Array[T]) grow() {
	if a.length < len(a.store) {
		return
	}
	newCap := 2 * len(a.store)
	if newCap == 0 {
		newCap = DefaultCapacity
	}
	store := make([]T, newCap)
	copy(store, a.store[:a.length])
	a.store = store
}

// removeAt removes the element at a valid index and zeroes the vacated tail
// slot.
func (a *Array[T]) removeAt(index int) T {
	v := a.store[index]
	copy(a.store[index:a.length-1], a.store[index+1:a.length])
	a.length--
	var zero T
	a.store[a.length] = zero
	a.checkInvariants()
	return v
}

func (a *Array[T]) checkInvariants() {
	if invariants.Enabled {
		if a.length < 0 || a.length > len(a.store) {
			panic(fmt.Sprintf("invariant failed: length=%d capacity=%d", a.length, len(a.store)))
		}
	}
}
