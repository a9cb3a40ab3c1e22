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

// Package linkedlist provides List, a doubly linked list with indexed
// access.
//
// Insertion and removal at either end are O(1). Indexed access walks from
// whichever end of the list is closer to the index, so it costs at most
// Len()/2 steps.
//
// Nodes are not individually heap allocated. They live in an arena owned by
// the List and refer to each other by handle (a 1-based position in the
// arena) instead of by pointer, so relinking can never leave a dangling
// reference to memory owned by someone else. Removed nodes are threaded onto
// a free chain and reused by later insertions.
package linkedlist

import (
	"fmt"
	"iter"
	"strings"

	"github.com/cockroachdb/chaintable/internal/errs"
	"github.com/cockroachdb/chaintable/internal/invariants"
)

var (
	// ErrOutOfRange is the kind of error returned for bad index arguments.
	// The concrete error is an *IndexError.
	ErrOutOfRange = errs.OutOfRange
	// ErrEmpty is returned by operations that need at least one element.
	ErrEmpty = errs.Empty
)

// IndexError describes the offending index of a failed operation.
type IndexError = errs.IndexError

// handle identifies a node in the arena. The zero handle is "no node", which
// makes the zero List usable.
type handle int

const none handle = 0

type node[T any] struct {
	value T
	prev  handle
	next  handle
}

// List is a doubly linked list of T. The zero value is an empty List ready
// to use.
//
// A List is NOT goroutine-safe.
type List[T any] struct {
	// nodes is the arena. Handle h refers to nodes[h-1].
	nodes []node[T]
	// free is the first node of the chain of released nodes, linked through
	// node.next.
	free   handle
	head   handle
	tail   handle
	length int
}

// New returns an empty List.
func New[T any]() *List[T] {
	return &List[T]{}
}

// From returns a List holding values in order.
func From[T any](values ...T) *List[T] {
	l := &List[T]{nodes: make([]node[T], 0, len(values))}
	for _, v := range values {
		l.AddLast(v)
	}
	return l
}

// Len returns the number of elements in the list.
func (l *List[T]) Len() int {
	return l.length
}

// IsEmpty reports whether the list has no elements.
func (l *List[T]) IsEmpty() bool {
	return l.head == none
}

// Get returns the element at index.
func (l *List[T]) Get(index int) (T, error) {
	if err := l.checkIndex("get", index); err != nil {
		var zero T
		return zero, err
	}
	return l.at(l.nodeAt(index)).value, nil
}

// Set replaces the element at index with value and returns the element it
// replaced.
func (l *List[T]) Set(index int, value T) (T, error) {
	if err := l.checkIndex("set", index); err != nil {
		var zero T
		return zero, err
	}
	n := l.at(l.nodeAt(index))
	old := n.value
	n.value = value
	return old, nil
}

// First returns the first element.
func (l *List[T]) First() (T, error) {
	if l.head == none {
		var zero T
		return zero, errs.EmptyContainer("first")
	}
	return l.at(l.head).value, nil
}

// Last returns the last element.
func (l *List[T]) Last() (T, error) {
	if l.tail == none {
		var zero T
		return zero, errs.EmptyContainer("last")
	}
	return l.at(l.tail).value, nil
}

// AddFirst inserts value before the first element.
func (l *List[T]) AddFirst(value T) {
	l.linkBefore(l.head, value)
}

// AddLast inserts value after the last element.
func (l *List[T]) AddLast(value T) {
	l.linkBefore(none, value)
}

// AppendAll adds every element produced by seq to the end of the list, in
// order.
func (l *List[T]) AppendAll(seq iter.Seq[T]) {
	for v := range seq {
		l.AddLast(v)
	}
}

// InsertAt inserts value so that it ends up at index. Valid indexes are
// [0, Len()]; inserting at Len() appends.
func (l *List[T]) InsertAt(index int, value T) error {
	if index < 0 || index > l.length {
		return errs.Index("insertAt", index, l.length)
	}
	if index == l.length {
		l.AddLast(value)
	} else {
		l.linkBefore(l.nodeAt(index), value)
	}
	return nil
}

// RemoveFirst removes and returns the first element.
func (l *List[T]) RemoveFirst() (T, error) {
	if l.head == none {
		var zero T
		return zero, errs.EmptyContainer("removeFirst")
	}
	return l.unlink(l.head), nil
}

// RemoveLast removes and returns the last element.
func (l *List[T]) RemoveLast() (T, error) {
	if l.tail == none {
		var zero T
		return zero, errs.EmptyContainer("removeLast")
	}
	return l.unlink(l.tail), nil
}

// RemoveAt removes and returns the element at index.
func (l *List[T]) RemoveAt(index int) (T, error) {
	if err := l.checkIndex("removeAt", index); err != nil {
		var zero T
		return zero, err
	}
	return l.unlink(l.nodeAt(index)), nil
}

// FindFirst returns the index of the first element satisfying pred, or
// ok=false if there is none.
func (l *List[T]) FindFirst(pred func(T) bool) (index int, ok bool) {
	for h := l.head; h != none; h = l.at(h).next {
		if pred(l.at(h).value) {
			return index, true
		}
		index++
	}
	return -1, false
}

// RemoveFirstMatching scans from the head and removes the first element
// satisfying pred, returning it. It returns ok=false, leaving the list
// unchanged, if no element matches.
func (l *List[T]) RemoveFirstMatching(pred func(T) bool) (value T, ok bool) {
	for h := l.head; h != none; h = l.at(h).next {
		if pred(l.at(h).value) {
			return l.unlink(h), true
		}
	}
	return value, false
}

// Slice returns a new List holding the elements in [start, stop). The
// result shares no nodes with l.
func (l *List[T]) Slice(start, stop int) (*List[T], error) {
	if start < 0 || start > l.length {
		return nil, errs.Index("slice", start, l.length)
	}
	if stop < start || stop > l.length {
		return nil, errs.Index("slice", stop, l.length)
	}
	r := &List[T]{nodes: make([]node[T], 0, stop-start)}
	if start == stop {
		return r, nil
	}
	for h, i := l.nodeAt(start), start; i < stop; h, i = l.at(h).next, i+1 {
		r.AddLast(l.at(h).value)
	}
	return r, nil
}

// Clear removes every element. The arena keeps its storage for reuse.
func (l *List[T]) Clear() {
	clear(l.nodes)
	l.nodes = l.nodes[:0]
	l.free, l.head, l.tail = none, none, none
	l.length = 0
}

// All yields the elements from head to tail. Each call starts a fresh
// traversal.
func (l *List[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for h := l.head; h != none; h = l.at(h).next {
			if !yield(l.at(h).value) {
				return
			}
		}
	}
}

// Backward yields the elements from tail to head.
func (l *List[T]) Backward() iter.Seq[T] {
	return func(yield func(T) bool) {
		for h := l.tail; h != none; h = l.at(h).prev {
			if !yield(l.at(h).value) {
				return
			}
		}
	}
}

// ToSlice returns the elements from head to tail as a Go slice.
func (l *List[T]) ToSlice() []T {
	r := make([]T, 0, l.length)
	for v := range l.All() {
		r = append(r, v)
	}
	return r
}

// String renders every element followed by the length:
//
//	[1 2 3] (size=3)
func (l *List[T]) String() string {
	return fmt.Sprintf("%v (size=%d)", l.ToSlice(), l.length)
}

func (l *List[T]) at(h handle) *node[T] {
	return &l.nodes[h-1]
}

func (l *List[T]) checkIndex(op string, index int) error {
	if index < 0 || index >= l.length {
		return errs.Index(op, index, l.length)
	}
	return nil
}

// nodeAt returns the node at a valid index, walking from the head if the
// index is in the front half and from the tail otherwise.
func (l *List[T]) nodeAt(index int) handle {
	if index < l.length-1-index {
		h := l.head
		for i := 0; i < index; i++ {
			h = l.at(h).next
		}
		return h
	}
	h := l.tail
	for i := l.length - 1; i > index; i-- {
		h = l.at(h).prev
	}
	return h
}

// alloc takes a node from the free chain, or grows the arena if the chain
// is empty.
func (l *List[T]) alloc(value T, prev, next handle) handle {
	var h handle
	if l.free != none {
		h = l.free
		l.free = l.at(h).next
	} else {
		l.nodes = append(l.nodes, node[T]{})
		h = handle(len(l.nodes))
	}
	*l.at(h) = node[T]{value: value, prev: prev, next: next}
	return h
}

// release zeroes the node, dropping its value, and pushes it onto the free
// chain.
func (l *List[T]) release(h handle) {
	*l.at(h) = node[T]{next: l.free}
	l.free = h
}

// linkBefore inserts value before node at. If at is none the value becomes
// the new tail.
func (l *List[T]) linkBefore(at handle, value T) {
	var prev handle
	if at == none {
		prev = l.tail
	} else {
		prev = l.at(at).prev
	}
	h := l.alloc(value, prev, at)
	if prev == none {
		l.head = h
	} else {
		l.at(prev).next = h
	}
	if at == none {
		l.tail = h
	} else {
		l.at(at).prev = h
	}
	l.length++
	l.checkInvariants()
}

// unlink removes node h, fixing up head and tail if h was an end, and
// returns its value.
func (l *List[T]) unlink(h handle) T {
	n := l.at(h)
	value, prev, next := n.value, n.prev, n.next
	if prev == none {
		l.head = next
	} else {
		l.at(prev).next = next
	}
	if next == none {
		l.tail = prev
	} else {
		l.at(next).prev = prev
	}
	l.release(h)
	l.length--
	l.checkInvariants()
	return value
}

func (l *List[T]) checkInvariants() {
	if invariants.Enabled {
		if (l.head == none) != (l.tail == none) || (l.head == none) != (l.length == 0) {
			panic(fmt.Sprintf("invariant failed: head=%d tail=%d length=%d\n%s",
				l.head, l.tail, l.length, l.debugString()))
		}
		var steps int
		var prev handle
		for h := l.head; h != none; h = l.at(h).next {
			if l.at(h).prev != prev {
				panic(fmt.Sprintf("invariant failed: node %d: prev=%d, expected %d\n%s",
					h, l.at(h).prev, prev, l.debugString()))
			}
			prev = h
			steps++
			if steps > l.length {
				panic(fmt.Sprintf("invariant failed: more than %d nodes reachable from head\n%s",
					l.length, l.debugString()))
			}
		}
		if steps != l.length || prev != l.tail {
			panic(fmt.Sprintf("invariant failed: walked %d nodes ending at %d, expected %d ending at %d\n%s",
				steps, prev, l.length, l.tail, l.debugString()))
		}
		var free int
		for h := l.free; h != none; h = l.at(h).next {
			free++
		}
		if free+l.length != len(l.nodes) {
			panic(fmt.Sprintf("invariant failed: %d free + %d live != %d nodes\n%s",
				free, l.length, len(l.nodes), l.debugString()))
		}
	}
}

func (l *List[T]) debugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "head=%d  tail=%d  free=%d  length=%d\n", l.head, l.tail, l.free, l.length)
	for i := range l.nodes {
		n := &l.nodes[i]
		fmt.Fprintf(&buf, "  %4d: prev=%d next=%d %v\n", i+1, n.prev, n.next, n.value)
	}
	return buf.String()
}
