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

// Package errs holds the error taxonomy shared by the containers. The
// public packages re-export these values so that errors.Is works no matter
// which container produced the error.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// OutOfRange is the kind of every index failure. The concrete error is
	// always an *IndexError.
	OutOfRange = errors.New("index out of range")
	// Empty is returned by operations that need at least one element.
	Empty = errors.New("container is empty")
	// InvalidArgument is returned for nil keys and bad construction
	// parameters.
	InvalidArgument = errors.New("invalid argument")
	// KeyNotFound is returned by mandatory removals of an absent key.
	KeyNotFound = errors.New("key not found")
)

// IndexError describes an index argument that fell outside the valid range
// for Op. Len is the container length at the time of the call.
type IndexError struct {
	Op    string
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s: index %d out of range [0:%d]", e.Op, e.Index, e.Len)
}

// Unwrap makes errors.Is(err, OutOfRange) hold for every IndexError.
func (e *IndexError) Unwrap() error {
	return OutOfRange
}

// Index returns an *IndexError annotated with the caller's stack.
func Index(op string, index, length int) error {
	return errors.WithStack(&IndexError{Op: op, Index: index, Len: length})
}

// EmptyContainer wraps Empty with the name of the failing operation.
func EmptyContainer(op string) error {
	return errors.Wrap(Empty, op)
}

// Invalid wraps InvalidArgument with a formatted reason.
func Invalid(format string, args ...interface{}) error {
	return errors.Wrapf(InvalidArgument, format, args...)
}

// NotFound wraps KeyNotFound with the offending key.
func NotFound(op string, key interface{}) error {
	return errors.Wrapf(KeyNotFound, "%s: key %v", op, key)
}
