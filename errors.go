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

import "github.com/cockroachdb/chaintable/internal/errs"

// The error taxonomy. Every error returned by this module wraps one of these
// and can be tested with errors.Is. Errors from the dynarray and linkedlist
// packages use the same values.
var (
	// ErrOutOfRange is wrapped by index failures, which are *IndexError.
	ErrOutOfRange = errs.OutOfRange
	// ErrEmpty is returned by operations that need at least one element.
	ErrEmpty = errs.Empty
	// ErrInvalidArgument is returned for nil keys and invalid construction
	// parameters.
	ErrInvalidArgument = errs.InvalidArgument
	// ErrKeyNotFound is returned by RemoveKey for an absent key.
	ErrKeyNotFound = errs.KeyNotFound
)

// IndexError describes the operation, offending index and container length
// of an out of range failure. Use errors.As to extract it.
type IndexError = errs.IndexError
