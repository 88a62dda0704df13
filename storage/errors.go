// Copyright 2025 Poiesic Systems
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


package storage

import "errors"

// Errors shared by every backend. Backends wrap them with the offending
// entity, so callers match with errors.Is.
var (
	// ErrNotFound means no listing, profile or term has the requested key.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey means a unique key is taken, e.g. a second profile
	// for the same owner.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrStorageClosed is returned after the backend has been closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrInvalidRecord means a write was rejected before reaching storage:
	// an empty vector or a profile changing owner.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrSerializationFailed wraps codec failures for stored values.
	ErrSerializationFailed = errors.New("serialization failed")

	// ErrTruncatedData means an encoded value ended early or declared a
	// length longer than its input.
	ErrTruncatedData = errors.New("truncated data")
)
