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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidListing indicates a Listing failed validation.
	ErrInvalidListing = errors.New("invalid listing")

	// ErrInvalidProfile indicates a Profile failed validation.
	ErrInvalidProfile = errors.New("invalid profile")

	// ErrEmptyTitle indicates the listing Title field is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrMissingDeadline indicates the listing has no ApplyBefore timestamp.
	ErrMissingDeadline = errors.New("apply-before deadline is required")

	// ErrInvalidCapacity indicates a negative capacity.
	ErrInvalidCapacity = errors.New("capacity cannot be negative")

	// ErrInvalidSalaryRange indicates SalaryFrom is greater than SalaryTo.
	ErrInvalidSalaryRange = errors.New("salary range is inverted")

	// ErrEmptyName indicates a category or skill name is empty.
	ErrEmptyName = errors.New("name cannot be empty")

	// ErrInvalidTermKind indicates an unknown taxonomy kind.
	ErrInvalidTermKind = errors.New("invalid term kind")
)
