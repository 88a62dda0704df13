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


package search

import "errors"

var (
	// ErrListingRepositoryRequired is returned when a listing repository is not provided.
	ErrListingRepositoryRequired = errors.New("listing repository required")

	// ErrTaxonomyRepositoryRequired is returned when a taxonomy repository is not provided.
	ErrTaxonomyRepositoryRequired = errors.New("taxonomy repository required")

	// ErrEmptyKeyword is returned by KeywordSearch when the keyword has no tokens.
	ErrEmptyKeyword = errors.New("keyword required")

	// ErrInvalidPagination is returned for a negative skip or a limit below 1.
	ErrInvalidPagination = errors.New("invalid pagination")
)
