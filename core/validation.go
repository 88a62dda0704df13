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

import (
	"fmt"
	"strings"
)

// ValidateListing validates a Listing according to domain rules.
//
// Validation rules:
//   - Title must not be empty
//   - ApplyBefore must be set
//   - Capacity, when set, must not be negative
//   - SalaryFrom must not exceed SalaryTo when both are set
//
// NOT validated (maintained elsewhere):
//   - ApplicationCount (owned by the applications service)
//   - ID (0 is valid before the listing is stored)
func ValidateListing(listing *Listing) error {
	if listing == nil {
		return fmt.Errorf("%w: listing is nil", ErrInvalidListing)
	}

	if strings.TrimSpace(listing.Title) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidListing, ErrEmptyTitle)
	}

	if listing.ApplyBefore.IsZero() {
		return fmt.Errorf("%w: %w", ErrInvalidListing, ErrMissingDeadline)
	}

	if listing.Capacity != nil && *listing.Capacity < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidListing, ErrInvalidCapacity)
	}

	if listing.SalaryFrom != nil && listing.SalaryTo != nil && *listing.SalaryFrom > *listing.SalaryTo {
		return fmt.Errorf("%w: %w", ErrInvalidListing, ErrInvalidSalaryRange)
	}

	for _, name := range listing.Categories {
		if err := ValidateTermName(name); err != nil {
			return fmt.Errorf("%w: category: %w", ErrInvalidListing, err)
		}
	}
	for _, name := range listing.Skills {
		if err := ValidateTermName(name); err != nil {
			return fmt.Errorf("%w: skill: %w", ErrInvalidListing, err)
		}
	}

	return nil
}

// ValidateProfile validates a Profile according to domain rules.
// An empty skill set is valid.
func ValidateProfile(profile *Profile) error {
	if profile == nil {
		return fmt.Errorf("%w: profile is nil", ErrInvalidProfile)
	}
	for _, name := range profile.Skills {
		if err := ValidateTermName(name); err != nil {
			return fmt.Errorf("%w: skill: %w", ErrInvalidProfile, err)
		}
	}
	return nil
}

// ValidateTermName rejects blank category and skill names.
func ValidateTermName(name string) error {
	if FoldName(name) == "" {
		return ErrEmptyName
	}
	return nil
}

// ValidateTermKind validates that a TermKind has a known value.
func ValidateTermKind(kind TermKind) error {
	if kind != TermCategory && kind != TermSkill {
		return fmt.Errorf("%w: %q", ErrInvalidTermKind, kind)
	}
	return nil
}

// DedupeNames removes names that are equal ignoring case, keeping the first
// occurrence and its casing. Surrounding whitespace is trimmed.
func DedupeNames(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(names))
	result := make([]string, 0, len(names))
	for _, name := range names {
		folded := FoldName(name)
		if folded == "" {
			continue
		}
		if _, ok := seen[folded]; ok {
			continue
		}
		seen[folded] = struct{}{}
		result = append(result, strings.TrimSpace(name))
	}
	return result
}
