package core

import "time"

// IsEligible reports whether a listing is open for applications at now:
// the deadline has not passed and capacity, when set, is not exhausted.
// Search, filter and recommendation all use this single definition.
func IsEligible(listing *Listing, now time.Time) bool {
	if listing == nil {
		return false
	}
	if now.After(listing.ApplyBefore) {
		return false
	}
	if listing.Capacity != nil && listing.ApplicationCount >= *listing.Capacity {
		return false
	}
	return true
}

// FilterEligible returns the listings eligible at now, preserving order.
func FilterEligible(listings []*Listing, now time.Time) []*Listing {
	result := make([]*Listing, 0, len(listings))
	for _, l := range listings {
		if IsEligible(l, now) {
			result = append(result, l)
		}
	}
	return result
}
