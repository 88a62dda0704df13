package core

import (
	"testing"
	"time"
)

func intPtr(v int) *int { return &v }

func TestIsEligible(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		listing *Listing
		want    bool
	}{
		{
			name:    "open without capacity",
			listing: &Listing{ApplyBefore: now.Add(24 * time.Hour)},
			want:    true,
		},
		{
			name:    "deadline equal to now is still open",
			listing: &Listing{ApplyBefore: now},
			want:    true,
		},
		{
			name:    "expired yesterday",
			listing: &Listing{ApplyBefore: now.Add(-24 * time.Hour)},
			want:    false,
		},
		{
			name:    "expired with spare capacity",
			listing: &Listing{ApplyBefore: now.Add(-time.Second), Capacity: intPtr(10), ApplicationCount: 1},
			want:    false,
		},
		{
			name:    "capacity not reached",
			listing: &Listing{ApplyBefore: now.Add(time.Hour), Capacity: intPtr(3), ApplicationCount: 2},
			want:    true,
		},
		{
			name:    "capacity reached",
			listing: &Listing{ApplyBefore: now.Add(time.Hour), Capacity: intPtr(3), ApplicationCount: 3},
			want:    false,
		},
		{
			name:    "zero capacity is full",
			listing: &Listing{ApplyBefore: now.Add(time.Hour), Capacity: intPtr(0)},
			want:    false,
		},
		{
			name:    "unset capacity ignores application count",
			listing: &Listing{ApplyBefore: now.Add(time.Hour), ApplicationCount: 1000},
			want:    true,
		},
		{
			name:    "nil listing",
			listing: nil,
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsEligible(tt.listing, now); got != tt.want {
				t.Errorf("IsEligible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterEligible(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	open1 := &Listing{Id: 1, ApplyBefore: now.Add(time.Hour)}
	closed := &Listing{Id: 2, ApplyBefore: now.Add(-time.Hour)}
	open2 := &Listing{Id: 3, ApplyBefore: now.Add(2 * time.Hour)}

	got := FilterEligible([]*Listing{open1, closed, open2}, now)
	if len(got) != 2 || got[0].Id != 1 || got[1].Id != 3 {
		t.Errorf("FilterEligible() returned unexpected listings: %+v", got)
	}
}
