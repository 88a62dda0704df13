package api

import (
	"time"

	"github.com/poiesic/jobmatch/core"
)

// Listing is the JSON shape of a job listing.
type Listing struct {
	ID               uint64    `json:"jobId"`
	OwnerID          uint64    `json:"userId"`
	Title            string    `json:"title"`
	Company          string    `json:"company"`
	City             string    `json:"city,omitempty"`
	Country          string    `json:"country,omitempty"`
	Type             string    `json:"type,omitempty"`
	Description      string    `json:"description,omitempty"`
	Responsibilities string    `json:"responsibilities,omitempty"`
	WhoYouAre        string    `json:"whoYouAre,omitempty"`
	NiceToHaves      string    `json:"niceToHaves,omitempty"`
	Keywords         string    `json:"keywords,omitempty"`
	Capacity         *int      `json:"capacity"`
	ApplicationsSent int       `json:"applicationSent"`
	ApplyBefore      time.Time `json:"applyBefore"`
	PostedOn         time.Time `json:"jobPostedOn"`
	SalaryFrom       *float64  `json:"salaryFrom"`
	SalaryTo         *float64  `json:"salaryTo"`
	Categories       []string  `json:"categories"`
	Skills           []string  `json:"skills"`
}

func toListing(l *core.Listing) Listing {
	return Listing{
		ID:               uint64(l.Id),
		OwnerID:          uint64(l.OwnerId),
		Title:            l.Title,
		Company:          l.Company,
		City:             l.City,
		Country:          l.Country,
		Type:             l.Type,
		Description:      l.Description,
		Responsibilities: l.Responsibilities,
		WhoYouAre:        l.WhoYouAre,
		NiceToHaves:      l.NiceToHaves,
		Keywords:         l.Keywords,
		Capacity:         l.Capacity,
		ApplicationsSent: l.ApplicationCount,
		ApplyBefore:      l.ApplyBefore,
		PostedOn:         l.PostedOn,
		SalaryFrom:       l.SalaryFrom,
		SalaryTo:         l.SalaryTo,
		Categories:       nonNil(l.Categories),
		Skills:           nonNil(l.Skills),
	}
}

// ToCore converts the JSON shape back into a listing. Timestamps managed by
// storage are left zero.
func (l Listing) ToCore() *core.Listing {
	return &core.Listing{
		Id:               core.ID(l.ID),
		OwnerId:          core.ID(l.OwnerID),
		Title:            l.Title,
		Company:          l.Company,
		City:             l.City,
		Country:          l.Country,
		Type:             l.Type,
		Description:      l.Description,
		Responsibilities: l.Responsibilities,
		WhoYouAre:        l.WhoYouAre,
		NiceToHaves:      l.NiceToHaves,
		Keywords:         l.Keywords,
		Capacity:         l.Capacity,
		ApplicationCount: l.ApplicationsSent,
		ApplyBefore:      l.ApplyBefore,
		PostedOn:         l.PostedOn,
		SalaryFrom:       l.SalaryFrom,
		SalaryTo:         l.SalaryTo,
		Categories:       l.Categories,
		Skills:           l.Skills,
	}
}

// ToListings converts listings to their JSON shape.
func ToListings(listings []*core.Listing) []Listing {
	return toListings(listings)
}

func toListings(listings []*core.Listing) []Listing {
	result := make([]Listing, len(listings))
	for i, l := range listings {
		result[i] = toListing(l)
	}
	return result
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
