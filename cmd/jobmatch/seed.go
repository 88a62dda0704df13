package main

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"math/rand/v2"
	"os"
	"time"

	"github.com/poiesic/jobmatch"
	"github.com/poiesic/jobmatch/core"
	"github.com/poiesic/jobmatch/storage"
	"github.com/urfave/cli/v2"
)

type role struct {
	title      string
	category   string
	skills     []string
	niceToHave string
}

var roles = []role{
	{"Backend Engineer", "Engineering", []string{"Go", "PostgreSQL", "gRPC"}, "Kubernetes"},
	{"Frontend Developer", "Engineering", []string{"TypeScript", "React", "CSS"}, "Accessibility audits"},
	{"Data Engineer", "Data", []string{"Python", "SQL", "Airflow"}, "Spark"},
	{"Machine Learning Engineer", "Data", []string{"Python", "PyTorch", "MLOps"}, "Vector databases"},
	{"Site Reliability Engineer", "Operations", []string{"Linux", "Terraform", "Prometheus"}, "On-call leadership"},
	{"Product Designer", "Design", []string{"Figma", "User Research", "Prototyping"}, "Design systems"},
	{"Product Manager", "Product", []string{"Roadmapping", "Analytics", "Stakeholder Management"}, "B2B SaaS"},
	{"Technical Writer", "Content", []string{"Documentation", "Markdown", "API Design"}, "Docs-as-code"},
	{"Customer Success Manager", "Support", []string{"Onboarding", "CRM", "Communication"}, "Enterprise accounts"},
	{"Security Engineer", "Security", []string{"Threat Modeling", "Go", "Cloud Security"}, "Incident response"},
	{"Mobile Developer", "Engineering", []string{"Kotlin", "Swift", "REST"}, "Offline sync"},
	{"QA Automation Engineer", "Engineering", []string{"Playwright", "CI", "TypeScript"}, "Load testing"},
}

var companies = []string{
	"Northwind Labs", "Bluefin Analytics", "Copperleaf", "Harbor Systems",
	"Lumen Health", "Quarry Works", "Tessellate", "Juniper Freight",
}

var places = []struct{ city, country string }{
	{"Berlin", "Germany"}, {"Lisbon", "Portugal"}, {"Toronto", "Canada"},
	{"Austin", "USA"}, {"Nairobi", "Kenya"}, {"Remote", ""},
	{"Jakarta", "Indonesia"}, {"Madrid", "Spain"},
}

var employmentTypes = []string{"Full-Time", "Part-Time", "Contract", "Internship"}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:   "seed",
		Usage:  "Populate the store with generated listings and profiles",
		Action: seedAction,
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "listings", Usage: "Number of listings to generate", Value: 200},
			&cli.IntFlag{Name: "profiles", Usage: "Number of profiles to generate", Value: 20},
			&cli.Uint64Flag{Name: "seed", Usage: "Random seed", Value: 1},
			&cli.IntFlag{Name: "batch-size", Usage: "Listings stored per write", Value: 50},
		},
	}
}

func seedAction(c *cli.Context) error {
	batchSize := c.Int("batch-size")
	if batchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}

	engine, err := openEngine(c.Context, c)
	if err != nil {
		return err
	}
	defer engine.Close()

	rng := rand.New(rand.NewPCG(c.Uint64("seed"), 0))
	now := time.Now().UTC()

	stored, err := seedListings(c.Context, engine, generateListings(rng, now, c.Int("listings")), batchSize)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Stored %d listings, waiting for embeddings\n", stored)
	engine.WaitForEmbeddings()

	profiles := 0
	for profile := range generateProfiles(rng, c.Int("profiles")) {
		_, err := engine.AddProfile(c.Context, profile)
		if errors.Is(err, storage.ErrDuplicateKey) {
			continue
		}
		if err != nil {
			return fmt.Errorf("profile for user %d: %w", profile.OwnerId, err)
		}
		profiles++
	}
	fmt.Fprintf(os.Stderr, "Stored %d profiles\n", profiles)
	return nil
}

func seedListings(ctx context.Context, engine *jobmatch.Engine, source iter.Seq[*core.Listing], batchSize int) (int, error) {
	batch := make([]*core.Listing, 0, batchSize)
	stored := 0
	for listing := range source {
		batch = append(batch, listing)
		if len(batch) == batchSize {
			if _, err := engine.AddListings(ctx, batch...); err != nil {
				return stored, err
			}
			stored += len(batch)
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if _, err := engine.AddListings(ctx, batch...); err != nil {
			return stored, err
		}
		stored += len(batch)
	}
	return stored, nil
}

// generateListings yields count listings. About one in eight is already
// closed so eligibility filtering has something to do.
func generateListings(rng *rand.Rand, now time.Time, count int) iter.Seq[*core.Listing] {
	return func(yield func(*core.Listing) bool) {
		for i := 0; i < count; i++ {
			r := roles[rng.IntN(len(roles))]
			place := places[rng.IntN(len(places))]
			company := companies[rng.IntN(len(companies))]

			deadline := now.Add(time.Duration(1+rng.IntN(60)) * 24 * time.Hour)
			if rng.IntN(8) == 0 {
				deadline = now.Add(-time.Duration(1+rng.IntN(10)) * 24 * time.Hour)
			}
			salaryFrom := float64(30+rng.IntN(90)) * 1000
			salaryTo := salaryFrom + float64(rng.IntN(40))*1000

			listing := &core.Listing{
				OwnerId:          core.ID(1000 + rng.IntN(50)),
				Title:            r.title,
				Company:          company,
				City:             place.city,
				Country:          place.country,
				Type:             employmentTypes[rng.IntN(len(employmentTypes))],
				Description:      fmt.Sprintf("%s is hiring a %s to join a growing team.", company, r.title),
				Responsibilities: fmt.Sprintf("Own %s work end to end and mentor peers.", r.category),
				WhoYouAre:        fmt.Sprintf("You have shipped production work with %s.", r.skills[0]),
				NiceToHaves:      r.niceToHave,
				Keywords:         r.category,
				ApplyBefore:      deadline,
				PostedOn:         now.Add(-time.Duration(rng.IntN(30)) * 24 * time.Hour),
				SalaryFrom:       &salaryFrom,
				SalaryTo:         &salaryTo,
				Categories:       []string{r.category},
				Skills:           r.skills,
			}
			if rng.IntN(4) == 0 {
				capacity := 1 + rng.IntN(20)
				listing.Capacity = &capacity
				listing.ApplicationCount = rng.IntN(capacity + 1)
			}
			if !yield(listing) {
				return
			}
		}
	}
}

// generateProfiles yields count profiles for users 1..count, each mixing
// skills from two roles.
func generateProfiles(rng *rand.Rand, count int) iter.Seq[*core.Profile] {
	return func(yield func(*core.Profile) bool) {
		for i := 1; i <= count; i++ {
			first := roles[rng.IntN(len(roles))]
			second := roles[rng.IntN(len(roles))]
			skills := append([]string{}, first.skills...)
			skills = append(skills, second.skills[rng.IntN(len(second.skills))])
			if !yield(&core.Profile{OwnerId: core.ID(i), Skills: skills}) {
				return
			}
		}
	}
}
