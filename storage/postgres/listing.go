package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/poiesic/jobmatch/core"
	"github.com/poiesic/jobmatch/storage"
)

// ListingRepository implements storage.ListingRepository for PostgreSQL.
// Category and skill names are stored as text arrays holding the canonical
// spelling from the terms table.
type ListingRepository struct {
	pool     *pgxpool.Pool
	taxonomy storage.TaxonomyRepository
}

var _ storage.ListingRepository = (*ListingRepository)(nil)

const listingColumns = `id, owner_id, title, company, city, country, type, description,
	responsibilities, who_you_are, nice_to_haves, keywords, capacity, application_count,
	apply_before, posted_on, salary_from, salary_to, categories, skills, inserted_at, updated_at`

// Close is a no-op; the pool is owned by Repositories.
func (r *ListingRepository) Close() error {
	return nil
}

func (r *ListingRepository) AddListings(ctx context.Context, listings ...*core.Listing) ([]*core.Listing, error) {
	if err := r.prepare(ctx, listings); err != nil {
		return nil, err
	}

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, listing := range listings {
			listing.InsertedAt = time.Now().UTC()
			listing.UpdatedAt = listing.InsertedAt
			if listing.PostedOn.IsZero() {
				listing.PostedOn = listing.InsertedAt
			}

			var id int64
			err := tx.QueryRow(ctx, `
				INSERT INTO listings (owner_id, title, company, city, country, type, description,
					responsibilities, who_you_are, nice_to_haves, keywords, capacity, application_count,
					apply_before, posted_on, salary_from, salary_to, categories, skills, inserted_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
				RETURNING id`,
				listingArgs(listing)...,
			).Scan(&id)
			if err != nil {
				return fmt.Errorf("failed to insert listing %q: %w", listing.Title, err)
			}
			listing.Id = core.ID(id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return listings, nil
}

func (r *ListingRepository) UpdateListings(ctx context.Context, listings ...*core.Listing) ([]*core.Listing, error) {
	if err := r.prepare(ctx, listings); err != nil {
		return nil, err
	}

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, listing := range listings {
			listing.UpdatedAt = time.Now().UTC()
			var postedOn any
			if !listing.PostedOn.IsZero() {
				postedOn = listing.PostedOn.UTC()
			}
			err := tx.QueryRow(ctx, `
				UPDATE listings SET owner_id = $1, title = $2, company = $3, city = $4, country = $5,
					type = $6, description = $7, responsibilities = $8, who_you_are = $9,
					nice_to_haves = $10, keywords = $11, capacity = $12, application_count = $13,
					apply_before = $14, posted_on = COALESCE($15, posted_on), salary_from = $16,
					salary_to = $17, categories = $18, skills = $19, updated_at = $20
				WHERE id = $21
				RETURNING inserted_at, posted_on`,
				int64(listing.OwnerId), listing.Title, listing.Company, listing.City, listing.Country,
				listing.Type, listing.Description, listing.Responsibilities, listing.WhoYouAre,
				listing.NiceToHaves, listing.Keywords, listing.Capacity, listing.ApplicationCount,
				listing.ApplyBefore.UTC(), postedOn, listing.SalaryFrom,
				listing.SalaryTo, nonNil(listing.Categories), nonNil(listing.Skills), listing.UpdatedAt,
				int64(listing.Id),
			).Scan(&listing.InsertedAt, &listing.PostedOn)
			if err != nil {
				return notFound(err)
			}
			listing.InsertedAt = listing.InsertedAt.UTC()
			listing.PostedOn = listing.PostedOn.UTC()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return listings, nil
}

func (r *ListingRepository) GetListing(ctx context.Context, id core.ID) (*core.Listing, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, int64(id))
	listing, err := scanListing(row)
	if err != nil {
		return nil, notFound(err)
	}
	return listing, nil
}

// GetListings loads all requested listings with one query and returns them
// in the order of ids.
func (r *ListingRepository) GetListings(ctx context.Context, ids ...core.ID) ([]*core.Listing, error) {
	if len(ids) == 0 {
		return []*core.Listing{}, nil
	}
	found, err := r.query(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = ANY($1)`, toInt64s(ids))
	if err != nil {
		return nil, err
	}

	byID := make(map[core.ID]*core.Listing, len(found))
	for _, l := range found {
		byID[l.Id] = l
	}
	result := make([]*core.Listing, 0, len(ids))
	for _, id := range ids {
		if l, ok := byID[id]; ok {
			result = append(result, l)
		}
	}
	return result, nil
}

func (r *ListingRepository) AllListings(ctx context.Context) ([]*core.Listing, error) {
	return r.query(ctx, `SELECT `+listingColumns+` FROM listings ORDER BY id`)
}

func (r *ListingRepository) ListingsByOwner(ctx context.Context, ownerID core.ID) ([]*core.Listing, error) {
	return r.query(ctx, `SELECT `+listingColumns+` FROM listings WHERE owner_id = $1 ORDER BY id`, int64(ownerID))
}

func (r *ListingRepository) query(ctx context.Context, sql string, args ...any) ([]*core.Listing, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*core.Listing, error) {
		return scanListing(row)
	})
}

// prepare validates listings and resolves their category and skill names.
func (r *ListingRepository) prepare(ctx context.Context, listings []*core.Listing) error {
	for _, listing := range listings {
		if err := core.ValidateListing(listing); err != nil {
			return err
		}
		categories, err := storage.ResolveNames(ctx, r.taxonomy, core.TermCategory, listing.Categories)
		if err != nil {
			return err
		}
		skills, err := storage.ResolveNames(ctx, r.taxonomy, core.TermSkill, listing.Skills)
		if err != nil {
			return err
		}
		listing.Categories = categories
		listing.Skills = skills
	}
	return nil
}

func listingArgs(l *core.Listing) []any {
	return []any{
		int64(l.OwnerId), l.Title, l.Company, l.City, l.Country, l.Type, l.Description,
		l.Responsibilities, l.WhoYouAre, l.NiceToHaves, l.Keywords, l.Capacity, l.ApplicationCount,
		l.ApplyBefore.UTC(), l.PostedOn.UTC(), l.SalaryFrom, l.SalaryTo,
		nonNil(l.Categories), nonNil(l.Skills), l.InsertedAt, l.UpdatedAt,
	}
}

func scanListing(row pgx.Row) (*core.Listing, error) {
	var (
		id, owner int64
		l         core.Listing
	)
	err := row.Scan(&id, &owner, &l.Title, &l.Company, &l.City, &l.Country, &l.Type, &l.Description,
		&l.Responsibilities, &l.WhoYouAre, &l.NiceToHaves, &l.Keywords, &l.Capacity, &l.ApplicationCount,
		&l.ApplyBefore, &l.PostedOn, &l.SalaryFrom, &l.SalaryTo, &l.Categories, &l.Skills,
		&l.InsertedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.Id = core.ID(id)
	l.OwnerId = core.ID(owner)
	l.ApplyBefore = l.ApplyBefore.UTC()
	l.PostedOn = l.PostedOn.UTC()
	l.InsertedAt = l.InsertedAt.UTC()
	l.UpdatedAt = l.UpdatedAt.UTC()
	if len(l.Categories) == 0 {
		l.Categories = nil
	}
	if len(l.Skills) == 0 {
		l.Skills = nil
	}
	return &l, nil
}

// nonNil keeps NOT NULL array columns from receiving NULL.
func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
