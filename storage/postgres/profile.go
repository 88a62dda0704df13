package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/poiesic/jobmatch/core"
	"github.com/poiesic/jobmatch/storage"
)

// ProfileRepository implements storage.ProfileRepository for PostgreSQL.
type ProfileRepository struct {
	pool     *pgxpool.Pool
	taxonomy storage.TaxonomyRepository
}

var _ storage.ProfileRepository = (*ProfileRepository)(nil)

const profileColumns = `id, owner_id, skills, inserted_at, updated_at`

// Close is a no-op; the pool is owned by Repositories.
func (r *ProfileRepository) Close() error {
	return nil
}

func (r *ProfileRepository) AddProfiles(ctx context.Context, profiles ...*core.Profile) ([]*core.Profile, error) {
	if err := r.prepare(ctx, profiles); err != nil {
		return nil, err
	}

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, profile := range profiles {
			profile.InsertedAt = time.Now().UTC()
			profile.UpdatedAt = profile.InsertedAt

			var id int64
			err := tx.QueryRow(ctx, `
				INSERT INTO profiles (owner_id, skills, inserted_at, updated_at)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (owner_id) DO NOTHING
				RETURNING id`,
				int64(profile.OwnerId), nonNil(profile.Skills), profile.InsertedAt, profile.UpdatedAt,
			).Scan(&id)
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: owner %d already has a profile", storage.ErrDuplicateKey, profile.OwnerId)
			}
			if err != nil {
				return err
			}
			profile.Id = core.ID(id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *ProfileRepository) UpdateProfiles(ctx context.Context, profiles ...*core.Profile) ([]*core.Profile, error) {
	if err := r.prepare(ctx, profiles); err != nil {
		return nil, err
	}

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, profile := range profiles {
			var owner int64
			err := tx.QueryRow(ctx, `SELECT owner_id FROM profiles WHERE id = $1 FOR UPDATE`,
				int64(profile.Id)).Scan(&owner)
			if err != nil {
				return notFound(err)
			}
			if core.ID(owner) != profile.OwnerId {
				return fmt.Errorf("%w: profile owner cannot change", storage.ErrInvalidRecord)
			}

			profile.UpdatedAt = time.Now().UTC()
			err = tx.QueryRow(ctx, `
				UPDATE profiles SET skills = $1, updated_at = $2
				WHERE id = $3
				RETURNING inserted_at`,
				nonNil(profile.Skills), profile.UpdatedAt, int64(profile.Id),
			).Scan(&profile.InsertedAt)
			if err != nil {
				return err
			}
			profile.InsertedAt = profile.InsertedAt.UTC()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *ProfileRepository) GetProfile(ctx context.Context, id core.ID) (*core.Profile, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, int64(id))
	profile, err := scanProfile(row)
	if err != nil {
		return nil, notFound(err)
	}
	return profile, nil
}

func (r *ProfileRepository) GetProfileByOwner(ctx context.Context, ownerID core.ID) (*core.Profile, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE owner_id = $1`, int64(ownerID))
	profile, err := scanProfile(row)
	if err != nil {
		return nil, notFound(err)
	}
	return profile, nil
}

func (r *ProfileRepository) AllProfiles(ctx context.Context) ([]*core.Profile, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*core.Profile, error) {
		return scanProfile(row)
	})
}

// prepare validates profiles and resolves their skill names.
func (r *ProfileRepository) prepare(ctx context.Context, profiles []*core.Profile) error {
	for _, profile := range profiles {
		if err := core.ValidateProfile(profile); err != nil {
			return err
		}
		skills, err := storage.ResolveNames(ctx, r.taxonomy, core.TermSkill, profile.Skills)
		if err != nil {
			return err
		}
		profile.Skills = skills
	}
	return nil
}

func scanProfile(row pgx.Row) (*core.Profile, error) {
	var (
		id, owner int64
		p         core.Profile
	)
	if err := row.Scan(&id, &owner, &p.Skills, &p.InsertedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Id = core.ID(id)
	p.OwnerId = core.ID(owner)
	p.InsertedAt = p.InsertedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	if len(p.Skills) == 0 {
		p.Skills = nil
	}
	return &p, nil
}
