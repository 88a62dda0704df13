package badger

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/jobmatch/core"
	"github.com/poiesic/jobmatch/storage"
)

// ProfileRepository implements storage.ProfileRepository for BadgerDB.
type ProfileRepository struct {
	backend  *Backend
	taxonomy storage.TaxonomyRepository
	idSeq    *badger.Sequence
}

var _ storage.ProfileRepository = (*ProfileRepository)(nil)

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(backend *Backend, taxonomy storage.TaxonomyRepository) (*ProfileRepository, error) {
	if taxonomy == nil {
		return nil, fmt.Errorf("taxonomy repository required")
	}
	idSeq, err := backend.GetSequence(profileIDSeq)
	if err != nil {
		return nil, err
	}
	return &ProfileRepository{
		backend:  backend,
		taxonomy: taxonomy,
		idSeq:    idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *ProfileRepository) Close() error {
	return r.idSeq.Release()
}

// AddProfiles adds one or more profiles to storage.
func (r *ProfileRepository) AddProfiles(ctx context.Context, profiles ...*core.Profile) ([]*core.Profile, error) {
	if err := r.prepare(ctx, profiles); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, profile := range profiles {
			ownerKey := makeProfileOwnerKey(profile.OwnerId)
			existing, err := getValue(tx, ownerKey)
			if err != nil {
				return err
			}
			if existing != nil {
				return fmt.Errorf("%w: owner %d already has a profile", storage.ErrDuplicateKey, profile.OwnerId)
			}

			nextID, err := nextID(r.idSeq)
			if err != nil {
				return err
			}
			profile.Id = core.ID(nextID)
			profile.InsertedAt = time.Now().UTC()
			profile.UpdatedAt = profile.InsertedAt

			if err := tx.Set(makeProfileKey(profile.Id), storage.MarshalProfile(profile)); err != nil {
				return err
			}
			if err := tx.Set(ownerKey, storage.MarshalID(profile.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return profiles, err
}

// UpdateProfiles replaces existing profiles.
func (r *ProfileRepository) UpdateProfiles(ctx context.Context, profiles ...*core.Profile) ([]*core.Profile, error) {
	if err := r.prepare(ctx, profiles); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, profile := range profiles {
			key := makeProfileKey(profile.Id)
			old, err := readProfile(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}
			if old.OwnerId != profile.OwnerId {
				return fmt.Errorf("%w: profile owner cannot change", storage.ErrInvalidRecord)
			}

			profile.InsertedAt = old.InsertedAt
			profile.UpdatedAt = time.Now().UTC()
			if err := tx.Set(key, storage.MarshalProfile(profile)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return profiles, err
}

// GetProfile retrieves a profile by ID.
func (r *ProfileRepository) GetProfile(ctx context.Context, id core.ID) (*core.Profile, error) {
	var result *core.Profile
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readProfile(tx, makeProfileKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetProfileByOwner retrieves the profile belonging to a user.
func (r *ProfileRepository) GetProfileByOwner(ctx context.Context, ownerID core.ID) (*core.Profile, error) {
	var result *core.Profile
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		val, err := getValue(tx, makeProfileOwnerKey(ownerID))
		if err != nil {
			return err
		}
		if val == nil {
			return storage.ErrNotFound
		}
		profileID, err := storage.UnmarshalID(val)
		if err != nil {
			return err
		}
		result, err = readProfile(tx, makeProfileKey(profileID))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// AllProfiles retrieves every stored profile, ordered by ID.
func (r *ProfileRepository) AllProfiles(ctx context.Context) ([]*core.Profile, error) {
	var results []*core.Profile
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(tx, []byte(profilePrefix+":"), func(val []byte) error {
			profile, err := storage.UnmarshalProfile(val)
			if err != nil {
				return err
			}
			results = append(results, profile)
			return nil
		})
	}, false)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(results, func(a, b *core.Profile) int {
		return cmp.Compare(a.Id, b.Id)
	})
	return results, nil
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

// readProfile reads a profile from the transaction.
func readProfile(tx *badger.Txn, key []byte) (*core.Profile, error) {
	val, err := getValue(tx, key)
	if err != nil || val == nil {
		return nil, err
	}
	return storage.UnmarshalProfile(val)
}
