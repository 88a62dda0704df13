package badger

import (
	"cmp"
	"context"
	"encoding/binary"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/jobmatch/core"
	"github.com/poiesic/jobmatch/storage"
)

// ListingRepository implements storage.ListingRepository for BadgerDB.
type ListingRepository struct {
	backend  *Backend
	taxonomy storage.TaxonomyRepository
	idSeq    *badger.Sequence
}

var _ storage.ListingRepository = (*ListingRepository)(nil)

// NewListingRepository creates a new ListingRepository. Category and skill
// names are resolved through taxonomy before listings are written.
func NewListingRepository(backend *Backend, taxonomy storage.TaxonomyRepository) (*ListingRepository, error) {
	if taxonomy == nil {
		return nil, fmt.Errorf("taxonomy repository required")
	}
	idSeq, err := backend.GetSequence(listingIDSeq)
	if err != nil {
		return nil, err
	}

	return &ListingRepository{
		backend:  backend,
		taxonomy: taxonomy,
		idSeq:    idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *ListingRepository) Close() error {
	return r.idSeq.Release()
}

// AddListings adds one or more listings to storage.
func (r *ListingRepository) AddListings(ctx context.Context, listings ...*core.Listing) ([]*core.Listing, error) {
	if err := r.prepare(ctx, listings); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, listing := range listings {
			nextID, err := nextID(r.idSeq)
			if err != nil {
				return err
			}
			listing.Id = core.ID(nextID)

			listing.InsertedAt = time.Now().UTC()
			listing.UpdatedAt = listing.InsertedAt
			if listing.PostedOn.IsZero() {
				listing.PostedOn = listing.InsertedAt
			}

			if err := tx.Set(makeListingKey(listing.Id), storage.MarshalListing(listing)); err != nil {
				return err
			}

			ownerKey := makeListingOwnerKey(listing.OwnerId, listing.Id)
			if err := tx.Set(ownerKey, storage.MarshalID(listing.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return listings, err
}

// UpdateListings replaces existing listings.
func (r *ListingRepository) UpdateListings(ctx context.Context, listings ...*core.Listing) ([]*core.Listing, error) {
	if err := r.prepare(ctx, listings); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, listing := range listings {
			key := makeListingKey(listing.Id)

			old, err := readListing(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			listing.InsertedAt = old.InsertedAt
			listing.UpdatedAt = time.Now().UTC()
			if listing.PostedOn.IsZero() {
				listing.PostedOn = old.PostedOn
			}

			if err := tx.Set(key, storage.MarshalListing(listing)); err != nil {
				return err
			}

			// Update owner index if the owner changed
			if old.OwnerId != listing.OwnerId {
				if err := tx.Delete(makeListingOwnerKey(old.OwnerId, old.Id)); err != nil {
					return err
				}
				newOwnerKey := makeListingOwnerKey(listing.OwnerId, listing.Id)
				if err := tx.Set(newOwnerKey, storage.MarshalID(listing.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return listings, err
}

// GetListing retrieves a single listing by ID.
func (r *ListingRepository) GetListing(ctx context.Context, id core.ID) (*core.Listing, error) {
	var result *core.Listing
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readListing(tx, makeListingKey(id))
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

// GetListings retrieves multiple listings by their IDs in a single transaction.
func (r *ListingRepository) GetListings(ctx context.Context, ids ...core.ID) ([]*core.Listing, error) {
	result := make([]*core.Listing, 0, len(ids))
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			listing, err := readListing(tx, makeListingKey(id))
			if err != nil {
				return err
			}
			if listing != nil {
				result = append(result, listing)
			}
		}
		return nil
	}, false)
	return result, err
}

// AllListings retrieves every stored listing, ordered by ID.
func (r *ListingRepository) AllListings(ctx context.Context) ([]*core.Listing, error) {
	var results []*core.Listing
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(tx, []byte(listingPrefix+":"), func(val []byte) error {
			listing, err := storage.UnmarshalListing(val)
			if err != nil {
				return err
			}
			results = append(results, listing)
			return nil
		})
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.Listing) int {
		return cmp.Compare(a.Id, b.Id)
	})
	return results, nil
}

// ListingsByOwner retrieves the listings posted by one owner, ordered by ID.
func (r *ListingRepository) ListingsByOwner(ctx context.Context, ownerID core.ID) ([]*core.Listing, error) {
	var results []*core.Listing
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makePartialListingOwnerKey(ownerID)
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
			key := iter.Item().Key()
			// Listing ID is the last 8 bytes of the key
			listingID := core.ID(binary.BigEndian.Uint64(key[len(key)-8:]))

			listing, err := readListing(tx, makeListingKey(listingID))
			if err != nil {
				return err
			}
			if listing != nil {
				results = append(results, listing)
			}
		}
		return nil
	}, false)
	return results, err
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

// readListing reads a listing from the transaction.
func readListing(tx *badger.Txn, key []byte) (*core.Listing, error) {
	val, err := getValue(tx, key)
	if err != nil || val == nil {
		return nil, err
	}
	return storage.UnmarshalListing(val)
}
