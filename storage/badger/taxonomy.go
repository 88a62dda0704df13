package badger

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/jobmatch/core"
	"github.com/poiesic/jobmatch/storage"
)

// TaxonomyRepository implements storage.TaxonomyRepository for BadgerDB.
// Term IDs are derived from the case-folded name, so the primary key itself
// enforces case-insensitive uniqueness.
type TaxonomyRepository struct {
	backend *Backend
}

var _ storage.TaxonomyRepository = (*TaxonomyRepository)(nil)

// NewTaxonomyRepository creates a new TaxonomyRepository.
func NewTaxonomyRepository(backend *Backend) (*TaxonomyRepository, error) {
	return &TaxonomyRepository{
		backend: backend,
	}, nil
}

// Close releases resources. TaxonomyRepository has no resources to release.
func (r *TaxonomyRepository) Close() error {
	return nil
}

// FindTerm looks up a term by kind and name, ignoring case.
func (r *TaxonomyRepository) FindTerm(ctx context.Context, kind core.TermKind, name string) (*core.Term, error) {
	if err := core.ValidateTermKind(kind); err != nil {
		return nil, err
	}
	var result *core.Term
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readTerm(tx, makeTermKey(kind, core.TermID(kind, name)))
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

// GetOrCreateTerm finds or creates a term by kind and name.
func (r *TaxonomyRepository) GetOrCreateTerm(ctx context.Context, kind core.TermKind, name string) (*core.Term, error) {
	if err := core.ValidateTermKind(kind); err != nil {
		return nil, err
	}
	if err := core.ValidateTermName(name); err != nil {
		return nil, err
	}

	// Try to find existing term
	term, err := r.FindTerm(ctx, kind, name)
	if err == nil {
		return term, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	candidate := &core.Term{
		Id:         core.TermID(kind, name),
		Kind:       kind,
		Name:       strings.TrimSpace(name),
		InsertedAt: time.Now().UTC(),
	}
	key := makeTermKey(kind, candidate.Id)

	err = r.backend.WithTx(func(tx *badger.Txn) error {
		// Reading the key inside the write transaction makes a concurrent
		// creation surface as badger.ErrConflict on commit.
		existing, err := readTerm(tx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			term = existing
			return nil
		}
		if err := tx.Set(key, storage.MarshalTerm(candidate)); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		term = candidate
		return nil
	}, true)
	if err != nil {
		// Someone else may have created it first
		existing, findErr := r.FindTerm(ctx, kind, name)
		if findErr == nil {
			return existing, nil
		}
		return nil, err
	}

	return term, nil
}

// GetOrCreateCategory finds or creates a category by name.
func (r *TaxonomyRepository) GetOrCreateCategory(ctx context.Context, name string) (*core.Term, error) {
	return r.GetOrCreateTerm(ctx, core.TermCategory, name)
}

// GetOrCreateSkill finds or creates a skill by name.
func (r *TaxonomyRepository) GetOrCreateSkill(ctx context.Context, name string) (*core.Term, error) {
	return r.GetOrCreateTerm(ctx, core.TermSkill, name)
}

// Terms returns every term of a kind, ordered by folded name.
func (r *TaxonomyRepository) Terms(ctx context.Context, kind core.TermKind) ([]*core.Term, error) {
	if err := core.ValidateTermKind(kind); err != nil {
		return nil, err
	}
	var results []*core.Term
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(tx, makeTermKindPrefix(kind), func(val []byte) error {
			term, err := storage.UnmarshalTerm(val)
			if err != nil {
				return err
			}
			results = append(results, term)
			return nil
		})
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.Term) int {
		return strings.Compare(core.FoldName(a.Name), core.FoldName(b.Name))
	})
	return results, nil
}

// readTerm reads a term from the transaction.
func readTerm(tx *badger.Txn, key []byte) (*core.Term, error) {
	val, err := getValue(tx, key)
	if err != nil || val == nil {
		return nil, err
	}
	return storage.UnmarshalTerm(val)
}
