package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/poiesic/jobmatch/core"
	"github.com/poiesic/jobmatch/storage"
)

// TaxonomyRepository implements storage.TaxonomyRepository for PostgreSQL.
// Terms are keyed by (kind, folded name); INSERT ... ON CONFLICT DO NOTHING
// makes concurrent creation of the same name resolve to the first writer.
type TaxonomyRepository struct {
	pool *pgxpool.Pool
}

var _ storage.TaxonomyRepository = (*TaxonomyRepository)(nil)

// Close is a no-op; the pool is owned by Repositories.
func (r *TaxonomyRepository) Close() error {
	return nil
}

func (r *TaxonomyRepository) GetOrCreateTerm(ctx context.Context, kind core.TermKind, name string) (*core.Term, error) {
	if err := core.ValidateTermKind(kind); err != nil {
		return nil, err
	}
	if err := core.ValidateTermName(name); err != nil {
		return nil, err
	}

	folded := core.FoldName(name)
	_, err := r.pool.Exec(ctx, `
		INSERT INTO terms (kind, folded, id, name, inserted_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (kind, folded) DO NOTHING`,
		string(kind), folded, int64(core.TermID(kind, name)), strings.TrimSpace(name), time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to create %s %q: %w", kind, name, err)
	}

	return r.FindTerm(ctx, kind, name)
}

func (r *TaxonomyRepository) GetOrCreateCategory(ctx context.Context, name string) (*core.Term, error) {
	return r.GetOrCreateTerm(ctx, core.TermCategory, name)
}

func (r *TaxonomyRepository) GetOrCreateSkill(ctx context.Context, name string) (*core.Term, error) {
	return r.GetOrCreateTerm(ctx, core.TermSkill, name)
}

func (r *TaxonomyRepository) FindTerm(ctx context.Context, kind core.TermKind, name string) (*core.Term, error) {
	if err := core.ValidateTermKind(kind); err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, `
		SELECT id, kind, name, inserted_at FROM terms
		WHERE kind = $1 AND folded = $2`,
		string(kind), core.FoldName(name))
	term, err := scanTerm(row)
	if err != nil {
		return nil, notFound(err)
	}
	return term, nil
}

func (r *TaxonomyRepository) Terms(ctx context.Context, kind core.TermKind) ([]*core.Term, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, kind, name, inserted_at FROM terms
		WHERE kind = $1 ORDER BY folded`, string(kind))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*core.Term, error) {
		return scanTerm(row)
	})
}

func scanTerm(row pgx.Row) (*core.Term, error) {
	var (
		id   int64
		kind string
		t    core.Term
	)
	if err := row.Scan(&id, &kind, &t.Name, &t.InsertedAt); err != nil {
		return nil, err
	}
	t.Id = core.ID(id)
	t.Kind = core.TermKind(kind)
	t.InsertedAt = t.InsertedAt.UTC()
	return &t, nil
}
