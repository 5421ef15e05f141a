package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// BunRepository stores T in postgres.
type BunRepository[T any, P ModelPtr[T]] struct {
	db bun.IDB
}

func NewBunRepository[T any, P ModelPtr[T]](db bun.IDB) *BunRepository[T, P] {
	return &BunRepository[T, P]{db: db}
}

type whereQuery[Q any] interface {
	Where(query string, args ...any) Q
}

func applyFilter[Q whereQuery[Q]](q Q, f Filter) Q {
	for col, v := range f.Eq {
		q = q.Where("?TableAlias.? = ?", bun.Ident(col), v)
	}
	for col, v := range f.In {
		q = q.Where("?TableAlias.? IN (?)", bun.Ident(col), bun.In(v))
	}
	for col, v := range f.Like {
		q = q.Where("?TableAlias.? ILIKE ?", bun.Ident(col), "%"+v+"%")
	}
	for col, v := range f.Overlaps {
		q = q.Where("?TableAlias.? && ?", bun.Ident(col), pgdialect.Array(v))
	}
	return q
}

func (r *BunRepository[T, P]) List(ctx context.Context, page Page, filter Filter) ([]T, error) {
	page = page.Normalize()
	out := make([]T, 0, page.Size)
	err := applyFilter(r.db.NewSelect().Model(&out), filter).
		OrderExpr("?TableAlias.id ASC").
		Limit(page.Size).
		Offset(page.Offset()).
		Scan(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

func (r *BunRepository[T, P]) Get(ctx context.Context, id int64) (*T, error) {
	m := new(T)
	P(m).SetPK(id)
	if err := r.db.NewSelect().Model(m).WherePK().Scan(ctx); err != nil {
		return nil, mapError(err)
	}
	return m, nil
}

func (r *BunRepository[T, P]) FindOne(ctx context.Context, filter Filter) (*T, error) {
	m := new(T)
	err := applyFilter(r.db.NewSelect().Model(m), filter).
		OrderExpr("?TableAlias.id ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return m, nil
}

func (r *BunRepository[T, P]) Create(ctx context.Context, m *T) error {
	_, err := r.db.NewInsert().Model(m).Returning("*").Exec(ctx)
	return mapError(err)
}

func (r *BunRepository[T, P]) Update(ctx context.Context, m *T) error {
	res, err := r.db.NewUpdate().Model(m).WherePK().ExcludeColumn("deleted_at").Returning("*").Exec(ctx)
	if err != nil {
		return mapError(err)
	}
	return requireRow(res)
}

func (r *BunRepository[T, P]) UpdateIf(ctx context.Context, m *T, cond Filter) error {
	q := r.db.NewUpdate().Model(m).WherePK().ExcludeColumn("deleted_at")
	res, err := applyFilter(q, cond).Exec(ctx)
	if err != nil {
		return mapError(err)
	}
	if err := requireRow(res); errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: row changed concurrently", ErrConflict)
	} else if err != nil {
		return err
	}
	return nil
}

// Delete soft-deletes the row.
func (r *BunRepository[T, P]) Delete(ctx context.Context, id int64) error {
	m := new(T)
	P(m).SetPK(id)
	res, err := r.db.NewDelete().Model(m).WherePK().Exec(ctx)
	if err != nil {
		return mapError(err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) && pgErr.IntegrityViolation() {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.Field('M'))
	}
	return err
}
