// Package catalog serves the librarian-maintained tables: authors, books,
// copies and the genre, language and status lookups.
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/quatton/libra/pkg/db"
	"github.com/quatton/libra/pkg/lapi/apierr"
)

const DateLayout = "2006-01-02"

// ParseDate accepts YYYY-MM-DD, or a timestamp whose first ten characters
// are one.
func ParseDate(field, s string) (time.Time, error) {
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, apierr.Invalid(field, "must be a date in YYYY-MM-DD form")
	}
	return t, nil
}

// Validator checks business rules before a write. It may normalize m.
type Validator[M any] func(ctx context.Context, m *M) error

// Service is a CRUD surface over one repository.
type Service[M any, P db.ModelPtr[M]] struct {
	entity   string
	repo     db.Repository[M]
	validate Validator[M]
}

func NewService[M any, P db.ModelPtr[M]](entity string, repo db.Repository[M], validate Validator[M]) *Service[M, P] {
	return &Service[M, P]{entity: entity, repo: repo, validate: validate}
}

func (s *Service[M, P]) List(ctx context.Context, page db.Page, filter db.Filter) ([]M, error) {
	return s.repo.List(ctx, page, filter)
}

func (s *Service[M, P]) Get(ctx context.Context, id int64) (*M, error) {
	m, err := s.repo.Get(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apierr.NotFound(s.entity, id)
	}
	return m, err
}

func (s *Service[M, P]) Create(ctx context.Context, m *M) (*M, error) {
	P(m).SetPK(0)
	if s.validate != nil {
		if err := s.validate(ctx, m); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Update replaces every mutable column of the record.
func (s *Service[M, P]) Update(ctx context.Context, id int64, m *M) (*M, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	P(m).SetPK(id)
	if s.validate != nil {
		if err := s.validate(ctx, m); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service[M, P]) Delete(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return apierr.NotFound(s.entity, id)
	}
	return err
}

// Exists reports whether id names a live record.
func (s *Service[M, P]) Exists(ctx context.Context, id int64) (bool, error) {
	_, err := s.repo.Get(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}
