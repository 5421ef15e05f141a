package db

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("db: record not found")
	ErrConflict = errors.New("db: record conflicts with an existing one")
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page selects a 1-based window of a listing.
type Page struct {
	Number int
	Size   int
}

// Normalize fills in defaults and clamps the size.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = DefaultPage
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Page) Offset() int {
	p = p.Normalize()
	return (p.Number - 1) * p.Size
}

// Filter narrows a listing. Keys are column names.
type Filter struct {
	Eq       map[string]any     // column = value
	In       map[string][]int64 // column is one of values
	Like     map[string]string  // column contains value, case-insensitive
	Overlaps map[string][]int64 // array column shares an element with values
}

func (f *Filter) SetEq(col string, v any) *Filter {
	if f.Eq == nil {
		f.Eq = map[string]any{}
	}
	f.Eq[col] = v
	return f
}

func (f *Filter) SetIn(col string, v []int64) *Filter {
	if len(v) == 0 {
		return f
	}
	if f.In == nil {
		f.In = map[string][]int64{}
	}
	f.In[col] = v
	return f
}

func (f *Filter) SetLike(col, v string) *Filter {
	if v == "" {
		return f
	}
	if f.Like == nil {
		f.Like = map[string]string{}
	}
	f.Like[col] = v
	return f
}

func (f *Filter) SetOverlaps(col string, v []int64) *Filter {
	if len(v) == 0 {
		return f
	}
	if f.Overlaps == nil {
		f.Overlaps = map[string][]int64{}
	}
	f.Overlaps[col] = v
	return f
}

// Model is implemented by every table through models.Base.
type Model interface {
	PK() int64
	SetPK(int64)
}

// ModelPtr constrains a repository's element type to pointers implementing
// Model.
type ModelPtr[T any] interface {
	*T
	Model
}

// Repository is the persistence surface the API services depend on.
// Listings are ordered by id.
type Repository[T any] interface {
	List(ctx context.Context, page Page, filter Filter) ([]T, error)
	Get(ctx context.Context, id int64) (*T, error)
	// FindOne returns the first row matching filter, or ErrNotFound.
	FindOne(ctx context.Context, filter Filter) (*T, error)
	Create(ctx context.Context, m *T) error
	Update(ctx context.Context, m *T) error
	// UpdateIf writes m only while the stored row still matches cond, in
	// one statement. A row that no longer matches yields ErrConflict.
	UpdateIf(ctx context.Context, m *T, cond Filter) error
	Delete(ctx context.Context, id int64) error
}
