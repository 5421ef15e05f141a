package db

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryRepository keeps rows in process memory. Filters and unique
// columns are matched against the JSON form of T, so column names must
// equal the json tags.
type MemoryRepository[T any, P ModelPtr[T]] struct {
	mu     sync.RWMutex
	rows   map[int64]T
	nextID int64
	unique []string
}

func NewMemoryRepository[T any, P ModelPtr[T]](unique ...string) *MemoryRepository[T, P] {
	return &MemoryRepository[T, P]{rows: map[int64]T{}, unique: unique}
}

func columns(m any) map[string]any {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	var out map[string]any
	_ = json.Unmarshal(raw, &out)
	return out
}

func matches(cols map[string]any, f Filter) bool {
	for col, want := range f.Eq {
		if fmt.Sprint(cols[col]) != fmt.Sprint(want) {
			return false
		}
	}
	for col, want := range f.In {
		n, _ := cols[col].(float64)
		if !containsID(want, int64(n)) {
			return false
		}
	}
	for col, sub := range f.Like {
		s, _ := cols[col].(string)
		if !strings.Contains(strings.ToLower(s), strings.ToLower(sub)) {
			return false
		}
	}
	for col, want := range f.Overlaps {
		have, _ := cols[col].([]any)
		if !overlaps(have, want) {
			return false
		}
	}
	return true
}

func overlaps(have []any, want []int64) bool {
	for _, h := range have {
		if n, ok := h.(float64); ok && containsID(want, int64(n)) {
			return true
		}
	}
	return false
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (r *MemoryRepository[T, P]) sortedIDs() []int64 {
	ids := make([]int64, 0, len(r.rows))
	for id := range r.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (r *MemoryRepository[T, P]) List(_ context.Context, page Page, filter Filter) ([]T, error) {
	page = page.Normalize()
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]T, 0, page.Size)
	skip := page.Offset()
	for _, id := range r.sortedIDs() {
		row := r.rows[id]
		if !matches(columns(&row), filter) {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		out = append(out, row)
		if len(out) == page.Size {
			break
		}
	}
	return out, nil
}

func (r *MemoryRepository[T, P]) Get(_ context.Context, id int64) (*T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &row, nil
}

func (r *MemoryRepository[T, P]) FindOne(_ context.Context, filter Filter) (*T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.sortedIDs() {
		row := r.rows[id]
		if matches(columns(&row), filter) {
			return &row, nil
		}
	}
	return nil, ErrNotFound
}

// conflict reports a unique column of m already taken by another row.
func (r *MemoryRepository[T, P]) conflict(m *T) error {
	if len(r.unique) == 0 {
		return nil
	}
	self := P(m).PK()
	cols := columns(m)
	for id, row := range r.rows {
		if id == self {
			continue
		}
		other := columns(&row)
		for _, col := range r.unique {
			a := strings.ToLower(fmt.Sprint(cols[col]))
			if a != "" && a == strings.ToLower(fmt.Sprint(other[col])) {
				return fmt.Errorf("%w: %s already exists", ErrConflict, col)
			}
		}
	}
	return nil
}

func (r *MemoryRepository[T, P]) Create(_ context.Context, m *T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	P(m).SetPK(0)
	if err := r.conflict(m); err != nil {
		return err
	}
	r.nextID++
	P(m).SetPK(r.nextID)
	r.rows[r.nextID] = *m
	return nil
}

func (r *MemoryRepository[T, P]) Update(_ context.Context, m *T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := P(m).PK()
	if _, ok := r.rows[id]; !ok {
		return ErrNotFound
	}
	if err := r.conflict(m); err != nil {
		return err
	}
	r.rows[id] = *m
	return nil
}

func (r *MemoryRepository[T, P]) UpdateIf(_ context.Context, m *T, cond Filter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := P(m).PK()
	row, ok := r.rows[id]
	if !ok {
		return ErrNotFound
	}
	if !matches(columns(&row), cond) {
		return fmt.Errorf("%w: row changed concurrently", ErrConflict)
	}
	if err := r.conflict(m); err != nil {
		return err
	}
	r.rows[id] = *m
	return nil
}

func (r *MemoryRepository[T, P]) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return ErrNotFound
	}
	delete(r.rows, id)
	return nil
}
