package lsdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"

	"github.com/oapi-codegen/runtime"
)

// ListOptions pages a list call. Params carries endpoint filters; slice
// values are exploded into repeated query parameters.
type ListOptions struct {
	Page     int
	PageSize int
	Params   map[string]any
}

func (o *ListOptions) values() (url.Values, error) {
	q := url.Values{}
	if o == nil {
		return q, nil
	}
	if o.Page > 0 {
		if err := addQuery(q, "page_number", o.Page); err != nil {
			return nil, err
		}
	}
	if o.PageSize > 0 {
		if err := addQuery(q, "page_size", o.PageSize); err != nil {
			return nil, err
		}
	}
	keys := make([]string, 0, len(o.Params))
	for k := range o.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if o.Params[k] == nil {
			continue
		}
		if err := addQuery(q, k, o.Params[k]); err != nil {
			return nil, err
		}
	}
	return q, nil
}

func addQuery(q url.Values, name string, value any) error {
	frag, err := runtime.StyleParamWithLocation("form", true, name, runtime.ParamLocationQuery, value)
	if err != nil {
		return fmt.Errorf("styling %s: %w", name, err)
	}
	parsed, err := url.ParseQuery(frag)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	for k, vs := range parsed {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	return nil
}

func pathID(id int64) (string, error) {
	return runtime.StyleParamWithLocation("simple", false, "id", runtime.ParamLocationPath, id)
}

// Resource is the CRUD surface shared by every catalog entity.
type Resource[T any] struct {
	c    *Client
	base string
}

func newResource[T any](c *Client, base string) *Resource[T] {
	return &Resource[T]{c: c, base: base}
}

func (r *Resource[T]) list(ctx context.Context, path string, opts *ListOptions) ([]T, error) {
	q, err := opts.values()
	if err != nil {
		return nil, err
	}
	var out []T
	if err := r.c.do(ctx, &request{method: http.MethodGet, path: path, query: q}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Resource[T]) item(ctx context.Context, method string, id int64, suffix string, body any) (*T, error) {
	p, err := pathID(id)
	if err != nil {
		return nil, err
	}
	var out T
	if err := r.c.Do(ctx, method, r.base+suffix+"/"+p, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Resource[T]) List(ctx context.Context, opts *ListOptions) ([]T, error) {
	return r.list(ctx, r.base+"/", opts)
}

func (r *Resource[T]) Get(ctx context.Context, id int64) (*T, error) {
	return r.item(ctx, http.MethodGet, id, "", nil)
}

func (r *Resource[T]) Create(ctx context.Context, in *T) (*T, error) {
	var out T
	if err := r.c.Do(ctx, http.MethodPost, r.base+"/", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Resource[T]) Update(ctx context.Context, id int64, in *T) (*T, error) {
	return r.item(ctx, http.MethodPut, id, "", in)
}

func (r *Resource[T]) Delete(ctx context.Context, id int64) error {
	_, err := r.item(ctx, http.MethodDelete, id, "", nil)
	return err
}

// BooksService lists books filtered by author, genre or language ids.
type BooksService struct {
	*Resource[Book]
}

type BookFilter struct {
	Authors   []int64
	Genres    []int64
	Languages []int64
}

// Apply merges the filter into opts (which may be nil).
func (f BookFilter) Apply(opts *ListOptions) *ListOptions {
	if opts == nil {
		opts = &ListOptions{}
	}
	if opts.Params == nil {
		opts.Params = map[string]any{}
	}
	if len(f.Authors) > 0 {
		opts.Params["author"] = f.Authors
	}
	if len(f.Genres) > 0 {
		opts.Params["genre"] = f.Genres
	}
	if len(f.Languages) > 0 {
		opts.Params["language"] = f.Languages
	}
	return opts
}

type CopiesService struct {
	*Resource[Copy]
}

func (s *CopiesService) ListByBook(ctx context.Context, bookID int64, opts *ListOptions) ([]Copy, error) {
	p, err := pathID(bookID)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, s.base+"/book/"+p, opts)
}

type BorrowedService struct {
	*Resource[Borrowed]
}

// Mine lists the caller's own borrow records.
func (s *BorrowedService) Mine(ctx context.Context, opts *ListOptions) ([]Borrowed, error) {
	return s.list(ctx, s.base+"/user", opts)
}

// ForUser lists another user's records (librarian only).
func (s *BorrowedService) ForUser(ctx context.Context, userID int64, opts *ListOptions) ([]Borrowed, error) {
	p, err := pathID(userID)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, s.base+"/user/"+p, opts)
}

// Return closes one of the caller's own records.
func (s *BorrowedService) Return(ctx context.Context, id int64) (*Borrowed, error) {
	return s.item(ctx, http.MethodPut, id, "/return_borrowed_user", nil)
}

// ReturnAny closes any record (librarian only).
func (s *BorrowedService) ReturnAny(ctx context.Context, id int64) (*Borrowed, error) {
	return s.item(ctx, http.MethodPut, id, "/return", nil)
}

type UsersService struct {
	c *Client
}

const userBase = "/api/user"

func (s *UsersService) users() *Resource[User] {
	return newResource[User](s.c, userBase)
}

// List filters by email, username, first_name or last_name via opts.Params.
func (s *UsersService) List(ctx context.Context, opts *ListOptions) ([]User, error) {
	return s.users().list(ctx, userBase+"/", opts)
}

func (s *UsersService) Get(ctx context.Context, id int64) (*User, error) {
	return s.users().Get(ctx, id)
}

func (s *UsersService) Me(ctx context.Context) (*User, error) {
	var out User
	if err := s.c.Do(ctx, http.MethodGet, userBase+"/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *UsersService) UpdateMe(ctx context.Context, in *UserUpdate) (*User, error) {
	var out User
	if err := s.c.Do(ctx, http.MethodPut, userBase+"/", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *UsersService) Update(ctx context.Context, id int64, in *UserUpdate) (*User, error) {
	p, err := pathID(id)
	if err != nil {
		return nil, err
	}
	var out User
	if err := s.c.Do(ctx, http.MethodPut, userBase+"/"+p, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteMe deactivates the caller's account and drops the local session.
func (s *UsersService) DeleteMe(ctx context.Context) error {
	if err := s.c.Do(ctx, http.MethodDelete, userBase+"/", nil, nil); err != nil {
		return err
	}
	return s.c.session.clear(ctx)
}

func (s *UsersService) Delete(ctx context.Context, id int64) error {
	return s.users().Delete(ctx, id)
}

// RegisterLibrarian creates a librarian account (librarian only). The
// caller's session is left untouched.
func (s *UsersService) RegisterLibrarian(ctx context.Context, in SignupRequest) (*User, error) {
	var out User
	if err := s.c.Do(ctx, http.MethodPost, librarianRegisterPath, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
