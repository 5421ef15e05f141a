package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/quatton/libra/pkg/db"
	"github.com/quatton/libra/pkg/db/models"
	"github.com/quatton/libra/pkg/lapi/apierr"
)

type fixture struct {
	c        *Catalog
	english  *models.Language
	fiction  *models.Genre
	orwell   *models.Author
	huxley   *models.Author
	nineteen *models.Book
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	c := New(db.NewMemoryRepos())
	c.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }

	f := &fixture{c: c}
	var err error
	if f.english, err = c.Languages.Create(ctx, &models.Language{Name: "English"}); err != nil {
		t.Fatal(err)
	}
	if f.fiction, err = c.Genres.Create(ctx, &models.Genre{Name: "Fiction"}); err != nil {
		t.Fatal(err)
	}
	if f.orwell, err = c.Authors.Create(ctx, &models.Author{FirstName: "George", LastName: "Orwell", BirthDate: "1903-06-25"}); err != nil {
		t.Fatal(err)
	}
	if f.huxley, err = c.Authors.Create(ctx, &models.Author{FirstName: "Aldous", LastName: "Huxley", BirthDate: "1894-07-26"}); err != nil {
		t.Fatal(err)
	}
	f.nineteen, err = c.Books.Create(ctx, &models.Book{
		Title:             "Nineteen Eighty-Four",
		ISBN:              "9780451524935",
		DateOfPublication: "1949-06-08",
		LanguageID:        f.english.ID,
		AuthorIDs:         []int64{f.orwell.ID},
		GenreIDs:          []int64{f.fiction.ID},
	})
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func isInvalid(err error, field string) bool {
	var verr *apierr.ValidationError
	return errors.As(err, &verr) && verr.Location == "body."+field
}

func TestLookupNames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.c.Genres.Create(ctx, &models.Genre{Name: "   "}); !isInvalid(err, "name") {
		t.Errorf("blank genre: err = %v", err)
	}
	g, err := f.c.Statuses.Create(ctx, &models.Status{Name: "  damaged "})
	if err != nil {
		t.Fatal(err)
	}
	if g.Name != "damaged" {
		t.Errorf("name not trimmed: %q", g.Name)
	}
	if _, err := f.c.Languages.Create(ctx, &models.Language{Name: "english"}); !errors.Is(err, db.ErrConflict) {
		t.Errorf("duplicate language: err = %v", err)
	}
}

func TestAuthorDates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	before := "1800-01-01"
	_, err := f.c.Authors.Create(ctx, &models.Author{FirstName: "A", LastName: "B", BirthDate: "1900-01-01", DeathDate: &before})
	if !isInvalid(err, "death_date") {
		t.Errorf("death before birth: err = %v", err)
	}

	empty := ""
	a, err := f.c.Authors.Create(ctx, &models.Author{FirstName: "A", LastName: "B", BirthDate: "1900-01-01T00:00:00Z", DeathDate: &empty})
	if err != nil {
		t.Fatalf("timestamp birth date: %v", err)
	}
	if a.DeathDate != nil {
		t.Errorf("empty death date should become nil, got %q", *a.DeathDate)
	}

	if _, err := f.c.Authors.Create(ctx, &models.Author{FirstName: "A", LastName: "B", BirthDate: "yesterday"}); !isInvalid(err, "birth_date") {
		t.Errorf("bad birth date: err = %v", err)
	}
}

func TestBookValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base := func() *models.Book {
		return &models.Book{
			Title:             "Brave New World",
			ISBN:              "9780060850524",
			DateOfPublication: "1932-01-01",
			LanguageID:        f.english.ID,
			AuthorIDs:         []int64{f.huxley.ID, f.huxley.ID},
			GenreIDs:          []int64{f.fiction.ID},
		}
	}

	tests := []struct {
		name   string
		mutate func(b *models.Book)
		field  string
	}{
		{"future publication", func(b *models.Book) { b.DateOfPublication = "2030-01-01" }, "date_of_publication"},
		{"missing language", func(b *models.Book) { b.LanguageID = 999 }, "language_id"},
		{"missing author", func(b *models.Book) { b.AuthorIDs = []int64{999} }, "author_ids"},
		{"missing genre", func(b *models.Book) { b.GenreIDs = []int64{f.fiction.ID, 999} }, "genre_ids"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := base()
			tt.mutate(b)
			if _, err := f.c.Books.Create(ctx, b); !isInvalid(err, tt.field) {
				t.Errorf("err = %v, want invalid %s", err, tt.field)
			}
		})
	}

	b, err := f.c.Books.Create(ctx, base())
	if err != nil {
		t.Fatal(err)
	}
	if len(b.AuthorIDs) != 1 {
		t.Errorf("author ids not deduplicated: %v", b.AuthorIDs)
	}

	dup := base()
	if _, err := f.c.Books.Create(ctx, dup); !errors.Is(err, db.ErrConflict) {
		t.Errorf("duplicate isbn: err = %v", err)
	}
}

func TestBookFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	french, _ := f.c.Languages.Create(ctx, &models.Language{Name: "French"})
	_, err := f.c.Books.Create(ctx, &models.Book{
		Title:             "Brave New World",
		ISBN:              "9780060850524",
		DateOfPublication: "1932-01-01",
		LanguageID:        french.ID,
		AuthorIDs:         []int64{f.huxley.ID},
		GenreIDs:          []int64{f.fiction.ID},
	})
	if err != nil {
		t.Fatal(err)
	}
	page := db.Page{Number: 1, Size: 10}

	tests := []struct {
		name   string
		filter db.Filter
		want   int
	}{
		{"no filter", BookFilter(nil, nil, nil, ""), 2},
		{"by author", BookFilter([]int64{f.orwell.ID}, nil, nil, ""), 1},
		{"any of authors", BookFilter([]int64{f.orwell.ID, f.huxley.ID}, nil, nil, ""), 2},
		{"by genre", BookFilter(nil, []int64{f.fiction.ID}, nil, ""), 2},
		{"by language", BookFilter(nil, nil, []int64{french.ID}, ""), 1},
		{"combined", BookFilter([]int64{f.orwell.ID}, nil, []int64{french.ID}, ""), 0},
		{"title", BookFilter(nil, nil, nil, "brave"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := f.c.Books.List(ctx, page, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if len(rows) != tt.want {
				t.Errorf("got %d books, want %d", len(rows), tt.want)
			}
		})
	}
}

func TestCopies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.c.Copies.Create(ctx, &models.Copy{BookID: f.nineteen.ID, LanguageID: f.english.ID})
	if err != nil {
		t.Fatal(err)
	}
	if c.Status != models.CopyAvailable {
		t.Errorf("default status = %q", c.Status)
	}
	if _, err := f.c.Copies.Create(ctx, &models.Copy{BookID: f.nineteen.ID, LanguageID: f.english.ID, Status: "lost"}); !isInvalid(err, "status") {
		t.Errorf("bad status: err = %v", err)
	}
	if _, err := f.c.Copies.Create(ctx, &models.Copy{BookID: 999, LanguageID: f.english.ID}); !isInvalid(err, "book_id") {
		t.Errorf("missing book: err = %v", err)
	}

	rows, err := f.c.CopiesOf(ctx, f.nineteen.ID, db.Page{Number: 1, Size: 10})
	if err != nil || len(rows) != 1 {
		t.Fatalf("CopiesOf = %v, %v", rows, err)
	}
	if _, err := f.c.CopiesOf(ctx, 999, db.Page{Number: 1, Size: 10}); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("copies of missing book: err = %v", err)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.c.Genres.Update(ctx, 999, &models.Genre{Name: "x"}); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("update missing: err = %v", err)
	}
	g, err := f.c.Genres.Update(ctx, f.fiction.ID, &models.Genre{Name: "Literary fiction"})
	if err != nil {
		t.Fatal(err)
	}
	if g.ID != f.fiction.ID {
		t.Errorf("update changed id to %d", g.ID)
	}

	if err := f.c.Genres.Delete(ctx, f.fiction.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.c.Genres.Get(ctx, f.fiction.ID); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("get after delete: err = %v", err)
	}
	if err := f.c.Genres.Delete(ctx, f.fiction.ID); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("double delete: err = %v", err)
	}
}
